package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lumenchat/server/internal/llm"
	"github.com/lumenchat/server/internal/store"
)

// FragmentSink receives generated fragments as they arrive. A sink error
// (typically a gone client) aborts the turn.
type FragmentSink func(fragment string) error

type ChatService struct {
	sessions *store.SessionStore
	streamer llm.Streamer
}

func NewChatService(sessions *store.SessionStore, streamer llm.Streamer) *ChatService {
	return &ChatService{
		sessions: sessions,
		streamer: streamer,
	}
}

// StreamTurn runs one chat turn: the user message is appended to the thread's
// history, the full history is sent to the completion service, and each
// fragment is forwarded to the sink in generation order. When the stream ends
// the assembled response is committed as a single assistant message — an
// empty response is still committed. On a generation or sink failure nothing
// is committed and the user message is NOT rolled back; a user turn with no
// matching reply is an accepted inconsistency.
func (s *ChatService) StreamTurn(ctx context.Context, userID, threadID, content string, sink FragmentSink) error {
	s.sessions.Append(userID, threadID, store.Message{Role: store.RoleUser, Content: content})

	history := s.sessions.History(userID, threadID)
	stream, err := s.streamer.StreamCompletion(ctx, history)
	if err != nil {
		return fmt.Errorf("starting completion for thread %s: %w", threadID, err)
	}

	var response strings.Builder
	for {
		fragment, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("streaming completion for thread %s: %w", threadID, err)
		}
		if err := sink(fragment); err != nil {
			return fmt.Errorf("forwarding fragment for thread %s: %w", threadID, err)
		}
		response.WriteString(fragment)
	}

	s.sessions.Append(userID, threadID, store.Message{Role: store.RoleAssistant, Content: response.String()})
	return nil
}

func (s *ChatService) Threads(userID string) []string {
	return s.sessions.Threads(userID)
}

func (s *ChatService) Messages(userID, threadID string) []store.Message {
	return s.sessions.History(userID, threadID)
}

func (s *ChatService) DeleteThread(userID, threadID string) error {
	if err := s.sessions.Delete(userID, threadID); err != nil {
		return err
	}
	log.Printf("Deleted thread %s for user %s", threadID, userID)
	return nil
}
