package core

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenchat/server/internal/llm"
	"github.com/lumenchat/server/internal/store"
)

// fakeStream replays canned fragments, ending with err (defaults to io.EOF).
type fakeStream struct {
	fragments []string
	err       error
}

func (s *fakeStream) Next() (string, error) {
	if len(s.fragments) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	next := s.fragments[0]
	s.fragments = s.fragments[1:]
	return next, nil
}

type fakeStreamer struct {
	fragments []string
	streamErr error // error from Next after fragments run out
	startErr  error // error from StreamCompletion itself

	gotHistory []store.Message
}

func (f *fakeStreamer) StreamCompletion(ctx context.Context, history []store.Message) (llm.Stream, error) {
	f.gotHistory = history
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &fakeStream{fragments: f.fragments, err: f.streamErr}, nil
}

func TestStreamTurnCommitsBothMessages(t *testing.T) {
	sessions := store.NewSessionStore()
	streamer := &fakeStreamer{fragments: []string{"Hel", "lo ", "there"}}
	svc := NewChatService(sessions, streamer)

	var got []string
	err := svc.StreamTurn(context.Background(), "alice", "default", "hello", func(fragment string) error {
		got = append(got, fragment)
		return nil
	})
	require.NoError(t, err)

	// Fragments reach the sink in generation order.
	assert.Equal(t, []string{"Hel", "lo ", "there"}, got)

	history := sessions.History("alice", "default")
	require.Len(t, history, 2)
	assert.Equal(t, store.Message{Role: store.RoleUser, Content: "hello"}, history[0])
	assert.Equal(t, store.Message{Role: store.RoleAssistant, Content: "Hello there"}, history[1])

	// The completion call saw the history including the new user message.
	require.Len(t, streamer.gotHistory, 1)
	assert.Equal(t, "hello", streamer.gotHistory[0].Content)
}

func TestStreamTurnCommitsEmptyResponse(t *testing.T) {
	sessions := store.NewSessionStore()
	svc := NewChatService(sessions, &fakeStreamer{})

	err := svc.StreamTurn(context.Background(), "alice", "default", "hello", func(string) error {
		t.Fatal("sink should not be called for an empty stream")
		return nil
	})
	require.NoError(t, err)

	history := sessions.History("alice", "default")
	require.Len(t, history, 2)
	assert.Equal(t, store.RoleAssistant, history[1].Role)
	assert.Empty(t, history[1].Content)
}

func TestStreamTurnStartFailureKeepsUserMessage(t *testing.T) {
	sessions := store.NewSessionStore()
	svc := NewChatService(sessions, &fakeStreamer{startErr: errors.New("model unavailable")})

	err := svc.StreamTurn(context.Background(), "alice", "default", "hello", func(string) error {
		return nil
	})
	require.Error(t, err)

	// The user message is not rolled back; no assistant message commits.
	history := sessions.History("alice", "default")
	require.Len(t, history, 1)
	assert.Equal(t, store.RoleUser, history[0].Role)
}

func TestStreamTurnMidStreamFailure(t *testing.T) {
	sessions := store.NewSessionStore()
	streamer := &fakeStreamer{fragments: []string{"partial "}, streamErr: errors.New("context length exceeded")}
	svc := NewChatService(sessions, streamer)

	var got []string
	err := svc.StreamTurn(context.Background(), "alice", "default", "hello", func(fragment string) error {
		got = append(got, fragment)
		return nil
	})
	require.Error(t, err)

	// The fragment streamed before the failure was delivered, but nothing
	// was committed as an assistant message.
	assert.Equal(t, []string{"partial "}, got)
	require.Len(t, sessions.History("alice", "default"), 1)
}

func TestStreamTurnSinkFailureAborts(t *testing.T) {
	sessions := store.NewSessionStore()
	streamer := &fakeStreamer{fragments: []string{"a", "b", "c"}}
	svc := NewChatService(sessions, streamer)

	calls := 0
	err := svc.StreamTurn(context.Background(), "alice", "default", "hello", func(string) error {
		calls++
		return errors.New("client went away")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, sessions.History("alice", "default"), 1)
}

func TestStreamTurnForwardsFullHistory(t *testing.T) {
	sessions := store.NewSessionStore()
	sessions.Append("alice", "default", store.Message{Role: store.RoleUser, Content: "earlier question"})
	sessions.Append("alice", "default", store.Message{Role: store.RoleAssistant, Content: "earlier answer"})

	streamer := &fakeStreamer{fragments: []string{"ok"}}
	svc := NewChatService(sessions, streamer)

	err := svc.StreamTurn(context.Background(), "alice", "default", "follow-up", func(string) error {
		return nil
	})
	require.NoError(t, err)

	// Prior turns plus the new user message, no truncation.
	require.Len(t, streamer.gotHistory, 3)
	assert.Equal(t, "follow-up", streamer.gotHistory[2].Content)
}

func TestDeleteThread(t *testing.T) {
	sessions := store.NewSessionStore()
	sessions.Append("alice", "trip-plan", store.Message{Role: store.RoleUser, Content: "hi"})
	svc := NewChatService(sessions, &fakeStreamer{})

	require.NoError(t, svc.DeleteThread("alice", "trip-plan"))
	assert.ErrorIs(t, svc.DeleteThread("alice", "default"), store.ErrDefaultThread)
}
