package llm

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/lumenchat/server/internal/config"
	"github.com/lumenchat/server/internal/store"
)

const chatSystemInstruction = "You are a helpful assistant. Answer the user's questions " +
	"concisely and directly. If you don't know the answer, say so rather than making " +
	"information up."

// Stream yields generated text fragments in order. Next returns io.EOF when
// the model signals completion; any other error ends the stream.
type Stream interface {
	Next() (string, error)
}

// Streamer is the completion collaborator: given a full conversation history
// ending in a user message, it produces a finite stream of text fragments.
type Streamer interface {
	StreamCompletion(ctx context.Context, history []store.Message) (Stream, error)
}

// GeminiStreamer generates completions with the Gemini API. The full history
// is forwarded on every call with no truncation or summarization; if the
// conversation outgrows the model's context window the call fails and the
// error surfaces to the caller.
type GeminiStreamer struct {
	client *genai.Client
	model  string
}

func NewGeminiStreamer() *GeminiStreamer {
	ctx := context.Background()

	opts := []option.ClientOption{option.WithAPIKey(config.AppConfig.GeminiAPIKey)}
	if config.AppConfig.GeminiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(config.AppConfig.GeminiEndpoint))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		log.Fatalf("Failed to create GenAI client: %v", err)
	}

	return &GeminiStreamer{
		client: client,
		model:  config.AppConfig.ChatModel,
	}
}

func (s *GeminiStreamer) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (s *GeminiStreamer) StreamCompletion(ctx context.Context, history []store.Message) (Stream, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("history is empty for chat completion")
	}

	last := history[len(history)-1]
	if last.Role != store.RoleUser {
		return nil, fmt.Errorf("last message in history is not from 'user', cannot proceed with chat completion")
	}

	model := s.client.GenerativeModel(s.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemInstruction)},
	}

	chatSession := model.StartChat()
	chatSession.History = toGenaiHistory(history[:len(history)-1])

	iter := chatSession.SendMessageStream(ctx, genai.Text(last.Content))
	return &geminiStream{iter: iter}, nil
}

// toGenaiHistory maps stored messages to Gemini content, translating the
// assistant role to the API's "model" role.
func toGenaiHistory(messages []store.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == store.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Next() (string, error) {
	for {
		resp, err := s.iter.Next()
		if err == iterator.Done {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}

		var fragment strings.Builder
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				if txt, ok := part.(genai.Text); ok {
					fragment.WriteString(string(txt))
				} else {
					log.Printf("Gemini response part was not text: %T", part)
				}
			}
		}

		// Some chunks carry no text (safety metadata only); skip them.
		if fragment.Len() > 0 {
			return fragment.String(), nil
		}
	}
}
