package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lumenchat/server/internal/core"
	"github.com/lumenchat/server/internal/identity"
	"github.com/lumenchat/server/internal/store"
)

// Chat bubble markup mirrored by the embedded page; assistant bubbles are
// swapped into #messages out of band so the stream can run while the page
// stays interactive.
const (
	assistantBubbleOpen  = `<div class="chat chat-start" hx-swap-oob="beforeend:#messages"><div class="chat-bubble chat-bubble-secondary">`
	assistantBubbleClose = `</div></div>`
)

type ctxKey string

const userIDKey ctxKey = "userID"

type APIHandler struct {
	provider    identity.Provider
	chatService *core.ChatService
}

func NewAPIHandler(provider identity.Provider, cs *core.ChatService) *APIHandler {
	return &APIHandler{provider: provider, chatService: cs}
}

// BearerAuthMiddleware verifies the bearer token with the identity provider
// on every request. No verification result is cached.
func (h *APIHandler) BearerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := h.provider.Verify(r.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidToken) {
				log.Printf("Error verifying token: %v", err)
			}
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type authResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "Email and password are required"})
		return
	}

	message, err := h.provider.SignUp(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, identity.ErrUserExists) {
			writeJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "User already exists"})
			return
		}
		log.Printf("Error signing up user %s: %v", email, err)
		writeJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "Signup failed"})
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Message: message})
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeJSON(w, http.StatusUnauthorized, authResponse{Success: false, Message: "Email and password are required"})
		return
	}

	token, err := h.provider.SignIn(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, identity.ErrBadCredentials) {
			log.Printf("Error logging in user %s: %v", email, err)
		}
		writeJSON(w, http.StatusUnauthorized, authResponse{Success: false, Message: "Login failed"})
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, AccessToken: token})
}

// ChatHandler runs one chat turn and streams the response as chunked HTML:
// opening bubble markup, escaped fragments in generation order, closing
// markup. A generation failure mid-stream appends an error fragment; whatever
// was already streamed stays visible.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	message := r.PostFormValue("message")
	if strings.TrimSpace(message) == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}
	threadID := store.NormalizeThreadID(r.PostFormValue("thread_id"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Printf("Response writer does not support streaming for user %s", userID)
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	fmt.Fprint(w, assistantBubbleOpen)
	flusher.Flush()

	err := h.chatService.StreamTurn(r.Context(), userID, threadID, message, func(fragment string) error {
		if _, err := fmt.Fprint(w, html.EscapeString(fragment)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		log.Printf("Error generating response for user %s, thread %s: %v", userID, threadID, err)
		fmt.Fprint(w, `<span class="text-error">Sorry, something went wrong while generating a response.</span>`)
	}

	fmt.Fprint(w, assistantBubbleClose)
	flusher.Flush()
}

func (h *APIHandler) ListThreadsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	writeJSON(w, http.StatusOK, map[string][]string{"threads": h.chatService.Threads(userID)})
}

// ThreadMessagesHandler returns a thread's history as ready-to-insert bubble
// markup, letting the page repopulate the transcript after a thread switch.
func (h *APIHandler) ThreadMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	threadID := chi.URLParam(r, "threadID")

	messages := h.chatService.Messages(userID, threadID)
	rendered := make([]string, 0, len(messages))
	for _, msg := range messages {
		rendered = append(rendered, renderBubble(msg))
	}

	writeJSON(w, http.StatusOK, map[string][]string{"messages": rendered})
}

func (h *APIHandler) DeleteThreadHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	threadID := chi.URLParam(r, "threadID")

	if err := h.chatService.DeleteThread(userID, threadID); err != nil {
		if errors.Is(err, store.ErrDefaultThread) {
			writeJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "The default thread cannot be deleted"})
			return
		}
		log.Printf("Error deleting thread %s for user %s: %v", threadID, userID, err)
		writeJSON(w, http.StatusInternalServerError, authResponse{Success: false, Message: "Failed to delete thread"})
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Message: fmt.Sprintf("Thread %s deleted", threadID)})
}

func renderBubble(msg store.Message) string {
	content := html.EscapeString(msg.Content)
	if msg.Role == store.RoleUser {
		return `<div class="chat chat-end"><div class="chat-bubble chat-bubble-primary">` + content + `</div></div>`
	}
	return `<div class="chat chat-start"><div class="chat-bubble chat-bubble-secondary">` + content + `</div></div>`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
