package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumenchat/server/web"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// Chat page
	r.Get("/", web.IndexHandler)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/signup", apiHandler.SignupHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.BearerAuthMiddleware)

			r.Post("/chat", apiHandler.ChatHandler)
			r.Get("/threads", apiHandler.ListThreadsHandler)
			r.Get("/threads/{threadID}/messages", apiHandler.ThreadMessagesHandler)
			r.Delete("/threads/{threadID}", apiHandler.DeleteThreadHandler)
		})
	})

	return r
}
