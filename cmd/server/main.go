package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenchat/server/internal/api"
	"github.com/lumenchat/server/internal/config"
	"github.com/lumenchat/server/internal/core"
	"github.com/lumenchat/server/internal/identity"
	"github.com/lumenchat/server/internal/llm"
	"github.com/lumenchat/server/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Session store lives for the lifetime of the process; conversation
	// history is gone on restart.
	sessions := store.NewSessionStore()

	// Identity provider: external when configured, local JWT otherwise.
	var provider identity.Provider
	if config.AppConfig.IdentityURL != "" {
		provider = identity.NewHTTPProvider(config.AppConfig.IdentityURL, config.AppConfig.IdentityAPIKey)
		log.Printf("Using external identity provider at %s", config.AppConfig.IdentityURL)
	} else {
		provider = identity.NewLocalProvider(config.AppConfig.JWTSecret)
		log.Println("Using local identity provider")
	}

	// Completion streamer
	streamer := llm.NewGeminiStreamer()
	defer streamer.Close()

	// Chat service, API handler and router
	chatService := core.NewChatService(sessions, streamer)
	apiHandler := api.NewAPIHandler(provider, chatService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No write timeout: chat responses stream for as long as the model
		// generates.
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
