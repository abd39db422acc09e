package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"time"

	"docqa/internal/app"
	"docqa/internal/config"
	"docqa/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about a folder of course documents using
// retrieval-augmented generation over a prebuilt vector index.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: DocQA API
//   description: |
//     Question answering over indexed PDF and Word documents.
//     Answers are grounded in the retrieved document chunks and end with a
//     References section listing the source files.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx := context.Background()

	components, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize components: %v", err)
	}
	defer func() {
		_ = components.Close()
	}()

	chatService, err := components.ChatService()
	if err != nil {
		log.Fatalf("Failed to create chat service: %v", err)
	}
	slog.Info("Chat service initialized", "prompt", cfg.PromptPath, "top_k", cfg.TopK)

	if !components.HasCredential() {
		slog.Warn("OPENAI_API_KEY is not set, questions will fail until it is configured")
	}

	// Load the index up front so the first question does not pay for it.
	// A missing index is not fatal: health reports it and Open retries per request.
	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := components.Index().Open(warmCtx); err != nil {
		slog.Warn("Document index not available yet", "backend", cfg.VectorBackend, "error", err)
	} else if m, ok := components.Index().Stats(); ok {
		slog.Info("Document index loaded", "backend", cfg.VectorBackend, "rows", m.Rows, "model", m.EmbeddingModel)
	}
	cancel()

	router := http.NewRouter(&http.Deps{
		ChatService:   chatService,
		Index:         components.Index(),
		HasCredential: components.HasCredential(),
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
