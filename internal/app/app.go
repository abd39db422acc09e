// Package app builds the indexing and answering components from configuration.
// Both binaries share it so the API server and the CLI agree on artifact
// paths, the vector backend and the OpenAI clients.
package app

import (
	"context"
	"io"
	"log/slog"

	"docqa/internal/apperrors"
	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/rag"
	"docqa/internal/reader"
	"docqa/internal/service"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// Index is a searchable index that can report what it has loaded.
type Index interface {
	index.Searcher
	Stats() (storage.Manifest, bool)
}

// App holds the components shared by the indexing and answering paths.
type App struct {
	cfg      *config.Config
	embedder *llm.EmbeddingsClient
	index    Index

	mirror     vectorstore.VectorStore
	collection string
	closers    []func() error
}

// NewLogger returns a logger writing to w in the configured format and level.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// New creates the embedder and selects the search backend. With a remote
// backend the mirror collection is searched and rebuilt by the indexer; the
// local pair is written either way.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		cfg:      cfg,
		embedder: llm.NewEmbeddingsClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingDimensions),
	}

	switch cfg.VectorBackend {
	case config.BackendQdrant:
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrConfiguration, err, "failed to create Qdrant client")
		}
		a.mirror, a.collection = store, cfg.QdrantCollection
		a.closers = append(a.closers, store.Close)
	case config.BackendPgvector:
		store, err := vectorstore.NewPgvectorStore(ctx, cfg.PgvectorDSN)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrService, err, "failed to connect to pgvector")
		}
		a.mirror, a.collection = store, cfg.PgvectorTable
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
	}

	if a.mirror != nil {
		a.index = index.NewRemoteSearcher(a.mirror, a.collection)
	} else {
		a.index = index.NewStore(cfg.IndexPath, cfg.MetaPath)
	}

	slog.Debug("components configured",
		"backend", cfg.VectorBackend,
		"embedding_model", cfg.EmbeddingModelName,
		"llm_model", cfg.LLMModelName,
		"base_url", cfg.OpenAIBaseURL)
	return a, nil
}

// Index returns the index questions are answered from.
func (a *App) Index() Index {
	return a.index
}

// HasCredential reports whether an OpenAI API key is configured.
func (a *App) HasCredential() bool {
	return a.embedder.HasCredential()
}

// Pipeline builds the one-shot indexer over the configured data directory.
func (a *App) Pipeline() (*indexer.Pipeline, error) {
	tok, err := indexer.NewCL100KTokenizer()
	if err != nil {
		return nil, err
	}
	chunker, err := indexer.NewTokenChunker(tok, a.cfg.ChunkSize, a.cfg.ChunkOverlap,
		indexer.WithMinTrailingTokens(a.cfg.ChunkMinTrailingTokens))
	if err != nil {
		return nil, err
	}

	opts := []indexer.PipelineOption{indexer.WithRateLimit(a.cfg.EmbedRateLimit)}
	if a.mirror != nil {
		opts = append(opts, indexer.WithMirror(a.mirror, a.collection))
	}

	return indexer.NewPipeline(
		a.cfg.DataDir,
		reader.New(),
		chunker,
		a.embedder,
		a.cfg.EmbeddingModelName,
		index.NewWriter(a.cfg.IndexPath, a.cfg.MetaPath),
		opts...,
	), nil
}

// ChatService loads the system prompt and builds the answering service.
func (a *App) ChatService() (service.ChatService, error) {
	prompt, err := rag.LoadPrompt(a.cfg.PromptPath)
	if err != nil {
		return nil, err
	}

	retriever := rag.NewRetriever(a.embedder, a.index)
	completer := llm.NewClient(a.cfg.OpenAIBaseURL, a.cfg.OpenAIAPIKey, a.cfg.LLMModelName)

	return service.NewChatService(retriever, completer, prompt, service.Options{
		TopK:         a.cfg.TopK,
		Model:        a.cfg.LLMModelName,
		MaxTokens:    a.cfg.LLMMaxTokens,
		HistoryLimit: a.cfg.HistoryLimit,
	}), nil
}

// Close releases remote backend connections.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
