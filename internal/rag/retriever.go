// Package rag retrieves context for a question and formats grounded answers.
package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docqa/internal/rag Embedder

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/index"
)

// DefaultK is the number of snippets returned when k is not positive.
const DefaultK = 5

// Embedder embeds queries for retrieval.
type Embedder interface {
	// HasCredential reports whether the remote service can be called at all.
	HasCredential() bool
	// Embed returns the embedding of text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever finds the chunks nearest to a question.
type Retriever struct {
	embedder Embedder
	searcher index.Searcher
}

// NewRetriever creates a Retriever over searcher.
func NewRetriever(embedder Embedder, searcher index.Searcher) *Retriever {
	return &Retriever{embedder: embedder, searcher: searcher}
}

// GetTopK returns up to k snippets nearest to query, nearest first.
// k <= 0 means DefaultK. A blank query returns no snippets without
// contacting the embedding service.
func (r *Retriever) GetTopK(ctx context.Context, query string, k int) ([]Snippet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		k = DefaultK
	}
	if strings.TrimSpace(query) == "" {
		return []Snippet{}, nil
	}

	if !r.embedder.HasCredential() {
		return nil, apperrors.New(apperrors.ErrAuthentication, "OPENAI_API_KEY is not set")
	}
	if err := r.searcher.Open(ctx); err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := r.searcher.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	snippets := make([]Snippet, len(hits))
	for i, h := range hits {
		snippets[i] = Snippet{
			Text:       h.Record.Text,
			Source:     h.Record.SourcePath,
			Score:      h.Distance,
			DocumentID: h.Record.DocumentID,
			ChunkIndex: h.Record.ChunkIndex,
		}
		logger.DebugContext(ctx, "retrieved chunk",
			"rank", i+1,
			"score", h.Distance,
			"source", h.Record.SourcePath,
			"chunk_index", h.Record.ChunkIndex,
			"text_length", len(h.Record.Text),
		)
	}

	logger.InfoContext(ctx, "retrieval completed", "k", k, "results", len(snippets))
	return snippets, nil
}
