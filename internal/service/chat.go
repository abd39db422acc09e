package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks docqa/internal/service Retriever
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks docqa/internal/service Completer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService docqa/internal/service ChatService

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docqa/internal/contextutil"
	"docqa/internal/llm"
	"docqa/internal/rag"
)

// Retriever finds context for a question.
// This interface is defined from the service layer's perspective (consumer-first).
type Retriever interface {
	// GetTopK returns up to k snippets nearest to query.
	GetTopK(ctx context.Context, query string, k int) ([]rag.Snippet, error)
}

// Completer generates a reply from a conversation.
type Completer interface {
	// ChatWithMessages sends messages to the LLM and returns the reply.
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// ChatTurn is one answered question.
type ChatTurn struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Answer    string        `json:"answer"`
	Sources   []string      `json:"sources"`
	Snippets  []rag.Snippet `json:"snippets,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ChatService answers questions grounded on the indexed documents.
type ChatService interface {
	// Ask answers query and records the turn in the history.
	Ask(ctx context.Context, query string) (ChatTurn, error)
	// History returns the recorded turns, oldest first.
	History() []ChatTurn
	// ClearHistory removes every recorded turn.
	ClearHistory()
}

// Options tunes a ChatService.
type Options struct {
	TopK         int    // Snippets retrieved per question
	Model        string // Completion model; empty uses the client default
	MaxTokens    int    // Completion token limit; 0 sends none
	HistoryLimit int    // Turns kept in memory; 0 keeps all
}

// chatService implements ChatService.
type chatService struct {
	retriever Retriever
	completer Completer
	prompt    rag.Prompt
	opts      Options

	mu      sync.Mutex
	history []ChatTurn
}

// NewChatService creates a new ChatService.
func NewChatService(retriever Retriever, completer Completer, prompt rag.Prompt, opts Options) ChatService {
	return &chatService{
		retriever: retriever,
		completer: completer,
		prompt:    prompt,
		opts:      opts,
	}
}

// Ask runs retrieve, prompt, completion and format for one question.
// A failed turn leaves the history unchanged.
func (s *chatService) Ask(ctx context.Context, query string) (ChatTurn, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// Business validation
	query = strings.TrimSpace(query)
	if query == "" {
		logger.WarnContext(ctx, "empty question")
		return ChatTurn{}, &ValidationError{
			Field:   "question",
			Message: "cannot be empty",
		}
	}

	snippets, err := s.retriever.GetTopK(ctx, query, s.opts.TopK)
	if err != nil {
		logger.ErrorContext(ctx, "failed to retrieve context", "error", err)
		return ChatTurn{}, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	messages := buildMessages(s.prompt.System, snippets, query)
	logger.DebugContext(ctx, "sending request to LLM", "messages", len(messages), "snippets", len(snippets))

	raw, err := s.completer.ChatWithMessages(ctx, messages, llm.ChatParams{
		Model:     s.opts.Model,
		MaxTokens: s.opts.MaxTokens,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return ChatTurn{}, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	turn := ChatTurn{
		ID:        uuid.New().String(),
		Query:     query,
		Answer:    rag.FormatResponse(raw, snippets),
		Sources:   rag.DedupSources(snippets),
		Snippets:  snippets,
		CreatedAt: time.Now().UTC(),
	}
	s.record(turn)

	logger.InfoContext(ctx, "question answered",
		"turn_id", turn.ID,
		"question_length", len(query),
		"snippets", len(snippets),
		"sources", len(turn.Sources),
		"answer_length", len(turn.Answer),
	)
	return turn, nil
}

// History returns a copy of the recorded turns, oldest first.
func (s *chatService) History() []ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory removes every recorded turn.
func (s *chatService) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

func (s *chatService) record(turn ChatTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turn)
	if limit := s.opts.HistoryLimit; limit > 0 && len(s.history) > limit {
		s.history = append([]ChatTurn(nil), s.history[len(s.history)-limit:]...)
	}
}

// buildMessages lays out the conversation: the system prompt, one system
// message per snippet, then the question.
func buildMessages(system string, snippets []rag.Snippet, query string) []llm.Message {
	messages := make([]llm.Message, 0, len(snippets)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, s := range snippets {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.Text})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: query})
}
