package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"docqa/internal/contextutil"
	"docqa/internal/rag"
	"docqa/internal/service"
)

// AskHandler handles HTTP requests for document questions.
type AskHandler struct {
	chatService service.ChatService
	markdown    goldmark.Markdown
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(chatService service.ChatService) *AskHandler {
	return &AskHandler{
		chatService: chatService,
		markdown:    goldmark.New(),
	}
}

// AskRequest represents the HTTP request payload for a question.
//
// swagger:model AskRequest
type AskRequest struct {
	// The question to answer from the indexed documents
	Question string `json:"question"`
}

// AskResponse represents the HTTP response payload for a question.
//
// swagger:model AskResponse
type AskResponse struct {
	// Identifier of the recorded chat turn
	ID string `json:"id"`

	// The question as answered (trimmed)
	Query string `json:"query"`

	// The answer in markdown, followed by a References section when sources exist
	Answer string `json:"answer"`

	// The answer rendered to HTML
	AnswerHTML string `json:"answer_html"`

	// Distinct source documents in first-seen order
	Sources []string `json:"sources"`

	// Retrieved snippets with distances, present only with ?debug=true
	Snippets []rag.Snippet `json:"snippets,omitempty"`

	// Time the turn was recorded (RFC 3339)
	CreatedAt string `json:"created_at"`
}

// ServeHTTP handles HTTP requests for document questions.
//
// Ask a question about the indexed documents and get a grounded answer.
// The question is embedded, the nearest chunks are retrieved and passed to
// the LLM as context, and the answer is returned with its source documents.
//
// swagger:route POST /api/v1/ask askQuestion
//
// # Ask a question about the documents
//
// Use the `debug=true` query parameter to include the retrieved snippets
// and their distances in the response.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/AskRequest"
//   - in: query
//     name: debug
//     type: boolean
//     description: Include retrieved snippets in the response
//     required: false
//
// responses:
//
//	'200':
//	  description: Successful response with answer and sources
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Bad request (missing question)
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Embedding or completion service error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: Document index not built
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Parse debug query parameter
	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	turn, err := h.chatService.Ask(ctx, req.Question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		writeError(w, statusFor(err), service.UserMessage(err))
		return
	}

	resp := AskResponse{
		ID:         turn.ID,
		Query:      turn.Query,
		Answer:     turn.Answer,
		AnswerHTML: h.renderHTML(turn.Answer),
		Sources:    turn.Sources,
		CreatedAt:  turn.CreatedAt.Format(time.RFC3339),
	}
	if debug {
		resp.Snippets = turn.Snippets
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// renderHTML converts the markdown answer to HTML. Raw HTML in the answer is
// not passed through. A render failure yields an empty string.
func (h *AskHandler) renderHTML(markdown string) string {
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(markdown), &buf); err != nil {
		return ""
	}
	return buf.String()
}
