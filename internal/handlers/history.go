package handlers

import (
	"net/http"

	"docqa/internal/contextutil"
	"docqa/internal/service"
)

// HistoryHandler handles HTTP requests for the chat history.
type HistoryHandler struct {
	chatService service.ChatService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(chatService service.ChatService) *HistoryHandler {
	return &HistoryHandler{chatService: chatService}
}

// HistoryResponse lists recorded chat turns.
//
// swagger:model HistoryResponse
type HistoryResponse struct {
	// Turns oldest first
	Turns []service.ChatTurn `json:"turns"`
}

// ServeHTTP lists or clears the chat history.
//
// swagger:route GET /api/v1/history listHistory
//
// # List answered questions, oldest first
//
// responses:
//
//	'200':
//	  description: Recorded turns
//	  schema:
//	    "$ref": "#/definitions/HistoryResponse"
//
// swagger:route DELETE /api/v1/history clearHistory
//
// # Clear the chat history
//
// responses:
//
//	'204':
//	  description: History cleared
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodGet:
		turns := h.chatService.History()
		if turns == nil {
			turns = []service.ChatTurn{}
		}
		if err := writeJSON(w, http.StatusOK, HistoryResponse{Turns: turns}); err != nil {
			logger.ErrorContext(ctx, "failed to encode history", "error", err)
		}
	case http.MethodDelete:
		h.chatService.ClearHistory()
		logger.InfoContext(ctx, "chat history cleared")
		w.WriteHeader(http.StatusNoContent)
	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
