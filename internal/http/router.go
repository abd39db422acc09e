package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docqa/internal/handlers"
	"docqa/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService   service.ChatService
	Index         handlers.IndexStatus
	HasCredential bool
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Add CORS and request-scoped logging
	r.Use(CORS)
	r.Use(RequestContext)

	askHandler := handlers.NewAskHandler(deps.ChatService)
	historyHandler := handlers.NewHistoryHandler(deps.ChatService)
	healthHandler := handlers.NewHealthHandler(deps.Index, deps.HasCredential)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			r.Method(http.MethodGet, "/history", historyHandler)
			r.Method(http.MethodDelete, "/history", historyHandler)
		})
	})

	return r
}
