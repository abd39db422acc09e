package handlers

import (
	"context"
	"net/http"
	"time"

	"docqa/internal/contextutil"
	"docqa/internal/storage"
)

// IndexStatus reports whether the document index can serve queries.
type IndexStatus interface {
	Open(ctx context.Context) error
	Stats() (storage.Manifest, bool)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	index              IndexStatus
	hasCredential      bool
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(index IndexStatus, hasCredential bool) *HealthHandler {
	return &HealthHandler{
		index:              index,
		hasCredential:      hasCredential,
		healthCheckTimeout: 5 * time.Second,
	}
}

// IndexInfo describes the loaded index.
//
// swagger:model IndexInfo
type IndexInfo struct {
	Rows           int    `json:"rows"`
	Dimension      int    `json:"dimension,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	BuiltAt        string `json:"built_at,omitempty"`
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Loaded index summary (only present when the index is loaded)
	Index *IndexInfo `json:"index,omitempty"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Check the health status of the system and its dependencies.
// Returns 200 OK if healthy, 503 Service Unavailable if unhealthy.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Reports whether the document index is loaded and an API key is configured.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Create context with timeout for health checks
	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	var info *IndexInfo

	if err := h.index.Open(checkCtx); err != nil {
		logger.WarnContext(ctx, "index health check failed", "error", err)
		checks["index"] = "error"
		issues = append(issues, "index_unavailable")
	} else {
		checks["index"] = "ok"
		if m, ok := h.index.Stats(); ok {
			info = &IndexInfo{
				Rows:           m.Rows,
				Dimension:      m.Dimension,
				EmbeddingModel: m.EmbeddingModel,
			}
			if !m.BuiltAt.IsZero() {
				info.BuiltAt = m.BuiltAt.UTC().Format(time.RFC3339)
			}
		}
	}

	if h.hasCredential {
		checks["credential"] = "ok"
	} else {
		checks["credential"] = "missing"
		issues = append(issues, "openai_api_key_missing")
	}

	// Determine overall status
	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Index:     info,
		Issues:    issues,
	}

	if err := writeJSON(w, httpStatus, response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
