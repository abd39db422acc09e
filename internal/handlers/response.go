package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"docqa/internal/apperrors"
	"docqa/internal/service"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	_ = writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}

	switch apperrors.Kind(err) {
	case apperrors.ErrNotFound:
		return http.StatusServiceUnavailable
	case apperrors.ErrService:
		return http.StatusBadGateway
	default:
		// Configuration, authentication and corruption are operator problems
		return http.StatusInternalServerError
	}
}
