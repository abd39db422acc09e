package service

import (
	"errors"
	"fmt"

	"docqa/internal/apperrors"
)

var (
	// ErrRetrieval marks failures while finding context for a question.
	ErrRetrieval = errors.New("retrieval error")
	// ErrCompletion marks failures while generating the answer.
	ErrCompletion = errors.New("completion error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// UserMessage returns a short sentence describing err for the person asking.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return "Invalid question: " + validationErr.Message
	}

	switch {
	case errors.Is(err, ErrRetrieval):
		return "Retrieval error: " + describeKind(err)
	case errors.Is(err, ErrCompletion):
		return "OpenAI API error: " + describeKind(err)
	default:
		return "Unexpected error: " + describeKind(err)
	}
}

func describeKind(err error) string {
	switch apperrors.Kind(err) {
	case apperrors.ErrAuthentication:
		return "the OpenAI API key is missing or was rejected"
	case apperrors.ErrNotFound:
		return "the document index has not been built yet, run the indexer first"
	case apperrors.ErrCorruption:
		return "the document index is inconsistent, rebuild it"
	case apperrors.ErrConfiguration:
		return "the assistant is misconfigured"
	case apperrors.ErrService:
		return "the remote service is unavailable, try again later"
	default:
		return "something went wrong while answering"
	}
}
