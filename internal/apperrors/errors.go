// Package apperrors defines the error kinds shared across docqa.
//
// Components wrap the underlying cause together with one of the kinds below,
// so callers can branch with errors.Is on the kind while the message keeps the
// original detail:
//
//	return fmt.Errorf("%w: embed chunk %d: %w", apperrors.ErrService, i, err)
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for invalid settings (chunk size/overlap,
	// missing prompt template, malformed environment values).
	ErrConfiguration = errors.New("configuration error")
	// ErrAuthentication is returned when no API credential is configured for a
	// component that calls the remote service.
	ErrAuthentication = errors.New("authentication error")
	// ErrNotFound is returned when the index or metadata artifact is missing.
	ErrNotFound = errors.New("not found")
	// ErrNoData is returned when the indexer found nothing to embed.
	ErrNoData = errors.New("no data")
	// ErrService is returned when the remote embedding or completion service
	// fails or returns unusable data.
	ErrService = errors.New("service error")
	// ErrCorruption is returned when the vector index and metadata sidecar do
	// not describe the same rows.
	ErrCorruption = errors.New("corruption error")
)

// Kinds lists every error kind in the order Kind checks them.
var Kinds = []error{
	ErrConfiguration,
	ErrAuthentication,
	ErrNotFound,
	ErrNoData,
	ErrService,
	ErrCorruption,
}

// New returns an error of the given kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Wrap attaches kind and a message to cause. A nil cause yields nil.
func Wrap(kind error, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, cause)
}

// Kind returns the first kind err matches, or nil when it matches none.
func Kind(err error) error {
	for _, k := range Kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
