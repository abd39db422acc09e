// Package reader extracts plain text from PDF and Word documents.
package reader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"docqa/internal/contextutil"
)

// ErrUnsupportedFormat is returned by Read for extensions no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Format identifies a supported document type.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatWord
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatWord:
		return "word"
	default:
		return "unknown"
	}
}

var extensions = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatWord,
	".doc":  FormatWord,
}

// FormatOf returns the document format for path based on its extension (case-insensitive).
func FormatOf(path string) Format {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether Read can extract text from path.
func Supported(path string) bool {
	return FormatOf(path) != FormatUnknown
}

// Reader extracts plain text from supported documents.
type Reader struct {
	openPDF func(path string) (pageDocument, error)
}

// New creates a Reader backed by MuPDF for PDFs and the OOXML parser for Word files.
func New() *Reader {
	return &Reader{openPDF: openFitz}
}

// Read returns the plain text of the document at path.
func (r *Reader) Read(ctx context.Context, path string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch FormatOf(path) {
	case FormatPDF:
		doc, err := r.openPDF(path)
		if err != nil {
			return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
		}
		defer func() {
			_ = doc.Close()
		}()
		text, failed := extractPages(doc)
		for _, page := range failed {
			logger.WarnContext(ctx, "skipping unreadable PDF page", "path", path, "page", page)
		}
		return text, nil
	case FormatWord:
		text, err := readWordFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read Word document %s: %w", path, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
