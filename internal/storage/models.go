package storage

import (
	"strings"
	"time"

	"docqa/internal/apperrors"
)

// Record is one Embedding Record: the metadata of the vector at Row.
type Record struct {
	Row        int    // Position in the sequence and row in the vector index
	DocumentID string // File name without extension
	ChunkIndex int    // Chunk index within the document (starts at 0)
	Text       string // Chunk text content
	SourcePath string // e.g. "data/week1/intro.pdf"
}

// Validate checks the fixed fields of a record expected at position row.
func (r Record) Validate(row int) error {
	switch {
	case r.Row != row:
		return apperrors.New(apperrors.ErrCorruption, "record at position %d has row %d", row, r.Row)
	case strings.TrimSpace(r.DocumentID) == "":
		return apperrors.New(apperrors.ErrCorruption, "record %d has empty document id", row)
	case strings.TrimSpace(r.SourcePath) == "":
		return apperrors.New(apperrors.ErrCorruption, "record %d has empty source path", row)
	case r.ChunkIndex < 0:
		return apperrors.New(apperrors.ErrCorruption, "record %d has negative chunk index %d", row, r.ChunkIndex)
	}
	return nil
}

// Manifest binds a sidecar to the vector index written alongside it.
type Manifest struct {
	Rows           int
	Dimension      int
	IndexSHA256    string // hex digest of the vector index file
	EmbeddingModel string
	ChunkSize      int
	ChunkOverlap   int
	ChunkerVersion string
	IndexVersion   string
	BuiltAt        time.Time
}
