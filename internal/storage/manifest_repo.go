package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"docqa/internal/apperrors"
)

const (
	keyRows           = "rows"
	keyDimension      = "dimension"
	keyIndexSHA256    = "index_sha256"
	keyEmbeddingModel = "embedding_model"
	keyChunkSize      = "chunk_size"
	keyChunkOverlap   = "chunk_overlap"
	keyChunkerVersion = "chunker_version"
	keyIndexVersion   = "index_version"
	keyBuiltAt        = "built_at"
)

// ManifestRepo reads and writes the sidecar manifest.
type ManifestRepo struct {
	db *sql.DB
}

// NewManifestRepo creates a new ManifestRepo.
func NewManifestRepo(db *sql.DB) *ManifestRepo {
	return &ManifestRepo{db: db}
}

// Save replaces the manifest.
func (r *ManifestRepo) Save(ctx context.Context, m Manifest) error {
	values := map[string]string{
		keyRows:           strconv.Itoa(m.Rows),
		keyDimension:      strconv.Itoa(m.Dimension),
		keyIndexSHA256:    m.IndexSHA256,
		keyEmbeddingModel: m.EmbeddingModel,
		keyChunkSize:      strconv.Itoa(m.ChunkSize),
		keyChunkOverlap:   strconv.Itoa(m.ChunkOverlap),
		keyChunkerVersion: m.ChunkerVersion,
		keyIndexVersion:   m.IndexVersion,
		keyBuiltAt:        m.BuiltAt.UTC().Format(time.RFC3339),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM manifest"); err != nil {
		return fmt.Errorf("failed to clear manifest: %w", err)
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, "INSERT INTO manifest (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to write manifest key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit manifest: %w", err)
	}
	return nil
}

// Load reads the manifest. Missing or malformed required keys yield ErrCorruption.
func (r *ManifestRepo) Load(ctx context.Context) (Manifest, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM manifest")
	if err != nil {
		return Manifest{}, apperrors.Wrap(apperrors.ErrCorruption, err, "failed to query manifest")
	}
	defer func() {
		_ = rows.Close()
	}()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Manifest{}, apperrors.Wrap(apperrors.ErrCorruption, err, "failed to scan manifest")
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return Manifest{}, apperrors.Wrap(apperrors.ErrCorruption, err, "row iteration error")
	}

	var m Manifest
	if m.Rows, err = requiredInt(values, keyRows); err != nil {
		return Manifest{}, err
	}
	if m.Dimension, err = requiredInt(values, keyDimension); err != nil {
		return Manifest{}, err
	}
	if m.IndexSHA256 = values[keyIndexSHA256]; m.IndexSHA256 == "" {
		return Manifest{}, apperrors.New(apperrors.ErrCorruption, "manifest is missing %s", keyIndexSHA256)
	}

	m.EmbeddingModel = values[keyEmbeddingModel]
	m.ChunkerVersion = values[keyChunkerVersion]
	m.IndexVersion = values[keyIndexVersion]
	m.ChunkSize, _ = strconv.Atoi(values[keyChunkSize])
	m.ChunkOverlap, _ = strconv.Atoi(values[keyChunkOverlap])
	if builtAt, err := time.Parse(time.RFC3339, values[keyBuiltAt]); err == nil {
		m.BuiltAt = builtAt
	}

	return m, nil
}

func requiredInt(values map[string]string, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, apperrors.New(apperrors.ErrCorruption, "manifest is missing %s", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.New(apperrors.ErrCorruption, "manifest %s is invalid: %q", key, raw)
	}
	return n, nil
}
