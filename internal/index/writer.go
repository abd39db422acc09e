// Package index persists and queries the vector index together with its
// metadata sidecar.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// Writer persists the vector index and metadata sidecar as a pair.
type Writer struct {
	IndexPath string
	MetaPath  string
}

// NewWriter creates a Writer for the given artifact paths.
func NewWriter(indexPath, metaPath string) *Writer {
	return &Writer{IndexPath: indexPath, MetaPath: metaPath}
}

// Persist writes both artifacts to temporary files next to their
// destinations, syncs them and renames them into place, sidecar first.
// The sidecar manifest records the row count, dimension and SHA-256 of the
// index file so a reader can detect a mismatched pair. The returned manifest
// is the one stored.
func (w *Writer) Persist(ctx context.Context, records []storage.Record, vectors *vectorstore.FlatIndex, manifest storage.Manifest) (storage.Manifest, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(records) != vectors.Len() {
		return storage.Manifest{}, apperrors.New(apperrors.ErrCorruption,
			"record count %d does not match vector count %d", len(records), vectors.Len())
	}

	for _, p := range []string{w.IndexPath, w.MetaPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return storage.Manifest{}, fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	indexTmp, digest, err := writeIndexTemp(w.IndexPath, vectors)
	if err != nil {
		return storage.Manifest{}, err
	}
	defer func() {
		_ = os.Remove(indexTmp)
	}()

	manifest.Rows = vectors.Len()
	manifest.Dimension = vectors.Dim()
	manifest.IndexSHA256 = digest

	metaTmp, err := writeSidecarTemp(ctx, w.MetaPath, records, manifest)
	if err != nil {
		return storage.Manifest{}, err
	}
	defer func() {
		_ = os.Remove(metaTmp)
	}()

	if err := os.Rename(metaTmp, w.MetaPath); err != nil {
		return storage.Manifest{}, fmt.Errorf("failed to move sidecar into place: %w", err)
	}
	if err := os.Rename(indexTmp, w.IndexPath); err != nil {
		return storage.Manifest{}, fmt.Errorf("failed to move index into place: %w", err)
	}

	logger.InfoContext(ctx, "index persisted",
		"index_path", w.IndexPath,
		"meta_path", w.MetaPath,
		"rows", manifest.Rows,
		"dimension", manifest.Dimension,
	)
	return manifest, nil
}

// writeIndexTemp writes vectors to a temp file in dest's directory and
// returns its path and hex SHA-256.
func writeIndexTemp(dest string, vectors *vectorstore.FlatIndex) (path, digest string, err error) {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp index: %w", err)
	}
	path = f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	h := sha256.New()
	if _, err = vectors.WriteTo(io.MultiWriter(f, h)); err != nil {
		return "", "", err
	}
	if err = f.Sync(); err != nil {
		return "", "", fmt.Errorf("failed to sync temp index: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", "", fmt.Errorf("failed to close temp index: %w", err)
	}
	return path, hex.EncodeToString(h.Sum(nil)), nil
}

// writeSidecarTemp builds a fresh SQLite sidecar in dest's directory.
func writeSidecarTemp(ctx context.Context, dest string, records []storage.Record, manifest storage.Manifest) (path string, err error) {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp sidecar: %w", err)
	}
	path = f.Name()
	_ = f.Close()
	defer func() {
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	db, err := storage.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open temp sidecar: %w", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	if err = storage.Migrate(db); err != nil {
		return "", fmt.Errorf("failed to migrate sidecar: %w", err)
	}
	if err = storage.NewRecordRepo(db).WriteAll(ctx, records); err != nil {
		return "", err
	}
	if err = storage.NewManifestRepo(db).Save(ctx, manifest); err != nil {
		return "", err
	}
	if err = db.Close(); err != nil {
		return "", fmt.Errorf("failed to close sidecar: %w", err)
	}
	db = nil

	if err = syncFile(path); err != nil {
		return "", err
	}
	return path, nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return nil
}
