// Package corpus discovers the documents to be indexed under a data directory.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/reader"
)

// File represents a supported document found during scanning.
type File struct {
	DocumentID string        // File name without extension (e.g., "intro" for "week1/intro.pdf")
	SourcePath string        // Path relative to the data directory's parent (e.g., "data/week1/intro.pdf")
	AbsPath    string        // Absolute file path
	Format     reader.Format // Detected document format
}

// Scan walks dataDir recursively and returns every supported document in
// lexical path order. Hidden directories and Office lock files are skipped;
// unsupported extensions are silently ignored.
func Scan(ctx context.Context, dataDir string) ([]File, error) {
	logger := contextutil.LoggerFromContext(ctx)

	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory %s: %w", dataDir, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.New(apperrors.ErrNoData, "data directory %s does not exist", dataDir)
		}
		return nil, fmt.Errorf("failed to stat data directory %s: %w", dataDir, err)
	}
	if !info.IsDir() {
		return nil, apperrors.New(apperrors.ErrNoData, "data directory %s is not a directory", dataDir)
	}

	prefix := filepath.Base(root)
	var files []File

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, "~$") || !reader.Supported(name) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		files = append(files, File{
			DocumentID: strings.TrimSuffix(name, filepath.Ext(name)),
			SourcePath: filepath.ToSlash(filepath.Join(prefix, relPath)),
			AbsPath:    path,
			Format:     reader.FormatOf(name),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory %s: %w", dataDir, err)
	}

	logger.DebugContext(ctx, "scanned data directory", "dir", root, "files", len(files))
	return files, nil
}
