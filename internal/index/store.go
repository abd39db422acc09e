package index

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_searcher.go -package=mocks docqa/internal/index Searcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// Hit is one search result: a record and its distance to the query.
type Hit struct {
	Record   storage.Record
	Distance float32
}

// Searcher answers nearest-neighbour queries over Embedding Records.
type Searcher interface {
	// Open loads or connects to the index. It is safe to call repeatedly.
	Open(ctx context.Context) error
	// Search returns up to k hits ordered by ascending distance.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
}

type loaded struct {
	index    *vectorstore.FlatIndex
	records  []storage.Record
	manifest storage.Manifest
}

// Store is a read-only handle on the persisted index pair. The pair is
// loaded on the first successful Open and cached for the life of the Store;
// a failed load is retried on the next call.
type Store struct {
	indexPath string
	metaPath  string

	mu    sync.Mutex
	state atomic.Pointer[loaded]
}

// NewStore creates a Store for the given artifact paths. Nothing is read until Open.
func NewStore(indexPath, metaPath string) *Store {
	return &Store{indexPath: indexPath, metaPath: metaPath}
}

// Open loads and validates both artifacts.
func (s *Store) Open(ctx context.Context) error {
	if s.state.Load() != nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Load() != nil {
		return nil
	}

	st, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.state.Store(st)

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index loaded",
		"rows", st.manifest.Rows,
		"dimension", st.manifest.Dimension,
		"model", st.manifest.EmbeddingModel,
	)
	return nil
}

// Search returns up to k nearest records by Euclidean distance, ties broken by row.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	st := s.state.Load()

	neighbors, err := st.index.Search(query, k)
	if err != nil {
		if errors.Is(err, vectorstore.ErrDimensionMismatch) {
			return nil, apperrors.Wrap(apperrors.ErrService, err, "query embedding does not match index")
		}
		return nil, err
	}

	hits := make([]Hit, len(neighbors))
	for i, n := range neighbors {
		hits[i] = Hit{Record: st.records[n.Row], Distance: n.Distance}
	}
	return hits, nil
}

// Stats returns the manifest of the loaded index. ok is false before a successful Open.
func (s *Store) Stats() (manifest storage.Manifest, ok bool) {
	st := s.state.Load()
	if st == nil {
		return storage.Manifest{}, false
	}
	return st.manifest, true
}

func (s *Store) load(ctx context.Context) (*loaded, error) {
	idx, digest, err := readIndexFile(s.indexPath)
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenReadOnly(s.metaPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	manifest, err := storage.NewManifestRepo(db).Load(ctx)
	if err != nil {
		return nil, err
	}
	records, err := storage.NewRecordRepo(db).LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case manifest.IndexSHA256 != digest:
		return nil, apperrors.New(apperrors.ErrCorruption, "index checksum %s does not match sidecar manifest %s", digest, manifest.IndexSHA256)
	case manifest.Rows != idx.Len() || len(records) != idx.Len():
		return nil, apperrors.New(apperrors.ErrCorruption, "row count mismatch: index %d, manifest %d, records %d", idx.Len(), manifest.Rows, len(records))
	case manifest.Dimension != idx.Dim():
		return nil, apperrors.New(apperrors.ErrCorruption, "dimension mismatch: index %d, manifest %d", idx.Dim(), manifest.Dimension)
	}

	return &loaded{index: idx, records: records, manifest: manifest}, nil
}

// readIndexFile decodes the index file and returns its hex SHA-256.
func readIndexFile(path string) (*vectorstore.FlatIndex, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", apperrors.Wrap(apperrors.ErrNotFound, err, "vector index missing")
		}
		return nil, "", fmt.Errorf("failed to open vector index: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	idx, err := vectorstore.ReadFlatIndex(io.TeeReader(f, h))
	if err != nil {
		return nil, "", err
	}
	return idx, hex.EncodeToString(h.Sum(nil)), nil
}
