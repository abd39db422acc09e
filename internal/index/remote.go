package index

import (
	"context"
	"strings"
	"sync/atomic"

	"docqa/internal/apperrors"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// Payload keys stored with every mirrored point.
const (
	PayloadRow        = "row"
	PayloadDocumentID = "document_id"
	PayloadChunkIndex = "chunk_index"
	PayloadText       = "text"
	PayloadSourcePath = "source_path"
)

// RecordPayload returns the mirror payload for rec.
func RecordPayload(rec storage.Record) map[string]any {
	return map[string]any{
		PayloadRow:        int64(rec.Row),
		PayloadDocumentID: rec.DocumentID,
		PayloadChunkIndex: int64(rec.ChunkIndex),
		PayloadText:       rec.Text,
		PayloadSourcePath: rec.SourcePath,
	}
}

// RemoteSearcher implements Searcher against a mirror collection.
type RemoteSearcher struct {
	store      vectorstore.VectorStore
	collection string
	opened     atomic.Bool
	rows       atomic.Int64
}

// NewRemoteSearcher creates a Searcher over collection in store.
func NewRemoteSearcher(store vectorstore.VectorStore, collection string) *RemoteSearcher {
	return &RemoteSearcher{store: store, collection: collection}
}

// Open checks that the collection is reachable and non-empty.
func (r *RemoteSearcher) Open(ctx context.Context) error {
	if r.opened.Load() {
		return nil
	}
	n, err := r.store.Count(ctx, r.collection)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrService, err, "failed to reach mirror collection "+r.collection)
	}
	if n == 0 {
		return apperrors.New(apperrors.ErrNotFound, "mirror collection %s is empty", r.collection)
	}
	r.rows.Store(int64(n))
	r.opened.Store(true)
	return nil
}

// Stats reports the point count seen by the last successful Open. Only Rows
// is known for a mirror; ok is false before Open succeeds.
func (r *RemoteSearcher) Stats() (manifest storage.Manifest, ok bool) {
	if !r.opened.Load() {
		return storage.Manifest{}, false
	}
	return storage.Manifest{Rows: int(r.rows.Load())}, true
}

// Search queries the mirror and decodes each payload into a Record.
func (r *RemoteSearcher) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if err := r.Open(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []Hit{}, nil
	}

	results, err := r.store.Search(ctx, r.collection, query, k)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrService, err, "mirror search failed")
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		rec, err := decodePayload(res.PointID, res.Meta)
		if err != nil {
			return nil, err
		}
		hits = append(hits, Hit{Record: rec, Distance: res.Distance})
	}
	return hits, nil
}

func decodePayload(id uint64, meta map[string]any) (storage.Record, error) {
	rec := storage.Record{Row: int(id)}

	var ok bool
	if rec.DocumentID, ok = meta[PayloadDocumentID].(string); !ok || strings.TrimSpace(rec.DocumentID) == "" {
		return storage.Record{}, apperrors.New(apperrors.ErrCorruption, "point %d has no %s", id, PayloadDocumentID)
	}
	if rec.SourcePath, ok = meta[PayloadSourcePath].(string); !ok || strings.TrimSpace(rec.SourcePath) == "" {
		return storage.Record{}, apperrors.New(apperrors.ErrCorruption, "point %d has no %s", id, PayloadSourcePath)
	}
	if rec.Text, ok = meta[PayloadText].(string); !ok {
		return storage.Record{}, apperrors.New(apperrors.ErrCorruption, "point %d has no %s", id, PayloadText)
	}
	if rec.ChunkIndex, ok = asInt(meta[PayloadChunkIndex]); !ok || rec.ChunkIndex < 0 {
		return storage.Record{}, apperrors.New(apperrors.ErrCorruption, "point %d has invalid %s", id, PayloadChunkIndex)
	}
	return rec, nil
}

// asInt accepts the integer encodings produced by Qdrant (int64) and JSONB (float64).
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
