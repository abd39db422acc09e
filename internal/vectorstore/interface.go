package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docqa/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   uint64 // Row number in the local index
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID  uint64
	Distance float32 // Euclidean distance, lower is more similar
	Meta     map[string]any
}

// VectorStore is a remote mirror of the local vector index.
type VectorStore interface {
	// Recreate drops the collection if it exists and creates it empty with the given vector size.
	Recreate(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points by Euclidean distance, nearest first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// Count returns the number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)
}
