package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docqa/internal/contextutil"
)

// PgvectorStore implements VectorStore on PostgreSQL with the pgvector
// extension. Each collection is a table (id BIGINT, embedding vector(n), payload JSONB).
type PgvectorStore struct {
	pool *pgxpool.Pool
}

// NewPgvectorStore connects to PostgreSQL and verifies the connection.
func NewPgvectorStore(ctx context.Context, connString string) (*PgvectorStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PgvectorStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PgvectorStore) Close() {
	s.pool.Close()
}

// Recreate drops and recreates the collection table.
func (s *PgvectorStore) Recreate(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d", vectorSize)
	}

	table := tableIdentifier(collection)
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table),
		fmt.Sprintf(`CREATE TABLE %s (
			id BIGINT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, table, vectorSize),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to recreate table %s: %w", collection, err)
		}
	}

	logger.InfoContext(ctx, "table created", "table", collection, "vector_size", vectorSize)
	return nil
}

// Upsert inserts or updates points in one batch.
func (s *PgvectorStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, embedding, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`,
		tableIdentifier(collection))

	batch := &pgx.Batch{}
	for _, point := range points {
		meta := point.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		batch.Queue(query, int64(point.ID), pgvector.NewVector(point.Vec), meta)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer func() {
		_ = br.Close()
	}()

	for i := range points {
		if _, err := br.Exec(); err != nil {
			logger.ErrorContext(ctx, "failed to upsert points", "table", collection, "count", len(points), "error", err)
			return fmt.Errorf("failed to upsert point %d: %w", points[i].ID, err)
		}
	}

	logger.InfoContext(ctx, "upserted points", "table", collection, "count", len(points))
	return nil
}

// Search orders rows by the L2 distance operator.
func (s *PgvectorStore) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, embedding <-> $1 AS distance, payload
		 FROM %s
		 ORDER BY distance, id
		 LIMIT $2`, tableIdentifier(collection)),
		pgvector.NewVector(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			id       int64
			distance float64
			meta     map[string]any
		)
		if err := rows.Scan(&id, &distance, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		results = append(results, SearchResult{
			PointID:  uint64(id),
			Distance: float32(distance),
			Meta:     meta,
		})
	}
	return results, rows.Err()
}

// Count returns the number of rows in the collection table.
func (s *PgvectorStore) Count(ctx context.Context, collection string) (int, error) {
	var n int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, tableIdentifier(collection))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

func tableIdentifier(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}
