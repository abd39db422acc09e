package indexer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"docqa/internal/apperrors"
	"docqa/internal/contextutil"
	"docqa/internal/corpus"
	"docqa/internal/index"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// DocumentReader extracts the plain text of a document.
type DocumentReader interface {
	Read(ctx context.Context, path string) (string, error)
}

// Embedder turns one text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BuildResult describes a completed index build.
type BuildResult struct {
	Manifest storage.Manifest
	Coverage IndexingCoverageStats
}

// Pipeline builds the vector index and metadata sidecar from a data directory
// in one batch: scan, read, chunk, embed, persist.
type Pipeline struct {
	dataDir        string
	reader         DocumentReader
	chunker        *TokenChunker
	embedder       Embedder
	embeddingModel string
	writer         *index.Writer

	limiter *rate.Limiter

	mirror     vectorstore.VectorStore
	collection string
}

// PipelineOption configures optional Pipeline behaviour.
type PipelineOption func(*Pipeline)

// WithRateLimit caps embedding calls at perSecond requests per second.
// Zero or negative leaves calls unthrottled.
func WithRateLimit(perSecond float64) PipelineOption {
	return func(p *Pipeline) {
		if perSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMirror upserts every built row into collection of store after the
// local artifacts are persisted.
func WithMirror(store vectorstore.VectorStore, collection string) PipelineOption {
	return func(p *Pipeline) {
		p.mirror = store
		p.collection = collection
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	dataDir string,
	reader DocumentReader,
	chunker *TokenChunker,
	embedder Embedder,
	embeddingModel string,
	writer *index.Writer,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		dataDir:        dataDir,
		reader:         reader,
		chunker:        chunker,
		embedder:       embedder,
		embeddingModel: embeddingModel,
		writer:         writer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Build indexes every supported document under the data directory. Any error
// aborts the batch before the artifacts are written.
func (p *Pipeline) Build(ctx context.Context) (*BuildResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()

	files, err := corpus.Scan(ctx, p.dataDir)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "starting indexing", "data_dir", p.dataDir, "total_files", len(files))

	var (
		vectors     *vectorstore.FlatIndex
		records     []storage.Record
		tokenCounts []int
		coverage    = IndexingCoverageStats{ChunkerVersion: ChunkerVersion}
	)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := p.reader.Read(ctx, file.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.SourcePath, err)
		}
		coverage.DocsProcessed++

		chunks := p.chunker.Split(text)
		if len(chunks) == 0 {
			coverage.DocsWith0Chunks++
			logger.WarnContext(ctx, "no chunks generated", "source", file.SourcePath)
			continue
		}

		for _, chunk := range chunks {
			chunk.DocumentID = file.DocumentID

			vec, err := p.embed(ctx, chunk.Text)
			if err != nil {
				return nil, fmt.Errorf("failed to embed chunk %d of %s: %w", chunk.Index, file.SourcePath, err)
			}

			if vectors == nil {
				if vectors, err = vectorstore.NewFlatIndex(len(vec)); err != nil {
					return nil, apperrors.Wrap(apperrors.ErrService, err, "embedding service returned an unusable vector")
				}
			}
			if len(vec) != vectors.Dim() {
				return nil, apperrors.New(apperrors.ErrService,
					"embedding dimension changed from %d to %d at chunk %d of %s",
					vectors.Dim(), len(vec), chunk.Index, file.SourcePath)
			}
			if err := vectors.Add(vec); err != nil {
				return nil, fmt.Errorf("failed to add vector: %w", err)
			}

			records = append(records, storage.Record{
				Row:        len(records),
				DocumentID: chunk.DocumentID,
				ChunkIndex: chunk.Index,
				Text:       chunk.Text,
				SourcePath: file.SourcePath,
			})
			tokenCounts = append(tokenCounts, chunk.Tokens)
		}

		logger.DebugContext(ctx, "indexed document", "source", file.SourcePath, "chunks", len(chunks))
	}

	if len(records) == 0 {
		return nil, apperrors.New(apperrors.ErrNoData, "no chunks produced from %d documents in %s", len(files), p.dataDir)
	}

	coverage.ChunksEmbedded = len(records)
	coverage.ChunkTokenStats = computeTokenStats(tokenCounts)
	coverage.IndexVersion = indexVersion(p.embeddingModel, vectors.Dim(), p.chunker.Size(), p.chunker.Overlap())

	manifest, err := p.writer.Persist(ctx, records, vectors, storage.Manifest{
		EmbeddingModel: p.embeddingModel,
		ChunkSize:      p.chunker.Size(),
		ChunkOverlap:   p.chunker.Overlap(),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   coverage.IndexVersion,
		BuiltAt:        time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}

	if p.mirror != nil {
		if err := p.mirrorRecords(ctx, records, vectors); err != nil {
			return nil, err
		}
	}

	logger.InfoContext(ctx, "indexing completed",
		"documents", coverage.DocsProcessed,
		"empty_documents", coverage.DocsWith0Chunks,
		"chunks", coverage.ChunksEmbedded,
		"dimension", manifest.Dimension,
		"duration", time.Since(started),
	)

	return &BuildResult{Manifest: manifest, Coverage: coverage}, nil
}

func (p *Pipeline) embed(ctx context.Context, text string) ([]float32, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return p.embedder.Embed(ctx, text)
}

// mirrorRecords replaces the mirror collection with the rows just built,
// using the row number as point id.
func (p *Pipeline) mirrorRecords(ctx context.Context, records []storage.Record, vectors *vectorstore.FlatIndex) error {
	if err := p.mirror.Recreate(ctx, p.collection, vectors.Dim()); err != nil {
		return apperrors.Wrap(apperrors.ErrService, err, "failed to recreate mirror collection "+p.collection)
	}

	points := make([]vectorstore.Point, len(records))
	for i, rec := range records {
		points[i] = vectorstore.Point{
			ID:   uint64(rec.Row),
			Vec:  vectors.Vector(rec.Row),
			Meta: index.RecordPayload(rec),
		}
	}
	if err := p.mirror.Upsert(ctx, p.collection, points); err != nil {
		return apperrors.Wrap(apperrors.ErrService, err, "failed to upsert mirror points")
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "mirrored index", "collection", p.collection, "points", len(points))
	return nil
}
