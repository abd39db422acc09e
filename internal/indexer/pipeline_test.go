package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"docqa/internal/apperrors"
	"docqa/internal/index"
	"docqa/internal/vectorstore"
	"docqa/internal/vectorstore/mocks"
)

// fileReader returns the raw file content, standing in for PDF/Word extraction.
type fileReader struct{}

func (fileReader) Read(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

// funcEmbedder adapts a function to the Embedder interface and counts calls.
type funcEmbedder struct {
	fn    func(text string) ([]float32, error)
	calls int
}

func (e *funcEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	return e.fn(text)
}

// firstRuneEmbedder embeds a text as (first rune, length).
func firstRuneEmbedder() *funcEmbedder {
	return &funcEmbedder{fn: func(text string) ([]float32, error) {
		return []float32{float32([]rune(text)[0]), float32(len(text))}, nil
	}}
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dataDir := filepath.Join(t.TempDir(), "data")
	for rel, content := range files {
		path := filepath.Join(dataDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return dataDir
}

func newTestPipeline(t *testing.T, dataDir string, embedder Embedder, opts ...PipelineOption) (*Pipeline, *index.Writer) {
	t.Helper()
	chunker, err := NewTokenChunker(runeTokenizer{}, 4, 1)
	if err != nil {
		t.Fatalf("NewTokenChunker() error = %v", err)
	}
	out := t.TempDir()
	writer := index.NewWriter(filepath.Join(out, "docqa.index"), filepath.Join(out, "docqa_meta.db"))
	return NewPipeline(dataDir, fileReader{}, chunker, embedder, "test-model", writer, opts...), writer
}

func TestPipeline_Build(t *testing.T) {
	dataDir := writeCorpus(t, map[string]string{
		"alpha.pdf":        "abcdefghij",
		"empty.docx":       "",
		"notes.txt":        "ignored",
		"week1/intro.docx": "xyz",
	})
	embedder := firstRuneEmbedder()
	p, w := newTestPipeline(t, dataDir, embedder)

	result, err := p.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	cov := result.Coverage
	if cov.DocsProcessed != 3 {
		t.Errorf("DocsProcessed = %d, want 3", cov.DocsProcessed)
	}
	if cov.DocsWith0Chunks != 1 {
		t.Errorf("DocsWith0Chunks = %d, want 1", cov.DocsWith0Chunks)
	}
	if cov.ChunksEmbedded != 4 {
		t.Errorf("ChunksEmbedded = %d, want 4", cov.ChunksEmbedded)
	}
	if embedder.calls != 4 {
		t.Errorf("embedder called %d times, want 4", embedder.calls)
	}
	if want := (ChunkTokenStats{Min: 3, Max: 4, Mean: 3.75, P95: 4}); cov.ChunkTokenStats != want {
		t.Errorf("ChunkTokenStats = %+v, want %+v", cov.ChunkTokenStats, want)
	}
	if cov.ChunkerVersion != ChunkerVersion {
		t.Errorf("ChunkerVersion = %s, want %s", cov.ChunkerVersion, ChunkerVersion)
	}
	if len(cov.IndexVersion) != 16 {
		t.Errorf("IndexVersion = %q, want 16 hex chars", cov.IndexVersion)
	}

	m := result.Manifest
	if m.Rows != 4 || m.Dimension != 2 || m.ChunkSize != 4 || m.ChunkOverlap != 1 || m.EmbeddingModel != "test-model" {
		t.Errorf("Manifest = %+v", m)
	}
	if m.IndexVersion != cov.IndexVersion {
		t.Errorf("Manifest.IndexVersion = %s, want %s", m.IndexVersion, cov.IndexVersion)
	}

	store := index.NewStore(w.IndexPath, w.MetaPath)
	hits, err := store.Search(context.Background(), []float32{'a', 4}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 4 {
		t.Fatalf("Search() returned %d hits, want 4", len(hits))
	}

	byRow := make(map[int]index.Hit, len(hits))
	for _, h := range hits {
		byRow[h.Record.Row] = h
	}
	wantRecords := []struct {
		doc, text, source string
		chunk             int
	}{
		{"alpha", "abcd", "data/alpha.pdf", 0},
		{"alpha", "defg", "data/alpha.pdf", 1},
		{"alpha", "ghij", "data/alpha.pdf", 2},
		{"intro", "xyz", "data/week1/intro.docx", 0},
	}
	for row, want := range wantRecords {
		rec := byRow[row].Record
		if rec.DocumentID != want.doc || rec.Text != want.text || rec.SourcePath != want.source || rec.ChunkIndex != want.chunk {
			t.Errorf("row %d = %+v, want %+v", row, rec, want)
		}
	}
	if hits[0].Record.Row != 0 || hits[0].Distance != 0 {
		t.Errorf("nearest hit = %+v, want row 0 at distance 0", hits[0])
	}
}

func TestPipeline_Build_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		embedder *funcEmbedder
		wantErr  error
	}{
		{
			name:     "no documents",
			files:    map[string]string{"readme.md": "not indexed"},
			embedder: firstRuneEmbedder(),
			wantErr:  apperrors.ErrNoData,
		},
		{
			name:     "only empty documents",
			files:    map[string]string{"a.pdf": "", "b.docx": ""},
			embedder: firstRuneEmbedder(),
			wantErr:  apperrors.ErrNoData,
		},
		{
			name:  "embedder failure",
			files: map[string]string{"a.pdf": "abcdef"},
			embedder: &funcEmbedder{fn: func(string) ([]float32, error) {
				return nil, apperrors.New(apperrors.ErrAuthentication, "missing API key")
			}},
			wantErr: apperrors.ErrAuthentication,
		},
		{
			name:  "dimension changes between chunks",
			files: map[string]string{"a.pdf": "abcdefg"},
			embedder: &funcEmbedder{fn: func(text string) ([]float32, error) {
				if text == "abcd" {
					return []float32{1, 2}, nil
				}
				return []float32{1, 2, 3}, nil
			}},
			wantErr: apperrors.ErrService,
		},
		{
			name:  "empty vector",
			files: map[string]string{"a.pdf": "abc"},
			embedder: &funcEmbedder{fn: func(string) ([]float32, error) {
				return []float32{}, nil
			}},
			wantErr: apperrors.ErrService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, w := newTestPipeline(t, writeCorpus(t, tt.files), tt.embedder)

			_, err := p.Build(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
			}
			for _, path := range []string{w.IndexPath, w.MetaPath} {
				if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
					t.Errorf("Build() left %s behind after failure", filepath.Base(path))
				}
			}
		})
	}
}

func TestPipeline_Build_MissingDataDir(t *testing.T) {
	p, _ := newTestPipeline(t, filepath.Join(t.TempDir(), "missing"), firstRuneEmbedder())

	if _, err := p.Build(context.Background()); !errors.Is(err, apperrors.ErrNoData) {
		t.Errorf("Build() error = %v, want ErrNoData", err)
	}
}

func TestPipeline_Build_Cancelled(t *testing.T) {
	p, _ := newTestPipeline(t, writeCorpus(t, map[string]string{"a.pdf": "abc"}), firstRuneEmbedder(), WithRateLimit(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Build(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestPipeline_Build_Mirror(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockVectorStore(ctrl)
	gomock.InOrder(
		mockStore.EXPECT().Recreate(gomock.Any(), "docqa", 2).Return(nil),
		mockStore.EXPECT().Upsert(gomock.Any(), "docqa", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, points []vectorstore.Point) error {
				if len(points) != 2 {
					t.Fatalf("Upsert() got %d points, want 2", len(points))
				}
				for i, pt := range points {
					if pt.ID != uint64(i) {
						t.Errorf("points[%d].ID = %d, want %d", i, pt.ID, i)
					}
					if pt.Meta[index.PayloadDocumentID] != "alpha" || pt.Meta[index.PayloadSourcePath] != "data/alpha.pdf" {
						t.Errorf("points[%d].Meta = %v", i, pt.Meta)
					}
				}
				if points[1].Vec[0] != 'd' {
					t.Errorf("points[1].Vec = %v, want first component 'd'", points[1].Vec)
				}
				return nil
			}),
	)

	dataDir := writeCorpus(t, map[string]string{"alpha.pdf": "abcdefg"})
	p, _ := newTestPipeline(t, dataDir, firstRuneEmbedder(), WithMirror(mockStore, "docqa"), WithRateLimit(1000))

	if _, err := p.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestPipeline_Build_MirrorFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().Recreate(gomock.Any(), "docqa", 2).Return(errors.New("connection refused"))

	dataDir := writeCorpus(t, map[string]string{"alpha.pdf": "abc"})
	p, _ := newTestPipeline(t, dataDir, firstRuneEmbedder(), WithMirror(mockStore, "docqa"))

	if _, err := p.Build(context.Background()); !errors.Is(err, apperrors.ErrService) {
		t.Errorf("Build() error = %v, want ErrService", err)
	}
}
