package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docqa/internal/apperrors"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func sampleRecords() []Record {
	return []Record{
		{Row: 0, DocumentID: "intro", ChunkIndex: 0, Text: "first", SourcePath: "data/intro.pdf"},
		{Row: 1, DocumentID: "intro", ChunkIndex: 1, Text: "second", SourcePath: "data/intro.pdf"},
		{Row: 2, DocumentID: "policy", ChunkIndex: 0, Text: "third", SourcePath: "data/hr/policy.docx"},
	}
}

func TestRecordRepo_WriteAllLoadAll(t *testing.T) {
	ctx := context.Background()
	repo := NewRecordRepo(newTestDB(t))

	if err := repo.WriteAll(ctx, sampleRecords()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	// A second write replaces rather than appends
	if err := repo.WriteAll(ctx, sampleRecords()[:2]); err != nil {
		t.Fatalf("WriteAll() second run error = %v", err)
	}

	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	want := sampleRecords()[:2]
	if len(got) != len(want) {
		t.Fatalf("LoadAll() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LoadAll()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRecordRepo_WriteAll_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
	}{
		{"gap in rows", []Record{{Row: 1, DocumentID: "a", SourcePath: "data/a.pdf"}}},
		{"empty document id", []Record{{Row: 0, DocumentID: " ", SourcePath: "data/a.pdf"}}},
		{"empty source path", []Record{{Row: 0, DocumentID: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewRecordRepo(newTestDB(t))
			if err := repo.WriteAll(context.Background(), tt.records); !errors.Is(err, apperrors.ErrCorruption) {
				t.Errorf("WriteAll() error = %v, want ErrCorruption", err)
			}
		})
	}
}

func TestRecordRepo_LoadAll_DetectsCorruption(t *testing.T) {
	tests := []struct {
		name   string
		insert string
	}{
		{
			name:   "rows not contiguous",
			insert: "INSERT INTO records VALUES (0, 'a', 0, 't', 'data/a.pdf'), (2, 'a', 1, 't', 'data/a.pdf')",
		},
		{
			name:   "rows not starting at zero",
			insert: "INSERT INTO records VALUES (1, 'a', 0, 't', 'data/a.pdf')",
		},
		{
			name:   "empty source path",
			insert: "INSERT INTO records VALUES (0, 'a', 0, 't', '')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			if _, err := db.Exec(tt.insert); err != nil {
				t.Fatalf("insert error = %v", err)
			}
			_, err := NewRecordRepo(db).LoadAll(context.Background())
			if !errors.Is(err, apperrors.ErrCorruption) {
				t.Errorf("LoadAll() error = %v, want ErrCorruption", err)
			}
		})
	}
}

func TestManifestRepo_SaveLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewManifestRepo(newTestDB(t))

	want := Manifest{
		Rows:           3,
		Dimension:      1536,
		IndexSHA256:    "abc123",
		EmbeddingModel: "text-embedding-ada-002",
		ChunkSize:      500,
		ChunkOverlap:   50,
		ChunkerVersion: "token-window-v1",
		IndexVersion:   "deadbeef",
		BuiltAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestManifestRepo_Load_Missing(t *testing.T) {
	_, err := NewManifestRepo(newTestDB(t)).Load(context.Background())
	if !errors.Is(err, apperrors.ErrCorruption) {
		t.Errorf("Load() error = %v, want ErrCorruption", err)
	}
}
