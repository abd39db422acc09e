package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docqa/internal/apperrors"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "valid path",
			path:    dbPath,
			wantErr: false,
		},
		{
			name:    "invalid path",
			path:    "/invalid/path/to/db.db",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("New() expected error, got nil")
				}
				if db != nil {
					_ = db.Close()
				}
				return
			}

			if err != nil {
				t.Errorf("New() unexpected error: %v", err)
				return
			}

			if db == nil {
				t.Fatal("New() returned nil database")
			}

			// Verify connection pool settings
			if db.Stats().MaxOpenConnections != 25 {
				t.Errorf("New() MaxOpenConnections = %v, want 25", db.Stats().MaxOpenConnections)
			}

			_ = db.Close()
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	// Run migrations twice
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() first run error = %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	tables := []string{"records", "manifest"}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Migrate() table %s not created", table)
		}
	}
}

func TestOpenReadOnly(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "missing.db")
		_, err := OpenReadOnly(path)
		if !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("OpenReadOnly() error = %v, want ErrNotFound", err)
		}
		if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
			t.Error("OpenReadOnly() must not create the file")
		}
	})

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "meta.db")
		db, err := New(path)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		_ = db.Close()

		ro, err := OpenReadOnly(path)
		if err != nil {
			t.Fatalf("OpenReadOnly() error = %v", err)
		}
		defer func() {
			_ = ro.Close()
		}()

		if _, err := ro.Exec("INSERT INTO manifest (key, value) VALUES ('k', 'v')"); err == nil {
			t.Error("OpenReadOnly() database accepted a write")
		}
	})
}
