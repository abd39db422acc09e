package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"docqa/internal/apperrors"
	"docqa/internal/storage"
)

type fakeIndex struct {
	openErr  error
	manifest storage.Manifest
	loaded   bool
}

func (f *fakeIndex) Open(context.Context) error {
	if f.openErr == nil {
		f.loaded = true
	}
	return f.openErr
}

func (f *fakeIndex) Stats() (storage.Manifest, bool) {
	return f.manifest, f.loaded
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	manifest := storage.Manifest{
		Rows:           42,
		Dimension:      1536,
		EmbeddingModel: "text-embedding-ada-002",
		BuiltAt:        time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC),
	}

	tests := []struct {
		name          string
		index         *fakeIndex
		hasCredential bool
		wantStatus    int
		wantChecks    map[string]string
		wantIssues    []string
		wantRows      int
	}{
		{
			name:          "healthy",
			index:         &fakeIndex{manifest: manifest},
			hasCredential: true,
			wantStatus:    http.StatusOK,
			wantChecks:    map[string]string{"index": "ok", "credential": "ok"},
			wantRows:      42,
		},
		{
			name:          "index missing",
			index:         &fakeIndex{openErr: apperrors.New(apperrors.ErrNotFound, "vector index missing")},
			hasCredential: true,
			wantStatus:    http.StatusServiceUnavailable,
			wantChecks:    map[string]string{"index": "error", "credential": "ok"},
			wantIssues:    []string{"index_unavailable"},
		},
		{
			name:          "credential missing",
			index:         &fakeIndex{manifest: manifest},
			hasCredential: false,
			wantStatus:    http.StatusServiceUnavailable,
			wantChecks:    map[string]string{"index": "ok", "credential": "missing"},
			wantIssues:    []string{"openai_api_key_missing"},
			wantRows:      42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.index, tt.hasCredential)
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			for k, v := range tt.wantChecks {
				if resp.Checks[k] != v {
					t.Errorf("Checks[%s] = %q, want %q", k, resp.Checks[k], v)
				}
			}
			if !slices.Equal(resp.Issues, tt.wantIssues) {
				t.Errorf("Issues = %v, want %v", resp.Issues, tt.wantIssues)
			}
			if tt.wantRows == 0 {
				if resp.Index != nil {
					t.Errorf("Index = %+v, want nil", resp.Index)
				}
				return
			}
			if resp.Index == nil || resp.Index.Rows != tt.wantRows || resp.Index.Dimension != 1536 {
				t.Errorf("Index = %+v, want %d rows", resp.Index, tt.wantRows)
			}
			if resp.Index != nil && resp.Index.BuiltAt != "2026-02-01T08:30:00Z" {
				t.Errorf("Index.BuiltAt = %q", resp.Index.BuiltAt)
			}
		})
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	handler := NewHealthHandler(&fakeIndex{}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("ServeHTTP() status = %v, want %v", w.Code, http.StatusMethodNotAllowed)
	}
}
