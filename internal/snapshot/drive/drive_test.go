package drive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"

	"ledgerdash/internal/snapshot"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gdrive.NewService(context.Background(),
		goption.WithEndpoint(srv.URL),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("create drive service: %v", err)
	}
	return New(svc, "folder-1", nil)
}

func TestListFiltersForeignNames(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"files":[
			{"id":"a","name":"2024-03-05_expenses.json"},
			{"id":"b","name":"dashboard.html"},
			{"id":"c","name":"2024-01-01_expenses.json"}
		]}`))
	})

	refs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 snapshot refs, got %d", len(refs))
	}

	best, ok := snapshot.Latest(refs)
	if !ok || best.ID != "a" {
		t.Errorf("expected latest id a, got %v", best)
	}
}

func TestReadCachesDownloads(t *testing.T) {
	downloads := 0
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			downloads++
			w.Write([]byte(`[{"id":1}]`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	})

	ref := snapshot.Ref{ID: "a", Name: "2024-03-05_expenses.json", Date: "2024-03-05"}
	ctx := context.Background()

	first, err := store.Read(ctx, ref)
	if err != nil {
		t.Fatalf("first Read failed: %v", err)
	}
	second, err := store.Read(ctx, ref)
	if err != nil {
		t.Fatalf("second Read failed: %v", err)
	}
	if string(first) != string(second) {
		t.Error("cached read returned different bytes")
	}
	if downloads != 1 {
		t.Errorf("expected 1 download, got %d", downloads)
	}
}

func TestReadNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
	})

	_, err := store.Read(context.Background(), snapshot.Ref{ID: "gone", Name: "2024-03-05_expenses.json"})
	if !errors.Is(err, snapshot.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteRejectsBadName(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := store.Write(context.Background(), "expenses.json", []byte("[]"))
	if err == nil || !strings.Contains(err.Error(), "invalid snapshot name") {
		t.Errorf("expected name validation error, got %v", err)
	}
}
