package local

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ledgerdash/internal/snapshot"
)

func TestListEmptyDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing"))
	refs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("missing dir should be an empty tier: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no refs, got %d", len(refs))
	}
}

func TestWriteListRead(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()
	data := []byte(`[{"id":1}]`)

	ref, err := store.Write(ctx, "2024-03-05_expenses.json", data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if ref.Date != "2024-03-05" {
		t.Errorf("unexpected ref date %q", ref.Date)
	}

	refs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(refs) != 1 || refs[0].Name != "2024-03-05_expenses.json" {
		t.Fatalf("unexpected refs %v", refs)
	}

	got, err := store.Read(ctx, refs[0])
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read bytes differ from written bytes")
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.txt", "2024-03-05_expenses.csv", "2024-03-05_expenses.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	refs, err := New(dir).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("expected only the snapshot file listed, got %v", refs)
	}
}

func TestReadMissing(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Read(context.Background(), snapshot.Ref{Name: "2024-01-01_expenses.json"})
	if !errors.Is(err, snapshot.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteRejectsBadName(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Write(context.Background(), "expenses.json", []byte("[]")); err == nil {
		t.Error("names without a date marker must be rejected")
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()
	name := "2024-03-05_expenses.json"

	if _, err := store.Write(ctx, name, []byte(`[{"id":1}]`)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Write(ctx, name, []byte(`[{"id":1},{"id":2}]`)); err != nil {
		t.Fatal(err)
	}

	refs, _ := store.List(ctx)
	if len(refs) != 1 {
		t.Fatalf("rewrite should leave one file, got %d (temp files leaked?)", len(refs))
	}
	got, _ := store.Read(ctx, refs[0])
	if !bytes.Contains(got, []byte(`"id":2`)) {
		t.Error("second write should win")
	}
}
