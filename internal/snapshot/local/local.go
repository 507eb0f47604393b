// Package local implements the snapshot ports over a directory of
// date-prefixed JSON files.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ledgerdash/internal/snapshot"
)

// Store reads and writes snapshots under a single directory.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// List implements snapshot.Store. A missing directory is an empty
// tier, not an error.
func (s *Store) List(_ context.Context) ([]snapshot.Ref, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots in %s: %w", s.dir, err)
	}

	var refs []snapshot.Ref
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		date, ok := snapshot.ParseName(e.Name())
		if !ok {
			continue
		}
		refs = append(refs, snapshot.Ref{
			ID:   filepath.Join(s.dir, e.Name()),
			Name: e.Name(),
			Date: date,
		})
	}
	return refs, nil
}

// Read implements snapshot.Store.
func (s *Store) Read(_ context.Context, ref snapshot.Ref) ([]byte, error) {
	path := ref.ID
	if path == "" {
		path = filepath.Join(s.dir, ref.Name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", ref.Name, snapshot.ErrNotFound)
		}
		return nil, fmt.Errorf("read snapshot %s: %w", ref.Name, err)
	}
	return data, nil
}

// Write implements snapshot.Writer. The write goes to a temp file first
// and is renamed into place, so an aborted run never leaves a truncated
// snapshot where a good one stood.
func (s *Store) Write(_ context.Context, name string, data []byte) (snapshot.Ref, error) {
	if _, ok := snapshot.ParseName(name); !ok {
		return snapshot.Ref{}, fmt.Errorf("invalid snapshot name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return snapshot.Ref{}, fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return snapshot.Ref{}, fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return snapshot.Ref{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return snapshot.Ref{}, fmt.Errorf("close snapshot: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return snapshot.Ref{}, fmt.Errorf("publish snapshot: %w", err)
	}

	date, _ := snapshot.ParseName(name)
	return snapshot.Ref{ID: path, Name: name, Date: date}, nil
}
