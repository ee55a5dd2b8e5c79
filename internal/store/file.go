package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gyaneshwarpardhi/metroreach/internal/graph"
)

// File keeps the index as a single JSON document on disk.
type File struct {
	path string
}

// NewFile returns a File store rooted at path.
func NewFile(path string) *File { return &File{path: path} }

// Path returns the document location.
func (f *File) Path() string { return f.path }

// Save writes the index to a temporary file and renames it into place so a
// concurrent Load never sees a half-written document.
func (f *File) Save(ctx context.Context, idx *graph.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if idx == nil {
		return graph.ErrIndexUnavailable
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create index directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, idx); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// Load reads the index back.
func (f *File) Load(ctx context.Context) (*graph.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, unavailable("no index at "+f.path, err)
		}
		return nil, unavailable("open "+f.path, err)
	}
	defer fh.Close()
	idx, err := Decode(fh)
	if err != nil {
		return nil, unavailable("read "+f.path, err)
	}
	return idx, nil
}

// Close is a no-op.
func (f *File) Close() error { return nil }
