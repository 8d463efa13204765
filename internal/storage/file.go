package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File implements Store backed by a single JSON file.
// The file is a plain UTF-8 object of string keys to string values, kept
// human-inspectable so operators can reset a source by editing it.
type File struct {
	path string
}

// NewFile creates a file-backed store at path. The file is not touched until
// Load or Save is called.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the cache file. A missing file returns an empty map.
func (f *File) Load(_ context.Context) (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	cache := map[string]string{}
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}
	return cache, nil
}

// Save writes the cache to a temp file in the same directory and renames it
// into place, so a crash mid-write leaves the previous file intact.
func (f *File) Save(_ context.Context, cache map[string]string) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (f *File) Close() error {
	return nil
}
