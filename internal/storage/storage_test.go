package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileLoadMissing(t *testing.T) {
	ctx := context.Background()
	f := NewFile(filepath.Join(t.TempDir(), "cache.json"))

	got, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]string{}, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewFile(path).Load(ctx); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()

	caches := []map[string]string{
		{},
		{"youtube_last_video": "abc123"},
		{"youtube_last_video": "xyz789", "instagram_last_post": "CxYz_-1"},
	}

	stores := map[string]func(t *testing.T) Store{
		"file": func(t *testing.T) Store {
			return NewFile(filepath.Join(t.TempDir(), "cache.json"))
		},
		"sqlite": func(t *testing.T) Store {
			return newTestSQLite(t)
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			for _, cache := range caches {
				s := newStore(t)
				if err := s.Save(ctx, cache); err != nil {
					t.Fatalf("save: %v", err)
				}
				got, err := s.Load(ctx)
				if err != nil {
					t.Fatalf("load: %v", err)
				}
				if diff := cmp.Diff(cache, got); diff != "" {
					t.Errorf("round trip mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestSQLiteSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	if err := s.Save(ctx, map[string]string{"a": "1", "b": "2"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save(ctx, map[string]string{"a": "3"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"a": "3"}, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSaveIsHumanReadable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	f := NewFile(path)
	if err := f.Save(ctx, map[string]string{"youtube_last_video": "abc123"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "\"youtube_last_video\": \"abc123\"") {
		t.Errorf("expected indented key/value pair, got:\n%s", data)
	}

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the cache file, got %d entries", len(entries))
	}
}
