// Package storage defines the cache store interface and its implementations.
//
// The cache is a flat key/value mapping holding the last announced item
// identifier per source. It is loaded once at process start and written back
// once at process end; there is no concurrent access.
package storage

import "context"

// Store is the interface for cache persistence.
type Store interface {
	// Load returns the persisted mapping. A missing backing file or empty
	// database yields an empty map, not an error.
	Load(ctx context.Context) (map[string]string, error)

	// Save overwrites the persisted mapping with the given one.
	Save(ctx context.Context, cache map[string]string) error

	Close() error
}
