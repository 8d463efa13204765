package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"social_monitor/migrations"
)

// SQLite implements Store backed by a SQLite database. It keeps the same
// flat mapping as the file backend in a single cache_entries table, for
// deployments that already mount a data directory for the database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load returns all cache entries. An empty table yields an empty map.
func (s *SQLite) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM cache_entries`)
	if err != nil {
		return nil, fmt.Errorf("query cache entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cache := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		cache[k] = v
	}
	return cache, rows.Err()
}

// Save replaces the stored mapping with the given one in a single
// transaction.
func (s *SQLite) Save(ctx context.Context, cache map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clear cache entries: %w", err)
	}
	for k, v := range cache {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cache_entries (key, value) VALUES (?, ?)`, k, v,
		); err != nil {
			return fmt.Errorf("insert cache entry %q: %w", k, err)
		}
	}
	return tx.Commit()
}
