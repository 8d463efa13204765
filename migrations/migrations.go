// Package migrations applies the embedded schema for the sqlite cache backend.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var schemaFS embed.FS

// Run brings the cache schema up to date.
func Run(db *sql.DB) error {
	goose.SetBaseFS(schemaFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply cache schema: %w", err)
	}
	return nil
}
