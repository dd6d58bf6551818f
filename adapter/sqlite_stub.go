//go:build !cgo || !sqlite

package adapter

import (
	"context"
	"database/sql"
	"errors"
)

// ErrSQLiteNotAvailable is returned when SQLite is not compiled in.
var ErrSQLiteNotAvailable = errors.New("SQLite provider not available: build with CGO and the sqlite tag")

// SQLiteProvider is a stub when CGO is not available.
type SQLiteProvider struct {
	base
}

// NewSQLite creates a SQLite provider for a file database.
func NewSQLite(path string) *SQLiteProvider {
	return &SQLiteProvider{base{config: Config{FilePath: path}, driver: "sqlite3"}}
}

// NewSQLiteMemory creates an in-memory SQLite provider for testing.
func NewSQLiteMemory() *SQLiteProvider {
	return &SQLiteProvider{base{config: Config{InMemory: true}, driver: "sqlite3"}}
}

// Open returns an error as SQLite is not available.
func (p *SQLiteProvider) Open() (*sql.DB, error) {
	return nil, ErrSQLiteNotAvailable
}

// Validate returns an error as SQLite is not available.
func (p *SQLiteProvider) Validate(ctx context.Context, db *sql.DB) error {
	return ErrSQLiteNotAvailable
}

// DialectName returns the dialect name.
func (p *SQLiteProvider) DialectName() string {
	return "sqlite"
}

var _ Provider = (*SQLiteProvider)(nil)
