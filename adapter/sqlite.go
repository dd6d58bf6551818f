//go:build cgo && sqlite

package adapter

import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteProvider implements Provider for SQLite databases.
type SQLiteProvider struct {
	base
}

// NewSQLite creates a SQLite provider for a file database.
func NewSQLite(path string) *SQLiteProvider {
	return newSQLite(Config{FilePath: path})
}

// NewSQLiteMemory creates an in-memory SQLite provider for testing.
func NewSQLiteMemory() *SQLiteProvider {
	return newSQLite(Config{InMemory: true})
}

func newSQLite(config Config) *SQLiteProvider {
	return &SQLiteProvider{base{
		config: config,
		driver: "sqlite3",
		dsn:    sqliteDSN,
	}}
}

// DialectName returns the dialect name.
func (p *SQLiteProvider) DialectName() string {
	return "sqlite"
}

func sqliteDSN(c Config) string {
	if c.InMemory {
		// Shared cache keeps the schema alive across pooled connections.
		return "file::memory:?cache=shared"
	}
	dsn := "file:" + c.FilePath
	if extra := encodeOptions(c.Options); extra != "" {
		dsn += "?" + extra
	}
	return dsn
}

var _ Provider = (*SQLiteProvider)(nil)
