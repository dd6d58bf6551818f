// Package adapter provides connection providers for the supported SQL
// dialects. A Provider knows how to open, validate and describe a
// database handle; the fluent facade owns the handle's lifecycle.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"time"
)

// Provider supplies database handles to the facade.
type Provider interface {
	// Open creates a new database handle with the pool configured.
	Open() (*sql.DB, error)

	// Validate reports whether an existing handle is still usable.
	Validate(ctx context.Context, db *sql.DB) error

	// Metadata
	DriverName() string
	DialectName() string
}

// Config holds common provider configuration.
type Config struct {
	Host            string
	Port            int
	Database        string
	Username        string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SQLite specific
	FilePath string
	InMemory bool

	// Additional options as key-value pairs appended to the DSN
	Options map[string]string
}

// DefaultConfig returns a config with sensible pool defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "localhost",
		Port:            5432,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
		SSLMode:         "disable",
		Options:         make(map[string]string),
	}
}

// base provides the shared open/validate machinery for all providers.
type base struct {
	config Config
	driver string
	dsn    func(Config) string
}

func (b *base) Open() (*sql.DB, error) {
	db, err := sql.Open(b.driver, b.dsn(b.config))
	if err != nil {
		return nil, fmt.Errorf("adapter: opening %s handle: %w", b.driver, err)
	}
	b.configurePool(db)
	return db, nil
}

func (b *base) Validate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("adapter: nil database handle")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

func (b *base) DriverName() string {
	return b.driver
}

func (b *base) configurePool(db *sql.DB) {
	if b.config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(b.config.MaxOpenConns)
	}
	if b.config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(b.config.MaxIdleConns)
	}
	if b.config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(b.config.ConnMaxLifetime)
	}
	if b.config.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(b.config.ConnMaxIdleTime)
	}
}

// encodeOptions renders extra DSN options in deterministic key order.
func encodeOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	v := url.Values{}
	for _, k := range keys {
		v.Set(k, opts[k])
	}
	return v.Encode()
}
