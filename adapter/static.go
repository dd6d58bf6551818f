package adapter

import (
	"context"
	"database/sql"
	"fmt"
)

// StaticProvider wraps an existing database handle. It hands back the
// same handle on every Open and never recreates it; useful for tests
// and for callers that manage the pool themselves.
type StaticProvider struct {
	db      *sql.DB
	driver  string
	dialect string
}

// Static wraps db in a provider. The driver and dialect names are
// reported as given.
func Static(db *sql.DB, driver, dialect string) *StaticProvider {
	return &StaticProvider{db: db, driver: driver, dialect: dialect}
}

// Open returns the wrapped handle. Every call hands out the same
// shared handle; see SharesHandle.
func (p *StaticProvider) Open() (*sql.DB, error) {
	if p.db == nil {
		return nil, fmt.Errorf("adapter: static provider holds no handle")
	}
	return p.db, nil
}

// SharesHandle reports that Open returns one shared handle rather than
// a fresh one, so callers must not close what Open hands out.
func (p *StaticProvider) SharesHandle() bool {
	return true
}

// Validate pings the wrapped handle.
func (p *StaticProvider) Validate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("adapter: nil database handle")
	}
	return db.PingContext(ctx)
}

// DriverName returns the driver name supplied at construction.
func (p *StaticProvider) DriverName() string {
	return p.driver
}

// DialectName returns the dialect name supplied at construction.
func (p *StaticProvider) DialectName() string {
	return p.dialect
}

var _ Provider = (*StaticProvider)(nil)
