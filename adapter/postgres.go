package adapter

import (
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresProvider implements Provider for PostgreSQL databases.
type PostgresProvider struct {
	base
}

// NewPostgres creates a PostgreSQL provider.
func NewPostgres(config Config) *PostgresProvider {
	if config.Port == 0 {
		config.Port = 5432
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}
	return &PostgresProvider{base{
		config: config,
		driver: "postgres",
		dsn:    postgresDSN,
	}}
}

// DialectName returns the dialect name.
func (p *PostgresProvider) DialectName() string {
	return "postgres"
}

func postgresDSN(c Config) string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
	if extra := encodeOptions(c.Options); extra != "" {
		dsn += "&" + extra
	}
	return dsn
}

var _ Provider = (*PostgresProvider)(nil)
