package adapter

import (
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
)

// SQLServerProvider implements Provider for Microsoft SQL Server.
type SQLServerProvider struct {
	base
}

// NewSQLServer creates a SQL Server provider.
func NewSQLServer(config Config) *SQLServerProvider {
	if config.Port == 0 {
		config.Port = 1433
	}
	return &SQLServerProvider{base{
		config: config,
		driver: "sqlserver",
		dsn:    mssqlDSN,
	}}
}

// DialectName returns the dialect name.
func (p *SQLServerProvider) DialectName() string {
	return "sqlserver"
}

func mssqlDSN(c Config) string {
	dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database)
	if extra := encodeOptions(c.Options); extra != "" {
		dsn += "&" + extra
	}
	return dsn
}

var _ Provider = (*SQLServerProvider)(nil)
