package adapter

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLProvider implements Provider for MySQL and MariaDB databases.
type MySQLProvider struct {
	base
}

// NewMySQL creates a MySQL provider.
func NewMySQL(config Config) *MySQLProvider {
	if config.Port == 0 {
		config.Port = 3306
	}
	return &MySQLProvider{base{
		config: config,
		driver: "mysql",
		dsn:    mysqlDSN,
	}}
}

// DialectName returns the dialect name.
func (p *MySQLProvider) DialectName() string {
	return "mysql"
}

func mysqlDSN(c Config) string {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.Username, c.Password, c.Host, c.Port, c.Database)
	if extra := encodeOptions(c.Options); extra != "" {
		dsn += "&" + extra
	}
	return dsn
}

var _ Provider = (*MySQLProvider)(nil)
