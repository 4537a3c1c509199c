package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/query"
)

// erDupEntry is the MySQL error number for a duplicate key.
const erDupEntry = 1062

// MySQLConnector implements connector.Connector for MySQL databases.
type MySQLConnector struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new MySQLConnector with default settings.
func New() connector.Connector {
	return &MySQLConnector{}
}

// Connect establishes a connection to the MySQL database using the provided
// configuration. Without an explicit schema the current database is used.
func (c *MySQLConnector) Connect(cfg connector.ConnectionConfig) error {
	db, err := sqlx.Connect("mysql", cfg.DSN)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if cfg.SchemaName != "" {
		c.schemaName = cfg.SchemaName
	}
	if c.schemaName == "" {
		var dbName string
		if err := db.Get(&dbName, "SELECT DATABASE()"); err == nil && dbName != "" {
			c.schemaName = dbName
		}
	}

	c.db = db
	return nil
}

// Disconnect closes the database connection pool.
func (c *MySQLConnector) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *MySQLConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *MySQLConnector) DB() *sqlx.DB {
	return c.db
}

// DriverName returns the driver identifier for MySQL.
func (c *MySQLConnector) DriverName() string { return "mysql" }

// QuoteIdentifier wraps a SQL identifier in backticks, escaping any
// embedded backticks.
func (c *MySQLConnector) QuoteIdentifier(name string) string {
	return query.MySQLQuote(name)
}

// ParameterPlaceholder returns "?". MySQL ignores the index.
func (c *MySQLConnector) ParameterPlaceholder(_ int) string {
	return "?"
}

// IsUniqueViolation reports whether err is ER_DUP_ENTRY.
func (c *MySQLConnector) IsUniqueViolation(err error) bool {
	var myErr *mysqldriver.MySQLError
	return errors.As(err, &myErr) && myErr.Number == erDupEntry
}

func (c *MySQLConnector) qualify(table string) string {
	if c.schemaName == "" {
		return c.QuoteIdentifier(table)
	}
	return c.QuoteIdentifier(c.schemaName) + "." + c.QuoteIdentifier(table)
}
