package mssql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	mssqldriver "github.com/microsoft/go-mssqldb"

	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/query"
)

// SQL Server error numbers for duplicate keys: PRIMARY KEY / UNIQUE
// constraint (2627) and unique index (2601).
const (
	errUniqueConstraint = 2627
	errUniqueIndex      = 2601
)

// MSSQLConnector implements connector.Connector for SQL Server databases.
type MSSQLConnector struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new MSSQLConnector with default settings.
func New() connector.Connector {
	return &MSSQLConnector{schemaName: "dbo"}
}

// Connect establishes a connection to the SQL Server database using the
// provided configuration and applies the pool settings.
func (c *MSSQLConnector) Connect(cfg connector.ConnectionConfig) error {
	db, err := sqlx.Connect("sqlserver", cfg.DSN)
	if err != nil {
		return fmt.Errorf("mssql connect: %w", err)
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

	c.db = db
	return nil
}

// Disconnect closes the database connection pool.
func (c *MSSQLConnector) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *MSSQLConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *MSSQLConnector) DB() *sqlx.DB {
	return c.db
}

// DriverName returns the driver identifier for SQL Server.
func (c *MSSQLConnector) DriverName() string { return "mssql" }

// QuoteIdentifier wraps a SQL identifier in brackets, escaping any
// embedded closing brackets.
func (c *MSSQLConnector) QuoteIdentifier(name string) string {
	return query.SQLServerQuote(name)
}

// ParameterPlaceholder returns a SQL Server-style numbered parameter
// placeholder (e.g., @p1, @p2, @p3).
func (c *MSSQLConnector) ParameterPlaceholder(index int) string {
	return fmt.Sprintf("@p%d", index)
}

// IsUniqueViolation reports whether err is a duplicate key error.
func (c *MSSQLConnector) IsUniqueViolation(err error) bool {
	var msErr mssqldriver.Error
	if !errors.As(err, &msErr) {
		return false
	}
	return msErr.Number == errUniqueConstraint || msErr.Number == errUniqueIndex
}

func (c *MSSQLConnector) qualify(table string) string {
	return c.QuoteIdentifier(c.schemaName) + "." + c.QuoteIdentifier(table)
}
