package snowflake

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/snowflakedb/gosnowflake"

	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/query"
)

// SnowflakeConnector implements connector.Connector for Snowflake. It is
// meant for loading incident history into a warehouse; Snowflake does not
// enforce PRIMARY KEY constraints, so inserts carry their own guard.
type SnowflakeConnector struct {
	db         *sqlx.DB
	schemaName string
}

// New creates a new SnowflakeConnector with default settings.
func New() connector.Connector {
	return &SnowflakeConnector{schemaName: "PUBLIC"}
}

// Connect establishes a connection to Snowflake. If PrivateKeyPath is set
// the connector authenticates with a key pair (JWT) instead of a password.
func (c *SnowflakeConnector) Connect(cfg connector.ConnectionConfig) error {
	dsn := cfg.DSN

	if cfg.PrivateKeyPath != "" {
		var err error
		dsn, err = buildJWTDSN(cfg.DSN, cfg.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("snowflake jwt auth: %w", err)
		}
	}

	db, err := sqlx.Connect("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("snowflake connect: %w", err)
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
func (c *SnowflakeConnector) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (c *SnowflakeConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying sqlx.DB connection pool.
func (c *SnowflakeConnector) DB() *sqlx.DB {
	return c.db
}

// DriverName returns the driver identifier for Snowflake.
func (c *SnowflakeConnector) DriverName() string { return "snowflake" }

// QuoteIdentifier wraps a SQL identifier in double quotes. Quoted Snowflake
// identifiers are case-sensitive.
func (c *SnowflakeConnector) QuoteIdentifier(name string) string {
	return query.PostgresQuote(name)
}

// ParameterPlaceholder returns "?". Snowflake ignores the index.
func (c *SnowflakeConnector) ParameterPlaceholder(_ int) string {
	return "?"
}

// IsUniqueViolation always reports false: Snowflake never raises duplicate
// key errors. BuildInsert's guarded insert affects zero rows instead.
func (c *SnowflakeConnector) IsUniqueViolation(_ error) bool { return false }

func (c *SnowflakeConnector) qualify(table string) string {
	return c.QuoteIdentifier(c.schemaName) + "." + c.QuoteIdentifier(table)
}
