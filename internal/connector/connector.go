// Package connector abstracts the SQL dialects the incident store can run on.
// Each dialect package builds its own SELECT/INSERT/DELETE text, DDL and
// date formatting expressions; the store only ever composes their output.
package connector

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// SelectRequest describes a single-table read.
type SelectRequest struct {
	Table      string
	Columns    []string // SQL expressions, already quoted by the caller
	Filter     string   // WHERE body using placeholders 1..len(FilterArgs)
	FilterArgs []interface{}
	Order      string // ORDER BY body
	Limit      int    // 0 means unlimited
}

// InsertColumn is one column value of a single-row insert.
type InsertColumn struct {
	Name      string
	Value     interface{}
	Timestamp bool // wrap the placeholder in the dialect's timestamp cast
}

// InsertRequest describes a single-row insert. UniqueColumn names the key
// column for dialects that cannot enforce a primary key and must guard the
// insert themselves.
type InsertRequest struct {
	Table        string
	Columns      []InsertColumn
	UniqueColumn string
}

// DeleteRequest describes a filtered delete. An empty filter is rejected.
type DeleteRequest struct {
	Table      string
	Filter     string
	FilterArgs []interface{}
}

// ColumnType is the portable column type used in table definitions.
type ColumnType int

const (
	TypeInteger ColumnType = iota
	TypeText
	TypeKey // short text usable as a primary key on every dialect
	TypeTimestamp
)

// ColumnDef is one column of a TableDef.
type ColumnDef struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
}

// IndexDef is a secondary index on a TableDef.
type IndexDef struct {
	Name    string
	Columns []string
}

// TableDef is a dialect-neutral table definition.
type TableDef struct {
	Name    string
	Columns []ColumnDef
	Indexes []IndexDef
}

// ConnectionConfig holds database connection parameters.
type ConnectionConfig struct {
	Driver          string
	DSN             string
	SchemaName      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PrivateKeyPath  string // PEM-encoded private key file (Snowflake JWT auth)
}

// Connector is the interface that all database connectors must implement.
type Connector interface {
	// Connection management
	Connect(cfg ConnectionConfig) error
	Disconnect() error
	Ping(ctx context.Context) error
	DB() *sqlx.DB

	// Schema
	GetTableNames(ctx context.Context) ([]string, error)
	BuildCreateTable(def TableDef) ([]string, error)

	// Query building (database-specific SQL dialect)
	BuildSelect(ctx context.Context, req SelectRequest) (string, []interface{}, error)
	BuildInsert(ctx context.Context, req InsertRequest) (string, []interface{}, error)
	BuildDelete(ctx context.Context, req DeleteRequest) (string, []interface{}, error)

	// Dialect expressions
	FormatDate(expr string) string
	FormatTime(expr string) string
	CastTimestamp(placeholder string) string

	// Metadata
	DriverName() string
	QuoteIdentifier(name string) string
	ParameterPlaceholder(index int) string
	IsUniqueViolation(err error) bool
}
