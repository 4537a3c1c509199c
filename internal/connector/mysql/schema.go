package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimemap/crimemap/internal/connector"
)

// GetTableNames returns a list of all table names in the configured schema.
func (c *MySQLConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// BuildCreateTable returns idempotent DDL for def. MySQL has no
// CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
func (c *MySQLConnector) BuildCreateTable(def connector.TableDef) ([]string, error) {
	if def.Name == "" || len(def.Columns) == 0 {
		return nil, fmt.Errorf("table name and columns are required")
	}

	parts := make([]string, 0, len(def.Columns)+len(def.Indexes))
	for _, col := range def.Columns {
		p := c.QuoteIdentifier(col.Name) + " " + columnType(col.Type) + " NOT NULL"
		if col.PrimaryKey {
			p += " PRIMARY KEY"
		}
		parts = append(parts, p)
	}
	for _, idx := range def.Indexes {
		quoted := make([]string, len(idx.Columns))
		for i, col := range idx.Columns {
			quoted[i] = c.QuoteIdentifier(col)
		}
		parts = append(parts, "INDEX "+c.QuoteIdentifier(idx.Name)+" ("+strings.Join(quoted, ", ")+")")
	}

	return []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		c.qualify(def.Name), strings.Join(parts, ", "))}, nil
}

func columnType(t connector.ColumnType) string {
	switch t {
	case connector.TypeInteger:
		return "INT"
	case connector.TypeKey:
		return "VARCHAR(64)"
	case connector.TypeTimestamp:
		return "DATETIME"
	default:
		return "TEXT"
	}
}
