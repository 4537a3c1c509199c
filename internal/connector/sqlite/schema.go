package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimemap/crimemap/internal/connector"
)

// GetTableNames returns a list of all table names in the database.
func (c *SQLiteConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// BuildCreateTable returns idempotent DDL for def and its indexes.
func (c *SQLiteConnector) BuildCreateTable(def connector.TableDef) ([]string, error) {
	if def.Name == "" || len(def.Columns) == 0 {
		return nil, fmt.Errorf("table name and columns are required")
	}

	cols := make([]string, len(def.Columns))
	for i, col := range def.Columns {
		cols[i] = c.QuoteIdentifier(col.Name) + " " + columnType(col.Type) + " NOT NULL"
		if col.PrimaryKey {
			cols[i] += " PRIMARY KEY"
		}
	}

	stmts := []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		c.QuoteIdentifier(def.Name), strings.Join(cols, ", "))}
	for _, idx := range def.Indexes {
		quoted := make([]string, len(idx.Columns))
		for i, col := range idx.Columns {
			quoted[i] = c.QuoteIdentifier(col)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			c.QuoteIdentifier(idx.Name), c.QuoteIdentifier(def.Name), strings.Join(quoted, ", ")))
	}
	return stmts, nil
}

func columnType(t connector.ColumnType) string {
	switch t {
	case connector.TypeInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
