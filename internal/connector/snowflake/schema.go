package snowflake

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimemap/crimemap/internal/connector"
)

// GetTableNames returns a list of all table names in the configured schema.
func (c *SnowflakeConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// BuildCreateTable returns idempotent DDL for def. Snowflake standard tables
// have no secondary indexes, so def.Indexes is ignored.
func (c *SnowflakeConnector) BuildCreateTable(def connector.TableDef) ([]string, error) {
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
	return []string{fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		c.qualify(def.Name), strings.Join(cols, ", "))}, nil
}

func columnType(t connector.ColumnType) string {
	switch t {
	case connector.TypeInteger:
		return "INTEGER"
	case connector.TypeKey:
		return "VARCHAR(64)"
	case connector.TypeTimestamp:
		return "TIMESTAMP_NTZ"
	default:
		return "VARCHAR"
	}
}
