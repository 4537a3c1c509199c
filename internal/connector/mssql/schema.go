package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimemap/crimemap/internal/connector"
)

// GetTableNames returns a list of all table names in the configured schema.
func (c *MSSQLConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// BuildCreateTable returns DDL for def guarded by existence checks, since
// SQL Server has no IF NOT EXISTS clause on CREATE TABLE or CREATE INDEX.
func (c *MSSQLConnector) BuildCreateTable(def connector.TableDef) ([]string, error) {
	if def.Name == "" || len(def.Columns) == 0 {
		return nil, fmt.Errorf("table name and columns are required")
	}

	table := c.qualify(def.Name)
	cols := make([]string, len(def.Columns))
	for i, col := range def.Columns {
		cols[i] = c.QuoteIdentifier(col.Name) + " " + columnType(col.Type) + " NOT NULL"
		if col.PrimaryKey {
			cols[i] += " PRIMARY KEY"
		}
	}

	stmts := []string{fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		table, table, strings.Join(cols, ", "))}
	for _, idx := range def.Indexes {
		quoted := make([]string, len(idx.Columns))
		for i, col := range idx.Columns {
			quoted[i] = c.QuoteIdentifier(col)
		}
		stmts = append(stmts, fmt.Sprintf(
			"IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s' AND object_id = OBJECT_ID(N'%s')) CREATE INDEX %s ON %s (%s)",
			idx.Name, table, c.QuoteIdentifier(idx.Name), table, strings.Join(quoted, ", ")))
	}
	return stmts, nil
}

func columnType(t connector.ColumnType) string {
	switch t {
	case connector.TypeInteger:
		return "INT"
	case connector.TypeKey:
		return "NVARCHAR(64)"
	case connector.TypeTimestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}
