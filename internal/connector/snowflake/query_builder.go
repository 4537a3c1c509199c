package snowflake

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimemap/crimemap/internal/connector"
)

// BuildSelect constructs a schema-qualified SELECT with ? placeholders.
func (c *SnowflakeConnector) BuildSelect(_ context.Context, req connector.SelectRequest) (string, []interface{}, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}

	var b strings.Builder
	args := append([]interface{}{}, req.FilterArgs...)

	b.WriteString("SELECT ")
	if len(req.Columns) > 0 {
		b.WriteString(strings.Join(req.Columns, ", "))
	} else {
		b.WriteString("*")
	}
	b.WriteString(" FROM ")
	b.WriteString(c.qualify(req.Table))

	if req.Filter != "" {
		b.WriteString(" WHERE ")
		b.WriteString(req.Filter)
	}
	if req.Order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(req.Order)
	}
	if req.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, req.Limit)
	}

	return b.String(), args, nil
}

// BuildInsert constructs a single-row INSERT. When UniqueColumn is set the
// row is inserted only if no row with the same key exists, in one statement;
// a duplicate then affects zero rows.
func (c *SnowflakeConnector) BuildInsert(_ context.Context, req connector.InsertRequest) (string, []interface{}, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	if len(req.Columns) == 0 {
		return "", nil, fmt.Errorf("at least one column is required")
	}

	table := c.qualify(req.Table)
	cols := make([]string, len(req.Columns))
	vals := make([]string, len(req.Columns))
	args := make([]interface{}, len(req.Columns))
	var key interface{}
	keyFound := false
	for i, col := range req.Columns {
		cols[i] = c.QuoteIdentifier(col.Name)
		vals[i] = "?"
		if col.Timestamp {
			vals[i] = c.CastTimestamp("?")
		}
		args[i] = col.Value
		if col.Name == req.UniqueColumn {
			key, keyFound = col.Value, true
		}
	}

	if req.UniqueColumn == "" {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(vals, ", ")), args, nil
	}
	if !keyFound {
		return "", nil, fmt.Errorf("unique column %q not among inserted columns", req.UniqueColumn)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s = ?)",
		table, strings.Join(cols, ", "), strings.Join(vals, ", "), table, c.QuoteIdentifier(req.UniqueColumn))
	return query, append(args, key), nil
}

// BuildDelete constructs a filtered DELETE.
func (c *SnowflakeConnector) BuildDelete(_ context.Context, req connector.DeleteRequest) (string, []interface{}, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	if req.Filter == "" {
		return "", nil, fmt.Errorf("filter required for delete (refusing to delete all rows)")
	}
	return "DELETE FROM " + c.qualify(req.Table) + " WHERE " + req.Filter, req.FilterArgs, nil
}

// FormatDate renders the date part of a timestamp as YYYY-MM-DD.
func (c *SnowflakeConnector) FormatDate(expr string) string {
	return "TO_CHAR(" + expr + ", 'YYYY-MM-DD')"
}

// FormatTime renders the time part of a timestamp as HH:MM:SS.
func (c *SnowflakeConnector) FormatTime(expr string) string {
	return "TO_CHAR(" + expr + ", 'HH24:MI:SS')"
}

// CastTimestamp converts a text parameter to TIMESTAMP_NTZ.
func (c *SnowflakeConnector) CastTimestamp(placeholder string) string {
	return "TO_TIMESTAMP_NTZ(" + placeholder + ")"
}
