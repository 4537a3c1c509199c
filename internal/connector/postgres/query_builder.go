package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimemap/crimemap/internal/connector"
)

// BuildSelect constructs a schema-qualified SELECT. The LIMIT placeholder
// is numbered after the filter arguments.
func (c *PostgresConnector) BuildSelect(_ context.Context, req connector.SelectRequest) (string, []interface{}, error) {
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
		args = append(args, req.Limit)
		b.WriteString(" LIMIT " + c.ParameterPlaceholder(len(args)))
	}

	return b.String(), args, nil
}

// BuildInsert constructs a single-row INSERT with $n placeholders.
func (c *PostgresConnector) BuildInsert(_ context.Context, req connector.InsertRequest) (string, []interface{}, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	if len(req.Columns) == 0 {
		return "", nil, fmt.Errorf("at least one column is required")
	}

	cols := make([]string, len(req.Columns))
	vals := make([]string, len(req.Columns))
	args := make([]interface{}, len(req.Columns))
	for i, col := range req.Columns {
		cols[i] = c.QuoteIdentifier(col.Name)
		vals[i] = c.ParameterPlaceholder(i + 1)
		if col.Timestamp {
			vals[i] = c.CastTimestamp(vals[i])
		}
		args[i] = col.Value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.qualify(req.Table), strings.Join(cols, ", "), strings.Join(vals, ", "))
	return query, args, nil
}

// BuildDelete constructs a filtered DELETE.
func (c *PostgresConnector) BuildDelete(_ context.Context, req connector.DeleteRequest) (string, []interface{}, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	if req.Filter == "" {
		return "", nil, fmt.Errorf("filter required for delete (refusing to delete all rows)")
	}
	return "DELETE FROM " + c.qualify(req.Table) + " WHERE " + req.Filter, req.FilterArgs, nil
}

// FormatDate renders the date part of a timestamp as YYYY-MM-DD.
func (c *PostgresConnector) FormatDate(expr string) string {
	return "to_char(" + expr + ", 'YYYY-MM-DD')"
}

// FormatTime renders the time part of a timestamp as HH:MM:SS.
func (c *PostgresConnector) FormatTime(expr string) string {
	return "to_char(" + expr + ", 'HH24:MI:SS')"
}

// CastTimestamp converts a text parameter to TIMESTAMP.
func (c *PostgresConnector) CastTimestamp(placeholder string) string {
	return "CAST(" + placeholder + " AS TIMESTAMP)"
}
