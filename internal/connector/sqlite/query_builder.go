package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimemap/crimemap/internal/connector"
)

// BuildSelect constructs a SELECT query from the given request.
// SQLite uses double-quote identifier quoting and ? parameter placeholders.
func (c *SQLiteConnector) BuildSelect(_ context.Context, req connector.SelectRequest) (string, []interface{}, error) {
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

	// SQLite doesn't use schema-qualified names for the main db.
	b.WriteString(" FROM ")
	b.WriteString(c.QuoteIdentifier(req.Table))

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

// BuildInsert constructs a single-row INSERT. Duplicate keys are rejected
// by the table's PRIMARY KEY.
func (c *SQLiteConnector) BuildInsert(_ context.Context, req connector.InsertRequest) (string, []interface{}, error) {
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
		vals[i] = "?"
		if col.Timestamp {
			vals[i] = c.CastTimestamp("?")
		}
		args[i] = col.Value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.QuoteIdentifier(req.Table), strings.Join(cols, ", "), strings.Join(vals, ", "))
	return query, args, nil
}

// BuildDelete constructs a filtered DELETE.
func (c *SQLiteConnector) BuildDelete(_ context.Context, req connector.DeleteRequest) (string, []interface{}, error) {
	if req.Table == "" {
		return "", nil, fmt.Errorf("table name is required")
	}
	if req.Filter == "" {
		return "", nil, fmt.Errorf("filter required for delete (refusing to delete all rows)")
	}
	query := "DELETE FROM " + c.QuoteIdentifier(req.Table) + " WHERE " + req.Filter
	return query, req.FilterArgs, nil
}

// FormatDate renders the date part of a timestamp as YYYY-MM-DD.
func (c *SQLiteConnector) FormatDate(expr string) string {
	return "date(" + expr + ")"
}

// FormatTime renders the time part of a timestamp as HH:MM:SS.
func (c *SQLiteConnector) FormatTime(expr string) string {
	return "time(" + expr + ")"
}

// CastTimestamp normalizes the bound value to "YYYY-MM-DD HH:MM:SS" text.
// Unparsable input becomes NULL, which the NOT NULL column rejects.
func (c *SQLiteConnector) CastTimestamp(placeholder string) string {
	return "datetime(" + placeholder + ")"
}
