package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PlaceholderFunc returns the dialect placeholder for the 1-based parameter
// index (e.g. "?", "$3", "@p3").
type PlaceholderFunc func(index int) string

// SplitList splits a comma-separated parameter, trimming whitespace and
// dropping empty items. An empty input yields nil.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseIntList parses a comma-separated list of integers such as "110, 210".
func ParseIntList(raw string) ([]int, error) {
	items := SplitList(raw)
	if items == nil {
		return nil, nil
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", item)
		}
		out[i] = n
	}
	return out, nil
}

// dateLayout is the only accepted date filter format.
const dateLayout = "2006-01-02"

// ParseDate checks that raw is an empty string or a YYYY-MM-DD calendar
// date, so it compares correctly against stored dates as text.
func ParseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return raw, nil
}

// ParseLimit parses a row cap. Missing, non-numeric and non-positive values
// fall back to defaultVal instead of failing.
func ParseLimit(raw string, defaultVal int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

// Conditions accumulates AND-ed WHERE predicates together with their
// arguments, numbering placeholders as it goes.
type Conditions struct {
	ph      PlaceholderFunc
	clauses []string
	args    []interface{}
}

// NewConditions creates an empty predicate list for the given dialect.
func NewConditions(ph PlaceholderFunc) *Conditions {
	return &Conditions{ph: ph}
}

// Compare adds "expr op ?" bound to val.
func (c *Conditions) Compare(expr, op string, val interface{}) {
	c.args = append(c.args, val)
	c.clauses = append(c.clauses, expr+" "+op+" "+c.ph(len(c.args)))
}

// In adds "expr IN (?, ?, ...)" with one placeholder per value. An empty
// value list adds nothing, which leaves the column unrestricted.
func (c *Conditions) In(expr string, vals []int) {
	if len(vals) == 0 {
		return
	}
	placeholders := make([]string, len(vals))
	for i, v := range vals {
		c.args = append(c.args, v)
		placeholders[i] = c.ph(len(c.args))
	}
	c.clauses = append(c.clauses, fmt.Sprintf("%s IN (%s)", expr, strings.Join(placeholders, ", ")))
}

// SQL returns the predicates joined with AND, or "" when there are none.
func (c *Conditions) SQL() string {
	return strings.Join(c.clauses, " AND ")
}

// Args returns the bound values in placeholder order.
func (c *Conditions) Args() []interface{} {
	return c.args
}

// OrderClause represents a single column ordering directive.
type OrderClause struct {
	Column    string // Validated column name.
	Direction string // "ASC" or "DESC".
}

// BuildOrderSQL builds the body of an ORDER BY clause (without the keyword),
// applying quoteFn to each column.
func BuildOrderSQL(clauses []OrderClause, quoteFn func(string) string) string {
	if len(clauses) == 0 {
		return ""
	}
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = quoteFn(c.Column) + " " + c.Direction
	}
	return strings.Join(parts, ", ")
}

// QuestionMark is the placeholder style shared by SQLite, MySQL and Snowflake.
func QuestionMark(_ int) string { return "?" }

// PostgresQuote returns a PostgreSQL-style double-quoted identifier.
func PostgresQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// MySQLQuote returns a MySQL-style backtick-quoted identifier.
func MySQLQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// SQLServerQuote returns a SQL Server-style bracket-quoted identifier.
func SQLServerQuote(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
