// Package store is the incident repository behind the Query Service. Every
// operation is a single statement built by the active connector.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/metrics"
	"github.com/crimemap/crimemap/internal/model"
	"github.com/crimemap/crimemap/internal/query"
)

// Store reads and mutates codes, neighborhoods and incidents.
type Store struct {
	conn   connector.Connector
	logger *slog.Logger
}

// New creates a Store over an already connected connector.
func New(conn connector.Connector, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{conn: conn, logger: logger}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Driver returns the connector's driver name.
func (s *Store) Driver() string {
	return s.conn.DriverName()
}

// Migrate creates the tables and indexes when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, def := range tables {
		stmts, err := s.conn.BuildCreateTable(def)
		if err != nil {
			return fmt.Errorf("build schema for %s: %w", def.Name, err)
		}
		for _, stmt := range stmts {
			if _, err := s.conn.DB().ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate %s: %w", def.Name, err)
			}
		}
	}
	s.logger.Debug("schema ready", "driver", s.conn.DriverName(), "tables", len(tables))
	return nil
}

// Tables returns the table names present in the database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	return s.conn.GetTableNames(ctx)
}

// ListCodes returns codes ordered by code, restricted to codes when non-empty.
func (s *Store) ListCodes(ctx context.Context, codes []int) ([]model.Code, error) {
	q := s.conn.QuoteIdentifier
	conds := query.NewConditions(s.conn.ParameterPlaceholder)
	conds.In(q("code"), codes)

	sqlStr, args, err := s.conn.BuildSelect(ctx, connector.SelectRequest{
		Table:      tableCodes,
		Columns:    []string{q("code"), q("incident_type")},
		Filter:     conds.SQL(),
		FilterArgs: conds.Args(),
		Order:      query.BuildOrderSQL([]query.OrderClause{{Column: "code", Direction: "ASC"}}, q),
	})
	if err != nil {
		return nil, fmt.Errorf("build codes query: %w", err)
	}

	out := []model.Code{}
	defer observe("list_codes", time.Now())
	if err := s.conn.DB().SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	return out, nil
}

// ListNeighborhoods returns neighborhoods ordered by number, restricted to
// ids when non-empty.
func (s *Store) ListNeighborhoods(ctx context.Context, ids []int) ([]model.Neighborhood, error) {
	q := s.conn.QuoteIdentifier
	conds := query.NewConditions(s.conn.ParameterPlaceholder)
	conds.In(q("neighborhood_number"), ids)

	sqlStr, args, err := s.conn.BuildSelect(ctx, connector.SelectRequest{
		Table:      tableNeighborhoods,
		Columns:    []string{q("neighborhood_number"), q("neighborhood_name")},
		Filter:     conds.SQL(),
		FilterArgs: conds.Args(),
		Order:      query.BuildOrderSQL([]query.OrderClause{{Column: "neighborhood_number", Direction: "ASC"}}, q),
	})
	if err != nil {
		return nil, fmt.Errorf("build neighborhoods query: %w", err)
	}

	out := []model.Neighborhood{}
	defer observe("list_neighborhoods", time.Now())
	if err := s.conn.DB().SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list neighborhoods: %w", err)
	}
	return out, nil
}

// ListIncidents returns incidents matching f, newest first, capped at the
// filter's effective limit. Date bounds compare against the date part of
// date_time and are inclusive.
func (s *Store) ListIncidents(ctx context.Context, f model.IncidentFilter) ([]model.Incident, error) {
	q := s.conn.QuoteIdentifier
	dateTime := q("date_time")

	conds := query.NewConditions(s.conn.ParameterPlaceholder)
	if f.StartDate != "" {
		conds.Compare(s.conn.FormatDate(dateTime), ">=", f.StartDate)
	}
	if f.EndDate != "" {
		conds.Compare(s.conn.FormatDate(dateTime), "<=", f.EndDate)
	}
	conds.In(q("code"), f.Codes)
	conds.In(q("police_grid"), f.Grids)
	conds.In(q("neighborhood_number"), f.Neighborhoods)

	sqlStr, args, err := s.conn.BuildSelect(ctx, connector.SelectRequest{
		Table: tableIncidents,
		Columns: []string{
			q("case_number"),
			s.conn.FormatDate(dateTime) + " AS " + q("date"),
			s.conn.FormatTime(dateTime) + " AS " + q("time"),
			q("code"),
			q("incident"),
			q("police_grid"),
			q("neighborhood_number"),
			q("block"),
		},
		Filter:     conds.SQL(),
		FilterArgs: conds.Args(),
		Order: query.BuildOrderSQL([]query.OrderClause{
			{Column: "date_time", Direction: "DESC"},
			{Column: "case_number", Direction: "ASC"},
		}, q),
		Limit: f.EffectiveLimit(),
	})
	if err != nil {
		return nil, fmt.Errorf("build incidents query: %w", err)
	}

	out := []model.Incident{}
	defer observe("list_incidents", time.Now())
	if err := s.conn.DB().SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return out, nil
}

// CreateIncident inserts inc in a single statement. A duplicate case number
// yields ErrConflict and leaves the stored row untouched. Date and time are
// joined with a space and handed to the database unvalidated.
func (s *Store) CreateIncident(ctx context.Context, inc model.Incident) error {
	var err error
	if inc.Incident, err = query.SanitizeStringValue(inc.Incident, maxTextLen); err != nil {
		return fmt.Errorf("incident: %w", err)
	}
	if inc.Block, err = query.SanitizeStringValue(inc.Block, maxTextLen); err != nil {
		return fmt.Errorf("block: %w", err)
	}

	sqlStr, args, err := s.conn.BuildInsert(ctx, connector.InsertRequest{
		Table: tableIncidents,
		Columns: []connector.InsertColumn{
			{Name: "case_number", Value: inc.CaseNumber},
			{Name: "date_time", Value: inc.DateTime(), Timestamp: true},
			{Name: "code", Value: inc.Code},
			{Name: "incident", Value: inc.Incident},
			{Name: "police_grid", Value: inc.PoliceGrid},
			{Name: "neighborhood_number", Value: inc.NeighborhoodNumber},
			{Name: "block", Value: inc.Block},
		},
		UniqueColumn: "case_number",
	})
	if err != nil {
		return fmt.Errorf("build incident insert: %w", err)
	}

	defer observe("create_incident", time.Now())
	result, err := s.conn.DB().ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if s.conn.IsUniqueViolation(err) {
			metrics.IncidentMutationsTotal.WithLabelValues("create", "conflict").Inc()
			return fmt.Errorf("case number %s: %w", inc.CaseNumber, ErrConflict)
		}
		metrics.IncidentMutationsTotal.WithLabelValues("create", "error").Inc()
		return fmt.Errorf("insert incident: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert incident rows affected: %w", err)
	}
	if n == 0 {
		metrics.IncidentMutationsTotal.WithLabelValues("create", "conflict").Inc()
		return fmt.Errorf("case number %s: %w", inc.CaseNumber, ErrConflict)
	}

	metrics.IncidentMutationsTotal.WithLabelValues("create", "ok").Inc()
	s.logger.Info("incident created", "case_number", inc.CaseNumber)
	return nil
}

// DeleteIncident removes the incident with caseNumber, or returns
// ErrNotFound when there is none.
func (s *Store) DeleteIncident(ctx context.Context, caseNumber string) error {
	sqlStr, args, err := s.conn.BuildDelete(ctx, connector.DeleteRequest{
		Table:      tableIncidents,
		Filter:     s.conn.QuoteIdentifier("case_number") + " = " + s.conn.ParameterPlaceholder(1),
		FilterArgs: []interface{}{caseNumber},
	})
	if err != nil {
		return fmt.Errorf("build incident delete: %w", err)
	}

	defer observe("delete_incident", time.Now())
	result, err := s.conn.DB().ExecContext(ctx, sqlStr, args...)
	if err != nil {
		metrics.IncidentMutationsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("delete incident: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete incident rows affected: %w", err)
	}
	if n == 0 {
		metrics.IncidentMutationsTotal.WithLabelValues("delete", "not_found").Inc()
		return fmt.Errorf("case number %s: %w", caseNumber, ErrNotFound)
	}

	metrics.IncidentMutationsTotal.WithLabelValues("delete", "ok").Inc()
	s.logger.Info("incident deleted", "case_number", caseNumber)
	return nil
}

func observe(op string, start time.Time) {
	metrics.StoreQueryDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}
