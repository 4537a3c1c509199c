package store

import (
	"context"
	"fmt"

	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/model"
)

// DefaultNeighborhoods are the seventeen Saint Paul district councils.
var DefaultNeighborhoods = []model.Neighborhood{
	{ID: 1, Name: "Conway/Battlecreek/Highwood"},
	{ID: 2, Name: "Greater East Side"},
	{ID: 3, Name: "West Side"},
	{ID: 4, Name: "Dayton's Bluff"},
	{ID: 5, Name: "Payne/Phalen"},
	{ID: 6, Name: "North End"},
	{ID: 7, Name: "Thomas/Dale/Frogtown"},
	{ID: 8, Name: "Summit/University"},
	{ID: 9, Name: "West Seventh"},
	{ID: 10, Name: "Como"},
	{ID: 11, Name: "Hamline/Midway"},
	{ID: 12, Name: "St. Anthony"},
	{ID: 13, Name: "Union Park"},
	{ID: 14, Name: "Macalester-Groveland"},
	{ID: 15, Name: "Highland"},
	{ID: 16, Name: "Summit Hill"},
	{ID: 17, Name: "Capitol River"},
}

// DefaultCodes is the standard incident classification table.
var DefaultCodes = []model.Code{
	{Code: 110, Type: "Murder, Non Negligent Manslaughter"},
	{Code: 120, Type: "Murder, Manslaughter By Negligence"},
	{Code: 210, Type: "Rape, By Force"},
	{Code: 220, Type: "Rape, Attempt"},
	{Code: 300, Type: "Robbery"},
	{Code: 311, Type: "Robbery, Highway, Firearm"},
	{Code: 400, Type: "Aggravated Assault"},
	{Code: 410, Type: "Aggravated Assault, Firearm"},
	{Code: 500, Type: "Burglary"},
	{Code: 510, Type: "Burglary, Forced Entry, Night, Residence"},
	{Code: 600, Type: "Theft"},
	{Code: 610, Type: "Theft, Pocket-Picking"},
	{Code: 700, Type: "Motor Vehicle Theft"},
	{Code: 710, Type: "Theft, Auto"},
	{Code: 810, Type: "Simple Assault, Domestic"},
	{Code: 900, Type: "Arson"},
	{Code: 1400, Type: "Vandalism"},
	{Code: 1800, Type: "Narcotics"},
	{Code: 2619, Type: "Weapons"},
	{Code: 9954, Type: "Proactive Police Visit"},
	{Code: 9959, Type: "Community Engagement Event"},
}

// Seed inserts the default codes and neighborhoods that are not already
// present and returns how many rows were added. Running it twice is a no-op.
func (s *Store) Seed(ctx context.Context) (int, error) {
	added := 0
	for _, c := range DefaultCodes {
		ok, err := s.insertIfMissing(ctx, tableCodes, "code", []connector.InsertColumn{
			{Name: "code", Value: c.Code},
			{Name: "incident_type", Value: c.Type},
		})
		if err != nil {
			return added, fmt.Errorf("seed code %d: %w", c.Code, err)
		}
		if ok {
			added++
		}
	}
	for _, n := range DefaultNeighborhoods {
		ok, err := s.insertIfMissing(ctx, tableNeighborhoods, "neighborhood_number", []connector.InsertColumn{
			{Name: "neighborhood_number", Value: n.ID},
			{Name: "neighborhood_name", Value: n.Name},
		})
		if err != nil {
			return added, fmt.Errorf("seed neighborhood %d: %w", n.ID, err)
		}
		if ok {
			added++
		}
	}
	s.logger.Info("reference data seeded", "added", added)
	return added, nil
}

func (s *Store) insertIfMissing(ctx context.Context, table, key string, cols []connector.InsertColumn) (bool, error) {
	sqlStr, args, err := s.conn.BuildInsert(ctx, connector.InsertRequest{
		Table:        table,
		Columns:      cols,
		UniqueColumn: key,
	})
	if err != nil {
		return false, err
	}
	result, err := s.conn.DB().ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if s.conn.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
