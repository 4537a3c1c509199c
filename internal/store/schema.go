package store

import "github.com/crimemap/crimemap/internal/connector"

const (
	tableCodes         = "codes"
	tableNeighborhoods = "neighborhoods"
	tableIncidents     = "incidents"

	// maxTextLen caps the free-text incident and block columns.
	maxTextLen = 1024
)

// tables lists the schema in creation order. There are no foreign keys:
// incidents may reference codes and neighborhoods that do not exist.
var tables = []connector.TableDef{
	{
		Name: tableCodes,
		Columns: []connector.ColumnDef{
			{Name: "code", Type: connector.TypeInteger, PrimaryKey: true},
			{Name: "incident_type", Type: connector.TypeText},
		},
	},
	{
		Name: tableNeighborhoods,
		Columns: []connector.ColumnDef{
			{Name: "neighborhood_number", Type: connector.TypeInteger, PrimaryKey: true},
			{Name: "neighborhood_name", Type: connector.TypeText},
		},
	},
	{
		Name: tableIncidents,
		Columns: []connector.ColumnDef{
			{Name: "case_number", Type: connector.TypeKey, PrimaryKey: true},
			{Name: "date_time", Type: connector.TypeTimestamp},
			{Name: "code", Type: connector.TypeInteger},
			{Name: "incident", Type: connector.TypeText},
			{Name: "police_grid", Type: connector.TypeInteger},
			{Name: "neighborhood_number", Type: connector.TypeInteger},
			{Name: "block", Type: connector.TypeText},
		},
		Indexes: []connector.IndexDef{
			{Name: "idx_incidents_date_time", Columns: []string{"date_time"}},
		},
	},
}
