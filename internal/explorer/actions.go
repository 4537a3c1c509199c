package explorer

import (
	"github.com/crimemap/crimemap/internal/geocode"
	"github.com/crimemap/crimemap/internal/model"
)

// Action is a user intent handed to App.Dispatch.
type Action interface{ action() }

// Event is a state change applied by Reduce. Actions that need no side
// effects are events too.
type Event interface{ event() }

// ToggleCode adds or removes a code from the draft filter.
type ToggleCode struct{ Code int }

// ToggleNeighborhood adds or removes a neighborhood from the draft filter.
type ToggleNeighborhood struct{ ID int }

// SetDateRange sets the draft date bounds (YYYY-MM-DD, empty = open).
type SetDateRange struct{ Start, End string }

// SetLimit sets the draft row cap; non-positive means the default.
type SetLimit struct{ Limit int }

// SetSearchText records what the user typed in the place search box.
type SetSearchText struct{ Text string }

// ApplyFilters fetches incidents for the draft filter.
type ApplyFilters struct{}

// Search forward-geocodes SearchText and recenters the map.
type Search struct{}

// MapMoved records a pan or zoom. The place label is refreshed by a
// debounced reverse lookup.
type MapMoved struct {
	Center geocode.Location
	Zoom   int
}

// SelectIncident locates an incident of the current list and pins it.
type SelectIncident struct{ CaseNumber string }

// CreateIncident submits a new incident and refreshes the list.
type CreateIncident struct{ Incident model.Incident }

// DeleteIncident removes an incident and refreshes the list.
type DeleteIncident struct{ CaseNumber string }

// LoadReference fetches code and neighborhood labels, then the incidents
// for the applied filter.
type LoadReference struct{}

func (ToggleCode) action()         {}
func (ToggleNeighborhood) action() {}
func (SetDateRange) action()       {}
func (SetLimit) action()           {}
func (SetSearchText) action()      {}
func (ApplyFilters) action()       {}
func (Search) action()             {}
func (MapMoved) action()           {}
func (SelectIncident) action()     {}
func (CreateIncident) action()     {}
func (DeleteIncident) action()     {}
func (LoadReference) action()      {}

func (ToggleCode) event()         {}
func (ToggleNeighborhood) event() {}
func (SetDateRange) event()       {}
func (SetLimit) event()           {}
func (SetSearchText) event()      {}
func (MapMoved) event()           {}

// IncidentsLoaded commits a successful fetch for Filter.
type IncidentsLoaded struct {
	Filter    Filter
	Incidents []model.Incident
}

// ReferenceLoaded commits code and neighborhood labels.
type ReferenceLoaded struct {
	Codes         []model.Code
	Neighborhoods []model.Neighborhood
}

// PlaceFound recenters the map on a searched place.
type PlaceFound struct{ Location geocode.Location }

// PlaceLabeled sets the label of the current map center.
type PlaceLabeled struct{ Label string }

// IncidentLocated pins an incident and recenters on it.
type IncidentLocated struct{ Marker Marker }

// Failed records a failure; nothing else changes.
type Failed struct{ Notice string }

func (IncidentsLoaded) event() {}
func (ReferenceLoaded) event() {}
func (PlaceFound) event()      {}
func (PlaceLabeled) event()    {}
func (IncidentLocated) event() {}
func (Failed) event()          {}
