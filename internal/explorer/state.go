// Package explorer holds the map client's application state and its update
// cycle. Reduce is a pure function from (State, Event) to State; App owns a
// State, runs the side effects each Action needs (Query Service calls,
// geocoding) and commits the resulting events through Reduce.
package explorer

import (
	"sort"

	"github.com/crimemap/crimemap/internal/geocode"
	"github.com/crimemap/crimemap/internal/model"
)

// Filter is an incident selection as the user edits it. Code and
// neighborhood selections are sets, so toggle order does not matter.
type Filter struct {
	StartDate     string
	EndDate       string
	Codes         map[int]struct{}
	Neighborhoods map[int]struct{}
	Limit         int
}

// NewFilter returns an unrestricted filter with the default limit.
func NewFilter() Filter {
	return Filter{
		Codes:         map[int]struct{}{},
		Neighborhoods: map[int]struct{}{},
		Limit:         model.DefaultIncidentLimit,
	}
}

// Query converts f to the wire filter with sorted lists.
func (f Filter) Query() model.IncidentFilter {
	return model.IncidentFilter{
		StartDate:     f.StartDate,
		EndDate:       f.EndDate,
		Codes:         sortedKeys(f.Codes),
		Neighborhoods: sortedKeys(f.Neighborhoods),
		Limit:         f.Limit,
	}
}

// Equal reports whether f and o select the same incidents.
func (f Filter) Equal(o Filter) bool {
	if f.StartDate != o.StartDate || f.EndDate != o.EndDate || f.Limit != o.Limit {
		return false
	}
	return sameSet(f.Codes, o.Codes) && sameSet(f.Neighborhoods, o.Neighborhoods)
}

func (f Filter) clone() Filter {
	out := f
	out.Codes = cloneSet(f.Codes)
	out.Neighborhoods = cloneSet(f.Neighborhoods)
	return out
}

// Marker is a circle or pin on the map.
type Marker struct {
	Location geocode.Location
	Label    string
	Count    int
	Radius   float64
}

// RadiusRange bounds neighborhood marker radii. Min must be positive.
type RadiusRange struct {
	Min float64
	Max float64
}

// MapView is what the map shows.
type MapView struct {
	Center geocode.Location
	Zoom   int
	// Anchors are the fixed neighborhood marker positions.
	Anchors map[int]geocode.Location
	Radii   RadiusRange
	// Markers holds one marker per anchor, sized by incident count.
	Markers map[int]Marker
	// Pinned is the incident located by the last SelectIncident.
	Pinned *Marker
}

// State is the whole client state.
type State struct {
	Draft   Filter
	Applied Filter

	Incidents         []model.Incident
	CodeLabels        map[int]string
	NeighborhoodNames map[int]string

	Map MapView

	// SearchText is what the user typed; PlaceLabel is what the geocoder
	// called the current map center. Resolving never overwrites SearchText.
	SearchText string
	PlaceLabel string

	// Notice is the last failure message, cleared by the next success.
	Notice string
}

// DefaultCenter is downtown Saint Paul.
var DefaultCenter = geocode.Location{Lat: 44.9537, Lon: -93.0900}

// DefaultZoom shows the whole city.
const DefaultZoom = 12

// DefaultRadii are the marker bounds used when none are configured.
var DefaultRadii = RadiusRange{Min: 6, Max: 30}

// NewState returns the initial state: unrestricted filters, no incidents,
// and a zero-count marker on every anchor.
func NewState(anchors map[int]geocode.Location, radii RadiusRange) State {
	if radii.Min <= 0 || radii.Max < radii.Min {
		radii = DefaultRadii
	}
	s := State{
		Draft:             NewFilter(),
		Applied:           NewFilter(),
		Incidents:         []model.Incident{},
		CodeLabels:        map[int]string{},
		NeighborhoodNames: map[int]string{},
		Map: MapView{
			Center:  DefaultCenter,
			Zoom:    DefaultZoom,
			Anchors: anchors,
			Radii:   radii,
		},
	}
	s.Map.Markers = buildMarkers(s.Map.Anchors, s.Incidents, s.NeighborhoodNames, s.Map.Radii)
	return s
}

// CodeLabel returns the label for code, or "" when unknown.
func (s State) CodeLabel(code int) string {
	return s.CodeLabels[code]
}

func sortedKeys(set map[int]struct{}) []int {
	if len(set) == 0 {
		return nil
	}
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func cloneSet(set map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}

func sameSet(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
