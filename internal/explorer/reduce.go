package explorer

import (
	"github.com/crimemap/crimemap/internal/model"
)

// Reduce returns the state after e. It never mutates s; maps and slices
// that change are copied.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case ToggleCode:
		s.Draft = s.Draft.clone()
		toggle(s.Draft.Codes, e.Code)

	case ToggleNeighborhood:
		s.Draft = s.Draft.clone()
		toggle(s.Draft.Neighborhoods, e.ID)

	case SetDateRange:
		s.Draft = s.Draft.clone()
		s.Draft.StartDate = e.Start
		s.Draft.EndDate = e.End

	case SetLimit:
		s.Draft = s.Draft.clone()
		s.Draft.Limit = model.IncidentFilter{Limit: e.Limit}.EffectiveLimit()

	case SetSearchText:
		s.SearchText = e.Text

	case MapMoved:
		s.Map.Center = e.Center
		if e.Zoom > 0 {
			s.Map.Zoom = e.Zoom
		}

	case IncidentsLoaded:
		s.Applied = e.Filter.clone()
		s.Incidents = append([]model.Incident{}, e.Incidents...)
		s.Map.Markers = buildMarkers(s.Map.Anchors, s.Incidents, s.NeighborhoodNames, s.Map.Radii)
		s.Notice = ""

	case ReferenceLoaded:
		s.CodeLabels = make(map[int]string, len(e.Codes))
		for _, c := range e.Codes {
			s.CodeLabels[c.Code] = c.Type
		}
		s.NeighborhoodNames = make(map[int]string, len(e.Neighborhoods))
		for _, n := range e.Neighborhoods {
			s.NeighborhoodNames[n.ID] = n.Name
		}
		s.Map.Markers = buildMarkers(s.Map.Anchors, s.Incidents, s.NeighborhoodNames, s.Map.Radii)
		s.Notice = ""

	case PlaceFound:
		s.Map.Center = e.Location
		s.PlaceLabel = e.Location.Label
		s.Notice = ""

	case PlaceLabeled:
		s.PlaceLabel = e.Label

	case IncidentLocated:
		m := e.Marker
		s.Map.Pinned = &m
		s.Map.Center = m.Location
		s.Notice = ""

	case Failed:
		s.Notice = e.Notice
	}
	return s
}

func toggle(set map[int]struct{}, k int) {
	if _, ok := set[k]; ok {
		delete(set, k)
		return
	}
	set[k] = struct{}{}
}
