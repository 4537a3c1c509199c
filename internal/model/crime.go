package model

// DefaultIncidentLimit caps the incident list when the caller supplies no
// usable limit.
const DefaultIncidentLimit = 1000

// Code maps a numeric crime classification to its human label.
type Code struct {
	Code int    `json:"code" db:"code"`
	Type string `json:"type" db:"incident_type"`
}

// Neighborhood is a numbered district.
type Neighborhood struct {
	ID   int    `json:"id" db:"neighborhood_number"`
	Name string `json:"name" db:"neighborhood_name"`
}

// Incident is a single reported crime. DateTime is stored combined by the
// store; on the wire it travels as separate Date (YYYY-MM-DD) and Time
// (HH:MM:SS) strings.
type Incident struct {
	CaseNumber         string `json:"case_number" db:"case_number" validate:"required,max=64"`
	Date               string `json:"date" db:"date" validate:"required"`
	Time               string `json:"time" db:"time" validate:"required"`
	Code               int    `json:"code" db:"code"`
	Incident           string `json:"incident" db:"incident"`
	PoliceGrid         int    `json:"police_grid" db:"police_grid"`
	NeighborhoodNumber int    `json:"neighborhood_number" db:"neighborhood_number"`
	Block              string `json:"block" db:"block"`
}

// DateTime returns the combined timestamp text handed to the store. The
// parts are concatenated verbatim; the store decides what it accepts.
func (i Incident) DateTime() string {
	return i.Date + " " + i.Time
}

// DeleteIncidentRequest is the body of DELETE /remove-incident.
type DeleteIncidentRequest struct {
	CaseNumber string `json:"case_number" validate:"required"`
}

// IncidentFilter selects incidents. Zero values mean "unrestricted".
type IncidentFilter struct {
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	Codes         []int  `json:"code,omitempty"`
	Grids         []int  `json:"grid,omitempty"`
	Neighborhoods []int  `json:"neighborhood,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// EffectiveLimit returns Limit when positive, DefaultIncidentLimit otherwise.
func (f IncidentFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultIncidentLimit
	}
	return f.Limit
}
