// Package geocode resolves place names to coordinates and back. The
// explorer depends only on the Geocoder interface; Nominatim talks to a
// real service, Cached adds a redis layer, and Stub serves tests.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrNoResult means the service answered but found nothing usable.
var ErrNoResult = errors.New("geocode: no result")

// Location is a WGS84 point with the service's label for it.
type Location struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label,omitempty"`
}

// String renders the point as "lat,lon" with four decimals.
func (l Location) String() string {
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// Geocoder is the capability the explorer needs from a geocoding service.
type Geocoder interface {
	// Forward resolves free text (an address or place) to a location.
	Forward(ctx context.Context, query string) (Location, error)
	// Reverse resolves a point to a human-readable label.
	Reverse(ctx context.Context, loc Location) (string, error)
}

// Round4 rounds v to four decimal places (about 11 m of latitude).
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// NormalizeQuery lowercases q and collapses runs of whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
