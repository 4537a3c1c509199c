package geocode

import (
	"context"
	"fmt"
	"sync"
)

// Stub is an in-memory Geocoder. Forward matches normalized queries;
// Reverse matches points rounded to four decimals. Err, when set, is
// returned by every call.
type Stub struct {
	mu       sync.Mutex
	places   map[string]Location
	labels   map[string]string
	Err      error
	forwards int
	reverses int
}

// NewStub returns an empty Stub.
func NewStub() *Stub {
	return &Stub{places: map[string]Location{}, labels: map[string]string{}}
}

// AddPlace makes Forward(query) return loc and Reverse(loc) return its label.
func (s *Stub) AddPlace(query string, loc Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places[NormalizeQuery(query)] = loc
	if loc.Label != "" {
		s.labels[stubKey(loc)] = loc.Label
	}
}

// AddLabel makes Reverse(loc) return label.
func (s *Stub) AddLabel(loc Location, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[stubKey(loc)] = label
}

func stubKey(loc Location) string {
	return fmt.Sprintf("%.4f,%.4f", Round4(loc.Lat), Round4(loc.Lon))
}

func (s *Stub) Forward(_ context.Context, query string) (Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forwards++
	if s.Err != nil {
		return Location{}, s.Err
	}
	loc, ok := s.places[NormalizeQuery(query)]
	if !ok {
		return Location{}, fmt.Errorf("%w for %q", ErrNoResult, query)
	}
	return loc, nil
}

func (s *Stub) Reverse(_ context.Context, loc Location) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reverses++
	if s.Err != nil {
		return "", s.Err
	}
	label, ok := s.labels[stubKey(loc)]
	if !ok {
		return "", fmt.Errorf("%w at %s", ErrNoResult, loc)
	}
	return label, nil
}

// Calls reports how many Forward and Reverse calls were made.
func (s *Stub) Calls() (forward, reverse int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forwards, s.reverses
}
