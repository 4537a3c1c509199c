package explorer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/crimemap/crimemap/internal/client"
	"github.com/crimemap/crimemap/internal/geocode"
	"github.com/crimemap/crimemap/internal/model"
)

func TestMarkerRadii(t *testing.T) {
	rr := RadiusRange{Min: 4, Max: 20}

	got := MarkerRadii(map[int]int{1: 10, 2: 5, 3: 0}, rr)
	if !(got[1] > got[2] && got[2] > got[3]) {
		t.Errorf("radii not strictly ordered: %v", got)
	}
	if got[3] != rr.Min || got[3] <= 0 {
		t.Errorf("zero count radius = %v, want %v", got[3], rr.Min)
	}
	if got[1] != rr.Max {
		t.Errorf("max count radius = %v, want %v", got[1], rr.Max)
	}

	zero := MarkerRadii(map[int]int{1: 0, 2: 0}, rr)
	for id, r := range zero {
		if r != rr.Min {
			t.Errorf("all-zero radius[%d] = %v, want %v", id, r, rr.Min)
		}
	}
}

func TestExpandBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"98X UNIVERSITY AV W", "980 UNIVERSITY AV W"},
		{"9XX GRAND AV", "900 GRAND AV"},
		{"1XXX RICE ST", "1000 RICE ST"},
		{"UNIVERSITY AV W AND DALE ST", "UNIVERSITY AV W AND DALE ST"},
		{"123 MAIN ST", "123 MAIN ST"},
		{"XX LAKE ST", "XX LAKE ST"},
	}
	for _, tt := range tests {
		if got := ExpandBlock(tt.in); got != tt.want {
			t.Errorf("ExpandBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := LocateQuery("98X UNIVERSITY AV W", "St. Paul, MN"); got != "980 UNIVERSITY AV W, St. Paul, MN" {
		t.Errorf("LocateQuery = %q", got)
	}
	if got := LocateQuery("98X UNIVERSITY AV W", ""); got != "980 UNIVERSITY AV W" {
		t.Errorf("LocateQuery without city = %q", got)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := NewState(NeighborhoodAnchors, DefaultRadii)
	next := Reduce(s, ToggleCode{Code: 110})

	if len(s.Draft.Codes) != 0 {
		t.Errorf("input state mutated: %v", s.Draft.Codes)
	}
	if _, ok := next.Draft.Codes[110]; !ok {
		t.Errorf("code not toggled on: %v", next.Draft.Codes)
	}
	if len(next.Applied.Codes) != 0 {
		t.Errorf("applied filter changed before ApplyFilters: %v", next.Applied.Codes)
	}
}

func TestToggleOrderIndependent(t *testing.T) {
	a := NewState(NeighborhoodAnchors, DefaultRadii)
	for _, c := range []int{110, 600, 700, 600, 600} {
		a = Reduce(a, ToggleCode{Code: c})
	}
	b := NewState(NeighborhoodAnchors, DefaultRadii)
	for _, c := range []int{600, 700, 110} {
		b = Reduce(b, ToggleCode{Code: c})
	}
	if !a.Draft.Equal(b.Draft) {
		t.Errorf("drafts differ: %v vs %v", a.Draft.Query(), b.Draft.Query())
	}
	if got := a.Draft.Query().Codes; !reflect.DeepEqual(got, []int{110, 600, 700}) {
		t.Errorf("query codes = %v", got)
	}
}

func TestSetLimitDefaults(t *testing.T) {
	s := Reduce(NewState(nil, DefaultRadii), SetLimit{Limit: -5})
	if s.Draft.Limit != model.DefaultIncidentLimit {
		t.Errorf("limit = %d", s.Draft.Limit)
	}
}

func TestInitialMarkersUseMinimum(t *testing.T) {
	s := NewState(NeighborhoodAnchors, RadiusRange{})
	if len(s.Map.Markers) != len(NeighborhoodAnchors) {
		t.Fatalf("markers = %d", len(s.Map.Markers))
	}
	for id, m := range s.Map.Markers {
		if m.Radius != DefaultRadii.Min || m.Count != 0 {
			t.Errorf("marker %d = %+v", id, m)
		}
	}
}

// fakeAPI is an in-memory Query Service.
type fakeAPI struct {
	mu        sync.Mutex
	incidents []model.Incident
	failList  error
	lastQuery model.IncidentFilter
}

func (f *fakeAPI) Codes(context.Context, []int) ([]model.Code, error) {
	return []model.Code{{Code: 600, Type: "Theft"}, {Code: 700, Type: "Motor Vehicle Theft"}}, nil
}

func (f *fakeAPI) Neighborhoods(context.Context, []int) ([]model.Neighborhood, error) {
	return []model.Neighborhood{{ID: 7, Name: "Thomas/Dale/Frogtown"}, {ID: 8, Name: "Summit/University"}}, nil
}

func (f *fakeAPI) Incidents(_ context.Context, q model.IncidentFilter) ([]model.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.failList != nil {
		return nil, f.failList
	}
	out := []model.Incident{}
	for _, inc := range f.incidents {
		if len(q.Codes) > 0 && !containsInt(q.Codes, inc.Code) {
			continue
		}
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeAPI) CreateIncident(_ context.Context, inc model.Incident) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.incidents {
		if existing.CaseNumber == inc.CaseNumber {
			return &client.StatusError{Code: 500, Body: "Case number " + inc.CaseNumber + " already exists"}
		}
	}
	f.incidents = append(f.incidents, inc)
	return nil
}

func (f *fakeAPI) DeleteIncident(_ context.Context, caseNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.incidents {
		if existing.CaseNumber == caseNumber {
			f.incidents = append(f.incidents[:i], f.incidents[i+1:]...)
			return nil
		}
	}
	return &client.StatusError{Code: 500, Body: "Case number " + caseNumber + " does not exist"}
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// recordingNotifier collects every notification.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNotifier) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type fixture struct {
	api      *fakeAPI
	geo      *geocode.Stub
	notifier *recordingNotifier
	app      *App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api: &fakeAPI{incidents: []model.Incident{
			{CaseNumber: "1", Date: "2024-01-05", Time: "13:30:00", Code: 600, Incident: "Theft", NeighborhoodNumber: 7, Block: "98X UNIVERSITY AV W"},
			{CaseNumber: "2", Date: "2024-01-06", Time: "09:00:00", Code: 700, Incident: "Motor Vehicle Theft", NeighborhoodNumber: 7, Block: "9XX GRAND AV"},
			{CaseNumber: "3", Date: "2024-01-07", Time: "22:15:00", Code: 600, Incident: "Theft", NeighborhoodNumber: 8, Block: "4XX SELBY AV"},
		}},
		geo:      geocode.NewStub(),
		notifier: &recordingNotifier{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.app = NewApp(f.api, f.geo, f.notifier, Config{City: "St. Paul, MN", Debounce: 20 * time.Millisecond}, logger)
	if err := f.app.Dispatch(context.Background(), LoadReference{}); err != nil {
		t.Fatalf("LoadReference: %v", err)
	}
	return f
}

func TestLoadReference(t *testing.T) {
	f := newFixture(t)
	s := f.app.State()

	if s.CodeLabel(600) != "Theft" || s.CodeLabel(999) != "" {
		t.Errorf("code labels = %v", s.CodeLabels)
	}
	if len(s.Incidents) != 3 {
		t.Errorf("incidents = %d", len(s.Incidents))
	}
	if m := s.Map.Markers[7]; m.Count != 2 || m.Label != "Thomas/Dale/Frogtown: 2 incidents" {
		t.Errorf("marker 7 = %+v", m)
	}
	if !(s.Map.Markers[7].Radius > s.Map.Markers[8].Radius && s.Map.Markers[8].Radius > s.Map.Markers[1].Radius) {
		t.Errorf("radii not ordered by count")
	}
}

func TestFiltersApplyOnlyOnApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.app.Dispatch(ctx, ToggleCode{Code: 700})
	if got := len(f.app.State().Incidents); got != 3 {
		t.Fatalf("toggle refetched: %d incidents", got)
	}

	if err := f.app.Dispatch(ctx, ApplyFilters{}); err != nil {
		t.Fatalf("ApplyFilters: %v", err)
	}
	s := f.app.State()
	if len(s.Incidents) != 1 || s.Incidents[0].CaseNumber != "2" {
		t.Errorf("incidents = %+v", s.Incidents)
	}
	if _, ok := s.Applied.Codes[700]; !ok {
		t.Errorf("applied filter = %v", s.Applied.Query())
	}
}

func TestFailedFetchKeepsPreviousList(t *testing.T) {
	f := newFixture(t)
	f.api.failList = errors.New("connection refused")

	f.app.Dispatch(context.Background(), ToggleCode{Code: 700})
	err := f.app.Dispatch(context.Background(), ApplyFilters{})
	if err == nil {
		t.Fatal("expected error")
	}

	s := f.app.State()
	if len(s.Incidents) != 3 {
		t.Errorf("incidents replaced: %d", len(s.Incidents))
	}
	if len(s.Applied.Codes) != 0 {
		t.Errorf("applied filter changed on failure: %v", s.Applied.Query())
	}
	if s.Notice == "" {
		t.Error("notice not set")
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d", f.notifier.count())
	}
}

func TestCreateRefetchesAppliedFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Draft differs from applied; the refetch must use applied.
	f.app.Dispatch(ctx, ToggleCode{Code: 700})

	inc := model.Incident{CaseNumber: "4", Date: "2024-01-08", Time: "08:00:00", Code: 600, NeighborhoodNumber: 8}
	if err := f.app.Dispatch(ctx, CreateIncident{Incident: inc}); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	s := f.app.State()
	if len(s.Incidents) != 4 || s.Incidents[0].CaseNumber != "4" {
		t.Errorf("incidents after create = %+v", s.Incidents)
	}
	if len(f.api.lastQuery.Codes) != 0 {
		t.Errorf("refetch used draft filter: %v", f.api.lastQuery)
	}
}

func TestCreateConflictNotifiesServerMessage(t *testing.T) {
	f := newFixture(t)

	err := f.app.Dispatch(context.Background(), CreateIncident{Incident: model.Incident{CaseNumber: "1"}})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if got := f.app.State().Notice; got != "Could not create incident: Case number 1 already exists" {
		t.Errorf("notice = %q", got)
	}
	if len(f.app.State().Incidents) != 3 {
		t.Error("incident list changed")
	}
}

func TestDeleteIncident(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.app.Dispatch(ctx, DeleteIncident{CaseNumber: "3"}); err != nil {
		t.Fatalf("DeleteIncident: %v", err)
	}
	if got := len(f.app.State().Incidents); got != 2 {
		t.Errorf("incidents = %d", got)
	}
	if m := f.app.State().Map.Markers[8]; m.Count != 0 {
		t.Errorf("marker 8 count = %d", m.Count)
	}

	if err := f.app.Dispatch(ctx, DeleteIncident{CaseNumber: "3"}); err == nil {
		t.Error("second delete should fail")
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d", f.notifier.count())
	}
}

func TestSearchKeepsSearchText(t *testing.T) {
	f := newFixture(t)
	f.geo.AddPlace("como zoo", geocode.Location{Lat: 44.9817, Lon: -93.1527, Label: "Como Park Zoo, Saint Paul"})
	ctx := context.Background()

	f.app.Dispatch(ctx, SetSearchText{Text: "Como Zoo"})
	if err := f.app.Dispatch(ctx, Search{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	s := f.app.State()
	if s.SearchText != "Como Zoo" {
		t.Errorf("search text overwritten: %q", s.SearchText)
	}
	if s.PlaceLabel != "Como Park Zoo, Saint Paul" {
		t.Errorf("place label = %q", s.PlaceLabel)
	}
	if s.Map.Center.Lat != 44.9817 {
		t.Errorf("center = %+v", s.Map.Center)
	}

	f.app.Dispatch(ctx, SetSearchText{Text: "Atlantis"})
	if err := f.app.Dispatch(ctx, Search{}); !errors.Is(err, geocode.ErrNoResult) {
		t.Errorf("err = %v", err)
	}
	if f.app.State().Map.Center.Lat != 44.9817 {
		t.Error("failed search moved the map")
	}
}

func TestMapMovedIsDebounced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	final := geocode.Location{Lat: 44.9400, Lon: -93.1300}
	f.geo.AddLabel(final, "Summit Hill")

	for _, lat := range []float64{44.90, 44.91, 44.92} {
		f.app.Dispatch(ctx, MapMoved{Center: geocode.Location{Lat: lat, Lon: -93.13}, Zoom: 14})
	}
	f.app.Dispatch(ctx, MapMoved{Center: final, Zoom: 15})

	if got := f.app.State().Map.Zoom; got != 15 {
		t.Errorf("zoom = %d", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.app.State().PlaceLabel == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := f.app.State().PlaceLabel; got != "Summit Hill" {
		t.Fatalf("place label = %q", got)
	}
	if _, rev := f.geo.Calls(); rev != 1 {
		t.Errorf("reverse calls = %d, want 1", rev)
	}
}

func TestSelectIncident(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.geo.AddPlace("980 UNIVERSITY AV W, St. Paul, MN", geocode.Location{Lat: 44.9557, Lon: -93.1456})

	if err := f.app.Dispatch(ctx, SelectIncident{CaseNumber: "1"}); err != nil {
		t.Fatalf("SelectIncident: %v", err)
	}
	s := f.app.State()
	if s.Map.Pinned == nil || s.Map.Pinned.Location.Lat != 44.9557 {
		t.Fatalf("pinned = %+v", s.Map.Pinned)
	}
	if s.Map.Center.Lon != -93.1456 {
		t.Errorf("center = %+v", s.Map.Center)
	}

	// Block 9XX GRAND AV has no stub entry.
	if err := f.app.Dispatch(ctx, SelectIncident{CaseNumber: "2"}); err == nil {
		t.Fatal("expected locate failure")
	}
	if got := f.app.State().Map.Pinned.Location.Lat; got != 44.9557 {
		t.Errorf("failed locate replaced the pin: %v", got)
	}
	if f.notifier.count() != 1 {
		t.Errorf("notifications = %d", f.notifier.count())
	}

	if err := f.app.Dispatch(ctx, SelectIncident{CaseNumber: "nope"}); err == nil {
		t.Error("unknown case number should fail")
	}
}
