package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crimemap/crimemap/internal/client"
	"github.com/crimemap/crimemap/internal/geocode"
	"github.com/crimemap/crimemap/internal/model"
)

// API is the Query Service as the client sees it. *client.Client
// satisfies it.
type API interface {
	Codes(ctx context.Context, codes []int) ([]model.Code, error)
	Neighborhoods(ctx context.Context, ids []int) ([]model.Neighborhood, error)
	Incidents(ctx context.Context, f model.IncidentFilter) ([]model.Incident, error)
	CreateIncident(ctx context.Context, inc model.Incident) error
	DeleteIncident(ctx context.Context, caseNumber string) error
}

// Notifier shows a failure to the user and returns once it has been
// acknowledged.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a func to Notifier.
type NotifierFunc func(msg string)

// Notify calls f.
func (f NotifierFunc) Notify(msg string) { f(msg) }

// DefaultDebounce is how long the map must rest before its center is
// reverse-geocoded.
const DefaultDebounce = 500 * time.Millisecond

// Config tunes an App. Zero fields take defaults.
type Config struct {
	City     string
	Debounce time.Duration
	Anchors  map[int]geocode.Location
	Radii    RadiusRange
}

// App owns a State and runs actions against it. Effects run outside the
// lock; each result is committed through Reduce under it, so a slow request
// that resolves last overwrites a faster one.
type App struct {
	api      API
	geo      geocode.Geocoder
	notifier Notifier
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	debounce *time.Timer
}

// NewApp creates an App in the initial state.
func NewApp(api API, geo geocode.Geocoder, notifier Notifier, cfg Config, logger *slog.Logger) *App {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Anchors == nil {
		cfg.Anchors = NeighborhoodAnchors
	}
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &App{
		api:      api,
		geo:      geo,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		state:    NewState(cfg.Anchors, cfg.Radii),
	}
}

// State returns the current state. Callers must not mutate its maps.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) commit(e Event) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Reduce(a.state, e)
	return a.state
}

// fail records msg as the notice and blocks on the notifier.
func (a *App) fail(msg string, err error) error {
	a.logger.Warn("explorer action failed", "notice", msg, "error", err)
	a.commit(Failed{Notice: msg})
	a.notifier.Notify(msg)
	if err == nil {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Dispatch runs action and returns its failure, which has already been
// recorded in Notice and sent to the notifier.
func (a *App) Dispatch(ctx context.Context, action Action) error {
	switch act := action.(type) {
	case ToggleCode, ToggleNeighborhood, SetDateRange, SetLimit, SetSearchText:
		a.commit(act.(Event))
		return nil
	case ApplyFilters:
		return a.fetch(ctx, a.State().Draft)
	case LoadReference:
		return a.loadReference(ctx)
	case Search:
		return a.search(ctx)
	case MapMoved:
		a.commit(act)
		a.scheduleReverse(ctx, act.Center)
		return nil
	case SelectIncident:
		return a.selectIncident(ctx, act.CaseNumber)
	case CreateIncident:
		if err := a.api.CreateIncident(ctx, act.Incident); err != nil {
			return a.fail("Could not create incident: "+errorText(err), err)
		}
		return a.fetch(ctx, a.State().Applied)
	case DeleteIncident:
		if err := a.api.DeleteIncident(ctx, act.CaseNumber); err != nil {
			return a.fail("Could not delete incident: "+errorText(err), err)
		}
		return a.fetch(ctx, a.State().Applied)
	default:
		return fmt.Errorf("unknown action %T", action)
	}
}

func (a *App) fetch(ctx context.Context, f Filter) error {
	f = f.clone()
	incidents, err := a.api.Incidents(ctx, f.Query())
	if err != nil {
		return a.fail("Could not load incidents: "+errorText(err), err)
	}
	a.commit(IncidentsLoaded{Filter: f, Incidents: incidents})
	return nil
}

func (a *App) loadReference(ctx context.Context) error {
	codes, err := a.api.Codes(ctx, nil)
	if err != nil {
		return a.fail("Could not load codes: "+errorText(err), err)
	}
	hoods, err := a.api.Neighborhoods(ctx, nil)
	if err != nil {
		return a.fail("Could not load neighborhoods: "+errorText(err), err)
	}
	a.commit(ReferenceLoaded{Codes: codes, Neighborhoods: hoods})
	return a.fetch(ctx, a.State().Applied)
}

func (a *App) search(ctx context.Context) error {
	text := a.State().SearchText
	if text == "" {
		return a.fail("Enter a place to search for", nil)
	}
	loc, err := a.geo.Forward(ctx, text)
	if err != nil {
		return a.fail("Could not find "+text, err)
	}
	a.commit(PlaceFound{Location: loc})
	return nil
}

// scheduleReverse restarts the debounce timer for center. Only the last
// position in a burst of moves is looked up.
func (a *App) scheduleReverse(ctx context.Context, center geocode.Location) {
	ctx = context.WithoutCancel(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounce != nil {
		a.debounce.Stop()
	}
	a.debounce = time.AfterFunc(a.cfg.Debounce, func() {
		label, err := a.geo.Reverse(ctx, center)
		if err != nil {
			a.fail("Could not name this location", err)
			return
		}
		a.commit(PlaceLabeled{Label: label})
	})
}

func (a *App) selectIncident(ctx context.Context, caseNumber string) error {
	snapshot := a.State()
	var inc *model.Incident
	for _, candidate := range snapshot.Incidents {
		if candidate.CaseNumber == caseNumber {
			c := candidate
			inc = &c
			break
		}
	}
	if inc == nil {
		return a.fail("Case number "+caseNumber+" is not in the current list", nil)
	}

	query := LocateQuery(inc.Block, a.cfg.City)
	loc, err := a.geo.Forward(ctx, query)
	if err != nil {
		return a.fail("Could not locate "+query, err)
	}

	label := fmt.Sprintf("%s: %s at %s", inc.CaseNumber, inc.Incident, inc.Block)
	a.commit(IncidentLocated{Marker: Marker{Location: loc, Label: label, Count: 1, Radius: snapshot.Map.Radii.Min}})
	return nil
}

// errorText prefers the server's own message for HTTP failures.
func errorText(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) && se.Body != "" {
		return se.Body
	}
	return err.Error()
}
