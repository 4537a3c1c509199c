package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/crimemap/crimemap/internal/metrics"
)

// NominatimConfig configures a Nominatim client.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Nominatim queries a Nominatim-compatible service (/search and /reverse
// with format=jsonv2). Calls run through a circuit breaker; ErrNoResult
// does not count as a failure.
type Nominatim struct {
	baseURL   string
	userAgent string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
	logger    *slog.Logger
}

const breakerName = "geocoder"

// NewNominatim creates a client. Empty fields take defaults.
func NewNominatim(cfg NominatimConfig, logger *slog.Logger) *Nominatim {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "crimemap/1.0"
	}
	if logger == nil {
		logger = slog.Default()
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	n := &Nominatim{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
	n.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoResult) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return n
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Forward returns the best match for query.
func (n *Nominatim) Forward(ctx context.Context, query string) (Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	body, err := n.call(ctx, "forward", "/search", params)
	if err != nil {
		return Location{}, err
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Location{}, fmt.Errorf("%w: decode search response: %v", ErrNoResult, err)
	}
	if len(results) == 0 {
		return Location{}, fmt.Errorf("%w for %q", ErrNoResult, query)
	}

	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return Location{}, fmt.Errorf("%w: unparsable coordinates %q,%q", ErrNoResult, results[0].Lat, results[0].Lon)
	}
	return Location{Lat: lat, Lon: lon, Label: results[0].DisplayName}, nil
}

// Reverse returns the display name for loc.
func (n *Nominatim) Reverse(ctx context.Context, loc Location) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	params.Set("format", "jsonv2")

	body, err := n.call(ctx, "reverse", "/reverse", params)
	if err != nil {
		return "", err
	}

	var result reverseResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: decode reverse response: %v", ErrNoResult, err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return "", fmt.Errorf("%w at %s", ErrNoResult, loc)
	}
	return result.DisplayName, nil
}

// call performs one GET through the breaker and records its outcome.
func (n *Nominatim) call(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	start := time.Now()
	body, err := n.cb.Execute(func() ([]byte, error) {
		return n.get(ctx, path, params)
	})
	metrics.GeocodeDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))

	switch {
	case err == nil:
		metrics.GeocodeRequestsTotal.WithLabelValues(op, "ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GeocodeRequestsTotal.WithLabelValues(op, "rejected").Inc()
		return nil, fmt.Errorf("geocoder unavailable: %w", err)
	default:
		metrics.GeocodeRequestsTotal.WithLabelValues(op, "error").Inc()
		n.logger.Warn("geocoder request failed", "op", op, "error", err)
		return nil, err
	}
	return body, nil
}

func (n *Nominatim) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocoder request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read geocoder response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
