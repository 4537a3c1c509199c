// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2500}

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crimemap_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status"})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crimemap_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"method", "route"})
	IncidentMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crimemap_incident_mutations_total",
		Help: "Incident creates and deletes by outcome (ok, conflict, not_found, error)",
	}, []string{"op", "result"})
	StoreQueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crimemap_store_query_duration_ms",
		Help:    "Store round-trip duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"op"})
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crimemap_geocode_requests_total",
		Help: "Geocoder calls by direction (forward, reverse) and outcome",
	}, []string{"op", "result"})
	GeocodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crimemap_geocode_duration_ms",
		Help:    "Geocoder REST call duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"op"})
	GeocodeCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crimemap_geocode_cache_hits_total",
		Help: "Total redis geocode cache hits",
	})
	GeocodeCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crimemap_geocode_cache_misses_total",
		Help: "Total redis geocode cache misses",
	})
	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crimemap_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
	prometheus.MustRegister(IncidentMutationsTotal)
	prometheus.MustRegister(StoreQueryDurationMs)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(GeocodeCacheHitsTotal)
	prometheus.MustRegister(GeocodeCacheMissesTotal)
	prometheus.MustRegister(CircuitBreakerState)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
