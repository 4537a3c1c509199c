package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/crimemap/crimemap/internal/metrics"
)

// Metrics records request counts and latency labelled by the matched route
// pattern, so /incidents?code=1 and /incidents?code=2 share a series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDurationMs.WithLabelValues(r.Method, route).
			Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	})
}
