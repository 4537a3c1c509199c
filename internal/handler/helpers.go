package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/crimemap/crimemap/internal/query"
	"github.com/crimemap/crimemap/internal/server/middleware"
	"github.com/crimemap/crimemap/internal/validation"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeText writes a plain-text body. Every failure of the crime endpoints
// goes out this way with status 500.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	fmt.Fprint(w, msg)
}

// readJSON decodes the request body into v and runs the struct's validate
// rules. The body is closed after decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return validation.Struct(v)
}

// queryIntList parses a comma-separated integer parameter. The error names
// the offending parameter.
func queryIntList(r *http.Request, key string) ([]int, error) {
	vals, err := query.ParseIntList(r.URL.Query().Get(key))
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", key, err)
	}
	return vals, nil
}

// queryDate extracts an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string) (string, error) {
	d, err := query.ParseDate(r.URL.Query().Get(key))
	if err != nil {
		return "", fmt.Errorf("parameter %s: %w", key, err)
	}
	return d, nil
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// requestLogger tags logger with the request id assigned by the middleware.
func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With("request_id", middleware.GetRequestID(r.Context()))
}

// bodyErrorMessage renders a readJSON failure for the client. Validation
// failures read "case_number is required"; decode failures keep the decoder
// text.
func bodyErrorMessage(err error) string {
	return "Invalid request: " + err.Error()
}
