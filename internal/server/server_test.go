package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crimemap/crimemap/internal/connector"
	"github.com/crimemap/crimemap/internal/connector/sqlite"
	"github.com/crimemap/crimemap/internal/model"
	"github.com/crimemap/crimemap/internal/store"
)

// newTestServer wires a Server over a migrated and seeded in-memory store.
func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	conn := sqlite.New()
	if err := conn.Connect(connector.ConnectionConfig{Driver: "sqlite", DSN: ":memory:"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Disconnect() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(conn, logger)
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := st.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, st, logger, CloserFunc(conn.Disconnect))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
	return rr
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		path     string
		wantCode int
		wantCT   string
	}{
		{"/codes", http.StatusOK, "application/json"},
		{"/neighborhoods?id=3,7", http.StatusOK, "application/json"},
		{"/incidents", http.StatusOK, "application/json"},
		{"/healthz", http.StatusOK, "application/json"},
		{"/readyz", http.StatusOK, "application/json"},
		{"/openapi.json", http.StatusOK, "application/json"},
		{"/metrics", http.StatusOK, "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := get(t, srv, tt.path)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.wantCT) {
				t.Errorf("content type = %q, want %s", ct, tt.wantCT)
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestNeighborhoodsEndToEnd(t *testing.T) {
	srv := newTestServer(t, nil)

	var got []model.Neighborhood
	if err := json.Unmarshal(get(t, srv, "/neighborhoods?id=3,7").Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 7 {
		t.Errorf("got %+v", got)
	}
}

func TestMutationRoutesRequireMethod(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("POST", "/new-incident", strings.NewReader("{}")))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /new-incident status = %d, want 405", rr.Code)
	}
}

func TestClientFallbackEmbedded(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/", "/map/district/7"} {
		rr := get(t, srv, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "<title>crimemap</title>") {
			t.Errorf("%s did not serve the fallback page", path)
		}
	}
}

func TestClientFromStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>custom client</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "js"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "js", "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, func(c *Config) { c.StaticDir = dir })

	tests := []struct {
		path string
		want string
	}{
		{"/js/app.js", "console.log(1)"},
		{"/", "custom client"},
		{"/unknown/route", "custom client"},
		{"/../../etc/passwd", "custom client"},
	}
	for _, tt := range tests {
		rr := get(t, srv, tt.path)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", tt.path, rr.Code)
			continue
		}
		if !strings.Contains(rr.Body.String(), tt.want) {
			t.Errorf("%s body = %q, want %q", tt.path, rr.Body.String(), tt.want)
		}
	}
}

func TestStaticDirWithoutIndexUsesEmbedded(t *testing.T) {
	srv := newTestServer(t, func(c *Config) { c.StaticDir = t.TempDir() })

	rr := get(t, srv, "/anything")
	if !strings.Contains(rr.Body.String(), "<title>crimemap</title>") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestRateLimitAppliesToQueryRoutes(t *testing.T) {
	srv := newTestServer(t, func(c *Config) { c.RateLimit = 1 })

	send := func(path string) int {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("/codes"); code != http.StatusOK {
		t.Fatalf("first /codes = %d", code)
	}
	if code := send("/codes"); code != http.StatusTooManyRequests {
		t.Errorf("second /codes = %d, want 429", code)
	}
	if code := send("/healthz"); code != http.StatusOK {
		t.Errorf("/healthz should not be limited, got %d", code)
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "http://localhost:8080"},
		{"", 9000, "http://localhost:9000"},
		{"crime.example.org", 80, "http://crime.example.org:80"},
	}
	for _, tt := range tests {
		s := &Server{cfg: Config{Host: tt.host, Port: tt.port}}
		if got := s.baseURL(); got != tt.want {
			t.Errorf("baseURL(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}
