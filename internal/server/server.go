package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/crimemap/crimemap/internal/handler"
	"github.com/crimemap/crimemap/internal/metrics"
	"github.com/crimemap/crimemap/internal/server/middleware"
	"github.com/crimemap/crimemap/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int    // requests per minute per IP; 0 disables
	StaticDir       string // built client; empty serves the embedded fallback
	Version         string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		Version:         "dev",
	}
}

// Server is the Query Service HTTP server. It owns the chi router and the
// store the handlers read from.
type Server struct {
	cfg        Config
	router     chi.Router
	store      handler.IncidentStore
	closers    []io.Closer
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server with all routes and middleware wired. closers are
// closed after a graceful shutdown (typically the database connection).
func New(cfg Config, store handler.IncidentStore, logger *slog.Logger, closers ...io.Closer) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		closers: closers,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	// --- Operational endpoints ---
	health := handler.NewHealthHandler(s.store, s.logger)
	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.baseURL(), s.cfg.Version).ServeSpec)

	// --- Query Service ---
	r.Group(func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(s.cfg.RateLimit))
		}

		crime := handler.NewCrimeHandler(s.store, s.logger)
		r.Get("/codes", crime.ListCodes)
		r.Get("/neighborhoods", crime.ListNeighborhoods)
		r.Get("/incidents", crime.ListIncidents)
		r.Put("/new-incident", crime.CreateIncident)
		r.Delete("/remove-incident", crime.DeleteIncident)
	})

	// --- Client ---
	r.Get("/*", s.serveClient)

	s.router = r
}

func (s *Server) baseURL() string {
	host := s.cfg.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, s.cfg.Port)
}

// serveClient serves files from the static directory. Paths that do not name
// a file get the directory's index.html, or the embedded fallback page when
// there is none.
func (s *Server) serveClient(w http.ResponseWriter, r *http.Request) {
	if s.cfg.StaticDir != "" {
		name := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			http.ServeFile(w, r, name)
			return
		}
		if serveFile(w, r, os.DirFS(s.cfg.StaticDir)) {
			return
		}
	}
	if !serveFile(w, r, ui.FS()) {
		http.Error(w, "client not available", http.StatusNotFound)
	}
}

// serveFile writes index.html from fsys and reports whether it existed.
func serveFile(w http.ResponseWriter, r *http.Request, fsys fs.FS) bool {
	f, err := fsys.Open("index.html")
	if err != nil {
		return false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return false
	}
	rs, ok := f.(io.ReadSeeker)
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", stat.ModTime(), rs)
	return true
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled or
// a SIGINT or SIGTERM is received. It then drains in-flight requests before
// closing the store.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "static_dir", s.cfg.StaticDir)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("close failed", "error", err)
		}
	}
	s.logger.Info("server stopped")
	return nil
}

// CloserFunc adapts a func to io.Closer, e.g. a connector's Disconnect.
type CloserFunc func() error

// Close calls f.
func (f CloserFunc) Close() error { return f() }

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
