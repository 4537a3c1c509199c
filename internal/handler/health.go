package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/crimemap/crimemap/internal/model"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Live always answers ok while the process is serving.
// GET /healthz
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{Status: "ok"})
}

// Ready pings the database and answers 503 when it is unreachable.
// GET /readyz
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		requestLogger(h.logger, r).Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, model.HealthResponse{
			Status: "unavailable",
			Checks: map[string]string{"database": err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status: "ok",
		Checks: map[string]string{"database": "ok"},
	})
}
