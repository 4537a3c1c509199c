package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crimemap/crimemap/internal/model"
	"github.com/crimemap/crimemap/internal/query"
	"github.com/crimemap/crimemap/internal/store"
)

// IncidentStore is the data access the crime endpoints need. *store.Store
// satisfies it.
type IncidentStore interface {
	ListCodes(ctx context.Context, codes []int) ([]model.Code, error)
	ListNeighborhoods(ctx context.Context, ids []int) ([]model.Neighborhood, error)
	ListIncidents(ctx context.Context, f model.IncidentFilter) ([]model.Incident, error)
	CreateIncident(ctx context.Context, inc model.Incident) error
	DeleteIncident(ctx context.Context, caseNumber string) error
	Ping(ctx context.Context) error
}

// CrimeHandler serves the five Query Service endpoints.
type CrimeHandler struct {
	store  IncidentStore
	logger *slog.Logger
}

// NewCrimeHandler creates a new CrimeHandler.
func NewCrimeHandler(s IncidentStore, logger *slog.Logger) *CrimeHandler {
	return &CrimeHandler{store: s, logger: logger}
}

// ListCodes returns codes, optionally restricted by ?code=110,700.
// GET /codes
func (h *CrimeHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := queryIntList(r, "code")
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	out, err := h.store.ListCodes(r.Context(), codes)
	if err != nil {
		h.dbFailure(w, r, "list codes", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListNeighborhoods returns neighborhoods, optionally restricted by ?id=3,7.
// GET /neighborhoods
func (h *CrimeHandler) ListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	ids, err := queryIntList(r, "id")
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	out, err := h.store.ListNeighborhoods(r.Context(), ids)
	if err != nil {
		h.dbFailure(w, r, "list neighborhoods", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ListIncidents returns incidents newest first.
// GET /incidents?start_date=&end_date=&code=&grid=&neighborhood=&limit=
func (h *CrimeHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	f, err := parseIncidentFilter(r)
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	out, err := h.store.ListIncidents(r.Context(), f)
	if err != nil {
		h.dbFailure(w, r, "list incidents", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateIncident inserts the incident in the body.
// PUT /new-incident
func (h *CrimeHandler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var inc model.Incident
	if err := readJSON(r, &inc); err != nil {
		writeText(w, http.StatusInternalServerError, bodyErrorMessage(err))
		return
	}

	err := h.store.CreateIncident(r.Context(), inc)
	switch {
	case err == nil:
		writeText(w, http.StatusOK, "OK")
	case errors.Is(err, store.ErrConflict):
		writeText(w, http.StatusInternalServerError, "Case number "+inc.CaseNumber+" already exists")
	default:
		h.dbFailure(w, r, "create incident", err)
	}
}

// DeleteIncident removes the incident named by {"case_number": ...}.
// DELETE /remove-incident
func (h *CrimeHandler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteIncidentRequest
	if err := readJSON(r, &req); err != nil {
		writeText(w, http.StatusInternalServerError, bodyErrorMessage(err))
		return
	}

	err := h.store.DeleteIncident(r.Context(), req.CaseNumber)
	switch {
	case err == nil:
		writeText(w, http.StatusOK, "OK")
	case errors.Is(err, store.ErrNotFound):
		writeText(w, http.StatusInternalServerError, "Case number "+req.CaseNumber+" does not exist")
	default:
		h.dbFailure(w, r, "delete incident", err)
	}
}

// dbFailure logs err with the request id and answers with a generic message.
func (h *CrimeHandler) dbFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	requestLogger(h.logger, r).Error(op+" failed", "error", err)
	writeText(w, http.StatusInternalServerError, "Database error")
}

func parseIncidentFilter(r *http.Request) (model.IncidentFilter, error) {
	f := model.IncidentFilter{
		Limit: query.ParseLimit(queryString(r, "limit"), model.DefaultIncidentLimit),
	}

	var err error
	if f.StartDate, err = queryDate(r, "start_date"); err != nil {
		return f, err
	}
	if f.EndDate, err = queryDate(r, "end_date"); err != nil {
		return f, err
	}
	if f.Codes, err = queryIntList(r, "code"); err != nil {
		return f, err
	}
	if f.Grids, err = queryIntList(r, "grid"); err != nil {
		return f, err
	}
	if f.Neighborhoods, err = queryIntList(r, "neighborhood"); err != nil {
		return f, err
	}
	return f, nil
}
