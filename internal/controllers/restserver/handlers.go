package restserver

import (
	"errors"
	"net/http"

	"github.com/chrissnell/tidalvariance/internal/storage"
	"github.com/chrissnell/tidalvariance/pkg/responseformat"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetHealth reports the archive health, checking it first if no check has run yet
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	health := h.controller.health.Current()
	if health.LastCheck.IsZero() {
		health = h.controller.health.Check(req.Context())
	}

	status := http.StatusOK
	if !health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	h.write(w, req, status, health)
}

// GetLatestRun returns the newest run for ?station=, or the configured station
func (h *Handlers) GetLatestRun(w http.ResponseWriter, req *http.Request) {
	station := req.URL.Query().Get("station")
	if station == "" {
		station = h.controller.station
	}

	run, err := h.controller.archive.LatestRun(req.Context(), station)
	if err != nil {
		h.writeLookupError(w, req, err, "no runs archived for station "+station)
		return
	}
	h.write(w, req, http.StatusOK, run)
}

// GetRun returns one run by ID
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	run, ok := h.lookupRun(w, req)
	if !ok {
		return
	}
	h.write(w, req, http.StatusOK, run)
}

// GetRunMonthly returns only the monthly aggregates of a run
func (h *Handlers) GetRunMonthly(w http.ResponseWriter, req *http.Request) {
	run, ok := h.lookupRun(w, req)
	if !ok {
		return
	}
	h.write(w, req, http.StatusOK, run.Monthly)
}

func (h *Handlers) lookupRun(w http.ResponseWriter, req *http.Request) (*storage.Run, bool) {
	raw := mux.Vars(req)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, "invalid run id "+raw)
		return nil, false
	}

	run, err := h.controller.archive.GetRun(req.Context(), id)
	if err != nil {
		h.writeLookupError(w, req, err, "run "+id.String()+" not found")
		return nil, false
	}
	return run, true
}

func (h *Handlers) writeLookupError(w http.ResponseWriter, req *http.Request, err error, notFound string) {
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, req, http.StatusNotFound, notFound)
		return
	}
	h.controller.logger.Errorf("archive lookup failed: %v", err)
	h.writeError(w, req, http.StatusInternalServerError, "archive lookup failed")
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteStatus(w, req, status, data); err != nil {
		h.controller.logger.Errorf("error writing response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, msg string) {
	if err := h.formatter.WriteError(w, req, status, msg); err != nil {
		h.controller.logger.Errorf("error writing response: %v", err)
	}
}
