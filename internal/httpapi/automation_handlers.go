package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nagendra-kumar-y/zerothhire/internal/automation"
	"github.com/nagendra-kumar-y/zerothhire/internal/pipeline"
	"github.com/nagendra-kumar-y/zerothhire/internal/store"
)

type AutomationHandler struct {
	Svc *automation.Service
}

type startRequest struct {
	IntervalMinutes int `json:"intervalMinutes"`
}

func (h AutomationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body = default cadence
	if req.IntervalMinutes <= 0 {
		req.IntervalMinutes = 30
	}

	h.Svc.Start(time.Duration(req.IntervalMinutes) * time.Minute)
	WriteJSON(w, http.StatusOK, h.Svc.Status())
}

func (h AutomationHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.Svc.Stop()
	WriteJSON(w, http.StatusOK, h.Svc.Status())
}

func (h AutomationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Trigger(r.Context())
	switch {
	case errors.Is(err, automation.ErrNotRunning):
		WriteError(w, r, http.StatusConflict, "not_running", err.Error())
	case errors.Is(err, automation.ErrRunInProgress):
		WriteError(w, r, http.StatusConflict, "run_in_progress", err.Error())
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "trigger_failed", err.Error())
	default:
		WriteJSON(w, http.StatusOK, stats)
	}
}

func (h AutomationHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Svc.Status())
}

func (h AutomationHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Statistics(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ProcessByPath handles POST /jobs/{id}/process: the manual single-posting
// path that bypasses the scheduler's started guard.
func (h AutomationHandler) ProcessByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/jobs/")
	idStr, op, ok := strings.Cut(rest, "/")
	if !ok || op != "process" {
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "posting id must be numeric")
		return
	}

	err = h.Svc.ProcessManually(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", "posting not found")
	case errors.Is(err, pipeline.ErrAlreadyProcessed):
		WriteError(w, r, http.StatusConflict, "already_processed", err.Error())
	case errors.Is(err, automation.ErrRunInProgress):
		WriteError(w, r, http.StatusConflict, "run_in_progress", err.Error())
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "process_failed", err.Error())
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"processed": true, "postingId": id})
	}
}
