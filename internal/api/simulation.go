package api

import (
	"net/http"
	"strconv"

	"github.com/mmiiot/factoryline-core/internal/production"
	"github.com/mmiiot/factoryline-core/internal/simulation"
)

// defaultEventLimit is how many events GET /simulation/events returns when
// no limit query parameter is given.
const defaultEventLimit = 50

// SimulationControlResponse reports the outcome of a start or stop request.
// Starting a running simulation or stopping a stopped one is not an error;
// the status field says what actually happened.
type SimulationControlResponse struct {
	Status     string                  `json:"status"`
	Simulation simulation.Status       `json:"simulation"`
	Reset      *production.ResetResult `json:"reset,omitempty"`
}

// EventsResponse carries a newest-first page of simulation events.
type EventsResponse struct {
	Events []simulation.Event `json:"events"`
	Count  int                `json:"count"`
}

// handleSimulationStart launches the simulation worker.
func (s *Server) handleSimulationStart(w http.ResponseWriter, _ *http.Request) {
	status := "started"
	if !s.driver.Start() {
		status = "already_running"
	} else {
		s.publishDriverStatus()
	}

	writeJSON(w, http.StatusOK, SimulationControlResponse{
		Status:     status,
		Simulation: s.driver.Status(),
	})
}

// handleSimulationStop stops the simulation worker, resets all orders and
// products to the scheduled state, and clears the event log, leaving the
// system ready for a fresh run.
//
// The reset and clear run even when the worker was already stopped, so a
// stop request always lands on a clean slate.
func (s *Server) handleSimulationStop(w http.ResponseWriter, r *http.Request) {
	status := "stopped"
	if !s.driver.Stop() {
		status = "already_stopped"
	} else {
		s.publishDriverStatus()
	}

	reset, err := s.repo.ResetAll(r.Context())
	if err != nil {
		s.logger.Error("reset after stop failed", "error", err)
		writeInternalError(w, "failed to reset production data")
		return
	}
	s.eventLog.Clear()

	if reset.RemainingAbnormal > 0 {
		s.logger.Warn("reset left abnormal rows", "count", reset.RemainingAbnormal)
	}

	writeJSON(w, http.StatusOK, SimulationControlResponse{
		Status:     status,
		Simulation: s.driver.Status(),
		Reset:      reset,
	})
}

// handleSimulationStatus reports whether the worker is running and how full
// the event buffer is.
func (s *Server) handleSimulationStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.driver.Status())
}

// handleSimulationEvents returns buffered events, newest first. The limit
// query parameter caps the page size; out-of-range values are clamped.
func (s *Server) handleSimulationEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	events := s.eventLog.Snapshot(limit)
	writeJSON(w, http.StatusOK, EventsResponse{
		Events: events,
		Count:  len(events),
	})
}

// handleSimulationClear empties the event buffer without touching the
// database or the worker.
func (s *Server) handleSimulationClear(w http.ResponseWriter, _ *http.Request) {
	s.eventLog.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleSimulationReset restores every order and product to the scheduled
// state and repairs product populations, without stopping the worker.
// Rows still abnormal afterwards are reported, not corrected.
func (s *Server) handleSimulationReset(w http.ResponseWriter, r *http.Request) {
	reset, err := s.repo.ResetAll(r.Context())
	if err != nil {
		s.logger.Error("reset failed", "error", err)
		writeInternalError(w, "failed to reset production data")
		return
	}

	if reset.RemainingAbnormal > 0 {
		s.logger.Warn("reset left abnormal rows", "count", reset.RemainingAbnormal)
	}

	writeJSON(w, http.StatusOK, reset)
}
