package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/mmiiot/factoryline-core/internal/production"
	"github.com/mmiiot/factoryline-core/internal/simulation"
)

// TestSimulationStartStop verifies the control endpoints and their no-op
// responses.
func TestSimulationStartStop(t *testing.T) {
	ts := newTestServer(t)

	t.Run("start", func(t *testing.T) {
		var resp SimulationControlResponse
		rec := ts.request(t, http.MethodPost, "/api/v1/simulation/start", &resp)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if resp.Status != "started" {
			t.Errorf("status field = %q, want started", resp.Status)
		}
		if !resp.Simulation.Running {
			t.Error("Simulation.Running = false after start")
		}
	})

	t.Run("start while running", func(t *testing.T) {
		var resp SimulationControlResponse
		ts.request(t, http.MethodPost, "/api/v1/simulation/start", &resp)

		if resp.Status != "already_running" {
			t.Errorf("status field = %q, want already_running", resp.Status)
		}
	})

	t.Run("stop resets and clears", func(t *testing.T) {
		ts.log.Append(simulation.NewEvent("belt", "x", simulation.Correlation{}))

		var resp SimulationControlResponse
		rec := ts.request(t, http.MethodPost, "/api/v1/simulation/stop", &resp)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if resp.Status != "stopped" {
			t.Errorf("status field = %q, want stopped", resp.Status)
		}
		if resp.Simulation.Running {
			t.Error("Simulation.Running = true after stop")
		}
		if resp.Reset == nil {
			t.Error("Reset = nil, want reset counts")
		}
		if ts.log.Size() != 0 {
			t.Errorf("event log size = %d after stop, want 0", ts.log.Size())
		}
	})

	t.Run("stop while stopped", func(t *testing.T) {
		var resp SimulationControlResponse
		ts.request(t, http.MethodPost, "/api/v1/simulation/stop", &resp)

		if resp.Status != "already_stopped" {
			t.Errorf("status field = %q, want already_stopped", resp.Status)
		}
	})
}

// TestSimulationStatus verifies the status payload.
func TestSimulationStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.log.Append(simulation.NewEvent("belt", "x", simulation.Correlation{}))

	var status simulation.Status
	rec := ts.request(t, http.MethodGet, "/api/v1/simulation/status", &status)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if status.Running {
		t.Error("Running = true on stopped driver")
	}
	if status.EventCount != 1 {
		t.Errorf("EventCount = %d, want 1", status.EventCount)
	}
	if status.MaxEvents != 50 {
		t.Errorf("MaxEvents = %d, want 50", status.MaxEvents)
	}
}

// TestSimulationEvents verifies paging and limit handling.
func TestSimulationEvents(t *testing.T) {
	ts := newTestServer(t)
	for _, msg := range []string{"first", "second", "third"} {
		ts.log.Append(simulation.NewEvent("belt", msg, simulation.Correlation{}))
	}

	t.Run("default limit", func(t *testing.T) {
		var resp EventsResponse
		rec := ts.request(t, http.MethodGet, "/api/v1/simulation/events", &resp)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if resp.Count != 3 {
			t.Errorf("Count = %d, want 3", resp.Count)
		}
		if resp.Events[0].Message != "third" {
			t.Errorf("newest event = %q, want third", resp.Events[0].Message)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		var resp EventsResponse
		ts.request(t, http.MethodGet, "/api/v1/simulation/events?limit=2", &resp)

		if resp.Count != 2 {
			t.Errorf("Count = %d, want 2", resp.Count)
		}
	})

	t.Run("limit clamped", func(t *testing.T) {
		var resp EventsResponse
		ts.request(t, http.MethodGet, "/api/v1/simulation/events?limit=-5", &resp)

		if resp.Count != 1 {
			t.Errorf("Count = %d, want 1 (clamped)", resp.Count)
		}
	})

	t.Run("malformed limit", func(t *testing.T) {
		rec := ts.request(t, http.MethodGet, "/api/v1/simulation/events?limit=abc", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

// TestSimulationClear verifies the event buffer wipe.
func TestSimulationClear(t *testing.T) {
	ts := newTestServer(t)
	ts.log.Append(simulation.NewEvent("belt", "x", simulation.Correlation{}))

	rec := ts.request(t, http.MethodPost, "/api/v1/simulation/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ts.log.Size() != 0 {
		t.Errorf("event log size = %d after clear, want 0", ts.log.Size())
	}
}

// TestSimulationReset verifies the full data reset endpoint.
func TestSimulationReset(t *testing.T) {
	ts := newTestServer(t)

	orderID := ts.seedOrder(t, "ORD-001", 2)
	ts.seedProduct(t, orderID, "SN-001", production.ProductCompleted)
	ts.seedProduct(t, orderID, "SN-002", production.ProductInProgress)
	if err := ts.repo.SetOrderStatus(context.Background(), orderID, production.OrderInProgress); err != nil {
		t.Fatalf("seeding order status: %v", err)
	}

	var result production.ResetResult
	rec := ts.request(t, http.MethodPost, "/api/v1/simulation/reset", &result)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if result.OrdersReset != 1 {
		t.Errorf("OrdersReset = %d, want 1", result.OrdersReset)
	}
	if result.ProductsReset != 2 {
		t.Errorf("ProductsReset = %d, want 2", result.ProductsReset)
	}
	if result.RemainingAbnormal != 0 {
		t.Errorf("RemainingAbnormal = %d, want 0", result.RemainingAbnormal)
	}

	order, err := ts.repo.GetOrder(context.Background(), orderID)
	if err != nil {
		t.Fatalf("GetOrder() error = %v", err)
	}
	if order.Status != production.OrderScheduled {
		t.Errorf("order status after reset = %v, want scheduled", order.Status)
	}
}
