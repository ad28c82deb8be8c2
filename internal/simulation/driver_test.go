package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmiiot/factoryline-core/internal/production"
)

// newTestDriver wires a driver with instant stages and a short poll interval.
func newTestDriver(store *mockStore, log *EventLog) *Driver {
	exec := NewExecutor(zeroStations(), 1, 1.0, store, log, nil)
	return NewDriver(store, exec, log, nil, 10*time.Millisecond)
}

// TestDriverRunOnce verifies one full order pass.
func TestDriverRunOnce(t *testing.T) {
	store := newMockStore()
	store.addOrder(1, "ORD-001", 3)
	store.addProduct(10, 1, "SN-010", production.ProductScheduled)
	store.addProduct(11, 1, "SN-011", production.ProductScheduled)
	store.addProduct(12, 1, "SN-012", production.ProductScheduled)

	log := NewEventLog(200, nil)
	d := newTestDriver(store, log)

	if err := d.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}

	if got := store.order(1).Status; got != production.OrderCompleted {
		t.Errorf("order status = %v, want completed", got)
	}
	for _, id := range []int64{10, 11, 12} {
		p := store.product(id)
		if p.Status != production.ProductCompleted {
			t.Errorf("product %d status = %v, want completed", id, p.Status)
		}
		if p.ProducedStart == nil || p.ProducedEnd == nil {
			t.Errorf("product %d timestamps not set", id)
		} else if p.ProducedEnd.Before(*p.ProducedStart) {
			t.Errorf("product %d end before start", id)
		}
	}

	// order_pick, order_in_progress, 3 products x (start + 14 stages +
	// completed), order_completed
	wantEvents := 2 + 3*16 + 1
	if log.Size() != wantEvents {
		t.Errorf("event count = %d, want %d", log.Size(), wantEvents)
	}

	events := log.Snapshot(log.Size())
	if events[0].Stage != "order_completed" {
		t.Errorf("newest event = %q, want order_completed", events[0].Stage)
	}
	if events[len(events)-1].Stage != "order_pick" {
		t.Errorf("oldest event = %q, want order_pick", events[len(events)-1].Stage)
	}
}

// TestDriverSkipsNonScheduledProducts verifies pre-advanced products are
// not re-run.
func TestDriverSkipsNonScheduledProducts(t *testing.T) {
	store := newMockStore()
	store.addOrder(1, "ORD-001", 3)
	store.addProduct(10, 1, "SN-010", production.ProductScheduled)
	store.addProduct(11, 1, "SN-011", production.ProductCompleted)
	store.addProduct(12, 1, "SN-012", production.ProductPackaged)

	log := NewEventLog(200, nil)
	d := newTestDriver(store, log)

	if err := d.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}

	if got := store.product(11).Status; got != production.ProductCompleted {
		t.Errorf("completed product re-run: status = %v", got)
	}
	if got := store.product(12).Status; got != production.ProductPackaged {
		t.Errorf("packaged product re-run: status = %v", got)
	}
	if got := store.order(1).Status; got != production.OrderCompleted {
		t.Errorf("order status = %v, want completed", got)
	}

	// Only product 10 went through the pipeline
	wantEvents := 2 + 16 + 1
	if log.Size() != wantEvents {
		t.Errorf("event count = %d, want %d", log.Size(), wantEvents)
	}
}

// TestDriverIdleWhenNoOrder verifies runOnce waits without error.
func TestDriverIdleWhenNoOrder(t *testing.T) {
	store := newMockStore()
	log := NewEventLog(10, nil)
	d := newTestDriver(store, log)

	if err := d.runOnce(context.Background()); err != nil {
		t.Errorf("runOnce() with empty store error = %v", err)
	}
	if log.Size() != 0 {
		t.Errorf("idle pass emitted %d events", log.Size())
	}
}

// TestDriverStartStop verifies lifecycle idempotence and stop latency.
func TestDriverStartStop(t *testing.T) {
	store := newMockStore()
	log := NewEventLog(10, nil)
	exec := NewExecutor(zeroStations(), 1, 1.0, store, log, nil)
	// Long poll interval: Stop must interrupt the wait, not ride it out.
	d := NewDriver(store, exec, log, nil, 30*time.Second)

	if !d.Start() {
		t.Fatal("Start() returned false on stopped driver")
	}
	if d.Start() {
		t.Error("second Start() returned true, want no-op")
	}

	if status := d.Status(); !status.Running {
		t.Error("Status().Running = false after Start")
	}

	// Give the worker time to enter the poll wait
	time.Sleep(50 * time.Millisecond)

	begin := time.Now()
	if !d.Stop() {
		t.Error("Stop() returned false on running driver")
	}
	if elapsed := time.Since(begin); elapsed > 2*time.Second {
		t.Errorf("Stop() took %v, poll wait not interrupted", elapsed)
	}

	if d.Stop() {
		t.Error("second Stop() returned true, want no-op")
	}
	if status := d.Status(); status.Running {
		t.Error("Status().Running = true after Stop")
	}
}

// TestDriverAbsorbsFaults verifies a store error becomes an error event
// and the worker keeps running.
func TestDriverAbsorbsFaults(t *testing.T) {
	store := newMockStore()
	store.failNextPick = errors.New("database is locked")
	store.addOrder(1, "ORD-001", 0)

	log := NewEventLog(50, nil)
	d := newTestDriver(store, log)

	// First pass fails at order pickup
	err := d.runOnce(context.Background())
	if err == nil {
		t.Fatal("runOnce() error = nil, want store failure")
	}

	// The driver loop turns that into an error event; emulate it here the
	// way run() does.
	d.log.Append(NewEvent("error", "Simulation fault: "+err.Error(), Correlation{}))

	events := log.Snapshot(1)
	if len(events) != 1 || events[0].Stage != "error" {
		t.Fatalf("expected error event, got %v", events)
	}
	if events[0].Level != LevelError || events[0].Source != "System" {
		t.Errorf("error event level/source = %s/%s", events[0].Level, events[0].Source)
	}

	// Second pass succeeds
	if err := d.runOnce(context.Background()); err != nil {
		t.Errorf("second runOnce() error = %v", err)
	}
	if got := store.order(1).Status; got != production.OrderCompleted {
		t.Errorf("order status = %v, want completed", got)
	}
}

// TestDriverStatusCounts verifies the status payload.
func TestDriverStatusCounts(t *testing.T) {
	store := newMockStore()
	log := NewEventLog(25, nil)
	d := newTestDriver(store, log)

	log.Append(NewEvent("belt", "x", Correlation{}))
	log.Append(NewEvent("belt", "y", Correlation{}))

	status := d.Status()
	if status.Running {
		t.Error("Running = true on never-started driver")
	}
	if status.EventCount != 2 {
		t.Errorf("EventCount = %d, want 2", status.EventCount)
	}
	if status.MaxEvents != 25 {
		t.Errorf("MaxEvents = %d, want 25", status.MaxEvents)
	}
}
