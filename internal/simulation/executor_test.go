package simulation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmiiot/factoryline-core/internal/production"
)

// mockStore is an in-memory Store for simulator tests.
type mockStore struct {
	mu       sync.Mutex
	orders   map[int64]*production.Order
	products map[int64]*production.Product

	failNextPick error
}

func newMockStore() *mockStore {
	return &mockStore{
		orders:   make(map[int64]*production.Order),
		products: make(map[int64]*production.Product),
	}
}

func (m *mockStore) addOrder(id int64, code string, quantity int) *production.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := &production.Order{
		ID:        id,
		OrderCode: code,
		Quantity:  quantity,
		Status:    production.OrderScheduled,
	}
	m.orders[id] = o
	return o
}

func (m *mockStore) addProduct(id, orderID int64, serial string, status production.ProductStatus) *production.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &production.Product{
		ID:           id,
		OrderID:      orderID,
		SerialNumber: serial,
		Status:       status,
	}
	m.products[id] = p
	return p
}

func (m *mockStore) NextScheduledOrder(_ context.Context) (*production.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNextPick != nil {
		err := m.failNextPick
		m.failNextPick = nil
		return nil, err
	}

	var best *production.Order
	for _, o := range m.orders {
		if o.Status != production.OrderScheduled {
			continue
		}
		if best == nil || o.ID < best.ID {
			best = o
		}
	}
	if best == nil {
		return nil, production.ErrNoScheduledOrder
	}
	copied := *best
	return &copied, nil
}

func (m *mockStore) ProductsForOrder(_ context.Context, orderID int64) ([]production.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []production.Product
	for _, p := range m.products {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	// id ascending
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ID < out[i].ID {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *mockStore) SetOrderStatus(_ context.Context, id int64, status production.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return production.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (m *mockStore) StartProduct(_ context.Context, id int64, start time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return production.ErrProductNotFound
	}
	p.Status = production.ProductInProgress
	p.ProducedStart = &start
	return nil
}

func (m *mockStore) CompleteProduct(_ context.Context, id int64, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return production.ErrProductNotFound
	}
	p.Status = production.ProductCompleted
	p.ProducedEnd = &end
	return nil
}

func (m *mockStore) product(id int64) production.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.products[id]
}

func (m *mockStore) order(id int64) production.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

// zeroStations returns station times that execute instantly.
func zeroStations() StationTimes {
	return StationTimes{}
}

// TestExecutorRun verifies the full stage sequence for one product.
func TestExecutorRun(t *testing.T) {
	store := newMockStore()
	order := store.addOrder(1, "ORD-001", 1)
	product := store.addProduct(10, 1, "SN-010", production.ProductScheduled)

	log := NewEventLog(100, nil)
	exec := NewExecutor(zeroStations(), 2, 1.0, store, log, nil)

	if err := exec.Run(context.Background(), order, product); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// product_start + 5 head stages + 2 label cycles of 6 + 3 tail stages
	// + product_completed
	wantEvents := 1 + 5 + 2*6 + 3 + 1
	if log.Size() != wantEvents {
		t.Fatalf("event count = %d, want %d", log.Size(), wantEvents)
	}

	// Snapshot is newest first; reverse to execution order.
	events := log.Snapshot(wantEvents)
	wantStages := []string{
		"product_start",
		"belt", "scanner", "belt", "lifters", "mbi",
		"feeder", "robot", "robot", "camera", "robot", "labeling",
		"feeder", "robot", "robot", "camera", "robot", "labeling",
		"lifters", "belt", "qc",
		"product_completed",
	}
	for i, want := range wantStages {
		got := events[len(events)-1-i].Stage
		if got != want {
			t.Errorf("stage[%d] = %q, want %q", i, got, want)
		}
	}

	// Timestamps non-decreasing in execution order
	for i := len(events) - 1; i > 0; i-- {
		if events[i-1].Timestamp.Before(events[i].Timestamp) {
			t.Errorf("event %d timestamp decreases", len(events)-i)
		}
	}

	p := store.product(10)
	if p.Status != production.ProductCompleted {
		t.Errorf("product status = %v, want completed", p.Status)
	}
	if p.ProducedStart == nil || p.ProducedEnd == nil {
		t.Fatal("product timestamps not set")
	}
	if p.ProducedEnd.Before(*p.ProducedStart) {
		t.Error("produced_end before produced_start")
	}
}

// TestExecutorCorrelation verifies events carry order/product references.
func TestExecutorCorrelation(t *testing.T) {
	store := newMockStore()
	order := store.addOrder(1, "ORD-001", 1)
	product := store.addProduct(10, 1, "SN-010", production.ProductScheduled)

	log := NewEventLog(100, nil)
	exec := NewExecutor(zeroStations(), 1, 1.0, store, log, nil)

	if err := exec.Run(context.Background(), order, product); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, e := range log.Snapshot(log.Size()) {
		if e.OrderCode != "ORD-001" || e.ProductSN != "SN-010" {
			t.Errorf("event %s missing correlation: order=%q product=%q",
				e.Stage, e.OrderCode, e.ProductSN)
		}
		if e.OrderID == nil || *e.OrderID != 1 {
			t.Errorf("event %s OrderID = %v, want 1", e.Stage, e.OrderID)
		}
	}
}

// TestExecutorCancellation verifies cancellation between stages.
func TestExecutorCancellation(t *testing.T) {
	store := newMockStore()
	order := store.addOrder(1, "ORD-001", 1)
	product := store.addProduct(10, 1, "SN-010", production.ProductScheduled)

	log := NewEventLog(100, nil)
	exec := NewExecutor(zeroStations(), 1, 1.0, store, log, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Run(ctx, order, product)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}

	// The product stays in_progress; the reset operation recovers it.
	p := store.product(10)
	if p.Status != production.ProductInProgress {
		t.Errorf("product status = %v, want in_progress", p.Status)
	}
}

// TestExecutorStoreFailure verifies store errors propagate.
func TestExecutorStoreFailure(t *testing.T) {
	store := newMockStore()
	order := store.addOrder(1, "ORD-001", 1)
	// Product 99 does not exist in the store
	product := &production.Product{ID: 99, OrderID: 1, SerialNumber: "SN-099",
		Status: production.ProductScheduled}

	log := NewEventLog(100, nil)
	exec := NewExecutor(zeroStations(), 1, 1.0, store, log, nil)

	err := exec.Run(context.Background(), order, product)
	if !errors.Is(err, production.ErrProductNotFound) {
		t.Errorf("Run() error = %v, want ErrProductNotFound", err)
	}
}
