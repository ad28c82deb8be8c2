package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmiiot/factoryline-core/internal/production"
)

// Status is the driver's externally visible state.
type Status struct {
	Running    bool `json:"running"`
	EventCount int  `json:"event_count"`
	MaxEvents  int  `json:"max_events"`
}

// Driver is the top-level simulation control loop.
//
// It owns one worker goroutine that repeatedly picks the earliest eligible
// scheduled order, drives each of its scheduled products through the
// Executor sequentially, and updates order state. Faults inside the loop
// never terminate the worker: they are absorbed as error events followed by
// a backoff.
//
// Start and Stop are idempotent. Stop cancels a context observed at the
// loop top, between products, between stages, and inside the poll wait;
// a stage wait already in progress runs to completion, so the worst-case
// stop latency is the longest single stage duration plus one poll interval.
type Driver struct {
	store        Store
	executor     *Executor
	log          *EventLog
	logger       Logger
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewDriver creates a simulation driver.
//
// Parameters:
//   - store: Order/product persistence
//   - executor: The per-product pipeline executor
//   - log: Event sink shared with the executor
//   - logger: Structured logger for loop diagnostics
//   - pollInterval: Wait between polls when no scheduled order exists
func NewDriver(store Store, executor *Executor, log *EventLog, logger Logger, pollInterval time.Duration) *Driver {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Driver{
		store:        store,
		executor:     executor,
		log:          log,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Start launches the worker goroutine. Calling Start on a running driver
// is a no-op; the return value reports whether a new run began.
func (d *Driver) Start() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go d.run(ctx)

	if d.logger != nil {
		d.logger.Info("simulation started", "poll_interval", d.pollInterval.String())
	}
	return true
}

// Stop cancels the worker and waits for it to exit. Calling Stop on a
// stopped driver is a no-op; the return value reports whether a running
// worker was stopped.
//
// A stage wait in flight completes before the worker observes the
// cancellation; the poll wait is interrupted immediately.
func (d *Driver) Stop() bool {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return false
	}
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	cancel()
	<-done

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("simulation stopped")
	}
	return true
}

// Status reports whether the driver is running and how many events are
// buffered.
func (d *Driver) Status() Status {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()

	return Status{
		Running:    running,
		EventCount: d.log.Size(),
		MaxEvents:  d.log.Capacity(),
	}
}

// run is the worker loop. It exits only on context cancellation.
func (d *Driver) run(ctx context.Context) {
	defer close(d.done)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := d.runOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Absorb the fault: error event, backoff, retry. Nothing is
			// allowed to terminate the worker.
			d.log.Append(NewEvent("error",
				fmt.Sprintf("Simulation fault: %v", err), Correlation{}))
			if !d.sleep(ctx, d.pollInterval) {
				return
			}
		}
	}
}

// runOnce processes one order, or waits one poll interval when no order is
// eligible. Returns nil on a clean pass, context.Canceled on cancellation,
// any other error for the caller to absorb.
func (d *Driver) runOnce(ctx context.Context) error {
	order, err := d.store.NextScheduledOrder(ctx)
	if err != nil {
		if errors.Is(err, production.ErrNoScheduledOrder) {
			if !d.sleep(ctx, d.pollInterval) {
				return context.Canceled
			}
			return nil
		}
		return fmt.Errorf("picking order: %w", err)
	}

	corr := Correlation{OrderID: &order.ID, OrderCode: order.OrderCode}
	d.log.Append(NewEvent("order_pick",
		fmt.Sprintf("Order %s selected", orderRef(order)), corr))

	if err := d.store.SetOrderStatus(ctx, order.ID, production.OrderInProgress); err != nil {
		return fmt.Errorf("starting order %s: %w", order.OrderCode, err)
	}
	d.log.Append(NewEvent("order_in_progress", "Order processing started", corr))

	products, err := d.store.ProductsForOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("listing products of order %s: %w", order.OrderCode, err)
	}

	if d.logger != nil {
		d.logger.Info("order picked",
			"order", order.OrderCode,
			"products", len(products),
			"expected_seconds_per_product", d.executor.stations.TotalDuration(d.executor.labels),
		)
	}

	done := 0
	for i := range products {
		if err := ctx.Err(); err != nil {
			return context.Canceled
		}
		// Only scheduled products run; completed or externally advanced
		// ones are skipped, never re-run.
		if products[i].Status != production.ProductScheduled {
			continue
		}
		if err := d.executor.Run(ctx, order, &products[i]); err != nil {
			if errors.Is(err, context.Canceled) {
				return context.Canceled
			}
			return fmt.Errorf("simulating product %s: %w", products[i].SerialNumber, err)
		}
		done++
	}

	if err := d.store.SetOrderStatus(ctx, order.ID, production.OrderCompleted); err != nil {
		return fmt.Errorf("completing order %s: %w", order.OrderCode, err)
	}
	d.log.Append(NewEvent("order_completed", "All products of order completed", corr))

	if m := d.executor.metrics; m != nil {
		m.WriteOrderCompleted(order.OrderCode, done)
	}
	return nil
}

// sleep waits for the given duration or until cancellation.
// Returns false if the context was cancelled.
func (d *Driver) sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// orderRef returns the order's human code, falling back to its id.
func orderRef(order *production.Order) string {
	if order.OrderCode != "" {
		return order.OrderCode
	}
	return fmt.Sprintf("%d", order.ID)
}
