package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/mmiiot/factoryline-core/internal/production"
)

// Store is the subset of the production repository the simulator consumes.
// Defined here so the simulator can be tested with a mock store.
type Store interface {
	NextScheduledOrder(ctx context.Context) (*production.Order, error)
	ProductsForOrder(ctx context.Context, orderID int64) ([]production.Product, error)
	SetOrderStatus(ctx context.Context, id int64, status production.OrderStatus) error
	StartProduct(ctx context.Context, id int64, start time.Time) error
	CompleteProduct(ctx context.Context, id int64, end time.Time) error
}

// MetricsRecorder receives per-stage timing measurements.
// Implemented by the InfluxDB client; nil when metrics are disabled.
type MetricsRecorder interface {
	WriteStageDuration(stage string, seconds float64, orderCode, serialNumber string)
	WriteProductCycle(orderCode, serialNumber string, seconds float64)
	WriteOrderCompleted(orderCode string, quantity int)
}

// stageStep is one timed operation in the pipeline sequence.
type stageStep struct {
	duration float64
	stage    string
	message  string
}

// Executor runs one product through the fixed station sequence, advancing
// wall-clock time proportionally and persisting status transitions.
//
// Stages execute strictly sequentially; one event is emitted per stage in
// exact pipeline order. A stage wait already in progress is never
// interrupted, but cancellation is observed between stages so the driver's
// stop latency stays bounded by the longest single stage.
type Executor struct {
	stations StationTimes
	labels   int
	factor   float64
	store    Store
	log      *EventLog
	metrics  MetricsRecorder
}

// NewExecutor creates a pipeline executor.
//
// Parameters:
//   - stations: Per-stage durations
//   - labels: Label cycles per product (raised to 1 if below)
//   - factor: Real-time factor; wall time = duration / factor, so values
//     above 1.0 speed the simulation up. Non-positive factors become 1.0.
//   - store: Persistence for product status transitions
//   - log: Event sink
//   - metrics: Optional stage metrics recorder (nil to disable)
func NewExecutor(stations StationTimes, labels int, factor float64, store Store, log *EventLog, metrics MetricsRecorder) *Executor {
	if labels < 1 {
		labels = 1
	}
	if factor <= 0 {
		factor = 1.0
	}
	return &Executor{
		stations: stations,
		labels:   labels,
		factor:   factor,
		store:    store,
		log:      log,
		metrics:  metrics,
	}
}

// Run drives one scheduled product through the full pipeline.
//
// On start the product transitions to in_progress with its start timestamp
// persisted and a product_start event emitted. Each stage emits one event
// and then waits its scaled duration. On finish the product transitions to
// completed with its end timestamp. Returns ctx.Err() if cancelled between
// stages; the product is then left in_progress for the reset operation to
// recover.
func (e *Executor) Run(ctx context.Context, order *production.Order, product *production.Product) error {
	corr := Correlation{
		OrderID:   &order.ID,
		OrderCode: order.OrderCode,
		ProductID: &product.ID,
		ProductSN: product.SerialNumber,
	}

	start := time.Now().UTC()
	if err := e.store.StartProduct(ctx, product.ID, start); err != nil {
		return fmt.Errorf("starting product %s: %w", product.SerialNumber, err)
	}
	e.log.Append(NewEvent("product_start",
		fmt.Sprintf("Product %s entering the line", product.SerialNumber), corr))

	var totalSimulated float64
	for _, step := range e.steps() {
		if err := ctx.Err(); err != nil {
			return err
		}

		e.log.Append(NewEvent(step.stage, step.message, corr))
		e.wait(step.duration)
		totalSimulated += clampDuration(step.duration)

		if e.metrics != nil {
			e.metrics.WriteStageDuration(step.stage, clampDuration(step.duration),
				order.OrderCode, product.SerialNumber)
		}
	}

	end := time.Now().UTC()
	if err := e.store.CompleteProduct(ctx, product.ID, end); err != nil {
		return fmt.Errorf("completing product %s: %w", product.SerialNumber, err)
	}
	e.log.Append(NewEvent("product_completed",
		fmt.Sprintf("Product %s completed", product.SerialNumber), corr))

	if e.metrics != nil {
		e.metrics.WriteProductCycle(order.OrderCode, product.SerialNumber, totalSimulated)
	}
	return nil
}

// steps expands the station sequence, repeating the labeling cycle once
// per label.
func (e *Executor) steps() []stageStep {
	s := e.stations
	steps := []stageStep{
		{s.BeltToScanner, "belt", "Unit moving to scanner position"},
		{s.ScanTime, "scanner", "Scanner camera reading code"},
		{s.BeltToStop, "belt", "Unit moving to stop position"},
		{s.JackUp, "lifters", "Jack cylinders raised, light on"},
		{s.MBIQuery, "mbi", "MBI server returned product parameters"},
	}

	for cycle := 1; cycle <= e.labels; cycle++ {
		tag := fmt.Sprintf("%d/%d", cycle, e.labels)
		steps = append(steps,
			stageStep{s.FeederTime, "feeder", "Feeder supplying label " + tag},
			stageStep{s.RobotPick, "robot", "Robot picking label " + tag},
			stageStep{s.RobotToLocCam, "robot", "Robot moving to locating camera"},
			stageStep{s.LocatingTime, "camera", "Locating camera calibrating"},
			stageStep{s.RobotToDevice, "robot", "Robot moving to device"},
			stageStep{s.LabelingTime, "labeling", "Applying label"},
		)
	}

	steps = append(steps,
		stageStep{s.JackDown, "lifters", "Jack cylinders lowered, light off"},
		stageStep{s.BeltToInspection, "belt", "Unit moving to inspection position"},
		stageStep{s.QCTime, "qc", "QC camera capturing"},
	)
	return steps
}

// wait sleeps for the stage's scaled wall-clock duration.
// Zero or negative durations return immediately; the stage still emitted
// its event. The wait itself is not cancellable - an in-flight stage runs
// to completion by contract.
func (e *Executor) wait(seconds float64) {
	seconds = clampDuration(seconds)
	if seconds == 0 {
		return
	}
	time.Sleep(time.Duration(seconds / e.factor * float64(time.Second)))
}
