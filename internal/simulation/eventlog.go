package simulation

import (
	"sync"
)

// Logger is the minimal logging interface the simulation consumes.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Notifier receives each newly appended event synchronously.
// A returned error is logged and swallowed; it is never retried and never
// affects the buffer or the simulation.
type Notifier func(Event) error

// EventLog is a bounded, insertion-ordered buffer of simulation events.
//
// Events are retained newest-first up to a fixed capacity; the oldest event
// is silently evicted when the buffer is full. One instance is owned by the
// simulator and passed by reference to everything that needs it - there is
// no process-global state.
//
// Concurrency: one writer (the driver goroutine), many readers. Appends,
// snapshots and clears are guarded by an RWMutex. The notifier is invoked
// outside the lock but still synchronously in the appending goroutine, so
// subscribers observe events in exact append order.
type EventLog struct {
	mu       sync.RWMutex
	events   []Event // oldest -> newest
	capacity int
	notifier Notifier
	logger   Logger
}

// NewEventLog creates an event log with the given capacity.
// Capacities below 1 are raised to 1.
func NewEventLog(capacity int, logger Logger) *EventLog {
	if capacity < 1 {
		capacity = 1
	}
	return &EventLog{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// SetNotifier registers the callback invoked with each appended event.
// Pass nil to remove the current notifier.
func (l *EventLog) SetNotifier(fn Notifier) {
	l.mu.Lock()
	l.notifier = fn
	l.mu.Unlock()
}

// Append records an event, evicting the oldest if the buffer is full.
//
// The event's log line is mirrored to the structured logger for
// operational visibility, then the registered notifier (if any) is invoked
// synchronously. A notifier panic or error is caught, logged and swallowed.
func (l *EventLog) Append(event Event) {
	l.mu.Lock()
	if len(l.events) >= l.capacity {
		// FIFO eviction: drop the oldest
		copy(l.events, l.events[1:])
		l.events = l.events[:len(l.events)-1]
	}
	l.events = append(l.events, event)
	notifier := l.notifier
	l.mu.Unlock()

	if l.logger != nil {
		switch event.Level {
		case LevelError:
			l.logger.Error(event.LogLine, "stage", event.Stage)
		default:
			l.logger.Info(event.LogLine, "stage", event.Stage)
		}
	}

	if notifier != nil {
		l.notify(notifier, event)
	}
}

// notify invokes the notifier with panic and error isolation.
func (l *EventLog) notify(fn Notifier, event Event) {
	defer func() {
		if r := recover(); r != nil {
			if l.logger != nil {
				l.logger.Error("event notifier panic recovered",
					"stage", event.Stage,
					"panic", r,
				)
			}
		}
	}()

	if err := fn(event); err != nil && l.logger != nil {
		l.logger.Warn("event notifier failed",
			"stage", event.Stage,
			"error", err,
		)
	}
}

// Snapshot returns up to limit events, most recent first.
//
// The limit is clamped to [1, current size]; an empty buffer yields an
// empty slice. The returned slice is a copy and safe to retain.
func (l *EventLog) Snapshot(limit int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := len(l.events)
	if size == 0 {
		return []Event{}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > size {
		limit = size
	}

	// Newest first
	out := make([]Event, limit)
	for i := 0; i < limit; i++ {
		out[i] = l.events[size-1-i]
	}
	return out
}

// Clear atomically empties the buffer.
func (l *EventLog) Clear() {
	l.mu.Lock()
	l.events = l.events[:0]
	l.mu.Unlock()
}

// Size returns the number of buffered events.
func (l *EventLog) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Capacity returns the fixed buffer capacity.
func (l *EventLog) Capacity() int {
	return l.capacity
}
