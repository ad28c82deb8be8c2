// Package simulation implements the production line simulator for
// Factoryline Core.
//
// The simulator models a fixed labeling/inspection line: a conveyor belt
// carries one unit past a scanner camera to a stop position, jack cylinders
// lift it, an MBI lookup returns its parameters, a robot arm applies one or
// more labels (feeder, pick, locating camera, placement), the unit is
// lowered and carried to a QC camera. Each physical operation is a timed
// stage; wall-clock time advances at a configurable real-time factor.
//
// Components:
//
//   - StationTimes: immutable per-stage durations (seconds)
//   - Event / EventLog: bounded newest-first event buffer with synchronous
//     fan-out to a registered notifier
//   - Executor: runs one product through the ordered stage sequence,
//     persisting status transitions and emitting one event per stage
//   - Driver: the background control loop that picks scheduled orders and
//     drives their products through the Executor sequentially
//
// Concurrency model: a single worker goroutine owns the whole simulation;
// order selection, product iteration and stage timers all execute
// sequentially inside it, so events are observed in exact stage order.
// Stop is cooperative: the poll wait is interruptible, a stage already
// sleeping runs to completion, and cancellation is observed between stages.
package simulation
