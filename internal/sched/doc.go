// Package sched provides the cooperative task scheduler driving every timed
// hotkey action in hotkeyd.
//
// # Model
//
// The scheduler is single-threaded by contract: it spawns no goroutines, takes
// no locks, and advances only when the host event loop calls Tick() while it is
// otherwise idle. Each Tick() samples the injected clock exactly once and runs
// every due task synchronously on the caller's goroutine.
//
// # Task kinds
//
//   - Once: fires a single time after its delay.
//   - Repeat: fixed-delay repetition; the next firing is computed from the
//     current firing time, not the original schedule, so coarse tick
//     granularity accumulates drift. That is the documented contract.
//   - Sequence: an ordered (delay, action) chain; a step becomes due only
//     after the previous step has executed.
//
// # Ordering
//
// Tasks simultaneously due within one Tick() fire in registration order.
// Across ticks, relative order follows the computed due times.
//
// # Failure isolation
//
// A panicking action is recovered per task, logged, and the tick pass
// continues. Cancellation only prevents a task that has not started; there is
// no preemption and no timeout, so a hung action hangs the host loop.
package sched
