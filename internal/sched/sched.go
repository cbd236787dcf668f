package sched

import (
	"time"

	"golang.org/x/time/rate"

	"hotkeyd/pkg/logx"
)

// Action is the unit of scheduled work: a zero-argument callable already bound
// to its parameters and capability handles.
type Action func()

// Step is one element of a sequence: the action fires Delay after the previous
// step executed (or after registration, for the first step).
type Step struct {
	Delay  time.Duration
	Action Action
}

// Clock returns the current time. Production uses time.Now; tests inject a
// fake to drive simulated time.
type Clock func() time.Time

// TaskHandle identifies a scheduled task to its creator. The zero value is a
// valid "no task" handle; cancelling it is a no-op.
type TaskHandle struct {
	id        uint64
	cancelled *bool
	done      *bool
}

// ID returns the task id (0 for the zero handle). Ids are unique and strictly
// increasing for the lifetime of a Scheduler.
func (h TaskHandle) ID() uint64 { return h.id }

// Cancelled reports whether Cancel was called on this handle.
func (h TaskHandle) Cancelled() bool { return h.cancelled != nil && *h.cancelled }

// Completed reports whether the task ran to completion (once fired, sequence
// finished). Repeat tasks never complete; they can only be cancelled.
func (h TaskHandle) Completed() bool { return h.done != nil && *h.done }

// Live reports whether the task may still fire.
func (h TaskHandle) Live() bool {
	return h.id != 0 && !h.Cancelled() && !h.Completed()
}

type taskKind int

const (
	taskOnce taskKind = iota
	taskRepeat
	taskSequence
)

func (k taskKind) String() string {
	switch k {
	case taskOnce:
		return "once"
	case taskRepeat:
		return "repeat"
	case taskSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

type task struct {
	id   uint64
	kind taskKind
	next time.Time

	action   Action        // once/repeat
	interval time.Duration // repeat

	steps   []Step // sequence
	stepIdx int

	cancelled bool
	done      bool
}

// Scheduler owns the active task set. It must only ever be used from the
// goroutine that runs the host event loop.
type Scheduler struct {
	log   logx.Logger
	clock Clock

	lastID  uint64
	tasks   []*task
	staged  []*task // registered while a Tick() pass is running
	ticking bool

	// Throttles the panic-recovery error log so a broken repeat task firing
	// every tick cannot flood the sinks.
	panicLog *rate.Limiter
}

// New creates a scheduler. A nil clock defaults to time.Now.
func New(log logx.Logger, clock Clock) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		log:      log,
		clock:    clock,
		panicLog: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// Len reports the number of tasks in the active set, including tasks staged
// during the current tick.
func (s *Scheduler) Len() int { return len(s.tasks) + len(s.staged) }

// ScheduleOnce fires action exactly once when elapsed time reaches delay.
func (s *Scheduler) ScheduleOnce(delay time.Duration, action Action) TaskHandle {
	if action == nil {
		s.log.Warn("schedule once: nil action ignored")
		return TaskHandle{}
	}
	t := &task{
		kind:   taskOnce,
		next:   s.clock().Add(delay),
		action: action,
	}
	return s.add(t)
}

// ScheduleRepeat fires action every interval, first after interval itself.
// Fixed-delay semantics: each next firing is measured from the previous one.
func (s *Scheduler) ScheduleRepeat(interval time.Duration, action Action) TaskHandle {
	return s.ScheduleRepeatAfter(interval, interval, action)
}

// ScheduleRepeatAfter is ScheduleRepeat with an explicit initial delay.
func (s *Scheduler) ScheduleRepeatAfter(initial, interval time.Duration, action Action) TaskHandle {
	if action == nil {
		s.log.Warn("schedule repeat: nil action ignored")
		return TaskHandle{}
	}
	if interval <= 0 {
		s.log.Warn("schedule repeat: non-positive interval ignored", logx.Duration("interval", interval))
		return TaskHandle{}
	}
	t := &task{
		kind:     taskRepeat,
		next:     s.clock().Add(initial),
		interval: interval,
		action:   action,
	}
	return s.add(t)
}

// ScheduleSequence chains steps in order: steps[0] fires after its delay,
// each later step fires its delay after the previous step executed. The task
// completes after the last step.
func (s *Scheduler) ScheduleSequence(steps []Step) TaskHandle {
	if len(steps) == 0 {
		s.log.Warn("schedule sequence: empty step list ignored")
		return TaskHandle{}
	}
	for i, st := range steps {
		if st.Action == nil {
			s.log.Warn("schedule sequence: nil step action ignored", logx.Int("step", i))
			return TaskHandle{}
		}
	}
	t := &task{
		kind:  taskSequence,
		next:  s.clock().Add(steps[0].Delay),
		steps: steps,
	}
	return s.add(t)
}

// Cancel marks the task behind h cancelled. Idempotent; the zero handle and
// handles of already-completed tasks are no-ops. A cancelled task never fires
// again and is purged from the active set on or before the next tick.
func (s *Scheduler) Cancel(h TaskHandle) {
	if h.cancelled == nil || *h.cancelled {
		return
	}
	*h.cancelled = true
	s.log.Debug("task cancelled", logx.Uint64("task", h.id))
}

// Tick runs one synchronous scheduling pass: it samples the clock once, fires
// every due non-cancelled task in registration order, then rebuilds the active
// set dropping completed and cancelled tasks. It returns the number of task
// firings performed.
//
// Actions may schedule further tasks from inside Tick; those become visible to
// the next pass.
func (s *Scheduler) Tick() int {
	now := s.clock()
	fired := 0

	s.ticking = true
	for _, t := range s.tasks {
		if t.cancelled || t.done {
			continue
		}
		if t.next.After(now) {
			continue
		}
		fired++

		switch t.kind {
		case taskOnce:
			s.invoke(t, t.action)
			t.done = true

		case taskRepeat:
			s.invoke(t, t.action)
			t.next = now.Add(t.interval)

		case taskSequence:
			s.invoke(t, t.steps[t.stepIdx].Action)
			t.stepIdx++
			if t.stepIdx >= len(t.steps) {
				t.done = true
			} else {
				t.next = now.Add(t.steps[t.stepIdx].Delay)
			}
		}
	}
	s.ticking = false

	// Rebuild rather than mutate in place: firing actions above may have
	// staged new tasks, and dropping entries mid-iteration would reorder the
	// FIFO tie-break.
	alive := make([]*task, 0, len(s.tasks)+len(s.staged))
	for _, t := range s.tasks {
		if !t.done && !t.cancelled {
			alive = append(alive, t)
		}
	}
	for _, t := range s.staged {
		if !t.cancelled {
			alive = append(alive, t)
		}
	}
	s.staged = s.staged[:0]
	s.tasks = alive

	return fired
}

func (s *Scheduler) add(t *task) TaskHandle {
	s.lastID++
	t.id = s.lastID
	if s.ticking {
		s.staged = append(s.staged, t)
	} else {
		s.tasks = append(s.tasks, t)
	}
	s.log.Debug("task scheduled",
		logx.Uint64("task", t.id),
		logx.String("kind", t.kind.String()),
		logx.Time("next", t.next),
	)
	return TaskHandle{id: t.id, cancelled: &t.cancelled, done: &t.done}
}

// Now returns the scheduler's current clock sample. Trigger sources that
// compute future activation times (cron schedules) read it so simulated and
// wall clocks stay consistent.
func (s *Scheduler) Now() time.Time { return s.clock() }

// invoke runs one action behind a per-task failure boundary: a panic is
// recovered and logged so one broken action cannot abort the tick pass or
// crash the host loop.
func (s *Scheduler) invoke(t *task, fn Action) {
	defer func() {
		if r := recover(); r != nil {
			if s.panicLog.Allow() {
				s.log.Error("task action panicked",
					logx.Uint64("task", t.id),
					logx.String("kind", t.kind.String()),
					logx.Any("panic", r),
				)
			}
		}
	}()
	fn()
}
