package sched

import (
	"testing"
	"time"

	"hotkeyd/pkg/logx"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *fakeClock) Elapsed() time.Duration  { return c.now.Sub(time.Unix(0, 0)) }

func newTestScheduler(c *fakeClock) *Scheduler { return New(logx.Nop(), c.Now) }

func TestScheduleOnceFiresExactlyOnce(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	fired := 0
	s.ScheduleOnce(100*time.Millisecond, func() { fired++ })

	clk.Advance(99 * time.Millisecond)
	s.Tick()
	if fired != 0 {
		t.Fatalf("fired before delay elapsed: %d", fired)
	}

	clk.Advance(1 * time.Millisecond)
	s.Tick()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if s.Len() != 0 {
		t.Fatalf("active set not purged after once task: len = %d", s.Len())
	}

	// Well past the due time, no further firings.
	clk.Advance(time.Second)
	s.Tick()
	if fired != 1 {
		t.Fatalf("once task fired again: %d", fired)
	}
}

func TestScheduleRepeatFixedDelay(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	var at []time.Duration
	s.ScheduleRepeat(500*time.Millisecond, func() { at = append(at, clk.Elapsed()) })

	// 2000ms advanced in 50ms ticks: exactly 4 firings at 500/1000/1500/2000.
	for i := 0; i < 40; i++ {
		clk.Advance(50 * time.Millisecond)
		s.Tick()
	}
	want := []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		1500 * time.Millisecond,
		2000 * time.Millisecond,
	}
	if len(at) != len(want) {
		t.Fatalf("firings = %d, want %d (%v)", len(at), len(want), at)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Fatalf("firing %d at %v, want %v", i, at[i], want[i])
		}
	}
}

func TestScheduleRepeatDriftsUnderCoarseTicks(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	var at []time.Duration
	s.ScheduleRepeat(500*time.Millisecond, func() { at = append(at, clk.Elapsed()) })

	// 300ms granularity: due at 500 is first seen at 600, so the next firing
	// is measured from 600, not 500. Drift is the contract, not a bug.
	for i := 0; i < 5; i++ {
		clk.Advance(300 * time.Millisecond)
		s.Tick()
	}
	want := []time.Duration{600 * time.Millisecond, 1200 * time.Millisecond}
	if len(at) != len(want) {
		t.Fatalf("firings = %v, want %v", at, want)
	}
	for i := range want {
		if at[i] != want[i] {
			t.Fatalf("firing %d at %v, want %v", i, at[i], want[i])
		}
	}
}

func TestScheduleRepeatInitialDelay(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	fired := 0
	s.ScheduleRepeatAfter(0, time.Second, func() { fired++ })

	s.Tick() // initial delay 0: due immediately
	if fired != 1 {
		t.Fatalf("fired = %d, want 1 after zero initial delay", fired)
	}
	clk.Advance(time.Second)
	s.Tick()
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
}

func TestScheduleSequenceChainsSteps(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	var events []string
	s.ScheduleSequence([]Step{
		{Delay: 100 * time.Millisecond, Action: func() { events = append(events, "A@"+clk.Elapsed().String()) }},
		{Delay: 200 * time.Millisecond, Action: func() { events = append(events, "B@"+clk.Elapsed().String()) }},
	})

	for i := 0; i < 10; i++ {
		clk.Advance(50 * time.Millisecond)
		s.Tick()
	}
	want := []string{"A@100ms", "B@300ms"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("events = %v, want %v", events, want)
	}
	if s.Len() != 0 {
		t.Fatalf("sequence not purged after completion: len = %d", s.Len())
	}
}

func TestSequenceStepDelayMeasuredFromPreviousExecution(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	var bAt time.Duration
	s.ScheduleSequence([]Step{
		{Delay: 100 * time.Millisecond, Action: func() {}},
		{Delay: 200 * time.Millisecond, Action: func() { bAt = clk.Elapsed() }},
	})

	// Step 0 is seen late, at 250ms. Step 1 must be measured from 250ms.
	clk.Advance(250 * time.Millisecond)
	s.Tick()

	for i := 0; i < 10; i++ {
		clk.Advance(50 * time.Millisecond)
		s.Tick()
	}
	if bAt != 450*time.Millisecond {
		t.Fatalf("step 1 fired at %v, want 450ms (250ms execution + 200ms delay)", bAt)
	}
}

func TestCancelBeforeDuePreventsFiring(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	fired := 0
	h := s.ScheduleOnce(100*time.Millisecond, func() { fired++ })
	s.Cancel(h)
	s.Cancel(h)            // idempotent
	s.Cancel(TaskHandle{}) // zero handle is a no-op

	clk.Advance(time.Second)
	s.Tick()
	if fired != 0 {
		t.Fatalf("cancelled task fired %d times", fired)
	}
	if s.Len() != 0 {
		t.Fatalf("cancelled task not purged: len = %d", s.Len())
	}
	if !h.Cancelled() {
		t.Fatal("handle does not mirror cancelled flag")
	}
}

func TestCancelRepeatStopsFurtherFirings(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	fired := 0
	h := s.ScheduleRepeat(100*time.Millisecond, func() { fired++ })

	clk.Advance(100 * time.Millisecond)
	s.Tick()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	s.Cancel(h)
	clk.Advance(time.Second)
	s.Tick()
	if fired != 1 {
		t.Fatalf("repeat task fired after cancel: %d", fired)
	}
}

func TestSimultaneouslyDueTasksFireInRegistrationOrder(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	var order []string
	// Register in an order different from delay order: both are due in the
	// same tick and must fire first-registered first.
	s.ScheduleOnce(100*time.Millisecond, func() { order = append(order, "first") })
	s.ScheduleOnce(50*time.Millisecond, func() { order = append(order, "second") })

	clk.Advance(200 * time.Millisecond)
	s.Tick()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}
}

func TestTaskIDsStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	var prev uint64
	for i := 0; i < 100; i++ {
		h := s.ScheduleOnce(time.Duration(i)*time.Millisecond, func() {})
		if h.ID() <= prev {
			t.Fatalf("id %d not greater than previous %d", h.ID(), prev)
		}
		prev = h.ID()
	}

	// Ids are never reused, even after the set drains.
	clk.Advance(time.Second)
	s.Tick()
	h := s.ScheduleOnce(0, func() {})
	if h.ID() <= prev {
		t.Fatalf("id %d reused after drain (prev %d)", h.ID(), prev)
	}
}

func TestPanickingActionDoesNotAbortTick(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	fired := 0
	s.ScheduleOnce(0, func() { panic("boom") })
	s.ScheduleOnce(0, func() { fired++ })

	s.Tick()
	if fired != 1 {
		t.Fatalf("task after panicking task did not fire (fired = %d)", fired)
	}
	if s.Len() != 0 {
		t.Fatalf("panicking once task not purged: len = %d", s.Len())
	}
}

func TestSchedulingFromInsideActionIsDeferredToNextTick(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	inner := 0
	s.ScheduleOnce(0, func() {
		s.ScheduleOnce(0, func() { inner++ })
	})

	if n := s.Tick(); n != 1 {
		t.Fatalf("first tick fired %d tasks, want 1", n)
	}
	if inner != 0 {
		t.Fatal("task scheduled during tick fired in the same pass")
	}
	s.Tick()
	if inner != 1 {
		t.Fatalf("staged task did not fire on next tick (inner = %d)", inner)
	}
}

func TestEmptyOrInvalidSchedulesReturnZeroHandle(t *testing.T) {
	t.Parallel()
	clk := newFakeClock()
	s := newTestScheduler(clk)

	if h := s.ScheduleSequence(nil); h.ID() != 0 {
		t.Fatalf("empty sequence returned live handle %d", h.ID())
	}
	if h := s.ScheduleRepeat(0, func() {}); h.ID() != 0 {
		t.Fatalf("zero-interval repeat returned live handle %d", h.ID())
	}
	if h := s.ScheduleOnce(0, nil); h.ID() != 0 {
		t.Fatalf("nil once action returned live handle %d", h.ID())
	}
	if s.Len() != 0 {
		t.Fatalf("invalid schedules left tasks behind: len = %d", s.Len())
	}
}
