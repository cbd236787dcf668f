package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"hotkeyd/internal/backend"
	"hotkeyd/internal/config"
	"hotkeyd/internal/sched"
	"hotkeyd/internal/storage"
	"hotkeyd/pkg/logx"
)

// Dispatcher turns declarative bindings into live trigger callbacks. It owns
// the trigger-callback lifecycle: every hotkey it registers and every task its
// callbacks schedule is tracked and released on Rebind/Close, so a config
// reload never leaks a hook or an orphaned repeat task.
type Dispatcher struct {
	log logx.Logger
	rt  *Runtime

	hotkeys []backend.Hotkey
	handles []sched.TaskHandle
	bound   int
}

func NewDispatcher(rt *Runtime, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{log: log, rt: rt}
}

// Bound reports how many bindings are currently attached.
func (d *Dispatcher) Bound() int { return d.bound }

// Bind attaches every enabled binding. Failures are isolated per entry: a
// malformed binding or a claimed hotkey is logged and skipped, the rest still
// bind.
func (d *Dispatcher) Bind(bindings []config.Binding) {
	for i, b := range bindings {
		blog := d.log.With(logx.Int("binding", i), logx.String("trigger", b.TriggerDesc()))
		if !b.IsEnabled() {
			blog.Debug("binding disabled; skipping")
			continue
		}
		if err := b.Validate(); err != nil {
			blog.Warn("skipping malformed binding", logx.Err(err))
			continue
		}

		cb := d.buildCallback(b, blog)

		if keys := strings.TrimSpace(b.Keys); keys != "" {
			hk, err := backend.ParseChord(keys)
			if err != nil {
				blog.Warn("skipping binding", logx.Err(err))
				continue
			}
			if err := d.rt.Backend.RegisterHotkey(hk, cb); err != nil {
				blog.Error("hotkey registration failed", logx.Err(err))
				continue
			}
			d.hotkeys = append(d.hotkeys, hk)
		} else {
			schedule, err := cron.ParseStandard(strings.TrimSpace(b.Schedule))
			if err != nil {
				blog.Warn("skipping binding: bad cron spec", logx.Err(err))
				continue
			}
			d.armSchedule(schedule, cb)
			blog.Debug("cron trigger armed", logx.String("spec", b.Schedule))
		}
		d.bound++
	}
	d.log.Info("bindings attached", logx.Int("bound", d.bound), logx.Int("declared", len(bindings)))
}

// Rebind drops every live trigger and task, then binds the new set. Used on
// config hot reload.
func (d *Dispatcher) Rebind(bindings []config.Binding) {
	d.Close()
	d.Bind(bindings)
}

// Close unhooks all triggers and cancels every outstanding task.
func (d *Dispatcher) Close() {
	for _, hk := range d.hotkeys {
		d.rt.Backend.UnregisterHotkey(hk)
	}
	d.hotkeys = d.hotkeys[:0]
	for _, h := range d.handles {
		d.rt.Sched.Cancel(h)
	}
	d.handles = d.handles[:0]
	d.bound = 0
}

// buildCallback builds the single callback for one validated binding,
// following the timing-policy precedence: sequence, then repeat, then
// one-shot delay, then synchronous dispatch.
func (d *Dispatcher) buildCallback(b config.Binding, blog logx.Logger) func() {
	s := d.rt.Sched

	if len(b.Steps) > 0 {
		steps := make([]sched.Step, len(b.Steps))
		for i, st := range b.Steps {
			wait, _ := st.Wait()
			steps[i] = sched.Step{
				Delay:  wait,
				Action: d.guard(b, st.Action, d.newAction(b, st.Action, st.Params)),
			}
		}
		blog.Debug("binding dispatches a step sequence", logx.Int("steps", len(steps)))
		return func() { d.track(s.ScheduleSequence(steps)) }
	}

	name := b.ActionName()
	act := d.guard(b, name, d.newAction(b, name, b.Params))

	delay, repeat, _ := b.Timing() // validated before buildCallback runs
	if repeat > 0 {
		blog.Debug("binding dispatches on a fixed-delay repeat", logx.Duration("interval", repeat))
		return func() { d.track(s.ScheduleRepeat(repeat, act)) }
	}
	if delay > 0 {
		blog.Debug("binding dispatches after a one-shot delay", logx.Duration("delay", delay))
		return func() { d.track(s.ScheduleOnce(delay, act)) }
	}
	blog.Debug("binding dispatches synchronously")
	return act
}

// newAction resolves one action spec against the registry, injecting the
// binding's target name unless the params already carry an explicit target.
func (d *Dispatcher) newAction(b config.Binding, name string, p map[string]string) sched.Action {
	params := Params(p).Clone()
	if b.Target != "" {
		if _, explicit := params["target"]; !explicit {
			params["target"] = b.Target
		}
	}
	return d.rt.Actions.New(name, params, d.rt)
}

// guard wraps an action with the per-dispatch failure boundary and the audit
// trail: a panicking action is recovered and logged here instead of
// propagating into the host loop, and every firing lands one audit row.
func (d *Dispatcher) guard(b config.Binding, name string, act sched.Action) sched.Action {
	log := d.log
	store := d.rt.Store
	trigger := b.TriggerDesc()
	target := b.Target
	return func() {
		start := time.Now()
		okRun := true
		errMsg := ""
		defer func() {
			if r := recover(); r != nil {
				okRun = false
				errMsg = fmt.Sprint(r)
				log.Error("action failed",
					logx.String("action", name),
					logx.String("trigger", trigger),
					logx.Any("panic", r),
				)
			}
			if store != nil {
				_ = store.AppendAudit(context.Background(), storage.AuditEntry{
					At:      start,
					Binding: trigger,
					Action:  name,
					Target:  target,
					OK:      okRun,
					Error:   errMsg,
					TookMS:  time.Since(start).Milliseconds(),
				})
			}
		}()
		act()
	}
}

// armSchedule drives a cron trigger through the cooperative scheduler: a
// one-shot task re-arms itself for the next activation after each firing.
// No cron runner goroutine is involved.
func (d *Dispatcher) armSchedule(schedule cron.Schedule, cb func()) {
	s := d.rt.Sched
	var arm func()
	arm = func() {
		now := s.Now()
		next := schedule.Next(now)
		if next.IsZero() {
			return
		}
		d.track(s.ScheduleOnce(next.Sub(now), func() {
			cb()
			arm()
		}))
	}
	arm()
}

// track remembers a task handle for teardown, pruning dead handles so long
// runs with many one-shot dispatches don't accumulate them.
func (d *Dispatcher) track(h sched.TaskHandle) {
	if h.ID() == 0 {
		return
	}
	if len(d.handles) > 64 {
		live := d.handles[:0]
		for _, old := range d.handles {
			if old.Live() {
				live = append(live, old)
			}
		}
		d.handles = live
	}
	d.handles = append(d.handles, h)
}
