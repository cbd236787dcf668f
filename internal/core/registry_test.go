package core

import (
	"testing"

	"hotkeyd/internal/backend"
	"hotkeyd/internal/sched"
	"hotkeyd/internal/targets"
	"hotkeyd/pkg/logx"
)

func newTestRuntime(be backend.Backend, clock sched.Clock) *Runtime {
	log := logx.Nop()
	rt := &Runtime{
		Log:     log,
		Sched:   sched.New(log, clock),
		Backend: be,
		Targets: targets.NewTable(log, nil),
		Actions: NewRegistry(log),
	}
	return rt
}

func TestRegistryCaseInsensitiveLastWriteWins(t *testing.T) {
	t.Parallel()
	rt := newTestRuntime(backend.NewFake(), nil)

	var got string
	rt.Actions.Register("Left_Click", func(p Params, rt *Runtime) sched.Action {
		return func() { got = "first" }
	})
	rt.Actions.Register("LEFT_CLICK", func(p Params, rt *Runtime) sched.Action {
		return func() { got = "second" }
	})

	if n := len(rt.Actions.Names()); n != 1 {
		t.Fatalf("registry entries = %d, want 1", n)
	}
	rt.Actions.New("left_click", nil, rt)()
	if got != "second" {
		t.Fatalf("ran %q factory, want the later registration", got)
	}
}

func TestRegistryUnknownNameIsNoOp(t *testing.T) {
	t.Parallel()
	fake := backend.NewFake()
	rt := newTestRuntime(fake, nil)

	act := rt.Actions.New("does_not_exist", Params{"x": "1"}, rt)
	if act == nil {
		t.Fatal("New returned nil for unknown action")
	}
	act() // must not panic
	if len(fake.Calls) != 0 {
		t.Fatalf("no-op action reached the backend: %v", fake.Calls)
	}
}

func TestRegistryPassesParamsAndRuntime(t *testing.T) {
	t.Parallel()
	rt := newTestRuntime(backend.NewFake(), nil)

	var seen Params
	rt.Actions.Register("probe", func(p Params, got *Runtime) sched.Action {
		if got != rt {
			t.Error("factory received a different runtime")
		}
		seen = p
		return func() {}
	})
	rt.Actions.New("probe", Params{"command": "notepad.exe"}, rt)
	if seen.Get("command", "") != "notepad.exe" {
		t.Fatalf("params = %v", seen)
	}
}

func TestParamsHelpers(t *testing.T) {
	t.Parallel()
	p := Params{"a": " x ", "b": ""}
	if p.Get("a", "d") != "x" {
		t.Fatalf("Get trims: %q", p.Get("a", "d"))
	}
	if p.Get("b", "d") != "d" || p.Get("missing", "d") != "d" {
		t.Fatal("Get default")
	}
	c := p.Clone()
	c["a"] = "y"
	if p["a"] != " x " {
		t.Fatal("Clone not independent")
	}
}
