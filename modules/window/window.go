// Package window registers window-management actions. Windows are addressed
// symbolically: either by a named target from the target table ("target"
// param) or by an ad-hoc title glob ("title" param). Resolution happens at
// fire time against the backend's current window list, so a binding keeps
// working across window churn.
package window

import (
	"context"
	"strconv"

	"hotkeyd/internal/backend"
	"hotkeyd/internal/core"
	"hotkeyd/internal/sched"
	"hotkeyd/internal/targets"
	"hotkeyd/pkg/logx"
)

type Module struct {
	log logx.Logger
}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "window" }

func (m *Module) Install(ctx context.Context, rt *core.Runtime) error {
	m.log = rt.Log.With(logx.String("module", m.Name()))

	activate := m.windowOp("activate", func(be backend.Backend, w backend.Window) error {
		return be.ActivateWindow(w)
	})
	minimize := m.windowOp("minimize", func(be backend.Backend, w backend.Window) error {
		return be.MinimizeWindow(w)
	})
	closeWin := m.windowOp("close", func(be backend.Backend, w backend.Window) error {
		return be.CloseWindow(w)
	})

	rt.Actions.Register("window_activate", activate)
	rt.Actions.Register("window_minimize", minimize)
	rt.Actions.Register("window_close", closeWin)
	rt.Actions.Register("window_move", m.windowMove)
	rt.Actions.Register("target_save", m.targetSave)
	rt.Actions.Register("target_delete", m.targetDelete)

	// The uia_action binding flavor maps onto the same window operations.
	rt.Actions.Register("uia_activate", activate)
	rt.Actions.Register("uia_minimize", minimize)
	rt.Actions.Register("uia_close", closeWin)
	rt.Actions.Register("uia_move", m.windowMove)
	return nil
}

func (m *Module) Shutdown(ctx context.Context) error { return nil }

// resolver picks the window a binding refers to, re-evaluated per firing.
type resolver func() (backend.Window, bool)

func (m *Module) newResolver(name string, p core.Params, rt *core.Runtime) resolver {
	be := rt.Backend
	tbl := rt.Targets
	log := m.log
	target := p.Get("target", "")
	title := p.Get("title", "")
	if target == "" && title == "" {
		log.Warn("window action needs a target or title param", logx.String("action", name))
		return nil
	}
	return func() (backend.Window, bool) {
		wins, err := be.Windows()
		if err != nil {
			log.Error("window enumeration failed", logx.Err(err))
			return backend.Window{}, false
		}
		if target != "" {
			w, ok := tbl.Match(target, wins)
			if !ok {
				log.Warn("no window matches target", logx.String("target", target))
			}
			return w, ok
		}
		w, ok := targets.MatchTitle(title, wins)
		if !ok {
			log.Warn("no window matches title", logx.String("title", title))
		}
		return w, ok
	}
}

func (m *Module) windowOp(name string, op func(backend.Backend, backend.Window) error) core.Factory {
	return func(p core.Params, rt *core.Runtime) sched.Action {
		be := rt.Backend
		log := m.log
		resolve := m.newResolver(name, p, rt)
		if resolve == nil {
			return nil
		}
		return func() {
			w, ok := resolve()
			if !ok {
				return
			}
			if err := op(be, w); err != nil {
				log.Error("window operation failed",
					logx.String("op", name), logx.String("title", w.Title), logx.Err(err))
			}
		}
	}
}

// window_move repositions and optionally resizes; width/height 0 keeps size.
func (m *Module) windowMove(p core.Params, rt *core.Runtime) sched.Action {
	be := rt.Backend
	log := m.log
	resolve := m.newResolver("move", p, rt)
	if resolve == nil {
		return nil
	}
	x, err1 := atoiParam(p, "x", 0)
	y, err2 := atoiParam(p, "y", 0)
	width, err3 := atoiParam(p, "width", 0)
	height, err4 := atoiParam(p, "height", 0)
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			log.Warn("window_move: bad geometry param", logx.Err(err))
			return nil
		}
	}
	return func() {
		w, ok := resolve()
		if !ok {
			return
		}
		if err := be.MoveWindow(w, x, y, width, height); err != nil {
			log.Error("window move failed", logx.String("title", w.Title), logx.Err(err))
		}
	}
}

// target_save records a named target: name + title glob + optional class.
// Fired rather than executed at bind time so it can sit in sequences.
func (m *Module) targetSave(p core.Params, rt *core.Runtime) sched.Action {
	tbl := rt.Targets
	log := m.log
	name := p.Get("name", p.Get("target", ""))
	title := p.Get("title", "")
	class := p.Get("class", "")
	if name == "" || title == "" {
		log.Warn("target_save: need name and title params")
		return nil
	}
	return func() {
		if err := tbl.Put(context.Background(), targets.Target{Name: name, Title: title, Class: class}); err != nil {
			log.Error("target save failed", logx.String("target", name), logx.Err(err))
			return
		}
		log.Info("target saved", logx.String("target", name), logx.String("title", title))
	}
}

func (m *Module) targetDelete(p core.Params, rt *core.Runtime) sched.Action {
	tbl := rt.Targets
	log := m.log
	name := p.Get("name", p.Get("target", ""))
	if name == "" {
		log.Warn("target_delete: missing name param")
		return nil
	}
	return func() {
		if err := tbl.Delete(context.Background(), name); err != nil {
			log.Error("target delete failed", logx.String("target", name), logx.Err(err))
		}
	}
}

func atoiParam(p core.Params, key string, def int) (int, error) {
	v := p.Get(key, "")
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
