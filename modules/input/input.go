// Package input registers keyboard/mouse simulation actions backed by the
// backend's input capabilities.
package input

import (
	"context"
	"strconv"

	"hotkeyd/internal/core"
	"hotkeyd/internal/sched"
	"hotkeyd/pkg/logx"
)

type Module struct {
	log logx.Logger
}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "input" }

func (m *Module) Install(ctx context.Context, rt *core.Runtime) error {
	m.log = rt.Log.With(logx.String("module", m.Name()))

	rt.Actions.Register("left_click", m.click("left"))
	rt.Actions.Register("right_click", m.click("right"))
	rt.Actions.Register("middle_click", m.click("middle"))
	rt.Actions.Register("mouse_move", m.mouseMove)
	rt.Actions.Register("key_press", m.keyPress)
	rt.Actions.Register("type_text", m.typeText)
	return nil
}

func (m *Module) Shutdown(ctx context.Context) error { return nil }

// click clicks at `x`,`y`; without coordinates it clicks in place (-1,-1).
func (m *Module) click(button string) core.Factory {
	return func(p core.Params, rt *core.Runtime) sched.Action {
		be := rt.Backend
		log := m.log
		x, y, err := coords(p, -1, -1)
		if err != nil {
			log.Warn("click: bad coordinates", logx.String("button", button), logx.Err(err))
			return nil
		}
		return func() {
			if err := be.Click(button, x, y); err != nil {
				log.Error("click failed", logx.String("button", button), logx.Err(err))
			}
		}
	}
}

func (m *Module) mouseMove(p core.Params, rt *core.Runtime) sched.Action {
	be := rt.Backend
	log := m.log
	x, y, err := coords(p, 0, 0)
	if err != nil {
		log.Warn("mouse_move: bad coordinates", logx.Err(err))
		return nil
	}
	return func() {
		if err := be.MoveMouse(x, y); err != nil {
			log.Error("mouse_move failed", logx.Err(err))
		}
	}
}

// key_press sends a chord like "ctrl+shift+v" through the backend.
func (m *Module) keyPress(p core.Params, rt *core.Runtime) sched.Action {
	be := rt.Backend
	log := m.log
	keys := p.Get("keys", "")
	if keys == "" {
		log.Warn("key_press: missing keys param")
		return nil
	}
	return func() {
		if err := be.SendKeys(keys); err != nil {
			log.Error("key_press failed", logx.String("keys", keys), logx.Err(err))
		}
	}
}

func (m *Module) typeText(p core.Params, rt *core.Runtime) sched.Action {
	be := rt.Backend
	log := m.log
	text, ok := p["text"]
	if !ok || text == "" {
		log.Warn("type_text: missing text param")
		return nil
	}
	return func() {
		if err := be.TypeText(text); err != nil {
			log.Error("type_text failed", logx.Err(err))
		}
	}
}

func coords(p core.Params, defX, defY int) (int, int, error) {
	x, err := atoiParam(p, "x", defX)
	if err != nil {
		return 0, 0, err
	}
	y, err := atoiParam(p, "y", defY)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func atoiParam(p core.Params, key string, def int) (int, error) {
	v := p.Get(key, "")
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
