// Package process registers process-control actions: starting programs,
// killing them by pid or name, and running shell one-liners.
package process

import (
	"context"
	"strconv"
	"strings"

	"hotkeyd/internal/core"
	"hotkeyd/internal/sched"
	"hotkeyd/pkg/logx"
)

type Module struct {
	log logx.Logger
}

func New() *Module { return &Module{} }

func (m *Module) Name() string { return "process" }

func (m *Module) Install(ctx context.Context, rt *core.Runtime) error {
	m.log = rt.Log.With(logx.String("module", m.Name()))

	rt.Actions.Register("start_process", m.startProcess)
	rt.Actions.Register("kill_process", m.killProcess)
	rt.Actions.Register("run", m.run)
	return nil
}

func (m *Module) Shutdown(ctx context.Context) error { return nil }

// start_process launches `command` with optional whitespace-separated `args`.
func (m *Module) startProcess(p core.Params, rt *core.Runtime) sched.Action {
	be := rt.Backend
	log := m.log
	command := p.Get("command", "")
	if command == "" {
		log.Warn("start_process: missing command param")
		return nil
	}
	args := strings.Fields(p.Get("args", ""))
	return func() {
		pid, err := be.StartProcess(command, args)
		if err != nil {
			log.Error("start_process failed", logx.String("command", command), logx.Err(err))
			return
		}
		log.Debug("process started", logx.String("command", command), logx.Int("pid", pid))
	}
}

// kill_process terminates by `pid` or by image `name`; pid wins when both set.
func (m *Module) killProcess(p core.Params, rt *core.Runtime) sched.Action {
	be := rt.Backend
	log := m.log
	name := p.Get("name", "")
	pid, err := parseIntParam(p, "pid", 0)
	if err != nil {
		log.Warn("kill_process: bad pid param", logx.Err(err))
		return nil
	}
	if pid == 0 && name == "" {
		log.Warn("kill_process: need pid or name param")
		return nil
	}
	return func() {
		if err := be.KillProcess(pid, name); err != nil {
			log.Error("kill_process failed",
				logx.Int("pid", pid), logx.String("name", name), logx.Err(err))
		}
	}
}

// run hands `command` to the shell, for pipelines and redirects.
func (m *Module) run(p core.Params, rt *core.Runtime) sched.Action {
	be := rt.Backend
	log := m.log
	command := p.Get("command", "")
	if command == "" {
		log.Warn("run: missing command param")
		return nil
	}
	shell := p.Get("shell", "/bin/sh")
	return func() {
		if _, err := be.StartProcess(shell, []string{"-c", command}); err != nil {
			log.Error("run failed", logx.String("command", command), logx.Err(err))
		}
	}
}

func parseIntParam(p core.Params, key string, def int) (int, error) {
	v := p.Get(key, "")
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
