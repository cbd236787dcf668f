package core

import (
	"context"

	"hotkeyd/pkg/logx"
)

// Module is an extension installed at startup. Install receives the mutable
// Runtime and typically registers named actions into rt.Actions; Shutdown
// releases whatever the module holds. Hooks run on the main goroutine.
type Module interface {
	Name() string
	Install(ctx context.Context, rt *Runtime) error
	Shutdown(ctx context.Context) error
}

// ModuleManager tracks registered modules and their install order.
type ModuleManager struct {
	log logx.Logger
	rt  *Runtime

	registered []Module
	installed  []Module
}

func NewModuleManager(log logx.Logger, rt *Runtime) *ModuleManager {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ModuleManager{log: log, rt: rt}
}

func (m *ModuleManager) Register(mods ...Module) {
	m.registered = append(m.registered, mods...)
}

// InstallAll runs every module's install hook in registration order. A
// failing module is logged and skipped; the rest still install.
func (m *ModuleManager) InstallAll(ctx context.Context) {
	for _, mod := range m.registered {
		if err := mod.Install(ctx, m.rt); err != nil {
			m.log.Error("module install failed; skipping", logx.String("module", mod.Name()), logx.Err(err))
			continue
		}
		m.installed = append(m.installed, mod)
		m.log.Debug("module installed", logx.String("module", mod.Name()))
	}
	m.log.Info("modules installed",
		logx.Int("installed", len(m.installed)),
		logx.Int("registered", len(m.registered)),
		logx.Int("actions", len(m.rt.Actions.Names())),
	)
}

// ShutdownAll runs shutdown hooks in reverse install order.
func (m *ModuleManager) ShutdownAll(ctx context.Context) {
	for i := len(m.installed) - 1; i >= 0; i-- {
		mod := m.installed[i]
		if err := mod.Shutdown(ctx); err != nil {
			m.log.Warn("module shutdown error", logx.String("module", mod.Name()), logx.Err(err))
		}
	}
	m.installed = nil
}
