package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hotkeyd/internal/backend"
	"hotkeyd/internal/config"
	"hotkeyd/internal/sched"
	"hotkeyd/internal/storage"
	"hotkeyd/internal/targets"
	"hotkeyd/pkg/logx"
)

const defaultTickInterval = 50 * time.Millisecond

// App wires the daemon: config, logging, backend, store, scheduler, modules
// and the dispatcher. Everything except the config watcher runs on the
// goroutine that calls Run.
type App struct {
	cfgm *config.Manager

	logs *logx.Service
	log  logx.Logger

	be    backend.Backend
	store storage.Store
	sch   *sched.Scheduler
	rt    *Runtime

	mm   *ModuleManager
	disp *Dispatcher

	tick time.Duration
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	// No backend means nothing can ever dispatch: the one fatal setup error.
	killTimeout, err := cfg.Backend.Grace()
	if err != nil {
		return nil, err
	}
	be, err := backend.Open(backend.Config{
		Driver:      cfg.Backend.Driver,
		KillTimeout: killTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	// Storage is an enrichment; a broken store degrades to running without
	// persistence rather than refusing to start.
	busy, err := cfg.Storage.Busy()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		log.Error("storage unavailable; continuing without persistence", logx.Err(err))
		store = nil
	}

	tick, err := cfg.Loop.Tick(defaultTickInterval)
	if err != nil {
		return nil, err
	}

	sch := sched.New(log.With(logx.String("comp", "sched")), nil)

	tbl := targets.NewTable(log.With(logx.String("comp", "targets")), store)
	if err := tbl.Load(context.Background()); err != nil {
		log.Warn("loading persisted targets failed", logx.Err(err))
	}

	reg := NewRegistry(log.With(logx.String("comp", "actions")))

	rt := &Runtime{
		Log:     log,
		Sched:   sch,
		Backend: be,
		Targets: tbl,
		Actions: reg,
		Store:   store,
		Config:  cfgm,
	}

	return &App{
		cfgm:  cfgm,
		logs:  logSvc,
		log:   log,
		be:    be,
		store: store,
		sch:   sch,
		rt:    rt,
		mm:    NewModuleManager(log.With(logx.String("comp", "modules")), rt),
		disp:  NewDispatcher(rt, log.With(logx.String("comp", "dispatch"))),
		tick:  tick,
	}, nil
}

func (a *App) Modules() *ModuleManager { return a.mm }

// Runtime exposes the shared aggregate, mainly for tests and tooling.
func (a *App) Runtime() *Runtime { return a.rt }

// Start installs modules, attaches bindings and starts the config watcher.
func (a *App) Start(ctx context.Context) error {
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		// Global fields must parse; per-binding problems stay per-binding
		// and never reject a whole reload.
		if _, err := cfg.Loop.Tick(defaultTickInterval); err != nil {
			return err
		}
		if _, err := cfg.Storage.Busy(); err != nil {
			return err
		}
		if _, err := cfg.Backend.Grace(); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(cfg.Backend.Driver)) {
		case "", "null", "exec":
		default:
			return fmt.Errorf("backend.driver: unknown driver %q", cfg.Backend.Driver)
		}
		return nil
	})

	a.mm.InstallAll(ctx)

	cfg := a.cfgm.Get()
	a.disp.Bind(cfg.Bindings)

	go func() { _ = a.cfgm.Watch(ctx) }()

	a.log.Info("app started",
		logx.String("backend", a.be.Name()),
		logx.Duration("tick", a.tick),
		logx.Int("bindings", a.disp.Bound()),
	)
	return nil
}

// Run is the host event loop: drain pending trigger events; when idle, tick
// the scheduler once and sleep one tick interval. Config reloads published by
// the watcher are applied here so all core state stays single-threaded.
func (a *App) Run(ctx context.Context) error {
	sub := a.cfgm.Updates()

	timer := time.NewTimer(a.tick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case newCfg := <-sub:
			a.applyConfig(newCfg)
			continue
		default:
		}

		if a.be.Pump() {
			// More trigger events may be queued; drain before ticking.
			continue
		}
		a.sch.Tick()

		timer.Reset(a.tick)
		select {
		case <-ctx.Done():
			return nil
		case newCfg := <-sub:
			a.applyConfig(newCfg)
		case <-timer.C:
		}
	}
}

func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if tick, err := cfg.Loop.Tick(defaultTickInterval); err == nil {
		a.tick = tick
	}
	a.disp.Rebind(cfg.Bindings)
	a.log.Info("config reloaded", logx.Int("bindings", a.disp.Bound()))
}

// Stop tears the app down in reverse construction order.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("stopping")
	a.disp.Close()
	a.mm.ShutdownAll(ctx)
	if err := a.be.Close(); err != nil {
		a.log.Warn("backend close error", logx.Err(err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", logx.Err(err))
		}
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return nil
}
