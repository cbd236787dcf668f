package core

import (
	"hotkeyd/internal/backend"
	"hotkeyd/internal/config"
	"hotkeyd/internal/sched"
	"hotkeyd/internal/storage"
	"hotkeyd/internal/targets"
	"hotkeyd/pkg/logx"
)

// Runtime is the shared aggregate threaded through action factories and
// module install hooks. It is built once per process run, torn down once at
// shutdown, and only ever touched from the event-loop goroutine.
//
// Factories must snapshot the narrow handles they need (Log, Backend, Sched)
// at creation time rather than keeping the Runtime pointer: later module
// installs keep mutating the aggregate, and an Action that dereferences it at
// fire time observes whatever state the aggregate has drifted to.
type Runtime struct {
	Log     logx.Logger
	Sched   *sched.Scheduler
	Backend backend.Backend
	Targets *targets.Table
	Actions *Registry
	Store   storage.Store
	Config  *config.Manager
}
