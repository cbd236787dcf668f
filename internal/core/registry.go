package core

import (
	"sort"
	"strings"

	"hotkeyd/internal/sched"
	"hotkeyd/pkg/logx"
)

// Params is the parameter map of one action instance: string keys and values,
// insertion order irrelevant. The core never interprets values; factories do.
type Params map[string]string

// Get returns the trimmed value for key, or def when absent/empty.
func (p Params) Get(key, def string) string {
	if v, ok := p[key]; ok {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return def
}

// Clone returns a shallow copy. Factories that mutate params (target
// injection) work on a clone so the declarative source stays untouched.
func (p Params) Clone() Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Factory binds a parameter map and runtime context into a ready Action.
type Factory func(p Params, rt *Runtime) sched.Action

// Registry maps action names to factories. Names are case-insensitive;
// re-registering a name replaces its factory (last write wins).
type Registry struct {
	log       logx.Logger
	factories map[string]Factory
}

func NewRegistry(log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		log:       log,
		factories: map[string]Factory{},
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register installs factory under name. Replacing an existing registration is
// allowed and logged, not an error: modules installed later win.
func (r *Registry) Register(name string, factory Factory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		r.log.Warn("ignoring invalid action registration", logx.String("action", name))
		return
	}
	if _, exists := r.factories[key]; exists {
		r.log.Debug("action factory replaced", logx.String("action", key))
	}
	r.factories[key] = factory
}

// New creates the Action bound to name and params. An unregistered name
// degrades to a warning plus a no-op Action; the caller never fails.
func (r *Registry) New(name string, p Params, rt *Runtime) sched.Action {
	key := normalizeName(name)
	factory, ok := r.factories[key]
	if !ok {
		r.log.Warn("unknown action; using no-op", logx.String("action", name))
		return func() {}
	}
	if p == nil {
		p = Params{}
	}
	a := factory(p, rt)
	if a == nil {
		r.log.Warn("action factory returned nil; using no-op", logx.String("action", key))
		return func() {}
	}
	return a
}

// Names lists registered action names, sorted, for diagnostics.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
