// Package targets holds the named window-target table: user-chosen names
// mapped to window title globs, shared through the runtime context so actions
// can refer to windows symbolically ("editor") instead of by raw title.
package targets

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"hotkeyd/internal/backend"
	"hotkeyd/internal/storage"
	"hotkeyd/pkg/logx"
)

// Target names a window by title glob and optional class.
type Target struct {
	Name  string
	Title string
	Class string
}

// Table is the in-memory target set. It is owned by the event-loop goroutine;
// persistence through the store is best-effort and optional.
type Table struct {
	log   logx.Logger
	store storage.Store

	m     map[string]Target
	globs map[string]glob.Glob
}

func NewTable(log logx.Logger, store storage.Store) *Table {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Table{
		log:   log,
		store: store,
		m:     map[string]Target{},
		globs: map[string]glob.Glob{},
	}
}

// Load replaces the table contents with the persisted target set.
// Without a store it is a no-op.
func (t *Table) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	recs, err := t.store.ListTargets(ctx)
	if err != nil {
		return err
	}
	t.m = make(map[string]Target, len(recs))
	t.globs = make(map[string]glob.Glob, len(recs))
	for _, r := range recs {
		tg := Target{Name: r.Name, Title: r.Title, Class: r.Class}
		if err := t.put(tg); err != nil {
			t.log.Warn("skipping persisted target with bad glob",
				logx.String("target", r.Name), logx.Err(err))
		}
	}
	t.log.Debug("targets loaded", logx.Int("count", len(t.m)))
	return nil
}

func (t *Table) put(tg Target) error {
	g, err := glob.Compile(strings.ToLower(tg.Title))
	if err != nil {
		return err
	}
	t.m[tg.Name] = tg
	t.globs[tg.Name] = g
	return nil
}

// Put inserts or replaces a target and persists it when a store is present.
func (t *Table) Put(ctx context.Context, tg Target) error {
	if strings.TrimSpace(tg.Name) == "" {
		return errors.New("target name is required")
	}
	if strings.TrimSpace(tg.Title) == "" {
		return errors.New("target title glob is required")
	}
	if err := t.put(tg); err != nil {
		return err
	}
	if t.store != nil {
		return t.store.PutTarget(ctx, storage.TargetRecord{Name: tg.Name, Title: tg.Title, Class: tg.Class})
	}
	return nil
}

// Delete removes a target; unknown names are a no-op.
func (t *Table) Delete(ctx context.Context, name string) error {
	delete(t.m, name)
	delete(t.globs, name)
	if t.store != nil {
		return t.store.DeleteTarget(ctx, name)
	}
	return nil
}

// Resolve looks up a target by name.
func (t *Table) Resolve(name string) (Target, bool) {
	tg, ok := t.m[name]
	return tg, ok
}

// Names returns the target names, sorted.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.m))
	for n := range t.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Match finds the first window matching the named target: title glob
// (case-insensitive) plus exact class when the target specifies one.
// Window order is the backend's enumeration order.
func (t *Table) Match(name string, windows []backend.Window) (backend.Window, bool) {
	g, ok := t.globs[name]
	if !ok {
		return backend.Window{}, false
	}
	tg := t.m[name]
	for _, w := range windows {
		if !g.Match(strings.ToLower(w.Title)) {
			continue
		}
		if tg.Class != "" && tg.Class != w.Class {
			continue
		}
		return w, true
	}
	return backend.Window{}, false
}

// MatchTitle matches windows against an ad-hoc title glob, for actions that
// carry a raw title parameter instead of a named target.
func MatchTitle(pattern string, windows []backend.Window) (backend.Window, bool) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return backend.Window{}, false
	}
	for _, w := range windows {
		if g.Match(strings.ToLower(w.Title)) {
			return w, true
		}
	}
	return backend.Window{}, false
}
