package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (json snapshot + jsonl audit)
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// TargetRecord is one persisted named window target.
type TargetRecord struct {
	Name  string `json:"name"`
	Title string `json:"title"`           // window title glob
	Class string `json:"class,omitempty"` // optional window class
}

// AuditEntry records one dispatched action.
// Keep it compact and schema-stable.
type AuditEntry struct {
	At      time.Time
	Binding string // trigger descriptor, e.g. "ctrl+alt+t" or a cron spec
	Action  string
	Target  string
	OK      bool
	Error   string
	TookMS  int64
}
