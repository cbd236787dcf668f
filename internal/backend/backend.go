package backend

import (
	"errors"
	"strings"
	"time"

	"hotkeyd/pkg/logx"
)

var (
	// ErrHotkeyClaimed is returned when a chord is already registered.
	ErrHotkeyClaimed = errors.New("hotkey already claimed")
	// ErrUnsupported is returned by drivers that do not implement a capability.
	ErrUnsupported = errors.New("operation not supported by backend")
)

// Window describes one top-level window known to the backend.
type Window struct {
	Handle uint64
	Title  string
	Class  string
	PID    int
}

// Backend is the fixed capability set the core depends on. Exactly one
// concrete driver is selected at startup via configuration; the core never
// discovers capabilities at runtime.
//
// All methods are called from the single event-loop goroutine.
type Backend interface {
	Name() string

	// Process control.
	StartProcess(command string, args []string) (pid int, err error)
	KillProcess(pid int, name string) error

	// Input simulation.
	Click(button string, x, y int) error
	MoveMouse(x, y int) error
	SendKeys(chord string) error
	TypeText(text string) error

	// Window query and manipulation.
	Windows() ([]Window, error)
	ActivateWindow(w Window) error
	MoveWindow(w Window, x, y, width, height int) error
	MinimizeWindow(w Window) error
	CloseWindow(w Window) error

	// Trigger registration and event pumping. RegisterHotkey attaches fn to
	// the chord; Pump drains pending trigger events non-blockingly, invoking
	// their callbacks, and reports whether any fired.
	RegisterHotkey(hk Hotkey, fn func()) error
	UnregisterHotkey(hk Hotkey)
	UnregisterAll()
	Pump() bool

	Close() error
}

// Config selects and tunes the backend driver.
//
// Driver values:
//   - "null": every capability call is logged only (dry runs, tests)
//   - "exec": real process control via os/exec; everything else logged
//
// Empty defaults to "null".
type Config struct {
	Driver      string
	KillTimeout time.Duration // exec only; grace before SIGKILL, 0 means default
}

// Open initializes the configured backend driver.
func Open(cfg Config, log logx.Logger) (Backend, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "null":
		return newNull(log), nil
	case "exec":
		return newExec(cfg, log), nil
	default:
		return nil, errors.New("unknown backend driver: " + driver)
	}
}
