package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root of the hotkeyd config file (JSON or YAML).
type Config struct {
	Logging  LoggingConfig `json:"logging" yaml:"logging"`
	Loop     LoopConfig    `json:"loop" yaml:"loop"`
	Backend  BackendConfig `json:"backend" yaml:"backend"`
	Storage  StorageConfig `json:"storage" yaml:"storage"`
	Notify   NotifyConfig  `json:"notify" yaml:"notify"`
	Bindings []Binding     `json:"bindings" yaml:"bindings"`
}

type LoggingConfig struct {
	Level   string      `json:"level" yaml:"level"`
	Console bool        `json:"console" yaml:"console"`
	File    LoggingFile `json:"file" yaml:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// LoopConfig tunes the host event loop.
type LoopConfig struct {
	// TickInterval is how long the loop sleeps when no trigger events are
	// pending, i.e. the scheduler's tick granularity. Go duration string.
	TickInterval string `json:"tick_interval,omitempty" yaml:"tick_interval"`
}

// Tick resolves the tick interval, falling back to def when unset.
func (l LoopConfig) Tick(def time.Duration) (time.Duration, error) {
	d, err := parseWait("loop.tick_interval", l.TickInterval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

type BackendConfig struct {
	// Driver selects the backend variant: "null" (default) or "exec".
	Driver string `json:"driver,omitempty" yaml:"driver"`
	// KillTimeout is the grace period before kill escalates (exec driver).
	KillTimeout string `json:"kill_timeout,omitempty" yaml:"kill_timeout"`
}

// Grace resolves the kill grace period; zero means the driver default.
func (b BackendConfig) Grace() (time.Duration, error) {
	return parseWait("backend.kill_timeout", b.KillTimeout)
}

type StorageConfig struct {
	// Driver: "none" (default), "file" or "sqlite".
	Driver string `json:"driver,omitempty" yaml:"driver"`
	Path   string `json:"path,omitempty" yaml:"path"`
	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty" yaml:"busy_timeout"`
}

// Busy resolves the sqlite busy timeout; zero means the driver default.
func (s StorageConfig) Busy() (time.Duration, error) {
	return parseWait("storage.busy_timeout", s.BusyTimeout)
}

// NotifyConfig configures the Telegram notify module.
type NotifyConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Token   string `json:"token,omitempty" yaml:"token"`
	ChatID  int64  `json:"chat_id,omitempty" yaml:"chat_id"`
}

// Binding declares one trigger-to-action rule. Exactly one of Keys or
// Schedule names the trigger; exactly one of Action or UIAction names the
// action; at most one of Delay, Repeat or Steps sets the timing policy
// (Steps wins over Repeat, Repeat over Delay).
type Binding struct {
	// Keys is a hotkey chord, e.g. "ctrl+alt+t".
	Keys string `json:"keys,omitempty" yaml:"keys"`
	// Schedule is a standard 5-field cron spec, e.g. "0 9 * * 1-5".
	Schedule string `json:"schedule,omitempty" yaml:"schedule"`
	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled"`

	Action   string            `json:"action,omitempty" yaml:"action"`
	UIAction string            `json:"uia_action,omitempty" yaml:"uia_action"`
	Params   map[string]string `json:"params,omitempty" yaml:"params"`

	// Target names a window target injected into the action params unless
	// the params already carry an explicit "target".
	Target string `json:"target,omitempty" yaml:"target"`

	// Delay, Repeat are Go duration strings.
	Delay  string         `json:"delay,omitempty" yaml:"delay"`
	Repeat string         `json:"repeat,omitempty" yaml:"repeat"`
	Steps  []SequenceStep `json:"steps,omitempty" yaml:"steps"`
}

// SequenceStep is one (delay, action) pair of a multi-step binding.
type SequenceStep struct {
	Delay  string            `json:"delay,omitempty" yaml:"delay"`
	Action string            `json:"action" yaml:"action"`
	Params map[string]string `json:"params,omitempty" yaml:"params"`
}

// IsEnabled reports the binding's enabled flag, defaulting to true.
func (b Binding) IsEnabled() bool { return b.Enabled == nil || *b.Enabled }

// ActionName resolves the registry key: the direct action name, or the
// UI-automation flavor prefixed "uia_".
func (b Binding) ActionName() string {
	if strings.TrimSpace(b.Action) != "" {
		return b.Action
	}
	if strings.TrimSpace(b.UIAction) != "" {
		return "uia_" + strings.TrimSpace(b.UIAction)
	}
	return ""
}

// TriggerDesc renders the trigger for logs and audit rows.
func (b Binding) TriggerDesc() string {
	if strings.TrimSpace(b.Keys) != "" {
		return strings.TrimSpace(b.Keys)
	}
	if strings.TrimSpace(b.Schedule) != "" {
		return "cron:" + strings.TrimSpace(b.Schedule)
	}
	return "(none)"
}

// Timing resolves the binding's one-shot delay and repeat interval.
func (b Binding) Timing() (delay, repeat time.Duration, err error) {
	if delay, err = parseWait("delay", b.Delay); err != nil {
		return 0, 0, err
	}
	if repeat, err = parseWait("repeat", b.Repeat); err != nil {
		return 0, 0, err
	}
	return delay, repeat, nil
}

// Wait resolves the step's delay relative to the previous step.
func (s SequenceStep) Wait() (time.Duration, error) {
	return parseWait("delay", s.Delay)
}

// Validate checks the pieces a single binding needs before dispatch setup.
// Timing-policy durations are validated here so a bad entry is skipped early.
func (b Binding) Validate() error {
	keys := strings.TrimSpace(b.Keys)
	schedule := strings.TrimSpace(b.Schedule)
	if keys == "" && schedule == "" {
		return fmt.Errorf("no resolvable trigger (need keys or schedule)")
	}
	if keys != "" && schedule != "" {
		return fmt.Errorf("ambiguous trigger (both keys and schedule set)")
	}
	if b.ActionName() == "" && len(b.Steps) == 0 {
		return fmt.Errorf("no action name")
	}
	if strings.TrimSpace(b.Action) != "" && strings.TrimSpace(b.UIAction) != "" {
		return fmt.Errorf("ambiguous action (both action and uia_action set)")
	}
	if _, _, err := b.Timing(); err != nil {
		return err
	}
	for i, st := range b.Steps {
		if strings.TrimSpace(st.Action) == "" {
			return fmt.Errorf("steps[%d]: no action name", i)
		}
		if _, err := st.Wait(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

// parseWait parses a non-negative Go duration string; empty means zero.
func parseWait(field, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", field)
	}
	return d, nil
}
