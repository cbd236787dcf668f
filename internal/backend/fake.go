package backend

import "fmt"

// Fake is a recording backend for tests. Every capability call is appended to
// Calls as a compact string; hotkey triggers are injected with Fire and
// delivered by Pump, mirroring the real drivers' pump path.
type Fake struct {
	Calls    []string
	WindowsL []Window
	FailNext error // returned by the next capability call, then cleared

	hooks   map[string]func()
	pending []string
}

func NewFake() *Fake {
	return &Fake{hooks: map[string]func(){}}
}

func (f *Fake) record(format string, args ...any) error {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
	if err := f.FailNext; err != nil {
		f.FailNext = nil
		return err
	}
	return nil
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) StartProcess(command string, args []string) (int, error) {
	if err := f.record("start_process %s %v", command, args); err != nil {
		return 0, err
	}
	return 4321, nil
}

func (f *Fake) KillProcess(pid int, name string) error {
	return f.record("kill_process pid=%d name=%s", pid, name)
}

func (f *Fake) Click(button string, x, y int) error {
	return f.record("click %s %d,%d", button, x, y)
}

func (f *Fake) MoveMouse(x, y int) error { return f.record("move_mouse %d,%d", x, y) }

func (f *Fake) SendKeys(chord string) error { return f.record("send_keys %s", chord) }

func (f *Fake) TypeText(text string) error { return f.record("type_text %s", text) }

func (f *Fake) Windows() ([]Window, error) {
	if err := f.FailNext; err != nil {
		f.FailNext = nil
		return nil, err
	}
	return f.WindowsL, nil
}

func (f *Fake) ActivateWindow(w Window) error { return f.record("activate %s", w.Title) }

func (f *Fake) MoveWindow(w Window, x, y, width, height int) error {
	return f.record("move_window %s %d,%d %dx%d", w.Title, x, y, width, height)
}

func (f *Fake) MinimizeWindow(w Window) error { return f.record("minimize %s", w.Title) }

func (f *Fake) CloseWindow(w Window) error { return f.record("close %s", w.Title) }

func (f *Fake) RegisterHotkey(hk Hotkey, fn func()) error {
	key := hk.String()
	if _, ok := f.hooks[key]; ok {
		return ErrHotkeyClaimed
	}
	f.hooks[key] = fn
	return nil
}

func (f *Fake) UnregisterHotkey(hk Hotkey) { delete(f.hooks, hk.String()) }

func (f *Fake) UnregisterAll() {
	f.hooks = map[string]func(){}
	f.pending = nil
}

// Hooked reports whether a chord currently has a registered callback.
func (f *Fake) Hooked(chord string) bool {
	_, ok := f.hooks[chord]
	return ok
}

// Fire queues a trigger event for the chord; the callback runs on Pump.
func (f *Fake) Fire(chord string) { f.pending = append(f.pending, chord) }

func (f *Fake) Pump() bool {
	if len(f.pending) == 0 {
		return false
	}
	fired := false
	queue := f.pending
	f.pending = nil
	for _, chord := range queue {
		if fn, ok := f.hooks[chord]; ok && fn != nil {
			fired = true
			fn()
		}
	}
	return fired
}

func (f *Fake) Close() error {
	f.UnregisterAll()
	return nil
}
