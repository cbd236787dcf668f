package backend

import (
	"hotkeyd/pkg/logx"
)

// nullBackend logs every capability call and performs none of them. It still
// keeps a real hotkey table and event queue, so triggers injected
// programmatically (tests, tooling) flow through the normal pump path.
type nullBackend struct {
	log logx.Logger

	hooks   map[string]func()
	pending []string
}

func newNull(log logx.Logger) *nullBackend {
	return &nullBackend{
		log:   log.With(logx.String("backend", "null")),
		hooks: map[string]func(){},
	}
}

func (b *nullBackend) Name() string { return "null" }

func (b *nullBackend) StartProcess(command string, args []string) (int, error) {
	b.log.Info("start process (dry run)", logx.String("command", command), logx.Any("args", args))
	return 0, nil
}

func (b *nullBackend) KillProcess(pid int, name string) error {
	b.log.Info("kill process (dry run)", logx.Int("pid", pid), logx.String("name", name))
	return nil
}

func (b *nullBackend) Click(button string, x, y int) error {
	b.log.Info("click (dry run)", logx.String("button", button), logx.Int("x", x), logx.Int("y", y))
	return nil
}

func (b *nullBackend) MoveMouse(x, y int) error {
	b.log.Info("move mouse (dry run)", logx.Int("x", x), logx.Int("y", y))
	return nil
}

func (b *nullBackend) SendKeys(chord string) error {
	b.log.Info("send keys (dry run)", logx.String("keys", chord))
	return nil
}

func (b *nullBackend) TypeText(text string) error {
	b.log.Info("type text (dry run)", logx.Int("len", len(text)))
	return nil
}

func (b *nullBackend) Windows() ([]Window, error) { return nil, nil }

func (b *nullBackend) ActivateWindow(w Window) error {
	b.log.Info("activate window (dry run)", logx.String("title", w.Title))
	return nil
}

func (b *nullBackend) MoveWindow(w Window, x, y, width, height int) error {
	b.log.Info("move window (dry run)", logx.String("title", w.Title),
		logx.Int("x", x), logx.Int("y", y), logx.Int("w", width), logx.Int("h", height))
	return nil
}

func (b *nullBackend) MinimizeWindow(w Window) error {
	b.log.Info("minimize window (dry run)", logx.String("title", w.Title))
	return nil
}

func (b *nullBackend) CloseWindow(w Window) error {
	b.log.Info("close window (dry run)", logx.String("title", w.Title))
	return nil
}

func (b *nullBackend) RegisterHotkey(hk Hotkey, fn func()) error {
	key := hk.String()
	if _, ok := b.hooks[key]; ok {
		return ErrHotkeyClaimed
	}
	b.hooks[key] = fn
	b.log.Debug("hotkey registered", logx.String("chord", key))
	return nil
}

func (b *nullBackend) UnregisterHotkey(hk Hotkey) {
	delete(b.hooks, hk.String())
}

func (b *nullBackend) UnregisterAll() {
	b.hooks = map[string]func(){}
	b.pending = nil
}

// Inject queues a trigger event for the given chord, as if the external event
// source had observed it. The callback runs on the next Pump.
func (b *nullBackend) Inject(chord string) {
	b.pending = append(b.pending, chord)
}

func (b *nullBackend) Pump() bool {
	if len(b.pending) == 0 {
		return false
	}
	fired := false
	queue := b.pending
	b.pending = nil
	for _, chord := range queue {
		if fn, ok := b.hooks[chord]; ok && fn != nil {
			fired = true
			fn()
		}
	}
	return fired
}

func (b *nullBackend) Close() error {
	b.UnregisterAll()
	return nil
}
