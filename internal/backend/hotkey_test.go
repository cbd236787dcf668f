package backend

import (
	"testing"

	"hotkeyd/pkg/logx"
)

func nopLogger() logx.Logger { return logx.Nop() }

func TestParseChordVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain key", raw: "f1", want: "f1"},
		{name: "single modifier", raw: "ctrl+t", want: "ctrl+t"},
		{name: "case insensitive", raw: "Ctrl+Alt+T", want: "alt+ctrl+t"},
		{name: "modifier order normalized", raw: "alt+ctrl+t", want: "alt+ctrl+t"},
		{name: "aliases", raw: "Control+Super+x", want: "ctrl+win+x"},
		{name: "duplicate modifiers collapsed", raw: "ctrl+control+c", want: "ctrl+c"},
		{name: "spaces tolerated", raw: " shift + space ", want: "shift+space"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			hk, err := ParseChord(tt.raw)
			if err != nil {
				t.Fatalf("ParseChord(%q) error: %v", tt.raw, err)
			}
			if hk.String() != tt.want {
				t.Fatalf("ParseChord(%q) = %q, want %q", tt.raw, hk.String(), tt.want)
			}
		})
	}
}

func TestParseChordInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "ctrl+", "+t", "bogus+t", "ctrl+shift", "ctrl"} {
		if _, err := ParseChord(raw); err == nil {
			t.Fatalf("ParseChord(%q) succeeded, want error", raw)
		}
	}
}

func TestNullBackendHotkeyClaim(t *testing.T) {
	t.Parallel()
	b := newNull(nopLogger())
	hk, err := ParseChord("ctrl+alt+t")
	if err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterHotkey(hk, func() {}); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := b.RegisterHotkey(hk, func() {}); err != ErrHotkeyClaimed {
		t.Fatalf("second registration err = %v, want ErrHotkeyClaimed", err)
	}
	b.UnregisterHotkey(hk)
	if err := b.RegisterHotkey(hk, func() {}); err != nil {
		t.Fatalf("re-registration after unregister failed: %v", err)
	}
}

func TestNullBackendPumpDrainsQueue(t *testing.T) {
	t.Parallel()
	b := newNull(nopLogger())
	hk, _ := ParseChord("ctrl+x")
	fired := 0
	if err := b.RegisterHotkey(hk, func() { fired++ }); err != nil {
		t.Fatal(err)
	}

	if b.Pump() {
		t.Fatal("pump reported events on empty queue")
	}
	b.Inject("ctrl+x")
	b.Inject("ctrl+x")
	b.Inject("unbound+chord") // unknown chords are dropped silently
	if !b.Pump() {
		t.Fatal("pump reported no events")
	}
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
	if b.Pump() {
		t.Fatal("queue not drained")
	}
}
