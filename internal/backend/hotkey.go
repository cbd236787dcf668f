package backend

import (
	"fmt"
	"sort"
	"strings"
)

// Hotkey is a normalized trigger descriptor: a set of modifiers plus one key.
// Two chords that differ only in case or modifier order are the same hotkey.
type Hotkey struct {
	Mods []string // sorted, lower-case subset of ctrl/alt/shift/win
	Key  string   // lower-case key name, e.g. "t", "f1", "space"
}

// String renders the canonical chord form, e.g. "ctrl+alt+t".
func (h Hotkey) String() string {
	if len(h.Mods) == 0 {
		return h.Key
	}
	return strings.Join(h.Mods, "+") + "+" + h.Key
}

var modAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"shift":   "shift",
	"win":     "win",
	"super":   "win",
	"meta":    "win",
	"cmd":     "win",
}

// ParseChord parses a chord like "Ctrl+Alt+T" into a normalized Hotkey.
// The last element is the key; everything before it must be a modifier.
func ParseChord(raw string) (Hotkey, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Hotkey{}, fmt.Errorf("empty hotkey chord")
	}
	parts := strings.Split(s, "+")
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
		if parts[i] == "" {
			return Hotkey{}, fmt.Errorf("invalid hotkey chord %q", raw)
		}
	}

	key := parts[len(parts)-1]
	mods := parts[:len(parts)-1]

	seen := map[string]bool{}
	out := make([]string, 0, len(mods))
	for _, m := range mods {
		canon, ok := modAliases[m]
		if !ok {
			return Hotkey{}, fmt.Errorf("invalid hotkey chord %q: unknown modifier %q", raw, m)
		}
		if seen[canon] {
			continue
		}
		seen[canon] = true
		out = append(out, canon)
	}
	sort.Strings(out)

	// A bare modifier is not a key ("ctrl+" or just "shift").
	if _, isMod := modAliases[key]; isMod {
		return Hotkey{}, fmt.Errorf("invalid hotkey chord %q: missing key", raw)
	}

	return Hotkey{Mods: out, Key: key}, nil
}
