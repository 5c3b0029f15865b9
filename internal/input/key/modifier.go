package key

import "strings"

// Modifier is a bit set of held modifier keys.
type Modifier uint8

// Modifier bits.
const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta // Cmd on macOS, Win elsewhere
)

// modifiers lists each modifier in chord order, with the physical key that
// produces it and the names it may be written as. The first name is the
// display name.
var modifiers = [...]struct {
	mod   Modifier
	key   Key
	names []string
}{
	{ModCtrl, KeyCtrl, []string{"Ctrl", "control"}},
	{ModAlt, KeyAlt, []string{"Alt", "option"}},
	{ModShift, KeyShift, []string{"Shift"}},
	{ModMeta, KeyMeta, []string{"Meta", "cmd", "command", "win", "super"}},
}

var modifierByName = func() map[string]Modifier {
	m := make(map[string]Modifier)
	for _, d := range modifiers {
		for _, n := range d.names {
			m[strings.ToLower(n)] = d.mod
		}
	}
	return m
}()

// Has reports whether any bit of mod is set in m.
func (m Modifier) Has(mod Modifier) bool { return m&mod != 0 }

// HasShift reports whether Shift is held.
func (m Modifier) HasShift() bool { return m.Has(ModShift) }

// HasCtrl reports whether Ctrl is held.
func (m Modifier) HasCtrl() bool { return m.Has(ModCtrl) }

// With returns m plus mod.
func (m Modifier) With(mod Modifier) Modifier { return m | mod }

// Without returns m minus mod.
func (m Modifier) Without(mod Modifier) Modifier { return m &^ mod }

// IsEmpty reports whether no modifier is held.
func (m Modifier) IsEmpty() bool { return m == ModNone }

// Codes returns the key codes that hold m, in chord order.
func (m Modifier) Codes() []Code {
	var codes []Code
	for _, d := range modifiers {
		if m.Has(d.mod) {
			codes = append(codes, SpecialCode(d.key))
		}
	}
	return codes
}

// String joins the held modifiers with "+", e.g. "Ctrl+Shift".
func (m Modifier) String() string {
	parts := make([]string, 0, len(modifiers))
	for _, d := range modifiers {
		if m.Has(d.mod) {
			parts = append(parts, d.names[0])
		}
	}
	return strings.Join(parts, "+")
}

// Modifier returns the modifier bit c holds down, or ModNone for keys
// that are not modifiers.
func (c Code) Modifier() Modifier {
	for _, d := range modifiers {
		if c.Key == d.key {
			return d.mod
		}
	}
	return ModNone
}

// ModifierFromName looks a modifier up by any of its names, ignoring case
// and surrounding space.
func ModifierFromName(name string) Modifier {
	return modifierByName[strings.ToLower(strings.TrimSpace(name))]
}

// ParseModifiers parses "Ctrl+Alt" style lists. Unknown names are ignored.
func ParseModifiers(s string) Modifier {
	var m Modifier
	for _, part := range strings.Split(s, "+") {
		m = m.With(ModifierFromName(part))
	}
	return m
}
