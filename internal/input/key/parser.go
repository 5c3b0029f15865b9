package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// angleModifiers are the one-letter prefixes of the <C-x> notation. D is
// the Command key.
var angleModifiers = map[string]Modifier{
	"c": ModCtrl,
	"a": ModAlt,
	"s": ModShift,
	"m": ModMeta,
	"d": ModMeta,
}

// runeAliases name characters that are awkward to write inside a spec.
var runeAliases = map[string]rune{
	"lt":     '<',
	"gt":     '>',
	"bar":    '|',
	"bslash": '\\',
	"comma":  ',',
	"plus":   '+',
	"minus":  '-',
}

// Parse reads one keystroke and returns it as a press. Three notations
// are accepted:
//
//	a  A  @  Enter  F5  Ctrl      a bare character or key name
//	Ctrl+s  Alt+F4  Ctrl++        modifiers joined with '+'
//	<C-s>  <C-S-p>  <CR>  <lt>    angle-bracket notation
//
// A bare uppercase letter implies Shift. After a modifier, letters name
// the key and are lowercased.
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return Event{}, ErrEmptySpec
	case len(spec) > 1 && spec[0] == '<' && spec[len(spec)-1] == '>':
		return parseAngle(spec[1 : len(spec)-1])
	case spec != "+" && strings.Contains(spec, "+"):
		return parsePlus(spec)
	}

	if k := KeyFromName(spec); k != KeyNone {
		return NewSpecialEvent(k, ModNone), nil
	}
	if r, ok := singleRune(spec); ok {
		var mods Modifier
		if unicode.IsUpper(r) {
			mods = ModShift
		}
		return NewRuneEvent(r, mods), nil
	}
	return Event{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
}

func parseAngle(inner string) (Event, error) {
	parts := strings.Split(strings.TrimSpace(inner), "-")
	last := len(parts) - 1

	var mods Modifier
	for _, p := range parts[:last] {
		m, ok := angleModifiers[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods |= m
	}
	return keyWith(parts[last], mods)
}

func parsePlus(spec string) (Event, error) {
	if !strings.HasSuffix(spec, "++") && strings.HasSuffix(spec, "+") {
		return Event{}, fmt.Errorf("%w: %q has no key after '+'", ErrInvalidSpec, spec)
	}
	parts := splitPlus(spec)
	last := len(parts) - 1

	var mods Modifier
	for _, p := range parts[:last] {
		m := ModifierFromName(p)
		if m == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, strings.TrimSpace(p))
		}
		mods |= m
	}
	return keyWith(parts[last], mods)
}

// keyWith resolves the key part of a modified spec.
func keyWith(name string, mods Modifier) (Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Event{}, fmt.Errorf("%w: missing key", ErrInvalidSpec)
	}
	lower := strings.ToLower(name)
	if r, ok := runeAliases[lower]; ok {
		return NewRuneEvent(r, mods), nil
	}
	if k := KeyFromName(lower); k != KeyNone {
		return NewSpecialEvent(k, mods), nil
	}
	if r, ok := singleRune(name); ok {
		if !mods.IsEmpty() {
			r = unicode.ToLower(r)
		}
		return NewRuneEvent(r, mods), nil
	}
	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, name)
}

func singleRune(s string) (rune, bool) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, false
	}
	return runes[0], true
}

// MustParse is Parse for specs known to be valid. It panics on error.
func MustParse(spec string) Event {
	e, err := Parse(spec)
	if err != nil {
		panic(fmt.Sprintf("key.MustParse(%q): %v", spec, err))
	}
	return e
}
