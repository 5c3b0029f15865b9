package key

import (
	"fmt"
	"strings"
	"unicode"
)

// Key represents a keyboard key.
// For character keys, use KeyRune and set the Rune field in Event.
type Key uint16

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Other special keys
	KeySpace
	KeyPause
	KeyPrintScreen
	KeyScrollLock
	KeyNumLock
	KeyCapsLock

	// Keypad keys
	KeyKP0
	KeyKP1
	KeyKP2
	KeyKP3
	KeyKP4
	KeyKP5
	KeyKP6
	KeyKP7
	KeyKP8
	KeyKP9
	KeyKPAdd
	KeyKPSubtract
	KeyKPMultiply
	KeyKPDivide
	KeyKPDecimal
	KeyKPEnter

	// Physical modifier keys. A hardware hook reports these as ordinary
	// presses and releases, so they can take part in a chord.
	KeyShift
	KeyCtrl
	KeyAlt
	KeyMeta

	// KeyRune is used for character keys (letters, numbers, punctuation).
	// The actual character is stored in Event.Rune.
	KeyRune
)

var keyNames = map[Key]string{
	KeyNone:        "None",
	KeyEscape:      "Escape",
	KeyEnter:       "Enter",
	KeyTab:         "Tab",
	KeyBackspace:   "Backspace",
	KeyDelete:      "Delete",
	KeyInsert:      "Insert",
	KeyHome:        "Home",
	KeyEnd:         "End",
	KeyPageUp:      "PageUp",
	KeyPageDown:    "PageDown",
	KeyUp:          "Up",
	KeyDown:        "Down",
	KeyLeft:        "Left",
	KeyRight:       "Right",
	KeyF1:          "F1",
	KeyF2:          "F2",
	KeyF3:          "F3",
	KeyF4:          "F4",
	KeyF5:          "F5",
	KeyF6:          "F6",
	KeyF7:          "F7",
	KeyF8:          "F8",
	KeyF9:          "F9",
	KeyF10:         "F10",
	KeyF11:         "F11",
	KeyF12:         "F12",
	KeySpace:       "Space",
	KeyPause:       "Pause",
	KeyPrintScreen: "PrintScreen",
	KeyScrollLock:  "ScrollLock",
	KeyNumLock:     "NumLock",
	KeyCapsLock:    "CapsLock",
	KeyKP0:         "KP0",
	KeyKP1:         "KP1",
	KeyKP2:         "KP2",
	KeyKP3:         "KP3",
	KeyKP4:         "KP4",
	KeyKP5:         "KP5",
	KeyKP6:         "KP6",
	KeyKP7:         "KP7",
	KeyKP8:         "KP8",
	KeyKP9:         "KP9",
	KeyKPAdd:       "KP+",
	KeyKPSubtract:  "KP-",
	KeyKPMultiply:  "KP*",
	KeyKPDivide:    "KP/",
	KeyKPDecimal:   "KP.",
	KeyKPEnter:     "KPEnter",
	KeyShift:       "Shift",
	KeyCtrl:        "Ctrl",
	KeyAlt:         "Alt",
	KeyMeta:        "Meta",
	KeyRune:        "Rune",
}

// String returns a human-readable name for the key.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", k)
}

// IsSpecial returns true if this is a special (non-character) key.
func (k Key) IsSpecial() bool {
	return k != KeyNone && k != KeyRune
}

// IsFunctionKey returns true if this is a function key (F1-F12).
func (k Key) IsFunctionKey() bool {
	return k >= KeyF1 && k <= KeyF12
}

// IsArrowKey returns true if this is an arrow key.
func (k Key) IsArrowKey() bool {
	return k >= KeyUp && k <= KeyRight
}

// IsKeypadKey returns true if this is a keypad key.
func (k Key) IsKeypadKey() bool {
	return k >= KeyKP0 && k <= KeyKPEnter
}

// IsModifier returns true for the physical Shift, Ctrl, Alt and Meta keys.
func (k Key) IsModifier() bool {
	return k >= KeyShift && k <= KeyMeta
}

// Modifier returns the modifier flag a physical modifier key sets.
// Returns ModNone for every other key.
func (k Key) Modifier() Modifier {
	switch k {
	case KeyShift:
		return ModShift
	case KeyCtrl:
		return ModCtrl
	case KeyAlt:
		return ModAlt
	case KeyMeta:
		return ModMeta
	default:
		return ModNone
	}
}

// keyNameMap maps key names (lowercase) to Key values.
var keyNameMap = map[string]Key{
	"none":        KeyNone,
	"escape":      KeyEscape,
	"esc":         KeyEscape,
	"enter":       KeyEnter,
	"return":      KeyEnter,
	"cr":          KeyEnter,
	"tab":         KeyTab,
	"backspace":   KeyBackspace,
	"bs":          KeyBackspace,
	"delete":      KeyDelete,
	"del":         KeyDelete,
	"insert":      KeyInsert,
	"ins":         KeyInsert,
	"home":        KeyHome,
	"end":         KeyEnd,
	"pageup":      KeyPageUp,
	"pgup":        KeyPageUp,
	"pagedown":    KeyPageDown,
	"pgdn":        KeyPageDown,
	"up":          KeyUp,
	"down":        KeyDown,
	"left":        KeyLeft,
	"right":       KeyRight,
	"f1":          KeyF1,
	"f2":          KeyF2,
	"f3":          KeyF3,
	"f4":          KeyF4,
	"f5":          KeyF5,
	"f6":          KeyF6,
	"f7":          KeyF7,
	"f8":          KeyF8,
	"f9":          KeyF9,
	"f10":         KeyF10,
	"f11":         KeyF11,
	"f12":         KeyF12,
	"space":       KeySpace,
	"pause":       KeyPause,
	"printscreen": KeyPrintScreen,
	"scrolllock":  KeyScrollLock,
	"numlock":     KeyNumLock,
	"capslock":    KeyCapsLock,
	"kpenter":     KeyKPEnter,
	"shift":       KeyShift,
	"ctrl":        KeyCtrl,
	"control":     KeyCtrl,
	"alt":         KeyAlt,
	"option":      KeyAlt,
	"meta":        KeyMeta,
	"cmd":         KeyMeta,
	"command":     KeyMeta,
	"win":         KeyMeta,
	"super":       KeyMeta,
}

// KeyFromName returns the Key for a given name (case-insensitive).
// Returns KeyNone if the name is not recognized.
func KeyFromName(name string) Key {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, ok := keyNameMap[name]; ok {
		return k
	}
	return KeyNone
}

// Code is the normalized identity of a physical key: the Key plus, for
// character keys, the lowercased rune. Codes are comparable and are what
// chords are built from.
type Code struct {
	Key  Key
	Rune rune
}

// NewCode returns the normalized code for a key and rune.
func NewCode(k Key, r rune) Code {
	if k != KeyRune {
		return Code{Key: k}
	}
	if r == ' ' {
		return Code{Key: KeySpace}
	}
	return Code{Key: KeyRune, Rune: unicode.ToLower(r)}
}

// RuneCode returns the code for a character key.
func RuneCode(r rune) Code {
	return NewCode(KeyRune, r)
}

// SpecialCode returns the code for a non-character key.
func SpecialCode(k Key) Code {
	return NewCode(k, 0)
}

// IsZero reports whether c identifies no key.
func (c Code) IsZero() bool {
	return c.Key == KeyNone
}

// IsModifier reports whether c is a physical modifier key.
func (c Code) IsModifier() bool {
	return c.Key.IsModifier()
}

// String returns "a" for character keys and the key name otherwise.
func (c Code) String() string {
	if c.Key == KeyRune {
		return string(c.Rune)
	}
	return c.Key.String()
}

// less orders codes: modifier keys first (Ctrl, Alt, Shift, Meta), then
// special keys, then runes.
func (c Code) less(other Code) bool {
	ci, oi := c.rank(), other.rank()
	if ci != oi {
		return ci < oi
	}
	if c.Key != other.Key {
		return c.Key < other.Key
	}
	return c.Rune < other.Rune
}

func (c Code) rank() int {
	switch c.Key {
	case KeyCtrl:
		return 0
	case KeyAlt:
		return 1
	case KeyShift:
		return 2
	case KeyMeta:
		return 3
	case KeyRune:
		return 5
	default:
		return 4
	}
}

// ParseCode parses a single key name or character into a Code.
// "Ctrl", "F9", "Escape", "a" and "A" are all valid; "A" and "a" yield the
// same code.
func ParseCode(spec string) (Code, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Code{}, ErrEmptySpec
	}
	if k := KeyFromName(spec); k != KeyNone {
		return SpecialCode(k), nil
	}
	runes := []rune(spec)
	if len(runes) == 1 {
		return RuneCode(runes[0]), nil
	}
	return Code{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, spec)
}
