package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/quanmltya/repeat/internal/input"
)

// Phase distinguishes a key going down from a key coming up.
type Phase uint8

const (
	// PhasePress is a key going down (including auto-repeat).
	PhasePress Phase = iota
	// PhaseRelease is a key coming up.
	PhaseRelease
)

// String returns "press" or "release".
func (p Phase) String() string {
	switch p {
	case PhasePress:
		return "press"
	case PhaseRelease:
		return "release"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// Event represents a single key press or release.
// Events are values; copying one never shares state.
type Event struct {
	// Phase is press or release.
	Phase Phase

	// Key identifies the key.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the modifier keys held when the event occurred.
	Modifiers Modifier

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// NewEvent creates a key event with the current timestamp.
func NewEvent(phase Phase, key Key, r rune, mods Modifier) Event {
	return Event{
		Phase:     phase,
		Key:       key,
		Rune:      r,
		Modifiers: mods,
		Timestamp: time.Now(),
	}
}

// NewRuneEvent creates a press event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return NewEvent(PhasePress, KeyRune, r, mods)
}

// NewSpecialEvent creates a press event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return NewEvent(PhasePress, key, 0, mods)
}

// Press creates a press event for the key identified by code.
func Press(c Code, mods Modifier) Event {
	return NewEvent(PhasePress, c.Key, c.Rune, mods)
}

// Release creates a release event for the key identified by code.
func Release(c Code, mods Modifier) Event {
	return NewEvent(PhaseRelease, c.Key, c.Rune, mods)
}

// Time returns the event timestamp.
func (e Event) Time() time.Time {
	return e.Timestamp
}

// Validate reports whether the event is well formed. Errors wrap
// input.ErrMalformedEvent.
func (e Event) Validate() error {
	switch {
	case e.Phase > PhaseRelease:
		return fmt.Errorf("%w: key phase %d", input.ErrMalformedEvent, e.Phase)
	case e.Key == KeyNone || e.Key > KeyRune:
		return fmt.Errorf("%w: key %d", input.ErrMalformedEvent, e.Key)
	case e.Key == KeyRune && (e.Rune == 0 || !unicode.IsPrint(e.Rune)):
		return fmt.Errorf("%w: rune %q", input.ErrMalformedEvent, e.Rune)
	}
	return nil
}

// IsPress returns true for a key-down event.
func (e Event) IsPress() bool {
	return e.Phase == PhasePress
}

// IsRelease returns true for a key-up event.
func (e Event) IsRelease() bool {
	return e.Phase == PhaseRelease
}

// Code returns the normalized key code.
func (e Event) Code() Code {
	return NewCode(e.Key, e.Rune)
}

// Stroke returns the phase-independent identity used by phrases.
func (e Event) Stroke() Stroke {
	return NewStroke(e.Code(), e.Rune, e.Modifiers)
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsModifierKey returns true if the event is for a physical modifier key.
func (e Event) IsModifierKey() bool {
	return e.Key.IsModifier()
}

// IsModified returns true if any modifier is pressed.
// For character events, Shift alone is not considered modified
// (since Shift changes the character itself).
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta) != 0
	}
	return e.Modifiers != ModNone
}

// String returns a canonical string representation.
// Examples: "a", "Ctrl+s", "Shift+Enter", "^Ctrl+s" for a release.
func (e Event) String() string {
	var sb strings.Builder
	if e.IsRelease() {
		sb.WriteByte('^')
	}
	mods := e.Modifiers
	if e.IsRune() {
		mods = mods.Without(ModShift)
	}
	if !mods.IsEmpty() {
		sb.WriteString(mods.String())
		sb.WriteByte('+')
	}
	if e.IsRune() {
		sb.WriteRune(e.Rune)
	} else {
		sb.WriteString(e.Key.String())
	}
	return sb.String()
}

// Equals returns true if two events represent the same key transition.
// Timestamps are not compared.
func (e Event) Equals(other Event) bool {
	return e.Phase == other.Phase &&
		e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers
}

// WithTimestamp returns a copy stamped with t.
func (e Event) WithTimestamp(t time.Time) Event {
	e.Timestamp = t
	return e
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Phase: %s, Key: %s, Rune: %q, Modifiers: %s}",
		e.Phase, e.Key, e.Rune, e.Modifiers)
}
