package key

import (
	"fmt"
	"slices"
	"strings"
)

// Chain is a chord: an unordered set of keys that must be held down at the
// same time. Codes are kept sorted and unique so that two chains are equal
// exactly when their sets are equal.
type Chain struct {
	codes []Code
}

// NewChain builds a chain from codes. Duplicates are dropped.
func NewChain(codes ...Code) Chain {
	cs := make([]Code, 0, len(codes))
	for _, c := range codes {
		if c.IsZero() || slices.Contains(cs, c) {
			continue
		}
		cs = append(cs, c)
	}
	slices.SortFunc(cs, func(a, b Code) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})
	return Chain{codes: cs}
}

// ChainFromEvent returns the chord an event describes: its modifier keys
// plus its own key.
func ChainFromEvent(e Event) Chain {
	codes := e.Modifiers.Codes()
	codes = append(codes, e.Code())
	return NewChain(codes...)
}

// Len returns the number of keys in the chain.
func (c Chain) Len() int {
	return len(c.codes)
}

// IsEmpty returns true if the chain binds no keys.
func (c Chain) IsEmpty() bool {
	return len(c.codes) == 0
}

// Codes returns a copy of the chain's codes in canonical order.
func (c Chain) Codes() []Code {
	return slices.Clone(c.codes)
}

// Contains reports whether code is part of the chain.
func (c Chain) Contains(code Code) bool {
	return slices.Contains(c.codes, code)
}

// Equals is set equality.
func (c Chain) Equals(other Chain) bool {
	return slices.Equal(c.codes, other.codes)
}

// MatchesHeld reports whether the held set is exactly this chain.
func (c Chain) MatchesHeld(held map[Code]struct{}) bool {
	if len(c.codes) == 0 || len(c.codes) != len(held) {
		return false
	}
	for _, code := range c.codes {
		if _, ok := held[code]; !ok {
			return false
		}
	}
	return true
}

// String returns the chord as "Ctrl+Shift+p".
func (c Chain) String() string {
	parts := make([]string, len(c.codes))
	for i, code := range c.codes {
		parts[i] = code.String()
	}
	return strings.Join(parts, "+")
}

// MarshalText implements encoding.TextMarshaler.
func (c Chain) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Chain) UnmarshalText(text []byte) error {
	parsed, err := ParseChain(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseChain parses a chord specification.
//
// Supported formats:
//   - Plus-joined keys: "Ctrl+Shift+P", "F9", "a+s", "Ctrl+Alt"
//   - Vim-style: "<C-s>", "<C-S-p>"
//
// Letters are case-insensitive; "Ctrl+P" and "ctrl+p" are the same chord.
func ParseChain(spec string) (Chain, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Chain{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") && len(spec) > 2 {
		e, err := Parse(spec)
		if err != nil {
			return Chain{}, err
		}
		return ChainFromEvent(e), nil
	}

	parts := splitPlus(spec)
	codes := make([]Code, 0, len(parts))
	for _, p := range parts {
		code, err := ParseCode(p)
		if err != nil {
			return Chain{}, fmt.Errorf("chain %q: %w", spec, err)
		}
		codes = append(codes, code)
	}
	return NewChain(codes...), nil
}

// MustParseChain parses a chord and panics on error.
// Use only for known-valid specs in initialization code.
func MustParseChain(spec string) Chain {
	c, err := ParseChain(spec)
	if err != nil {
		panic("invalid key chain: " + spec + ": " + err.Error())
	}
	return c
}

// splitPlus splits on '+' while allowing the plus key itself, as in
// "Ctrl++" or "+".
func splitPlus(spec string) []string {
	if spec == "+" {
		return []string{"+"}
	}
	var parts []string
	start := 0
	for i := 0; i < len(spec); i++ {
		if spec[i] != '+' {
			continue
		}
		if i == start {
			// Empty part: this '+' is the key itself.
			parts = append(parts, "+")
			start = i + 2
			i++
			continue
		}
		parts = append(parts, spec[start:i])
		start = i + 1
	}
	if start < len(spec) {
		parts = append(parts, spec[start:])
	}
	return parts
}
