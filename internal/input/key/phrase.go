package key

import (
	"slices"
	"strings"
	"unicode"
)

// Stroke is one element of a phrase: a key plus the modifiers held while it
// was pressed. Shift is only significant on letters, where it selects case;
// on other characters it is already folded into the rune.
type Stroke struct {
	Code      Code
	Modifiers Modifier
}

// NewStroke normalizes a key, its raw rune and modifiers into a stroke.
func NewStroke(code Code, raw rune, mods Modifier) Stroke {
	if code.Key == KeyRune {
		if unicode.IsUpper(raw) {
			mods = mods.With(ModShift)
		}
		if !unicode.IsLetter(code.Rune) {
			mods = mods.Without(ModShift)
		}
	}
	return Stroke{Code: code, Modifiers: mods}
}

// String returns "a", "A", "Ctrl+s" or "Enter".
func (s Stroke) String() string {
	if s.Code.Key == KeyRune {
		r := s.Code.Rune
		mods := s.Modifiers
		if mods.HasShift() {
			r = unicode.ToUpper(r)
			mods = mods.Without(ModShift)
		}
		if mods.IsEmpty() {
			return string(r)
		}
		return mods.String() + "+" + string(r)
	}
	if s.Modifiers.IsEmpty() {
		return s.Code.String()
	}
	return s.Modifiers.String() + "+" + s.Code.String()
}

// Phrase is an ordered sequence of strokes typed over time. Timing between
// strokes is irrelevant.
type Phrase struct {
	strokes []Stroke
}

// NewPhrase creates a phrase from strokes.
func NewPhrase(strokes ...Stroke) Phrase {
	return Phrase{strokes: slices.Clone(strokes)}
}

// PhraseFromEvents builds a phrase from the press events in events.
func PhraseFromEvents(events ...Event) Phrase {
	strokes := make([]Stroke, 0, len(events))
	for _, e := range events {
		if e.IsPress() && !e.IsModifierKey() {
			strokes = append(strokes, e.Stroke())
		}
	}
	return Phrase{strokes: strokes}
}

// Len returns the number of strokes.
func (p Phrase) Len() int {
	return len(p.strokes)
}

// IsEmpty returns true if the phrase has no strokes.
func (p Phrase) IsEmpty() bool {
	return len(p.strokes) == 0
}

// At returns the stroke at index i.
func (p Phrase) At(i int) Stroke {
	return p.strokes[i]
}

// Strokes returns a copy of the strokes.
func (p Phrase) Strokes() []Stroke {
	return slices.Clone(p.strokes)
}

// Clone returns a phrase that shares no memory with p.
func (p Phrase) Clone() Phrase {
	return Phrase{strokes: slices.Clone(p.strokes)}
}

// Equals returns true if two phrases are identical.
func (p Phrase) Equals(other Phrase) bool {
	return slices.Equal(p.strokes, other.strokes)
}

// HasPrefix returns true if this phrase starts with prefix.
func (p Phrase) HasPrefix(prefix Phrase) bool {
	if len(prefix.strokes) > len(p.strokes) {
		return false
	}
	return slices.Equal(p.strokes[:len(prefix.strokes)], prefix.strokes)
}

// CollidesWith reports whether typing one phrase would also complete the
// other: one is a prefix of the other, or they are equal. The relation is
// symmetric and every non-empty phrase collides with itself.
func (p Phrase) CollidesWith(other Phrase) bool {
	if p.IsEmpty() || other.IsEmpty() {
		return false
	}
	return p.HasPrefix(other) || other.HasPrefix(p)
}

// String returns strokes joined by commas: "a,b,Ctrl+s".
func (p Phrase) String() string {
	parts := make([]string, len(p.strokes))
	for i, s := range p.strokes {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (p Phrase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phrase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhrase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhrase parses a phrase specification.
//
// Supported formats:
//   - Comma-separated strokes: "a,b,c", "Ctrl+x,Ctrl+s", "h,i,Enter"
//   - Space-separated strokes: "g g", "Ctrl+x Ctrl+s"
//   - Continuous Vim-style: "gg", "<C-x><C-s>", "hi<CR>"
func ParsePhrase(spec string) (Phrase, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Phrase{}, ErrEmptySpec
	}

	if strings.Contains(spec, ",") && spec != "," {
		var events []Event
		for _, part := range strings.Split(spec, ",") {
			if strings.TrimSpace(part) == "" {
				return Phrase{}, ErrInvalidSpec
			}
			e, err := Parse(part)
			if err != nil {
				return Phrase{}, err
			}
			events = append(events, e)
		}
		return PhraseFromEvents(events...), nil
	}

	events, err := parseSequence(spec)
	if err != nil {
		return Phrase{}, err
	}
	return PhraseFromEvents(events...), nil
}

// MustParsePhrase parses a phrase and panics on error.
// Use only for known-valid specs in initialization code.
func MustParsePhrase(spec string) Phrase {
	p, err := ParsePhrase(spec)
	if err != nil {
		panic("invalid key phrase: " + spec + ": " + err.Error())
	}
	return p
}

// parseSequence handles space-separated and continuous Vim-style input.
func parseSequence(s string) ([]Event, error) {
	if strings.Contains(s, " ") {
		parts := strings.Fields(s)
		events := make([]Event, 0, len(parts))
		for _, part := range parts {
			event, err := Parse(part)
			if err != nil {
				return nil, err
			}
			events = append(events, event)
		}
		return events, nil
	}

	if !strings.HasPrefix(s, "<") {
		// A single key like "a", "Enter" or "Ctrl+s". Key names win over
		// spelling: "end" is the End key, "e,n,d" is three letters.
		if event, err := Parse(s); err == nil {
			return []Event{event}, nil
		}
	}

	var events []Event
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if runes[i] == '<' {
			end := slices.Index(runes[i:], '>')
			if end > 1 {
				event, err := Parse(string(runes[i : i+end+1]))
				if err != nil {
					return nil, err
				}
				events = append(events, event)
				i += end + 1
				continue
			}
		}
		events = append(events, NewRuneEvent(runes[i], ModNone))
		i++
	}
	return events, nil
}
