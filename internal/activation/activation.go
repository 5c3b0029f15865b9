// Package activation describes what makes an action fire: a set of hotkey
// chords plus a set of typed phrases.
package activation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/quanmltya/repeat/internal/input/key"
)

// Activation is the trigger descriptor attached to one action. It is an
// immutable value; accessors return copies.
type Activation struct {
	chains  []key.Chain
	phrases []key.Phrase
}

// New builds an activation. Empty and duplicate chains and phrases are
// dropped.
func New(chains []key.Chain, phrases []key.Phrase) Activation {
	b := NewBuilder()
	for _, c := range chains {
		b.WithHotkey(c)
	}
	for _, p := range phrases {
		b.WithPhrase(p)
	}
	return b.Build()
}

// FromChain returns an activation holding a single chord.
func FromChain(c key.Chain) Activation {
	return NewBuilder().WithHotkey(c).Build()
}

// FromPhrase returns an activation holding a single phrase.
func FromPhrase(p key.Phrase) Activation {
	return NewBuilder().WithPhrase(p).Build()
}

// Parse builds an activation from chord and phrase specifications such as
// "Ctrl+Shift+P" and "a,b,c". Every malformed entry is reported.
func Parse(hotkeys, phrases []string) (Activation, error) {
	b := NewBuilder()
	var errs []error
	for _, spec := range hotkeys {
		c, err := key.ParseChain(spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("hotkey %q: %w", spec, err))
			continue
		}
		b.WithHotkey(c)
	}
	for _, spec := range phrases {
		p, err := key.ParsePhrase(spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("phrase %q: %w", spec, err))
			continue
		}
		b.WithPhrase(p)
	}
	if len(errs) > 0 {
		return Activation{}, errors.Join(errs...)
	}
	return b.Build(), nil
}

// MustParse is like Parse but panics on error.
func MustParse(hotkeys, phrases []string) Activation {
	a, err := Parse(hotkeys, phrases)
	if err != nil {
		panic("invalid activation: " + err.Error())
	}
	return a
}

// Chains returns a copy of the hotkey chords.
func (a Activation) Chains() []key.Chain {
	return slices.Clone(a.chains)
}

// Phrases returns a copy of the phrases.
func (a Activation) Phrases() []key.Phrase {
	out := make([]key.Phrase, len(a.phrases))
	for i, p := range a.phrases {
		out[i] = p.Clone()
	}
	return out
}

// HasChains reports whether any hotkey is bound.
func (a Activation) HasChains() bool {
	return len(a.chains) > 0
}

// HasPhrases reports whether any phrase is bound.
func (a Activation) HasPhrases() bool {
	return len(a.phrases) > 0
}

// IsInert reports whether the activation can never fire.
func (a Activation) IsInert() bool {
	return len(a.chains) == 0 && len(a.phrases) == 0
}

// RepresentativeChain returns the chord shown to users for this activation.
func (a Activation) RepresentativeChain() (key.Chain, bool) {
	if len(a.chains) == 0 {
		return key.Chain{}, false
	}
	return a.chains[0], true
}

// MaxPhraseLen returns the length of the longest phrase.
func (a Activation) MaxPhraseLen() int {
	n := 0
	for _, p := range a.phrases {
		n = max(n, p.Len())
	}
	return n
}

// WithoutChains returns a copy with every hotkey removed.
func (a Activation) WithoutChains() Activation {
	return Activation{phrases: a.phrases}
}

// Clone returns a deep copy.
func (a Activation) Clone() Activation {
	return Activation{chains: a.Chains(), phrases: a.Phrases()}
}

// Equal reports whether both activations bind the same chords and phrases
// in the same order.
func (a Activation) Equal(other Activation) bool {
	return slices.EqualFunc(a.chains, other.chains, key.Chain.Equals) &&
		slices.EqualFunc(a.phrases, other.phrases, key.Phrase.Equals)
}

// Spec returns the textual chord and phrase specifications, suitable for
// Parse.
func (a Activation) Spec() (hotkeys, phrases []string) {
	for _, c := range a.chains {
		hotkeys = append(hotkeys, c.String())
	}
	for _, p := range a.phrases {
		phrases = append(phrases, p.String())
	}
	return hotkeys, phrases
}

// String returns "[Ctrl+s | a,b,c]" style text.
func (a Activation) String() string {
	if a.IsInert() {
		return "[]"
	}
	hotkeys, phrases := a.Spec()
	return "[" + strings.Join(append(hotkeys, phrases...), " | ") + "]"
}

// Builder assembles an Activation.
type Builder struct {
	a Activation
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithHotkey adds a chord. Empty or duplicate chords are ignored.
func (b *Builder) WithHotkey(c key.Chain) *Builder {
	if c.IsEmpty() || slices.ContainsFunc(b.a.chains, c.Equals) {
		return b
	}
	b.a.chains = append(b.a.chains, c)
	return b
}

// WithPhrase adds a phrase. Empty or duplicate phrases are ignored.
func (b *Builder) WithPhrase(p key.Phrase) *Builder {
	if p.IsEmpty() || slices.ContainsFunc(b.a.phrases, p.Equals) {
		return b
	}
	b.a.phrases = append(b.a.phrases, p.Clone())
	return b
}

// Build returns the assembled activation. The builder may be reused.
func (b *Builder) Build() Activation {
	return b.a.Clone()
}
