package trigger

import (
	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/input/key"
)

// PhraseManager fires actions whose phrase was just typed.
//
// Every non-modifier event is appended to the rolling series on both
// phases; matches are evaluated only on the configured phase. After any
// match the series is cleared, so completing "a,b,c" cannot fire again on
// the next keystroke and a shorter phrase sharing its tail cannot fire on
// the same strokes.
type PhraseManager struct {
	settings *Settings
	registry
	series *RollingSeries
}

// NewPhraseManager creates a phrase manager.
func NewPhraseManager(settings *Settings) *PhraseManager {
	if settings == nil {
		settings = NewSettings(false)
	}
	return &PhraseManager{
		settings: settings,
		series:   NewRollingSeries(0),
	}
}

// Name implements Manager.
func (m *PhraseManager) Name() string { return "phrase" }

// KeyPressed implements Manager.
func (m *PhraseManager) KeyPressed(e key.Event) []activation.Match {
	if e.IsModifierKey() {
		return nil
	}
	m.series.Add(e)
	if m.settings.ExecuteOnRelease() {
		return nil
	}
	return m.considerExecution()
}

// KeyReleased implements Manager.
func (m *PhraseManager) KeyReleased(e key.Event) []activation.Match {
	if e.IsModifierKey() {
		return nil
	}
	m.series.Add(e)
	if !m.settings.ExecuteOnRelease() {
		return nil
	}
	return m.considerExecution()
}

func (m *PhraseManager) considerExecution() []activation.Match {
	out := m.Matches()
	if len(out) > 0 {
		m.series.Clear()
	}
	return out
}

// Collides implements Manager.
func (m *PhraseManager) Collides(candidate activation.Activation, registered activation.Action) bool {
	return PhrasesCollide(candidate, registered.Activation())
}

// Collisions implements Manager.
func (m *PhraseManager) Collisions(candidate activation.Activation, exclude ...string) []activation.Action {
	if !candidate.HasPhrases() {
		return nil
	}
	return m.collisions(candidate, exclude, PhrasesCollide)
}

// Register implements Manager.
func (m *PhraseManager) Register(a activation.Action) {
	m.put(a)
	m.resize()
}

// Unregister implements Manager.
func (m *PhraseManager) Unregister(id string) bool {
	ok := m.remove(id)
	if ok {
		m.resize()
	}
	return ok
}

// Registered implements Manager.
func (m *PhraseManager) Registered() []activation.Action { return m.actions() }

// Matches implements Manager.
func (m *PhraseManager) Matches() []activation.Match {
	if m.series.Presses() == 0 {
		return nil
	}
	var out []activation.Match
	for _, b := range m.bindings {
		if !b.action.Enabled() {
			continue
		}
		for _, p := range b.phrases {
			if m.series.EndsWith(p) {
				out = append(out, activation.Match{Action: b.action, Trigger: activation.FromPhrase(p)})
				break
			}
		}
	}
	return out
}

// Series exposes the rolling history for inspection.
func (m *PhraseManager) Series() *RollingSeries {
	return m.series
}

// Reset implements Manager.
func (m *PhraseManager) Reset() {
	m.series.Clear()
}

// resize bounds the series by the longest registered phrase.
func (m *PhraseManager) resize() {
	n := 0
	for _, b := range m.bindings {
		for _, p := range b.phrases {
			n = max(n, p.Len())
		}
	}
	m.series.SetLimit(n)
}
