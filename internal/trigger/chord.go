package trigger

import (
	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/input/key"
)

// ChordManager fires actions whose chord equals the set of keys held down.
//
// Auto-repeat presses of a key already held are ignored, so holding a chord
// fires it once. When matches are evaluated on release, the held set is
// checked before the released key is removed, and further releases are
// ignored until the next press; releasing Ctrl+S one key at a time fires
// only Ctrl+S, never a trailing Ctrl.
type ChordManager struct {
	settings *Settings
	registry
	held  map[key.Code]struct{}
	fired bool
}

// NewChordManager creates a chord manager.
func NewChordManager(settings *Settings) *ChordManager {
	if settings == nil {
		settings = NewSettings(false)
	}
	return &ChordManager{
		settings: settings,
		held:     make(map[key.Code]struct{}, 8),
	}
}

// Name implements Manager.
func (m *ChordManager) Name() string { return "chord" }

// KeyPressed implements Manager.
func (m *ChordManager) KeyPressed(e key.Event) []activation.Match {
	code := e.Code()
	if _, ok := m.held[code]; ok {
		return nil
	}
	m.held[code] = struct{}{}
	m.fired = false

	if m.settings.ExecuteOnRelease() {
		return nil
	}
	return m.Matches()
}

// KeyReleased implements Manager.
func (m *ChordManager) KeyReleased(e key.Event) []activation.Match {
	var out []activation.Match
	if m.settings.ExecuteOnRelease() && !m.fired {
		out = m.Matches()
		m.fired = len(out) > 0
	}
	delete(m.held, e.Code())
	return out
}

// Collides implements Manager.
func (m *ChordManager) Collides(candidate activation.Activation, registered activation.Action) bool {
	return ChainsCollide(candidate, registered.Activation())
}

// Collisions implements Manager.
func (m *ChordManager) Collisions(candidate activation.Activation, exclude ...string) []activation.Action {
	if !candidate.HasChains() {
		return nil
	}
	return m.collisions(candidate, exclude, ChainsCollide)
}

// Register implements Manager.
func (m *ChordManager) Register(a activation.Action) { m.put(a) }

// Unregister implements Manager.
func (m *ChordManager) Unregister(id string) bool { return m.remove(id) }

// Registered implements Manager.
func (m *ChordManager) Registered() []activation.Action { return m.actions() }

// Matches implements Manager.
func (m *ChordManager) Matches() []activation.Match {
	if len(m.held) == 0 {
		return nil
	}
	var out []activation.Match
	for _, b := range m.bindings {
		if !b.action.Enabled() {
			continue
		}
		for _, c := range b.chains {
			if c.MatchesHeld(m.held) {
				out = append(out, activation.Match{Action: b.action, Trigger: activation.FromChain(c)})
				break
			}
		}
	}
	return out
}

// Held returns the number of keys currently held.
func (m *ChordManager) Held() int {
	return len(m.held)
}

// Reset implements Manager.
func (m *ChordManager) Reset() {
	clear(m.held)
	m.fired = false
}
