// Package trigger decides which registered actions fire for a stream of key
// events.
//
// Two Manager implementations share this package: ChordManager matches the
// set of keys currently held against hotkey chords, and PhraseManager
// matches the tail of a rolling key history against typed phrases. Neither
// is safe for concurrent use; the dispatcher serializes registration and
// event ingestion.
package trigger

import (
	"slices"
	"sync/atomic"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/input/key"
)

// Manager consumes key events and reports the actions they fire.
type Manager interface {
	// Name identifies the manager kind in logs.
	Name() string

	// KeyPressed feeds a press event and returns the actions it fires.
	KeyPressed(e key.Event) []activation.Match

	// KeyReleased feeds a release event and returns the actions it fires.
	KeyReleased(e key.Event) []activation.Match

	// Collides reports whether candidate overlaps the registered action's
	// activation under this manager's matching rule.
	Collides(candidate activation.Activation, registered activation.Action) bool

	// Collisions returns every enabled registered action that collides
	// with candidate, skipping the IDs in exclude.
	Collisions(candidate activation.Activation, exclude ...string) []activation.Action

	// Register adds or replaces an action, snapshotting its activation.
	Register(a activation.Action)

	// Unregister removes the action with the given ID. It reports whether
	// the action was present.
	Unregister(id string) bool

	// Registered returns the registered actions in registration order.
	Registered() []activation.Action

	// Matches returns every registered action whose trigger is satisfied by
	// the current state.
	Matches() []activation.Match

	// Reset discards transient state such as held keys or typed history.
	Reset()
}

// Settings is shared by all managers of one dispatcher.
type Settings struct {
	executeOnRelease atomic.Bool
}

// NewSettings returns settings evaluating matches on press or release.
func NewSettings(executeOnRelease bool) *Settings {
	s := &Settings{}
	s.executeOnRelease.Store(executeOnRelease)
	return s
}

// ExecuteOnRelease reports whether matches are evaluated on key release.
func (s *Settings) ExecuteOnRelease() bool {
	return s.executeOnRelease.Load()
}

// SetExecuteOnRelease switches the evaluation phase.
func (s *Settings) SetExecuteOnRelease(v bool) {
	s.executeOnRelease.Store(v)
}

// binding is a registered action with its activation captured at
// registration time, so the hot path never calls back into the action.
// Collision checks use the same snapshot.
type binding struct {
	action  activation.Action
	act     activation.Activation
	chains  []key.Chain
	phrases []key.Phrase
}

func newBinding(a activation.Action) *binding {
	act := a.Activation().Clone()
	return &binding{
		action:  a,
		act:     act,
		chains:  act.Chains(),
		phrases: act.Phrases(),
	}
}

// registry is the ordered action list both managers keep.
type registry struct {
	bindings []*binding
}

func (r *registry) put(a activation.Action) {
	b := newBinding(a)
	for i, existing := range r.bindings {
		if existing.action.ID() == a.ID() {
			r.bindings[i] = b
			return
		}
	}
	r.bindings = append(r.bindings, b)
}

func (r *registry) remove(id string) bool {
	n := len(r.bindings)
	r.bindings = slices.DeleteFunc(r.bindings, func(b *binding) bool {
		return b.action.ID() == id
	})
	return len(r.bindings) != n
}

func (r *registry) actions() []activation.Action {
	out := make([]activation.Action, len(r.bindings))
	for i, b := range r.bindings {
		out[i] = b.action
	}
	return out
}

// collisions scans the registry with a manager-specific collision rule.
func (r *registry) collisions(candidate activation.Activation, exclude []string,
	collide func(activation.Activation, activation.Activation) bool) []activation.Action {
	var out []activation.Action
	for _, b := range r.bindings {
		if !b.action.Enabled() || slices.Contains(exclude, b.action.ID()) {
			continue
		}
		if collide(candidate, b.act) {
			out = append(out, b.action)
		}
	}
	return out
}

// ChainsCollide reports whether any chord in a equals any chord in b.
func ChainsCollide(a, b activation.Activation) bool {
	bc := b.Chains()
	for _, c := range a.Chains() {
		if slices.ContainsFunc(bc, c.Equals) {
			return true
		}
	}
	return false
}

// PhrasesCollide reports whether any phrase in a is a prefix of, or equal
// to, any phrase in b, or the other way round.
func PhrasesCollide(a, b activation.Activation) bool {
	bp := b.Phrases()
	for _, p := range a.Phrases() {
		if slices.ContainsFunc(bp, p.CollidesWith) {
			return true
		}
	}
	return false
}
