package activation

import (
	"context"
	"sync"
	"sync/atomic"
)

// Action is a bound action as seen by the trigger engine. The engine reads
// the identity, activation and enabled flag; it never looks at or runs the
// action body.
type Action interface {
	// ID uniquely identifies the action within a dispatcher.
	ID() string

	// Name is a human-readable label.
	Name() string

	// Activation returns the action's current trigger descriptor.
	Activation() Activation

	// Enabled reports whether the action may fire.
	Enabled() bool
}

// Rebindable is implemented by actions whose activation can be replaced.
type Rebindable interface {
	Action
	SetActivation(Activation)
}

// Match pairs a fired action with the concrete chord or phrase that fired
// it. The registered action is never mutated to carry this annotation.
type Match struct {
	Action  Action
	Trigger Activation
}

// Func is the body of a FuncAction.
type Func func(ctx context.Context, m Match) error

// FuncAction is an Action backed by a Go function.
type FuncAction struct {
	id   string
	name string
	fn   Func

	mu         sync.RWMutex
	activation Activation
	enabled    atomic.Bool
}

// NewFuncAction creates an enabled action.
func NewFuncAction(id, name string, a Activation, fn Func) *FuncAction {
	f := &FuncAction{id: id, name: name, fn: fn, activation: a.Clone()}
	f.enabled.Store(true)
	return f
}

// ID implements Action.
func (f *FuncAction) ID() string { return f.id }

// Name implements Action.
func (f *FuncAction) Name() string { return f.name }

// Activation implements Action.
func (f *FuncAction) Activation() Activation {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.activation
}

// SetActivation implements Rebindable.
func (f *FuncAction) SetActivation(a Activation) {
	f.mu.Lock()
	f.activation = a.Clone()
	f.mu.Unlock()
}

// Enabled implements Action.
func (f *FuncAction) Enabled() bool { return f.enabled.Load() }

// SetEnabled toggles the action.
func (f *FuncAction) SetEnabled(v bool) { f.enabled.Store(v) }

// Run invokes the body. A nil body is a no-op.
func (f *FuncAction) Run(ctx context.Context, m Match) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, m)
}
