package dispatcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quanmltya/repeat/internal/activation"
)

// Dispatcher errors.
var (
	// ErrInvalidAction indicates the action is nil or has no ID.
	ErrInvalidAction = errors.New("dispatcher: invalid action")

	// ErrAlreadyRegistered indicates an action with the same ID is bound.
	ErrAlreadyRegistered = errors.New("dispatcher: action already registered")

	// ErrNotRegistered indicates the action is not bound.
	ErrNotRegistered = errors.New("dispatcher: action not registered")

	// ErrCollision indicates an activation overlaps registered actions.
	ErrCollision = errors.New("dispatcher: activation collides with registered actions")

	// ErrClosed indicates the dispatcher has been closed.
	ErrClosed = errors.New("dispatcher: dispatcher is closed")
)

// CollisionError reports every registered action an activation collides
// with.
type CollisionError struct {
	Action     activation.Action
	Collisions []activation.Action
}

// Error implements error.
func (e *CollisionError) Error() string {
	names := make([]string, len(e.Collisions))
	for i, c := range e.Collisions {
		names[i] = fmt.Sprintf("%q", c.Name())
	}
	return fmt.Sprintf("dispatcher: %q collides with %s", e.Action.Name(), strings.Join(names, ", "))
}

// Unwrap returns ErrCollision.
func (e *CollisionError) Unwrap() error {
	return ErrCollision
}

// BatchError collects the failures of a batch registration. Actions that
// registered cleanly stay registered.
type BatchError struct {
	Total    int
	Failures []error
}

// Error implements error.
func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, err := range e.Failures {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("dispatcher: %d of %d actions failed to register: %s",
		len(e.Failures), e.Total, strings.Join(msgs, "; "))
}

// Unwrap returns the individual failures.
func (e *BatchError) Unwrap() []error {
	return e.Failures
}

// Collisions returns the collision failures in the batch.
func (e *BatchError) Collisions() []*CollisionError {
	var out []*CollisionError
	for _, err := range e.Failures {
		var ce *CollisionError
		if errors.As(err, &ce) {
			out = append(out, ce)
		}
	}
	return out
}
