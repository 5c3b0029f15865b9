// Package app wires the dispatcher, executor, recorder, task groups and
// store into one running process.
package app

import (
	"errors"
	"strings"
)

var (
	// ErrAlreadyRunning is returned by Run while another source is active.
	ErrAlreadyRunning = errors.New("an event source is already running")

	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("application closed")

	// ErrNoStore is returned by commands that need the database when none
	// is configured.
	ErrNoStore = errors.New("no store configured")
)

// describe renders "head: cause", dropping empty parts.
func describe(head string, cause error) string {
	if cause == nil {
		return head
	}
	if head == "" {
		return cause.Error()
	}
	return head + ": " + cause.Error()
}

// OperationError ties a failure to the operation and the thing it acted
// on, such as "load tasks" and a file path.
type OperationError struct {
	Op     string
	Target string
	Err    error
}

// NewOperationError returns an OperationError wrapping err.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	return describe(strings.TrimSpace(e.Op+" "+e.Target), e.Err)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError reports that building or driving a component failed.
type ComponentError struct {
	Component string
	Action    string
	Err       error
}

// NewComponentError returns a ComponentError wrapping err.
func NewComponentError(component, action string, err error) *ComponentError {
	return &ComponentError{Component: component, Action: action, Err: err}
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	head := e.Component
	if e.Action != "" {
		head += ": " + e.Action
	}
	return describe(head, e.Err)
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
