package executor

import "errors"

// Executor errors.
var (
	// ErrQueueFull indicates every worker is busy and the queue is full.
	ErrQueueFull = errors.New("executor: queue full")

	// ErrClosed indicates the pool has been closed.
	ErrClosed = errors.New("executor: pool closed")

	// ErrNotRunnable indicates the action has no body the pool can run.
	ErrNotRunnable = errors.New("executor: action is not runnable")

	// ErrUnknownLanguage indicates no interpreter is registered for a
	// script language.
	ErrUnknownLanguage = errors.New("executor: unknown script language")

	// ErrPanic indicates the action body panicked.
	ErrPanic = errors.New("executor: action panic")

	// ErrEmptyScript indicates a script with no content.
	ErrEmptyScript = errors.New("executor: empty script")
)
