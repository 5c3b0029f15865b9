package executor

import "time"

// Config holds worker pool options.
type Config struct {
	// Workers is the number of goroutines running actions.
	Workers int

	// QueueSize bounds the number of fired actions waiting for a worker.
	// Execute fails with ErrQueueFull rather than block when it is full.
	QueueSize int

	// RecoverFromPanic turns a panicking action body into an error.
	RecoverFromPanic bool

	// Timeout bounds a single action run. Zero means no timeout.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:          4,
		QueueSize:        64,
		RecoverFromPanic: true,
	}
}

// WithWorkers returns a copy of the config with the worker count set.
func (c Config) WithWorkers(n int) Config {
	if n > 0 {
		c.Workers = n
	}
	return c
}

// WithQueueSize returns a copy of the config with the queue size set.
func (c Config) WithQueueSize(n int) Config {
	if n >= 0 {
		c.QueueSize = n
	}
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithTimeout returns a copy of the config with the run timeout set.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
