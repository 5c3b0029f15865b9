package dispatcher

import (
	"time"

	"github.com/quanmltya/repeat/internal/input/key"
)

// Config holds dispatcher configuration options.
type Config struct {
	// ExecuteOnRelease evaluates triggers when keys come up instead of
	// when they go down.
	ExecuteOnRelease bool

	// HaltEnabled makes a press of HaltKey call HaltAll.
	HaltEnabled bool

	// HaltKey is the key that halts every running action.
	HaltKey key.Code

	// SlowEventThreshold logs a warning when matching one event takes
	// longer than this. Zero disables the warning.
	SlowEventThreshold time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExecuteOnRelease:   false,
		HaltEnabled:        true,
		HaltKey:            key.SpecialCode(key.KeyEscape),
		SlowEventThreshold: time.Millisecond,
	}
}

// WithExecuteOnRelease returns a copy of the config with the evaluation
// phase set.
func (c Config) WithExecuteOnRelease(onRelease bool) Config {
	c.ExecuteOnRelease = onRelease
	return c
}

// WithHaltKey returns a copy of the config with the halt key set.
// A zero code disables halting.
func (c Config) WithHaltKey(code key.Code) Config {
	c.HaltKey = code
	c.HaltEnabled = !code.IsZero()
	return c
}

// WithoutHalt returns a copy of the config with the halt key disabled.
func (c Config) WithoutHalt() Config {
	c.HaltEnabled = false
	return c
}

// WithSlowEventThreshold returns a copy of the config with the slow event
// threshold set.
func (c Config) WithSlowEventThreshold(d time.Duration) Config {
	c.SlowEventThreshold = d
	return c
}
