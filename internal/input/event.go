package input

import (
	"errors"
	"time"
)

// ErrMalformedEvent is returned when a raw hardware event cannot be
// normalized. The ingestion path logs and drops such events.
var ErrMalformedEvent = errors.New("input: malformed event")

// Event is a single normalized hardware event: a key.Event or a
// mouse.Event. Both are immutable values.
type Event interface {
	// Time returns when the event occurred.
	Time() time.Time

	// Validate reports whether the event is well formed. Errors wrap
	// ErrMalformedEvent.
	Validate() error

	// String returns a short human-readable description.
	String() string
}
