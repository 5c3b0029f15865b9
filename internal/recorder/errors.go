package recorder

import (
	"errors"
	"fmt"
)

// Recorder errors.
var (
	// ErrInvalidConfig is wrapped by every replay configuration error.
	ErrInvalidConfig = errors.New("recorder: invalid configuration")

	// ErrInvalidSpeedup indicates a speed multiplier that is not a
	// positive finite number.
	ErrInvalidSpeedup = fmt.Errorf("%w: speedup must be positive", ErrInvalidConfig)

	// ErrInvalidRepeat indicates a negative repeat count.
	ErrInvalidRepeat = fmt.Errorf("%w: repeat count must not be negative", ErrInvalidConfig)

	// ErrInvalidDelay indicates a negative inter-repeat delay.
	ErrInvalidDelay = fmt.Errorf("%w: delay must not be negative", ErrInvalidConfig)

	// ErrNoSession indicates there is no recorded session to replay.
	ErrNoSession = errors.New("recorder: no session")

	// ErrBusy indicates the recorder is recording or replaying.
	ErrBusy = errors.New("recorder: busy")

	// ErrNoEmitter indicates replay was requested without an emitter.
	ErrNoEmitter = errors.New("recorder: no emitter")

	// ErrUnsupportedVersion indicates a session file newer than this
	// build understands.
	ErrUnsupportedVersion = errors.New("recorder: unsupported session version")
)
