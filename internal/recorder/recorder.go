package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quanmltya/repeat/internal/input"
)

// Logger is the logging surface the recorder needs. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Emitter re-injects a replayed event. The application points it at the
// dispatcher (and optionally at an OS-level synthesizer) so replayed
// events take the same path as live ones.
type Emitter interface {
	Emit(ctx context.Context, e input.Event) error
}

// EmitterFunc is a function adapter for Emitter.
type EmitterFunc func(ctx context.Context, e input.Event) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, e input.Event) error {
	return f(ctx, e)
}

// State is the recorder mode.
type State uint8

const (
	StateIdle State = iota
	StateRecording
	StateReplaying
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateReplaying:
		return "replaying"
	default:
		return "unknown"
	}
}

// ReplayOptions controls one replay.
type ReplayOptions struct {
	// Repeat is the number of passes. Zero repeats until cancelled.
	Repeat int

	// Delay is the pause between passes. It is not scaled by the speedup.
	Delay time.Duration

	// MaxSpeedup caps the effective speed multiplier. Zero or negative
	// means no cap.
	MaxSpeedup float64

	// Blocking runs the replay on the caller's goroutine.
	Blocking bool
}

// Validate reports configuration errors. Errors wrap ErrInvalidConfig.
func (o ReplayOptions) Validate() error {
	if o.Repeat < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRepeat, o.Repeat)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDelay, o.Delay)
	}
	if math.IsNaN(o.MaxSpeedup) || math.IsInf(o.MaxSpeedup, 0) {
		return fmt.Errorf("%w: max speedup %v", ErrInvalidSpeedup, o.MaxSpeedup)
	}
	return nil
}

// Recorder captures input sessions and replays them.
//
// Recording and replaying are mutually exclusive; starting one while the
// other is active does nothing. The recorder is a dispatcher observer:
// every event the dispatcher accepts reaches ObserveEvent.
type Recorder struct {
	mu      sync.Mutex
	state   State
	current *Session
	first   time.Time
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}

	speedup atomic.Uint64 // math.Float64bits
	emitter Emitter
	logger  Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder logger.
func WithLogger(l Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an idle recorder that replays through emitter.
func New(emitter Emitter, opts ...Option) *Recorder {
	r := &Recorder{
		emitter: emitter,
		logger:  slog.New(slog.DiscardHandler),
	}
	r.speedup.Store(math.Float64bits(1))
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current mode.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsRecording reports whether the recorder is armed.
func (r *Recorder) IsRecording() bool {
	return r.State() == StateRecording
}

// IsReplaying reports whether a replay is in progress.
func (r *Recorder) IsReplaying() bool {
	return r.State() == StateReplaying
}

// Record arms the recorder with a new empty session. It reports false and
// does nothing unless the recorder is idle.
func (r *Recorder) Record() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return false
	}
	r.state = StateRecording
	r.current = NewSession("")
	r.first = time.Time{}
	r.logger.Info("recording started", "session", r.current.ID)
	return true
}

// StopRecord seals the active session and makes it the replay source. It
// returns a copy of the sealed session, or nil when not recording.
func (r *Recorder) StopRecord() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return nil
	}
	s := r.current
	s.TrimEdges()
	r.session = s
	r.current = nil
	r.state = StateIdle
	r.logger.Info("recording stopped", "session", s.ID, "events", s.Len(), "duration", s.Duration())
	return s.Clone()
}

// ObserveEvent appends e to the active session while recording. Offsets
// are measured from the first recorded event.
func (r *Recorder) ObserveEvent(e input.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return
	}
	t := e.Time()
	if t.IsZero() {
		t = time.Now()
	}
	if r.first.IsZero() {
		r.first = t
	}
	r.current.Append(t.Sub(r.first), e)
}

// Session returns a copy of the sealed session, or nil.
func (r *Recorder) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Clone()
}

// Load replaces the sealed session. It fails with ErrBusy unless idle.
func (r *Recorder) Load(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return ErrBusy
	}
	r.session = s.Clone()
	return nil
}

// Clear discards the sealed session when idle.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateIdle {
		r.session = nil
	}
}

// SetSpeedup sets the speed multiplier. A running replay picks it up for
// the next delay it schedules.
func (r *Recorder) SetSpeedup(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeedup, factor)
	}
	r.speedup.Store(math.Float64bits(factor))
	return nil
}

// Speedup returns the speed multiplier.
func (r *Recorder) Speedup() float64 {
	return math.Float64frombits(r.speedup.Load())
}

// Replay is ReplayContext with a background context.
func (r *Recorder) Replay(opts ReplayOptions, onComplete func(error)) (bool, error) {
	return r.ReplayContext(context.Background(), opts, onComplete)
}

// ReplayContext re-emits the sealed session in order. Each inter-event gap
// is divided by the current speedup; passes are separated by opts.Delay.
//
// It reports false with a nil error, and does nothing, unless the recorder
// is idle. Configuration errors and a missing session are returned before
// any state changes. Otherwise onComplete runs exactly once when the last
// pass ends or the replay is cancelled; cancellation is reported as
// context.Canceled and is not a failure. A blocking replay returns after
// onComplete with any emit error.
func (r *Recorder) ReplayContext(ctx context.Context, opts ReplayOptions, onComplete func(error)) (bool, error) {
	if err := opts.Validate(); err != nil {
		return false, err
	}
	if r.emitter == nil {
		return false, ErrNoEmitter
	}

	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return false, nil
	}
	if r.session.IsEmpty() {
		r.mu.Unlock()
		return false, ErrNoSession
	}
	entries := r.session.Entries
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.state = StateReplaying
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	r.logger.Info("replay started", "events", len(entries), "repeat", opts.Repeat, "speedup", r.Speedup())

	var once sync.Once
	complete := func(err error) {
		once.Do(func() {
			if onComplete != nil {
				onComplete(err)
			}
		})
	}

	run := func() error {
		err := r.play(ctx, entries, opts)
		cancel()

		r.mu.Lock()
		r.state = StateIdle
		r.cancel = nil
		r.mu.Unlock()

		switch {
		case err == nil:
			r.logger.Info("replay finished")
		case errors.Is(err, context.Canceled):
			r.logger.Info("replay cancelled")
		default:
			r.logger.Error("replay failed", "error", err)
		}
		complete(err)

		r.mu.Lock()
		if r.done == done {
			r.done = nil
		}
		r.mu.Unlock()
		close(done)
		return err
	}

	if opts.Blocking {
		if err := run(); err != nil && !errors.Is(err, context.Canceled) {
			return true, err
		}
		return true, nil
	}
	go run()
	return true, nil
}

func (r *Recorder) play(ctx context.Context, entries []Entry, opts ReplayOptions) error {
	for pass := 0; opts.Repeat == 0 || pass < opts.Repeat; pass++ {
		if pass > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				return err
			}
		}
		var prev time.Duration
		for _, e := range entries {
			gap := e.Offset - prev
			prev = e.Offset
			if err := sleep(ctx, r.scale(gap, opts.MaxSpeedup)); err != nil {
				return err
			}
			if err := r.emitter.Emit(ctx, restamp(e.Event, time.Now())); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("recorder: emit %s: %w", e.Event, err)
			}
		}
	}
	return nil
}

// scale divides d by the effective speedup. Gaps too long to represent
// saturate at the longest Duration.
func (r *Recorder) scale(d time.Duration, maxSpeedup float64) time.Duration {
	factor := r.Speedup()
	if maxSpeedup > 0 {
		factor = min(factor, maxSpeedup)
	}
	scaled := float64(d) / factor
	if scaled >= math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(scaled)
}

// sleep waits for d or until ctx is done. It always reports a done
// context, even when d is zero, so cancellation lands before the next
// emit.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopReplay cancels a running replay. It is safe to call at any time.
func (r *Recorder) StopReplay() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the running replay, if any, has finished and its
// completion callback has returned.
func (r *Recorder) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
