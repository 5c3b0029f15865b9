package dispatcher

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/trigger"
)

// Logger is the logging surface the dispatcher needs. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dispatcher is the collision authority and event router.
//
// Registration and event ingestion are serialized by one mutex, so a
// registration never races a live match. Chord managers see each event
// before phrase managers; both may fire for the same keystroke and their
// results are merged by action ID, chord first.
type Dispatcher struct {
	mu sync.Mutex

	config   Config
	settings *trigger.Settings
	managers []trigger.Manager
	actions  map[string]activation.Action
	order    []string
	closed   bool

	executor Executor
	logger   Logger

	obsMu        sync.RWMutex
	observers    []observerEntry
	nextObserver uint64

	latency *LatencyTracker
	stats   counters
}

type counters struct {
	events    atomic.Uint64
	dropped   atomic.Uint64
	matches   atomic.Uint64
	rejected  atomic.Uint64
	halts     atomic.Uint64
	execFails atomic.Uint64
}

// New creates a dispatcher with one chord manager and one phrase manager.
// A nil executor means fired actions are only returned from OnEvent.
func New(config Config, executor Executor) *Dispatcher {
	settings := trigger.NewSettings(config.ExecuteOnRelease)
	return &Dispatcher{
		config:   config,
		settings: settings,
		managers: []trigger.Manager{
			trigger.NewChordManager(settings),
			trigger.NewPhraseManager(settings),
		},
		actions:  make(map[string]activation.Action),
		executor: executor,
		logger:   slog.New(slog.DiscardHandler),
		latency:  NewLatencyTracker(),
	}
}

// NewWithDefaults creates a dispatcher with default configuration and no
// executor.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig(), nil)
}

// SetLogger sets the logger.
func (d *Dispatcher) SetLogger(l Logger) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l
}

// Register binds an action. When the action is enabled its activation must
// not collide with any other enabled registered action; on collision the
// returned *CollisionError lists every conflicting action and nothing
// changes. Inert activations are accepted with a warning.
func (d *Dispatcher) Register(a activation.Action) error {
	if a == nil || a.ID() == "" {
		return ErrInvalidAction
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.registerLocked(a)
}

func (d *Dispatcher) registerLocked(a activation.Action) error {
	if d.closed {
		return ErrClosed
	}
	if _, ok := d.actions[a.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, a.ID())
	}

	act := a.Activation()
	if a.Enabled() {
		if cols := d.collisionsLocked(act, a.ID()); len(cols) > 0 {
			d.stats.rejected.Add(1)
			return &CollisionError{Action: a, Collisions: cols}
		}
	}
	if act.IsInert() {
		d.logger.Warn("registered action can never fire", "action", a.Name(), "id", a.ID())
	}

	for _, m := range d.managers {
		m.Register(a)
	}
	d.actions[a.ID()] = a
	d.order = append(d.order, a.ID())
	d.logger.Debug("registered action", "action", a.Name(), "activation", act.String())
	return nil
}

// RegisterAll registers a batch of actions. Failures do not stop the
// batch; they are collected into a *BatchError returned at the end.
func (d *Dispatcher) RegisterAll(actions ...activation.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var failures []error
	for _, a := range actions {
		var err error
		if a == nil || a.ID() == "" {
			err = ErrInvalidAction
		} else {
			err = d.registerLocked(a)
		}
		if err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &BatchError{Total: len(actions), Failures: failures}
}

// Unregister removes the action from every manager. It is a no-op for an
// action that was never registered.
func (d *Dispatcher) Unregister(a activation.Action) bool {
	if a == nil {
		return false
	}
	return d.UnregisterID(a.ID())
}

// UnregisterID removes the action with the given ID.
func (d *Dispatcher) UnregisterID(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.actions[id]; !ok {
		return false
	}
	for _, m := range d.managers {
		m.Unregister(id)
	}
	delete(d.actions, id)
	d.order = slices.DeleteFunc(d.order, func(s string) bool { return s == id })
	return true
}

// IsRegistered returns the enabled registered actions whose activation
// collides with act. It never changes state.
func (d *Dispatcher) IsRegistered(act activation.Activation) []activation.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collisionsLocked(act)
}

// IsActionRegistered returns the enabled registered actions colliding with
// a's own activation, including a itself when it is registered.
func (d *Dispatcher) IsActionRegistered(a activation.Action) []activation.Action {
	if a == nil {
		return nil
	}
	return d.IsRegistered(a.Activation())
}

// Collisions is IsRegistered with some action IDs left out, typically the
// action being edited.
func (d *Dispatcher) Collisions(act activation.Activation, exclude ...string) []activation.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collisionsLocked(act, exclude...)
}

func (d *Dispatcher) collisionsLocked(act activation.Activation, exclude ...string) []activation.Action {
	var out []activation.Action
	for _, m := range d.managers {
		for _, c := range m.Collisions(act, exclude...) {
			if !slices.ContainsFunc(out, func(x activation.Action) bool { return x.ID() == c.ID() }) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Rebind replaces a registered action's activation. The new activation is
// checked against every other action; on collision nothing changes.
func (d *Dispatcher) Rebind(a activation.Rebindable, act activation.Activation) error {
	if a == nil || a.ID() == "" {
		return ErrInvalidAction
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.actions[a.ID()]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, a.ID())
	}
	if a.Enabled() {
		if cols := d.collisionsLocked(act, a.ID()); len(cols) > 0 {
			d.stats.rejected.Add(1)
			return &CollisionError{Action: a, Collisions: cols}
		}
	}

	a.SetActivation(act)
	for _, m := range d.managers {
		m.Register(a)
	}
	d.logger.Debug("rebound action", "action", a.Name(), "activation", act.String())
	return nil
}

// Refresh re-reads a registered action's activation after it was changed
// outside Rebind, for example while the action was disabled.
func (d *Dispatcher) Refresh(a activation.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.actions[a.ID()]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, a.ID())
	}
	for _, m := range d.managers {
		m.Register(a)
	}
	return nil
}

// OnEvent ingests one hardware event and returns the actions it fired,
// each paired with the chord or phrase that matched. Malformed events are
// logged and dropped. Mouse events reach observers but never fire
// actions. A nil result is the common case and allocates nothing.
func (d *Dispatcher) OnEvent(e input.Event) []activation.Match {
	if e == nil {
		return nil
	}
	if err := e.Validate(); err != nil {
		d.stats.dropped.Add(1)
		d.logger.Warn("dropping malformed event", "error", err)
		return nil
	}
	d.stats.events.Add(1)
	d.notify(e)

	ke, ok := e.(key.Event)
	if !ok {
		return nil
	}

	start := time.Now()
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	halt := d.config.HaltEnabled && ke.IsPress() && ke.Code() == d.config.HaltKey

	var out []activation.Match
	for _, m := range d.managers {
		var got []activation.Match
		if ke.IsPress() {
			got = m.KeyPressed(ke)
		} else {
			got = m.KeyReleased(ke)
		}
		out = mergeMatches(out, got)
	}
	executor := d.executor
	logger := d.logger
	d.mu.Unlock()

	elapsed := time.Since(start)
	d.latency.Record(elapsed)
	if d.config.SlowEventThreshold > 0 && elapsed > d.config.SlowEventThreshold {
		logger.Warn("slow event ingestion", "event", ke.String(), "elapsed", elapsed)
	}

	if halt {
		d.HaltAll()
	}

	if len(out) == 0 {
		return nil
	}
	d.stats.matches.Add(uint64(len(out)))
	if executor != nil {
		for _, m := range out {
			if err := executor.Execute(m); err != nil {
				d.stats.execFails.Add(1)
				logger.Error("failed to hand off action", "action", m.Action.Name(), "error", err)
			}
		}
	}
	return out
}

// mergeMatches appends matches whose action is not already present.
func mergeMatches(dst, src []activation.Match) []activation.Match {
	for _, m := range src {
		dup := false
		for _, existing := range dst {
			if existing.Action.ID() == m.Action.ID() {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, m)
		}
	}
	return dst
}

// HaltAll asks every running action to stop. Cancellation is cooperative.
func (d *Dispatcher) HaltAll() {
	d.mu.Lock()
	executor := d.executor
	logger := d.logger
	d.mu.Unlock()

	d.stats.halts.Add(1)
	logger.Info("halting all running actions")
	if executor != nil {
		executor.HaltAll()
	}
}

// Actions returns a snapshot of the registered actions in registration
// order.
func (d *Dispatcher) Actions() []activation.Action {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]activation.Action, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.actions[id])
	}
	return out
}

// Lookup returns the registered action with the given ID.
func (d *Dispatcher) Lookup(id string) (activation.Action, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.actions[id]
	return a, ok
}

// SetExecuteOnRelease switches the evaluation phase. Transient matching
// state is reset so a half-typed phrase does not straddle the switch.
func (d *Dispatcher) SetExecuteOnRelease(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.settings.ExecuteOnRelease() == v {
		return
	}
	d.config.ExecuteOnRelease = v
	d.settings.SetExecuteOnRelease(v)
	for _, m := range d.managers {
		m.Reset()
	}
}

// SetHaltKey sets the halt key. A zero code disables halting.
func (d *Dispatcher) SetHaltKey(code key.Code) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.config = d.config.WithHaltKey(code)
}

// Config returns the current configuration.
func (d *Dispatcher) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// Reset clears held keys and typed history in every manager.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, m := range d.managers {
		m.Reset()
	}
}

// Close stops event processing and drops every registration. The executor
// is not closed; it belongs to the caller.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for _, id := range d.order {
		for _, m := range d.managers {
			m.Unregister(id)
		}
	}
	clear(d.actions)
	d.order = nil
}

// Stats is a point-in-time snapshot of dispatcher counters.
type Stats struct {
	Events     uint64
	Dropped    uint64
	Matches    uint64
	Rejected   uint64
	Halts      uint64
	ExecFailed uint64
	Registered int
	Latency    LatencyStats
}

// Stats returns a snapshot of dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	registered := len(d.actions)
	d.mu.Unlock()

	return Stats{
		Events:     d.stats.events.Load(),
		Dropped:    d.stats.dropped.Load(),
		Matches:    d.stats.matches.Load(),
		Rejected:   d.stats.rejected.Load(),
		Halts:      d.stats.halts.Load(),
		ExecFailed: d.stats.execFails.Load(),
		Registered: registered,
		Latency:    d.latency.Stats(),
	}
}
