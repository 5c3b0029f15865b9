package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/config"
	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/recorder"
	"github.com/quanmltya/repeat/internal/store"
)

// IDs of the built-in actions.
const (
	RecordActionID = "builtin.record"
	ReplayActionID = "builtin.replay"
)

// hotkeys is the set of built-in bindings currently in effect.
type hotkeys struct {
	record string
	replay string
	halt   key.Code
}

func hotkeysOf(cfg *config.Config) hotkeys {
	return hotkeys{record: cfg.Hotkeys.Record, replay: cfg.Hotkeys.Replay, halt: cfg.HaltCode()}
}

// builtins owns the record and replay toggles.
type builtins struct {
	app    *Application
	record *activation.FuncAction
	replay *activation.FuncAction

	mu      sync.Mutex
	current hotkeys
	bound   map[string]bool

	// ignored holds the codes kept out of recordings: the non-modifier keys
	// of the toggles and the halt key.
	ignored atomic.Pointer[map[key.Code]struct{}]
}

func newBuiltins(app *Application) *builtins {
	b := &builtins{app: app, bound: make(map[string]bool)}
	b.record = activation.NewFuncAction(RecordActionID, "toggle recording", activation.Activation{}, b.toggleRecord)
	b.replay = activation.NewFuncAction(ReplayActionID, "toggle replay", activation.Activation{}, b.toggleReplay)
	empty := map[key.Code]struct{}{}
	b.ignored.Store(&empty)
	return b
}

// bind registers the toggles for the first time.
func (b *builtins) bind(cfg *config.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bindLocked(hotkeysOf(cfg))
}

// rebind moves the toggles to cfg's hotkeys. The old bindings are dropped
// first so the two toggles can swap keys; on failure they are restored.
func (b *builtins) rebind(cfg *config.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := hotkeysOf(cfg)
	if next == b.current {
		return nil
	}
	prev := b.current
	b.unbindLocked()
	if err := b.bindLocked(next); err != nil {
		b.unbindLocked()
		if rerr := b.bindLocked(prev); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (b *builtins) bindLocked(h hotkeys) error {
	ignored := make(map[key.Code]struct{})
	if !h.halt.IsZero() {
		ignored[h.halt] = struct{}{}
	}
	for _, t := range []struct {
		action *activation.FuncAction
		spec   string
	}{
		{b.record, h.record},
		{b.replay, h.replay},
	} {
		if t.spec == "" {
			continue
		}
		chain, err := key.ParseChain(t.spec)
		if err != nil {
			return err
		}
		t.action.SetActivation(activation.FromChain(chain))
		if err := b.app.dispatcher.Register(t.action); err != nil {
			return err
		}
		b.bound[t.action.ID()] = true
		for _, c := range chain.Codes() {
			if !c.IsModifier() {
				ignored[c] = struct{}{}
			}
		}
	}
	b.current = h
	b.ignored.Store(&ignored)
	return nil
}

func (b *builtins) unbindLocked() {
	for id := range b.bound {
		b.app.dispatcher.UnregisterID(id)
	}
	clear(b.bound)
	b.current = hotkeys{}
}

// ignores reports whether e is kept out of recordings.
func (b *builtins) ignores(e input.Event) bool {
	ke, ok := e.(key.Event)
	if !ok {
		return false
	}
	_, skip := (*b.ignored.Load())[ke.Code()]
	return skip
}

func (b *builtins) toggleRecord(ctx context.Context, _ activation.Match) error {
	b.app.ToggleRecord(ctx)
	return nil
}

func (b *builtins) toggleReplay(_ context.Context, _ activation.Match) error {
	_, err := b.app.ToggleReplay()
	return err
}

// observe feeds the recorder every event except the built-in hotkeys.
func (app *Application) observe(e input.Event) {
	if app.builtins.ignores(e) {
		return
	}
	app.recorder.ObserveEvent(e)
}

// ToggleRecord starts a recording, or stops the current one and saves it
// to the store. It does nothing while a replay is running and reports
// whether the recorder changed state.
func (app *Application) ToggleRecord(ctx context.Context) bool {
	switch app.recorder.State() {
	case recorder.StateReplaying:
		app.logger.Debug("record toggle ignored during replay")
		return false
	case recorder.StateRecording:
		s := app.recorder.StopRecord()
		if s == nil {
			return false
		}
		app.saveSession(ctx, s)
		return true
	default:
		return app.recorder.Record()
	}
}

// ToggleReplay starts replaying the last session, or stops the running
// replay. It does nothing while recording.
func (app *Application) ToggleReplay() (bool, error) {
	switch app.recorder.State() {
	case recorder.StateRecording:
		app.logger.Debug("replay toggle ignored during recording")
		return false, nil
	case recorder.StateReplaying:
		app.recorder.StopReplay()
		return true, nil
	default:
		return app.StartReplay(app.ctx, nil, false)
	}
}

// StartReplay replays s, or the recorder's current session when s is nil,
// using the configured replay options. With no session in the recorder the
// latest stored one is loaded. A blocking replay returns once every pass
// has run or ctx is cancelled.
func (app *Application) StartReplay(ctx context.Context, s *recorder.Session, blocking bool) (bool, error) {
	if s == nil && app.recorder.Session() == nil && app.store != nil {
		latest, err := app.store.LatestSession(ctx)
		switch {
		case err == nil:
			s = latest
		case !errors.Is(err, store.ErrNotFound):
			return false, NewOperationError("load session", "latest", err)
		}
	}
	if s != nil {
		if err := app.recorder.Load(s); err != nil {
			return false, err
		}
	}

	opts := app.replayOptions()
	opts.Blocking = blocking
	return app.recorder.ReplayContext(ctx, opts, app.replayDone)
}

func (app *Application) replayOptions() recorder.ReplayOptions {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return recorder.ReplayOptions{
		Repeat:     app.cfg.Replay.Repeat,
		Delay:      app.cfg.Replay.Delay.Duration,
		MaxSpeedup: app.cfg.Replay.MaxSpeedup,
	}
}

func (app *Application) replayDone(err error) {
	switch {
	case err == nil:
		app.logger.Info("replay complete")
	case errors.Is(err, context.Canceled):
		app.logger.Info("replay stopped")
	default:
		app.logger.Error("replay failed", "error", err)
	}
}

func (app *Application) saveSession(ctx context.Context, s *recorder.Session) {
	if app.store == nil || s.IsEmpty() {
		return
	}
	if err := app.store.SaveSession(ctx, s); err != nil {
		app.logger.Error("session not saved", "session", s.ID, "error", err)
		return
	}
	app.logger.Info("session saved", "session", s.ID, "events", s.Len())
}
