package hook

import (
	"context"
	"errors"

	"github.com/quanmltya/repeat/internal/input"
)

// SinkEmitter replays events into a Sink, typically the dispatcher, so
// replayed input fires actions exactly as live input would.
type SinkEmitter struct {
	Sink Sink
}

// Emit implements recorder.Emitter.
func (s SinkEmitter) Emit(ctx context.Context, e input.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Sink.OnEvent(e)
	return nil
}

// LogEmitter writes each replayed event to a logger.
type LogEmitter struct {
	Logger Logger
}

// Emit implements recorder.Emitter.
func (l LogEmitter) Emit(_ context.Context, e input.Event) error {
	l.Logger.Info("replay", "event", e.String())
	return nil
}

// Emitter mirrors recorder.Emitter to keep this package free of a
// dependency on the recorder.
type Emitter interface {
	Emit(ctx context.Context, e input.Event) error
}

// MultiEmitter emits to every emitter in order and joins their errors.
type MultiEmitter []Emitter

// Emit implements recorder.Emitter.
func (m MultiEmitter) Emit(ctx context.Context, e input.Event) error {
	var errs []error
	for _, em := range m {
		if err := em.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
