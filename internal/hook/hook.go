// Package hook connects hardware event sources to the dispatcher.
//
// A Source produces normalized key and mouse events and hands each one to
// a Sink, normally the *dispatcher.Dispatcher. Three sources exist:
//
//   - Script reads keystroke specifications from a reader, for tests and
//     piped input.
//   - Terminal captures keys and mouse events from the controlling
//     terminal using tcell.
//   - Global installs an OS-wide hook with gohook. It is only available
//     in builds with the "gohook" tag.
//
// Emitters go the other way: they receive events from the replayer.
package hook

import (
	"context"
	"errors"
	"time"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
)

// ErrUnsupported is returned by sources that are not compiled in.
var ErrUnsupported = errors.New("hook: source not supported in this build")

// Logger is the logging surface hook sources need.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Sink receives normalized events. *dispatcher.Dispatcher implements it.
type Sink interface {
	OnEvent(e input.Event) []activation.Match
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e input.Event)

// OnEvent implements Sink.
func (f SinkFunc) OnEvent(e input.Event) []activation.Match {
	f(e)
	return nil
}

// Source produces events until its context is cancelled or its input
// ends.
type Source interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}

// Expand turns a logical keystroke, such as the single Ctrl+s event a
// terminal reports, into the physical sequence a keyboard would produce:
// modifier presses, the key press and release, then modifier releases in
// reverse order. Each event carries the modifiers held at that point.
func Expand(e key.Event) []key.Event {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	mods := e.Modifiers.Codes()
	out := make([]key.Event, 0, 2*len(mods)+2)

	var held key.Modifier
	for _, c := range mods {
		out = append(out, key.Press(c, held).WithTimestamp(ts))
		held = held.With(c.Modifier())
	}
	out = append(out,
		key.Press(e.Code(), held).WithTimestamp(ts),
		key.Release(e.Code(), held).WithTimestamp(ts),
	)
	for i := len(mods) - 1; i >= 0; i-- {
		held = held.Without(mods[i].Modifier())
		out = append(out, key.Release(mods[i], held).WithTimestamp(ts))
	}
	return out
}

// feed sends each event to sink, stopping early when ctx is done.
func feed[E input.Event](ctx context.Context, sink Sink, events []E) error {
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		sink.OnEvent(e)
	}
	return nil
}
