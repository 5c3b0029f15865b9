//go:build gohook

package hook

import (
	"context"
	"log/slog"

	hook "github.com/robotn/gohook"

	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/input/mouse"
)

// Modifier mask bits reported in hook.Event.Mask.
const (
	maskShiftL = 1 << 0
	maskCtrlL  = 1 << 1
	maskMetaL  = 1 << 2
	maskAltL   = 1 << 3
	maskShiftR = 1 << 4
	maskCtrlR  = 1 << 5
	maskMetaR  = 1 << 6
	maskAltR   = 1 << 7
)

// Global is a Source using an OS-wide keyboard and mouse hook. Unlike the
// terminal it sees real presses and releases, including modifier keys.
type Global struct {
	logger Logger
	codes  map[uint16]key.Code
}

// NewGlobal creates the OS-wide source.
func NewGlobal(logger Logger) (*Global, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Global{logger: logger, codes: keycodeTable()}, nil
}

// Name implements Source.
func (g *Global) Name() string { return "global" }

// Run implements Source. Only one global hook may run per process.
func (g *Global) Run(ctx context.Context, sink Sink) error {
	events := hook.Start()
	defer hook.End()
	g.logger.Info("global hook started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if e, ok := g.convert(ev); ok {
				sink.OnEvent(e)
			}
		}
	}
}

func (g *Global) convert(ev hook.Event) (input.Event, bool) {
	mods := maskModifiers(ev.Mask)
	switch ev.Kind {
	case hook.KeyHold, hook.KeyUp:
		code, ok := g.codes[ev.Keycode]
		if !ok {
			g.logger.Debug("unmapped keycode", "keycode", ev.Keycode, "rawcode", ev.Rawcode)
			return nil, false
		}
		phase := key.PhasePress
		if ev.Kind == hook.KeyUp {
			phase = key.PhaseRelease
		}
		return key.NewEvent(phase, code.Key, code.Rune, mods).WithTimestamp(ev.When), true

	case hook.MouseHold, hook.MouseDown:
		action := mouse.ActionPress
		if ev.Kind == hook.MouseDown {
			action = mouse.ActionRelease
		}
		return mouse.Event{
			Position:  mouse.Position{X: max(int(ev.X), 0), Y: max(int(ev.Y), 0)},
			Button:    mouseButton(ev.Button),
			Modifiers: mods,
			Action:    action,
			Timestamp: ev.When,
		}, true

	case hook.MouseMove, hook.MouseDrag:
		return mouse.Event{
			Position:  mouse.Position{X: max(int(ev.X), 0), Y: max(int(ev.Y), 0)},
			Modifiers: mods,
			Action:    mouse.ActionMove,
			Timestamp: ev.When,
		}, true
	}
	return nil, false
}

func maskModifiers(mask uint16) key.Modifier {
	var mods key.Modifier
	if mask&(maskShiftL|maskShiftR) != 0 {
		mods = mods.With(key.ModShift)
	}
	if mask&(maskCtrlL|maskCtrlR) != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if mask&(maskAltL|maskAltR) != 0 {
		mods = mods.With(key.ModAlt)
	}
	if mask&(maskMetaL|maskMetaR) != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}

func mouseButton(b uint16) mouse.Button {
	switch b {
	case 1:
		return mouse.ButtonLeft
	case 2:
		return mouse.ButtonRight
	case 3:
		return mouse.ButtonMiddle
	case 4:
		return mouse.ButtonBack
	case 5:
		return mouse.ButtonForward
	}
	return mouse.ButtonNone
}

// keycodeTable inverts gohook's name table into key codes.
func keycodeTable() map[uint16]key.Code {
	out := make(map[uint16]key.Code, len(hook.Keycode))
	for name, code := range hook.Keycode {
		if c, err := key.ParseCode(hookKeyName(name)); err == nil {
			out[code] = c
		}
	}
	return out
}

// hookKeyName translates gohook key names to the names key.ParseCode
// accepts.
func hookKeyName(name string) string {
	switch name {
	case "esc":
		return "Escape"
	case "enter":
		return "Enter"
	case "space":
		return "Space"
	case "cmd", "command", "rcmd":
		return "Meta"
	case "rctrl":
		return "Ctrl"
	case "ralt":
		return "Alt"
	case "rshift":
		return "Shift"
	case "pageup":
		return "PageUp"
	case "pagedown":
		return "PageDown"
	}
	return name
}
