package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/input/mouse"
)

// Terminal is a Source reading the controlling terminal through tcell.
//
// Terminals report whole keystrokes rather than separate presses and
// releases, so each keystroke is expanded with Expand. Mouse button state
// is diffed between reports to produce press and release events. Ctrl+C
// ends the source.
type Terminal struct {
	screen tcell.Screen
	logger Logger

	mu      sync.Mutex
	buttons tcell.ButtonMask
}

// NewTerminal opens the controlling terminal.
func NewTerminal(logger Logger) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("hook: open terminal: %w", err)
	}
	return NewTerminalWithScreen(screen, logger), nil
}

// NewTerminalWithScreen uses an existing, uninitialised screen.
func NewTerminalWithScreen(screen tcell.Screen, logger Logger) *Terminal {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Terminal{screen: screen, logger: logger}
}

// Name implements Source.
func (t *Terminal) Name() string { return "terminal" }

// Run implements Source. The screen is restored when Run returns.
func (t *Terminal) Run(ctx context.Context, sink Sink) error {
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("hook: init terminal: %w", err)
	}
	t.screen.EnableMouse()
	t.screen.Clear()
	t.screen.Show()

	var finiOnce sync.Once
	fini := func() { finiOnce.Do(t.screen.Fini) }
	defer fini()

	stop := context.AfterFunc(ctx, fini)
	defer stop()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return ctx.Err()
		}
		switch e := ev.(type) {
		case *tcell.EventKey:
			if isInterrupt(e) {
				t.logger.Info("terminal source interrupted")
				return nil
			}
			ke, ok := convertKey(e)
			if !ok {
				t.logger.Debug("unmapped terminal key", "key", e.Name())
				continue
			}
			if err := feed(ctx, sink, Expand(ke)); err != nil {
				return err
			}
		case *tcell.EventMouse:
			if err := feed(ctx, sink, t.convertMouse(e)); err != nil {
				return err
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func isInterrupt(e *tcell.EventKey) bool {
	if e.Key() == tcell.KeyCtrlC {
		return true
	}
	return e.Key() == tcell.KeyRune && (e.Rune() == 'c' || e.Rune() == 'C') && e.Modifiers()&tcell.ModCtrl != 0
}

// convertKey maps a tcell keystroke to a press event.
func convertKey(e *tcell.EventKey) (key.Event, bool) {
	mods := convertMod(e.Modifiers())
	ts := e.When()

	k := e.Key()
	if k == tcell.KeyRune {
		r := e.Rune()
		if r == ' ' {
			return key.NewEvent(key.PhasePress, key.KeySpace, 0, mods).WithTimestamp(ts), true
		}
		return key.NewEvent(key.PhasePress, key.KeyRune, r, mods).WithTimestamp(ts), true
	}
	if special, ok := specialKey(k); ok {
		return key.NewEvent(key.PhasePress, special, 0, mods).WithTimestamp(ts), true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		r := rune('a' + (k - tcell.KeyCtrlA))
		return key.NewEvent(key.PhasePress, key.KeyRune, r, mods.With(key.ModCtrl)).WithTimestamp(ts), true
	}
	return key.Event{}, false
}

// specialKey maps named tcell keys. Tab, Enter, Backspace and Escape
// share codes with control keys and are checked before them.
func specialKey(k tcell.Key) (key.Key, bool) {
	switch k {
	case tcell.KeyEscape:
		return key.KeyEscape, true
	case tcell.KeyEnter:
		return key.KeyEnter, true
	case tcell.KeyTab:
		return key.KeyTab, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.KeyBackspace, true
	case tcell.KeyDelete:
		return key.KeyDelete, true
	case tcell.KeyInsert:
		return key.KeyInsert, true
	case tcell.KeyHome:
		return key.KeyHome, true
	case tcell.KeyEnd:
		return key.KeyEnd, true
	case tcell.KeyPgUp:
		return key.KeyPageUp, true
	case tcell.KeyPgDn:
		return key.KeyPageDown, true
	case tcell.KeyUp:
		return key.KeyUp, true
	case tcell.KeyDown:
		return key.KeyDown, true
	case tcell.KeyLeft:
		return key.KeyLeft, true
	case tcell.KeyRight:
		return key.KeyRight, true
	}
	if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
		return key.KeyF1 + key.Key(k-tcell.KeyF1), true
	}
	return key.KeyNone, false
}

func convertMod(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}
	return mods
}

var mouseButtons = []struct {
	mask   tcell.ButtonMask
	button mouse.Button
}{
	{tcell.Button1, mouse.ButtonLeft},
	{tcell.Button3, mouse.ButtonMiddle},
	{tcell.Button2, mouse.ButtonRight},
}

// convertMouse diffs the reported button state against the previous
// report. Wheel reports become a press and release of the scroll button.
func (t *Terminal) convertMouse(e *tcell.EventMouse) []input.Event {
	x, y := e.Position()
	pos := mouse.Position{X: max(x, 0), Y: max(y, 0)}
	mods := convertMod(e.Modifiers())
	ts := e.When()
	now := e.Buttons()

	t.mu.Lock()
	prev := t.buttons
	t.buttons = now &^ (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight)
	t.mu.Unlock()

	mk := func(b mouse.Button, a mouse.Action) input.Event {
		return mouse.Event{Position: pos, Button: b, Modifiers: mods, Action: a, Timestamp: ts}
	}

	var out []input.Event
	for _, mb := range mouseButtons {
		was, is := prev&mb.mask != 0, now&mb.mask != 0
		switch {
		case is && !was:
			out = append(out, mk(mb.button, mouse.ActionPress))
		case was && !is:
			out = append(out, mk(mb.button, mouse.ActionRelease))
		}
	}
	for _, w := range []struct {
		mask   tcell.ButtonMask
		button mouse.Button
	}{{tcell.WheelUp, mouse.ButtonScrollUp}, {tcell.WheelDown, mouse.ButtonScrollDown}} {
		if now&w.mask != 0 {
			out = append(out, mk(w.button, mouse.ActionPress), mk(w.button, mouse.ActionRelease))
		}
	}
	if len(out) == 0 {
		out = append(out, mk(mouse.ButtonNone, mouse.ActionMove))
	}
	return out
}
