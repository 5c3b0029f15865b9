package mouse

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
)

// Button identifies a mouse button. Wheel notches are reported as presses
// of the two scroll buttons.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
	ButtonScrollUp
	ButtonScrollDown
	ButtonBack    // button 4
	ButtonForward // button 5
)

var buttonNames = []string{"none", "left", "middle", "right", "scroll-up", "scroll-down", "back", "forward"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// ButtonFromName is the inverse of Button.String. Unknown names give
// ButtonNone.
func ButtonFromName(name string) Button {
	i := slices.Index(buttonNames, strings.ToLower(strings.TrimSpace(name)))
	if i < 0 {
		return ButtonNone
	}
	return Button(i)
}

// Action is what the pointer did.
type Action uint8

const (
	ActionNone Action = iota
	ActionPress
	ActionRelease
	ActionMove
)

func (a Action) String() string {
	switch a {
	case ActionPress:
		return "press"
	case ActionRelease:
		return "release"
	case ActionMove:
		return "move"
	}
	return "none"
}

// Position is a screen coordinate in pixels, or cells for terminal input.
type Position struct {
	X, Y int
}

// Event is one pointer event. Button is ButtonNone for moves.
type Event struct {
	Position  Position
	Button    Button
	Modifiers key.Modifier
	Action    Action
	Timestamp time.Time
}

// Press returns a press of b at pos, stamped now.
func Press(b Button, pos Position) Event {
	return Event{Position: pos, Button: b, Action: ActionPress, Timestamp: time.Now()}
}

// Release returns a release of b at pos, stamped now.
func Release(b Button, pos Position) Event {
	return Event{Position: pos, Button: b, Action: ActionRelease, Timestamp: time.Now()}
}

// Move returns a pointer move to pos, stamped now.
func Move(pos Position) Event {
	return Event{Position: pos, Action: ActionMove, Timestamp: time.Now()}
}

func (e Event) Time() time.Time { return e.Timestamp }

// Validate rejects unknown actions, button events without a known button
// and negative coordinates. Errors wrap input.ErrMalformedEvent.
func (e Event) Validate() error {
	var problem string
	switch {
	case e.Action == ActionNone || e.Action > ActionMove:
		problem = fmt.Sprintf("mouse action %d", e.Action)
	case e.Action != ActionMove && (e.Button == ButtonNone || e.Button > ButtonForward):
		problem = fmt.Sprintf("mouse %s with %s", e.Action, e.Button)
	case e.Position.X < 0 || e.Position.Y < 0:
		problem = fmt.Sprintf("mouse position %d,%d", e.Position.X, e.Position.Y)
	default:
		return nil
	}
	return fmt.Errorf("%w: %s", input.ErrMalformedEvent, problem)
}

// String renders "press left @10,20" or "move @10,20".
func (e Event) String() string {
	at := fmt.Sprintf("@%d,%d", e.Position.X, e.Position.Y)
	if e.Action == ActionMove {
		return "move " + at
	}
	return e.Action.String() + " " + e.Button.String() + " " + at
}

// WithTimestamp returns a copy stamped with t.
func (e Event) WithTimestamp(t time.Time) Event {
	e.Timestamp = t
	return e
}
