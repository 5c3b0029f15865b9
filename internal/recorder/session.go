package recorder

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/input/mouse"
)

// Entry is one recorded event and its offset from the first event of the
// session.
type Entry struct {
	Offset time.Duration
	Event  input.Event
}

// Session is an ordered recording. Offsets never decrease.
type Session struct {
	ID      uuid.UUID
	Name    string
	Created time.Time
	Entries []Entry
}

// NewSession creates an empty session with a fresh ID.
func NewSession(name string) *Session {
	return &Session{ID: uuid.New(), Name: name, Created: time.Now()}
}

// Len returns the number of entries.
func (s *Session) Len() int {
	return len(s.Entries)
}

// IsEmpty reports whether the session has no entries.
func (s *Session) IsEmpty() bool {
	return s == nil || len(s.Entries) == 0
}

// Duration returns the offset of the last entry.
func (s *Session) Duration() time.Duration {
	if s.IsEmpty() {
		return 0
	}
	return s.Entries[len(s.Entries)-1].Offset
}

// Clone returns a copy whose entry slice is not shared. Events are values
// and need no deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Entries = slices.Clone(s.Entries)
	return &c
}

// Append adds an event at the given offset, clamped so offsets never
// decrease.
func (s *Session) Append(offset time.Duration, e input.Event) {
	if n := len(s.Entries); n > 0 {
		offset = max(offset, s.Entries[n-1].Offset)
	}
	s.Entries = append(s.Entries, Entry{Offset: max(offset, 0), Event: e})
}

// TrimEdges drops the artifacts of the toggle that started and stopped the
// recording: key releases whose press was never captured and the presses
// of keys still held when recording stopped. Repeated presses of a held
// key are auto-repeat and are kept. Offsets are rebased so the first
// remaining entry is at zero.
func (s *Session) TrimEdges() {
	// heldSince maps each held code to the index of the press that
	// started the hold.
	heldSince := make(map[key.Code]int)
	keep := make([]bool, len(s.Entries))
	for i, e := range s.Entries {
		keep[i] = true
		ke, ok := e.Event.(key.Event)
		if !ok {
			continue
		}
		c := ke.Code()
		_, held := heldSince[c]
		switch {
		case ke.IsPress():
			if !held {
				heldSince[c] = i
			}
		case held:
			delete(heldSince, c)
		default:
			keep[i] = false
		}
	}
	for c, since := range heldSince {
		for i := since; i < len(s.Entries); i++ {
			if ke, ok := s.Entries[i].Event.(key.Event); ok && ke.IsPress() && ke.Code() == c {
				keep[i] = false
			}
		}
	}

	out := s.Entries[:0]
	for i, e := range s.Entries {
		if keep[i] {
			out = append(out, e)
		}
	}
	clear(s.Entries[len(out):])
	s.Entries = out

	if len(s.Entries) > 0 {
		base := s.Entries[0].Offset
		for i := range s.Entries {
			s.Entries[i].Offset -= base
		}
	}
}

// restamp returns e stamped with t so replayed events look live.
func restamp(e input.Event, t time.Time) input.Event {
	switch e := e.(type) {
	case key.Event:
		return e.WithTimestamp(t)
	case mouse.Event:
		return e.WithTimestamp(t)
	default:
		return e
	}
}
