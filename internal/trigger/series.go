package trigger

import (
	"github.com/quanmltya/repeat/internal/input/key"
)

const releaseSlack = 4

// RollingSeries is the bounded recent key history a PhraseManager matches
// against. It keeps both presses and releases in arrival order, holds at
// most limit presses, and drops the oldest press (with anything before it)
// when a new one would exceed the limit. Pure modifier keys are not stored;
// their effect is carried in the modifiers of the next event.
type RollingSeries struct {
	events  []key.Event
	presses int
	limit   int
}

// NewRollingSeries creates a series holding at most limit presses.
func NewRollingSeries(limit int) *RollingSeries {
	return &RollingSeries{
		events: make([]key.Event, 0, 2*max(limit, 1)),
		limit:  max(limit, 0),
	}
}

// Add appends an event, trimming the oldest presses past the limit.
// Releases are only kept once a press has been seen.
func (s *RollingSeries) Add(e key.Event) {
	if e.IsModifierKey() || s.limit == 0 || (e.IsRelease() && s.presses == 0) {
		return
	}
	s.events = append(s.events, e)
	if e.IsPress() {
		s.presses++
	}
	s.trim()
}

// SetLimit changes the press limit and trims immediately.
func (s *RollingSeries) SetLimit(limit int) {
	s.limit = max(limit, 0)
	s.trim()
}

// Limit returns the press limit.
func (s *RollingSeries) Limit() int {
	return s.limit
}

// Len returns the number of stored events.
func (s *RollingSeries) Len() int {
	return len(s.events)
}

// Presses returns the number of stored press events.
func (s *RollingSeries) Presses() int {
	return s.presses
}

// Clear empties the series, keeping its storage.
func (s *RollingSeries) Clear() {
	s.events = s.events[:0]
	s.presses = 0
}

// EndsWith reports whether the most recent presses spell p.
func (s *RollingSeries) EndsWith(p key.Phrase) bool {
	i := p.Len() - 1
	if i < 0 || p.Len() > s.presses {
		return false
	}
	for j := len(s.events) - 1; j >= 0 && i >= 0; j-- {
		e := s.events[j]
		if !e.IsPress() {
			continue
		}
		if e.Stroke() != p.At(i) {
			return false
		}
		i--
	}
	return i < 0
}

// Phrase returns the stored presses as a phrase.
func (s *RollingSeries) Phrase() key.Phrase {
	return key.PhraseFromEvents(s.events...)
}

// trim shifts out the oldest presses over the limit along with any release
// events that precede the first remaining press. The stored events never
// exceed releaseSlack times the limit.
func (s *RollingSeries) trim() {
	if s.presses <= s.limit && len(s.events) <= releaseSlack*s.limit {
		return
	}
	drop := 0
	for drop < len(s.events) && (s.presses > s.limit || len(s.events)-drop > releaseSlack*s.limit) {
		if s.events[drop].IsPress() {
			s.presses--
		}
		drop++
	}
	for drop < len(s.events) && !s.events[drop].IsPress() {
		drop++
	}
	n := copy(s.events, s.events[drop:])
	s.events = s.events[:n]
}
