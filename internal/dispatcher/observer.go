package dispatcher

import (
	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/input"
)

// Observer sees every well-formed input event before trigger matching.
// It runs on the ingestion path and must not block.
type Observer interface {
	ObserveEvent(e input.Event)
}

// ObserverFunc is a function adapter for Observer.
type ObserverFunc func(e input.Event)

// ObserveEvent implements Observer.
func (f ObserverFunc) ObserveEvent(e input.Event) {
	f(e)
}

// Executor runs fired actions. Execute must not block the caller; HaltAll
// asks every running action to stop.
type Executor interface {
	Execute(m activation.Match) error
	HaltAll()
}

type observerEntry struct {
	id uint64
	o  Observer
}

// Observe subscribes o to the event stream. The returned function
// unsubscribes it.
func (d *Dispatcher) Observe(o Observer) (unsubscribe func()) {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()

	d.nextObserver++
	id := d.nextObserver
	next := make([]observerEntry, 0, len(d.observers)+1)
	next = append(next, d.observers...)
	next = append(next, observerEntry{id: id, o: o})
	d.observers = next

	return func() {
		d.obsMu.Lock()
		defer d.obsMu.Unlock()
		next := make([]observerEntry, 0, len(d.observers))
		for _, e := range d.observers {
			if e.id != id {
				next = append(next, e)
			}
		}
		d.observers = next
	}
}

// notify delivers e to the current observers. The observer slice is
// replaced, never mutated, so iterating a snapshot is safe.
func (d *Dispatcher) notify(e input.Event) {
	d.obsMu.RLock()
	observers := d.observers
	d.obsMu.RUnlock()

	for _, entry := range observers {
		entry.o.ObserveEvent(e)
	}
}
