// Package dispatcher owns the registry of bound actions and routes input
// events to the trigger managers.
//
// # Registration
//
// Every action enters through Register or RegisterAll. An enabled action
// whose activation collides with another enabled action is rejected with
// a *CollisionError naming all of the conflicting actions. Two chord
// activations collide when they share an identical chain; two phrase
// activations collide when one is a prefix of the other. Disabled actions
// are neither checked nor matched, so they may hold overlapping
// activations until they are enabled again.
//
// # Event flow
//
// OnEvent validates the event, notifies observers (the recorder is one),
// then feeds key events to the chord manager followed by the phrase
// manager. Matches from both are merged by action ID and handed to the
// Executor, which must not block. Pressing the halt key asks the executor
// to stop every running action; the key is still matched normally.
//
// # Concurrency
//
// A single mutex serializes registration against event ingestion.
// Observers are notified outside that lock from a copy-on-write slice.
package dispatcher
