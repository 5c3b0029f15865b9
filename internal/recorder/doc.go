// Package recorder captures input sessions and replays them with a speed
// multiplier, a repeat count and cancellation.
//
// A Recorder observes the dispatcher's event stream. While armed it appends
// every event to the active Session with its offset from the first event.
// Replay re-emits the sealed session through an Emitter, normally the
// dispatcher itself, so replayed events can fire bound actions exactly like
// live ones.
//
// Sessions round-trip through a versioned JSON format with Export, Import,
// SaveFile and LoadFile.
package recorder
