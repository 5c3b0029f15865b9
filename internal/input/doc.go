// Package input defines the normalized hardware event shared by the key and
// mouse models.
//
// Hook sources produce key.Event and mouse.Event values; the dispatcher and
// recorder consume them through the Event interface. Events are plain
// values, so a replayed event is indistinguishable from a live one.
package input
