// Package mouse provides the mouse event model.
//
// Event carries a button, an action (press, release or move), a screen
// position, the keyboard modifiers held at the time, and a timestamp.
// Mouse events never trigger actions; they are recorded and replayed
// alongside key events.
package mouse
