// Package config loads the application configuration.
//
// Settings come from three layers, later ones winning:
//
//   - built-in defaults (Default)
//   - a TOML file, by default DefaultPath
//   - environment variables prefixed with REPEAT_
//
// A minimal file:
//
//	[halt]
//	key = "Escape"
//
//	[hotkeys]
//	record = "F9"
//	replay = "F10"
//
//	[replay]
//	speedup = 2.0
//	repeat = 3
//	delay = "500ms"
//
// Unknown keys are rejected. Validate reports every invalid value at once,
// wrapped in ErrValidationFailed.
//
// Watcher reloads the file on change using fsnotify and hands each valid
// configuration to its subscribers.
package config
