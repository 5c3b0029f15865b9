// Package key provides the keyboard event model and trigger parsing.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: Identifies a keyboard key (special keys, modifier keys, or runes)
//   - Modifier: Modifier flags held during an event (Ctrl, Alt, Shift, Meta)
//   - Code: The normalized identity of a physical key
//   - Event: A single key press or release with modifiers and timestamp
//   - Chain: A chord, the set of keys that must be held together
//   - Phrase: An ordered series of strokes typed over time
//
// # Key Specifications
//
// Single keys can be written in multiple formats:
//
//   - Simple keys: "a", "A", "1", "Enter", "Escape", "Ctrl"
//   - With modifiers: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P"
//   - Vim-style: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
//
// Chains use the plus form ("Ctrl+Shift+P", "a+s"). Phrases are strokes
// separated by commas ("a,b,c"), spaces ("g g") or written continuously
// ("gg", "<C-x><C-s>").
package key
