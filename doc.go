// Package xkb compiles XKB keyboard descriptions — an RMLVO naming tuple
// resolved through a rules file, a set of component include expressions, or
// a single full keymap text — into an immutable Keymap, and drives a mutable
// State machine that turns physical key events into keysyms, modifier
// masks, layout indices, and indicator states.
//
// The pipeline is: Rules expansion (RMLVO -> KcCGST) -> include resolution
// -> parsing into per-file ASTs -> merging under augment/override/replace
// semantics -> four component compilers (keycodes, types, compat, symbols)
// -> a finalization pass that binds interpretations, indicators, and
// virtual modifiers -> an immutable Keymap. A State is then built from a
// Keymap and consumes key-down/key-up events or serialized mask updates.
//
// The package is not safe for concurrent mutation: a Context's atom table
// is mutated during compilation, and a State belongs to one goroutine at a
// time. An immutable Keymap may be read concurrently by multiple States.
package xkb
