// Package input defines the event primitives shared by the whole runtime.
//
// An Event is an immutable description of one physical or synthetic input
// change (axis motion, button press, hat direction, key, mouse button). A
// Value wraps the payload of one event as it travels down an action chain:
// the raw payload never changes, while the current payload may be rewritten
// by upstream actions (inversion, response curves, merging) before
// downstream actions observe it.
package input
