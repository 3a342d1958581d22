// Package mode manages the named-mode hierarchy of a profile.
//
// Modes form a forest through single-parent inheritance: a binding that is
// absent for an input in the active mode is looked up in the parent chain.
// Exactly one mode is active at a time; the manager remembers the previously
// active mode for "switch to previous" actions and supports temporary
// switches that revert when the triggering input is released.
package mode
