// Package macro implements recorded-output playback: ordered sequences of
// primitive steps (key press/release, mouse buttons and motion, pauses,
// virtual joystick writes) executed off the main event path.
//
// The engine owns playback concurrency. Non-exclusive macros run in
// parallel; an exclusive macro waits for everything in flight and blocks
// new playback until it finishes. Repeat policies control what happens when
// the sequence completes: Count repeats a fixed number of times, Toggle
// repeats until the same macro is queued again, and Hold repeats until an
// external release callback terminates it.
package macro
