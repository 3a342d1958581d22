// Package output declares the contracts for everything the runtime writes
// to: virtual joystick devices, OS-level keyboard and mouse injection, and
// text-to-speech. The implementations live outside this module (platform
// bindings); the runtime only depends on these interfaces, which keeps the
// engine headless and testable.
//
// All writes are idempotent: setting a button that is already pressed, or an
// axis to its current value, is not an error. Failures are reported as a
// *DeviceError so the dispatch layer can pause the runtime instead of
// crashing.
package output
