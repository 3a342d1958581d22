package macro

import "time"

// Repeat controls what happens after a macro's sequence completes.
type Repeat interface {
	// Tag returns the stable serialization tag of the policy.
	Tag() string

	// Delay returns the pause between repeated runs.
	Delay() time.Duration
}

// CountRepeat runs the sequence a fixed number of times.
type CountRepeat struct {
	Count    int
	RunDelay time.Duration
}

// Tag implements Repeat.
func (c CountRepeat) Tag() string { return "count" }

// Delay implements Repeat.
func (c CountRepeat) Delay() time.Duration { return c.RunDelay }

// ToggleRepeat runs the sequence until the same macro is queued a second
// time.
type ToggleRepeat struct {
	RunDelay time.Duration
}

// Tag implements Repeat.
func (t ToggleRepeat) Tag() string { return "toggle" }

// Delay implements Repeat.
func (t ToggleRepeat) Delay() time.Duration { return t.RunDelay }

// HoldRepeat runs the sequence until the engine's TerminateHold is called,
// normally wired to the release of the triggering input.
type HoldRepeat struct {
	RunDelay time.Duration
}

// Tag implements Repeat.
func (h HoldRepeat) Tag() string { return "hold" }

// Delay implements Repeat.
func (h HoldRepeat) Delay() time.Duration { return h.RunDelay }
