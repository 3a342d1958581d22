package mode

import "errors"

// Mode manager errors.
var (
	// ErrModeExists indicates a mode with the same name is already
	// registered.
	ErrModeExists = errors.New("mode: mode already exists")

	// ErrUnknownMode indicates the named mode is not registered.
	ErrUnknownMode = errors.New("mode: unknown mode")

	// ErrCycle indicates a reparenting operation would create a cycle in
	// the inheritance chain.
	ErrCycle = errors.New("mode: reparenting would create a cycle")

	// ErrLastMode indicates an attempt to delete the only remaining mode.
	ErrLastMode = errors.New("mode: cannot delete the last mode")

	// ErrNoPrevious indicates no previous mode has been recorded yet.
	ErrNoPrevious = errors.New("mode: no previous mode")
)
