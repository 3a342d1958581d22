package runtime

import "errors"

var (
	// ErrNotActive indicates an operation that needs an activated profile.
	ErrNotActive = errors.New("runtime: no active profile")

	// ErrAlreadyActive indicates Activate was called twice without a
	// Deactivate in between.
	ErrAlreadyActive = errors.New("runtime: profile already active")
)
