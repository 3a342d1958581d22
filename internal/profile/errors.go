package profile

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrParse indicates malformed profile XML or an invalid enum value.
	ErrParse = errors.New("profile: parse failed")

	// ErrNoModes indicates a profile without a single mode.
	ErrNoModes = errors.New("profile: no modes defined")
)

// ReferenceError reports a dangling id in a loaded profile. It is fatal;
// the profile must not activate with broken references.
type ReferenceError struct {
	// ID is the unresolved reference.
	ID uuid.UUID

	// Context names the element holding the reference.
	Context string
}

// Error implements error.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("profile: %s references unknown id %s", e.Context, e.ID)
}
