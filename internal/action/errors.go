package action

import "errors"

// Data model errors. Configuration errors are fatal to profile activation;
// they are never downgraded to warnings.
var (
	// ErrUnknownContainer indicates a container name not valid for the
	// node's type.
	ErrUnknownContainer = errors.New("action: unknown container")

	// ErrInvalidData indicates a node whose configuration cannot be
	// executed (wrong arity, missing target, empty condition).
	ErrInvalidData = errors.New("action: invalid action configuration")

	// ErrInvalidState indicates a functor invoked in a state its data no
	// longer supports.
	ErrInvalidState = errors.New("action: invalid functor state")

	// ErrUnknownAction indicates an action id not present in the library.
	ErrUnknownAction = errors.New("action: unknown action id")

	// ErrDuplicateID indicates an action id already present in the
	// library.
	ErrDuplicateID = errors.New("action: duplicate action id")

	// ErrCycle indicates an insertion that would make a node its own
	// ancestor.
	ErrCycle = errors.New("action: insertion would create a cycle")

	// ErrUnknownTag indicates a serialized action type with no registered
	// kind.
	ErrUnknownTag = errors.New("action: unknown action type")

	// ErrMissingProperty indicates a required property absent from a
	// serialized node.
	ErrMissingProperty = errors.New("action: missing property")

	// ErrPropertyType indicates a property value that does not parse as
	// its declared type.
	ErrPropertyType = errors.New("action: property type mismatch")
)
