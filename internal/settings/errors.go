package settings

import "errors"

// Registry errors.
var (
	// ErrAlreadyRegistered indicates a setting with the same path exists.
	ErrAlreadyRegistered = errors.New("settings: setting already registered")

	// ErrUnknownSetting indicates the path has no registered definition.
	ErrUnknownSetting = errors.New("settings: unknown setting")

	// ErrInvalidValue indicates the value fails the setting's validation.
	ErrInvalidValue = errors.New("settings: invalid value")

	// ErrWrongType indicates a typed accessor was used on a setting of a
	// different type.
	ErrWrongType = errors.New("settings: wrong type")
)
