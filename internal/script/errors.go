package script

import "errors"

var (
	// ErrCompile indicates the chunk failed to parse or load.
	ErrCompile = errors.New("script: compile failed")

	// ErrNoHandler indicates the chunk did not define a process function.
	ErrNoHandler = errors.New("script: chunk defines no process function")

	// ErrClosed indicates the runner has been closed.
	ErrClosed = errors.New("script: runner closed")
)
