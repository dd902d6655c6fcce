package batch

import "errors"

var (
	// ErrNilProcessFunc is returned when no processing capability is supplied.
	ErrNilProcessFunc = errors.New("process function required")

	// ErrProcessPanic wraps a panic recovered from the processing capability.
	ErrProcessPanic = errors.New("process function panicked")
)
