package sovdevlogger

import "errors"

// Initialization errors.
var (
	// ErrInvalidConfiguration indicates Initialize was called with an
	// empty or whitespace-only service name.
	ErrInvalidConfiguration = errors.New("sovdevlogger: service name is required")

	// ErrUninitialized indicates a Log*/Flush-adjacent call happened
	// before Initialize succeeded.
	ErrUninitialized = errors.New("sovdevlogger: not initialized, call Initialize first")
)

