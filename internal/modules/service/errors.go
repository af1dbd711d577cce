package service

import (
	"errors"
	"fmt"
)

// Service layer errors for better error handling
var (
	// ErrWriteTimeout is a client-perceived timeout: the deadline elapsed
	// before the store confirmed the write, but the write itself may still
	// complete. Callers must report it distinctly from a store failure.
	ErrWriteTimeout = errors.New("write timed out")

	ErrForbidden   = errors.New("operation not permitted for this user")
	ErrNotAssigned = errors.New("user is not assigned to this project")

	// ErrInvalid marks input validation failures. Handlers map it to 400.
	ErrInvalid = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
