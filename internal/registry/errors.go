package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAction is returned when no handler is registered for an action.
	ErrUnknownAction = errors.New("no handler for action")

	// ErrInvalidParams is returned when a handler's parameters are missing or
	// cannot be decoded into its parameter struct.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrDuplicateAction is returned by Build when an action was registered twice.
	ErrDuplicateAction = errors.New("action registered twice")
)

// HandlerError wraps a failure reported by a handler.
type HandlerError struct {
	Action string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Require returns ErrInvalidParams naming the first empty value.
// Arguments alternate name, value.
func Require(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidParams, pairs[i])
		}
	}
	return nil
}
