package process

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoMemory     = errors.New("no process memory; create the process first")
	ErrMissingTag   = errors.New("missing tag")
	ErrInvalidTag   = errors.New("invalid tag")
)

// ValidationError is a rejected message: bad arguments or a component refusing
// the operation. The state is left untouched.
type ValidationError struct {
	Action string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(action string, err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return &ValidationError{Action: action, Err: err}
}

// rootCause returns the innermost wrapped error.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func missing(tag string) error {
	return fmt.Errorf("%w: %s", ErrMissingTag, tag)
}

func malformed(tag, value string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidTag, tag, value, cause)
	}
	return fmt.Errorf("%w: %s=%q", ErrInvalidTag, tag, value)
}
