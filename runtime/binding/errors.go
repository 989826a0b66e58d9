package binding

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput is returned when required input is absent and has no default
	ErrMissingInput = errors.New("required input missing")
	// ErrTypeMismatch is returned when input value can not be converted to declared type
	ErrTypeMismatch = errors.New("input type mismatch")
	// ErrInvalidDeclaration is returned for inconsistent binding declarations
	ErrInvalidDeclaration = errors.New("invalid binding declaration")
)

// Error describes failed input binding
type Error struct {
	Param string
	Kind  error
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to bind %v: %v", e.Param, e.Kind)
	}
	return fmt.Sprintf("failed to bind %v: %v: %v", e.Param, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidDeclaration, fmt.Sprintf(format, args...))
}
