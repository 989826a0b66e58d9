package pipeline

import "errors"

var (
	// ErrUnknownUnit is returned when a step references a unit that was not registered
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrInvalidStep is returned for malformed step definitions
	ErrInvalidStep = errors.New("invalid step")
)
