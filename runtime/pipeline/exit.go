package pipeline

import (
	"context"

	"github.com/viant/conveyor/model/container"
)

// Return sets the early-exit flag, remaining units pass the container through
func Return() Unit {
	return &unit{name: "Return", body: func(_ context.Context, in *container.Container) (*container.Container, error) {
		return in.Exit(), nil
	}}
}

// Finish runs unit, then sets the early-exit flag
func Finish(u Unit) Unit {
	return Sequence(u, Return())
}
