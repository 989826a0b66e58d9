package pipeline

import (
	"context"
	"errors"

	"github.com/viant/conveyor/model/container"
)

// Handler receives intercepted failure with the container the failing unit received
type Handler func(ctx context.Context, err error, in *container.Container) error

// HandleUnit intercepts failures of the wrapped unit
type HandleUnit struct {
	*unit
	inner    Unit
	handler  Handler
	matchers []func(err error) bool
	suppress bool
}

// HandleOption customises handle unit
type HandleOption func(h *HandleUnit)

// Catch intercepts failures matched by fn; without matchers every failure is intercepted
func Catch(fn func(err error) bool) HandleOption {
	return func(h *HandleUnit) { h.matchers = append(h.matchers, fn) }
}

// CatchIs intercepts failures matching any target with errors.Is
func CatchIs(targets ...error) HandleOption {
	return Catch(func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	})
}

// Suppress continues the pipeline with the container the failing unit received
func Suppress() HandleOption {
	return func(h *HandleUnit) { h.suppress = true }
}

// Handle wraps unit with failure interception. The handler error, when not
// nil, replaces the intercepted failure; suppression is opt-in and, once set,
// continues the pipeline whatever the handler returns.
func Handle(u Unit, handler Handler, opts ...HandleOption) *HandleUnit {
	ret := &HandleUnit{inner: u, handler: handler}
	for _, opt := range opts {
		opt(ret)
	}
	ret.unit = &unit{name: "Handle", body: ret.run}
	return ret
}

func (h *HandleUnit) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	result, err := invoke(ctx, h.inner, in)
	if err == nil {
		return result.Container, nil
	}
	if !h.matches(err) {
		return nil, err
	}
	var handlerErr error
	if h.handler != nil {
		handlerErr = h.handler(ctx, err, in)
	}
	if h.suppress {
		return in, nil
	}
	if handlerErr != nil {
		return nil, handlerErr
	}
	return nil, err
}

func (h *HandleUnit) matches(err error) bool {
	if len(h.matchers) == 0 {
		return true
	}
	for _, matcher := range h.matchers {
		if matcher(err) {
			return true
		}
	}
	return false
}
