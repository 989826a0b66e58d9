package pipeline

import (
	"context"
	"log"

	"github.com/viant/conveyor/model/container"
)

// SideEffectUnit runs an effect whose container changes are discarded. Under
// async dispatch the effect is fired and forgotten, a future is recorded on
// the returned container, unless the unit is blocking.
type SideEffectUnit struct {
	*unit
	effect   func(ctx context.Context, in *container.Container) error
	blocking bool
}

// SideEffectOption customises side effect unit
type SideEffectOption func(s *SideEffectUnit)

// Blocking makes async dispatch wait for the effect
func Blocking() SideEffectOption {
	return func(s *SideEffectUnit) { s.blocking = true }
}

// SideEffect creates side effect unit
func SideEffect(name string, fn func(ctx context.Context, in *container.Container) error, opts ...SideEffectOption) *SideEffectUnit {
	return newSideEffect(name, fn, opts)
}

// Isolate runs units on a private copy of the container: data changes are
// discarded, observer records are kept
func Isolate(units []Unit, opts ...SideEffectOption) *SideEffectUnit {
	inner := unitOf(units)
	return newSideEffect("Isolate", func(ctx context.Context, in *container.Container) error {
		_, err := invoke(ctx, inner, in)
		return err
	}, opts)
}

func newSideEffect(name string, fn func(ctx context.Context, in *container.Container) error, opts []SideEffectOption) *SideEffectUnit {
	ret := &SideEffectUnit{effect: fn}
	for _, opt := range opts {
		opt(ret)
	}
	ret.unit = &unit{name: name, body: ret.run}
	return ret
}

func (s *SideEffectUnit) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	if isAsync(ctx) && !s.blocking && !settingsOf(ctx).BlockingSideEffects {
		detached := context.WithoutCancel(ctx)
		future := container.Go(s.name, func() error {
			err := s.effect(detached, in)
			if err != nil {
				log.Printf("side effect %v failed: %v", s.name, err)
			}
			return err
		})
		return in.WithFuture(future), nil
	}
	if err := s.effect(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}
