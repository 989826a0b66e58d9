package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/viant/conveyor/model/container"
)

// Release releases acquired resource
type Release func(ctx context.Context) error

// Resource acquires a scoped resource
type Resource func(ctx context.Context, in *container.Container) (Release, error)

// Scoped acquires resource, runs units and releases the resource exactly once
// on every exit path; a failure propagates after release
func Scoped(resource Resource, units ...Unit) Unit {
	inner := unitOf(units)
	return &unit{name: "Scoped", body: func(ctx context.Context, in *container.Container) (out *container.Container, err error) {
		release, err := resource(ctx, in)
		if err != nil {
			return nil, err
		}
		if release == nil {
			release = func(context.Context) error { return nil }
		}
		once := sync.Once{}
		defer func() {
			once.Do(func() {
				if releaseErr := release(ctx); releaseErr != nil {
					err = errors.Join(err, releaseErr)
					out = nil
				}
			})
		}()
		result, err := invoke(ctx, inner, in)
		if err != nil {
			return nil, err
		}
		return result.Container, nil
	}}
}
