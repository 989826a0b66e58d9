package pipeline

import (
	"context"

	"github.com/viant/conveyor/model/container"
)

// Run runs unit synchronously with the supplied container
func Run(ctx context.Context, u Unit, in *container.Container) (*container.Container, error) {
	result, err := u.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	return result.Container, nil
}

// RunWith runs unit synchronously with a container built from values
func RunWith(ctx context.Context, u Unit, values map[string]interface{}, opts ...container.Option) (*container.Container, error) {
	return Run(ctx, u, container.FromMap(values, opts...))
}

// Future represents pipeline started with Start
type Future struct {
	done   chan struct{}
	result *container.Container
	err    error
}

// Start runs unit under async dispatch in a new goroutine
func Start(ctx context.Context, u Unit, in *container.Container) *Future {
	ret := &Future{done: make(chan struct{})}
	go func() {
		defer close(ret.done)
		result, err := u.RunAsync(ctx, in)
		if err != nil {
			ret.err = err
			return
		}
		ret.result = result.Container
	}()
	return ret
}

// Done returns channel closed once pipeline completed
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait waits for pipeline completion
func (f *Future) Wait(ctx context.Context) (*container.Container, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
