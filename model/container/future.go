package container

import (
	"context"
	"fmt"
)

// Future tracks a side effect dispatched without waiting for completion
type Future struct {
	Name string
	done chan struct{}
	err  error
}

// Go runs fn in a new goroutine and returns its future. A panic in fn is
// reported as the future error.
func Go(name string, fn func() error) *Future {
	ret := &Future{Name: name, done: make(chan struct{})}
	go func() {
		defer close(ret.done)
		defer func() {
			if r := recover(); r != nil {
				ret.err = fmt.Errorf("%v panic: %v", name, r)
			}
		}()
		ret.err = fn()
	}()
	return ret
}

// Done returns channel closed once the side effect completed
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until completion or context cancellation
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns side effect error, nil while still running
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
