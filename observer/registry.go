package observer

import (
	"context"
	"log"
	"sync"
)

// Registry holds observers attached to one container lineage
type Registry struct {
	mux       sync.RWMutex
	observers []Observer
}

// NewRegistry creates a registry with the supplied observers
func NewRegistry(observers ...Observer) *Registry {
	return &Registry{observers: append([]Observer(nil), observers...)}
}

// Default creates a registry with an actions log and a timing observer
func Default() *Registry {
	return NewRegistry(NewActionsLog(), NewTiming())
}

// Add attaches observers
func (r *Registry) Add(observers ...Observer) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.observers = append(r.observers, observers...)
}

// Observers returns attached observers
func (r *Registry) Observers() []Observer {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return append([]Observer(nil), r.observers...)
}

// Start notifies observers that a unit is about to run
func (r *Registry) Start(ctx context.Context, event *Event) {
	for _, o := range r.Observers() {
		if o.ShouldRecord(event) {
			safeNotify(event, func() { o.OnStart(ctx, event) })
		}
	}
}

// End notifies observers that a unit completed, successfully or not
func (r *Registry) End(ctx context.Context, event *Event) {
	for _, o := range r.Observers() {
		if o.ShouldRecord(event) {
			safeNotify(event, func() { o.OnEnd(ctx, event) })
		}
	}
}

func safeNotify(event *Event, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("observer panic on %v: %v", event.Unit, r)
		}
	}()
	fn()
}

// Find returns the first observer of type T
func Find[T Observer](r *Registry) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	for _, o := range r.Observers() {
		if ret, ok := o.(T); ok {
			return ret, true
		}
	}
	return zero, false
}
