package pipeline

import (
	"sync"

	rpipeline "github.com/viant/conveyor/runtime/pipeline"
)

// Registry holds units and conditions referenced by name from documents
type Registry struct {
	mux        sync.RWMutex
	units      map[string]rpipeline.Unit
	conditions map[string]rpipeline.Condition
}

// NewRegistry creates a registry with the supplied units
func NewRegistry(units ...rpipeline.Unit) *Registry {
	ret := &Registry{units: map[string]rpipeline.Unit{}, conditions: map[string]rpipeline.Condition{}}
	ret.Register(units...)
	return ret
}

// Register registers units under their names; conditions are also available to when steps
func (r *Registry) Register(units ...rpipeline.Unit) {
	for _, u := range units {
		r.RegisterAs(u.Name(), u)
	}
}

// RegisterAs registers unit under name
func (r *Registry) RegisterAs(name string, u rpipeline.Unit) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.units[name] = u
	if condition, ok := u.(rpipeline.Condition); ok {
		r.conditions[name] = condition
	}
}

// Unit returns unit registered under name
func (r *Registry) Unit(name string) (rpipeline.Unit, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret, ok := r.units[name]
	return ret, ok
}

// Condition returns condition registered under name
func (r *Registry) Condition(name string) (rpipeline.Condition, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret, ok := r.conditions[name]
	return ret, ok
}
