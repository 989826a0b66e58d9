package observer

import (
	"context"
	"time"

	"github.com/viant/conveyor/internal/clock"
)

// Snapshot exposes keyed values of a container at notification time
type Snapshot interface {
	AsKeyedMap() map[string]interface{}
}

// Event describes one unit invocation. The same instance is passed to
// OnStart and OnEnd so observers can correlate both notifications.
type Event struct {
	Unit    string
	System  bool
	Parent  *Event
	Depth   int
	Input   Snapshot
	Output  Snapshot
	Err     error
	Started time.Time
	Ended   time.Time
}

// NewEvent creates an event for unit started now
func NewEvent(unit string, system bool, parent *Event, input Snapshot) *Event {
	ret := &Event{Unit: unit, System: system, Parent: parent, Input: input, Started: clock.Now()}
	if parent != nil {
		ret.Depth = parent.Depth + 1
	}
	return ret
}

// Finish records the outcome of the invocation
func (e *Event) Finish(output Snapshot, err error) {
	e.Output = output
	e.Err = err
	e.Ended = clock.Now()
}

// Elapsed returns invocation duration, zero until finished
func (e *Event) Elapsed() time.Duration {
	if e.Ended.IsZero() {
		return 0
	}
	return e.Ended.Sub(e.Started)
}

// Failed returns true if the invocation ended with an error
func (e *Event) Failed() bool {
	return e.Err != nil
}

// Observer receives unit start/end notifications
type Observer interface {
	// ShouldRecord decides whether the observer is notified about the event
	ShouldRecord(event *Event) bool
	OnStart(ctx context.Context, event *Event)
	OnEnd(ctx context.Context, event *Event)
}

// Base provides no-op defaults, embed it to implement only what is needed
type Base struct{}

func (Base) ShouldRecord(*Event) bool        { return true }
func (Base) OnStart(context.Context, *Event) {}
func (Base) OnEnd(context.Context, *Event)   {}
