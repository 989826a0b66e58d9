package observer

import (
	"context"
	"sync"
	"time"
)

// Measurement represents elapsed time of one unit
type Measurement struct {
	Name    string
	Elapsed time.Duration
}

// Timing measures execution time of leaf units; composite units are skipped
type Timing struct {
	Base
	mux          sync.Mutex
	measurements []Measurement
}

// NewTiming creates a timing observer
func NewTiming() *Timing {
	return &Timing{}
}

func (t *Timing) ShouldRecord(event *Event) bool {
	return !event.System
}

func (t *Timing) OnEnd(_ context.Context, event *Event) {
	t.mux.Lock()
	t.measurements = append(t.measurements, Measurement{Name: "unit." + event.Unit, Elapsed: event.Elapsed()})
	t.mux.Unlock()
}

// Measurements returns a copy of collected measurements in completion order
func (t *Timing) Measurements() []Measurement {
	t.mux.Lock()
	defer t.mux.Unlock()
	return append([]Measurement(nil), t.measurements...)
}

// Total returns sum of all measurements
func (t *Timing) Total() time.Duration {
	var ret time.Duration
	for _, m := range t.Measurements() {
		ret += m.Elapsed
	}
	return ret
}
