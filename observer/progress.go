package observer

import (
	"context"
	"sync"
	"time"

	"github.com/viant/conveyor/internal/clock"
)

// Counters represents aggregated unit counters of one execution lineage
type Counters struct {
	Started   int
	Completed int
	Failed    int
	Running   int
	StartedAt time.Time
}

// Progress keeps aggregated counters. It is safe for concurrent use.
type Progress struct {
	Base
	mux      sync.Mutex
	counters Counters
	onChange func(Counters)
	system   bool
}

// ProgressOption customises progress observer
type ProgressOption func(p *Progress)

// WithOnChange registers callback invoked with a copy of counters after every change
func WithOnChange(fn func(Counters)) ProgressOption {
	return func(p *Progress) { p.onChange = fn }
}

// WithSystemUnits makes progress count composite units too
func WithSystemUnits() ProgressOption {
	return func(p *Progress) { p.system = true }
}

// NewProgress creates a progress observer
func NewProgress(opts ...ProgressOption) *Progress {
	ret := &Progress{}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Progress) ShouldRecord(event *Event) bool {
	return p.system || !event.System
}

func (p *Progress) OnStart(_ context.Context, _ *Event) {
	p.update(func(c *Counters) {
		if c.StartedAt.IsZero() {
			c.StartedAt = clock.Now()
		}
		c.Started++
		c.Running++
	})
}

func (p *Progress) OnEnd(_ context.Context, event *Event) {
	p.update(func(c *Counters) {
		c.Running--
		if event.Failed() {
			c.Failed++
			return
		}
		c.Completed++
	})
}

// update applies change and invokes the callback outside the critical section
func (p *Progress) update(change func(c *Counters)) {
	p.mux.Lock()
	change(&p.counters)
	snapshot := p.counters
	cb := p.onChange
	p.mux.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters
func (p *Progress) Snapshot() Counters {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.counters
}
