package run

import (
	"time"

	"github.com/viant/conveyor/internal/clock"
)

// Status represents run status
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	// StatusExited marks a run that completed with the early-exit flag set
	StatusExited Status = "exited"
	StatusFailed Status = "failed"
)

// Run records one pipeline invocation
type Run struct {
	ID        string                 `json:"id" yaml:"id"`
	Unit      string                 `json:"unit" yaml:"unit"`
	Status    Status                 `json:"status" yaml:"status"`
	Input     map[string]interface{} `json:"input,omitempty" yaml:"input,omitempty"`
	Output    map[string]interface{} `json:"output,omitempty" yaml:"output,omitempty"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Actions   []string               `json:"actions,omitempty" yaml:"actions,omitempty"`
	StartedAt time.Time              `json:"startedAt" yaml:"startedAt"`
	EndedAt   *time.Time             `json:"endedAt,omitempty" yaml:"endedAt,omitempty"`
}

// New creates a running record
func New(id, unit string, input map[string]interface{}) *Run {
	return &Run{ID: id, Unit: unit, Status: StatusRunning, Input: input, StartedAt: clock.Now()}
}

// Finish records outcome
func (r *Run) Finish(output map[string]interface{}, exited bool, err error) {
	now := clock.Now()
	r.EndedAt = &now
	switch {
	case err != nil:
		r.Status = StatusFailed
		r.Error = err.Error()
	case exited:
		r.Status = StatusExited
		r.Output = output
	default:
		r.Status = StatusCompleted
		r.Output = output
	}
}

// Elapsed returns run duration, zero while running
func (r *Run) Elapsed() time.Duration {
	if r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Clone returns a copy safe to hand over to other goroutines; maps are copied shallowly
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	ret := *r
	ret.Input = cloneMap(r.Input)
	ret.Output = cloneMap(r.Output)
	ret.Actions = append([]string(nil), r.Actions...)
	if r.EndedAt != nil {
		ended := *r.EndedAt
		ret.EndedAt = &ended
	}
	return &ret
}

func cloneMap(values map[string]interface{}) map[string]interface{} {
	if values == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(values))
	for k, v := range values {
		ret[k] = v
	}
	return ret
}
