package event

import (
	"time"

	"github.com/viant/conveyor/internal/clock"
)

// Event types published for unit notifications
const (
	TypeUnitStart = "unit.start"
	TypeUnitEnd   = "unit.end"
)

// Context describes where an event originated
type Context struct {
	ExecutionID string `json:"executionID,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Parent      string `json:"parent,omitempty"`
	EventType   string `json:"eventType"`
	Depth       int    `json:"depth"`
	TimeTakenMs int    `json:"timeTakenMs,omitempty"`
}

// Event represents published payload with its origin
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
