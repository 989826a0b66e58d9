package event

import (
	"context"
	"log"

	"github.com/viant/conveyor/observer"
)

// Unit represents a unit notification payload
type Unit struct {
	Name   string                 `json:"name"`
	System bool                   `json:"system,omitempty"`
	Input  map[string]interface{} `json:"input,omitempty"`
	Output map[string]interface{} `json:"output,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

type executionAware interface {
	ExecutionID() string
}

// Observer publishes unit start and end notifications as events
type Observer struct {
	observer.Base
	publisher   *Publisher[Unit]
	skipSystems bool
	withValues  bool
}

// ObserverOption customises event observer
type ObserverOption func(o *Observer)

// WithoutSystemUnits skips composite units
func WithoutSystemUnits() ObserverOption {
	return func(o *Observer) { o.skipSystems = true }
}

// WithValues includes container values in published payloads
func WithValues() ObserverOption {
	return func(o *Observer) { o.withValues = true }
}

// NewObserver creates an observer publishing through the service
func NewObserver(service *Service, opts ...ObserverOption) (*Observer, error) {
	publisher, err := PublisherOf[Unit](service)
	if err != nil {
		return nil, err
	}
	ret := &Observer{publisher: publisher}
	for _, opt := range opts {
		opt(ret)
	}
	return ret, nil
}

func (o *Observer) ShouldRecord(event *observer.Event) bool {
	return !(o.skipSystems && event.System)
}

func (o *Observer) OnStart(ctx context.Context, event *observer.Event) {
	payload := Unit{Name: event.Unit, System: event.System}
	if o.withValues {
		payload.Input = keyed(event.Input)
	}
	o.publish(ctx, TypeUnitStart, event, payload)
}

func (o *Observer) OnEnd(ctx context.Context, event *observer.Event) {
	payload := Unit{Name: event.Unit, System: event.System}
	if event.Err != nil {
		payload.Error = event.Err.Error()
	}
	if o.withValues {
		payload.Output = keyed(event.Output)
	}
	o.publish(ctx, TypeUnitEnd, event, payload)
}

func (o *Observer) publish(ctx context.Context, eventType string, event *observer.Event, payload Unit) {
	eventContext := &Context{Unit: event.Unit, EventType: eventType, Depth: event.Depth}
	if event.Parent != nil {
		eventContext.Parent = event.Parent.Unit
	}
	if aware, ok := event.Input.(executionAware); ok {
		eventContext.ExecutionID = aware.ExecutionID()
	}
	if eventType == TypeUnitEnd {
		eventContext.TimeTakenMs = int(event.Elapsed().Milliseconds())
	}
	if err := o.publisher.Publish(context.WithoutCancel(ctx), NewEvent(eventContext, payload)); err != nil {
		log.Printf("conveyor: failed to publish %v event for %v: %v", eventType, event.Unit, err)
	}
}

func keyed(snapshot observer.Snapshot) map[string]interface{} {
	if snapshot == nil {
		return nil
	}
	return snapshot.AsKeyedMap()
}
