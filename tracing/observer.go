package tracing

import (
	"context"
	"strconv"
	"sync"

	"github.com/viant/conveyor/observer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observer opens a span when a unit starts and ends it when the unit ends.
// A span is a child of the span of the closest recorded enclosing unit; the
// outermost unit span is a child of the span carried by the run context.
type Observer struct {
	tracer      trace.Tracer
	skipSystems bool
	mux         sync.Mutex
	spans       map[*observer.Event]*traced
}

type traced struct {
	ctx  context.Context
	span *Span
}

// Option customises tracing observer
type Option func(o *Observer)

// WithTracerProvider uses provider instead of the global one
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *Observer) { o.tracer = provider.Tracer(InstrumentationName) }
}

// WithoutSystemUnits skips composite units, leaf spans are attached to the closest traced ancestor
func WithoutSystemUnits() Option {
	return func(o *Observer) { o.skipSystems = true }
}

// NewObserver creates a tracing observer
func NewObserver(opts ...Option) *Observer {
	ret := &Observer{spans: map[*observer.Event]*traced{}}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer(InstrumentationName)
	}
	return ret
}

func (o *Observer) ShouldRecord(event *observer.Event) bool {
	return !(o.skipSystems && event.System)
}

func (o *Observer) OnStart(ctx context.Context, event *observer.Event) {
	o.mux.Lock()
	defer o.mux.Unlock()
	parentCtx := ctx
	for parent := event.Parent; parent != nil; parent = parent.Parent {
		if entry, ok := o.spans[parent]; ok {
			parentCtx = entry.ctx
			break
		}
	}
	spanCtx, span := startSpan(parentCtx, o.tracer, event.Unit, "INTERNAL",
		attribute.String("unit.name", event.Unit),
		attribute.Bool("unit.system", event.System),
		attribute.Int("unit.depth", event.Depth),
	)
	o.spans[event] = &traced{ctx: spanCtx, span: span}
}

func (o *Observer) OnEnd(_ context.Context, event *observer.Event) {
	o.mux.Lock()
	entry, ok := o.spans[event]
	delete(o.spans, event)
	o.mux.Unlock()
	if !ok {
		return
	}
	if event.Output != nil {
		entry.span.WithAttributes(map[string]string{"unit.outputs": strconv.Itoa(len(event.Output.AsKeyedMap()))})
	}
	EndSpan(entry.span, event.Err)
}

// Active returns number of spans not yet ended
func (o *Observer) Active() int {
	o.mux.Lock()
	defer o.mux.Unlock()
	return len(o.spans)
}
