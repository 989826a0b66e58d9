package pipeline

import (
	"context"
	"fmt"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/observer"
)

// Unit is a composable computation step consuming and producing a container
type Unit interface {
	Name() string
	Run(ctx context.Context, in *container.Container) (Result, error)
	RunAsync(ctx context.Context, in *container.Container) (Result, error)
}

// Func represents unit body
type Func func(ctx context.Context, in *container.Container) (*container.Container, error)

// Status represents outcome of a successful unit invocation
type Status int

const (
	// StatusContinue means the pipeline proceeds
	StatusContinue Status = iota
	// StatusShortCircuit means early exit was requested
	StatusShortCircuit
)

func (s Status) String() string {
	if s == StatusShortCircuit {
		return "short-circuit"
	}
	return "continue"
}

// Result represents unit output
type Result struct {
	Container *container.Container
	Status    Status
}

// Continue creates continue result
func Continue(c *container.Container) Result {
	return Result{Container: c, Status: StatusContinue}
}

// ShortCircuit creates early exit result, the container exit flag is set
func ShortCircuit(c *container.Container) Result {
	if !c.Exited() {
		c = c.Exit()
	}
	return Result{Container: c, Status: StatusShortCircuit}
}

func resultOf(c *container.Container) Result {
	if c.Exited() {
		return ShortCircuit(c)
	}
	return Continue(c)
}

// Exited returns true for short circuit result
func (r Result) Exited() bool {
	return r.Status == StatusShortCircuit
}

type asyncKeyT struct{}
type eventKeyT struct{}

var (
	asyncKey asyncKeyT
	eventKey eventKeyT
)

func withMode(ctx context.Context, async bool) context.Context {
	if isAsync(ctx) == async {
		return ctx
	}
	return context.WithValue(ctx, asyncKey, async)
}

func isAsync(ctx context.Context) bool {
	ret, _ := ctx.Value(asyncKey).(bool)
	return ret
}

// EventFromContext returns event of the unit currently running
func EventFromContext(ctx context.Context) *observer.Event {
	ret, _ := ctx.Value(eventKey).(*observer.Event)
	return ret
}

// invoke runs child unit in the mode of the enclosing unit
func invoke(ctx context.Context, u Unit, in *container.Container) (Result, error) {
	if isAsync(ctx) {
		return u.RunAsync(ctx, in)
	}
	return u.Run(ctx, in)
}

// unit implements the execution protocol shared by all units
type unit struct {
	name        string
	description string
	system      bool
	params      map[string]interface{}
	body        Func
	async       Func
}

// Name returns unit name
func (u *unit) Name() string {
	return u.name
}

// Description returns unit description
func (u *unit) Description() string {
	return u.description
}

// Run runs unit synchronously
func (u *unit) Run(ctx context.Context, in *container.Container) (Result, error) {
	return u.execute(ctx, false, in)
}

// RunAsync runs unit under async dispatch
func (u *unit) RunAsync(ctx context.Context, in *container.Container) (Result, error) {
	return u.execute(ctx, true, in)
}

func (u *unit) execute(ctx context.Context, async bool, in *container.Container) (Result, error) {
	if in.Exited() {
		return ShortCircuit(in), nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = withMode(ctx, async)
	body := u.body
	if async && u.async != nil {
		body = u.async
	}
	event := observer.NewEvent(u.name, u.system, EventFromContext(ctx), in)
	registry := in.Observers()
	registry.Start(ctx, event)
	var out *container.Container
	var err error
	if body == nil {
		err = fmt.Errorf("%w: %v", ErrSyncUnsupported, u.name)
	} else {
		out, err = body(context.WithValue(ctx, eventKey, event), in)
	}
	if err != nil {
		event.Finish(nil, err)
	} else {
		if out == nil {
			out = in
		}
		event.Finish(out, nil)
	}
	registry.End(ctx, event)
	if err != nil {
		if settingsOf(ctx).VerboseErrors {
			err = decorate(u.name, u.params, in, err)
		}
		return Result{Container: in}, err
	}
	return resultOf(out), nil
}

// Option customises unit created with New or NewAsync
type Option func(u *unit)

// WithDescription sets unit description
func WithDescription(description string) Option {
	return func(u *unit) { u.description = description }
}

// WithParams sets parameters rendered in verbose errors
func WithParams(params map[string]interface{}) Option {
	return func(u *unit) { u.params = params }
}

// WithAsync sets body used under async dispatch
func WithAsync(fn Func) Option {
	return func(u *unit) { u.async = fn }
}

// WithSyncFallback sets synchronous body of an async only unit
func WithSyncFallback(fn Func) Option {
	return func(u *unit) { u.body = fn }
}

// New creates unit; async dispatch runs the same body unless WithAsync is used
func New(name string, fn Func, opts ...Option) Unit {
	ret := &unit{name: name, body: fn}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// NewAsync creates async unit; synchronous runs fail with ErrSyncUnsupported
// unless WithSyncFallback is used
func NewAsync(name string, fn Func, opts ...Option) Unit {
	ret := &unit{name: name, async: fn}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func newSystem(name string, body Func) *unit {
	return &unit{name: name, system: true, body: body}
}
