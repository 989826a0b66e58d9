package pipeline

import (
	"context"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/signature"
	"github.com/viant/conveyor/runtime/binding"
)

// BoundFunc represents unit body consuming bound values
type BoundFunc func(ctx context.Context, values binding.Values) (interface{}, error)

var defaultResolver = binding.New()

// BindOption customises bound unit
type BindOption func(b *bindConfig)

type bindConfig struct {
	resolver  *binding.Resolver
	overrides []binding.Override
}

// WithResolver sets binding resolver
func WithResolver(resolver *binding.Resolver) BindOption {
	return func(b *bindConfig) { b.resolver = resolver }
}

// WithOverrides applies binding overrides
func WithOverrides(overrides ...binding.Override) BindOption {
	return func(b *bindConfig) { b.overrides = append(b.overrides, overrides...) }
}

func newBindConfig(opts []BindOption) *bindConfig {
	ret := &bindConfig{resolver: defaultResolver}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Bound is a unit whose inputs are bound from the container before its body runs
type Bound struct {
	*unit
	config *binding.Config
	fn     BoundFunc
}

// Bind creates bound unit; bindings are resolved here, not at run time
func Bind(name string, declaration *binding.Declaration, fn BoundFunc, opts ...BindOption) (*Bound, error) {
	options := newBindConfig(opts)
	config, err := options.resolver.Resolve(declaration, options.overrides...)
	if err != nil {
		return nil, err
	}
	return newBound(name, config, fn), nil
}

// MustBind creates bound unit, it panics on invalid declaration
func MustBind(name string, declaration *binding.Declaration, fn BoundFunc, opts ...BindOption) *Bound {
	ret, err := Bind(name, declaration, fn, opts...)
	if err != nil {
		panic(err)
	}
	return ret
}

func newBound(name string, config *binding.Config, fn BoundFunc) *Bound {
	ret := &Bound{config: config, fn: fn}
	ret.unit = &unit{name: name, body: ret.run}
	return ret
}

// Config returns resolved bindings
func (b *Bound) Config() *binding.Config {
	return b.config
}

// With returns a re-bound copy
func (b *Bound) With(overrides ...binding.Override) (*Bound, error) {
	config, err := b.config.With(overrides...)
	if err != nil {
		return nil, err
	}
	return newBound(b.name, config, b.fn), nil
}

func (b *Bound) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	values, err := b.config.Bind(in)
	if err != nil {
		return nil, err
	}
	result, err := b.fn(ctx, values)
	if err != nil {
		return nil, err
	}
	return b.config.Emit(in, result), nil
}

// Func1 creates unit reading param and registering result under output
func Func1[A, R any](name, param, output string, fn func(ctx context.Context, a A) (R, error), opts ...BindOption) *Bound {
	outputSig := signature.New(output, signature.WithType(signature.TypeOf[R]()))
	declaration := &binding.Declaration{Params: binding.Params{binding.NewParam[A](param)}, Output: &outputSig}
	return MustBind(name, declaration, func(ctx context.Context, values binding.Values) (interface{}, error) {
		a, err := binding.Get[A](values, param)
		if err != nil {
			return nil, err
		}
		result, err := fn(ctx, a)
		return result, err
	}, opts...)
}

// Func2 creates unit reading two params and registering result under output
func Func2[A, B, R any](name, paramA, paramB, output string, fn func(ctx context.Context, a A, b B) (R, error), opts ...BindOption) *Bound {
	outputSig := signature.New(output, signature.WithType(signature.TypeOf[R]()))
	declaration := &binding.Declaration{
		Params: binding.Params{binding.NewParam[A](paramA), binding.NewParam[B](paramB)},
		Output: &outputSig,
	}
	return MustBind(name, declaration, func(ctx context.Context, values binding.Values) (interface{}, error) {
		a, err := binding.Get[A](values, paramA)
		if err != nil {
			return nil, err
		}
		b, err := binding.Get[B](values, paramB)
		if err != nil {
			return nil, err
		}
		result, err := fn(ctx, a, b)
		return result, err
	}, opts...)
}

// BindCondition creates condition whose predicate consumes bound values
func BindCondition(name string, declaration *binding.Declaration, fn func(ctx context.Context, values binding.Values) (bool, error), opts ...ConditionOption) (Condition, error) {
	config, err := defaultResolver.Resolve(declaration)
	if err != nil {
		return nil, err
	}
	return When(name, func(ctx context.Context, in *container.Container) (bool, error) {
		values, err := config.Bind(in)
		if err != nil {
			return false, err
		}
		return fn(ctx, values)
	}, opts...), nil
}
