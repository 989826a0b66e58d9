package binding

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/signature"
	"github.com/viant/structology/conv"
)

// Input represents resolved parameter binding
type Input struct {
	*Param
	Signature signature.Signature
}

// Config represents resolved unit bindings
type Config struct {
	Inputs []*Input
	Output *signature.Signature
}

// Values holds bound input values by parameter name
type Values map[string]interface{}

// Has returns true if parameter was bound
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Get returns bound value converted to T
func Get[T any](values Values, name string) (T, error) {
	var zero T
	value, ok := values[name]
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrMissingInput, name)
	}
	if value == nil {
		return zero, nil
	}
	return container.As[T](value)
}

var (
	converter    *conv.Converter
	converterMux sync.Mutex
)

func init() {
	converter = conv.NewConverter(conv.DefaultOptions())
}

// Bind resolves every input from container, before unit body is run
func (c *Config) Bind(in *container.Container) (Values, error) {
	ret := make(Values, len(c.Inputs))
	for _, input := range c.Inputs {
		value, err := c.lookup(in, input.Signature)
		if err != nil {
			if !errors.Is(err, container.ErrNotFound) {
				return nil, &Error{Param: input.Name, Kind: ErrInvalidDeclaration, Err: err}
			}
			if !input.HasDefault() {
				return nil, &Error{Param: input.Name, Kind: ErrMissingInput, Err: err}
			}
			value = input.Default
		}
		if value, err = coerce(value, input.Type); err != nil {
			return nil, &Error{Param: input.Name, Kind: ErrTypeMismatch, Err: err}
		}
		ret[input.Name] = value
	}
	return ret, nil
}

func (c *Config) lookup(in *container.Container, query signature.Signature) (interface{}, error) {
	if query.Type == nil && len(query.Tags) == 0 && strings.Contains(query.Key, ".") {
		return in.Get(query.Key)
	}
	return in.FindOne(query)
}

// Emit registers unit result under output signature; without output the input is returned
func (c *Config) Emit(in *container.Container, result interface{}) *container.Container {
	if c.Output == nil || c.Output.IsZero() {
		return in
	}
	sig := *c.Output
	if sig.Type == nil && result != nil {
		sig.Type = reflect.TypeOf(result)
	}
	return in.Register(sig, result)
}

func coerce(value interface{}, target reflect.Type) (interface{}, error) {
	if target == nil || value == nil {
		return value, nil
	}
	source := reflect.TypeOf(value)
	if source.AssignableTo(target) {
		return value, nil
	}
	if target.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%v does not implement %v", source, target)
	}
	if !convertible(source, target) {
		return nil, fmt.Errorf("expected %v, but had %v", target, source)
	}
	dest := reflect.New(target)
	converterMux.Lock()
	err := converter.Convert(value, dest.Interface())
	converterMux.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to convert %v to %v: %w", source, target, err)
	}
	return dest.Elem().Interface(), nil
}

func convertible(source, target reflect.Type) bool {
	if isScalar(source.Kind()) && isScalar(target.Kind()) {
		return true
	}
	return source.Kind() == target.Kind()
}

func isScalar(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
