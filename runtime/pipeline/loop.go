package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/runtime/evaluator"
)

// Items returns sequence iterated by a loop
type Items func(ctx context.Context, in *container.Container) ([]interface{}, error)

// FromKey iterates slice or array registered under key
func FromKey(key string) Items {
	return func(_ context.Context, in *container.Container) ([]interface{}, error) {
		value, err := in.Get(key)
		if err != nil {
			return nil, err
		}
		return asSlice(key, value)
	}
}

// FromFunc iterates slice or array returned by fn
func FromFunc(fn func(ctx context.Context, in *container.Container) (interface{}, error)) Items {
	return func(ctx context.Context, in *container.Container) ([]interface{}, error) {
		value, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return asSlice("source", value)
	}
}

func asSlice(name string, value interface{}) ([]interface{}, error) {
	if items, ok := value.([]interface{}); ok {
		return items, nil
	}
	if value == nil {
		return nil, nil
	}
	rValue := reflect.ValueOf(value)
	if rValue.Kind() != reflect.Slice && rValue.Kind() != reflect.Array {
		return nil, fmt.Errorf("%v: expected slice, but had %T", name, value)
	}
	ret := make([]interface{}, rValue.Len())
	for i := range ret {
		ret[i] = rValue.Index(i).Interface()
	}
	return ret, nil
}

// Loop runs units for every element, binding the element under asKey
type Loop struct {
	*unit
	asKey     string
	items     Items
	inner     Unit
	field     string
	newKey    string
	skipNil   bool
	aggregate bool
}

// For creates element-wise loop; per-iteration containers never escape the loop,
// only the values aggregated with Aggregate do
func For(asKey string, items Items, units ...Unit) *Loop {
	return newLoop(&Loop{asKey: asKey, items: items, inner: unitOf(units)})
}

func newLoop(l *Loop) *Loop {
	l.unit = &unit{name: "For", body: l.run}
	return l
}

// Aggregate returns a copy collecting field of every iteration under newKey, in source order
func (l *Loop) Aggregate(field, newKey string) *Loop {
	ret := *l
	ret.field, ret.newKey, ret.aggregate = field, newKey, true
	return newLoop(&ret)
}

// SkipNil returns a copy dropping absent or empty aggregated values
func (l *Loop) SkipNil() *Loop {
	ret := *l
	ret.skipNil = true
	return newLoop(&ret)
}

func (l *Loop) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	items, err := l.items(ctx, in)
	if err != nil {
		return nil, err
	}
	var aggregated []interface{}
	for _, item := range items {
		result, err := invoke(ctx, l.inner, in.Evolve(l.asKey, item))
		if err != nil {
			return nil, err
		}
		if !l.aggregate {
			continue
		}
		value, err := result.Container.Get(l.field)
		if err != nil && !errors.Is(err, container.ErrNotFound) {
			return nil, err
		}
		if l.skipNil && isEmpty(value) {
			continue
		}
		aggregated = append(aggregated, value)
	}
	if !l.aggregate {
		return in, nil
	}
	if aggregated == nil {
		aggregated = []interface{}{}
	}
	return in.Evolve(l.newKey, aggregated), nil
}

func isEmpty(value interface{}) bool {
	if evaluator.IsNil(value) {
		return true
	}
	rValue := reflect.ValueOf(value)
	switch rValue.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rValue.Len() == 0
	}
	return false
}

// AnyOf succeeds on the first element of sourceKey for which condition succeeds
func AnyOf(sourceKey, asKey string, c Condition) Condition {
	items := FromKey(sourceKey)
	return When("AnyOf", func(ctx context.Context, in *container.Container) (bool, error) {
		elements, err := items(ctx, in)
		if err != nil {
			return false, err
		}
		for _, element := range elements {
			ok, err := holds(ctx, c, in.Evolve(asKey, element))
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}, Message(fmt.Sprintf("no element of %v satisfied %v", sourceKey, c.Name())))
}

// AllOf fails on the first element of sourceKey for which condition fails
func AllOf(sourceKey, asKey string, c Condition) Condition {
	items := FromKey(sourceKey)
	return When("AllOf", func(ctx context.Context, in *container.Container) (bool, error) {
		elements, err := items(ctx, in)
		if err != nil {
			return false, err
		}
		for _, element := range elements {
			ok, err := holds(ctx, c, in.Evolve(asKey, element))
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}, Message(fmt.Sprintf("not every element of %v satisfied %v", sourceKey, c.Name())))
}
