package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/conveyor/model/container"
)

// SourceOption customises source unit
type SourceOption func(s *sourceConfig)

type sourceConfig struct {
	skipIfPresent bool
}

// SkipIfPresent skips the source when key is already present
func SkipIfPresent() SourceOption {
	return func(s *sourceConfig) { s.skipIfPresent = true }
}

// Source registers value produced by fn under key
func Source(key string, fn func(ctx context.Context, in *container.Container) (interface{}, error), opts ...SourceOption) Unit {
	config := &sourceConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return &unit{name: "Source(" + key + ")", body: func(ctx context.Context, in *container.Container) (*container.Container, error) {
		if config.skipIfPresent && in.IsIn(key) {
			return in, nil
		}
		value, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return in.Evolve(key, value), nil
	}}
}

// AddValue registers constant value under key
func AddValue(key string, value interface{}) Unit {
	return &unit{name: "AddValue(" + key + ")", params: map[string]interface{}{key: value}, body: func(_ context.Context, in *container.Container) (*container.Container, error) {
		return in.Evolve(key, value), nil
	}}
}

// AddValues registers constant values, keys are applied in sorted order
func AddValues(values map[string]interface{}) Unit {
	return &unit{name: "AddValues", params: values, body: func(_ context.Context, in *container.Container) (*container.Container, error) {
		return in.EvolveMap(values), nil
	}}
}

// Alias registers value of sourceKey also under key
func Alias(key, sourceKey string) Unit {
	return &unit{name: "Alias(" + key + ")", body: func(_ context.Context, in *container.Container) (*container.Container, error) {
		value, err := in.Get(sourceKey)
		if err != nil {
			return nil, err
		}
		return in.Evolve(key, value), nil
	}}
}

// Rename moves entry registered under key to newKey
func Rename(key, newKey string) Unit {
	return &unit{name: "Rename", params: map[string]interface{}{"key": key, "newKey": newKey}, body: func(_ context.Context, in *container.Container) (*container.Container, error) {
		if _, err := in.Get(key); err != nil {
			return nil, err
		}
		return in.Rename(key, newKey), nil
	}}
}

// Without removes keyed entries, every key has to be present
func Without(keys ...string) Unit {
	return &unit{name: "Without", params: map[string]interface{}{"keys": keys}, body: func(_ context.Context, in *container.Container) (*container.Container, error) {
		return in.Without(keys...)
	}}
}

// OnSubfield runs unit on the entries of the mapping under fieldKey, results are merged back into the mapping
func OnSubfield(fieldKey string, u Unit) Unit {
	return &unit{name: "OnSubfield(" + fieldKey + ")", body: func(ctx context.Context, in *container.Container) (*container.Container, error) {
		value, err := in.Get(fieldKey)
		if err != nil {
			return nil, err
		}
		sub, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%v: expected map[string]interface{}, but had %T", fieldKey, value)
		}
		result, err := invoke(ctx, u, in.WithKeyedValues(sub))
		if err != nil {
			return nil, err
		}
		merged := make(map[string]interface{}, len(sub))
		for k, v := range sub {
			merged[k] = v
		}
		for k, v := range result.Container.AsKeyedMap() {
			merged[k] = v
		}
		return setNested(in, fieldKey, merged)
	}}
}

func setNested(in *container.Container, path string, value interface{}) (*container.Container, error) {
	parts := strings.Split(path, ".")
	if len(parts) == 1 || isRegistered(in, path) {
		return in.Evolve(path, value), nil
	}
	root, err := in.Get(parts[0])
	if err != nil {
		return nil, err
	}
	updated, err := withNested(root, parts[1:], value)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return in.Evolve(parts[0], updated), nil
}

func isRegistered(in *container.Container, key string) bool {
	for _, sig := range in.Signatures() {
		if sig.Key == key {
			return true
		}
	}
	return false
}

// withNested returns a copy of node with value set under path
func withNested(node interface{}, path []string, value interface{}) (interface{}, error) {
	aMap, ok := node.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected map[string]interface{}, but had %T", node)
	}
	ret := make(map[string]interface{}, len(aMap))
	for k, v := range aMap {
		ret[k] = v
	}
	if len(path) == 1 {
		ret[path[0]] = value
		return ret, nil
	}
	child, err := withNested(aMap[path[0]], path[1:], value)
	if err != nil {
		return nil, err
	}
	ret[path[0]] = child
	return ret, nil
}

// Mapping maps outer container key to the key used by the guarded unit
type Mapping struct {
	Outer string
	Inner string
}

// GuardOption customises guard
type GuardOption func(g *guardConfig)

type guardConfig struct {
	inputs  []Mapping
	outputs []Mapping
}

// Inputs passes keys under the same names
func Inputs(keys ...string) GuardOption {
	return func(g *guardConfig) {
		for _, key := range keys {
			g.inputs = append(g.inputs, Mapping{Outer: key, Inner: key})
		}
	}
}

// InputAs passes outer key under inner name
func InputAs(outer, inner string) GuardOption {
	return func(g *guardConfig) { g.inputs = append(g.inputs, Mapping{Outer: outer, Inner: inner}) }
}

// Outputs merges keys back under the same names
func Outputs(keys ...string) GuardOption {
	return func(g *guardConfig) {
		for _, key := range keys {
			g.outputs = append(g.outputs, Mapping{Outer: key, Inner: key})
		}
	}
}

// OutputAs merges inner key back under outer name
func OutputAs(inner, outer string) GuardOption {
	return func(g *guardConfig) { g.outputs = append(g.outputs, Mapping{Outer: outer, Inner: inner}) }
}

// Guard runs unit on a container holding only the declared inputs; only the
// declared outputs are merged into the outer container
func Guard(u Unit, opts ...GuardOption) Unit {
	config := &guardConfig{}
	for _, opt := range opts {
		opt(config)
	}
	return &unit{name: "Guard(" + u.Name() + ")", body: func(ctx context.Context, in *container.Container) (*container.Container, error) {
		values := make(map[string]interface{}, len(config.inputs))
		for _, input := range config.inputs {
			value, err := in.Get(input.Outer)
			if err != nil {
				return nil, err
			}
			values[input.Inner] = value
		}
		result, err := invoke(ctx, u, in.WithKeyedValues(values))
		if err != nil {
			return nil, err
		}
		out := in
		for _, output := range config.outputs {
			value, err := result.Container.Get(output.Inner)
			if err != nil {
				return nil, err
			}
			out = out.Evolve(output.Outer, value)
		}
		if result.Container.Exited() {
			out = out.Exit()
		}
		return out, nil
	}}
}
