package binding

import (
	"sort"

	"github.com/viant/conveyor/model/signature"
)

// Declaration describes how a unit wants its inputs and output bound
type Declaration struct {
	// Params are name-derived unless a location is given
	Params Params
	// Explicit maps parameter name to signature, it takes precedence over Params
	Explicit map[string]signature.Signature
	Output   *signature.Signature
}

// Override adjusts declaration of an already built unit
type Override struct {
	Inputs map[string]signature.Signature
	Output *signature.Signature
}

// InputAs redirects parameter to a different container key
func InputAs(param, key string) Override {
	return Override{Inputs: map[string]signature.Signature{param: signature.Key(key)}}
}

// InputFrom redirects parameter to signature
func InputFrom(param string, sig signature.Signature) Override {
	return Override{Inputs: map[string]signature.Signature{param: sig}}
}

// OutputAs redirects unit output; only declared fields replace the current output
func OutputAs(sig signature.Signature) Override {
	return Override{Output: &sig}
}

// Resolver resolves declarations into bindings
type Resolver struct {
	types  *Types
	strict bool
}

// Option customises resolver
type Option func(r *Resolver)

// WithTypes sets type registry used for parameter data types
func WithTypes(types *Types) Option {
	return func(r *Resolver) { r.types = types }
}

// WithStrict requires every output to be keyed
func WithStrict(strict bool) Option {
	return func(r *Resolver) { r.strict = strict }
}

// New creates a resolver
func New(opts ...Option) *Resolver {
	ret := &Resolver{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.types == nil {
		ret.types = NewTypes()
	}
	return ret
}

// Types returns type registry
func (r *Resolver) Types() *Types {
	return r.types
}

// Parse parses parameter declarations and resolves their data types
func (r *Resolver) Parse(declarations ...string) (Params, error) {
	var ret Params
	for _, declaration := range declarations {
		param, err := Parse([]byte(declaration))
		if err != nil {
			return nil, err
		}
		if param.Type, err = r.types.Lookup(param.DataType); err != nil {
			return nil, &Error{Param: param.Name, Kind: ErrInvalidDeclaration, Err: err}
		}
		ret = append(ret, param)
	}
	return ret, nil
}

// Resolve builds binding config. Precedence for every input is
// override, explicit mapping, then name-derived or located parameter.
func (r *Resolver) Resolve(declaration *Declaration, overrides ...Override) (*Config, error) {
	ret := &Config{}
	if declaration == nil {
		declaration = &Declaration{}
	}
	for _, param := range declaration.Params {
		sig := param.Signature()
		if explicit, ok := declaration.Explicit[param.Name]; ok {
			sig = explicit
		}
		ret.Inputs = append(ret.Inputs, &Input{Param: param, Signature: sig})
	}
	for _, name := range sortedNames(declaration.Explicit) {
		if _, ok := declaration.Params.Get(name); ok {
			continue
		}
		sig := declaration.Explicit[name]
		ret.Inputs = append(ret.Inputs, &Input{Param: &Param{Name: name, Type: sig.Type}, Signature: sig})
	}
	if declaration.Output != nil {
		output := *declaration.Output
		ret.Output = &output
	}
	for _, override := range overrides {
		if err := ret.apply(override); err != nil {
			return nil, err
		}
	}
	if r.strict && ret.Output != nil && ret.Output.Key == "" {
		return nil, invalidf("output %v has no key", *ret.Output)
	}
	return ret, nil
}

func (c *Config) apply(override Override) error {
	for name, sig := range override.Inputs {
		input := c.input(name)
		if input == nil {
			return invalidf("unknown parameter: %v", name)
		}
		input.Signature = sig
	}
	if override.Output == nil {
		return nil
	}
	if c.Output == nil {
		output := *override.Output
		c.Output = &output
		return nil
	}
	output := *c.Output
	if override.Output.Key != "" {
		output.Key = override.Output.Key
	}
	if override.Output.Type != nil {
		output.Type = override.Output.Type
	}
	if len(override.Output.Tags) > 0 {
		output.Tags = override.Output.Tags
	}
	c.Output = &output
	return nil
}

func (c *Config) input(name string) *Input {
	for _, input := range c.Inputs {
		if input.Name == name {
			return input
		}
	}
	return nil
}

// Clone returns a deep copy so overrides never leak between units
func (c *Config) Clone() *Config {
	ret := &Config{}
	for _, input := range c.Inputs {
		clone := *input
		ret.Inputs = append(ret.Inputs, &clone)
	}
	if c.Output != nil {
		output := *c.Output
		ret.Output = &output
	}
	return ret
}

// With returns a copy with overrides applied
func (c *Config) With(overrides ...Override) (*Config, error) {
	ret := c.Clone()
	for _, override := range overrides {
		if err := ret.apply(override); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func sortedNames(values map[string]signature.Signature) []string {
	ret := make([]string, 0, len(values))
	for k := range values {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
