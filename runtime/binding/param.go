package binding

import (
	"reflect"
	"strings"

	"github.com/viant/bindly/state"
	"github.com/viant/conveyor/model/signature"
)

// Location kinds
const (
	KindKey  = "key"
	KindTags = "tags"
	KindType = "type"
)

// Param represents a declared unit parameter
type Param struct {
	Name     string          `json:"name" yaml:"name"`
	DataType string          `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Location *state.Location `json:"location,omitempty" yaml:"location,omitempty"`
	Default  interface{}     `json:"default,omitempty" yaml:"default,omitempty"`
	Optional bool            `json:"optional,omitempty" yaml:"optional,omitempty"`
	Type     reflect.Type    `json:"-" yaml:"-"`
}

// NewParam creates name-derived parameter of type T
func NewParam[T any](name string) *Param {
	rType := signature.TypeOf[T]()
	return &Param{Name: name, DataType: rType.String(), Type: rType}
}

// WithDefault returns a copy with default value
func (p *Param) WithDefault(value interface{}) *Param {
	ret := *p
	ret.Default = value
	ret.Optional = true
	return &ret
}

// HasDefault returns true if default value substitutes absent entry
func (p *Param) HasDefault() bool {
	return p.Optional || p.Default != nil
}

// Signature derives container signature from parameter location
func (p *Param) Signature() signature.Signature {
	location := p.Location
	if location == nil || location.Kind == "" {
		return signature.Key(p.Name)
	}
	switch strings.ToLower(location.Kind) {
	case KindTags:
		return signature.Tagged(strings.Split(location.In, ",")...)
	case KindType:
		if p.Type == nil {
			return signature.Key(p.Name)
		}
		return signature.Typed(p.Type)
	default:
		key := location.In
		if key == "" {
			key = p.Name
		}
		return signature.Key(key)
	}
}

// Params is a collection of declared parameters
type Params []*Param

// Add appends a name-derived parameter
func (p *Params) Add(name string, rType reflect.Type) {
	param := &Param{Name: name, Type: rType}
	if rType != nil {
		param.DataType = rType.String()
	}
	*p = append(*p, param)
}

// Get retrieves a parameter by name
func (p Params) Get(name string) (*Param, bool) {
	for _, param := range p {
		if param.Name == name {
			return param, true
		}
	}
	return nil, false
}
