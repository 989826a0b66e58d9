package signature

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Signature addresses a value held by a container. Every field is optional:
// an empty Key, a nil Type or an empty Tags set mean "not declared".
type Signature struct {
	Key  string       `json:"key,omitempty" yaml:"key,omitempty"`
	Type reflect.Type `json:"-" yaml:"-"`
	Tags Tags         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Option mutates signature while it is being built
type Option func(s *Signature)

// WithType sets declared type
func WithType(t reflect.Type) Option {
	return func(s *Signature) { s.Type = t }
}

// WithTags sets tags
func WithTags(tags ...string) Option {
	return func(s *Signature) { s.Tags = NewTags(tags...) }
}

// New creates a signature for the supplied key
func New(key string, opts ...Option) Signature {
	ret := Signature{Key: key}
	for _, opt := range opts {
		opt(&ret)
	}
	return ret
}

// Key creates a key only signature
func Key(key string) Signature {
	return Signature{Key: key}
}

// Typed creates a type only signature
func Typed(t reflect.Type) Signature {
	return Signature{Type: t}
}

// Tagged creates a tags only signature
func Tagged(tags ...string) Signature {
	return Signature{Tags: NewTags(tags...)}
}

// Of creates a type only signature for T
func Of[T any]() Signature {
	return Signature{Type: TypeOf[T]()}
}

// TypeOf returns reflect.Type of T, interface types included
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// IsZero returns true if no field was declared
func (s Signature) IsZero() bool {
	return s.Key == "" && s.Type == nil && len(s.Tags) == 0
}

// WithKey returns a copy with the key replaced
func (s Signature) WithKey(key string) Signature {
	s.Key = key
	return s
}

// WithType returns a copy with the type replaced
func (s Signature) WithType(t reflect.Type) Signature {
	s.Type = t
	return s
}

// WithTags returns a copy with the tags replaced
func (s Signature) WithTags(tags ...string) Signature {
	s.Tags = NewTags(tags...)
	return s
}

// Equal reports an exact match: every field set on query has to match
// exactly, and tag sets have to be equal.
func (s Signature) Equal(query Signature) bool {
	if query.Key != "" && query.Key != s.Key {
		return false
	}
	if query.Type != nil && query.Type != s.Type {
		return false
	}
	return s.Tags.Equal(query.Tags)
}

// Matches reports a subset match used by exploratory queries: the query
// tags have to be a subset of candidate tags and the candidate type has to
// satisfy the query type. An untyped candidate never satisfies a type query,
// so keyed nil values do not take part in type lookups.
func (s Signature) Matches(query Signature) bool {
	if query.Key != "" && query.Key != s.Key {
		return false
	}
	if query.Type != nil {
		if s.Type == nil || !satisfies(s.Type, query.Type) {
			return false
		}
	}
	return query.Tags.SubsetOf(s.Tags)
}

func satisfies(candidate, query reflect.Type) bool {
	if candidate == query {
		return true
	}
	if query.Kind() == reflect.Interface {
		return candidate.Implements(query)
	}
	return candidate.AssignableTo(query)
}

// String returns a readable representation
func (s Signature) String() string {
	var parts []string
	if s.Key != "" {
		parts = append(parts, "key="+s.Key)
	}
	if s.Type != nil {
		parts = append(parts, "type="+s.Type.String())
	}
	if len(s.Tags) > 0 {
		parts = append(parts, "tags="+s.Tags.String())
	}
	return fmt.Sprintf("Signature(%s)", strings.Join(parts, ", "))
}

// Tags represents a sorted, duplicate free set of labels
type Tags []string

// NewTags creates normalized tags
func NewTags(tags ...string) Tags {
	if len(tags) == 0 {
		return nil
	}
	index := make(map[string]bool, len(tags))
	ret := make(Tags, 0, len(tags))
	for _, tag := range tags {
		if tag == "" || index[tag] {
			continue
		}
		index[tag] = true
		ret = append(ret, tag)
	}
	sort.Strings(ret)
	return ret
}

// Has returns true if tag is present
func (t Tags) Has(tag string) bool {
	for _, candidate := range t {
		if candidate == tag {
			return true
		}
	}
	return false
}

// SubsetOf returns true if every tag is present in other
func (t Tags) SubsetOf(other Tags) bool {
	for _, tag := range t {
		if !other.Has(tag) {
			return false
		}
	}
	return true
}

// Equal returns true if both sets hold the same tags
func (t Tags) Equal(other Tags) bool {
	return t.SubsetOf(other) && other.SubsetOf(t)
}

func (t Tags) String() string {
	return "[" + strings.Join(t, " ") + "]"
}
