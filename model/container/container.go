package container

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/viant/conveyor/internal/idgen"
	"github.com/viant/conveyor/model/signature"
	"github.com/viant/conveyor/observer"
)

// Entry represents a value addressed by signature
type Entry struct {
	Signature signature.Signature
	Value     interface{}
}

// Meta represents execution metadata shared by one container lineage
type Meta struct {
	ID        string
	Observers *observer.Registry
}

// Container is an immutable, multiply-indexed value store threaded through
// pipeline units. Every transformation returns a new container; the
// receiver is never modified.
type Container struct {
	entries []Entry
	exit    bool
	meta    *Meta
	futures []*Future
}

// Option customises a new container
type Option func(c *Container)

// WithObservers replaces default observers
func WithObservers(observers ...observer.Observer) Option {
	return func(c *Container) { c.meta.Observers = observer.NewRegistry(observers...) }
}

// WithRegistry attaches an existing observer registry
func WithRegistry(registry *observer.Registry) Option {
	return func(c *Container) { c.meta.Observers = registry }
}

// WithExecutionID sets execution id
func WithExecutionID(id string) Option {
	return func(c *Container) { c.meta.ID = id }
}

// New creates an empty container with default observers
func New(opts ...Option) *Container {
	ret := &Container{meta: &Meta{}}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.meta.Observers == nil {
		ret.meta.Observers = observer.Default()
	}
	if ret.meta.ID == "" {
		ret.meta.ID = idgen.New()
	}
	return ret
}

// FromMap creates a container with key signatures built from values
func FromMap(values map[string]interface{}, opts ...Option) *Container {
	ret := New(opts...)
	ret.entries = keyedEntries(values)
	return ret
}

func keyedEntries(values map[string]interface{}) []Entry {
	keys := sortedKeys(values)
	ret := make([]Entry, 0, len(keys))
	for _, key := range keys {
		value := values[key]
		ret = append(ret, Entry{Signature: signature.Signature{Key: key, Type: reflect.TypeOf(value)}, Value: value})
	}
	return ret
}

func sortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Container) clone() *Container {
	ret := *c
	return &ret
}

func (c *Container) withEntries(entries []Entry) *Container {
	ret := c.clone()
	ret.entries = entries
	return ret
}

// Register adds value with signature; an entry with the same key is replaced
func (c *Container) Register(sig signature.Signature, value interface{}) *Container {
	entries := make([]Entry, 0, len(c.entries)+1)
	for _, entry := range c.entries {
		if sig.Key != "" && entry.Signature.Key == sig.Key {
			continue
		}
		entries = append(entries, entry)
	}
	entries = append(entries, Entry{Signature: sig, Value: value})
	return c.withEntries(entries)
}

// Evolve sets value under key. A signature already registered for the key is
// kept, otherwise key and value type are used.
func (c *Container) Evolve(key string, value interface{}) *Container {
	sig := signature.Signature{Key: key, Type: reflect.TypeOf(value)}
	for _, entry := range c.entries {
		if entry.Signature.Key == key {
			sig = entry.Signature
			break
		}
	}
	return c.Register(sig, value)
}

// EvolveMap sets all values, keys are applied in sorted order
func (c *Container) EvolveMap(values map[string]interface{}) *Container {
	ret := c
	for _, key := range sortedKeys(values) {
		ret = ret.Evolve(key, values[key])
	}
	return ret
}

// WithKeyedValues replaces all entries with values, metadata is kept
func (c *Container) WithKeyedValues(values map[string]interface{}) *Container {
	return c.withEntries(keyedEntries(values))
}

// Get returns value registered under key. Dotted keys that are not
// registered as such are resolved by walking nested mappings.
func (c *Container) Get(key string) (interface{}, error) {
	value, err := c.FindOne(signature.Key(key))
	if err == nil || !errors.Is(err, ErrNotFound) || !strings.Contains(key, ".") {
		return value, err
	}
	parts := strings.Split(key, ".")
	current, rootErr := c.FindOne(signature.Key(parts[0]))
	if rootErr != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		next, ok := field(current, part)
		if !ok {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// GetOrDefault returns value registered under key or defaultValue
func (c *Container) GetOrDefault(key string, defaultValue interface{}) interface{} {
	value, err := c.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func field(value interface{}, name string) (interface{}, bool) {
	switch actual := value.(type) {
	case map[string]interface{}:
		ret, ok := actual[name]
		return ret, ok
	case nil:
		return nil, false
	}
	rValue := reflect.ValueOf(value)
	if rValue.Kind() != reflect.Map || rValue.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	item := rValue.MapIndex(reflect.ValueOf(name).Convert(rValue.Type().Key()))
	if !item.IsValid() {
		return nil, false
	}
	return item.Interface(), true
}

// GetByType returns the only value whose type satisfies t
func (c *Container) GetByType(t reflect.Type) (interface{}, error) {
	return c.FindOne(signature.Typed(t))
}

// GetByTags returns the only value carrying all tags
func (c *Container) GetByTags(tags ...string) (interface{}, error) {
	return c.FindOne(signature.Tagged(tags...))
}

// GetBySignature returns the only value matching query exactly
func (c *Container) GetBySignature(query signature.Signature) (interface{}, error) {
	entry, err := c.getEntry(query)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (c *Container) getEntry(query signature.Signature) (*Entry, error) {
	var matched []Entry
	for _, entry := range c.entries {
		if entry.Signature.Equal(query) {
			matched = append(matched, entry)
		}
	}
	return c.ensureOne(query, matched)
}

// Find returns values matching query as subset
func (c *Container) Find(query signature.Signature) []interface{} {
	entries := c.FindEntries(query)
	ret := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		ret = append(ret, entry.Value)
	}
	return ret
}

// FindEntries returns entries matching query as subset
func (c *Container) FindEntries(query signature.Signature) []Entry {
	var ret []Entry
	for _, entry := range c.entries {
		if entry.Signature.Matches(query) {
			ret = append(ret, entry)
		}
	}
	return ret
}

// FindOne returns the only value matching query as subset
func (c *Container) FindOne(query signature.Signature) (interface{}, error) {
	entry, err := c.ensureOne(query, c.FindEntries(query))
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// ensureOne treats several matches holding equal values as one
func (c *Container) ensureOne(query signature.Signature, matched []Entry) (*Entry, error) {
	switch len(matched) {
	case 0:
		return nil, newLookupError(ErrNotFound, query, 0, c.Signatures())
	case 1:
		return &matched[0], nil
	}
	for _, candidate := range matched[1:] {
		if !reflect.DeepEqual(candidate.Value, matched[0].Value) {
			return nil, newLookupError(ErrAmbiguous, query, len(matched), c.Signatures())
		}
	}
	return &matched[0], nil
}

// IsIn returns true if key resolves to a value
func (c *Container) IsIn(key string) bool {
	_, err := c.Get(key)
	return err == nil
}

// SignatureIsIn returns true if query resolves exactly to a value
func (c *Container) SignatureIsIn(query signature.Signature) bool {
	_, err := c.GetBySignature(query)
	return err == nil
}

// Remove removes an entry matching query, exactly or as subset
func (c *Container) Remove(query signature.Signature, exact bool) (*Container, error) {
	index := -1
	if exact {
		entry, err := c.getEntry(query)
		if err != nil {
			return nil, err
		}
		index = c.indexOf(func(candidate Entry) bool { return candidate.Signature.Equal(entry.Signature) })
	} else {
		index = c.indexOf(func(candidate Entry) bool { return candidate.Signature.Matches(query) })
	}
	if index == -1 {
		return nil, newLookupError(ErrNotFound, query, 0, c.Signatures())
	}
	entries := make([]Entry, 0, len(c.entries)-1)
	entries = append(entries, c.entries[:index]...)
	entries = append(entries, c.entries[index+1:]...)
	return c.withEntries(entries), nil
}

func (c *Container) indexOf(fn func(candidate Entry) bool) int {
	for i, candidate := range c.entries {
		if fn(candidate) {
			return i
		}
	}
	return -1
}

// Without removes keyed entries, every key has to be present
func (c *Container) Without(keys ...string) (*Container, error) {
	ret := c
	var err error
	for _, key := range keys {
		if ret, err = ret.Remove(signature.Key(key), false); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Rename changes key of the entry registered under key
func (c *Container) Rename(key, newKey string) *Container {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		if entry.Signature.Key == newKey && key != newKey {
			continue
		}
		if entry.Signature.Key == key {
			entry.Signature = entry.Signature.WithKey(newKey)
		}
		entries = append(entries, entry)
	}
	return c.withEntries(entries)
}

// AsKeyedMap exports all keyed entries
func (c *Container) AsKeyedMap() map[string]interface{} {
	ret := make(map[string]interface{}, len(c.entries))
	for _, entry := range c.entries {
		if entry.Signature.Key != "" {
			ret[entry.Signature.Key] = entry.Value
		}
	}
	return ret
}

// Entries returns a copy of entries in insertion order
func (c *Container) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Signatures returns registered signatures in insertion order
func (c *Container) Signatures() []signature.Signature {
	ret := make([]signature.Signature, 0, len(c.entries))
	for _, entry := range c.entries {
		ret = append(ret, entry.Signature)
	}
	return ret
}

// Len returns number of entries
func (c *Container) Len() int {
	return len(c.entries)
}

// Exit returns a copy with the early-exit flag set
func (c *Container) Exit() *Container {
	ret := c.clone()
	ret.exit = true
	return ret
}

// Exited returns the early-exit flag
func (c *Container) Exited() bool {
	return c.exit
}

// ExecutionID returns id of the execution lineage
func (c *Container) ExecutionID() string {
	return c.meta.ID
}

// Observers returns observer registry shared by the lineage
func (c *Container) Observers() *observer.Registry {
	return c.meta.Observers
}

// WithNewExecutionMeta returns a copy with the same entries, a new execution
// id and no futures or exit flag. Observers are observer.Default() unless
// supplied with WithObservers or WithRegistry.
func (c *Container) WithNewExecutionMeta(opts ...Option) *Container {
	ret := New(opts...)
	ret.entries = c.Entries()
	return ret
}

// WithFuture returns a copy recording dispatched side effect
func (c *Container) WithFuture(future *Future) *Container {
	ret := c.clone()
	ret.futures = append(append([]*Future(nil), c.futures...), future)
	return ret
}

// Futures returns recorded futures
func (c *Container) Futures() []*Future {
	return append([]*Future(nil), c.futures...)
}

// Wait waits for all recorded futures and joins their errors
func (c *Container) Wait(ctx context.Context) error {
	var errs []error
	for _, future := range c.futures {
		if err := future.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// String returns readable representation
func (c *Container) String() string {
	items := make([]string, 0, len(c.entries))
	for _, entry := range c.entries {
		items = append(items, fmt.Sprintf("%v: %v", entry.Signature, entry.Value))
	}
	return "Container{" + strings.Join(items, ", ") + "}"
}
