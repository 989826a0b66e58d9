package binding

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/viant/x"
)

var builtins = map[string]reflect.Type{
	"bool":          reflect.TypeOf(false),
	"string":        reflect.TypeOf(""),
	"int":           reflect.TypeOf(0),
	"int8":          reflect.TypeOf(int8(0)),
	"int16":         reflect.TypeOf(int16(0)),
	"int32":         reflect.TypeOf(int32(0)),
	"int64":         reflect.TypeOf(int64(0)),
	"uint":          reflect.TypeOf(uint(0)),
	"uint8":         reflect.TypeOf(uint8(0)),
	"uint16":        reflect.TypeOf(uint16(0)),
	"uint32":        reflect.TypeOf(uint32(0)),
	"uint64":        reflect.TypeOf(uint64(0)),
	"float32":       reflect.TypeOf(float32(0)),
	"float64":       reflect.TypeOf(float64(0)),
	"interface{}":   reflect.TypeOf((*interface{})(nil)).Elem(),
	"any":           reflect.TypeOf((*interface{})(nil)).Elem(),
	"error":         reflect.TypeOf((*error)(nil)).Elem(),
	"time.Time":     reflect.TypeOf(time.Time{}),
	"time.Duration": reflect.TypeOf(time.Duration(0)),
}

// Types resolves declared data type names to reflect types
type Types struct {
	x.Registry
	mux     sync.RWMutex
	imports map[string]string
	index   map[string]*x.Type
}

// Register adds a named type; the type is addressable as package.Name
// where package is the last segment of its package path
func (t *Types) Register(dataType *x.Type) {
	if dataType == nil || dataType.Type == nil {
		return
	}
	t.mux.Lock()
	rType := dataType.Type
	pkgPath := dataType.PkgPath
	if pkgPath == "" {
		pkgPath = rType.PkgPath()
	}
	if pkgPath != "" {
		pkg := pkgPath
		if idx := strings.LastIndex(pkgPath, "/"); idx != -1 {
			pkg = pkgPath[idx+1:]
		}
		if _, ok := t.imports[pkg]; !ok {
			t.imports[pkg] = pkgPath
		}
		t.index[pkg+"."+rType.Name()] = dataType
		t.index[pkgPath+"."+rType.Name()] = dataType
	} else if rType.Name() != "" {
		t.index[rType.Name()] = dataType
	}
	t.mux.Unlock()
	t.Registry.Register(dataType)
}

// RegisterType registers reflect type
func (t *Types) RegisterType(rType reflect.Type) {
	t.Register(x.NewType(rType))
}

// Lookup resolves data type name with optional slice/map modifiers
func (t *Types) Lookup(dataType string) (reflect.Type, error) {
	dataType = strings.TrimSpace(dataType)
	if dataType == "" {
		return nil, nil
	}
	modifier := ""
	if idx := strings.LastIndex(dataType, "]"); idx != -1 {
		modifier = dataType[:idx+1]
		dataType = dataType[idx+1:]
	}
	rType, err := t.lookup(dataType)
	if err != nil {
		return nil, err
	}
	switch strings.TrimSpace(modifier) {
	case "":
	case "[]":
		rType = reflect.SliceOf(rType)
	case "[][]":
		rType = reflect.SliceOf(reflect.SliceOf(rType))
	case "map[string]":
		rType = reflect.MapOf(builtins["string"], rType)
	case "map[string][]":
		rType = reflect.MapOf(builtins["string"], reflect.SliceOf(rType))
	default:
		return nil, fmt.Errorf("unsupported type modifier: %v", modifier)
	}
	return rType, nil
}

func (t *Types) lookup(name string) (reflect.Type, error) {
	if rType, ok := builtins[name]; ok {
		return rType, nil
	}
	key := name
	t.mux.RLock()
	if idx := strings.LastIndex(name, "."); idx != -1 {
		if pkgPath, ok := t.imports[name[:idx]]; ok {
			key = pkgPath + name[idx:]
		}
	}
	local := t.index[name]
	t.mux.RUnlock()
	if ret := t.Registry.Lookup(key); ret != nil && ret.Type != nil {
		return ret.Type, nil
	}
	if local != nil {
		return local.Type, nil
	}
	return nil, fmt.Errorf("unknown type: %v", name)
}

// NewTypes creates a type registry
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{
		Registry: *x.NewRegistry(options...),
		imports:  map[string]string{},
		index:    map[string]*x.Type{},
	}
}
