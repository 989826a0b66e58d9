package evaluator

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrUndefined is returned when an identifier can not be resolved
	ErrUndefined = errors.New("undefined identifier")
	// ErrUnsupported is returned for expressions outside of the supported grammar
	ErrUnsupported = errors.New("unsupported expression")
)

var singleQuoted = regexp.MustCompile(`'([^']*)'`)

// Lookup resolves dotted identifier path, e.g. order.amount
type Lookup func(path string) (interface{}, bool)

// MapLookup creates lookup backed by a map, nested maps are walked for dotted paths
func MapLookup(values map[string]interface{}) Lookup {
	return func(path string) (interface{}, bool) {
		parts := strings.Split(path, ".")
		current, ok := values[parts[0]]
		if !ok {
			return nil, false
		}
		for _, part := range parts[1:] {
			if current, ok = Property(current, part); !ok {
				return nil, false
			}
		}
		return current, true
	}
}

// Function represents a callable available to expressions
type Function func(args ...interface{}) (interface{}, error)

// Evaluator evaluates Go-like boolean and arithmetic expressions
type Evaluator struct {
	functions map[string]Function
}

// Option customises evaluator
type Option func(e *Evaluator)

// WithFunction registers expression function
func WithFunction(name string, fn Function) Option {
	return func(e *Evaluator) { e.functions[name] = fn }
}

// New creates an evaluator with len, isNil and matches functions
func New(opts ...Option) *Evaluator {
	ret := &Evaluator{functions: map[string]Function{
		"len":     lenFunction,
		"isNil":   isNilFunction,
		"matches": matchesFunction,
	}}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Expression represents a parsed expression
type Expression struct {
	source    string
	node      ast.Expr
	evaluator *Evaluator
}

// String returns expression source
func (x *Expression) String() string {
	return x.source
}

// Compile parses expression; single quoted literals are accepted as strings
func (e *Evaluator) Compile(expr string) (*Expression, error) {
	source := strings.TrimSpace(expr)
	if strings.HasPrefix(source, "${") && strings.HasSuffix(source, "}") {
		source = strings.TrimSpace(source[2 : len(source)-1])
	}
	node, err := parser.ParseExpr(singleQuoted.ReplaceAllString(source, `"$1"`))
	if err != nil {
		return nil, fmt.Errorf("failed to parse expression %q: %w", expr, err)
	}
	return &Expression{source: expr, node: node, evaluator: e}, nil
}

// Evaluate compiles and evaluates expression
func (e *Evaluator) Evaluate(expr string, lookup Lookup) (interface{}, error) {
	compiled, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(lookup)
}

// Evaluate evaluates expression with identifiers resolved by lookup
func (x *Expression) Evaluate(lookup Lookup) (interface{}, error) {
	ret, err := x.evaluator.eval(x.node, lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", x.source, err)
	}
	return ret, nil
}

// Bool evaluates expression expecting a boolean result
func (x *Expression) Bool(lookup Lookup) (bool, error) {
	value, err := x.Evaluate(lookup)
	if err != nil {
		return false, err
	}
	ret, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, expected bool", x.source, value)
	}
	return ret, nil
}

// Identifiers returns root identifiers referenced by expression
func (x *Expression) Identifiers() []string {
	var ret []string
	seen := map[string]bool{}
	add := func(name string) {
		switch name {
		case "true", "false", "nil":
			return
		}
		if !seen[name] {
			seen[name] = true
			ret = append(ret, name)
		}
	}
	var visit func(node ast.Node) bool
	visit = func(node ast.Node) bool {
		switch actual := node.(type) {
		case *ast.CallExpr:
			for _, arg := range actual.Args {
				ast.Inspect(arg, visit)
			}
			return false
		case *ast.SelectorExpr:
			if path, ok := selectorPath(actual); ok {
				add(path[0])
				return false
			}
		case *ast.Ident:
			add(actual.Name)
		}
		return true
	}
	ast.Inspect(x.node, visit)
	return ret
}

func (e *Evaluator) eval(node ast.Expr, lookup Lookup) (interface{}, error) {
	switch actual := node.(type) {
	case *ast.BasicLit:
		return literal(actual)
	case *ast.Ident:
		switch actual.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		}
		return resolve([]string{actual.Name}, lookup)
	case *ast.SelectorExpr:
		path, ok := selectorPath(actual)
		if !ok {
			return nil, fmt.Errorf("%w: selector", ErrUnsupported)
		}
		return resolve(path, lookup)
	case *ast.ParenExpr:
		return e.eval(actual.X, lookup)
	case *ast.IndexExpr:
		return e.index(actual, lookup)
	case *ast.UnaryExpr:
		operand, err := e.eval(actual.X, lookup)
		if err != nil {
			return nil, err
		}
		return unary(actual.Op, operand)
	case *ast.BinaryExpr:
		return e.binary(actual, lookup)
	case *ast.CallExpr:
		return e.call(actual, lookup)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupported, node)
}

func (e *Evaluator) binary(node *ast.BinaryExpr, lookup Lookup) (interface{}, error) {
	x, err := e.eval(node.X, lookup)
	if err != nil {
		return nil, err
	}
	switch node.Op {
	case token.LAND, token.LOR:
		left, ok := x.(bool)
		if !ok {
			return nil, fmt.Errorf("%v expects bool operands, but had %T", node.Op, x)
		}
		if (node.Op == token.LAND && !left) || (node.Op == token.LOR && left) {
			return left, nil
		}
		y, err := e.eval(node.Y, lookup)
		if err != nil {
			return nil, err
		}
		right, ok := y.(bool)
		if !ok {
			return nil, fmt.Errorf("%v expects bool operands, but had %T", node.Op, y)
		}
		return right, nil
	}
	y, err := e.eval(node.Y, lookup)
	if err != nil {
		return nil, err
	}
	return binary(node.Op, x, y)
}

func (e *Evaluator) index(node *ast.IndexExpr, lookup Lookup) (interface{}, error) {
	x, err := e.eval(node.X, lookup)
	if err != nil {
		return nil, err
	}
	idx, err := e.eval(node.Index, lookup)
	if err != nil {
		return nil, err
	}
	if key, ok := idx.(string); ok {
		if ret, ok := Property(x, key); ok {
			return ret, nil
		}
		return nil, fmt.Errorf("%w: [%q]", ErrUndefined, key)
	}
	if !isInt(idx) {
		return nil, fmt.Errorf("invalid index %v", idx)
	}
	if ret, ok := element(x, int(toInt64(idx))); ok {
		return ret, nil
	}
	return nil, fmt.Errorf("index %v out of range", idx)
}

func (e *Evaluator) call(node *ast.CallExpr, lookup Lookup) (interface{}, error) {
	ident, ok := node.Fun.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("%w: call", ErrUnsupported)
	}
	fn, ok := e.functions[ident.Name]
	if !ok {
		return nil, fmt.Errorf("%w: function %v", ErrUndefined, ident.Name)
	}
	args := make([]interface{}, 0, len(node.Args))
	for _, arg := range node.Args {
		value, err := e.eval(arg, lookup)
		if err != nil {
			return nil, err
		}
		args = append(args, value)
	}
	return fn(args...)
}

func selectorPath(node ast.Expr) ([]string, bool) {
	switch actual := node.(type) {
	case *ast.Ident:
		return []string{actual.Name}, true
	case *ast.SelectorExpr:
		parent, ok := selectorPath(actual.X)
		if !ok {
			return nil, false
		}
		return append(parent, actual.Sel.Name), true
	}
	return nil, false
}

// resolve looks up the longest registered prefix of path and walks the rest
func resolve(path []string, lookup Lookup) (interface{}, error) {
	for i := len(path); i > 0; i-- {
		current, ok := lookup(strings.Join(path[:i], "."))
		if !ok {
			continue
		}
		for _, name := range path[i:] {
			if current, ok = Property(current, name); !ok {
				return nil, fmt.Errorf("%w: %v", ErrUndefined, strings.Join(path, "."))
			}
		}
		return current, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUndefined, strings.Join(path, "."))
}

func literal(node *ast.BasicLit) (interface{}, error) {
	switch node.Kind {
	case token.INT:
		value, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return nil, err
		}
		return int(value), nil
	case token.FLOAT:
		return strconv.ParseFloat(node.Value, 64)
	case token.STRING:
		return strconv.Unquote(node.Value)
	case token.CHAR:
		value, _, _, err := strconv.UnquoteChar(node.Value[1:len(node.Value)-1], '\'')
		if err != nil {
			return nil, err
		}
		return string(value), nil
	}
	return nil, fmt.Errorf("%w: literal %v", ErrUnsupported, node.Value)
}
