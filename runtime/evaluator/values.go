package evaluator

import (
	"fmt"
	"go/token"
	"reflect"
	"regexp"
	"strings"
)

func unary(op token.Token, operand interface{}) (interface{}, error) {
	switch op {
	case token.NOT:
		if value, ok := operand.(bool); ok {
			return !value, nil
		}
	case token.SUB:
		if isInt(operand) {
			return -int(toInt64(operand)), nil
		}
		if isFloat(operand) {
			return -toFloat64(operand), nil
		}
	case token.ADD:
		if isNumber(operand) {
			return operand, nil
		}
	}
	return nil, fmt.Errorf("%w: %v%T", ErrUnsupported, op, operand)
}

func binary(op token.Token, x, y interface{}) (interface{}, error) {
	switch op {
	case token.EQL:
		return Equal(x, y), nil
	case token.NEQ:
		return !Equal(x, y), nil
	case token.LSS, token.GTR, token.LEQ, token.GEQ:
		cmp, err := compare(x, y)
		if err != nil {
			return nil, err
		}
		switch op {
		case token.LSS:
			return cmp < 0, nil
		case token.GTR:
			return cmp > 0, nil
		case token.LEQ:
			return cmp <= 0, nil
		default:
			return cmp >= 0, nil
		}
	case token.ADD:
		if xs, ok := x.(string); ok {
			return xs + stringify(y), nil
		}
		if ys, ok := y.(string); ok {
			return stringify(x) + ys, nil
		}
	}
	if !isNumber(x) || !isNumber(y) {
		return nil, fmt.Errorf("%w: %T %v %T", ErrUnsupported, x, op, y)
	}
	if isInt(x) && isInt(y) {
		a, b := toInt64(x), toInt64(y)
		switch op {
		case token.ADD:
			return int(a + b), nil
		case token.SUB:
			return int(a - b), nil
		case token.MUL:
			return int(a * b), nil
		case token.REM:
			if b == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return int(a % b), nil
		}
	}
	a, b := toFloat64(x), toFloat64(y)
	switch op {
	case token.ADD:
		return a + b, nil
	case token.SUB:
		return a - b, nil
	case token.MUL:
		return a * b, nil
	case token.QUO:
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return a / b, nil
	}
	return nil, fmt.Errorf("%w: operator %v", ErrUnsupported, op)
}

// Equal compares values, numbers are compared by value regardless of their type
func Equal(x, y interface{}) bool {
	if isNumber(x) && isNumber(y) {
		return toFloat64(x) == toFloat64(y)
	}
	if x == nil || y == nil {
		return IsNil(x) && IsNil(y)
	}
	return reflect.DeepEqual(x, y)
}

func compare(x, y interface{}) (int, error) {
	if isNumber(x) && isNumber(y) {
		if isInt(x) && isInt(y) {
			a, b := toInt64(x), toInt64(y)
			switch {
			case a < b:
				return -1, nil
			case a > b:
				return 1, nil
			}
			return 0, nil
		}
		a, b := toFloat64(x), toFloat64(y)
		switch {
		case a < b:
			return -1, nil
		case a > b:
			return 1, nil
		}
		return 0, nil
	}
	xs, xok := x.(string)
	ys, yok := y.(string)
	if xok && yok {
		return strings.Compare(xs, ys), nil
	}
	return 0, fmt.Errorf("can not compare %T with %T", x, y)
}

func isNumber(v interface{}) bool {
	return isInt(v) || isFloat(v)
}

func isInt(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(v interface{}) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Float32 || kind == reflect.Float64
}

func toInt64(v interface{}) int64 {
	value := reflect.ValueOf(v)
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(value.Uint())
	case reflect.Float32, reflect.Float64:
		return int64(value.Float())
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	if isFloat(v) {
		return reflect.ValueOf(v).Float()
	}
	return float64(toInt64(v))
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// IsNil returns true for nil and nil pointer, map, slice, func or chan values
func IsNil(v interface{}) bool {
	if v == nil {
		return true
	}
	value := reflect.ValueOf(v)
	switch value.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return value.IsNil()
	}
	return false
}

// Property returns map entry or struct field (case-insensitive)
func Property(obj interface{}, name string) (interface{}, bool) {
	if obj == nil {
		return nil, false
	}
	if aMap, ok := obj.(map[string]interface{}); ok {
		ret, ok := aMap[name]
		return ret, ok
	}
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}
	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := value.MapIndex(reflect.ValueOf(name).Convert(value.Type().Key()))
		if !item.IsValid() {
			return nil, false
		}
		return item.Interface(), true
	case reflect.Struct:
		field := value.FieldByNameFunc(func(candidate string) bool { return strings.EqualFold(candidate, name) })
		if !field.IsValid() || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true
	}
	return nil, false
}

func element(obj interface{}, index int) (interface{}, bool) {
	if obj == nil {
		return nil, false
	}
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}
	switch value.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
	default:
		return nil, false
	}
	if index < 0 || index >= value.Len() {
		return nil, false
	}
	return value.Index(index).Interface(), true
}

func lenFunction(args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len expects 1 argument, but had %v", len(args))
	}
	if args[0] == nil {
		return 0, nil
	}
	value := reflect.ValueOf(args[0])
	switch value.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return value.Len(), nil
	}
	return nil, fmt.Errorf("invalid argument for len: %T", args[0])
}

func isNilFunction(args ...interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("isNil expects 1 argument, but had %v", len(args))
	}
	return IsNil(args[0]), nil
}

func matchesFunction(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("matches expects 2 arguments, but had %v", len(args))
	}
	pattern, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("matches expects string pattern, but had %T", args[1])
	}
	expr, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return expr.MatchString(stringify(args[0])), nil
}
