package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/signature"
	"github.com/viant/conveyor/runtime/evaluator"
)

// Predicate evaluates condition over container; an error aborts evaluation
type Predicate func(ctx context.Context, in *container.Container) (bool, error)

// Condition is a unit whose outcome is success or failure, it contributes no value
type Condition interface {
	Unit
	// Validate returns nil on success or *ConditionError on failure
	Validate(ctx context.Context, in *container.Container) error
	// Not returns inverted condition
	Not() Condition
}

type condition struct {
	*unit
	message   string
	inverted  bool
	predicate Predicate
}

// ConditionOption customises condition
type ConditionOption func(c *condition)

// Message sets failure message; {key} placeholders are replaced with container values
func Message(message string) ConditionOption {
	return func(c *condition) { c.message = message }
}

// When creates condition from predicate
func When(name string, predicate Predicate, opts ...ConditionOption) Condition {
	ret := &condition{predicate: predicate, message: "condition not met"}
	for _, opt := range opts {
		opt(ret)
	}
	return ret.init(name)
}

func (c *condition) init(name string) *condition {
	c.unit = &unit{name: name, body: c.run}
	return c
}

func (c *condition) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	if err := c.Validate(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

func (c *condition) Validate(ctx context.Context, in *container.Container) error {
	ok, err := c.predicate(ctx, in)
	if err != nil {
		if !errors.Is(err, ErrConditionNotMet) {
			return err
		}
		ok = false
	}
	if ok != c.inverted {
		return nil
	}
	return &ConditionError{Name: c.name, Message: interpolate(c.message, in), Inverted: c.inverted}
}

func (c *condition) Not() Condition {
	ret := &condition{predicate: c.predicate, inverted: !c.inverted, message: toggleInverted(c.message)}
	return ret.init(c.name)
}

func toggleInverted(message string) string {
	if strings.HasPrefix(message, invertedPrefix) {
		return message[len(invertedPrefix):]
	}
	return invertedPrefix + message
}

// Not returns inverted condition
func Not(c Condition) Condition {
	return c.Not()
}

// holds runs condition as a child unit, condition failure is reported as false
func holds(ctx context.Context, c Condition, in *container.Container) (bool, error) {
	_, err := invoke(ctx, c, in)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrConditionNotMet) {
		return false, nil
	}
	return false, err
}

// And succeeds when all conditions succeed, evaluation stops at the first failure
func And(conditions ...Condition) Condition {
	return When("And", func(ctx context.Context, in *container.Container) (bool, error) {
		for _, c := range conditions {
			if ok, err := holds(ctx, c, in); !ok || err != nil {
				return false, err
			}
		}
		return true, nil
	}, Message("Operator failed for "+conditionNames(conditions)))
}

// Or succeeds when any condition succeeds, evaluation stops at the first success
func Or(conditions ...Condition) Condition {
	return When("Or", func(ctx context.Context, in *container.Container) (bool, error) {
		for _, c := range conditions {
			ok, err := holds(ctx, c, in)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}, Message("Operator failed for "+conditionNames(conditions)))
}

func conditionNames(conditions []Condition) string {
	names := make([]string, 0, len(conditions))
	for _, c := range conditions {
		names = append(names, c.Name())
	}
	return strings.Join(names, ", ")
}

// Always creates condition that always succeeds
func Always() Condition {
	return When("Always", func(context.Context, *container.Container) (bool, error) { return true, nil })
}

// IsIn succeeds when key resolves to a value
func IsIn(key string) Condition {
	return When("IsIn", func(_ context.Context, in *container.Container) (bool, error) {
		return in.IsIn(key), nil
	}, Message(fmt.Sprintf("key %v is not present", key)))
}

// SignatureIsIn succeeds when sig resolves exactly to a value
func SignatureIsIn(sig signature.Signature) Condition {
	return When("SignatureIsIn", func(_ context.Context, in *container.Container) (bool, error) {
		return in.SignatureIsIn(sig), nil
	}, Message(fmt.Sprintf("%v is not present", sig)))
}

// NonNil succeeds when every key resolves to a non nil value
func NonNil(keys ...string) Condition {
	return When("NonNil", func(_ context.Context, in *container.Container) (bool, error) {
		for _, key := range keys {
			value, err := in.Get(key)
			if err != nil || evaluator.IsNil(value) {
				return false, nil
			}
		}
		return true, nil
	}, Message(fmt.Sprintf("one of [%v] is nil", strings.Join(keys, ", "))))
}

// Property succeeds when attribute of object registered under objectKey equals value
func Property(objectKey, attribute string, equalTo interface{}) Condition {
	return When("Property", func(_ context.Context, in *container.Container) (bool, error) {
		object, err := in.Get(objectKey)
		if err != nil {
			return false, err
		}
		value, ok := evaluator.Property(object, attribute)
		if !ok {
			return false, nil
		}
		return evaluator.Equal(value, equalTo), nil
	}, Message(fmt.Sprintf("%v.%v is not %v", objectKey, attribute, equalTo)))
}

var expressions = evaluator.New()

// Expr creates condition evaluating Go-like boolean expression, e.g. "amount < limit";
// identifiers resolve to container keys
func Expr(expression string) Condition {
	compiled, err := expressions.Compile(expression)
	return When(expression, func(_ context.Context, in *container.Container) (bool, error) {
		if err != nil {
			return false, err
		}
		return compiled.Bool(lookup(in))
	}, Message(expressionMessage(expression, compiled)))
}

func lookup(in *container.Container) evaluator.Lookup {
	return func(path string) (interface{}, bool) {
		value, err := in.Get(path)
		return value, err == nil
	}
}

func expressionMessage(expression string, compiled *evaluator.Expression) string {
	if compiled == nil {
		return expression
	}
	var values []string
	for _, name := range compiled.Identifiers() {
		values = append(values, name+"={"+name+"}")
	}
	if len(values) == 0 {
		return expression
	}
	return expression + " with " + strings.Join(values, ", ")
}
