package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/signature"
	"github.com/viant/conveyor/runtime/evaluator"
)

type account struct {
	Status string
}

func TestCondition_NegationLaw(t *testing.T) {
	conditions := []Condition{
		Expr("x > 1"),
		IsIn("x"),
		IsIn("y"),
		Always(),
		NonNil("x"),
		Property("account", "Status", "open"),
		SignatureIsIn(signature.Key("x")),
		And(IsIn("x"), Expr("x > 1")),
		Or(IsIn("y"), Expr("x > 1")),
	}
	inputs := []map[string]interface{}{
		{"x": 2, "account": &account{Status: "open"}},
		{"x": 0, "account": account{Status: "closed"}},
	}
	for _, condition := range conditions {
		for _, values := range inputs {
			in := container.FromMap(values)
			holds := condition.Validate(context.Background(), in) == nil
			negated := condition.Not().Validate(context.Background(), in) == nil
			assert.NotEqual(t, holds, negated, condition.Name())
			assert.Equal(t, holds, Not(Not(condition)).Validate(context.Background(), in) == nil, condition.Name())
		}
	}
}

func TestCondition_Message(t *testing.T) {
	in := container.FromMap(map[string]interface{}{"amount": 120})
	never := func(context.Context, *container.Container) (bool, error) { return false, nil }

	testCases := []struct {
		description string
		condition   Condition
		expected    string
	}{
		{
			description: "interpolated",
			condition:   When("limit", never, Message("amount {amount} exceeds {limit}")),
			expected:    "limit failed: amount 120 exceeds <NOT-PROVIDED>",
		},
		{
			description: "negated",
			condition:   Always().Not(),
			expected:    "not Always failed: Inverted condition: condition not met",
		},
		{
			description: "double negation",
			condition:   Not(Not(When("limit", never, Message("too big")))),
			expected:    "limit failed: too big",
		},
		{
			description: "and",
			condition:   And(IsIn("amount"), IsIn("limit")),
			expected:    "And failed: Operator failed for IsIn, IsIn",
		},
		{
			description: "expression",
			condition:   Expr("amount < 100"),
			expected:    "amount < 100 failed: amount < 100 with amount=120",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			err := tc.condition.Validate(context.Background(), in)
			if !assert.Error(t, err) {
				return
			}
			assert.ErrorIs(t, err, ErrConditionNotMet)
			assert.Equal(t, tc.expected, err.Error())
		})
	}
}

func TestCondition_AsUnit(t *testing.T) {
	in := container.FromMap(map[string]interface{}{"x": 1})
	out, err := Run(context.Background(), IsIn("x"), in)
	assert.NoError(t, err)
	assert.Equal(t, in.AsKeyedMap(), out.AsKeyedMap())

	_, err = Run(context.Background(), IsIn("y"), in)
	var conditionErr *ConditionError
	assert.True(t, errors.As(err, &conditionErr))
}

func TestAndOr_ShortCircuit(t *testing.T) {
	calls := 0
	counted := When("counted", func(context.Context, *container.Container) (bool, error) {
		calls++
		return true, nil
	})
	in := container.New()
	assert.Error(t, And(IsIn("missing"), counted).Validate(context.Background(), in))
	assert.NoError(t, Or(Always(), counted).Validate(context.Background(), in))
	assert.Equal(t, 0, calls)
	assert.NoError(t, And(Always(), counted).Validate(context.Background(), in))
	assert.Equal(t, 1, calls)
}

func TestSwitch(t *testing.T) {
	testCases := []struct {
		description string
		unit        Unit
		x           int
		expected    string
		expectErr   error
	}{
		{
			description: "first match wins",
			unit:        Switch(Case(Expr("x > 1"), evolve("big", "size", "big")), Case(Expr("x > 0"), evolve("small", "size", "small"))),
			x:           5,
			expected:    "big",
		},
		{
			description: "second case",
			unit:        Switch().Case(Expr("x > 1"), evolve("big", "size", "big")).Case(Expr("x > 0"), evolve("small", "size", "small")),
			x:           1,
			expected:    "small",
		},
		{
			description: "default",
			unit:        Switch(Case(Expr("x > 1"), evolve("big", "size", "big"))).Otherwise(evolve("none", "size", "none")),
			x:           0,
			expected:    "none",
		},
		{
			description: "exhausted",
			unit:        Switch(Case(Expr("x > 1"), evolve("big", "size", "big"))),
			x:           0,
			expectErr:   ErrNoMatchingBranch,
		},
		{
			description: "hard condition error propagates",
			unit:        Switch(Case(Expr("missing > 1"), evolve("big", "size", "big"))).Otherwise(evolve("none", "size", "none")),
			x:           0,
			expectErr:   evaluator.ErrUndefined,
		},
		{
			description: "if then skipped",
			unit:        IfThen(Expr("x > 1"), evolve("big", "size", "big")),
			x:           0,
			expected:    "",
		},
		{
			description: "if then",
			unit:        IfThen(Expr("x > 1"), evolve("big", "size", "big")),
			x:           2,
			expected:    "big",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			out, err := RunWith(context.Background(), tc.unit, map[string]interface{}{"x": tc.x})
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tc.expected, out.GetOrDefault("size", ""))
		})
	}
}

func TestSwitch_BranchError(t *testing.T) {
	_, err := RunWith(context.Background(), Switch(Case(Expr("x > 1")), Case(IsIn("y"))), map[string]interface{}{"x": 0})
	var branchErr *BranchError
	if assert.True(t, errors.As(err, &branchErr)) {
		assert.Equal(t, []string{"x > 1", "IsIn"}, branchErr.Conditions)
	}
}

func TestQuantified(t *testing.T) {
	in := container.FromMap(map[string]interface{}{"items": []int{1, 2, 3}})
	testCases := []struct {
		description string
		condition   Condition
		expectOK    bool
	}{
		{description: "any matched", condition: AnyOf("items", "item", Expr("item > 2")), expectOK: true},
		{description: "any not matched", condition: AnyOf("items", "item", Expr("item > 3"))},
		{description: "all matched", condition: AllOf("items", "item", Expr("item > 0")), expectOK: true},
		{description: "all not matched", condition: AllOf("items", "item", Expr("item > 1"))},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			err := tc.condition.Validate(context.Background(), in)
			if tc.expectOK {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrConditionNotMet)
		})
	}
	out, err := Run(context.Background(), AnyOf("items", "item", Expr("item > 2")), in)
	assert.NoError(t, err)
	assert.False(t, out.IsIn("item"))
}
