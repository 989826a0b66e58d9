package binding

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/signature"
)

type order struct {
	ID     string
	Amount float64
}

func TestTypes_Lookup(t *testing.T) {
	types := NewTypes()
	types.RegisterType(reflect.TypeOf(order{}))

	testCases := []struct {
		description string
		dataType    string
		expected    reflect.Type
		shouldError bool
	}{
		{description: "builtin", dataType: "int", expected: reflect.TypeOf(0)},
		{description: "slice modifier", dataType: "[]string", expected: reflect.TypeOf([]string{})},
		{description: "map modifier", dataType: "map[string]float64", expected: reflect.TypeOf(map[string]float64{})},
		{description: "registered type", dataType: "binding.order", expected: reflect.TypeOf(order{})},
		{description: "registered slice", dataType: "[]binding.order", expected: reflect.TypeOf([]order{})},
		{description: "empty", dataType: "", expected: nil},
		{description: "unknown", dataType: "foo.Bar", shouldError: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, err := types.Lookup(tc.dataType)
			if tc.shouldError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	resolver := New()
	params, err := resolver.Parse("amount[int]", "limit[int](key/max)", "user[string](tags/user)")
	if !assert.NoError(t, err) {
		return
	}
	output := signature.Key("approved")

	testCases := []struct {
		description    string
		declaration    *Declaration
		overrides      []Override
		expectedInputs map[string]signature.Signature
		expectedOutput *signature.Signature
		shouldError    bool
	}{
		{
			description: "name derived and located",
			declaration: &Declaration{Params: params, Output: &output},
			expectedInputs: map[string]signature.Signature{
				"amount": signature.Key("amount"),
				"limit":  signature.Key("max"),
				"user":   signature.Tagged("user"),
			},
			expectedOutput: &output,
		},
		{
			description: "explicit takes precedence",
			declaration: &Declaration{Params: params, Explicit: map[string]signature.Signature{"amount": signature.Key("total")}},
			expectedInputs: map[string]signature.Signature{
				"amount": signature.Key("total"),
				"limit":  signature.Key("max"),
				"user":   signature.Tagged("user"),
			},
		},
		{
			description: "override takes precedence",
			declaration: &Declaration{Params: params, Explicit: map[string]signature.Signature{"amount": signature.Key("total")}, Output: &output},
			overrides:   []Override{InputAs("amount", "sum"), OutputAs(signature.Tagged("decision"))},
			expectedInputs: map[string]signature.Signature{
				"amount": signature.Key("sum"),
				"limit":  signature.Key("max"),
				"user":   signature.Tagged("user"),
			},
			expectedOutput: &signature.Signature{Key: "approved", Tags: signature.NewTags("decision")},
		},
		{
			description: "unknown override parameter",
			declaration: &Declaration{Params: params},
			overrides:   []Override{InputAs("foo", "bar")},
			shouldError: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config, err := resolver.Resolve(tc.declaration, tc.overrides...)
			if tc.shouldError {
				assert.ErrorIs(t, err, ErrInvalidDeclaration)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			actual := map[string]signature.Signature{}
			for _, input := range config.Inputs {
				actual[input.Name] = input.Signature
			}
			assert.Equal(t, tc.expectedInputs, actual)
			assert.Equal(t, tc.expectedOutput, config.Output)
		})
	}
}

func TestResolver_Strict(t *testing.T) {
	output := signature.Of[int]()
	_, err := New(WithStrict(true)).Resolve(&Declaration{Output: &output})
	assert.ErrorIs(t, err, ErrInvalidDeclaration)
	_, err = New().Resolve(&Declaration{Output: &output})
	assert.NoError(t, err)
}

func TestConfig_Bind(t *testing.T) {
	resolver := New()
	params, err := resolver.Parse("amount[int]", "limit[int](key/max)")
	if !assert.NoError(t, err) {
		return
	}
	limit, _ := params.Get("limit")
	withDefault := Params{params[0], limit.WithDefault(100)}

	testCases := []struct {
		description string
		params      Params
		values      map[string]interface{}
		expected    Values
		expectedErr error
	}{
		{
			description: "all present",
			params:      params,
			values:      map[string]interface{}{"amount": 10, "max": 20},
			expected:    Values{"amount": 10, "limit": 20},
		},
		{
			description: "default substitutes missing",
			params:      withDefault,
			values:      map[string]interface{}{"amount": 10},
			expected:    Values{"amount": 10, "limit": 100},
		},
		{
			description: "missing input",
			params:      params,
			values:      map[string]interface{}{"amount": 10},
			expectedErr: ErrMissingInput,
		},
		{
			description: "type mismatch",
			params:      params,
			values:      map[string]interface{}{"amount": map[string]interface{}{}, "max": 1},
			expectedErr: ErrTypeMismatch,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			config, err := resolver.Resolve(&Declaration{Params: tc.params})
			if !assert.NoError(t, err) {
				return
			}
			actual, err := config.Bind(container.FromMap(tc.values))
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr), err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestConfig_Emit(t *testing.T) {
	output := signature.Key("total")
	config := &Config{Output: &output}
	in := container.FromMap(map[string]interface{}{"a": 1})
	out := config.Emit(in, 3)
	value, err := out.GetByType(reflect.TypeOf(0))
	assert.Error(t, err, "both a and total are ints")
	assert.Nil(t, value)
	assert.EqualValues(t, 3, out.GetOrDefault("total", nil))
	assert.Equal(t, in, (&Config{}).Emit(in, 3))
}

func TestGet(t *testing.T) {
	values := Values{"amount": 10, "empty": nil}
	amount, err := Get[int](values, "amount")
	assert.NoError(t, err)
	assert.Equal(t, 10, amount)
	empty, err := Get[string](values, "empty")
	assert.NoError(t, err)
	assert.Equal(t, "", empty)
	_, err = Get[int](values, "missing")
	assert.ErrorIs(t, err, ErrMissingInput)
}
