package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/model/container"
)

func TestDataUnits(t *testing.T) {
	calls := 0
	load := func(context.Context, *container.Container) (interface{}, error) {
		calls++
		return "loaded", nil
	}
	testCases := []struct {
		description string
		unit        Unit
		values      map[string]interface{}
		expected    map[string]interface{}
		expectCalls int
		expectErr   bool
	}{
		{
			description: "source",
			unit:        Source("data", load),
			values:      map[string]interface{}{},
			expected:    map[string]interface{}{"data": "loaded"},
			expectCalls: 1,
		},
		{
			description: "source skipped when present",
			unit:        Source("data", load, SkipIfPresent()),
			values:      map[string]interface{}{"data": "cached"},
			expected:    map[string]interface{}{"data": "cached"},
		},
		{
			description: "add values",
			unit:        Sequence(AddValue("a", 1), AddValues(map[string]interface{}{"b": 2, "c": 3})),
			values:      map[string]interface{}{},
			expected:    map[string]interface{}{"a": 1, "b": 2, "c": 3},
		},
		{
			description: "alias",
			unit:        Alias("b", "a"),
			values:      map[string]interface{}{"a": 1},
			expected:    map[string]interface{}{"a": 1, "b": 1},
		},
		{
			description: "rename",
			unit:        Rename("a", "b"),
			values:      map[string]interface{}{"a": 1},
			expected:    map[string]interface{}{"b": 1},
		},
		{
			description: "rename missing",
			unit:        Rename("x", "b"),
			values:      map[string]interface{}{"a": 1},
			expectErr:   true,
		},
		{
			description: "without",
			unit:        Without("a", "b"),
			values:      map[string]interface{}{"a": 1, "b": 2, "c": 3},
			expected:    map[string]interface{}{"c": 3},
		},
		{
			description: "without missing",
			unit:        Without("x"),
			values:      map[string]interface{}{"a": 1},
			expectErr:   true,
		},
		{
			description: "on subfield",
			unit:        OnSubfield("order", AddValue("status", "done")),
			values:      map[string]interface{}{"order": map[string]interface{}{"id": 1}, "other": 2},
			expected:    map[string]interface{}{"order": map[string]interface{}{"id": 1, "status": "done"}, "other": 2},
		},
		{
			description: "on nested subfield",
			unit:        OnSubfield("doc.order", Rename("id", "orderID")),
			values:      map[string]interface{}{"doc": map[string]interface{}{"order": map[string]interface{}{"id": 1}}},
			expected:    map[string]interface{}{"doc": map[string]interface{}{"order": map[string]interface{}{"id": 1, "orderID": 1}}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			calls = 0
			out, err := RunWith(context.Background(), tc.unit, tc.values)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tc.expected, out.AsKeyedMap())
			assert.Equal(t, tc.expectCalls, calls)
		})
	}
}

func TestGuard(t *testing.T) {
	sum := New("sum", func(_ context.Context, in *container.Container) (*container.Container, error) {
		if in.IsIn("other") {
			return nil, errBoom
		}
		a, err := container.Value[int](in, "a")
		if err != nil {
			return nil, err
		}
		b, err := container.Value[int](in, "b")
		if err != nil {
			return nil, err
		}
		return in.Evolve("total", a+b).Evolve("scratch", true), nil
	})
	out, err := RunWith(context.Background(), Guard(sum, InputAs("x", "a"), Inputs("b"), OutputAs("total", "sum")), map[string]interface{}{"x": 1, "b": 2, "other": 5})
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, map[string]interface{}{"x": 1, "b": 2, "other": 5, "sum": 3}, out.AsKeyedMap())

	_, err = RunWith(context.Background(), Guard(sum, Inputs("a")), map[string]interface{}{"b": 2})
	assert.ErrorIs(t, err, container.ErrNotFound)
}
