package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/model/container"
)

var errTransient = errors.New("transient")

// flaky fails on the first failures invocations
func flaky(failures int, calls *int32) Unit {
	return New("flaky", func(_ context.Context, in *container.Container) (*container.Container, error) {
		attempt := atomic.AddInt32(calls, 1)
		if int(attempt) <= failures {
			return nil, errTransient
		}
		return in.Evolve("result", int(attempt)), nil
	})
}

func TestRetry_Convergence(t *testing.T) {
	testCases := []struct {
		description   string
		failures      int
		maxAttempts   int
		expectErr     bool
		expectedCalls int32
	}{
		{description: "first attempt", failures: 0, maxAttempts: 3, expectedCalls: 1},
		{description: "third attempt", failures: 2, maxAttempts: 3, expectedCalls: 3},
		{description: "exhausted", failures: 5, maxAttempts: 3, expectErr: true, expectedCalls: 3},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			var calls int32
			out, err := RunWith(context.Background(), Retry(flaky(tc.failures, &calls), MaxAttempts(tc.maxAttempts)), nil)
			assert.Equal(t, tc.expectedCalls, calls)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrRetryExhausted)
				assert.ErrorIs(t, err, errTransient)
				var retryErr *RetryError
				if assert.True(t, errors.As(err, &retryErr)) {
					assert.Equal(t, tc.maxAttempts, retryErr.Info.Attempts)
					assert.Equal(t, RetryStatusFailed, retryErr.Info.Status)
					assert.Len(t, retryErr.Info.Errors, tc.maxAttempts)
				}
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			records, ok := out.GetOrDefault(RetryInfosKey, nil).([]RetryRecord)
			if !assert.True(t, ok) || !assert.Len(t, records, 1) {
				return
			}
			assert.Equal(t, "flaky", records[0].Unit)
			assert.Equal(t, int(tc.expectedCalls), records[0].Info.Attempts)
			assert.Equal(t, RetryStatusSucceeded, records[0].Info.Status)
			assert.Len(t, records[0].Info.Errors, tc.failures)
		})
	}
}

func TestRetry_Options(t *testing.T) {
	t.Run("unmatched failure is not retried", func(t *testing.T) {
		var calls int32
		_, err := RunWith(context.Background(), Retry(flaky(5, &calls), OnErrorIs(errBoom)), nil)
		assert.Equal(t, int32(1), calls)
		assert.Equal(t, errTransient, err)
	})
	t.Run("until predicate", func(t *testing.T) {
		var calls int32
		u := New("poll", func(_ context.Context, in *container.Container) (*container.Container, error) {
			attempt := atomic.AddInt32(&calls, 1)
			return in.Evolve("status", map[bool]string{true: "done", false: "pending"}[attempt >= 2]), nil
		})
		out, err := RunWith(context.Background(), Retry(u, MaxAttempts(5), UntilContains("status", "done", "failed")), nil)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), calls)
		assert.Equal(t, "done", out.GetOrDefault("status", nil))
	})
	t.Run("records accumulate", func(t *testing.T) {
		var calls int32
		out, err := RunWith(context.Background(), Sequence(Retry(flaky(0, &calls)), Retry(flaky(0, &calls))), nil)
		assert.NoError(t, err)
		records, _ := out.GetOrDefault(RetryInfosKey, nil).([]RetryRecord)
		assert.Len(t, records, 2)
	})
	t.Run("delay is interrupted by context", func(t *testing.T) {
		var calls int32
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := RunWith(ctx, Retry(flaky(5, &calls), Delay(time.Hour)), nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, int32(1), calls)
	})
	t.Run("settings defaults", func(t *testing.T) {
		var calls int32
		ctx := WithSettings(context.Background(), &Settings{RetryMaxAttempts: 5})
		_, err := RunWith(ctx, Retry(flaky(4, &calls)), nil)
		assert.NoError(t, err)
		assert.Equal(t, int32(5), calls)
	})
}

func TestHandle(t *testing.T) {
	testCases := []struct {
		description    string
		handlerErr     error
		options        []HandleOption
		expectErr      error
		expectHandled  bool
		expectContinue bool
	}{
		{description: "re-raised by default", expectErr: errBoom, expectHandled: true},
		{description: "suppressed", options: []HandleOption{Suppress()}, expectHandled: true, expectContinue: true},
		{description: "normalized", handlerErr: errTransient, expectErr: errTransient, expectHandled: true},
		{description: "suppressed despite handler error", handlerErr: errTransient, options: []HandleOption{Suppress()}, expectHandled: true, expectContinue: true},
		{description: "not matched", options: []HandleOption{CatchIs(errTransient), Suppress()}, expectErr: errBoom},
		{description: "matched", options: []HandleOption{CatchIs(errTransient, errBoom), Suppress()}, expectHandled: true, expectContinue: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			handled := false
			var handledIn *container.Container
			handler := func(_ context.Context, err error, in *container.Container) error {
				handled = true
				handledIn = in
				assert.ErrorIs(t, err, errBoom)
				return tc.handlerErr
			}
			guarded := Handle(Sequence(evolve("partial", "partial", 1), failing("fail", errBoom)), handler, tc.options...)
			out, err := RunWith(context.Background(), Sequence(evolve("before", "before", 1), guarded, evolve("after", "after", 1)), nil)
			assert.Equal(t, tc.expectHandled, handled)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tc.expectContinue, out.IsIn("after"))
			assert.True(t, out.IsIn("before"))
			assert.False(t, out.IsIn("partial"))
			assert.True(t, handledIn.IsIn("before"))
		})
	}
}

func TestScoped(t *testing.T) {
	testCases := []struct {
		description string
		inner       Unit
		releaseErr  error
		expectErr   []error
	}{
		{description: "success", inner: evolve("use", "used", true)},
		{description: "inner failure", inner: failing("use", errBoom), expectErr: []error{errBoom}},
		{description: "release failure", inner: evolve("use", "used", true), releaseErr: errTransient, expectErr: []error{errTransient}},
		{description: "both fail", inner: failing("use", errBoom), releaseErr: errTransient, expectErr: []error{errBoom, errTransient}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			acquired, released := 0, 0
			resource := func(context.Context, *container.Container) (Release, error) {
				acquired++
				return func(context.Context) error {
					released++
					return tc.releaseErr
				}, nil
			}
			out, err := RunWith(context.Background(), Scoped(resource, tc.inner), nil)
			assert.Equal(t, 1, acquired)
			assert.Equal(t, 1, released)
			if len(tc.expectErr) > 0 {
				for _, expected := range tc.expectErr {
					assert.ErrorIs(t, err, expected)
				}
				return
			}
			assert.NoError(t, err)
			assert.True(t, out.IsIn("used"))
		})
	}
}

func TestIsolate(t *testing.T) {
	out, err := RunWith(context.Background(), Sequence(
		evolve("a", "a", 1),
		Isolate([]Unit{evolve("secret", "secret", 1), Rename("a", "b")}),
		evolve("c", "c", 3),
	), nil)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, map[string]interface{}{"a": 1, "c": 3}, out.AsKeyedMap())
	assert.Equal(t, []string{
		"Sequence_start",
		"a_start", "a_end",
		"Isolate_start", "Sequence_start", "secret_start", "secret_end", "Rename_start", "Rename_end", "Sequence_end", "Isolate_end",
		"c_start", "c_end",
		"Sequence_end",
	}, actions(out))
}

func TestIsolate_Failure(t *testing.T) {
	_, err := RunWith(context.Background(), Isolate([]Unit{failing("fail", errBoom)}), nil)
	assert.ErrorIs(t, err, errBoom)
}

func TestSideEffect_Async(t *testing.T) {
	t.Run("fire and forget", func(t *testing.T) {
		release := make(chan struct{})
		var done int32
		effect := SideEffect("notify", func(context.Context, *container.Container) error {
			<-release
			atomic.StoreInt32(&done, 1)
			return errBoom
		})
		out, err := Start(context.Background(), Sequence(effect, evolve("next", "next", 1)), container.New()).Wait(context.Background())
		if !assert.NoError(t, err) {
			return
		}
		assert.True(t, out.IsIn("next"))
		assert.Equal(t, int32(0), atomic.LoadInt32(&done))
		if !assert.Len(t, out.Futures(), 1) {
			return
		}
		close(release)
		assert.ErrorIs(t, out.Wait(context.Background()), errBoom)
		assert.Equal(t, int32(1), atomic.LoadInt32(&done))
	})
	t.Run("blocking", func(t *testing.T) {
		var done int32
		effect := SideEffect("notify", func(context.Context, *container.Container) error {
			atomic.StoreInt32(&done, 1)
			return nil
		}, Blocking())
		out, err := Start(context.Background(), effect, container.New()).Wait(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, out.Futures())
		assert.Equal(t, int32(1), atomic.LoadInt32(&done))
	})
	t.Run("synchronous run waits", func(t *testing.T) {
		effect := SideEffect("notify", func(context.Context, *container.Container) error { return errBoom })
		_, err := RunWith(context.Background(), effect, nil)
		assert.ErrorIs(t, err, errBoom)
	})
	t.Run("blocking by settings", func(t *testing.T) {
		ctx := WithSettings(context.Background(), &Settings{BlockingSideEffects: true})
		effect := SideEffect("notify", func(context.Context, *container.Container) error { return errBoom })
		_, err := Start(ctx, effect, container.New()).Wait(context.Background())
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestFor(t *testing.T) {
	double := Func1("double", "item", "doubled", func(_ context.Context, item int) (int, error) {
		return item * 2, nil
	})
	evenOnly := New("even", func(_ context.Context, in *container.Container) (*container.Container, error) {
		item, _ := container.Value[int](in, "item")
		if item%2 == 1 {
			return in, nil
		}
		return in.Evolve("even", item), nil
	})
	testCases := []struct {
		description string
		loop        *Loop
		values      map[string]interface{}
		expected    map[string]interface{}
	}{
		{
			description: "aggregate in source order",
			loop:        For("item", FromKey("items"), double).Aggregate("doubled", "results"),
			values:      map[string]interface{}{"items": []int{1, 2, 3}},
			expected:    map[string]interface{}{"items": []int{1, 2, 3}, "results": []interface{}{2, 4, 6}},
		},
		{
			description: "absent values kept",
			loop:        For("item", FromKey("items"), evenOnly).Aggregate("even", "evens"),
			values:      map[string]interface{}{"items": []int{1, 2}},
			expected:    map[string]interface{}{"items": []int{1, 2}, "evens": []interface{}{nil, 2}},
		},
		{
			description: "skip nil",
			loop:        For("item", FromKey("items"), evenOnly).Aggregate("even", "evens").SkipNil(),
			values:      map[string]interface{}{"items": []int{1, 2, 3, 4}},
			expected:    map[string]interface{}{"items": []int{1, 2, 3, 4}, "evens": []interface{}{2, 4}},
		},
		{
			description: "nothing escapes without aggregation",
			loop:        For("item", FromKey("items"), double),
			values:      map[string]interface{}{"items": []int{1}},
			expected:    map[string]interface{}{"items": []int{1}},
		},
		{
			description: "from func",
			loop: For("item", FromFunc(func(context.Context, *container.Container) (interface{}, error) {
				return []int{5}, nil
			}), double).Aggregate("doubled", "results"),
			values:   map[string]interface{}{},
			expected: map[string]interface{}{"results": []interface{}{10}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			out, err := RunWith(context.Background(), tc.loop, tc.values)
			if !assert.NoError(t, err) {
				return
			}
			assert.Equal(t, tc.expected, out.AsKeyedMap())
		})
	}
}

func TestFor_Failure(t *testing.T) {
	_, err := RunWith(context.Background(), For("item", FromKey("items"), failing("fail", errBoom)), map[string]interface{}{"items": []int{1}})
	assert.ErrorIs(t, err, errBoom)
	_, err = RunWith(context.Background(), For("item", FromKey("items")), map[string]interface{}{"items": 1})
	assert.Error(t, err)
}
