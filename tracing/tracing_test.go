package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/runtime/pipeline"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")
	if !assert.Nil(t, Init("conveyor", "0.0.1", fname)) {
		return
	}
	_, span := StartSpan(context.Background(), "test", "INTERNAL")
	span.WithAttributes(map[string]string{"k": "v"})
	EndSpan(span, nil)

	data, err := os.ReadFile(fname)
	assert.Nil(t, err)
	assert.NotEmpty(t, data)
}

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	provider, err := NewProvider("conveyor", "test", recorder)
	assert.Nil(t, err)
	return recorder, provider
}

func step(name string, err error) pipeline.Unit {
	return pipeline.New(name, func(_ context.Context, in *container.Container) (*container.Container, error) {
		if err != nil {
			return nil, err
		}
		return in.Evolve(name, true), nil
	})
}

func TestObserver(t *testing.T) {
	errBoom := errors.New("boom")
	testCases := []struct {
		description   string
		unit          pipeline.Unit
		options       []Option
		expectedSpans []string
		expectedRoot  string
		expectError   bool
	}{
		{
			description:   "nested spans",
			unit:          pipeline.Named("checkout", step("reserve", nil), step("charge", nil)),
			expectedSpans: []string{"reserve", "charge", "checkout"},
			expectedRoot:  "checkout",
		},
		{
			description:   "system units skipped",
			unit:          pipeline.Sequence(step("reserve", nil), step("charge", nil)),
			options:       []Option{WithoutSystemUnits()},
			expectedSpans: []string{"reserve", "charge"},
		},
		{
			description:   "failure recorded",
			unit:          pipeline.Named("checkout", step("reserve", nil), step("charge", errBoom)),
			expectedSpans: []string{"reserve", "charge", "checkout"},
			expectedRoot:  "checkout",
			expectError:   true,
		},
	}

	for _, testCase := range testCases {
		recorder, provider := newRecorder(t)
		tracer := NewObserver(append(testCase.options, WithTracerProvider(provider))...)
		_, err := pipeline.Run(context.Background(), testCase.unit, container.New(container.WithObservers(tracer)))
		assert.Equal(t, testCase.expectError, err != nil, testCase.description)
		assert.Equal(t, 0, tracer.Active(), testCase.description)

		ended := recorder.Ended()
		var names []string
		byName := map[string]sdktrace.ReadOnlySpan{}
		for _, span := range ended {
			names = append(names, span.Name())
			byName[span.Name()] = span
		}
		assert.Equal(t, testCase.expectedSpans, names, testCase.description)
		if testCase.expectedRoot != "" {
			root := byName[testCase.expectedRoot]
			for _, span := range ended {
				if span.Name() == testCase.expectedRoot {
					continue
				}
				assert.Equal(t, root.SpanContext().SpanID(), span.Parent().SpanID(), testCase.description)
			}
		}
		if testCase.expectError {
			assert.Equal(t, codes.Error, byName["charge"].Status().Code, testCase.description)
			assert.Equal(t, codes.Ok, byName["reserve"].Status().Code, testCase.description)
		}
	}
}
