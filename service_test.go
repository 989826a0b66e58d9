package conveyor_test

import (
	"context"
	"embed"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	_ "github.com/viant/afs/embed"
	"github.com/viant/conveyor"
	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/run"
	"github.com/viant/conveyor/model/signature"
	"github.com/viant/conveyor/observer"
	"github.com/viant/conveyor/runtime/binding"
	"github.com/viant/conveyor/runtime/pipeline"
	"github.com/viant/conveyor/service/dao"
	"github.com/viant/conveyor/service/event"
	"github.com/viant/conveyor/tracing"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

//go:embed testdata/*
var embedFS embed.FS

func evolve(name, key string, value interface{}) pipeline.Unit {
	return pipeline.New(name, func(_ context.Context, in *container.Container) (*container.Container, error) {
		return in.Evolve(key, value), nil
	})
}

func newService(t *testing.T, options ...conveyor.Option) *conveyor.Service {
	options = append([]conveyor.Option{
		conveyor.WithMetaFsOptions(&embedFS),
		conveyor.WithMetaBaseURL("embed:///testdata"),
		conveyor.WithUnits(evolve("approve", "approved", true), evolve("decline", "approved", false)),
	}, options...)
	srv, err := conveyor.New(options...)
	assert.NoError(t, err)
	return srv
}

func TestService_LoadPipeline(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()
	aPipeline, err := srv.LoadPipeline(ctx, "approval.yaml")
	if !assert.NoError(t, err) {
		return
	}
	cached, err := srv.LoadPipeline(ctx, "approval.yaml")
	assert.NoError(t, err)
	assert.Same(t, aPipeline, cached)

	testCases := []struct {
		description     string
		amount          int
		expectApproved  bool
		expectExited    bool
		expectedActions []string
	}{
		{
			description:    "approved",
			amount:         80,
			expectApproved: true,
			expectExited:   true,
			expectedActions: []string{
				"approval_start",
				"init_start", "init_end",
				"amount < limit_start", "amount < limit_end",
				"approve_start", "approve_end",
				"Return_start", "Return_end",
				"approval_end",
			},
		},
		{
			description: "declined",
			amount:      120,
			expectedActions: []string{
				"approval_start",
				"init_start", "init_end",
				"amount < limit_start", "amount < limit_end",
				"decline_start", "decline_end",
				"approval_end",
			},
		},
	}
	for _, testCase := range testCases {
		out, err := srv.RunWith(ctx, aPipeline.Unit, map[string]interface{}{"amount": testCase.amount})
		if !assert.NoError(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expectApproved, out.GetOrDefault("approved", nil), testCase.description)
		assert.Equal(t, testCase.expectExited, out.Exited(), testCase.description)
		actions, ok := observer.Find[*observer.ActionsLog](out.Observers())
		if assert.True(t, ok, testCase.description) {
			assert.Equal(t, testCase.expectedActions, filterSystem(actions.Entries()), testCase.description)
		}
	}
}

// filterSystem drops entries of composite units
func filterSystem(entries []string) []string {
	var ret []string
	for _, entry := range entries {
		switch entry {
		case "Sequence_start", "Sequence_end", "IfThen_start", "IfThen_end":
			continue
		}
		ret = append(ret, entry)
	}
	return ret
}

func TestService_UpsertPipeline(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()
	assert.NoError(t, srv.UpsertPipeline("inline", []byte("name: inline\npipeline:\n  - approve\n")))
	aPipeline, err := srv.LoadPipeline(ctx, "inline")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "inline", aPipeline.Name)
	assert.Equal(t, "inline", aPipeline.URL)
	assert.Error(t, srv.UpsertPipeline("broken", []byte("pipeline:\n  - missing\n")))

	assert.NoError(t, srv.UpsertPipeline("inline", nil))
	_, err = srv.LoadPipeline(ctx, "inline")
	assert.Error(t, err)
}

func TestService_RetrySettings(t *testing.T) {
	config := conveyor.DefaultConfig()
	config.Retry.MaxAttempts = 2
	srv := newService(t, conveyor.WithConfig(config))
	errBusy := errors.New("busy")
	attempts := 0
	busy := pipeline.New("busy", func(context.Context, *container.Container) (*container.Container, error) {
		attempts++
		return nil, errBusy
	})
	_, err := srv.RunWith(context.Background(), pipeline.Retry(busy), nil)
	assert.ErrorIs(t, err, pipeline.ErrRetryExhausted)
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 2, attempts)
}

func TestService_Bind(t *testing.T) {
	config := conveyor.DefaultConfig()
	config.StrictBinding = true
	srv := newService(t, conveyor.WithConfig(config))
	params, err := srv.Resolver().Parse("amount[int]")
	if !assert.NoError(t, err) {
		return
	}
	double := func(_ context.Context, values binding.Values) (interface{}, error) {
		amount, err := binding.Get[int](values, "amount")
		return amount * 2, err
	}
	_, err = srv.Bind("double", &binding.Declaration{Params: params, Output: &signature.Signature{Type: reflect.TypeOf(0)}}, double)
	assert.Error(t, err)

	bound, err := srv.Bind("double", &binding.Declaration{Params: params, Output: &signature.Signature{Key: "doubled"}}, double)
	if !assert.NoError(t, err) {
		return
	}
	out, err := srv.RunWith(context.Background(), bound, map[string]interface{}{"amount": 21})
	assert.NoError(t, err)
	assert.Equal(t, 42, out.GetOrDefault("doubled", nil))
}

func TestService_Events(t *testing.T) {
	config := conveyor.DefaultConfig()
	config.Events.Enabled = true
	srv := newService(t, conveyor.WithConfig(config))
	defer srv.Close()

	var mux sync.Mutex
	var names []string
	received := make(chan struct{}, 2)
	assert.NoError(t, event.SetListenerOf[event.Unit](srv.EventService(), func(e *event.Event[event.Unit]) {
		mux.Lock()
		names = append(names, e.Context.EventType+":"+e.Data.Name)
		mux.Unlock()
		received <- struct{}{}
	}))
	_, err := srv.RunWith(context.Background(), evolve("step", "done", true), nil)
	assert.NoError(t, err)
	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			assert.Fail(t, "event not delivered")
			return
		}
	}
	mux.Lock()
	defer mux.Unlock()
	assert.Equal(t, []string{"unit.start:step", "unit.end:step"}, names)
}

func TestService_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider, err := tracing.NewProvider("conveyor", "test", recorder)
	if !assert.NoError(t, err) {
		return
	}
	srv := newService(t,
		conveyor.WithTracing("conveyor", "test", ""),
		conveyor.WithTracingOptions(tracing.WithTracerProvider(provider)),
	)
	_, err = srv.RunWith(context.Background(), pipeline.Named("outer", evolve("inner", "x", 1)), nil)
	assert.NoError(t, err)
	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"inner", "outer"}, names)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		adjust      func(c *conveyor.Config)
		expectErr   bool
	}{
		{description: "default", adjust: func(c *conveyor.Config) {}},
		{description: "negative attempts", adjust: func(c *conveyor.Config) { c.Retry.MaxAttempts = -1 }, expectErr: true},
		{description: "negative delay", adjust: func(c *conveyor.Config) { c.Retry.Delay = -time.Second }, expectErr: true},
		{description: "tracing without name", adjust: func(c *conveyor.Config) {
			c.Tracing.Enabled = true
			c.Tracing.ServiceName = ""
		}, expectErr: true},
		{description: "events without buffer", adjust: func(c *conveyor.Config) {
			c.Events.Enabled = true
			c.Events.QueueBuffer = 0
		}, expectErr: true},
	}
	for _, testCase := range testCases {
		config := conveyor.DefaultConfig()
		testCase.adjust(config)
		err := config.Validate()
		assert.Equal(t, testCase.expectErr, err != nil, testCase.description)
		if testCase.expectErr {
			_, err = conveyor.New(conveyor.WithConfig(config))
			assert.Error(t, err, testCase.description)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("CONVEYOR_TEST_BASE_URL", "mem://localhost/pipelines")
	location, err := filepath.Abs(filepath.Join("testdata", "config.yaml"))
	if !assert.NoError(t, err) {
		return
	}
	config, err := conveyor.LoadConfig(context.Background(), location)
	if !assert.NoError(t, err) {
		return
	}
	assert.True(t, config.VerboseErrors)
	assert.True(t, config.Observers.Timing)
	assert.Equal(t, 2, config.Retry.MaxAttempts)
	assert.Equal(t, time.Millisecond, config.Retry.Delay)
	assert.Equal(t, "mem://localhost/pipelines", config.Meta.BaseURL)
	assert.Equal(t, "conveyor", config.Tracing.ServiceName)
	assert.Equal(t, 100, config.Events.QueueBuffer)
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	failing := pipeline.New("failing", func(context.Context, *container.Container) (*container.Container, error) {
		return nil, errors.New("boom")
	})
	testCases := []struct {
		description string
		url         bool
	}{
		{description: "memory history"},
		{description: "file history", url: true},
	}
	for _, testCase := range testCases {
		config := conveyor.DefaultConfig()
		config.History.Enabled = true
		if testCase.url {
			config.History.URL = filepath.Join(t.TempDir(), "runs")
		}
		srv := newService(t, conveyor.WithConfig(config))
		_, err := srv.RunWith(ctx, evolve("step", "done", true), map[string]interface{}{"amount": "1"})
		assert.NoError(t, err, testCase.description)
		_, err = srv.RunWith(ctx, failing, nil)
		assert.Error(t, err, testCase.description)

		runs, err := srv.History(ctx)
		assert.NoError(t, err, testCase.description)
		if !assert.Len(t, runs, 2, testCase.description) {
			continue
		}
		byUnit := map[string]*run.Run{}
		for _, r := range runs {
			byUnit[r.Unit] = r
		}
		assert.Equal(t, run.StatusCompleted, byUnit["step"].Status, testCase.description)
		assert.Equal(t, true, byUnit["step"].Output["done"], testCase.description)
		assert.Equal(t, []string{"step_start", "step_end"}, byUnit["step"].Actions, testCase.description)
		assert.Equal(t, run.StatusFailed, byUnit["failing"].Status, testCase.description)
		assert.Equal(t, "boom", byUnit["failing"].Error, testCase.description)

		failed, err := srv.History(ctx, dao.NewParameter("Status", "failed"))
		assert.NoError(t, err, testCase.description)
		assert.Len(t, failed, 1, testCase.description)
	}

	srv := newService(t)
	runs, err := srv.History(ctx)
	assert.NoError(t, err)
	assert.Nil(t, runs)
}

func TestService_DefaultObservers(t *testing.T) {
	srv := newService(t)
	c := srv.NewContainer(map[string]interface{}{"amount": 1})
	_, hasActions := observer.Find[*observer.ActionsLog](c.Observers())
	_, hasTiming := observer.Find[*observer.Timing](c.Observers())
	assert.True(t, hasActions)
	assert.True(t, hasTiming)

	fresh := srv.Fresh(c)
	assert.NotEqual(t, c.ExecutionID(), fresh.ExecutionID())
	assert.Equal(t, 1, fresh.GetOrDefault("amount", nil))
	assert.NotSame(t, c.Observers(), fresh.Observers())
	_, hasActions = observer.Find[*observer.ActionsLog](fresh.Observers())
	_, hasTiming = observer.Find[*observer.Timing](fresh.Observers())
	assert.True(t, hasActions)
	assert.True(t, hasTiming)

	config := conveyor.DefaultConfig()
	config.Observers.Timing = false
	srv = newService(t, conveyor.WithConfig(config))
	_, hasTiming = observer.Find[*observer.Timing](srv.NewContainer(nil).Observers())
	assert.False(t, hasTiming)
}
