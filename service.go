package conveyor

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/run"
	"github.com/viant/conveyor/observer"
	"github.com/viant/conveyor/runtime/binding"
	"github.com/viant/conveyor/runtime/pipeline"
	"github.com/viant/conveyor/service/dao"
	dpipeline "github.com/viant/conveyor/service/dao/pipeline"
	"github.com/viant/conveyor/service/event"
	"github.com/viant/conveyor/service/messaging"
	"github.com/viant/conveyor/service/messaging/memory"
	"github.com/viant/conveyor/service/meta"
	"github.com/viant/conveyor/tracing"
	"github.com/viant/x"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Service is the runtime façade: it creates containers with configured
// observers, runs units with configured settings and loads pipelines
type Service struct {
	config          *Config
	metaService     *meta.Service
	metaBaseURL     string
	metaFsOptions   []storage.Option
	pipelineService *dpipeline.Service
	resolver        *binding.Resolver
	types           []*x.Type
	units           []pipeline.Unit
	observers       []observer.Observer
	eventService    *event.Service
	ownEvents       bool
	tracing         *TracingConfig
	tracingExporter sdktrace.SpanExporter
	tracingOptions  []tracing.Option
	runs            dao.Service[string, run.Run]
	mux             sync.RWMutex
	pipelines       map[string]*dpipeline.Pipeline
}

// New creates a service
func New(options ...Option) (*Service, error) {
	ret := &Service{pipelines: map[string]*dpipeline.Pipeline{}}
	for _, option := range options {
		option(ret)
	}
	if ret.config == nil {
		ret.config = DefaultConfig()
	}
	if ret.tracing != nil {
		ret.config.Tracing = *ret.tracing
	}
	if err := ret.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if s.metaService == nil {
		baseURL := s.metaBaseURL
		if baseURL == "" {
			baseURL = s.config.Meta.BaseURL
		}
		s.metaService = meta.New(afs.New(), baseURL, s.metaFsOptions...)
	}
	types := binding.NewTypes()
	for _, aType := range s.types {
		types.Register(aType)
	}
	s.resolver = binding.New(binding.WithTypes(types), binding.WithStrict(s.config.StrictBinding))
	s.pipelineService = dpipeline.New(
		dpipeline.WithMetaService(s.metaService),
		dpipeline.WithRegistry(dpipeline.NewRegistry(s.units...)),
	)
	if err := s.initTracing(); err != nil {
		return err
	}
	if err := s.initHistory(context.Background()); err != nil {
		return err
	}
	return s.initEvents()
}

func (s *Service) initTracing() error {
	config := s.config.Tracing
	if !config.Enabled {
		return nil
	}
	var err error
	if s.tracingExporter != nil {
		err = tracing.InitWithExporter(config.ServiceName, config.ServiceVersion, s.tracingExporter)
	} else if len(s.tracingOptions) == 0 {
		err = tracing.Init(config.ServiceName, config.ServiceVersion, config.OutputFile)
	}
	if err != nil {
		return fmt.Errorf("failed to initialise tracing: %w", err)
	}
	options := s.tracingOptions
	if config.SkipSystemUnits {
		options = append(options, tracing.WithoutSystemUnits())
	}
	s.observers = append(s.observers, tracing.NewObserver(options...))
	return nil
}

func (s *Service) initEvents() error {
	config := s.config.Events
	if s.eventService == nil && !config.Enabled {
		return nil
	}
	if s.eventService == nil {
		var err error
		s.eventService, err = event.New(messaging.VendorMemory, event.WithNewMemoryQueueConfig(func(string) memory.Config {
			ret := memory.DefaultConfig()
			ret.QueueBuffer = config.QueueBuffer
			ret.NonBlocking = true
			return ret
		}))
		if err != nil {
			return fmt.Errorf("failed to create event service: %w", err)
		}
		s.ownEvents = true
	}
	var options []event.ObserverOption
	if config.WithValues {
		options = append(options, event.WithValues())
	}
	eventObserver, err := event.NewObserver(s.eventService, options...)
	if err != nil {
		return fmt.Errorf("failed to create event observer: %w", err)
	}
	s.observers = append(s.observers, eventObserver)
	return nil
}

// Config returns the configuration
func (s *Service) Config() *Config {
	return s.config
}

// EventService returns event service or nil when events are disabled
func (s *Service) EventService() *event.Service {
	return s.eventService
}

// Resolver returns binding resolver configured with registered types
func (s *Service) Resolver() *binding.Resolver {
	return s.resolver
}

// Register registers units referenced by name from pipeline documents loaded afterwards
func (s *Service) Register(units ...pipeline.Unit) {
	s.pipelineService.Registry().Register(units...)
}

// Bind creates a bound unit resolved with the service resolver
func (s *Service) Bind(name string, declaration *binding.Declaration, fn pipeline.BoundFunc, overrides ...binding.Override) (*pipeline.Bound, error) {
	return pipeline.Bind(name, declaration, fn, pipeline.WithResolver(s.resolver), pipeline.WithOverrides(overrides...))
}

// NewContainer creates a container with values and a fresh observer registry:
// per-run observers selected by the configuration plus the shared ones
func (s *Service) NewContainer(values map[string]interface{}) *container.Container {
	return container.FromMap(values, container.WithObservers(s.newObservers()...))
}

// Fresh returns a copy of c with the same entries and a new execution lineage
// observed like containers created with NewContainer
func (s *Service) Fresh(c *container.Container) *container.Container {
	return c.WithNewExecutionMeta(container.WithObservers(s.newObservers()...))
}

func (s *Service) newObservers() []observer.Observer {
	config := s.config.Observers
	var ret []observer.Observer
	if config.ActionsLog {
		ret = append(ret, observer.NewActionsLog())
	}
	if config.Timing {
		ret = append(ret, observer.NewTiming())
	}
	if config.Diff {
		ret = append(ret, observer.NewDiff(config.DiffContext))
	}
	if config.Progress {
		ret = append(ret, observer.NewProgress())
	}
	return append(ret, s.observers...)
}

func (s *Service) context(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if pipeline.SettingsFromContext(ctx) != nil {
		return ctx
	}
	return pipeline.WithSettings(ctx, s.config.Settings())
}

// Run runs unit synchronously, the run is recorded when history is enabled
func (s *Service) Run(ctx context.Context, u pipeline.Unit, in *container.Container) (*container.Container, error) {
	ctx = s.context(ctx)
	aRun := s.recordStart(ctx, u, in)
	out, err := pipeline.Run(ctx, u, in)
	s.recordEnd(ctx, aRun, in, out, err)
	return out, err
}

// RunWith runs unit synchronously with a new container holding values
func (s *Service) RunWith(ctx context.Context, u pipeline.Unit, values map[string]interface{}) (*container.Container, error) {
	return s.Run(ctx, u, s.NewContainer(values))
}

// Start runs unit under async dispatch
func (s *Service) Start(ctx context.Context, u pipeline.Unit, in *container.Container) *pipeline.Future {
	ctx = s.context(ctx)
	aRun := s.recordStart(ctx, u, in)
	future := pipeline.Start(ctx, u, in)
	if aRun != nil {
		go func() {
			<-future.Done()
			out, err := future.Wait(context.WithoutCancel(ctx))
			s.recordEnd(ctx, aRun, in, out, err)
		}()
	}
	return future
}

// Close releases event listeners owned by the service
func (s *Service) Close() {
	if s.ownEvents && s.eventService != nil {
		s.eventService.Close()
	}
}
