package conveyor

import (
	"github.com/viant/afs/storage"
	"github.com/viant/conveyor/model/run"
	"github.com/viant/conveyor/observer"
	"github.com/viant/conveyor/runtime/pipeline"
	"github.com/viant/conveyor/service/dao"
	"github.com/viant/conveyor/service/event"
	"github.com/viant/conveyor/service/meta"
	"github.com/viant/conveyor/tracing"
	"github.com/viant/x"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises Service
type Option func(s *Service)

// WithConfig sets the configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithObservers adds observers shared by every container created by the
// service; per-run observers selected by Config.Observers are kept
func WithObservers(observers ...observer.Observer) Option {
	return func(s *Service) {
		s.observers = append(s.observers, observers...)
	}
}

// WithUnits registers units referenced by name from pipeline documents
func WithUnits(units ...pipeline.Unit) Option {
	return func(s *Service) {
		s.units = append(s.units, units...)
	}
}

// WithTypes registers types available to binding declarations
func WithTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.types = append(s.types, types...)
	}
}

// WithEventService publishes unit notifications through service
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.eventService = service
	}
}

// WithMetaService sets the meta service
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) {
		s.metaService = service
	}
}

// WithMetaBaseURL sets the meta base URL
func WithMetaBaseURL(URL string) Option {
	return func(s *Service) {
		s.metaBaseURL = URL
	}
}

// WithMetaFsOptions with meta file system options
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) {
		s.metaFsOptions = options
	}
}

// WithTracing enables the tracing observer with the stdout exporter. If
// outputFile is empty traces are written to stdout. The first successful
// initialisation of the global provider wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.tracing = &TracingConfig{Enabled: true, ServiceName: serviceName, ServiceVersion: serviceVersion, OutputFile: outputFile}
	}
}

// WithTracingExporter enables the tracing observer with a custom exporter (OTLP, Jaeger, Zipkin...)
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.tracing = &TracingConfig{Enabled: true, ServiceName: serviceName, ServiceVersion: serviceVersion}
		s.tracingExporter = exporter
	}
}

// WithTracingOptions customises the tracing observer, e.g. with a tracer provider
func WithTracingOptions(options ...tracing.Option) Option {
	return func(s *Service) {
		s.tracingOptions = append(s.tracingOptions, options...)
	}
}

// WithRunStore records every run started by the service in store
func WithRunStore(store dao.Service[string, run.Run]) Option {
	return func(s *Service) {
		s.runs = store
	}
}
