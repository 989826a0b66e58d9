package pipeline

import "github.com/viant/conveyor/service/meta"

// Option customises pipeline service
type Option func(s *Service)

// WithMetaService sets the meta service used to load documents
func WithMetaService(meta *meta.Service) Option {
	return func(s *Service) {
		s.metaService = meta
	}
}

// WithRegistry sets the unit registry
func WithRegistry(registry *Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithRootNodeName sets the name of the document node holding steps
func WithRootNodeName(name string) Option {
	return func(s *Service) {
		s.rootNodeName = name
	}
}
