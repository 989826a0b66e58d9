package conveyor

import (
	"context"
	"fmt"

	dpipeline "github.com/viant/conveyor/service/dao/pipeline"
)

// LoadPipeline loads a pipeline document; documents are cached by location
// until RefreshPipeline is called
func (s *Service) LoadPipeline(ctx context.Context, location string) (*dpipeline.Pipeline, error) {
	s.mux.RLock()
	ret, ok := s.pipelines[location]
	s.mux.RUnlock()
	if ok {
		return ret, nil
	}
	ret, err := s.pipelineService.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	s.mux.Lock()
	s.pipelines[location] = ret
	s.mux.Unlock()
	return ret, nil
}

// DecodePipeline decodes a pipeline from YAML without caching it
func (s *Service) DecodePipeline(data []byte) (*dpipeline.Pipeline, error) {
	return s.pipelineService.DecodeYAML(data)
}

// RefreshPipeline discards cached pipeline, the next LoadPipeline reloads it
func (s *Service) RefreshPipeline(location string) {
	s.mux.Lock()
	delete(s.pipelines, location)
	s.mux.Unlock()
}

// UpsertPipeline decodes data and caches the pipeline under location. When
// data is nil the call falls back to RefreshPipeline.
func (s *Service) UpsertPipeline(location string, data []byte) error {
	if data == nil {
		s.RefreshPipeline(location)
		return nil
	}
	ret, err := s.pipelineService.DecodeYAML(data)
	if err != nil {
		return fmt.Errorf("failed to decode pipeline YAML: %w", err)
	}
	ret.URL = location
	s.mux.Lock()
	s.pipelines[location] = ret
	s.mux.Unlock()
	return nil
}
