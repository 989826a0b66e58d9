package pipeline

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/conveyor/internal/yml"
	"github.com/viant/conveyor/model/container"
	rpipeline "github.com/viant/conveyor/runtime/pipeline"
	"github.com/viant/conveyor/service/meta"
	"gopkg.in/yaml.v3"
)

const defaultRootNodeName = "pipeline"

// Pipeline represents a loaded declarative pipeline
type Pipeline struct {
	Name string
	URL  string
	// Init holds values registered when absent from the input container
	Init map[string]interface{}
	Unit rpipeline.Unit
}

// Service decodes pipeline documents into units
type Service struct {
	metaService  *meta.Service
	registry     *Registry
	rootNodeName string
}

// Registry returns the unit registry
func (s *Service) Registry() *Registry {
	return s.registry
}

// DecodeYAML decodes a pipeline from YAML
func (s *Service) DecodeYAML(encoded []byte) (*Pipeline, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	return s.Parse("", &node)
}

// Load loads a pipeline from YAML at the specified URL, the .yaml extension is optional
func (s *Service) Load(ctx context.Context, URL string) (*Pipeline, error) {
	if path.Ext(url.Path(URL)) == "" {
		URL += ".yaml"
	}
	var node yaml.Node
	if err := s.metaService.Load(ctx, URL, &node); err != nil {
		return nil, fmt.Errorf("failed to load pipeline from %s: %w", URL, err)
	}
	return s.Parse(URL, &node)
}

// Parse builds a pipeline from a decoded document
func (s *Service) Parse(URL string, node *yaml.Node) (*Pipeline, error) {
	ret := &Pipeline{URL: URL, Name: nameFromURL(URL)}
	root := (*yml.Node)(node).Root()
	if !root.IsMapping() {
		return nil, fmt.Errorf("failed to parse pipeline %s: %w: document should be a mapping", URL, ErrInvalidStep)
	}
	var steps []rpipeline.Unit
	err := root.Pairs(func(key string, value *yml.Node) error {
		switch strings.ToLower(key) {
		case "name":
			ret.Name = value.Value
		case "init":
			init, ok := value.Interface().(map[string]interface{})
			if !ok {
				return fmt.Errorf("line %d: %w: init should be a mapping", value.Line, ErrInvalidStep)
			}
			ret.Init = init
		case strings.ToLower(s.rootNodeName):
			var err error
			steps, err = s.parseSteps(value)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse pipeline %s: %w", URL, err)
	}
	if ret.Name == "" {
		ret.Name = "pipeline"
	}
	if len(ret.Init) > 0 {
		steps = append([]rpipeline.Unit{initUnit(ret.Init)}, steps...)
	}
	ret.Unit = rpipeline.Named(ret.Name, steps...)
	return ret, nil
}

func initUnit(values map[string]interface{}) rpipeline.Unit {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return rpipeline.New("init", func(_ context.Context, in *container.Container) (*container.Container, error) {
		out := in
		for _, key := range keys {
			if !out.IsIn(key) {
				out = out.Evolve(key, values[key])
			}
		}
		return out, nil
	}, rpipeline.WithParams(values))
}

func nameFromURL(URL string) string {
	if URL == "" {
		return ""
	}
	base := path.Base(url.Path(URL))
	return strings.TrimSuffix(base, path.Ext(base))
}

// New creates pipeline service
func New(opts ...Option) *Service {
	ret := &Service{rootNodeName: defaultRootNodeName}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.metaService == nil {
		ret.metaService = meta.New(afs.New(), "")
	}
	if ret.registry == nil {
		ret.registry = NewRegistry()
	}
	return ret
}
