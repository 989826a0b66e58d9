package secret

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/runtime/pipeline"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"github.com/viant/toolbox"
)

// TargetRaw reveals secret as plain text
const TargetRaw = "raw"

// Resource locates a secret
type Resource struct {
	URL string `json:"url" yaml:"url"`
	// Target is a credential type, e.g. basic, key, generic; empty or raw means plain text
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	// Key is the encryption key, e.g. blowfish://default
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
}

func (r *Resource) targetType() (reflect.Type, error) {
	if r.Target == "" || r.Target == TargetRaw {
		return nil, nil
	}
	ret, err := cred.TargetType(r.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid target type '%s': %w", r.Target, err)
	}
	return ret, nil
}

// Service reveals and stores secrets for pipelines
type Service struct {
	scyService *scy.Service
}

// New creates a secret service
func New() *Service {
	return &Service{scyService: scy.New()}
}

// Reveal decrypts secret; plain secrets are returned as string, typed ones as map without empty keys
func (s *Service) Reveal(ctx context.Context, resource *Resource) (interface{}, error) {
	targetType, err := resource.targetType()
	if err != nil {
		return nil, err
	}
	var target interface{}
	if targetType != nil {
		target = targetType
	}
	secret, err := s.scyService.Load(ctx, scy.NewResource(target, resource.URL, resource.Key))
	if err != nil {
		return nil, fmt.Errorf("failed to load secret from %s: %w", resource.URL, err)
	}
	if secret.IsPlain || secret.Target == nil {
		return secret.String(), nil
	}
	aMap := map[string]interface{}{}
	if err := toolbox.DefaultConverter.AssignConverted(&aMap, secret.Target); err != nil {
		return nil, fmt.Errorf("failed to convert secret data: %w", err)
	}
	return toolbox.DeleteEmptyKeys(aMap), nil
}

// Store encrypts value under resource; strings are stored as is, other values
// are converted to the resource target type
func (s *Service) Store(ctx context.Context, resource *Resource, value interface{}) error {
	targetType, err := resource.targetType()
	if err != nil {
		return err
	}
	var secret *scy.Secret
	if text, ok := value.(string); ok && targetType == nil {
		secret = scy.NewSecret(text, scy.NewResource(nil, resource.URL, resource.Key))
	} else {
		if targetType == nil {
			return fmt.Errorf("target type is required to store %T", value)
		}
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal secret: %w", err)
		}
		instance := reflect.New(targetType).Interface()
		if err := json.Unmarshal(data, instance); err != nil {
			return fmt.Errorf("failed to unmarshal data to target type %s: %w", resource.Target, err)
		}
		secret = scy.NewSecret(instance, scy.NewResource(targetType, resource.URL, resource.Key))
	}
	if err := s.scyService.Store(ctx, secret); err != nil {
		return fmt.Errorf("failed to store secret at %s: %w", resource.URL, err)
	}
	return nil
}

// Source creates a unit registering revealed secret under key
func (s *Service) Source(key string, resource *Resource, opts ...pipeline.SourceOption) pipeline.Unit {
	return pipeline.Source(key, func(ctx context.Context, _ *container.Container) (interface{}, error) {
		return s.Reveal(ctx, resource)
	}, opts...)
}

// Secure creates a blocking side effect storing the value registered under key
func (s *Service) Secure(key string, resource *Resource) pipeline.Unit {
	return pipeline.SideEffect("Secure("+key+")", func(ctx context.Context, in *container.Container) error {
		value, err := in.Get(key)
		if err != nil {
			return err
		}
		return s.Store(ctx, resource, value)
	}, pipeline.Blocking())
}
