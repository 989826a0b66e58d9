package conveyor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/conveyor/runtime/pipeline"
	"github.com/viant/conveyor/service/meta"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from YAML or JSON; DefaultConfig holds the defaults.
type Config struct {
	// VerboseErrors decorates failures with unit context
	VerboseErrors bool `json:"verboseErrors" yaml:"verboseErrors"`
	// StrictBinding rejects bound units declaring an output without a key
	StrictBinding bool              `json:"strictBinding" yaml:"strictBinding"`
	Observers     ObserversConfig   `json:"observers" yaml:"observers"`
	SideEffects   SideEffectsConfig `json:"sideEffects" yaml:"sideEffects"`
	Retry         RetryConfig       `json:"retry" yaml:"retry"`
	Tracing       TracingConfig     `json:"tracing" yaml:"tracing"`
	Events        EventsConfig      `json:"events" yaml:"events"`
	Meta          MetaConfig        `json:"meta" yaml:"meta"`
	History       HistoryConfig     `json:"history" yaml:"history"`
}

// ObserversConfig selects per-run observers attached to new containers
type ObserversConfig struct {
	ActionsLog bool `json:"actionsLog" yaml:"actionsLog"`
	Timing     bool `json:"timing" yaml:"timing"`
	Diff       bool `json:"diff" yaml:"diff"`
	// DiffContext is the number of context lines of diff entries
	DiffContext int  `json:"diffContext" yaml:"diffContext"`
	Progress    bool `json:"progress" yaml:"progress"`
}

type SideEffectsConfig struct {
	// Blocking makes every side effect wait under async dispatch
	Blocking bool `json:"blocking" yaml:"blocking"`
}

type RetryConfig struct {
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
	Delay       time.Duration `json:"delay" yaml:"delay"`
}

type TracingConfig struct {
	Enabled         bool   `json:"enabled" yaml:"enabled"`
	ServiceName     string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion  string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile      string `json:"outputFile" yaml:"outputFile"`
	SkipSystemUnits bool   `json:"skipSystemUnits" yaml:"skipSystemUnits"`
}

type EventsConfig struct {
	Enabled     bool `json:"enabled" yaml:"enabled"`
	QueueBuffer int  `json:"queueBuffer" yaml:"queueBuffer"`
	// WithValues includes container values in published events
	WithValues bool `json:"withValues" yaml:"withValues"`
}

type MetaConfig struct {
	// BaseURL resolves relative pipeline locations
	BaseURL string `json:"baseURL" yaml:"baseURL"`
}

type HistoryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// URL of a directory holding run records, memory is used when empty
	URL string `json:"url" yaml:"url"`
}

// DefaultConfig returns a Config populated with default values. Callers may
// modify the returned struct before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Observers: ObserversConfig{ActionsLog: true, Timing: true, DiffContext: 1},
		Retry:     RetryConfig{MaxAttempts: 3},
		Tracing:   TracingConfig{ServiceName: "conveyor"},
		Events:    EventsConfig{QueueBuffer: 100},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry.maxAttempts must be >= 0"))
	}
	if c.Retry.Delay < 0 {
		errs = append(errs, fmt.Errorf("retry.delay must be >= 0"))
	}
	if c.Observers.DiffContext < 0 {
		errs = append(errs, fmt.Errorf("observers.diffContext must be >= 0"))
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		errs = append(errs, fmt.Errorf("tracing.serviceName is required when tracing is enabled"))
	}
	if c.Events.Enabled && c.Events.QueueBuffer <= 0 {
		errs = append(errs, fmt.Errorf("events.queueBuffer must be > 0"))
	}
	return errors.Join(errs...)
}

// Settings returns per-run settings derived from the configuration
func (c *Config) Settings() *pipeline.Settings {
	return &pipeline.Settings{
		VerboseErrors:       c.VerboseErrors,
		BlockingSideEffects: c.SideEffects.Blocking,
		RetryMaxAttempts:    c.Retry.MaxAttempts,
		RetryDelay:          c.Retry.Delay,
	}
}

// LoadConfig loads a YAML or JSON configuration over the defaults and validates it
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if err := meta.New(afs.New(), "").Load(ctx, URL, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
