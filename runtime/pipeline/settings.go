package pipeline

import (
	"context"
	"time"
)

// Settings represents per-run options carried by context
type Settings struct {
	// VerboseErrors decorates failures with unit context (history, data, params)
	VerboseErrors bool
	// BlockingSideEffects makes side-effect units wait under async dispatch
	BlockingSideEffects bool
	// RetryMaxAttempts is used by retry units with no explicit max attempts
	RetryMaxAttempts int
	// RetryDelay is used by retry units with no explicit delay
	RetryDelay time.Duration
}

const defaultMaxAttempts = 3

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithSettings embeds settings in ctx
func WithSettings(ctx context.Context, settings *Settings) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, settings)
}

// SettingsFromContext returns settings embedded in ctx or nil
func SettingsFromContext(ctx context.Context) *Settings {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Settings); ok {
		return v
	}
	return nil
}

func settingsOf(ctx context.Context) *Settings {
	if ret := SettingsFromContext(ctx); ret != nil {
		return ret
	}
	return &Settings{}
}
