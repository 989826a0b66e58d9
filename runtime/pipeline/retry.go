package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/conveyor/internal/clock"
	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/runtime/evaluator"
)

// RetryInfosKey is the key retry records are appended under
const RetryInfosKey = "retry_infos"

// Retry statuses
const (
	RetryStatusSucceeded = "succeeded"
	RetryStatusFailed    = "failed"
)

// RetryInfo describes retry attempts of one unit invocation
type RetryInfo struct {
	MaxAttempts int
	Delay       time.Duration
	Attempts    int
	Status      string
	Errors      []string
	Started     time.Time
	Finished    time.Time
}

// RetryRecord represents retry info of a unit
type RetryRecord struct {
	Unit string
	Info *RetryInfo
}

// RetryUnit re-invokes the wrapped unit until it succeeds or attempts are exhausted
type RetryUnit struct {
	*unit
	inner       Unit
	maxAttempts int
	delay       *time.Duration
	matchers    []func(err error) bool
	untilKey    string
	until       func(value interface{}) bool
}

// RetryOption customises retry unit
type RetryOption func(r *RetryUnit)

// MaxAttempts sets maximum number of invocations
func MaxAttempts(n int) RetryOption {
	return func(r *RetryUnit) { r.maxAttempts = n }
}

// Delay sets fixed delay between attempts
func Delay(d time.Duration) RetryOption {
	return func(r *RetryUnit) { r.delay = &d }
}

// OnError retries only failures matched by fn
func OnError(fn func(err error) bool) RetryOption {
	return func(r *RetryUnit) { r.matchers = append(r.matchers, fn) }
}

// OnErrorIs retries only failures matching any target with errors.Is
func OnErrorIs(targets ...error) RetryOption {
	return OnError(func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	})
}

// Until retries while predicate over the value registered under key does not hold
func Until(key string, predicate func(value interface{}) bool) RetryOption {
	return func(r *RetryUnit) { r.untilKey, r.until = key, predicate }
}

// UntilTrue retries until value under key is true
func UntilTrue(key string) RetryOption {
	return UntilEquals(key, true)
}

// UntilEquals retries until value under key equals expected
func UntilEquals(key string, expected interface{}) RetryOption {
	return Until(key, func(value interface{}) bool { return evaluator.Equal(value, expected) })
}

// UntilContains retries until value under key is one of values
func UntilContains(key string, values ...interface{}) RetryOption {
	return Until(key, func(value interface{}) bool {
		for _, candidate := range values {
			if evaluator.Equal(value, candidate) {
				return true
			}
		}
		return false
	})
}

// Retry wraps unit with retries; the delay suspends only the goroutine running the retry
func Retry(u Unit, opts ...RetryOption) *RetryUnit {
	ret := &RetryUnit{inner: u}
	for _, opt := range opts {
		opt(ret)
	}
	ret.unit = &unit{name: "Retry", body: ret.run}
	return ret
}

func (r *RetryUnit) config(ctx context.Context) (int, time.Duration) {
	settings := settingsOf(ctx)
	maxAttempts := r.maxAttempts
	if maxAttempts <= 0 {
		maxAttempts = settings.RetryMaxAttempts
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	delay := settings.RetryDelay
	if r.delay != nil {
		delay = *r.delay
	}
	return maxAttempts, delay
}

func (r *RetryUnit) run(ctx context.Context, in *container.Container) (*container.Container, error) {
	maxAttempts, delay := r.config(ctx)
	info := &RetryInfo{MaxAttempts: maxAttempts, Delay: delay, Started: clock.Now()}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		info.Attempts = attempt
		result, err := invoke(ctx, r.inner, in)
		if err == nil {
			if err = r.checkUntil(result.Container); err == nil {
				info.Status = RetryStatusSucceeded
				info.Finished = clock.Now()
				return recordRetry(result.Container, r.inner.Name(), info), nil
			}
		} else if !r.shouldRetry(err) {
			return nil, err
		}
		lastErr = err
		info.Errors = append(info.Errors, err.Error())
		if attempt < maxAttempts {
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}
	info.Status = RetryStatusFailed
	info.Finished = clock.Now()
	return nil, &RetryError{Unit: r.inner.Name(), Info: info, Err: lastErr}
}

func (r *RetryUnit) checkUntil(out *container.Container) error {
	if r.until == nil {
		return nil
	}
	value, err := out.Get(r.untilKey)
	if err == nil && r.until(value) {
		return nil
	}
	return fmt.Errorf("retry predicate not met: %v=%v", r.untilKey, valueOrNotProvided(value, err))
}

func valueOrNotProvided(value interface{}, err error) interface{} {
	if err != nil {
		return notProvided
	}
	return value
}

func (r *RetryUnit) shouldRetry(err error) bool {
	if len(r.matchers) == 0 {
		return true
	}
	for _, matcher := range r.matchers {
		if matcher(err) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recordRetry(out *container.Container, unitName string, info *RetryInfo) *container.Container {
	var records []RetryRecord
	if value, err := out.Get(RetryInfosKey); err == nil {
		if existing, ok := value.([]RetryRecord); ok {
			records = append(records, existing...)
		}
	}
	records = append(records, RetryRecord{Unit: unitName, Info: info})
	return out.Evolve(RetryInfosKey, records)
}
