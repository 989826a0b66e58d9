package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/observer"
)

var (
	// ErrConditionNotMet is the control signal raised by a failed condition
	ErrConditionNotMet = errors.New("condition not met")
	// ErrNoMatchingBranch is returned by a switch with no matching case and no default
	ErrNoMatchingBranch = errors.New("no matching branch")
	// ErrRetryExhausted is returned when all retry attempts failed
	ErrRetryExhausted = errors.New("retry attempts exhausted")
	// ErrSyncUnsupported is returned when an async only unit is run synchronously
	ErrSyncUnsupported = errors.New("unit does not support synchronous execution")
	// ErrNotConfigured is returned for units missing required configuration
	ErrNotConfigured = errors.New("unit not configured")
)

const (
	notProvided    = "<NOT-PROVIDED>"
	invertedPrefix = "Inverted condition: "
)

// ConditionError represents a failed condition
type ConditionError struct {
	Name     string
	Message  string
	Inverted bool
}

func (e *ConditionError) Error() string {
	prefix := ""
	if e.Inverted {
		prefix = "not "
	}
	return fmt.Sprintf("%s%s failed: %s", prefix, e.Name, e.Message)
}

func (e *ConditionError) Unwrap() error {
	return ErrConditionNotMet
}

// BranchError represents switch exhaustion
type BranchError struct {
	Unit       string
	Conditions []string
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("%v: %v, evaluated: [%v]", e.Unit, ErrNoMatchingBranch, strings.Join(e.Conditions, ", "))
}

func (e *BranchError) Unwrap() error {
	return ErrNoMatchingBranch
}

// RetryError represents retry exhaustion, it unwraps to ErrRetryExhausted and the last failure
type RetryError struct {
	Unit string
	Info *RetryInfo
	Err  error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%v: %v after %v attempts: %v", e.Unit, ErrRetryExhausted, e.Info.Attempts, e.Err)
}

func (e *RetryError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Err}
}

// UnitError decorates a failure with the context of the unit it happened in
type UnitError struct {
	Unit    string
	Context string
	Err     error
}

func (e *UnitError) Error() string {
	return e.Err.Error() + "\n\nUnit context:\n" + e.Context
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

func decorate(name string, params map[string]interface{}, in *container.Container, err error) error {
	var unitErr *UnitError
	if errors.As(err, &unitErr) {
		return err
	}
	return &UnitError{Unit: name, Context: unitContext(name, params, in), Err: err}
}

func unitContext(name string, params map[string]interface{}, in *container.Container) string {
	builder := strings.Builder{}
	builder.WriteString("  unit: " + name + "\n")
	if actions, ok := observer.Find[*observer.ActionsLog](in.Observers()); ok {
		builder.WriteString("  history: " + strings.Join(actions.Entries(), ", ") + "\n")
	}
	builder.WriteString("  data:\n")
	writeSorted(&builder, in.AsKeyedMap())
	if len(params) > 0 {
		builder.WriteString("  params:\n")
		writeSorted(&builder, params)
	}
	return builder.String()
}

func writeSorted(builder *strings.Builder, values map[string]interface{}) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		builder.WriteString(fmt.Sprintf("    %v: %v\n", k, values[k]))
	}
}

// interpolate replaces {key} placeholders with container values
func interpolate(message string, in *container.Container) string {
	if !strings.Contains(message, "{") {
		return message
	}
	builder := strings.Builder{}
	for {
		start := strings.Index(message, "{")
		if start == -1 {
			break
		}
		end := strings.Index(message[start:], "}")
		if end == -1 {
			break
		}
		end += start
		builder.WriteString(message[:start])
		key := message[start+1 : end]
		if value, err := in.Get(key); err == nil {
			builder.WriteString(fmt.Sprintf("%v", value))
		} else {
			builder.WriteString(notProvided)
		}
		message = message[end+1:]
	}
	builder.WriteString(message)
	return builder.String()
}
