package observer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
)

// Change represents keyed values modified by a unit, rendered as unified diff
type Change struct {
	Unit string
	Diff string
}

// Diff records a unified diff between unit input and output keyed values.
// Composite units and failed invocations are skipped.
type Diff struct {
	Base
	mux     sync.Mutex
	changes []Change
	context int
}

// NewDiff creates a diff observer with number of context lines
func NewDiff(context int) *Diff {
	return &Diff{context: context}
}

func (d *Diff) ShouldRecord(event *Event) bool {
	return !event.System
}

func (d *Diff) OnEnd(_ context.Context, event *Event) {
	if event.Failed() || event.Input == nil || event.Output == nil {
		return
	}
	before := render(event.Input.AsKeyedMap())
	after := render(event.Output.AsKeyedMap())
	if before == after {
		return
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: event.Unit + ".in",
		ToFile:   event.Unit + ".out",
		Context:  d.context,
	})
	if err != nil || text == "" {
		return
	}
	d.mux.Lock()
	d.changes = append(d.changes, Change{Unit: event.Unit, Diff: text})
	d.mux.Unlock()
}

// Changes returns recorded changes
func (d *Diff) Changes() []Change {
	d.mux.Lock()
	defer d.mux.Unlock()
	return append([]Change(nil), d.changes...)
}

func render(values map[string]interface{}) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	builder := strings.Builder{}
	for _, k := range keys {
		builder.WriteString(fmt.Sprintf("%s: %v\n", k, values[k]))
	}
	return builder.String()
}
