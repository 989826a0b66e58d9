package observer

import (
	"context"
	"strings"
)

// Filter restricts an observer to units selected by allow/block lists.
// Both lists match unit names case-insensitively; BlockList has priority and
// an empty AllowList allows every unit.
type Filter struct {
	Observer
	AllowList   []string
	BlockList   []string
	SkipSystems bool
}

// NewFilter wraps observer
func NewFilter(observer Observer, allow, block []string) *Filter {
	return &Filter{Observer: observer, AllowList: allow, BlockList: block}
}

// IsAllowed evaluates allow and block lists for unit name
func (f *Filter) IsAllowed(unit string) bool {
	normalized := strings.ToLower(unit)
	for _, b := range f.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	if len(f.AllowList) == 0 {
		return true
	}
	for _, a := range f.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

func (f *Filter) ShouldRecord(event *Event) bool {
	if f.SkipSystems && event.System {
		return false
	}
	return f.IsAllowed(event.Unit) && f.Observer.ShouldRecord(event)
}

func (f *Filter) OnStart(ctx context.Context, event *Event) { f.Observer.OnStart(ctx, event) }

func (f *Filter) OnEnd(ctx context.Context, event *Event) { f.Observer.OnEnd(ctx, event) }
