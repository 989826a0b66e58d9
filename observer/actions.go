package observer

import (
	"context"
	"sync"
)

const (
	startSuffix = "_start"
	endSuffix   = "_end"
)

// ActionsLog keeps ordered unit start/end records
type ActionsLog struct {
	Base
	mux     sync.Mutex
	entries []string
}

// NewActionsLog creates an empty actions log
func NewActionsLog() *ActionsLog {
	return &ActionsLog{}
}

func (l *ActionsLog) OnStart(_ context.Context, event *Event) {
	l.append(event.Unit + startSuffix)
}

func (l *ActionsLog) OnEnd(_ context.Context, event *Event) {
	l.append(event.Unit + endSuffix)
}

func (l *ActionsLog) append(entry string) {
	l.mux.Lock()
	l.entries = append(l.entries, entry)
	l.mux.Unlock()
}

// Entries returns a copy of recorded entries
func (l *ActionsLog) Entries() []string {
	l.mux.Lock()
	defer l.mux.Unlock()
	return append([]string(nil), l.entries...)
}

// Len returns number of recorded entries
func (l *ActionsLog) Len() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.entries)
}
