package memory

import (
	"context"
	"sort"

	"github.com/viant/conveyor/model/run"
	"github.com/viant/conveyor/service/dao"
	"github.com/viant/conveyor/service/dao/criteria"
	"github.com/viant/conveyor/service/dao/store"
)

// Service keeps run records in memory, callers always get copies
type Service struct {
	*store.MemoryStore[string, run.Run]
}

var _ dao.Service[string, run.Run] = (*Service)(nil)

// List returns matching runs ordered by start time
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*run.Run, error) {
	runs, err := s.MemoryStore.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })
	return runs, nil
}

// New creates a memory run store
func New() *Service {
	return &Service{MemoryStore: store.NewMemoryStore[string, run.Run](
		func(r *run.Run) string { return r.ID },
		store.WithCloner[string, run.Run]((*run.Run).Clone),
		store.WithMatcher[string, run.Run](func(r *run.Run, parameters []*dao.Parameter) bool {
			return criteria.Match(map[string]string{criteria.Status: string(r.Status), criteria.Unit: r.Unit}, parameters)
		}),
	)}
}
