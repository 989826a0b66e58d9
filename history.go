package conveyor

import (
	"context"
	"fmt"
	"log"

	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/model/run"
	"github.com/viant/conveyor/observer"
	"github.com/viant/conveyor/runtime/pipeline"
	"github.com/viant/conveyor/service/dao"
	"github.com/viant/conveyor/service/dao/run/fs"
	"github.com/viant/conveyor/service/dao/run/memory"
)

func (s *Service) initHistory(ctx context.Context) error {
	config := s.config.History
	if s.runs != nil || !config.Enabled {
		return nil
	}
	if config.URL == "" {
		s.runs = memory.New()
		return nil
	}
	store, err := fs.New(ctx, config.URL)
	if err != nil {
		return fmt.Errorf("failed to create run history: %w", err)
	}
	s.runs = store
	return nil
}

// Runs returns run history store or nil when history is disabled
func (s *Service) Runs() dao.Service[string, run.Run] {
	return s.runs
}

// History lists recorded runs, parameters narrow by Status or Unit
func (s *Service) History(ctx context.Context, parameters ...*dao.Parameter) ([]*run.Run, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.List(ctx, parameters...)
}

// recordStart saves a running record, history failures never fail the pipeline
func (s *Service) recordStart(ctx context.Context, u pipeline.Unit, in *container.Container) *run.Run {
	if s.runs == nil || in == nil {
		return nil
	}
	ret := run.New(in.ExecutionID(), u.Name(), in.AsKeyedMap())
	if err := s.runs.Save(ctx, ret); err != nil {
		log.Printf("conveyor: failed to record run %v: %v", ret.ID, err)
	}
	return ret
}

func (s *Service) recordEnd(ctx context.Context, aRun *run.Run, in, out *container.Container, err error) {
	if aRun == nil {
		return
	}
	var output map[string]interface{}
	exited := false
	if out != nil {
		output = out.AsKeyedMap()
		exited = out.Exited()
	}
	aRun.Finish(output, exited, err)
	if actions, ok := observer.Find[*observer.ActionsLog](in.Observers()); ok {
		aRun.Actions = actions.Entries()
	}
	if err := s.runs.Save(context.WithoutCancel(ctx), aRun); err != nil {
		log.Printf("conveyor: failed to record run %v: %v", aRun.ID, err)
	}
}
