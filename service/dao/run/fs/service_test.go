package fs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/model/run"
	"github.com/viant/conveyor/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv, err := New(ctx, filepath.Join(t.TempDir(), "runs"))
	if !assert.Nil(t, err) {
		return
	}
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ended := started.Add(time.Second)
	first := &run.Run{ID: "1", Unit: "approval", Status: run.StatusCompleted, StartedAt: started, EndedAt: &ended,
		Input: map[string]interface{}{"amount": "80"}, Output: map[string]interface{}{"approved": true}, Actions: []string{"approve"}}
	second := &run.Run{ID: "2", Unit: "approval", Status: run.StatusFailed, Error: "boom", StartedAt: started.Add(time.Minute)}
	assert.Nil(t, srv.Save(ctx, second))
	assert.Nil(t, srv.Save(ctx, first))

	loaded, err := srv.Load(ctx, "1")
	assert.Nil(t, err)
	assert.Equal(t, first.Output, loaded.Output)
	assert.Equal(t, first.Actions, loaded.Actions)
	assert.True(t, first.EndedAt.Equal(*loaded.EndedAt))

	runs, err := srv.List(ctx)
	assert.Nil(t, err)
	if assert.Len(t, runs, 2) {
		assert.Equal(t, "1", runs[0].ID)
		assert.Equal(t, "2", runs[1].ID)
	}
	failed, err := srv.List(ctx, dao.NewParameter("Status", "failed"))
	assert.Nil(t, err)
	if assert.Len(t, failed, 1) {
		assert.Equal(t, "boom", failed[0].Error)
	}

	assert.Nil(t, srv.Delete(ctx, "2"))
	_, err = srv.Load(ctx, "2")
	assert.True(t, errors.Is(err, dao.ErrNotFound))
	assert.True(t, errors.Is(srv.Delete(ctx, "2"), dao.ErrNotFound))
	assert.True(t, errors.Is(srv.Save(ctx, nil), dao.ErrNilEntity))
	_, err = New(ctx, "")
	assert.NotNil(t, err)
}
