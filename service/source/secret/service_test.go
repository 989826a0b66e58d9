package secret

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/model/container"
	"github.com/viant/conveyor/runtime/pipeline"
)

func TestService_SecureAndSource(t *testing.T) {
	srv := New()
	resource := &Resource{URL: filepath.Join(t.TempDir(), "token.txt")}
	ctx := context.Background()

	stored, err := pipeline.RunWith(ctx, srv.Secure("token", resource), map[string]interface{}{"token": "s3cret"})
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "s3cret", stored.GetOrDefault("token", nil))

	out, err := pipeline.Run(ctx, srv.Source("revealed", resource), container.New())
	if !assert.NoError(t, err) {
		return
	}
	revealed, ok := out.GetOrDefault("revealed", nil).(string)
	assert.True(t, ok)
	assert.Contains(t, revealed, "s3cret")

	skipped, err := pipeline.RunWith(ctx, srv.Source("revealed", resource, pipeline.SkipIfPresent()), map[string]interface{}{"revealed": "cached"})
	assert.NoError(t, err)
	assert.Equal(t, "cached", skipped.GetOrDefault("revealed", nil))
}

func TestService_Errors(t *testing.T) {
	srv := New()
	ctx := context.Background()
	testCases := []struct {
		description string
		run         func() error
	}{
		{description: "missing secret", run: func() error {
			_, err := srv.Reveal(ctx, &Resource{URL: filepath.Join(t.TempDir(), "missing.json")})
			return err
		}},
		{description: "typed value without target", run: func() error {
			return srv.Store(ctx, &Resource{URL: filepath.Join(t.TempDir(), "x.json")}, map[string]interface{}{"a": 1})
		}},
	}
	for _, testCase := range testCases {
		assert.Error(t, testCase.run(), testCase.description)
	}
}
