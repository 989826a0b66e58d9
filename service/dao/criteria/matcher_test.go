package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/conveyor/service/dao"
)

func TestMatch(t *testing.T) {
	testCases := []struct {
		description string
		fields      map[string]string
		parameters  []*dao.Parameter
		expect      bool
	}{
		{description: "no parameters", fields: map[string]string{Status: "failed"}, expect: true},
		{description: "single value match", fields: map[string]string{Status: "failed"}, parameters: []*dao.Parameter{dao.NewParameter("Status", "failed")}, expect: true},
		{description: "single value mismatch", fields: map[string]string{Status: "completed"}, parameters: []*dao.Parameter{dao.NewParameter("Status", "failed")}, expect: false},
		{description: "multi value match", fields: map[string]string{Status: "exited"}, parameters: []*dao.Parameter{dao.NewParameter("status", "completed", "exited")}, expect: true},
		{description: "all parameters have to match", fields: map[string]string{Status: "failed", Unit: "approval"}, parameters: []*dao.Parameter{dao.NewParameter(Status, "failed"), dao.NewParameter(Unit, "orders")}, expect: false},
		{description: "unknown parameter ignored", fields: map[string]string{Status: "failed"}, parameters: []*dao.Parameter{dao.NewParameter("Owner", "me")}, expect: true},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, Match(testCase.fields, testCase.parameters), testCase.description)
	}
	assert.True(t, FilterByStatus("running", nil))
}
