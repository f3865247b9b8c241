package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"open_app", OpenApp},
		{"  OPEN_APP ", OpenApp},
		{"search_web", WebSearch},
		{"lock_computer", LockScreen},
		{"lock_pc", LockScreen},
		{"open_apps_scheduled", ScheduleApp},
		{"Open App", OpenApp},
		{"something_new", "something_new"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.in))
		})
	}
}

func TestAliasesTargetDescribedActions(t *testing.T) {
	known := make(map[string]bool, len(Describe))
	for _, d := range Describe {
		assert.False(t, known[d.Action], "duplicate action %q", d.Action)
		known[d.Action] = true
	}
	for alias, target := range aliases {
		assert.True(t, known[target], "alias %q points at undescribed action %q", alias, target)
		assert.False(t, known[alias], "alias %q shadows a canonical action", alias)
	}
}

func TestErrorf(t *testing.T) {
	cmd := Errorf(errors.New("connection refused"), "AI request failed")
	assert.True(t, cmd.IsError())
	assert.Equal(t, "AI request failed", cmd.Description)
	assert.Equal(t, "connection refused", cmd.Parameters.String("error"))

	cmd = Errorf(nil, "no action in reply")
	assert.NotContains(t, cmd.Parameters, "error")
}

func TestParamsString(t *testing.T) {
	p := Params{"name": "chrome", "count": 3.0, "nil": nil}
	assert.Equal(t, "chrome", p.String("name"))
	assert.Equal(t, "3", p.String("count"))
	assert.Equal(t, "", p.String("nil"))
	assert.Equal(t, "", p.String("missing"))
}

func TestResultWith(t *testing.T) {
	r := OK("done %d", 2).With("files", []string{"a"})
	assert.True(t, r.Success)
	assert.Equal(t, "done 2", r.Message)
	assert.Equal(t, []string{"a"}, r.Data["files"])

	assert.False(t, Fail("nope").Success)
}
