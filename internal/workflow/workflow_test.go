package workflow

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/deskpilot/internal/command"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflows.json")
	s, err := Open(path)
	require.NoError(t, err)

	steps := []command.Step{
		{Action: command.OpenApp, Parameters: command.Params{"app_name": "chrome"}},
		{Action: command.WebSearch, Parameters: command.Params{"query": "go generics"}},
	}
	_, err = s.Save("research", "browser plus search", steps)
	require.NoError(t, err)

	first, err := s.Load("research")
	require.NoError(t, err)
	assert.Equal(t, 1, first.UsageCount)
	assert.Equal(t, steps, first.Steps)

	second, err := s.Load("research")
	require.NoError(t, err)
	assert.Equal(t, 2, second.UsageCount)
	assert.Equal(t, steps, second.Steps)

	// Counts survive a reopen and a re-save.
	reopened, err := Open(path)
	require.NoError(t, err)
	_, err = reopened.Save("research", "updated", steps[:1])
	require.NoError(t, err)
	list := reopened.List()
	require.Len(t, list, 1)
	assert.Equal(t, Summary{Name: "research", Description: "updated", StepsCount: 1, UsageCount: 2}, list[0])
}

func TestSaveValidation(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "workflows.json"))
	require.NoError(t, err)

	_, err = s.Save("", "", []command.Step{{Action: command.Paste}})
	assert.Error(t, err)
	_, err = s.Save("empty", "", nil)
	assert.Error(t, err)
	_, err = s.Save("bad", "", []command.Step{{Action: " "}})
	assert.Error(t, err)

	tpl, err := s.Save("ok", "", []command.Step{{Action: command.Paste}})
	require.NoError(t, err)
	assert.NotNil(t, tpl.Steps[0].Parameters)
}

func TestLoadAndDeleteMissing(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "workflows.json"))
	require.NoError(t, err)
	_, err = s.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("nope"), ErrNotFound)
}

func TestEnsureDefaults(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "workflows.json"))
	require.NoError(t, err)
	require.NoError(t, s.EnsureDefaults())

	_, err = s.Load("morning_routine")
	require.NoError(t, err)
	require.NoError(t, s.EnsureDefaults())

	var names []string
	for _, w := range s.List() {
		names = append(names, w.Name)
		if w.Name == "morning_routine" {
			assert.Equal(t, 1, w.UsageCount, "defaults must not reset usage")
		}
	}
	assert.Equal(t, []string{"morning_routine", "take_notes"}, names)
}
