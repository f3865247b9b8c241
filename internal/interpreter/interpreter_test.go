package interpreter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/deskpilot/internal/command"
)

type fakeCompleter struct {
	reply   string
	err     error
	calls   int
	system  string
	prompt  string
	jsonReq bool
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string, jsonReply bool) (string, error) {
	f.calls++
	f.system, f.prompt, f.jsonReq = system, prompt, jsonReply
	return f.reply, f.err
}

type transcribingCompleter struct{ fakeCompleter }

func (t *transcribingCompleter) Transcribe(context.Context, []byte, string, TranscribeOpts) (*TranscribeResult, error) {
	return &TranscribeResult{Text: "open chrome", Language: "en"}, nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		action string
		params command.Params
		steps  int
		errMsg string
	}{
		{
			name:   "plain object",
			reply:  `{"action":"open_app","parameters":{"app_name":"chrome"},"steps":[],"description":"Open Chrome"}`,
			action: "open_app",
			params: command.Params{"app_name": "chrome"},
		},
		{
			name:   "fenced with prose",
			reply:  "Sure!\n```json\n{\"action\": \"web_search\", \"parameters\": {\"query\": \"go\"}}\n```\nDone.",
			action: "web_search",
			params: command.Params{"query": "go"},
		},
		{
			name:   "non-object parameters",
			reply:  `{"action":"get_time","parameters":"none"}`,
			action: "get_time",
			params: command.Params{},
		},
		{
			name:   "steps",
			reply:  `{"action":"workflow","parameters":{},"steps":[{"action":"open_app","parameters":{"app_name":"code"}},{"action":"wait","parameters":{"seconds":1}}]}`,
			action: "workflow",
			params: command.Params{},
			steps:  2,
		},
		{
			name:   "steps not a list",
			reply:  `{"action":"get_date","parameters":{},"steps":"later"}`,
			action: "get_date",
			params: command.Params{},
		},
		{name: "no json", reply: "asdkjasd", action: command.ActionError, errMsg: "Could not parse command"},
		{name: "broken json", reply: `{"action": "open_app",`+"}", action: command.ActionError, errMsg: "Invalid JSON response from AI"},
		{name: "missing action", reply: `{"parameters":{}}`, action: command.ActionError, errMsg: "Invalid response structure: missing 'action'"},
		{name: "invalid step", reply: `{"action":"x","parameters":{},"steps":[{"parameters":{}}]}`, action: command.ActionError, errMsg: "Step 1 has invalid structure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.reply)
			require.NotNil(t, cmd)
			assert.Equal(t, tt.action, cmd.Action)
			if tt.errMsg != "" {
				assert.True(t, cmd.IsError())
				assert.Equal(t, tt.errMsg, cmd.Description)
				return
			}
			assert.Equal(t, tt.params, cmd.Parameters)
			assert.Len(t, cmd.Steps, tt.steps)
		})
	}
}

func TestSystemPromptListsActions(t *testing.T) {
	p := SystemPrompt()
	for _, d := range command.Describe {
		assert.Contains(t, p, "- "+d.Action+": ")
	}
	assert.Contains(t, p, `"description"`)
}

func TestBackendInterpret(t *testing.T) {
	fc := &fakeCompleter{reply: `{"action":"open_app","parameters":{"app_name":"chrome"}}`}
	b := New(fc, 0)

	cmd := b.Interpret(context.Background(), "open chrome")
	assert.Equal(t, "open_app", cmd.Action)
	assert.Equal(t, "Parse this command: open chrome", fc.prompt)
	assert.Equal(t, SystemPrompt(), fc.system)
	assert.True(t, fc.jsonReq)
}

func TestBackendInterpretFailure(t *testing.T) {
	b := New(&fakeCompleter{err: errors.New("connection refused")}, 0)

	cmd := b.Interpret(context.Background(), "open chrome")
	require.True(t, cmd.IsError())
	assert.Equal(t, "connection refused", cmd.Parameters["error"])
	assert.Contains(t, cmd.Description, "connection refused")

	empty := New(&fakeCompleter{reply: "  "}, 0).Interpret(context.Background(), "x")
	assert.True(t, empty.IsError())
}

func TestBackendSuggest(t *testing.T) {
	fc := &fakeCompleter{reply: " Try 'open chrome'. "}
	b := New(fc, 0)
	assert.Equal(t, "Try 'open chrome'.", b.Suggest(context.Background(), "asdkjasd"))
	assert.Equal(t, "As a desktop automation assistant, help with this: asdkjasd", fc.prompt)
	assert.False(t, fc.jsonReq)

	failing := New(&fakeCompleter{err: errors.New("quota")}, 0)
	assert.Equal(t, "Error getting suggestion: quota", failing.Suggest(context.Background(), "x"))
}

func TestTranscriberOf(t *testing.T) {
	plain := New(&fakeCompleter{}, 0)
	assert.Nil(t, TranscriberOf(plain))
	_, err := plain.Transcribe(context.Background(), []byte{1}, "audio/wav", TranscribeOpts{})
	assert.ErrorIs(t, err, ErrNoTranscription)

	audio := New(&transcribingCompleter{}, 0)
	cached, err := NewCached(audio, 4)
	require.NoError(t, err)

	tr := TranscriberOf(cached)
	require.NotNil(t, tr)
	res, err := tr.Transcribe(context.Background(), []byte{1}, "audio/wav", TranscribeOpts{})
	require.NoError(t, err)
	assert.Equal(t, "open chrome", res.Text)
}

func TestCached(t *testing.T) {
	fc := &fakeCompleter{reply: `{"action":"open_app","parameters":{"app_name":"chrome"}}`}
	c, err := NewCached(New(fc, 0), 8)
	require.NoError(t, err)

	first := c.Interpret(context.Background(), "Open  Chrome")
	first.Parameters["app_name"] = "mutated"

	second := c.Interpret(context.Background(), "open chrome")
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, "chrome", second.Parameters["app_name"])
	assert.Equal(t, 1, c.Len())
}

func TestCachedSkipsErrors(t *testing.T) {
	fc := &fakeCompleter{reply: "not json"}
	c, err := NewCached(New(fc, 0), 8)
	require.NoError(t, err)

	assert.True(t, c.Interpret(context.Background(), "asdkjasd").IsError())
	assert.True(t, c.Interpret(context.Background(), "asdkjasd").IsError())
	assert.Equal(t, 2, fc.calls)
	assert.Equal(t, 0, c.Len())
}
