package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/desktop/desktoptest"
	"github.com/nadzzz/deskpilot/internal/events"
	"github.com/nadzzz/deskpilot/internal/handlers"
	"github.com/nadzzz/deskpilot/internal/history"
	"github.com/nadzzz/deskpilot/internal/interpreter"
	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/registry"
	"github.com/nadzzz/deskpilot/internal/tts"
	"github.com/nadzzz/deskpilot/internal/voice"
)

// fakeInterpreter parses canned replies keyed by request text.
type fakeInterpreter struct {
	mu      sync.Mutex
	replies map[string]string
	calls   []string
}

func (f *fakeInterpreter) Name() string { return "fake" }

func (f *fakeInterpreter) Interpret(_ context.Context, text string) *command.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	return interpreter.Parse(f.replies[text])
}

func (f *fakeInterpreter) Suggest(_ context.Context, text string) string {
	return "try: open " + text
}

func (f *fakeInterpreter) Close() error { return nil }

type fakeSynth struct{ err error }

func (f fakeSynth) Synthesize(_ context.Context, text string, _ tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &tts.SynthesizeResult{Audio: []byte("RIFF" + text), ContentType: "audio/wav"}, nil
}

func (fakeSynth) Close() error { return nil }

type env struct {
	d       *Dispatcher
	desk    *desktoptest.Controller
	interp  *fakeInterpreter
	history *history.Log
	bus     *events.Bus
}

func newEnv(t *testing.T, synth tts.Synthesizer) *env {
	t.Helper()
	desk := desktoptest.New()
	reg, err := handlers.Register(registry.NewBuilder(), handlers.Deps{Desktop: desk}).Build()
	require.NoError(t, err)

	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"), 100)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hist.Close() })

	bus := events.New()
	t.Cleanup(bus.Close)

	interp := &fakeInterpreter{replies: map[string]string{
		"launch my browser please": `{"action":"open_app","parameters":{"app_name":"firefox"},"description":"Open Firefox"}`,
	}}
	d := New(Options{
		Registry:    reg,
		Matcher:     voice.New(nil),
		Interpreter: interp,
		History:     hist,
		Synthesizer: synth,
		Events:      bus,
	})
	return &env{d: d, desk: desk, interp: interp, history: hist, bus: bus}
}

func TestHandleKeywordPath(t *testing.T) {
	e := newEnv(t, nil)
	sub := e.bus.Subscribe(events.TopicCommandExecuted)

	resp, err := e.d.Handle(context.Background(), &message.Request{Source: "test", Text: "open chrome"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, message.PathKeyword, resp.Path)
	require.NotNil(t, resp.Command)
	assert.Equal(t, command.Params{"app_name": "chrome"}, resp.Command.Parameters)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.Success)
	assert.Equal(t, resp.Result.Message, resp.ResponseText)
	assert.Contains(t, e.desk.Recorded(), "open_app chrome")
	assert.Empty(t, e.interp.calls, "keyword hit must not call the AI")

	ev := <-sub.C
	payload, ok := ev.Payload.(Executed)
	require.True(t, ok)
	assert.Equal(t, "open_app", payload.Action)
	assert.True(t, payload.Success)

	recent, err := e.history.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "open_app", recent[0].Action)
	assert.Equal(t, "test", recent[0].Source)
}

func TestHandleFallsBackToAI(t *testing.T) {
	e := newEnv(t, nil)

	resp, _ := e.d.Handle(context.Background(), &message.Request{Text: "launch my browser please"})
	assert.Equal(t, message.PathAI, resp.Path)
	assert.True(t, resp.Result.Success)
	assert.Contains(t, e.desk.Recorded(), "open_app firefox")
}

func TestHandleUnparsable(t *testing.T) {
	e := newEnv(t, nil)

	resp, _ := e.d.Handle(context.Background(), &message.Request{Text: "asdkjasd"})
	assert.Equal(t, message.PathAI, resp.Path)
	require.NotNil(t, resp.Command)
	assert.True(t, resp.Command.IsError())
	assert.False(t, resp.Result.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "try: open asdkjasd", e.d.Suggest(context.Background(), "asdkjasd"))
}

func TestHandleModes(t *testing.T) {
	e := newEnv(t, nil)

	resp, _ := e.d.Handle(context.Background(), &message.Request{Text: "asdkjasd", Mode: message.ModeKeyword})
	assert.Equal(t, message.PathNone, resp.Path)
	assert.Nil(t, resp.Command)
	assert.False(t, resp.Result.Success)
	assert.Contains(t, resp.Result.Message, "unknown command")
	assert.Empty(t, e.interp.calls)

	resp, _ = e.d.Handle(context.Background(), &message.Request{Text: "open chrome", Mode: message.ModeAI})
	assert.Equal(t, message.PathAI, resp.Path)
	assert.Equal(t, []string{"open chrome"}, e.interp.calls)

	resp, _ = e.d.Handle(context.Background(), &message.Request{Text: "open chrome", Mode: "telepathy"})
	assert.Contains(t, resp.Error, "unknown mode")
}

func TestHandleRejectsEmptyAndAudioWithoutTranscriber(t *testing.T) {
	e := newEnv(t, nil)

	resp, _ := e.d.Handle(context.Background(), &message.Request{Text: "   "})
	assert.Equal(t, "request has no audio and no text", resp.Error)

	resp, _ = e.d.Handle(context.Background(), &message.Request{Audio: []byte("RIFF"), ContentType: "audio/wav"})
	assert.Contains(t, resp.Error, "transcription")
}

func TestSessionsArePerSource(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, _ = e.d.Handle(ctx, &message.Request{Source: "alice", Text: "open spotify"})

	bob, _ := e.d.Handle(ctx, &message.Request{Source: "bob", Text: "close it", Mode: message.ModeKeyword})
	assert.Equal(t, message.PathNone, bob.Path)

	alice, _ := e.d.Handle(ctx, &message.Request{Source: "alice", Text: "close it"})
	require.NotNil(t, alice.Command)
	assert.Equal(t, "close_app", alice.Command.Action)
	assert.Same(t, e.d.Session("alice"), e.d.Session("alice"))
}

func TestResponseModes(t *testing.T) {
	e := newEnv(t, fakeSynth{})

	resp, _ := e.d.Handle(context.Background(), &message.Request{Text: "open chrome"})
	assert.NotEmpty(t, resp.ResponseText)
	assert.NotEmpty(t, resp.ResponseAudio)
	assert.Equal(t, "audio/wav", resp.ResponseContentType)

	resp, _ = e.d.Handle(context.Background(), &message.Request{Text: "open chrome", ResponseMode: message.ResponseModeNone})
	assert.Empty(t, resp.ResponseText)
	assert.Empty(t, resp.ResponseAudio)

	failing := newEnv(t, fakeSynth{err: errors.New("piper down")})
	resp, _ = failing.d.Handle(context.Background(), &message.Request{Text: "open chrome", ResponseMode: message.ResponseModeTextAudio})
	assert.True(t, resp.Result.Success)
	assert.NotEmpty(t, resp.ResponseText)
	assert.Empty(t, resp.ResponseAudio)
}

func TestHandleWithoutInterpreter(t *testing.T) {
	reg, err := handlers.Register(registry.NewBuilder(), handlers.Deps{Desktop: desktoptest.New()}).Build()
	require.NoError(t, err)
	d := New(Options{Registry: reg})
	assert.False(t, d.HasInterpreter())
	assert.Empty(t, d.Suggest(context.Background(), "anything"))

	resp, _ := d.Handle(context.Background(), &message.Request{Text: "asdkjasd", Mode: message.ModeAI})
	assert.Equal(t, message.PathAI, resp.Path)
	require.NotNil(t, resp.Command)
	assert.True(t, resp.Command.IsError())
	assert.False(t, resp.Result.Success)
	assert.Contains(t, resp.Result.Message, "AI interpreter is not configured")

	resp, _ = d.Handle(context.Background(), &message.Request{Text: "asdkjasd"})
	assert.Equal(t, message.PathNone, resp.Path)
	assert.Contains(t, resp.Result.Message, "unknown command")
}
