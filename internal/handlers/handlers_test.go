package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/contacts"
	"github.com/nadzzz/deskpilot/internal/desktop/desktoptest"
	"github.com/nadzzz/deskpilot/internal/history"
	"github.com/nadzzz/deskpilot/internal/notes"
	"github.com/nadzzz/deskpilot/internal/organizer"
	"github.com/nadzzz/deskpilot/internal/registry"
	"github.com/nadzzz/deskpilot/internal/schedule"
	"github.com/nadzzz/deskpilot/internal/sysmon"
	"github.com/nadzzz/deskpilot/internal/workflow"
)

type fakeMonitor struct{}

func (fakeMonitor) Snapshot(context.Context) (*sysmon.Snapshot, error) {
	return &sysmon.Snapshot{Hostname: "box", CPU: sysmon.CPU{Percent: 12, Cores: 8, Status: "Low"}}, nil
}

func (fakeMonitor) CPU(context.Context) (sysmon.CPU, error) {
	return sysmon.CPU{Percent: 55.5, Cores: 8, Status: "Normal"}, nil
}

func (fakeMonitor) Memory(context.Context) (sysmon.Memory, error) {
	return sysmon.Memory{Total: 16 << 30, Used: 8 << 30, Percent: 50, Status: "Normal"}, nil
}

func (fakeMonitor) Disk(_ context.Context, path string) (sysmon.Disk, error) {
	if path == "" {
		path = "/"
	}
	return sysmon.Disk{Path: path, Total: 100 << 30, Free: 5 << 30, Percent: 95, Status: "Critical"}, nil
}

func (fakeMonitor) TopProcesses(_ context.Context, limit int) ([]sysmon.Process, error) {
	all := []sysmon.Process{{PID: 1, Name: "chrome", MemoryMB: 900}, {PID: 2, Name: "code", MemoryMB: 600}, {PID: 3, Name: "slack", MemoryMB: 300}}
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

type fakeSender struct {
	to, text string
	err      error
}

func (f *fakeSender) Send(_ context.Context, to, text string) error {
	f.to, f.text = to, text
	return f.err
}

type env struct {
	reg     *registry.Registry
	desk    *desktoptest.Controller
	sender  *fakeSender
	dir     string
	deps    Deps
	history *history.Log
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	n, err := notes.Open(filepath.Join(dir, "notes.json"))
	require.NoError(t, err)
	c, err := contacts.Open(filepath.Join(dir, "contacts.json"))
	require.NoError(t, err)
	w, err := workflow.Open(filepath.Join(dir, "workflows.json"))
	require.NoError(t, err)
	desk := desktoptest.New()
	s, err := schedule.Open(filepath.Join(dir, "schedules.json"), desk.OpenApp, nil)
	require.NoError(t, err)
	h, err := history.Open(filepath.Join(dir, "history.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	downloads := filepath.Join(dir, "Downloads")
	require.NoError(t, os.MkdirAll(downloads, 0o755))

	sender := &fakeSender{}
	deps := Deps{
		Desktop:       desk,
		Monitor:       fakeMonitor{},
		Organizer:     organizer.New(downloads, nil),
		Notes:         n,
		Contacts:      c,
		Workflows:     w,
		Schedules:     s,
		History:       h,
		Messenger:     sender,
		Folders:       map[string]string{"downloads": downloads, "home": dir},
		ScreenshotDir: filepath.Join(dir, "shots"),
		Now:           func() time.Time { return time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC) },
	}
	reg, err := Register(registry.NewBuilder(), deps).Build()
	require.NoError(t, err)
	return &env{reg: reg, desk: desk, sender: sender, dir: dir, deps: deps, history: h}
}

func (e *env) run(t *testing.T, action string, params command.Params) *command.Result {
	t.Helper()
	res := e.reg.Execute(context.Background(), &command.Command{Action: action, Parameters: params})
	require.NotNil(t, res)
	return res
}

func TestEveryActionRegistered(t *testing.T) {
	e := newEnv(t)
	for _, d := range command.Describe {
		assert.True(t, e.reg.Has(d.Action), d.Action)
	}
	assert.Len(t, e.reg.Actions(), len(command.Describe))
}

func TestDesktopActions(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		action string
		params command.Params
		call   string
		msg    string
	}{
		{command.OpenApp, command.Params{"app_name": "chrome"}, "open_app chrome", "Opened chrome"},
		{command.CloseApp, command.Params{"app_name": "chrome"}, "close_app chrome", "Closed chrome"},
		{command.OpenURL, command.Params{"url": "github.com"}, "open_url https://github.com", "Opened https://github.com"},
		{command.WebSearch, command.Params{"query": "python tutorial"}, "open_url https://www.google.com/search?q=python+tutorial", "Searching for python tutorial"},
		{command.TypeText, command.Params{"text": "héllo"}, "type héllo", "Typed 5 characters"},
		{command.PressKey, command.Params{"key": "enter"}, "key enter", "Pressed enter"},
		{command.Hotkey, command.Params{"keys": []any{"ctrl", "c"}}, "hotkey ctrl+c", "Pressed ctrl+c"},
		{command.Hotkey, command.Params{"keys": "ctrl,shift,t"}, "hotkey ctrl+shift+t", "Pressed ctrl+shift+t"},
		{command.Copy, command.Params{"text": "abc"}, "clipboard_write abc", "Copied to clipboard"},
		{command.Notify, command.Params{"message": "hi"}, "notify deskpilot: hi", "Notification shown"},
		{command.LockScreen, nil, "lock", "Screen locked"},
		{command.Shutdown, nil, "shutdown 10s", "Shutting down in 10 seconds"},
		{command.Restart, command.Params{"delay_seconds": "30"}, "restart 30s", "Restarting in 30 seconds"},
		{command.Shutdown, command.Params{"delay_seconds": 0}, "shutdown 0s", "Shutting down in 0 seconds"},
		{command.CancelShutdown, nil, "cancel_shutdown", "Shutdown cancelled"},
		{command.Sleep, nil, "sleep", "Going to sleep"},
		{command.VolumeUp, nil, "media volume_up", "Volume up"},
		{command.Mute, nil, "media mute", "Mute toggled"},
		{command.PlayMusic, command.Params{"query": "lofi beats"}, "open_url spotify:search:lofi%20beats", "Playing lofi beats on Spotify"},
		{command.MusicPause, nil, "media play_pause", "Playback paused"},
		{command.MusicNext, nil, "media next", "Next track"},
	}
	for _, tt := range tests {
		t.Run(tt.action+" "+tt.call, func(t *testing.T) {
			before := len(e.desk.Recorded())
			res := e.run(t, tt.action, tt.params)
			require.True(t, res.Success, res.Message)
			assert.Equal(t, tt.msg, res.Message)
			calls := e.desk.Recorded()
			require.Len(t, calls, before+1)
			assert.Equal(t, tt.call, calls[before])
		})
	}
}

func TestOpenAppFromSpec(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, "OPEN_APP", command.Params{"app_name": "chrome"})
	assert.True(t, res.Success)
	assert.Equal(t, "chrome", res.Data["app_name"])
}

func TestMissingParams(t *testing.T) {
	e := newEnv(t)
	for _, action := range []string{command.OpenApp, command.OpenURL, command.WebSearch, command.TypeText, command.Hotkey, command.CreateNote, command.AddContact, command.SaveWorkflow, command.ScheduleApp, command.OpenFolder, command.SendMessage} {
		res := e.run(t, action, command.Params{})
		assert.False(t, res.Success, action)
		assert.Contains(t, res.Message, "invalid parameters", action)
	}
	assert.Empty(t, e.desk.Recorded())
}

func TestDesktopFailure(t *testing.T) {
	e := newEnv(t)
	e.desk.Fail["open_app"] = errors.New("not installed")
	res := e.run(t, command.OpenApp, command.Params{"app_name": "gimp"})
	assert.False(t, res.Success)
	assert.Equal(t, "open_app: not installed", res.Message)
}

func TestClipboardAndMouse(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, command.Paste, nil)
	assert.Equal(t, "Clipboard is empty", res.Message)

	e.run(t, command.Copy, command.Params{"text": "secret"})
	res = e.run(t, command.Paste, nil)
	assert.Equal(t, "secret", res.Data["text"])

	e.run(t, command.ClearClipboard, nil)
	assert.Equal(t, "", e.desk.Clipboard)

	e.desk.X, e.desk.Y = 10, 20
	res = e.run(t, command.MousePosition, nil)
	assert.Equal(t, "Mouse at (10, 20)", res.Message)
}

func TestScreenshotDefaultName(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, command.Screenshot, nil)
	require.True(t, res.Success, res.Message)
	want := filepath.Join(e.dir, "shots", "screenshot_20240305_140700.png")
	assert.Equal(t, want, res.Data["path"])
	assert.DirExists(t, filepath.Join(e.dir, "shots"))

	res = e.run(t, command.Screenshot, command.Params{"filename": "desk"})
	assert.Equal(t, filepath.Join(e.dir, "shots", "desk.png"), res.Data["path"])
}

func TestOpenFolder(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, command.OpenFolder, command.Params{"folder_name": "Downloads"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "open_path "+e.deps.Folders["downloads"], e.desk.Recorded()[0])

	res = e.run(t, command.OpenFolder, command.Params{"folder_name": "attic"})
	assert.False(t, res.Success)

	res = e.run(t, command.OpenFolder, command.Params{"folder_path": filepath.Join(e.dir, "missing")})
	assert.False(t, res.Success)
}

func TestWait(t *testing.T) {
	e := newEnv(t)
	start := time.Now()
	res := e.run(t, command.Wait, command.Params{"seconds": "0.05"})
	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = e.reg.Execute(ctx, &command.Command{Action: command.Wait, Parameters: command.Params{"seconds": 10}})
	assert.False(t, res.Success)
}

func TestSystemActions(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, command.CheckCPU, nil)
	assert.Equal(t, "CPU usage: 55.5% (Normal)", res.Message)

	res = e.run(t, command.CheckMemory, nil)
	assert.Equal(t, "Memory usage: 50.0%, 8.00 GB of 16.00 GB (Normal)", res.Message)

	res = e.run(t, command.CheckDisk, command.Params{"path": "/data"})
	assert.Contains(t, res.Message, "Disk /data: 5.00 GB free")
	assert.Contains(t, res.Message, "Critical")

	res = e.run(t, command.HeavyApps, command.Params{"limit": "2"})
	assert.True(t, strings.HasPrefix(res.Message, "Top 2 processes by memory:"))
	assert.Contains(t, res.Message, "1. chrome (pid 1)")

	res = e.run(t, command.SystemReport, nil)
	assert.Contains(t, res.Message, "System report for box")
}

func TestUnavailableFeature(t *testing.T) {
	reg, err := Register(registry.NewBuilder(), Deps{Desktop: desktoptest.New()}).Build()
	require.NoError(t, err)
	for _, action := range []string{command.CheckCPU, command.ListNotes, command.ListContacts, command.ListWorkflows, command.ListSchedules, command.ShowHistory, command.OrganizeDownloads} {
		res := reg.Execute(context.Background(), &command.Command{Action: action})
		assert.False(t, res.Success, action)
		assert.Contains(t, res.Message, "not enabled", action)
	}
	res := reg.Execute(context.Background(), &command.Command{Action: command.SendMessage, Parameters: command.Params{"channel": "C1", "message": "x"}})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not configured")
}

func TestNilDesktopIsUnavailable(t *testing.T) {
	reg, err := Register(registry.NewBuilder(), Deps{}).Build()
	require.NoError(t, err)
	for _, cmd := range []*command.Command{
		{Action: command.OpenApp, Parameters: command.Params{"app_name": "chrome"}},
		{Action: command.CloseApp, Parameters: command.Params{"app_name": "chrome"}},
		{Action: command.TypeText, Parameters: command.Params{"text": "hi"}},
		{Action: command.Paste},
		{Action: command.MousePosition},
		{Action: command.Shutdown},
		{Action: command.VolumeUp},
		{Action: command.MusicPause},
		{Action: command.PlayMusic, Parameters: command.Params{"query": "lofi"}},
	} {
		var res *command.Result
		require.NotPanics(t, func() { res = reg.Execute(context.Background(), cmd) }, cmd.Action)
		assert.False(t, res.Success, cmd.Action)
		assert.Contains(t, res.Message, "not enabled", cmd.Action)
		assert.NotContains(t, res.Message, "panic", cmd.Action)
	}
}

func TestFileActions(t *testing.T) {
	e := newEnv(t)
	downloads := e.deps.Folders["downloads"]
	for _, name := range []string{"Report.PDF", "photo.png", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(downloads, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(e.dir, ".cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, ".cache", "report.pdf"), []byte("x"), 0o644))

	res := e.run(t, command.SearchFiles, command.Params{"pattern": "report", "directory": "downloads"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{filepath.Join(downloads, "Report.PDF")}, res.Data["files"])

	res = e.run(t, command.SearchFiles, command.Params{"pattern": "*.txt"})
	assert.Equal(t, []string{filepath.Join(downloads, "notes.txt")}, res.Data["files"])

	res = e.run(t, command.SearchFiles, command.Params{"pattern": "[", "directory": downloads})
	assert.False(t, res.Success)

	res = e.run(t, command.OrganizeDownloads, nil)
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "Organized 3 files")
	assert.FileExists(t, filepath.Join(downloads, "Documents", "Report.PDF"))
	assert.FileExists(t, filepath.Join(downloads, "Images", "photo.png"))

	res = e.run(t, command.OrganizeDownloads, nil)
	assert.Equal(t, "No files to organize", res.Message)
}

func TestNotesActions(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, command.CreateNote, command.Params{"content": "buy milk", "tags": "home,errands"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Note #1 saved in general", res.Message)

	e.run(t, command.CreateNote, command.Params{"content": "standup at 10", "category": "Work"})

	res = e.run(t, command.ListNotes, command.Params{"category": "work"})
	assert.Contains(t, res.Message, "#2 [work] standup at 10")
	assert.NotContains(t, res.Message, "milk")

	res = e.run(t, command.ListNotes, command.Params{"query": "errands"})
	assert.Contains(t, res.Message, "buy milk")

	res = e.run(t, command.DeleteNote, command.Params{"id": "1"})
	assert.True(t, res.Success, res.Message)
	res = e.run(t, command.DeleteNote, command.Params{"id": 1})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "note not found")
}

func TestContactsAndMessaging(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, command.AddContact, command.Params{"name": "Alice Smith", "phone": "555", "slack": "U1"})
	require.True(t, res.Success, res.Message)
	e.run(t, command.AddContact, command.Params{"name": "Bob"})

	res = e.run(t, command.ListContacts, nil)
	assert.Contains(t, res.Message, "2 contacts:")
	assert.Contains(t, res.Message, "Alice Smith, phone 555, slack U1")

	res = e.run(t, command.GetContact, command.Params{"name": "alice"})
	assert.Equal(t, "Alice Smith, phone 555, slack U1", res.Message)

	res = e.run(t, command.SendMessage, command.Params{"contact_name": "alice", "message": "on my way"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Message sent to Alice Smith", res.Message)
	assert.Equal(t, "U1", e.sender.to)
	assert.Equal(t, "on my way", e.sender.text)

	res = e.run(t, command.SendMessage, command.Params{"contact_name": "bob", "message": "hi"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no slack id")

	res = e.run(t, command.SendMessage, command.Params{"channel": "C9", "message": "deploy done"})
	assert.True(t, res.Success)
	assert.Equal(t, "C9", e.sender.to)

	e.sender.err = errors.New("rate limited")
	res = e.run(t, command.SendMessage, command.Params{"channel": "C9", "message": "again"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "rate limited")

	res = e.run(t, command.DeleteContact, command.Params{"name": "bob"})
	assert.True(t, res.Success)
	res = e.run(t, command.DeleteContact, command.Params{"name": "bob"})
	assert.False(t, res.Success)
}

func TestWorkflowSaveLoad(t *testing.T) {
	e := newEnv(t)
	steps := []any{
		map[string]any{"action": "open_app", "parameters": map[string]any{"app_name": "chrome"}},
		map[string]any{"action": "search_web", "parameters": map[string]any{"query": "golang"}},
	}
	res := e.run(t, command.SaveWorkflow, command.Params{"name": "research", "steps": steps, "description": "read up"})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Workflow research saved with 2 steps", res.Message)

	for i := 1; i <= 2; i++ {
		res = e.run(t, command.LoadWorkflow, command.Params{"name": "research"})
		require.True(t, res.Success, res.Message)
		assert.Equal(t, "Workflow research: workflow completed: 2 steps", res.Message)
		assert.Equal(t, i, res.Data["usage_count"])
	}
	calls := e.desk.Recorded()
	assert.Equal(t, []string{
		"open_app chrome", "open_url https://www.google.com/search?q=golang",
		"open_app chrome", "open_url https://www.google.com/search?q=golang",
	}, calls)

	tpl, err := e.deps.Workflows.Load("research")
	require.NoError(t, err)
	assert.Equal(t, command.WebSearch, tpl.Steps[1].Action, "aliases are canonicalized on save")

	res = e.run(t, command.ListWorkflows, nil)
	assert.Contains(t, res.Message, "research: 2 steps, used 3 times (read up)")

	res = e.run(t, command.DeleteWorkflow, command.Params{"name": "research"})
	assert.True(t, res.Success)
	res = e.run(t, command.LoadWorkflow, command.Params{"name": "research"})
	assert.False(t, res.Success)
}

func TestWorkflowStepFailure(t *testing.T) {
	e := newEnv(t)
	e.desk.Fail["close_app"] = errors.New("not running")
	steps := []any{
		map[string]any{"action": "close_app", "parameters": map[string]any{"app_name": "x"}},
		map[string]any{"action": "lock_screen"},
	}
	e.run(t, command.SaveWorkflow, command.Params{"name": "bad", "steps": steps})
	res := e.run(t, command.LoadWorkflow, command.Params{"name": "bad"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "workflow failed at step 1")
	assert.NotContains(t, e.desk.Recorded(), "lock")
}

func TestWorkflowRecursionBounded(t *testing.T) {
	e := newEnv(t)
	steps := []any{map[string]any{"action": "run_workflow", "parameters": map[string]any{"name": "loop"}}}
	e.run(t, command.SaveWorkflow, command.Params{"name": "loop", "steps": steps})
	res := e.run(t, command.LoadWorkflow, command.Params{"name": "loop"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "nested too deeply")
}

func TestScheduleActions(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, command.ScheduleApp, command.Params{"time": "9:00", "apps": "chrome,slack"})
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.Message, "Scheduled chrome, slack daily at 09:00")

	res = e.run(t, "open_apps_scheduled", command.Params{"time": "18:30", "app_name": "spotify"})
	require.True(t, res.Success, res.Message)

	res = e.run(t, command.ScheduleApp, command.Params{"time": "25:00", "apps": "chrome"})
	assert.False(t, res.Success)

	res = e.run(t, command.ListSchedules, nil)
	assert.Contains(t, res.Message, "2 scheduled launches:")

	list := e.deps.Schedules.List()
	res = e.run(t, command.CancelSchedule, command.Params{"id": list[0].ID})
	assert.True(t, res.Success, res.Message)
	res = e.run(t, command.CancelSchedule, command.Params{"id": list[0].ID})
	assert.False(t, res.Success)
}

func TestHistoryActions(t *testing.T) {
	e := newEnv(t)
	res := e.run(t, command.ShowHistory, nil)
	assert.Equal(t, "No commands recorded yet", res.Message)

	ctx := context.Background()
	_, err := e.history.Record(ctx, history.Entry{Text: "open chrome", Action: "open_app", Success: true})
	require.NoError(t, err)
	_, err = e.history.Record(ctx, history.Entry{Text: "asdf", Action: "error", Success: false})
	require.NoError(t, err)

	res = e.run(t, command.ShowHistory, command.Params{"limit": 5})
	assert.Contains(t, res.Message, "Last 2 commands:")
	assert.Contains(t, res.Message, "open chrome")

	res = e.run(t, command.ShowStatistics, nil)
	assert.Contains(t, res.Message, "Total commands: 2")
	assert.Contains(t, res.Message, "Success rate: 50.0%")
}

func TestClock(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, "It's 2:07 PM", e.run(t, command.GetTime, nil).Message)
	assert.Equal(t, "Today is Tuesday, March 5, 2024", e.run(t, command.GetDate, nil).Message)
}
