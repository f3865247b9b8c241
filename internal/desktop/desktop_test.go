package desktop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	runs   [][]string
	starts [][]string
	out    []byte
	err    error
}

func (f *fakeExec) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.runs = append(f.runs, append([]string{name}, args...))
	return f.out, f.err
}

func (f *fakeExec) Start(name string, args ...string) error {
	f.starts = append(f.starts, append([]string{name}, args...))
	return f.err
}

func newTestSystem(goos string, apps map[string]string) (*System, *fakeExec) {
	s := New(Options{Timeout: time.Second, Apps: apps})
	fe := &fakeExec{}
	s.goos = goos
	s.exec = fe
	return s, fe
}

func TestOpenApp(t *testing.T) {
	tests := []struct {
		goos string
		app  string
		want []string
	}{
		{"linux", "chrome", []string{"google-chrome"}},
		{"linux", "Calculator", []string{"gnome-calculator"}},
		{"linux", "obsidian", []string{"obsidian"}},
		{"windows", "calculator", []string{"cmd", "/c", "start", "", "calc"}},
		{"darwin", "code", []string{"open", "-a", "Visual Studio Code"}},
		{"darwin", "activity monitor", []string{"open", "-a", "Activity Monitor"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.app, func(t *testing.T) {
			s, fe := newTestSystem(tt.goos, nil)
			require.NoError(t, s.OpenApp(context.Background(), tt.app))
			require.Len(t, fe.starts, 1)
			assert.Equal(t, tt.want, fe.starts[0])
		})
	}
}

func TestOpenAppOverrideAndValidation(t *testing.T) {
	s, fe := newTestSystem("linux", map[string]string{"Chrome": "chromium --incognito"})
	require.NoError(t, s.OpenApp(context.Background(), "chrome"))
	assert.Equal(t, []string{"chromium", "--incognito"}, fe.starts[0])

	assert.Error(t, s.OpenApp(context.Background(), "--help"))
	assert.Error(t, s.OpenApp(context.Background(), " "))
}

func TestPowerCommands(t *testing.T) {
	ctx := context.Background()

	s, fe := newTestSystem("linux", nil)
	require.NoError(t, s.Lock(ctx))
	require.NoError(t, s.Shutdown(ctx, 10*time.Second, false))
	require.NoError(t, s.Shutdown(ctx, 0, true))
	require.NoError(t, s.CancelShutdown(ctx))
	require.NoError(t, s.Sleep(ctx))
	assert.Equal(t, [][]string{
		{"loginctl", "lock-session"},
		{"shutdown", "-h", "+1"},
		{"shutdown", "-r", "now"},
		{"shutdown", "-c"},
		{"systemctl", "suspend"},
	}, fe.runs)

	s, fe = newTestSystem("windows", nil)
	require.NoError(t, s.Lock(ctx))
	require.NoError(t, s.Shutdown(ctx, 10*time.Second, true))
	require.NoError(t, s.CancelShutdown(ctx))
	assert.Equal(t, [][]string{
		{"rundll32.exe", "user32.dll,LockWorkStation"},
		{"shutdown", "/r", "/t", "10"},
		{"shutdown", "/a"},
	}, fe.runs)

	s, _ = newTestSystem("darwin", nil)
	assert.ErrorIs(t, s.CancelShutdown(ctx), errors.ErrUnsupported)
}

func TestKeys(t *testing.T) {
	ctx := context.Background()

	s, fe := newTestSystem("linux", nil)
	require.NoError(t, s.Hotkey(ctx, []string{"Ctrl", "shift", "t"}))
	require.NoError(t, s.PressKey(ctx, "enter"))
	require.NoError(t, s.PressKey(ctx, "f5"))
	require.NoError(t, s.TypeText(ctx, "hello"))
	assert.Equal(t, [][]string{
		{"xdotool", "key", "--clearmodifiers", "ctrl+shift+t"},
		{"xdotool", "key", "--clearmodifiers", "Return"},
		{"xdotool", "key", "--clearmodifiers", "F5"},
		{"xdotool", "type", "--delay", "20", "--", "hello"},
	}, fe.runs)

	assert.Error(t, s.Hotkey(ctx, nil))

	assert.Equal(t, "^c", windowsChord([]string{"ctrl", "c"}))
	assert.Equal(t, "%{F4}", windowsChord([]string{"alt", "f4"}))
	assert.Equal(t, "{+}", windowsChord([]string{"+"}))
	assert.Equal(t, `tell application "System Events" to keystroke "c" using {command down}`, macChord([]string{"cmd", "c"}))
	assert.Equal(t, `tell application "System Events" to key code 36`, macChord([]string{"enter"}))
}

func TestSendKeysEscaping(t *testing.T) {
	assert.Equal(t, "a{+}b{ENTER}", escapeSendKeys("a+b\n"))
	script := sendKeysScript("it's")
	assert.True(t, strings.HasSuffix(script, "SendWait('it''s')"))
}

func TestMedia(t *testing.T) {
	ctx := context.Background()

	s, fe := newTestSystem("linux", nil)
	require.NoError(t, s.Media(ctx, KeyNext))
	assert.Equal(t, []string{"xdotool", "key", "XF86AudioNext"}, fe.runs[0])
	assert.Error(t, s.Media(ctx, MediaKey("eject")))

	s, fe = newTestSystem("windows", nil)
	require.NoError(t, s.Media(ctx, KeyMute))
	assert.Contains(t, fe.runs[0][len(fe.runs[0])-1], "[char]173")
}

func TestMousePosition(t *testing.T) {
	s, fe := newTestSystem("linux", nil)
	fe.out = []byte("X=640\nY=480\nSCREEN=0\nWINDOW=1234\n")
	x, y, err := s.MousePosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 640, x)
	assert.Equal(t, 480, y)

	fe.out = []byte("garbage")
	_, _, err = s.MousePosition(context.Background())
	assert.Error(t, err)

	s, _ = newTestSystem("darwin", nil)
	_, _, err = s.MousePosition(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestCloseApp(t *testing.T) {
	ctx := context.Background()

	s, fe := newTestSystem("windows", nil)
	require.NoError(t, s.CloseApp(ctx, "notepad"))
	assert.Equal(t, []string{"taskkill", "/IM", "notepad.exe", "/F"}, fe.runs[0])

	s, fe = newTestSystem("linux", nil)
	require.NoError(t, s.CloseApp(ctx, "chrome"))
	assert.Equal(t, []string{"pkill", "-x", "-i", "--", "chrome"}, fe.runs[0])

	s, fe = newTestSystem("darwin", nil)
	require.NoError(t, s.CloseApp(ctx, "spotify"))
	assert.Equal(t, []string{"osascript", "-e", `quit app "Spotify"`}, fe.runs[0])
}

func TestCloseAppMatchesExactName(t *testing.T) {
	ctx := context.Background()
	s, fe := newTestSystem("linux", nil)

	for _, name := range []string{".", "..", "*", "a?", "-9", " ", "!"} {
		assert.Error(t, s.CloseApp(ctx, name), name)
	}
	assert.Empty(t, fe.runs, "invalid names must never reach pkill")

	require.NoError(t, s.CloseApp(ctx, "a"))
	require.NoError(t, s.CloseApp(ctx, "my.app"))
	require.NoError(t, s.CloseApp(ctx, "gnome calculator"))
	assert.Equal(t, [][]string{
		{"pkill", "-x", "-i", "--", "a"},
		{"pkill", "-x", "-i", "--", `my\.app`},
		{"pkill", "-x", "-i", "--", "gnome-calculato"},
	}, fe.runs)
	for _, argv := range fe.runs {
		assert.NotContains(t, argv, "-f")
	}

	s, fe = newTestSystem("windows", nil)
	assert.Error(t, s.CloseApp(ctx, "*"))
	assert.Empty(t, fe.runs)
}

func TestMacAppName(t *testing.T) {
	assert.Equal(t, "Spotify", macAppName("spotify"))
	assert.Equal(t, "Visual Studio Code", macAppName("code"))
	assert.Equal(t, "Éditeur Texte", macAppName("éditeur texte"))
	assert.Equal(t, "Ωmega", macAppName("ωmega"))
}

func TestOpenURLAndNotifyHooks(t *testing.T) {
	s, _ := newTestSystem("linux", nil)
	var opened, notified string
	s.openURL = func(u string) error { opened = u; return nil }
	s.openFile = func(p string) error { return errors.New("no handler") }
	s.notify = func(title, msg string) error { notified = title + ":" + msg; return nil }

	require.NoError(t, s.OpenURL(context.Background(), "https://example.com"))
	assert.Equal(t, "https://example.com", opened)
	assert.Error(t, s.OpenPath(context.Background(), "/tmp"))
	require.NoError(t, s.Notify("Hi", "there"))
	assert.Equal(t, "Hi:there", notified)
}

func TestRunErrorsPropagate(t *testing.T) {
	s, fe := newTestSystem("linux", nil)
	fe.err = errors.New("exit status 1")
	assert.Error(t, s.Lock(context.Background()))
}
