// Package desktop drives the local desktop through OS utilities.
//
// Input injection, power management and media keys are delegated to the
// tools each platform ships with (xdotool, loginctl, osascript, rundll32,
// powershell). URLs and files go through pkg/browser, the clipboard through
// golang.design/x/clipboard and notifications through zenity.
package desktop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/browser"
)

// MediaKey is a playback or volume key.
type MediaKey string

const (
	KeyPlayPause  MediaKey = "play_pause"
	KeyNext       MediaKey = "next"
	KeyPrevious   MediaKey = "previous"
	KeyVolumeUp   MediaKey = "volume_up"
	KeyVolumeDown MediaKey = "volume_down"
	KeyMute       MediaKey = "mute"
)

// Controller is everything the handlers need from the desktop.
type Controller interface {
	OpenApp(ctx context.Context, name string) error
	CloseApp(ctx context.Context, name string) error
	OpenURL(ctx context.Context, url string) error
	OpenPath(ctx context.Context, path string) error

	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, key string) error
	Hotkey(ctx context.Context, keys []string) error
	Screenshot(ctx context.Context, path string) error
	MousePosition(ctx context.Context) (x, y int, err error)

	ClipboardWrite(text string) error
	ClipboardRead() (string, error)
	Notify(title, message string) error

	Lock(ctx context.Context) error
	Shutdown(ctx context.Context, delay time.Duration, restart bool) error
	CancelShutdown(ctx context.Context) error
	Sleep(ctx context.Context) error
	Media(ctx context.Context, key MediaKey) error
}

// Options configures a System controller.
type Options struct {
	// Timeout bounds every blocking subprocess.
	Timeout time.Duration

	// Apps overrides the launch command for an app name, e.g.
	// "chrome": "chromium --incognito".
	Apps map[string]string
}

// executor runs OS commands. Tests replace it.
type executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	Start(name string, args ...string) error
}

type osExec struct{}

func (osExec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w (%s)", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

func (osExec) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	// The launched app outlives us; reap it in the background.
	go func() { _ = cmd.Wait() }()
	return nil
}

// System is the Controller backed by the host OS.
type System struct {
	goos    string
	timeout time.Duration
	apps    map[string]string
	exec    executor
	clip    *clipboardService

	openURL  func(string) error
	openFile func(string) error
	notify   func(title, message string) error
}

// New creates a controller for the running OS.
func New(opts Options) *System {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	apps := make(map[string]string, len(opts.Apps))
	for k, v := range opts.Apps {
		apps[strings.ToLower(k)] = v
	}
	return &System{
		goos:     runtime.GOOS,
		timeout:  opts.Timeout,
		apps:     apps,
		exec:     osExec{},
		clip:     newClipboardService(),
		openURL:  browser.OpenURL,
		openFile: browser.OpenFile,
		notify:   zenityNotify,
	}
}

func (s *System) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	slog.Debug("desktop exec", "cmd", name, "args", args)
	return s.exec.Run(ctx, name, args...)
}

func (s *System) unsupported(op string) error {
	return fmt.Errorf("%s on %s: %w", op, s.goos, errors.ErrUnsupported)
}

// OpenApp launches an application and returns without waiting for it.
func (s *System) OpenApp(_ context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !validAppName(name) {
		return fmt.Errorf("invalid app name %q", name)
	}
	argv := s.launchCommand(name)
	slog.Debug("desktop launch", "app", name, "argv", argv)
	return s.exec.Start(argv[0], argv[1:]...)
}

// linuxCommLen is the kernel's process name limit (TASK_COMM_LEN - 1).
const linuxCommLen = 15

// validAppName reports whether name is a plain application name: it must
// contain a letter or digit, and may not start with a dash or carry
// wildcard characters.
func validAppName(name string) bool {
	if name == "" || strings.HasPrefix(name, "-") || strings.ContainsAny(name, "*?") {
		return false
	}
	return strings.IndexFunc(name, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// CloseApp terminates the processes whose name is exactly the named
// application's process name.
func (s *System) CloseApp(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if !validAppName(name) {
		return fmt.Errorf("invalid app name %q", name)
	}
	proc := processName(s.goos, name)
	switch s.goos {
	case "windows":
		_, err := s.run(ctx, "taskkill", "/IM", proc+".exe", "/F")
		return err
	case "darwin":
		_, err := s.run(ctx, "osascript", "-e", fmt.Sprintf(`quit app "%s"`, escapeAppleScript(macAppName(name))))
		return err
	default:
		if len(proc) > linuxCommLen {
			proc = proc[:linuxCommLen]
		}
		_, err := s.run(ctx, "pkill", "-x", "-i", "--", regexp.QuoteMeta(proc))
		return err
	}
}

// OpenURL opens a URL in the default browser.
func (s *System) OpenURL(_ context.Context, url string) error {
	if err := s.openURL(url); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	return nil
}

// OpenPath opens a file or folder with the default handler.
func (s *System) OpenPath(_ context.Context, path string) error {
	if err := s.openFile(path); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	return nil
}

// TypeText types text into the focused window.
func (s *System) TypeText(ctx context.Context, text string) error {
	switch s.goos {
	case "windows":
		_, err := s.run(ctx, "powershell", "-NoProfile", "-Command", sendKeysScript(escapeSendKeys(text)))
		return err
	case "darwin":
		_, err := s.run(ctx, "osascript", "-e",
			fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, escapeAppleScript(text)))
		return err
	default:
		_, err := s.run(ctx, "xdotool", "type", "--delay", "20", "--", text)
		return err
	}
}

// PressKey presses and releases a single key ("enter", "tab", "f5").
func (s *System) PressKey(ctx context.Context, key string) error {
	return s.Hotkey(ctx, []string{key})
}

// Hotkey presses a key combination such as ctrl+shift+t.
func (s *System) Hotkey(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return errors.New("no keys given")
	}
	switch s.goos {
	case "windows":
		_, err := s.run(ctx, "powershell", "-NoProfile", "-Command", sendKeysScript(windowsChord(keys)))
		return err
	case "darwin":
		_, err := s.run(ctx, "osascript", "-e", macChord(keys))
		return err
	default:
		_, err := s.run(ctx, "xdotool", "key", "--clearmodifiers", xdotoolChord(keys))
		return err
	}
}

// Screenshot captures the whole screen to path.
func (s *System) Screenshot(ctx context.Context, path string) error {
	switch s.goos {
	case "windows":
		_, err := s.run(ctx, "powershell", "-NoProfile", "-Command", windowsScreenshotScript(path))
		return err
	case "darwin":
		_, err := s.run(ctx, "screencapture", "-x", path)
		return err
	default:
		for _, tool := range [][]string{
			{"gnome-screenshot", "-f", path},
			{"scrot", "--overwrite", path},
			{"import", "-window", "root", path},
		} {
			if _, err := exec.LookPath(tool[0]); err != nil {
				continue
			}
			_, err := s.run(ctx, tool[0], tool[1:]...)
			return err
		}
		return errors.New("no screenshot tool found (install gnome-screenshot, scrot or imagemagick)")
	}
}

// MousePosition returns the pointer coordinates.
func (s *System) MousePosition(ctx context.Context) (int, int, error) {
	switch s.goos {
	case "windows":
		out, err := s.run(ctx, "powershell", "-NoProfile", "-Command",
			`Add-Type -AssemblyName System.Windows.Forms; $p=[System.Windows.Forms.Cursor]::Position; "X=$($p.X)"; "Y=$($p.Y)"`)
		if err != nil {
			return 0, 0, err
		}
		return parsePosition(out)
	case "darwin":
		return 0, 0, s.unsupported("mouse position")
	default:
		out, err := s.run(ctx, "xdotool", "getmouselocation", "--shell")
		if err != nil {
			return 0, 0, err
		}
		return parsePosition(out)
	}
}

// Lock locks the screen.
func (s *System) Lock(ctx context.Context) error {
	switch s.goos {
	case "windows":
		_, err := s.run(ctx, "rundll32.exe", "user32.dll,LockWorkStation")
		return err
	case "darwin":
		_, err := s.run(ctx, "pmset", "displaysleepnow")
		return err
	default:
		_, err := s.run(ctx, "loginctl", "lock-session")
		return err
	}
}

// Shutdown powers off or restarts after delay.
func (s *System) Shutdown(ctx context.Context, delay time.Duration, restart bool) error {
	secs := int(delay.Round(time.Second) / time.Second)
	if secs < 0 {
		secs = 0
	}
	switch s.goos {
	case "windows":
		flag := "/s"
		if restart {
			flag = "/r"
		}
		_, err := s.run(ctx, "shutdown", flag, "/t", fmt.Sprint(secs))
		return err
	case "darwin":
		verb := "shut down"
		if restart {
			verb = "restart"
		}
		_, err := s.run(ctx, "osascript", "-e", fmt.Sprintf(`tell application "System Events" to %s`, verb))
		return err
	default:
		flag := "-h"
		if restart {
			flag = "-r"
		}
		// shutdown(8) schedules in whole minutes.
		when := "now"
		if secs > 0 {
			when = fmt.Sprintf("+%d", (secs+59)/60)
		}
		_, err := s.run(ctx, "shutdown", flag, when)
		return err
	}
}

// CancelShutdown aborts a pending shutdown or restart.
func (s *System) CancelShutdown(ctx context.Context) error {
	switch s.goos {
	case "windows":
		_, err := s.run(ctx, "shutdown", "/a")
		return err
	case "darwin":
		return s.unsupported("cancel shutdown")
	default:
		_, err := s.run(ctx, "shutdown", "-c")
		return err
	}
}

// Sleep suspends the machine.
func (s *System) Sleep(ctx context.Context) error {
	switch s.goos {
	case "windows":
		_, err := s.run(ctx, "rundll32.exe", "powrprof.dll,SetSuspendState", "0,1,0")
		return err
	case "darwin":
		_, err := s.run(ctx, "pmset", "sleepnow")
		return err
	default:
		_, err := s.run(ctx, "systemctl", "suspend")
		return err
	}
}

// Media sends a playback or volume key.
func (s *System) Media(ctx context.Context, key MediaKey) error {
	switch s.goos {
	case "windows":
		code, ok := windowsMediaKeys[key]
		if !ok {
			return fmt.Errorf("unknown media key %q", key)
		}
		_, err := s.run(ctx, "powershell", "-NoProfile", "-Command",
			fmt.Sprintf("(New-Object -ComObject WScript.Shell).SendKeys([char]%d)", code))
		return err
	case "darwin":
		script, ok := macMediaScripts[key]
		if !ok {
			return fmt.Errorf("unknown media key %q", key)
		}
		_, err := s.run(ctx, "osascript", "-e", script)
		return err
	default:
		sym, ok := xdotoolMediaKeys[key]
		if !ok {
			return fmt.Errorf("unknown media key %q", key)
		}
		_, err := s.run(ctx, "xdotool", "key", sym)
		return err
	}
}

// ClipboardWrite replaces the clipboard text.
func (s *System) ClipboardWrite(text string) error {
	return s.clip.Write(text)
}

// ClipboardRead returns the clipboard text.
func (s *System) ClipboardRead() (string, error) {
	return s.clip.Read()
}

// Notify shows a desktop notification.
func (s *System) Notify(title, message string) error {
	if err := s.notify(title, message); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	return nil
}
