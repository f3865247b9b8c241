package handlers

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/desktop"
	"github.com/nadzzz/deskpilot/internal/registry"
)

type appParams struct {
	AppName string `mapstructure:"app_name"`
}

func (p *appParams) Validate() error { return registry.Require("app_name", p.AppName) }

type urlParams struct {
	URL string `mapstructure:"url"`
}

func (p *urlParams) Validate() error { return registry.Require("url", p.URL) }

type folderParams struct {
	FolderPath string `mapstructure:"folder_path"`
	FolderName string `mapstructure:"folder_name"`
}

func (p *folderParams) Validate() error {
	if p.FolderPath == "" && p.FolderName == "" {
		return registry.Require("folder_path or folder_name", "")
	}
	return nil
}

type queryParams struct {
	Query string `mapstructure:"query"`
}

func (p *queryParams) Validate() error { return registry.Require("query", p.Query) }

type textParams struct {
	Text string `mapstructure:"text"`
}

func (p *textParams) Validate() error { return registry.Require("text", p.Text) }

type keyParams struct {
	Key string `mapstructure:"key"`
}

func (p *keyParams) Validate() error { return registry.Require("key", p.Key) }

type hotkeyParams struct {
	Keys []string `mapstructure:"keys"`
}

func (p *hotkeyParams) Validate() error {
	if len(p.Keys) == 0 {
		return registry.Require("keys", "")
	}
	return nil
}

type screenshotParams struct {
	Filename string `mapstructure:"filename"`
}

type waitParams struct {
	Seconds float64 `mapstructure:"seconds"`
}

type notifyParams struct {
	Title   string `mapstructure:"title"`
	Message string `mapstructure:"message"`
}

func (p *notifyParams) Validate() error { return registry.Require("message", p.Message) }

type powerParams struct {
	DelaySeconds *int `mapstructure:"delay_seconds"`
}

func (p powerParams) delay() time.Duration {
	if p.DelaySeconds == nil || *p.DelaySeconds < 0 {
		return 10 * time.Second
	}
	return time.Duration(*p.DelaySeconds) * time.Second
}

// maxWait bounds the wait action.
const maxWait = 5 * time.Minute

func (h *handlers) registerDesktop(b *registry.Builder) {
	b.Handle(command.OpenApp, registry.Typed(h.openApp)).
		Handle(command.CloseApp, registry.Typed(h.closeApp)).
		Handle(command.OpenURL, registry.Typed(h.openURL)).
		Handle(command.OpenFolder, registry.Typed(h.openFolder)).
		Handle(command.WebSearch, registry.Typed(h.webSearch)).
		Handle(command.TypeText, registry.Typed(h.typeText)).
		Handle(command.PressKey, registry.Typed(h.pressKey)).
		Handle(command.Hotkey, registry.Typed(h.hotkey)).
		Handle(command.Screenshot, registry.Typed(h.screenshot)).
		Handle(command.MousePosition, h.mousePosition).
		Handle(command.Copy, registry.Typed(h.copy)).
		Handle(command.Paste, h.paste).
		Handle(command.ClearClipboard, h.clearClipboard).
		Handle(command.Wait, registry.Typed(h.wait)).
		Handle(command.Notify, registry.Typed(h.notify)).
		Handle(command.LockScreen, h.lockScreen).
		Handle(command.Shutdown, registry.Typed(h.power(false))).
		Handle(command.Restart, registry.Typed(h.power(true))).
		Handle(command.CancelShutdown, h.cancelShutdown).
		Handle(command.Sleep, h.sleep).
		Handle(command.VolumeUp, h.mediaKey(desktop.KeyVolumeUp, "Volume up")).
		Handle(command.VolumeDown, h.mediaKey(desktop.KeyVolumeDown, "Volume down")).
		Handle(command.Mute, h.mediaKey(desktop.KeyMute, "Mute toggled"))
}

func (h *handlers) desktopAvailable() error {
	if h.Desktop == nil {
		return fmt.Errorf("desktop control: %w", ErrUnavailable)
	}
	return nil
}

func (h *handlers) openApp(ctx context.Context, p appParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.OpenApp(ctx, p.AppName); err != nil {
		return nil, err
	}
	return command.OK("Opened %s", p.AppName).With("app_name", p.AppName), nil
}

func (h *handlers) closeApp(ctx context.Context, p appParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.CloseApp(ctx, p.AppName); err != nil {
		return nil, err
	}
	return command.OK("Closed %s", p.AppName), nil
}

// normalizeURL adds https:// to bare host names.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "mailto:") {
		return raw
	}
	return "https://" + raw
}

func (h *handlers) openURL(ctx context.Context, p urlParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	u := normalizeURL(p.URL)
	if err := h.Desktop.OpenURL(ctx, u); err != nil {
		return nil, err
	}
	return command.OK("Opened %s", u).With("url", u), nil
}

func (h *handlers) openFolder(ctx context.Context, p folderParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	path := p.FolderPath
	if path == "" {
		known, ok := h.Folders[strings.ToLower(strings.TrimSpace(p.FolderName))]
		if !ok {
			return nil, fmt.Errorf("unknown folder %q", p.FolderName)
		}
		path = known
	}
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("folder %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a folder", path)
	}
	if err := h.Desktop.OpenPath(ctx, path); err != nil {
		return nil, err
	}
	return command.OK("Opened folder %s", path).With("path", path), nil
}

func (h *handlers) webSearch(ctx context.Context, p queryParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	u := h.SearchURL + url.QueryEscape(p.Query)
	if err := h.Desktop.OpenURL(ctx, u); err != nil {
		return nil, err
	}
	return command.OK("Searching for %s", p.Query).With("url", u), nil
}

func (h *handlers) typeText(ctx context.Context, p textParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.TypeText(ctx, p.Text); err != nil {
		return nil, err
	}
	return command.OK("Typed %d characters", len([]rune(p.Text))), nil
}

func (h *handlers) pressKey(ctx context.Context, p keyParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.PressKey(ctx, p.Key); err != nil {
		return nil, err
	}
	return command.OK("Pressed %s", p.Key), nil
}

func (h *handlers) hotkey(ctx context.Context, p hotkeyParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.Hotkey(ctx, p.Keys); err != nil {
		return nil, err
	}
	return command.OK("Pressed %s", strings.Join(p.Keys, "+")), nil
}

func (h *handlers) screenshot(ctx context.Context, p screenshotParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	name := p.Filename
	if name == "" {
		name = "screenshot_" + h.now().Format("20060102_150405") + ".png"
	}
	if filepath.Ext(name) == "" {
		name += ".png"
	}
	if !filepath.IsAbs(name) && h.ScreenshotDir != "" {
		name = filepath.Join(h.ScreenshotDir, name)
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("creating screenshot dir: %w", err)
	}
	if err := h.Desktop.Screenshot(ctx, name); err != nil {
		return nil, err
	}
	return command.OK("Screenshot saved to %s", name).With("path", name), nil
}

func (h *handlers) mousePosition(ctx context.Context, _ command.Params) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	x, y, err := h.Desktop.MousePosition(ctx)
	if err != nil {
		return nil, err
	}
	return command.OK("Mouse at (%d, %d)", x, y).With("x", x).With("y", y), nil
}

func (h *handlers) copy(_ context.Context, p textParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.ClipboardWrite(p.Text); err != nil {
		return nil, err
	}
	return command.OK("Copied to clipboard"), nil
}

func (h *handlers) paste(_ context.Context, _ command.Params) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	text, err := h.Desktop.ClipboardRead()
	if err != nil {
		return nil, err
	}
	if text == "" {
		return command.OK("Clipboard is empty").With("text", ""), nil
	}
	return command.OK("Clipboard: %s", text).With("text", text), nil
}

func (h *handlers) clearClipboard(_ context.Context, _ command.Params) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.ClipboardWrite(""); err != nil {
		return nil, err
	}
	return command.OK("Clipboard cleared"), nil
}

func (h *handlers) wait(ctx context.Context, p waitParams) (*command.Result, error) {
	if p.Seconds <= 0 {
		p.Seconds = 1
	}
	d := time.Duration(p.Seconds * float64(time.Second))
	if d > maxWait {
		d = maxWait
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
	}
	return command.OK("Waited %s", d), nil
}

func (h *handlers) notify(_ context.Context, p notifyParams) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if p.Title == "" {
		p.Title = "deskpilot"
	}
	if err := h.Desktop.Notify(p.Title, p.Message); err != nil {
		return nil, err
	}
	return command.OK("Notification shown"), nil
}

func (h *handlers) lockScreen(ctx context.Context, _ command.Params) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.Lock(ctx); err != nil {
		return nil, err
	}
	return command.OK("Screen locked"), nil
}

func (h *handlers) power(restart bool) func(context.Context, powerParams) (*command.Result, error) {
	verb := "Shutting down"
	if restart {
		verb = "Restarting"
	}
	return func(ctx context.Context, p powerParams) (*command.Result, error) {
		if err := h.desktopAvailable(); err != nil {
			return nil, err
		}
		delay := p.delay()
		if err := h.Desktop.Shutdown(ctx, delay, restart); err != nil {
			return nil, err
		}
		return command.OK("%s in %d seconds", verb, int(delay.Seconds())), nil
	}
}

func (h *handlers) cancelShutdown(ctx context.Context, _ command.Params) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.CancelShutdown(ctx); err != nil {
		return nil, err
	}
	return command.OK("Shutdown cancelled"), nil
}

func (h *handlers) sleep(ctx context.Context, _ command.Params) (*command.Result, error) {
	if err := h.desktopAvailable(); err != nil {
		return nil, err
	}
	if err := h.Desktop.Sleep(ctx); err != nil {
		return nil, err
	}
	return command.OK("Going to sleep"), nil
}

func (h *handlers) mediaKey(key desktop.MediaKey, msg string) registry.HandlerFunc {
	return func(ctx context.Context, _ command.Params) (*command.Result, error) {
		if err := h.desktopAvailable(); err != nil {
			return nil, err
		}
		if err := h.Desktop.Media(ctx, key); err != nil {
			return nil, err
		}
		return command.OK("%s", msg), nil
	}
}
