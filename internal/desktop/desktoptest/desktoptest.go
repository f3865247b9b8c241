// Package desktoptest provides an in-memory desktop.Controller for tests.
package desktoptest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/deskpilot/internal/desktop"
)

// Controller records every call and never touches the host.
type Controller struct {
	mu        sync.Mutex
	Calls     []string
	Clipboard string
	X, Y      int

	// Fail makes every call whose recorded name starts with the key fail.
	Fail map[string]error
}

// New returns an empty recorder.
func New() *Controller {
	return &Controller{Fail: map[string]error{}}
}

var _ desktop.Controller = (*Controller)(nil)

func (c *Controller) record(format string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	call := fmt.Sprintf(format, args...)
	c.Calls = append(c.Calls, call)
	for prefix, err := range c.Fail {
		if strings.HasPrefix(call, prefix) {
			return err
		}
	}
	return nil
}

// Recorded returns a copy of the calls made so far.
func (c *Controller) Recorded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Calls...)
}

func (c *Controller) OpenApp(_ context.Context, name string) error {
	return c.record("open_app %s", name)
}

func (c *Controller) CloseApp(_ context.Context, name string) error {
	return c.record("close_app %s", name)
}

func (c *Controller) OpenURL(_ context.Context, url string) error {
	return c.record("open_url %s", url)
}

func (c *Controller) OpenPath(_ context.Context, path string) error {
	return c.record("open_path %s", path)
}

func (c *Controller) TypeText(_ context.Context, text string) error {
	return c.record("type %s", text)
}

func (c *Controller) PressKey(_ context.Context, key string) error {
	return c.record("key %s", key)
}

func (c *Controller) Hotkey(_ context.Context, keys []string) error {
	return c.record("hotkey %s", strings.Join(keys, "+"))
}

func (c *Controller) Screenshot(_ context.Context, path string) error {
	return c.record("screenshot %s", path)
}

func (c *Controller) MousePosition(context.Context) (int, int, error) {
	if err := c.record("mouse_position"); err != nil {
		return 0, 0, err
	}
	return c.X, c.Y, nil
}

func (c *Controller) ClipboardWrite(text string) error {
	if err := c.record("clipboard_write %s", text); err != nil {
		return err
	}
	c.mu.Lock()
	c.Clipboard = text
	c.mu.Unlock()
	return nil
}

func (c *Controller) ClipboardRead() (string, error) {
	if err := c.record("clipboard_read"); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Clipboard, nil
}

func (c *Controller) Notify(title, message string) error {
	return c.record("notify %s: %s", title, message)
}

func (c *Controller) Lock(context.Context) error {
	return c.record("lock")
}

func (c *Controller) Shutdown(_ context.Context, delay time.Duration, restart bool) error {
	if restart {
		return c.record("restart %s", delay)
	}
	return c.record("shutdown %s", delay)
}

func (c *Controller) CancelShutdown(context.Context) error {
	return c.record("cancel_shutdown")
}

func (c *Controller) Sleep(context.Context) error {
	return c.record("sleep")
}

func (c *Controller) Media(_ context.Context, key desktop.MediaKey) error {
	return c.record("media %s", key)
}
