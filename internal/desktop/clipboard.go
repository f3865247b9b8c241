package desktop

import (
	"errors"
	"sync"

	"golang.design/x/clipboard"
)

// ErrClipboardUnavailable is returned when the OS clipboard could not be
// initialized (for example a headless Linux session without X11).
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

type clipboardService struct {
	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
}

func newClipboardService() *clipboardService {
	return &clipboardService{}
}

// init lazily initializes the clipboard.
func (c *clipboardService) init() error {
	c.initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			c.initErr = errors.Join(ErrClipboardUnavailable, err)
		}
	})
	return c.initErr
}

func (c *clipboardService) Write(text string) error {
	if err := c.init(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (c *clipboardService) Read() (string, error) {
	if err := c.init(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(clipboard.Read(clipboard.FmtText)), nil
}
