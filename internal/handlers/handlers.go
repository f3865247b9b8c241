// Package handlers implements every canonical action and registers it with
// a registry.Builder.
//
// Each group lives in its own file. Handlers take a typed parameter struct
// and return typed errors; registry.Execute turns those into results.
package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/nadzzz/deskpilot/internal/contacts"
	"github.com/nadzzz/deskpilot/internal/desktop"
	"github.com/nadzzz/deskpilot/internal/history"
	"github.com/nadzzz/deskpilot/internal/messaging"
	"github.com/nadzzz/deskpilot/internal/notes"
	"github.com/nadzzz/deskpilot/internal/organizer"
	"github.com/nadzzz/deskpilot/internal/registry"
	"github.com/nadzzz/deskpilot/internal/schedule"
	"github.com/nadzzz/deskpilot/internal/sysmon"
	"github.com/nadzzz/deskpilot/internal/workflow"
)

// ErrUnavailable is returned by handlers whose backing feature is disabled.
var ErrUnavailable = errors.New("feature is not enabled")

// Monitor is the part of sysmon.Monitor the system handlers use.
type Monitor interface {
	Snapshot(ctx context.Context) (*sysmon.Snapshot, error)
	CPU(ctx context.Context) (sysmon.CPU, error)
	Memory(ctx context.Context) (sysmon.Memory, error)
	Disk(ctx context.Context, path string) (sysmon.Disk, error)
	TopProcesses(ctx context.Context, limit int) ([]sysmon.Process, error)
}

// Deps are the services handlers operate on. Any nil service makes its
// actions fail with ErrUnavailable; the actions stay registered.
type Deps struct {
	Desktop   desktop.Controller
	Monitor   Monitor
	Organizer *organizer.Organizer
	Notes     *notes.Store
	Contacts  *contacts.Book
	Workflows *workflow.Store
	Schedules *schedule.Scheduler
	History   *history.Log
	Messenger messaging.Sender

	// Folders maps spoken folder names ("downloads") to paths.
	Folders map[string]string
	// ScreenshotDir receives screenshots saved without a path.
	ScreenshotDir string
	// SearchURL is the web search prefix; the query is appended escaped.
	SearchURL string
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultFolders returns the standard user folders under the home directory.
func DefaultFolders() map[string]string {
	home, err := os.UserHomeDir()
	if err != nil {
		return map[string]string{}
	}
	return map[string]string{
		"home":      home,
		"desktop":   filepath.Join(home, "Desktop"),
		"documents": filepath.Join(home, "Documents"),
		"downloads": filepath.Join(home, "Downloads"),
		"pictures":  filepath.Join(home, "Pictures"),
		"music":     filepath.Join(home, "Music"),
		"videos":    filepath.Join(home, "Videos"),
	}
}

type handlers struct {
	Deps
}

func (h *handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Register adds every action group to b.
func Register(b *registry.Builder, d Deps) *registry.Builder {
	if d.Messenger == nil {
		d.Messenger = messaging.Disabled{}
	}
	if d.Folders == nil {
		d.Folders = DefaultFolders()
	}
	if d.SearchURL == "" {
		d.SearchURL = "https://www.google.com/search?q="
	}
	h := &handlers{Deps: d}
	h.registerDesktop(b)
	h.registerMedia(b)
	h.registerSystem(b)
	h.registerFiles(b)
	h.registerNotes(b)
	h.registerContacts(b)
	h.registerWorkflows(b)
	h.registerSchedules(b)
	h.registerHistory(b)
	h.registerClock(b)
	return b
}
