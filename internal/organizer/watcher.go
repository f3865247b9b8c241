package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TopicOrganized is the event topic each auto-organized file is published on.
const TopicOrganized = "downloads.organized"

// Publisher receives a Move after each auto-organized file.
type Publisher interface {
	Publish(topic string, payload any)
}

// Watcher organizes files as they land in the directory. A file is moved
// once it has stopped changing for the settle delay.
type Watcher struct {
	org    *Organizer
	pub    Publisher
	settle time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher wraps an organizer. settle defaults to two seconds.
func NewWatcher(org *Organizer, pub Publisher, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{org: org, pub: pub, settle: settle, timers: make(map[string]*time.Timer)}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.org.Dir()); err != nil {
		return fmt.Errorf("watching %s: %w", w.org.Dir(), err)
	}
	slog.Info("downloads watcher started", "dir", w.org.Dir(), "settle", w.settle)

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			slog.Info("downloads watcher stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(w.org.Dir()) || skip(filepath.Base(ev.Name)) {
				continue
			}
			w.schedule(ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("downloads watcher error", "error", err)
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.organize(path)
	})
}

func (w *Watcher) organize(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	m, err := w.org.MoveFile(path)
	if err != nil {
		slog.Debug("auto-organize skipped", "file", path, "error", err)
		return
	}
	slog.Info("download organized", "file", m.File, "category", m.Category)
	if w.pub != nil {
		w.pub.Publish(TopicOrganized, m)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
}
