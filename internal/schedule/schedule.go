// Package schedule launches apps at a fixed time every day.
//
// Entries persist in a JSON file and are registered with a cron runner on
// open, so schedules survive restarts.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/nadzzz/deskpilot/internal/store"
)

// TopicFired is the event topic a run is published on.
const TopicFired = "schedule.fired"

// ErrNotFound is returned for an unknown schedule ID.
var ErrNotFound = errors.New("schedule not found")

// LaunchFunc opens one app.
type LaunchFunc func(ctx context.Context, app string) error

// Publisher receives a notice after each run.
type Publisher interface {
	Publish(topic string, payload any)
}

// Entry is one daily launch.
type Entry struct {
	ID      string    `json:"id"`
	Time    string    `json:"time"`
	Apps    []string  `json:"apps"`
	Enabled bool      `json:"enabled"`
	Created time.Time `json:"created"`
}

// Fired is the payload published after a run.
type Fired struct {
	ID     string   `json:"id"`
	Time   string   `json:"time"`
	Opened []string `json:"opened"`
	Failed []string `json:"failed,omitempty"`
}

// Scheduler owns the cron runner and the schedules file.
type Scheduler struct {
	mu      sync.Mutex
	file    *store.File[[]Entry]
	entries []Entry
	jobs    map[string]cron.EntryID
	cron    *cron.Cron
	launch  LaunchFunc
	pub     Publisher
	timeout time.Duration
}

// Open loads the schedules at path and registers the enabled ones. The
// runner does not fire until Start.
func Open(path string, launch LaunchFunc, pub Publisher) (*Scheduler, error) {
	f := store.NewFile[[]Entry](path)
	entries, err := f.Load()
	if err != nil {
		return nil, fmt.Errorf("loading schedules: %w", err)
	}
	s := &Scheduler{
		file:    f,
		entries: entries,
		jobs:    make(map[string]cron.EntryID),
		cron:    cron.New(),
		launch:  launch,
		pub:     pub,
		timeout: time.Minute,
	}
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		if err := s.register(e); err != nil {
			slog.Warn("skipping invalid schedule", "id", e.ID, "time", e.Time, "error", err)
		}
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("app scheduler started", "schedules", len(s.List()))
}

// Stop halts the runner and waits for running launches.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Spec converts "HH:MM" into a daily cron expression.
func Spec(clock string) (string, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func parseClock(clock string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(clock), ":")
	if !ok {
		return 0, 0, fmt.Errorf("time %q is not HH:MM", clock)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("time %q has an invalid hour", clock)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q has an invalid minute", clock)
	}
	return hour, minute, nil
}

// Add creates and registers a daily launch.
func (s *Scheduler) Add(clock string, apps []string) (Entry, error) {
	var cleaned []string
	for _, a := range apps {
		if a = strings.TrimSpace(a); a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		return Entry{}, errors.New("at least one app is required")
	}
	hour, minute, err := parseClock(clock)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:      uuid.NewString()[:8],
		Time:    fmt.Sprintf("%02d:%02d", hour, minute),
		Apps:    cleaned,
		Enabled: true,
		Created: time.Now(),
	}
	if err := s.register(e); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if err := s.file.Save(s.entries); err != nil {
		s.cron.Remove(s.jobs[e.ID])
		delete(s.jobs, e.ID)
		s.entries = s.entries[:len(s.entries)-1]
		return Entry{}, err
	}
	return e, nil
}

// Cancel unregisters and deletes a launch.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID != id {
			continue
		}
		if job, ok := s.jobs[id]; ok {
			s.cron.Remove(job)
			delete(s.jobs, id)
		}
		s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
		return s.file.Save(s.entries)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns every entry ordered by time of day.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Entry(nil), s.entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Next returns when an entry fires next, or the zero time if it is not
// registered.
func (s *Scheduler) Next(id string) time.Time {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(job).Next
}

func (s *Scheduler) register(e Entry) error {
	spec, err := Spec(e.Time)
	if err != nil {
		return err
	}
	job, err := s.cron.AddFunc(spec, func() { s.Run(context.Background(), e) })
	if err != nil {
		return fmt.Errorf("registering schedule %s: %w", e.ID, err)
	}
	s.mu.Lock()
	s.jobs[e.ID] = job
	s.mu.Unlock()
	return nil
}

// Run launches an entry's apps now. A failed app does not stop the rest.
func (s *Scheduler) Run(ctx context.Context, e Entry) Fired {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fired := Fired{ID: e.ID, Time: e.Time}
	for _, app := range e.Apps {
		if err := s.launch(ctx, app); err != nil {
			slog.Warn("scheduled launch failed", "id", e.ID, "app", app, "error", err)
			fired.Failed = append(fired.Failed, app)
			continue
		}
		fired.Opened = append(fired.Opened, app)
	}
	slog.Info("schedule fired", "id", e.ID, "opened", len(fired.Opened), "failed", len(fired.Failed))
	if s.pub != nil {
		s.pub.Publish(TopicFired, fired)
	}
	return fired
}
