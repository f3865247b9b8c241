// Package workflow stores named multi-step command templates.
package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/store"
)

// ErrNotFound is returned for an unknown template name.
var ErrNotFound = errors.New("workflow not found")

// Template is a saved sequence of steps.
type Template struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Steps       []command.Step `json:"steps"`
	Created     time.Time      `json:"created"`
	UsageCount  int            `json:"usage_count"`
}

// Summary is the list view of a template.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StepsCount  int    `json:"steps_count"`
	UsageCount  int    `json:"usage_count"`
}

// Store is the workflow templates file, keyed by name.
type Store struct {
	mu        sync.Mutex
	file      *store.File[map[string]Template]
	templates map[string]Template
	now       func() time.Time
}

// Open loads the templates at path.
func Open(path string) (*Store, error) {
	f := store.NewFile[map[string]Template](path)
	m, err := f.Load()
	if err != nil {
		return nil, fmt.Errorf("loading workflows: %w", err)
	}
	if m == nil {
		m = make(map[string]Template)
	}
	return &Store{file: f, templates: m, now: time.Now}, nil
}

// Save creates or replaces a template. Replacing keeps the usage count.
func (s *Store) Save(name, description string, steps []command.Step) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, errors.New("workflow name is required")
	}
	if len(steps) == 0 {
		return Template{}, errors.New("workflow needs at least one step")
	}
	for i, st := range steps {
		if strings.TrimSpace(st.Action) == "" {
			return Template{}, fmt.Errorf("step %d has no action", i+1)
		}
		if steps[i].Parameters == nil {
			steps[i].Parameters = command.Params{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := Template{Name: name, Description: description, Steps: steps, Created: s.now()}
	if old, ok := s.templates[name]; ok {
		t.Created = old.Created
		t.UsageCount = old.UsageCount
	}
	s.templates[name] = t
	if err := s.file.Save(s.templates); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Load returns a template and records one use of it.
func (s *Store) Load(name string) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[strings.TrimSpace(name)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	t.UsageCount++
	s.templates[t.Name] = t
	if err := s.file.Save(s.templates); err != nil {
		return Template{}, err
	}
	return t, nil
}

// Delete removes a template.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.TrimSpace(name)
	if _, ok := s.templates[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.templates, name)
	return s.file.Save(s.templates)
}

// List returns every template sorted by name.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Summary, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, Summary{
			Name:        t.Name,
			Description: t.Description,
			StepsCount:  len(t.Steps),
			UsageCount:  t.UsageCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EnsureDefaults adds the built-in templates that are not already present.
func (s *Store) EnsureDefaults() error {
	for _, d := range s.defaults() {
		s.mu.Lock()
		_, exists := s.templates[d.Name]
		s.mu.Unlock()
		if exists {
			continue
		}
		if _, err := s.Save(d.Name, d.Description, d.Steps); err != nil {
			return fmt.Errorf("saving default workflow %s: %w", d.Name, err)
		}
	}
	return nil
}

func (s *Store) defaults() []Template {
	return []Template{
		{
			Name:        "morning_routine",
			Description: "Open common apps for morning work",
			Steps: []command.Step{
				{Action: command.OpenApp, Parameters: command.Params{"app_name": "chrome"}},
				{Action: command.Wait, Parameters: command.Params{"seconds": 2}},
				{Action: command.OpenApp, Parameters: command.Params{"app_name": "notepad"}},
			},
		},
		{
			Name:        "take_notes",
			Description: "Open an editor and start a dated note",
			Steps: []command.Step{
				{Action: command.OpenApp, Parameters: command.Params{"app_name": "notepad"}},
				{Action: command.Wait, Parameters: command.Params{"seconds": 1}},
				{Action: command.TypeText, Parameters: command.Params{"text": "Notes - " + s.now().Format("2006-01-02") + "\n\n"}},
			},
		},
	}
}
