// Package notes keeps quick notes with categories and tags.
package notes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/deskpilot/internal/store"
)

// ErrNotFound is returned for an unknown note ID.
var ErrNotFound = errors.New("note not found")

// DefaultCategory is used when a note has none.
const DefaultCategory = "general"

// Note is one saved note.
type Note struct {
	ID       int       `json:"id"`
	Content  string    `json:"content"`
	Category string    `json:"category"`
	Tags     []string  `json:"tags"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Pinned   bool      `json:"pinned"`
}

// Store is the notes file.
type Store struct {
	mu    sync.Mutex
	file  *store.File[[]Note]
	notes []Note
	now   func() time.Time
}

// Open loads the notes at path.
func Open(path string) (*Store, error) {
	f := store.NewFile[[]Note](path)
	notes, err := f.Load()
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}
	return &Store{file: f, notes: notes, now: time.Now}, nil
}

// Add saves a new note and returns it.
func (s *Store) Add(content, category string, tags []string) (Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Note{}, errors.New("note content is required")
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = DefaultCategory
	}
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := 1
	for _, n := range s.notes {
		if n.ID >= id {
			id = n.ID + 1
		}
	}
	now := s.now()
	n := Note{ID: id, Content: content, Category: category, Tags: tags, Created: now, Modified: now}
	s.notes = append(s.notes, n)
	if err := s.file.Save(s.notes); err != nil {
		s.notes = s.notes[:len(s.notes)-1]
		return Note{}, err
	}
	return n, nil
}

// List returns notes newest first, optionally filtered by category.
// Pinned notes sort ahead of the rest. A limit of zero means no limit.
func (s *Store) List(category string, limit int) []Note {
	category = strings.ToLower(strings.TrimSpace(category))
	s.mu.Lock()
	out := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		if category == "" || n.Category == category {
			out = append(out, n)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Search matches query against content, category and tags.
func (s *Store) Search(query string) []Note {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Note
	for _, n := range s.List("", 0) {
		if strings.Contains(strings.ToLower(n.Content), q) || strings.Contains(n.Category, q) || hasTag(n.Tags, q) {
			out = append(out, n)
		}
	}
	return out
}

func hasTag(tags []string, q string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Pin marks a note as pinned.
func (s *Store) Pin(id int, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i].Pinned = pinned
			s.notes[i].Modified = s.now()
			return s.file.Save(s.notes)
		}
	}
	return fmt.Errorf("%w: #%d", ErrNotFound, id)
}

// Delete removes a note by ID.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i:i], s.notes[i+1:]...)
			return s.file.Save(s.notes)
		}
	}
	return fmt.Errorf("%w: #%d", ErrNotFound, id)
}

// Categories returns note counts per category.
func (s *Store) Categories() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, n := range s.notes {
		out[n.Category]++
	}
	return out
}
