// Package contacts is the address book used by the messaging handlers.
package contacts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/nadzzz/deskpilot/internal/store"
)

// ErrNotFound is returned when no contact has the given name.
var ErrNotFound = errors.New("contact not found")

// Contact is one address book entry.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	// Slack is a Slack member or channel ID used by send_message.
	Slack string `json:"slack,omitempty"`
}

// Book is a contacts file keyed by lowercased name.
type Book struct {
	mu       sync.Mutex
	file     *store.File[map[string]Contact]
	contacts map[string]Contact
}

// Open loads the address book at path.
func Open(path string) (*Book, error) {
	f := store.NewFile[map[string]Contact](path)
	m, err := f.Load()
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}
	if m == nil {
		m = make(map[string]Contact)
	}
	return &Book{file: f, contacts: m}, nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Add creates or replaces a contact.
func (b *Book) Add(c Contact) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errors.New("contact name is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contacts[key(c.Name)] = c
	return b.file.Save(b.contacts)
}

// Get looks a contact up by exact (case-insensitive) name.
func (b *Book) Get(name string) (Contact, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contacts[key(name)]
	if !ok {
		return Contact{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return c, nil
}

// Find returns the exact match if there is one, otherwise the best fuzzy
// match.
func (b *Book) Find(name string) (Contact, error) {
	if c, err := b.Get(name); err == nil {
		return c, nil
	}
	matches := b.Search(name)
	if len(matches) == 0 {
		return Contact{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return matches[0], nil
}

// Delete removes a contact.
func (b *Book) Delete(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := key(name)
	if _, ok := b.contacts[k]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(b.contacts, k)
	return b.file.Save(b.contacts)
}

// List returns every contact sorted by name.
func (b *Book) List() []Contact {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Contact, 0, len(b.contacts))
	for _, c := range b.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i].Name) < key(out[j].Name) })
	return out
}

// Search fuzzy-matches query against contact names, best match first.
func (b *Book) Search(query string) []Contact {
	all := b.List()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = strings.ToLower(c.Name)
	}
	matches := fuzzy.Find(strings.ToLower(strings.TrimSpace(query)), names)
	out := make([]Contact, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out
}
