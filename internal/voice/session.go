package voice

import (
	"sync"

	"github.com/nadzzz/deskpilot/internal/command"
)

// Session carries the context of one speaker across utterances.
type Session struct {
	mu      sync.Mutex
	last    *Match
	lastApp string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Last returns the most recent successful match.
func (s *Session) Last() (Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Match{}, false
	}
	return *s.last, true
}

// LastApp returns the app most recently opened through the matcher.
func (s *Session) LastApp() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApp
}

func (s *Session) remember(m Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := Match{Action: m.Action, Args: append([]string(nil), m.Args...)}
	s.last = &cp
	if m.Action == command.OpenApp && len(m.Args) > 0 {
		s.lastApp = m.Args[0]
	}
}
