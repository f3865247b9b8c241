// Package voice maps spoken phrases to actions without calling the AI.
//
// Input is normalized (lowercased, punctuation stripped, whitespace
// collapsed) and checked against an ordered rule list; the first rule that
// matches wins. Keywords are matched as whole words or phrases.
package voice

import (
	"strings"
	"unicode"

	"github.com/nadzzz/deskpilot/internal/command"
)

// DefaultWakeWords are stripped from the front of an utterance.
var DefaultWakeWords = []string{"hey deskpilot", "ok deskpilot", "deskpilot", "hey computer", "computer", "hello"}

// Match is the outcome of a successful keyword match.
type Match struct {
	Action string
	Args   []string
}

// String renders the match as "action|arg1|arg2".
func (m Match) String() string {
	return strings.Join(append([]string{m.Action}, m.Args...), "|")
}

// argNames names the parameters positional args fill, per action.
var argNames = map[string][]string{
	command.OpenApp:      {"app_name"},
	command.CloseApp:     {"app_name"},
	command.OpenURL:      {"url"},
	command.OpenFolder:   {"folder_name"},
	command.WebSearch:    {"query"},
	command.TypeText:     {"text"},
	command.PressKey:     {"key"},
	command.Copy:         {"text"},
	command.CreateNote:   {"content"},
	command.PlayMusic:    {"query"},
	command.LoadWorkflow: {"name"},
	command.GetContact:   {"name"},
	command.SearchFiles:  {"pattern"},
}

// Command converts the match into a command with named parameters.
func (m Match) Command() *command.Command {
	params := command.Params{}
	names := argNames[m.Action]
	for i, arg := range m.Args {
		if i < len(names) {
			params[names[i]] = arg
		}
	}
	return &command.Command{
		Action:      m.Action,
		Parameters:  params,
		Description: "voice: " + m.String(),
	}
}

// Matcher holds the wake words and rule table.
type Matcher struct {
	wakeWords []string
	rules     []rule
}

// New creates a matcher. A nil wakeWords list uses DefaultWakeWords.
func New(wakeWords []string) *Matcher {
	if wakeWords == nil {
		wakeWords = DefaultWakeWords
	}
	ww := make([]string, 0, len(wakeWords))
	for _, w := range wakeWords {
		if n := Normalize(w); n != "" {
			ww = append(ww, n)
		}
	}
	return &Matcher{wakeWords: ww, rules: defaultRules()}
}

// Match maps text to an action. The session, if non-nil, supplies the last
// match and last app for "repeat that" and "close it", and is updated on
// success. Unrecognized text returns ok=false.
func (m *Matcher) Match(s *Session, text string) (Match, bool) {
	t, _ := m.StripWakeWord(Normalize(text))
	if t == "" {
		return Match{}, false
	}
	in := input{text: t, padded: " " + t + " ", session: s}
	for _, r := range m.rules {
		res, ok := r.apply(&in)
		if !ok {
			continue
		}
		if s != nil {
			s.remember(res)
		}
		return res, true
	}
	return Match{}, false
}

// StripWakeWord removes a leading wake word. The returned text is normalized.
func (m *Matcher) StripWakeWord(text string) (string, bool) {
	t := Normalize(text)
	for _, w := range m.wakeWords {
		if rest, ok := cutLeading(t, w); ok {
			return rest, true
		}
	}
	return t, false
}

// Normalize lowercases text, drops punctuation and collapses whitespace.
func Normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'' || r == '’':
			// "what's" -> "whats"
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// cutLeading reports whether t starts with the whole phrase p and returns
// the remainder.
func cutLeading(t, p string) (string, bool) {
	if t == p {
		return "", true
	}
	if strings.HasPrefix(t, p+" ") {
		return strings.TrimSpace(t[len(p):]), true
	}
	return "", false
}
