package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/deskpilot/internal/command"
)

func TestMatch(t *testing.T) {
	m := New(nil)

	tests := []struct {
		text string
		want string
	}{
		{"search python tutorial", "web_search|python tutorial"},
		{"Search for best laptop!", "web_search|best laptop"},
		{"google golang generics", "web_search|golang generics"},
		{"look up the weather", "web_search|the weather"},
		{"find information about mars", "web_search|mars"},
		{"search", "web_search"},
		{"open chrome", "open_app|chrome"},
		{"Open Chrome.", "open_app|chrome"},
		{"launch the browser", "open_app|chrome"},
		{"open vs code", "open_app|code"},
		{"open research paper", "open_app|research paper"},
		{"open youtube", "open_url|https://youtube.com"},
		{"open downloads folder", "open_folder|Downloads"},
		{"open project folder", "open_folder|project"},
		{"play research playlist", "play_music|research playlist"},
		{"play lofi beats on spotify", "play_music|lofi beats"},
		{"play music", "music_play"},
		{"pause", "music_pause"},
		{"next song", "music_next"},
		{"close spotify", "close_app|spotify"},
		{"lock the screen", "lock_screen"},
		{"restart", "restart"},
		{"shut down the computer", "shutdown"},
		{"cancel the shutdown", "cancel_shutdown"},
		{"turn up the volume", "volume_up"},
		{"mute", "mute"},
		{"take a screenshot", "screenshot"},
		{"copy hello world to clipboard", "copy|hello world"},
		{"clear the clipboard", "clear_clipboard"},
		{"type good morning", "type_text|good morning"},
		{"type the word clipboard", "type_text|the word clipboard"},
		{"type please paste this", "type_text|please paste this"},
		{"dictate clear the clipboard", "type_text|clear the clipboard"},
		{"type open chrome", "type_text|open chrome"},
		{"paste", "paste"},
		{"read clipboard", "paste"},
		{"take a note buy milk", "create_note|buy milk"},
		{"show notes", "list_notes"},
		{"run workflow morning routine", "load_workflow|morning routine"},
		{"organize my downloads", "organize_downloads"},
		{"system report", "system_report"},
		{"how much memory is free", "check_memory"},
		{"what's the time", "get_time"},
		{"what is the date today", "get_date"},
		{"show history", "show_history"},
		{"find files named report", "search_files|report"},
		{"hey deskpilot open chrome", "open_app|chrome"},
		{"computer, search cats", "web_search|cats"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := m.Match(NewSession(), tt.text)
			require.True(t, ok, "no match for %q", tt.text)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResearchNeverSearches(t *testing.T) {
	m := New(nil)
	for _, text := range []string{
		"open research paper",
		"play research playlist",
		"research",
		"please research this",
		"open the research folder",
	} {
		got, ok := m.Match(NewSession(), text)
		if ok {
			assert.NotEqual(t, command.WebSearch, got.Action, text)
		}
	}
}

func TestNoMatch(t *testing.T) {
	m := New(nil)
	for _, text := range []string{"asdkjasd", "", "   ", "?!", "restart chrome", "close it", "hello"} {
		_, ok := m.Match(NewSession(), text)
		assert.False(t, ok, "unexpected match for %q", text)
	}
}

func TestMatchIsIdempotent(t *testing.T) {
	m := New(nil)
	s := NewSession()
	for _, text := range []string{"search python tutorial", "open chrome", "repeat that", "close it"} {
		first, ok1 := m.Match(s, text)
		second, ok2 := m.Match(s, text)
		assert.Equal(t, ok1, ok2, text)
		assert.Equal(t, first, second, text)
	}
}

func TestSessionContext(t *testing.T) {
	m := New(nil)
	s := NewSession()

	_, ok := m.Match(s, "repeat that")
	assert.False(t, ok)

	_, ok = m.Match(s, "open spotify")
	require.True(t, ok)
	assert.Equal(t, "spotify", s.LastApp())

	got, ok := m.Match(s, "do it again")
	require.True(t, ok)
	assert.Equal(t, "open_app|spotify", got.String())

	got, ok = m.Match(s, "close it")
	require.True(t, ok)
	assert.Equal(t, "close_app|spotify", got.String())

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, command.CloseApp, last.Action)

	// Sessions never share state.
	_, ok = m.Match(NewSession(), "close it")
	assert.False(t, ok)
}

func TestStripWakeWord(t *testing.T) {
	m := New([]string{"Hey Jarvis", "computer"})

	rest, found := m.StripWakeWord("Hey Jarvis, open chrome")
	assert.True(t, found)
	assert.Equal(t, "open chrome", rest)

	rest, found = m.StripWakeWord("computer open chrome")
	assert.True(t, found)
	assert.Equal(t, "open chrome", rest)

	rest, found = m.StripWakeWord("computers are great")
	assert.False(t, found)
	assert.Equal(t, "computers are great", rest)
}

func TestMatchCommand(t *testing.T) {
	m := New(nil)

	got, ok := m.Match(nil, "open chrome")
	require.True(t, ok)
	cmd := got.Command()
	assert.Equal(t, command.OpenApp, cmd.Action)
	assert.Equal(t, command.Params{"app_name": "chrome"}, cmd.Parameters)

	got, ok = m.Match(nil, "search python tutorial")
	require.True(t, ok)
	assert.Equal(t, "python tutorial", got.Command().Parameters.String("query"))

	got, ok = m.Match(nil, "mute")
	require.True(t, ok)
	assert.Empty(t, got.Command().Parameters)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "whats the time", Normalize("  What's   the TIME? "))
	assert.Equal(t, "hello world", Normalize("hello,world"))
	assert.Equal(t, "", Normalize("!!!"))
}
