package voice

import (
	"strings"

	"github.com/nadzzz/deskpilot/internal/command"
)

type input struct {
	text    string
	padded  string
	session *Session
}

func (in *input) has(phrase string) bool {
	return strings.Contains(in.padded, " "+phrase+" ")
}

func (in *input) hasAny(phrases []string) bool {
	for _, p := range phrases {
		if in.has(p) {
			return true
		}
	}
	return false
}

// rule fires when every condition holds. leading phrases must open the
// utterance and whatever follows them is handed to build.
type rule struct {
	leading []string
	all     []string
	any     []string
	none    []string
	action  string
	build   func(in *input, rest string) (Match, bool)
}

func (r rule) apply(in *input) (Match, bool) {
	rest := in.text
	if len(r.leading) > 0 {
		found := false
		for _, p := range r.leading {
			if tail, ok := cutLeading(in.text, p); ok {
				rest, found = tail, true
				break
			}
		}
		if !found {
			return Match{}, false
		}
	}
	for _, p := range r.all {
		if !in.has(p) {
			return Match{}, false
		}
	}
	if len(r.any) > 0 && !in.hasAny(r.any) {
		return Match{}, false
	}
	if in.hasAny(r.none) {
		return Match{}, false
	}
	if r.build != nil {
		return r.build(in, rest)
	}
	return Match{Action: r.action}, true
}

// withRest emits action|rest, trimming the given suffixes from rest.
// An empty rest fails the rule unless optional is set.
func withRest(action string, optional bool, suffixes ...string) func(*input, string) (Match, bool) {
	return func(_ *input, rest string) (Match, bool) {
		rest = trimSuffixes(rest, suffixes...)
		if rest == "" {
			return Match{Action: action}, optional
		}
		return Match{Action: action, Args: []string{rest}}, true
	}
}

func trimSuffixes(s string, suffixes ...string) string {
	for _, suf := range suffixes {
		if s == suf {
			return ""
		}
		s = strings.TrimSuffix(s, " "+suf)
	}
	return strings.TrimSpace(s)
}

var pronouns = map[string]bool{"it": true, "that": true, "this": true, "that app": true, "this app": true}

var sites = map[string]string{
	"youtube":   "https://youtube.com",
	"gmail":     "https://gmail.com",
	"email":     "https://gmail.com",
	"mail":      "https://gmail.com",
	"twitter":   "https://twitter.com",
	"facebook":  "https://facebook.com",
	"instagram": "https://instagram.com",
	"github":    "https://github.com",
	"linkedin":  "https://linkedin.com",
	"reddit":    "https://reddit.com",
}

var folders = map[string]string{
	"desktop":   "Desktop",
	"documents": "Documents",
	"downloads": "Downloads",
	"pictures":  "Pictures",
	"music":     "Music",
	"videos":    "Videos",
	"home":      "Home",
}

// appNames folds spoken app names onto the names the desktop controller knows.
var appNames = map[string]string{
	"browser":            "chrome",
	"google chrome":      "chrome",
	"vs code":            "code",
	"vscode":             "code",
	"visual studio code": "code",
	"calc":               "calculator",
	"file explorer":      "files",
	"explorer":           "files",
	"file manager":       "files",
	"command prompt":     "terminal",
	"cmd":                "terminal",
	"powershell":         "terminal",
}

func buildOpen(_ *input, rest string) (Match, bool) {
	rest = strings.TrimPrefix(rest, "the ")
	rest = strings.TrimPrefix(rest, "my ")
	rest = trimSuffixes(rest, "app", "application", "please")
	if rest == "" {
		return Match{}, false
	}
	if url, ok := sites[rest]; ok {
		return Match{Action: command.OpenURL, Args: []string{url}}, true
	}
	name := trimSuffixes(rest, "folder", "directory")
	if f, ok := folders[name]; ok {
		return Match{Action: command.OpenFolder, Args: []string{f}}, true
	}
	if name != rest {
		return Match{Action: command.OpenFolder, Args: []string{name}}, true
	}
	if app, ok := appNames[rest]; ok {
		rest = app
	}
	return Match{Action: command.OpenApp, Args: []string{rest}}, true
}

func buildClose(in *input, rest string) (Match, bool) {
	rest = trimSuffixes(strings.TrimPrefix(rest, "the "), "app", "application", "window", "please")
	if rest == "" || pronouns[rest] {
		if in.session == nil {
			return Match{}, false
		}
		rest = in.session.LastApp()
		if rest == "" {
			return Match{}, false
		}
	}
	if app, ok := appNames[rest]; ok {
		rest = app
	}
	return Match{Action: command.CloseApp, Args: []string{rest}}, true
}

func buildSearch(_ *input, rest string) (Match, bool) {
	rest = strings.TrimSpace(strings.TrimPrefix(rest+" ", "for "))
	if rest == "" {
		return Match{Action: command.WebSearch}, true
	}
	return Match{Action: command.WebSearch, Args: []string{rest}}, true
}

func buildPlay(_ *input, rest string) (Match, bool) {
	rest = trimSuffixes(rest, "on spotify", "spotify", "please")
	switch rest {
	case "", "music", "some music", "the music", "song", "a song":
		return Match{Action: command.MusicPlay}, true
	}
	return Match{Action: command.PlayMusic, Args: []string{rest}}, true
}

var machineWords = map[string]bool{
	"": true, "now": true, "computer": true, "the computer": true, "pc": true,
	"the pc": true, "system": true, "the system": true, "laptop": true, "the laptop": true,
}

// bare fires only when the verb stands alone or names the machine itself,
// so "restart chrome" never reboots.
func bare(action string) func(*input, string) (Match, bool) {
	return func(_ *input, rest string) (Match, bool) {
		if !machineWords[trimSuffixes(rest, "please")] {
			return Match{}, false
		}
		return Match{Action: action}, true
	}
}

func buildRepeat(in *input, _ string) (Match, bool) {
	if in.session == nil {
		return Match{}, false
	}
	return in.session.Last()
}

// defaultRules is ordered: the first matching rule wins.
func defaultRules() []rule {
	return []rule{
		// Dictation goes first so its text never triggers another rule.
		{leading: []string{"type", "dictate"}, build: withRest(command.TypeText, false)},

		{any: []string{"repeat that", "repeat last", "repeat the last command", "do it again", "do that again", "same again"}, build: buildRepeat},

		{leading: []string{"find files named", "find file named", "find files", "find file", "locate file", "search files for"},
			build: withRest(command.SearchFiles, false)},
		{leading: []string{"search", "google", "lookup", "look up", "look for", "find information about"}, build: buildSearch},

		{leading: []string{"run workflow", "load workflow", "start workflow", "run the workflow", "start the workflow"},
			build: withRest(command.LoadWorkflow, false)},
		{any: []string{"list workflows", "show workflows", "my workflows"}, action: command.ListWorkflows},
		{any: []string{"list schedules", "show schedules", "scheduled apps", "my schedules"}, action: command.ListSchedules},
		{any: []string{"list contacts", "show contacts", "my contacts"}, action: command.ListContacts},
		{leading: []string{"show contact", "get contact", "find contact", "contact details for"},
			build: withRest(command.GetContact, false)},

		{leading: []string{"open", "launch", "start", "run"}, build: buildOpen},
		{leading: []string{"close", "quit", "kill"}, build: buildClose},

		{leading: []string{"create note", "make note", "add note", "take note", "take a note", "make a note", "note that", "note down", "write this down"},
			build: withRest(command.CreateNote, false)},
		{any: []string{"list notes", "show notes", "read notes", "my notes"}, action: command.ListNotes},

		{any: []string{"clear clipboard", "clear the clipboard", "empty clipboard"}, action: command.ClearClipboard},
		{leading: []string{"copy"}, build: withRest(command.Copy, false, "to clipboard", "to the clipboard")},
		{any: []string{"paste", "read clipboard", "clipboard"}, action: command.Paste},

		{leading: []string{"play"}, build: buildPlay},
		{any: []string{"pause", "stop music", "stop the music"}, action: command.MusicPause},
		{any: []string{"resume", "resume music", "continue music"}, action: command.MusicPlay},
		{any: []string{"next song", "next track", "skip song", "skip"}, action: command.MusicNext},
		{any: []string{"previous song", "previous track", "last song"}, action: command.MusicPrevious},

		{all: []string{"lock"}, any: []string{"screen", "computer", "pc", "laptop"}, action: command.LockScreen},
		{all: []string{"cancel"}, any: []string{"shutdown", "shut down", "restart", "reboot"}, action: command.CancelShutdown},
		{leading: []string{"shutdown", "shut down", "power off", "turn off"}, build: bare(command.Shutdown)},
		{leading: []string{"restart", "reboot"}, build: bare(command.Restart)},
		{any: []string{"go to sleep", "sleep", "hibernate", "sleep mode"}, action: command.Sleep},

		{any: []string{"louder", "volume up", "turn up the volume", "increase volume", "increase the volume", "raise volume", "raise the volume"}, action: command.VolumeUp},
		{any: []string{"quieter", "volume down", "turn down the volume", "decrease volume", "decrease the volume", "lower volume", "lower the volume"}, action: command.VolumeDown},
		{any: []string{"mute", "unmute", "mute volume", "silence"}, action: command.Mute},

		{any: []string{"screenshot", "screen shot", "capture screen", "capture the screen", "take a picture"}, action: command.Screenshot},
		{any: []string{"mouse position", "where is the mouse", "cursor position"}, action: command.MousePosition},

		{any: []string{"heavy apps", "heaviest apps", "heavy processes", "top processes", "what is using"}, action: command.HeavyApps},
		{any: []string{"cpu", "processor"}, action: command.CheckCPU},
		{any: []string{"memory", "ram"}, action: command.CheckMemory},
		{any: []string{"disk space", "disk usage", "storage", "check disk"}, action: command.CheckDisk},
		{all: []string{"system"}, any: []string{"report", "info", "information", "status", "usage", "performance"}, action: command.SystemReport},

		{all: []string{"organize"}, any: []string{"downloads", "download", "download folder"}, action: command.OrganizeDownloads},

		{any: []string{"statistics", "stats"}, action: command.ShowStatistics},
		{any: []string{"history", "what did i say"}, action: command.ShowHistory},

		{any: []string{"what time", "time is it", "current time", "the time", "time now"}, none: []string{"timer"}, action: command.GetTime},
		{any: []string{"what date", "the date", "todays date", "date today", "what day", "which day"}, action: command.GetDate},
	}
}
