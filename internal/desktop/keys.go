package desktop

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var linuxApps = map[string]string{
	"chrome":     "google-chrome",
	"firefox":    "firefox",
	"calculator": "gnome-calculator",
	"files":      "nautilus",
	"terminal":   "x-terminal-emulator",
	"notepad":    "gedit",
	"code":       "code",
	"spotify":    "spotify",
	"settings":   "gnome-control-center",
}

var windowsApps = map[string]string{
	"chrome":     "chrome",
	"calculator": "calc",
	"files":      "explorer",
	"terminal":   "cmd",
	"notepad":    "notepad",
	"paint":      "mspaint",
	"word":       "winword",
	"excel":      "excel",
	"powerpoint": "powerpnt",
	"settings":   "ms-settings:",
}

var macApps = map[string]string{
	"chrome":     "Google Chrome",
	"calculator": "Calculator",
	"files":      "Finder",
	"terminal":   "Terminal",
	"notepad":    "TextEdit",
	"code":       "Visual Studio Code",
	"settings":   "System Settings",
}

// launchCommand returns the argv that starts app name on this OS.
func (s *System) launchCommand(name string) []string {
	if override, ok := s.apps[name]; ok {
		if argv := strings.Fields(override); len(argv) > 0 {
			return argv
		}
	}
	switch s.goos {
	case "windows":
		exe := name
		if v, ok := windowsApps[name]; ok {
			exe = v
		}
		return []string{"cmd", "/c", "start", "", exe}
	case "darwin":
		return []string{"open", "-a", macAppName(name)}
	default:
		if v, ok := linuxApps[name]; ok {
			return []string{v}
		}
		return []string{strings.ReplaceAll(name, " ", "-")}
	}
}

func processName(goos, name string) string {
	switch goos {
	case "windows":
		if v, ok := windowsApps[name]; ok {
			return v
		}
	default:
		if v, ok := linuxApps[name]; ok && name != "chrome" {
			return v
		}
	}
	return strings.ReplaceAll(name, " ", "-")
}

func macAppName(name string) string {
	if v, ok := macApps[name]; ok {
		return v
	}
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

var xdotoolKeys = map[string]string{
	"ctrl": "ctrl", "control": "ctrl", "alt": "alt", "shift": "shift",
	"win": "super", "super": "super", "cmd": "super", "command": "super",
	"enter": "Return", "return": "Return", "esc": "Escape", "escape": "Escape",
	"tab": "Tab", "backspace": "BackSpace", "delete": "Delete", "del": "Delete",
	"space": "space", "up": "Up", "down": "Down", "left": "Left", "right": "Right",
	"home": "Home", "end": "End", "pageup": "Prior", "pagedown": "Next",
}

func xdotoolChord(keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		switch {
		case xdotoolKeys[k] != "":
			parts[i] = xdotoolKeys[k]
		case isFunctionKey(k):
			parts[i] = strings.ToUpper(k)
		default:
			parts[i] = k
		}
	}
	return strings.Join(parts, "+")
}

var sendKeysNamed = map[string]string{
	"enter": "{ENTER}", "return": "{ENTER}", "esc": "{ESC}", "escape": "{ESC}",
	"tab": "{TAB}", "backspace": "{BACKSPACE}", "delete": "{DELETE}", "del": "{DELETE}",
	"up": "{UP}", "down": "{DOWN}", "left": "{LEFT}", "right": "{RIGHT}",
	"home": "{HOME}", "end": "{END}", "pageup": "{PGUP}", "pagedown": "{PGDN}", "space": " ",
}

var sendKeysModifiers = map[string]string{"ctrl": "^", "control": "^", "shift": "+", "alt": "%"}

func windowsChord(keys []string) string {
	var sb strings.Builder
	for i, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if m, ok := sendKeysModifiers[k]; ok && i < len(keys)-1 {
			sb.WriteString(m)
			continue
		}
		switch {
		case sendKeysNamed[k] != "":
			sb.WriteString(sendKeysNamed[k])
		case isFunctionKey(k):
			sb.WriteString("{" + strings.ToUpper(k) + "}")
		default:
			sb.WriteString(escapeSendKeys(k))
		}
	}
	return sb.String()
}

// escapeSendKeys wraps SendKeys metacharacters in braces.
func escapeSendKeys(text string) string {
	var sb strings.Builder
	for _, r := range text {
		switch r {
		case '+', '^', '%', '~', '(', ')', '[', ']', '{', '}':
			sb.WriteString("{" + string(r) + "}")
		case '\n':
			sb.WriteString("{ENTER}")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func sendKeysScript(keys string) string {
	return "Add-Type -AssemblyName System.Windows.Forms; [System.Windows.Forms.SendKeys]::SendWait('" +
		strings.ReplaceAll(keys, "'", "''") + "')"
}

var macKeyCodes = map[string]int{
	"enter": 36, "return": 36, "tab": 48, "space": 49, "backspace": 51, "delete": 51,
	"esc": 53, "escape": 53, "left": 123, "right": 124, "down": 125, "up": 126,
}

var macModifiers = map[string]string{
	"cmd": "command down", "command": "command down", "ctrl": "control down", "control": "control down",
	"alt": "option down", "option": "option down", "shift": "shift down",
}

func macChord(keys []string) string {
	var mods []string
	last := strings.ToLower(strings.TrimSpace(keys[len(keys)-1]))
	for _, k := range keys[:len(keys)-1] {
		if m, ok := macModifiers[strings.ToLower(strings.TrimSpace(k))]; ok {
			mods = append(mods, m)
		}
	}
	var action string
	if code, ok := macKeyCodes[last]; ok {
		action = fmt.Sprintf("key code %d", code)
	} else {
		action = fmt.Sprintf(`keystroke "%s"`, escapeAppleScript(last))
	}
	if len(mods) > 0 {
		action += " using {" + strings.Join(mods, ", ") + "}"
	}
	return `tell application "System Events" to ` + action
}

func isFunctionKey(k string) bool {
	if len(k) < 2 || len(k) > 3 || k[0] != 'f' {
		return false
	}
	n, err := strconv.Atoi(k[1:])
	return err == nil && n >= 1 && n <= 24
}

// escapeAppleScript escapes a string for a double-quoted AppleScript literal.
func escapeAppleScript(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func windowsScreenshotScript(path string) string {
	return `Add-Type -AssemblyName System.Windows.Forms,System.Drawing; ` +
		`$b=[System.Windows.Forms.SystemInformation]::VirtualScreen; ` +
		`$bmp=New-Object System.Drawing.Bitmap $b.Width,$b.Height; ` +
		`$g=[System.Drawing.Graphics]::FromImage($bmp); ` +
		`$g.CopyFromScreen($b.Left,$b.Top,0,0,$bmp.Size); ` +
		`$bmp.Save('` + strings.ReplaceAll(path, "'", "''") + `')`
}

// parsePosition reads "X=.." and "Y=.." lines as printed by
// `xdotool getmouselocation --shell`.
func parsePosition(out []byte) (int, int, error) {
	x, y := -1, -1
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		key, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			continue
		}
		switch key {
		case "X":
			x = n
		case "Y":
			y = n
		}
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("unexpected mouse location output: %.100q", out)
	}
	return x, y, nil
}

var xdotoolMediaKeys = map[MediaKey]string{
	KeyPlayPause:  "XF86AudioPlay",
	KeyNext:       "XF86AudioNext",
	KeyPrevious:   "XF86AudioPrev",
	KeyVolumeUp:   "XF86AudioRaiseVolume",
	KeyVolumeDown: "XF86AudioLowerVolume",
	KeyMute:       "XF86AudioMute",
}

// Virtual-key codes sent through WScript.Shell.
var windowsMediaKeys = map[MediaKey]int{
	KeyPlayPause:  179,
	KeyNext:       176,
	KeyPrevious:   177,
	KeyVolumeUp:   175,
	KeyVolumeDown: 174,
	KeyMute:       173,
}

var macMediaScripts = map[MediaKey]string{
	KeyPlayPause:  `tell application "Spotify" to playpause`,
	KeyNext:       `tell application "Spotify" to next track`,
	KeyPrevious:   `tell application "Spotify" to previous track`,
	KeyVolumeUp:   `set volume output volume ((output volume of (get volume settings)) + 10)`,
	KeyVolumeDown: `set volume output volume ((output volume of (get volume settings)) - 10)`,
	KeyMute:       `set volume output muted not (output muted of (get volume settings))`,
}
