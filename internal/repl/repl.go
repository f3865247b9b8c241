// Package repl is deskpilot's interactive front end.
//
// Each line is either a meta-command (help, exit, position, contacts) or a
// request for the dispatcher. Typed requests go to the AI interpreter when
// one is configured; "voice <text>" forces the keyword matcher. When the
// AI cannot interpret a request the REPL asks it once for a suggestion.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/nadzzz/deskpilot/internal/contacts"
	"github.com/nadzzz/deskpilot/internal/desktop"
	"github.com/nadzzz/deskpilot/internal/events"
	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/organizer"
	"github.com/nadzzz/deskpilot/internal/schedule"
)

// Source is the dispatcher source name of REPL requests.
const Source = "repl"

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)
)

// Dispatcher is the part of *dispatch.Dispatcher the REPL drives.
type Dispatcher interface {
	Handle(ctx context.Context, req *message.Request) (*message.Response, error)
	Suggest(ctx context.Context, text string) string
	HasInterpreter() bool
}

// Speaker reads results aloud. *tts.Speaker implements it.
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Options wires a REPL. Dispatcher, In and Out are required.
type Options struct {
	In         io.Reader
	Out        io.Writer
	Dispatcher Dispatcher
	Desktop    desktop.Controller
	Contacts   *contacts.Book
	Speaker    Speaker
	// Actions lists the registered action names for help.
	Actions []string
	// Notices streams background events (fired schedules, organized
	// downloads) to print between prompts.
	Notices <-chan events.Event
}

// REPL is one interactive session.
type REPL struct {
	opts Options
	mu   sync.Mutex // guards writes to Out
}

// New creates a REPL.
func New(opts Options) *REPL {
	return &REPL{opts: opts}
}

func (r *REPL) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.opts.Out, format, args...)
}

// Run reads lines until EOF, an exit command or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.printf("%s\n%s\n\n", titleStyle.Render("deskpilot"), dimStyle.Render("Type a request, 'help' for examples, or 'exit' to quit."))

	if r.opts.Notices != nil {
		go r.printNotices(ctx)
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r.opts.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		r.printf("%s", promptStyle.Render("deskpilot> "))
		select {
		case <-ctx.Done():
			r.printf("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				r.printf("\n")
				return <-scanErr
			}
			if !r.handleLine(ctx, strings.TrimSpace(line)) {
				return nil
			}
		}
	}
}

// handleLine processes one input line; it returns false to stop the loop.
func (r *REPL) handleLine(ctx context.Context, line string) bool {
	if line == "" {
		return true
	}
	switch strings.ToLower(line) {
	case "exit", "quit", "q":
		r.printf("%s\n", dimStyle.Render("Goodbye!"))
		return false
	case "help":
		r.printHelp()
		return true
	case "position":
		r.printPosition(ctx)
		return true
	case "contacts":
		r.printContacts()
		return true
	}

	req := &message.Request{Source: Source, Text: line, ResponseMode: message.ResponseModeText}
	if rest, ok := cutWord(line, "voice"); ok {
		req.Text, req.Mode = rest, message.ModeKeyword
	} else if r.opts.Dispatcher.HasInterpreter() {
		req.Mode = message.ModeAI
	} else {
		req.Mode = message.ModeVoice
	}
	if req.Text == "" {
		r.printf("%s\n", errStyle.Render("usage: voice <text>"))
		return true
	}

	resp, err := r.opts.Dispatcher.Handle(ctx, req)
	if err != nil {
		r.printf("%s\n", errStyle.Render("error: "+err.Error()))
		return true
	}
	r.printResponse(ctx, req.Text, resp)
	return true
}

func (r *REPL) printResponse(ctx context.Context, text string, resp *message.Response) {
	if resp.Error != "" {
		r.printf("%s\n", errStyle.Render("error: "+resp.Error))
		return
	}
	if resp.Command != nil && !resp.Command.IsError() {
		label := resp.Command.Action
		if len(resp.Command.Steps) > 0 {
			label = fmt.Sprintf("%s (%d steps)", label, len(resp.Command.Steps))
		}
		r.printf("%s\n", dimStyle.Render(fmt.Sprintf("[%s] %s", resp.Path, label)))
	}

	res := resp.Result
	switch {
	case res == nil:
		return
	case res.Success:
		r.printf("%s\n", okStyle.Render("✓ "+res.Message))
	default:
		r.printf("%s\n", errStyle.Render("✗ "+res.Message))
	}

	if resp.Command != nil && resp.Command.IsError() {
		if s := r.opts.Dispatcher.Suggest(ctx, text); s != "" {
			r.printf("%s\n", hintStyle.Render("Suggestion: "+s))
		}
	}

	if r.opts.Speaker != nil && res.Message != "" {
		if err := r.opts.Speaker.Say(ctx, res.Message); err != nil {
			slog.Debug("speaking result failed", "error", err)
		}
	}
}

func (r *REPL) printHelp() {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Examples") + "\n")
	for _, ex := range []string{
		"open chrome", "search python tutorial", "take a screenshot",
		"what time is it", "check cpu", "organize my downloads",
		"voice open spotify", "play lofi beats",
	} {
		sb.WriteString("  " + ex + "\n")
	}
	sb.WriteString(titleStyle.Render("Meta commands") + "\n")
	sb.WriteString("  help, exit | quit | q, position, contacts, voice <text>\n")
	if len(r.opts.Actions) > 0 {
		sb.WriteString(titleStyle.Render("Actions") + "\n")
		sb.WriteString(dimStyle.Render(wrap(r.opts.Actions, 76)) + "\n")
	}
	r.printf("%s", sb.String())
}

func (r *REPL) printPosition(ctx context.Context) {
	if r.opts.Desktop == nil {
		r.printf("%s\n", errStyle.Render("desktop control is not available"))
		return
	}
	x, y, err := r.opts.Desktop.MousePosition(ctx)
	if err != nil {
		r.printf("%s\n", errStyle.Render("error: "+err.Error()))
		return
	}
	r.printf("Mouse position: %d, %d\n", x, y)
}

func (r *REPL) printContacts() {
	if r.opts.Contacts == nil {
		r.printf("%s\n", errStyle.Render("contacts are not available"))
		return
	}
	list := r.opts.Contacts.List()
	if len(list) == 0 {
		r.printf("%s\n", dimStyle.Render("No contacts saved"))
		return
	}
	for _, c := range list {
		var details []string
		for _, d := range []string{c.Phone, c.Email, c.Slack} {
			if d != "" {
				details = append(details, d)
			}
		}
		r.printf("  %s  %s\n", c.Name, dimStyle.Render(strings.Join(details, " · ")))
	}
}

func (r *REPL) printNotices(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.opts.Notices:
			if !ok {
				return
			}
			if msg := Notice(ev); msg != "" {
				r.printf("\n%s\n", hintStyle.Render(msg))
			}
		}
	}
}

// Notice renders a background event for the terminal, or "" to skip it.
func Notice(ev events.Event) string {
	switch p := ev.Payload.(type) {
	case schedule.Fired:
		msg := fmt.Sprintf("Scheduled launch %s (%s): opened %s", p.ID, p.Time, strings.Join(p.Opened, ", "))
		if len(p.Failed) > 0 {
			msg += "; failed " + strings.Join(p.Failed, ", ")
		}
		return msg
	case organizer.Move:
		return fmt.Sprintf("Moved %s to %s", p.File, p.Category)
	}
	return ""
}

func cutWord(line, word string) (string, bool) {
	if len(line) < len(word) || !strings.EqualFold(line[:len(word)], word) {
		return "", false
	}
	rest := line[len(word):]
	if rest != "" && rest[0] != ' ' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func wrap(words []string, width int) string {
	var sb strings.Builder
	col := 0
	for i, w := range words {
		if i > 0 {
			if col+2+len(w) > width {
				sb.WriteString(",\n")
				col = 0
			} else {
				sb.WriteString(", ")
				col += 2
			}
		}
		if col == 0 {
			sb.WriteString("  ")
			col = 2
		}
		sb.WriteString(w)
		col += len(w)
	}
	return sb.String()
}
