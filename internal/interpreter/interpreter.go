// Package interpreter turns free text into a command.Command using an AI
// backend.
//
// Backends only know how to send a prompt and return the model's reply
// (Completer). Backend wraps a Completer with the shared system prompt,
// reply parsing and suggestion logic, so every model produces commands the
// same way. deskpilot ships with three completers: OpenAI, Gemini and Local
// (Ollama or any OpenAI-compatible server).
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/metrics"
)

// ErrNoTranscription is returned when audio arrives and the backend cannot
// transcribe it.
var ErrNoTranscription = errors.New("backend does not support transcription")

// Interpreter is the interface the dispatcher and REPL talk to.
type Interpreter interface {
	// Name returns the backend identifier (e.g., "gemini", "openai", "local").
	Name() string

	// Interpret converts text into a command. Failures come back as an
	// error command, never as a nil command.
	Interpret(ctx context.Context, text string) *command.Command

	// Suggest asks the model for free-form help with text.
	Suggest(ctx context.Context, text string) string

	// Close releases any resources held by the interpreter.
	Close() error
}

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g., "en", "fr") to guide transcription.
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string

	// Model overrides the default transcription model.
	Model string
}

// TranscribeResult holds the output of audio transcription.
type TranscribeResult struct {
	Text     string
	Language string // ISO-639-1
}

// Transcriber is implemented by backends that accept audio.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (*TranscribeResult, error)
}

// Completer sends a single prompt to a model and returns its raw reply.
// When jsonReply is set the backend asks the model for a JSON object.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, prompt string, jsonReply bool) (string, error)
}

// Backend is an Interpreter over a Completer.
type Backend struct {
	completer Completer
	timeout   time.Duration
}

// New wraps c. A zero timeout leaves the caller's deadline alone.
func New(c Completer, timeout time.Duration) *Backend {
	return &Backend{completer: c, timeout: timeout}
}

// Name returns the completer's name.
func (b *Backend) Name() string { return b.completer.Name() }

func (b *Backend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

// Interpret asks the model to turn text into a command record.
func (b *Backend) Interpret(ctx context.Context, text string) *command.Command {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	reply, err := b.completer.Complete(ctx, SystemPrompt(), "Parse this command: "+text, true)
	metrics.InterpretLatency.WithLabelValues(b.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("interpreter request failed", "backend", b.Name(), "error", err)
		return command.Errorf(err, "Error parsing command: %v", err)
	}
	if strings.TrimSpace(reply) == "" {
		return command.Errorf(nil, "Could not parse command")
	}

	cmd := Parse(reply)
	slog.Debug("interpretation complete", "backend", b.Name(), "action", cmd.Action, "steps", len(cmd.Steps))
	return cmd
}

// Suggest asks the model for help with a request it could not interpret.
func (b *Backend) Suggest(ctx context.Context, text string) string {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	reply, err := b.completer.Complete(ctx, "", "As a desktop automation assistant, help with this: "+text, false)
	if err != nil {
		return fmt.Sprintf("Error getting suggestion: %v", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "No suggestion available"
	}
	return reply
}

// Transcribe delegates to the completer when it accepts audio.
func (b *Backend) Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (*TranscribeResult, error) {
	t, ok := b.completer.(Transcriber)
	if !ok {
		return nil, fmt.Errorf("%s: %w", b.Name(), ErrNoTranscription)
	}
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	return t.Transcribe(ctx, audio, contentType, opts)
}

// CanTranscribe reports whether the completer accepts audio.
func (b *Backend) CanTranscribe() bool {
	_, ok := b.completer.(Transcriber)
	return ok
}

// Close closes the completer if it holds resources.
func (b *Backend) Close() error {
	if c, ok := b.completer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// TranscriberOf returns the audio capability of i, looking through
// decorators such as Cached. It returns nil when audio is unsupported.
func TranscriberOf(i Interpreter) Transcriber {
	for i != nil {
		if b, ok := i.(*Backend); ok {
			if b.CanTranscribe() {
				return b
			}
			return nil
		}
		if t, ok := i.(Transcriber); ok {
			return t
		}
		u, ok := i.(interface{ Unwrap() Interpreter })
		if !ok {
			return nil
		}
		i = u.Unwrap()
	}
	return nil
}
