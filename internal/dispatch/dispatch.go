// Package dispatch implements the request pipeline shared by every front end.
//
// The dispatcher receives requests from transports and the REPL, turns the
// text into a command (keyword matcher, AI interpreter, or both), executes
// it through the handler registry, records it in history and optionally
// synthesizes a spoken reply. The sender always receives the response.
package dispatch

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/events"
	"github.com/nadzzz/deskpilot/internal/history"
	"github.com/nadzzz/deskpilot/internal/interpreter"
	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/metrics"
	"github.com/nadzzz/deskpilot/internal/tts"
	"github.com/nadzzz/deskpilot/internal/voice"
)

// DefaultSource names requests that arrive without a source.
const DefaultSource = "anonymous"

// Executor runs commands. *registry.Registry implements it.
type Executor interface {
	Execute(ctx context.Context, cmd *command.Command) *command.Result
	Has(action string) bool
}

// Recorder stores executed commands. *history.Log implements it.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Publisher receives command.executed events. *events.Bus implements it.
type Publisher interface {
	Publish(topic string, payload any)
}

// Options wires the dispatcher. Registry and Matcher are required; the
// rest may be nil.
type Options struct {
	Registry    Executor
	Matcher     *voice.Matcher
	Interpreter interpreter.Interpreter
	History     Recorder
	Synthesizer tts.Synthesizer
	Events      Publisher
}

// Dispatcher is the central pipeline.
type Dispatcher struct {
	registry    Executor
	matcher     *voice.Matcher
	interpreter interpreter.Interpreter
	transcriber interpreter.Transcriber
	history     Recorder
	synthesizer tts.Synthesizer
	events      Publisher

	mu       sync.Mutex
	sessions map[string]*voice.Session
}

// Executed is the payload of a command.executed event.
type Executed struct {
	RequestID string       `json:"request_id"`
	Source    string       `json:"source"`
	Text      string       `json:"text"`
	Action    string       `json:"action"`
	Path      message.Path `json:"path"`
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
}

// New creates a Dispatcher.
func New(o Options) *Dispatcher {
	d := &Dispatcher{
		registry:    o.Registry,
		matcher:     o.Matcher,
		interpreter: o.Interpreter,
		history:     o.History,
		synthesizer: o.Synthesizer,
		events:      o.Events,
		sessions:    make(map[string]*voice.Session),
	}
	if d.matcher == nil {
		d.matcher = voice.New(nil)
	}
	if o.Interpreter != nil {
		d.transcriber = interpreter.TranscriberOf(o.Interpreter)
	}
	return d
}

// Session returns the voice session for source, creating it on first use.
func (d *Dispatcher) Session(source string) *voice.Session {
	if source == "" {
		source = DefaultSource
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[source]
	if !ok {
		s = voice.NewSession()
		d.sessions[source] = s
	}
	return s
}

// HasInterpreter reports whether an AI backend is configured.
func (d *Dispatcher) HasInterpreter() bool { return d.interpreter != nil }

// Suggest asks the AI backend for help. Without a backend it returns "".
func (d *Dispatcher) Suggest(ctx context.Context, text string) string {
	if d.interpreter == nil {
		return ""
	}
	return d.interpreter.Suggest(ctx, text)
}

// Normalize turns text into a command using the path mode selects. It
// returns a nil command when nothing could produce one.
func (d *Dispatcher) Normalize(ctx context.Context, s *voice.Session, text string, mode message.Mode) (*command.Command, message.Path) {
	if mode != message.ModeAI {
		if m, ok := d.matcher.Match(s, text); ok {
			return m.Command(), message.PathKeyword
		}
		if mode == message.ModeKeyword {
			return nil, message.PathNone
		}
	}
	if d.interpreter == nil {
		if mode == message.ModeAI {
			return command.Errorf(nil, "AI interpreter is not configured"), message.PathAI
		}
		return nil, message.PathNone
	}
	return d.interpreter.Interpret(ctx, text), message.PathAI
}

func (d *Dispatcher) resolveResponseMode(mode message.ResponseMode) message.ResponseMode {
	switch mode {
	case message.ResponseModeNone, message.ResponseModeText,
		message.ResponseModeAudio, message.ResponseModeTextAudio:
		return mode
	default:
		if d.synthesizer != nil {
			return message.ResponseModeTextAudio
		}
		return message.ResponseModeText
	}
}

// Handle processes a single request through the full pipeline. Failures
// are reported in Response.Error or Response.Result; the returned error is
// reserved for transports and is always nil.
func (d *Dispatcher) Handle(ctx context.Context, req *message.Request) (*message.Response, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Source == "" {
		req.Source = DefaultSource
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = start
	}
	logger := slog.With("request_id", req.ID, "source", req.Source)

	resp := &message.Response{RequestID: req.ID, Path: message.PathNone}
	if !req.Mode.Valid() {
		resp.Error = "unknown mode " + strconv.Quote(string(req.Mode))
		return resp, nil
	}
	respMode := d.resolveResponseMode(req.ResponseMode)
	logger.Info("dispatch started", "mode", req.Mode, "response_mode", respMode)

	// Step 1: transcript.
	text := strings.TrimSpace(req.Text)
	if req.HasAudio() && text == "" {
		if d.transcriber == nil {
			resp.Error = "audio input requires a backend that supports transcription"
			return resp, nil
		}
		res, err := d.transcriber.Transcribe(ctx, req.Audio, req.ContentType, interpreter.TranscribeOpts{})
		if err != nil {
			resp.Error = "transcription failed: " + err.Error()
			logger.Error("transcription failed", "error", err)
			return resp, nil
		}
		text = strings.TrimSpace(res.Text)
		resp.Language = res.Language
		logger.Info("transcription complete", "text_length", len(text), "language", res.Language)
	}
	if text == "" {
		resp.Error = "request has no audio and no text"
		return resp, nil
	}
	resp.Transcript = text

	// Step 2: normalization.
	cmd, path := d.Normalize(ctx, d.Session(req.Source), text, req.Mode)
	resp.Command, resp.Path = cmd, path

	// Step 3: execution.
	if cmd == nil {
		resp.Result = command.Fail("unknown command: %s", text)
	} else {
		resp.Result = d.registry.Execute(ctx, cmd)
	}
	action := command.ActionError
	if cmd != nil {
		action = command.Canonical(cmd.Action)
	}
	logger.Info("command executed", "action", action, "path", path, "success", resp.Result.Success)

	// Step 4: history.
	elapsed := time.Since(start)
	if d.history != nil && cmd != nil {
		_, err := d.history.Record(ctx, history.Entry{
			Time:     req.Timestamp,
			Source:   req.Source,
			Text:     text,
			Action:   action,
			Success:  resp.Result.Success,
			Message:  resp.Result.Message,
			Duration: elapsed,
		})
		if err != nil {
			logger.Warn("recording history failed", "error", err)
		}
	}

	// Step 5: reply.
	if respMode.WantText() {
		resp.ResponseText = resp.Result.Message
	}
	if respMode.WantAudio() && d.synthesizer != nil && resp.Result.Message != "" {
		lang := resp.Language
		if lang == "" {
			lang = "en"
		}
		synth, err := d.synthesizer.Synthesize(ctx, resp.Result.Message, tts.SynthesizeOpts{Language: lang})
		if err != nil {
			logger.Warn("TTS synthesis failed, continuing without audio", "error", err)
		} else {
			resp.SetResponseAudioBytes(synth.Audio)
			resp.ResponseContentType = synth.ContentType
		}
	}

	// Step 6: metrics and events.
	label := action
	if cmd != nil && !cmd.IsError() && len(cmd.Steps) == 0 && !d.registry.Has(action) {
		label = "unknown"
	}
	metrics.Commands.WithLabelValues(label, string(path), strconv.FormatBool(resp.Result.Success)).Inc()
	metrics.CommandDuration.WithLabelValues(string(path)).Observe(elapsed.Seconds())
	if d.events != nil {
		d.events.Publish(events.TopicCommandExecuted, Executed{
			RequestID: req.ID,
			Source:    req.Source,
			Text:      text,
			Action:    action,
			Path:      path,
			Success:   resp.Result.Success,
			Message:   resp.Result.Message,
		})
	}

	logger.Info("dispatch complete", "duration", elapsed)
	return resp, nil
}
