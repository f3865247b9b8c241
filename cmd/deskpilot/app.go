package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nadzzz/deskpilot/internal/config"
	"github.com/nadzzz/deskpilot/internal/contacts"
	"github.com/nadzzz/deskpilot/internal/desktop"
	"github.com/nadzzz/deskpilot/internal/dispatch"
	"github.com/nadzzz/deskpilot/internal/events"
	"github.com/nadzzz/deskpilot/internal/handlers"
	"github.com/nadzzz/deskpilot/internal/history"
	"github.com/nadzzz/deskpilot/internal/interpreter"
	geminiinterp "github.com/nadzzz/deskpilot/internal/interpreter/gemini"
	localinterp "github.com/nadzzz/deskpilot/internal/interpreter/local"
	openaiinterp "github.com/nadzzz/deskpilot/internal/interpreter/openai"
	"github.com/nadzzz/deskpilot/internal/messaging"
	"github.com/nadzzz/deskpilot/internal/notes"
	"github.com/nadzzz/deskpilot/internal/organizer"
	"github.com/nadzzz/deskpilot/internal/registry"
	"github.com/nadzzz/deskpilot/internal/schedule"
	"github.com/nadzzz/deskpilot/internal/sysmon"
	"github.com/nadzzz/deskpilot/internal/tts"
	"github.com/nadzzz/deskpilot/internal/tts/piper"
	"github.com/nadzzz/deskpilot/internal/voice"
	"github.com/nadzzz/deskpilot/internal/workflow"
)

// app holds every wired component of one deskpilot process.
type app struct {
	cfg        *config.Config
	bus        *events.Bus
	desktop    *desktop.System
	monitor    *sysmon.Monitor
	organizer  *organizer.Organizer
	contacts   *contacts.Book
	schedules  *schedule.Scheduler
	history    *history.Log
	interp     interpreter.Interpreter
	synth      tts.Synthesizer
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher

	closers []io.Closer
	wg      sync.WaitGroup
}

// loadConfig reads the config and installs the logger.
func loadConfig() (*config.Config, io.Closer, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, config.SetupLogging(cfg.Logging), nil
}

// buildInterpreter returns the configured AI backend, or nil when it has
// no credentials or endpoint and keyword matching must carry every request.
func buildInterpreter(cfg config.InterpreterConfig) (interpreter.Interpreter, error) {
	var backend *interpreter.Backend
	switch cfg.Backend {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			slog.Warn("gemini api key not set, AI interpretation disabled")
			return nil, nil
		}
		backend = interpreter.New(geminiinterp.New(cfg.Gemini), cfg.Timeout)
		slog.Info("using Gemini interpreter", "model", cfg.Gemini.Model)
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			slog.Warn("openai api key not set, AI interpretation disabled")
			return nil, nil
		}
		backend = interpreter.New(openaiinterp.New(cfg.OpenAI), cfg.Timeout)
		slog.Info("using OpenAI interpreter",
			"transcription_model", cfg.OpenAI.TranscriptionModel,
			"completion_model", cfg.OpenAI.CompletionModel)
	case "local":
		if cfg.Local.LLMEndpoint == "" {
			slog.Warn("local llm endpoint not set, AI interpretation disabled")
			return nil, nil
		}
		backend = interpreter.New(localinterp.New(cfg.Local), cfg.Timeout)
		slog.Info("using local interpreter",
			"whisper", cfg.Local.WhisperEndpoint,
			"llm", cfg.Local.LLMEndpoint)
	default:
		return nil, fmt.Errorf("unknown interpreter backend %q", cfg.Backend)
	}

	if cfg.CacheSize == 0 {
		return backend, nil
	}
	cached, err := interpreter.NewCached(backend, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating interpreter cache: %w", err)
	}
	return cached, nil
}

// newApp opens the stores and wires the dispatcher. Background features
// are not started; see startBackground.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, bus: events.New()}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	a.desktop = desktop.New(desktop.Options{Timeout: cfg.Desktop.CommandTimeout, Apps: cfg.Desktop.Apps})
	a.monitor = sysmon.New()
	if cfg.Sysmon.DiskPath != "" {
		a.monitor.DiskPath = cfg.Sysmon.DiskPath
	}
	a.organizer = organizer.New(cfg.Organizer.Dir, nil)

	// Store failures disable the feature; the rest of the assistant still runs.
	notesStore, err := notes.Open(cfg.Data.Path(cfg.Data.Notes))
	if err != nil {
		slog.Warn("notes disabled", "error", err)
	}
	if a.contacts, err = contacts.Open(cfg.Data.Path(cfg.Data.Contacts)); err != nil {
		slog.Warn("contacts disabled", "error", err)
	}
	workflows, err := workflow.Open(cfg.Data.Path(cfg.Data.Workflows))
	if err != nil {
		slog.Warn("workflows disabled", "error", err)
	} else if err := workflows.EnsureDefaults(); err != nil {
		slog.Warn("saving default workflows failed", "error", err)
	}
	if a.history, err = history.Open(cfg.Data.Path(cfg.Data.History), cfg.Data.HistoryMax); err != nil {
		slog.Warn("history disabled", "error", err)
	} else {
		a.closers = append(a.closers, a.history)
	}
	if cfg.Schedule.Enabled {
		if a.schedules, err = schedule.Open(cfg.Data.Path(cfg.Data.Schedules), a.desktop.OpenApp, a.bus); err != nil {
			slog.Warn("app scheduling disabled", "error", err)
		}
	}

	var messenger messaging.Sender
	if slack, err := messaging.NewSlack(messaging.SlackConfig{
		Token:          cfg.Messaging.Slack.Token,
		DefaultChannel: cfg.Messaging.Slack.DefaultChannel,
	}); err == nil {
		messenger = slack
	} else if !errors.Is(err, messaging.ErrNotConfigured) {
		slog.Warn("slack disabled", "error", err)
	}

	if a.interp, err = buildInterpreter(cfg.Interpreter); err != nil {
		return nil, err
	}
	if a.interp != nil {
		a.closers = append(a.closers, a.interp)
	}

	if cfg.TTS.Enabled {
		switch cfg.TTS.Backend {
		case "piper":
			a.synth = piper.New(cfg.TTS.Piper)
			a.closers = append(a.closers, a.synth)
			slog.Info("using Piper TTS", "endpoint", cfg.TTS.Piper.Endpoint)
		default:
			slog.Warn("unknown tts backend, spoken replies disabled", "backend", cfg.TTS.Backend)
		}
	}

	deps := handlers.Deps{
		Desktop:       a.desktop,
		Monitor:       a.monitor,
		Organizer:     a.organizer,
		Notes:         notesStore,
		Contacts:      a.contacts,
		Workflows:     workflows,
		Schedules:     a.schedules,
		History:       a.history,
		Messenger:     messenger,
		ScreenshotDir: cfg.Desktop.ScreenshotDir,
		SearchURL:     cfg.Desktop.SearchURL,
	}
	if a.registry, err = handlers.Register(registry.NewBuilder(), deps).Build(); err != nil {
		return nil, fmt.Errorf("building action registry: %w", err)
	}

	opts := dispatch.Options{
		Registry:    a.registry,
		Matcher:     voice.New(cfg.Voice.WakeWords),
		Interpreter: a.interp,
		Synthesizer: a.synth,
		Events:      a.bus,
	}
	// A typed nil *history.Log must not reach the Recorder interface.
	if a.history != nil {
		opts.History = a.history
	}
	a.dispatcher = dispatch.New(opts)

	slog.Info("deskpilot wired",
		"actions", len(a.registry.Actions()),
		"interpreter", a.interp != nil,
		"tts", a.synth != nil)
	ok = true
	return a, nil
}

// startBackground runs the scheduler, the downloads watcher and the stats
// sampler until ctx is cancelled.
func (a *app) startBackground(ctx context.Context) {
	if a.schedules != nil {
		a.schedules.Start()
	}
	if a.cfg.Organizer.Watch {
		w := organizer.NewWatcher(a.organizer, a.bus, a.cfg.Organizer.Settle)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := w.Run(ctx); err != nil {
				slog.Error("downloads watcher failed", "error", err)
			}
		}()
	}
	if a.cfg.Sysmon.Enabled {
		s := sysmon.NewSampler(a.monitor, a.bus, a.cfg.Sysmon.Interval)
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			s.Run(ctx)
		}()
	}
}

// Close stops background work and releases every store and client.
func (a *app) Close() {
	if a.schedules != nil {
		a.schedules.Stop()
	}
	a.wg.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.bus.Close()
}
