package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/organizer"
	"github.com/nadzzz/deskpilot/internal/repl"
	"github.com/nadzzz/deskpilot/internal/schedule"
	"github.com/nadzzz/deskpilot/internal/tts"
	"github.com/nadzzz/deskpilot/internal/voice"
)

func runREPL(cmd *cobra.Command, _ []string) error {
	cfg, logCloser, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.Debug("deskpilot starting", "version", version, "mode", "repl")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := repl.Options{
		In:         os.Stdin,
		Out:        cmd.OutOrStdout(),
		Dispatcher: a.dispatcher,
		Desktop:    a.desktop,
		Contacts:   a.contacts,
		Actions:    a.registry.Actions(),
	}
	if a.synth != nil && cfg.TTS.Player != "" {
		speaker, err := tts.NewSpeaker(a.synth, cfg.TTS.Player)
		if err != nil {
			slog.Warn("spoken replies disabled", "error", err)
		} else {
			opts.Speaker = speaker
		}
	}

	sub := a.bus.Subscribe(schedule.TopicFired, organizer.TopicOrganized)
	defer sub.Unsubscribe()
	opts.Notices = sub.C

	a.startBackground(ctx)
	return repl.New(opts).Run(ctx)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, logCloser, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	text := strings.Join(args, " ")
	m, ok := voice.New(cfg.Voice.WakeWords).Match(voice.NewSession(), text)
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "no match for %q\n", text)
		return nil
	}
	fmt.Fprintln(out, m.String())
	return printJSON(out, m.Command())
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, logCloser, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	mode := message.ModeVoice
	if a.dispatcher.HasInterpreter() {
		mode = message.ModeAI
	}
	resp, err := a.dispatcher.Handle(ctx, &message.Request{
		Source:       "cli",
		Text:         strings.Join(args, " "),
		Mode:         mode,
		ResponseMode: message.ResponseModeText,
	})
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if !resp.Success() {
		return fmt.Errorf("request failed")
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
