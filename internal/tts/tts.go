// Package tts defines text-to-speech synthesis for spoken replies.
//
// Transports get the synthesized WAV back in the response; the REPL hands
// it to a Speaker, which plays it through a local audio player.
package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 code (e.g., "en", "fr", "es") to select the voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates a WAV file from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 22050).
	SampleRate int

	// Channels is the number of audio channels (typically 1).
	Channels int
}

// Speaker synthesizes text and plays it locally.
type Speaker struct {
	synth  Synthesizer
	player []string
}

// NewSpeaker plays through player, a command line such as "aplay -q".
// The WAV file path is appended as the last argument.
func NewSpeaker(synth Synthesizer, player string) (*Speaker, error) {
	fields := strings.Fields(player)
	if len(fields) == 0 {
		return nil, fmt.Errorf("no audio player configured")
	}
	return &Speaker{synth: synth, player: fields}, nil
}

// Say speaks text and blocks until playback ends.
func (s *Speaker) Say(ctx context.Context, text string) error {
	res, err := s.synth.Synthesize(ctx, text, SynthesizeOpts{Language: "en"})
	if err != nil {
		return fmt.Errorf("synthesizing: %w", err)
	}

	f, err := os.CreateTemp("", "deskpilot-*.wav")
	if err != nil {
		return fmt.Errorf("creating temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(res.Audio); err != nil {
		f.Close()
		return fmt.Errorf("writing temp wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing temp wav: %w", err)
	}

	args := append(append([]string(nil), s.player[1:]...), f.Name())
	out, err := exec.CommandContext(ctx, s.player[0], args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("playing audio: %w: %s", err, strings.TrimSpace(string(out)))
	}
	slog.Debug("spoke reply", "text_length", len(text), "audio_bytes", len(res.Audio))
	return nil
}
