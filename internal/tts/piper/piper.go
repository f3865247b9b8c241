// Package piper implements tts.Synthesizer against a Piper server speaking
// the Wyoming protocol (TCP, port 10200 in the linuxserver/piper image).
//
// Every Wyoming event is framed as:
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nadzzz/deskpilot/internal/config"
	"github.com/nadzzz/deskpilot/internal/tts"
)

// defaultVoices maps ISO-639-1 language codes to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-mls_10246-low",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-riccardo-x_low",
	"pt": "pt_BR-faber-medium",
	"nl": "nl_NL-mls-medium",
	"hi": "hi_IN-pratham-medium",
}

const (
	dialTimeout    = 5 * time.Second
	defaultTimeout = 30 * time.Second
)

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint  string            // default host:port
	endpoints map[string]string // language -> host:port
	voices    map[string]string // language -> voice name
}

// New creates a Piper synthesizer from config. Configured voices override
// the defaults language by language.
func New(cfg config.PiperConfig) *Synthesizer {
	voices := make(map[string]string, len(defaultVoices)+len(cfg.Voices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[k] = v
	}
	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[lang] = hostPort(ep)
	}
	return &Synthesizer{endpoint: hostPort(cfg.Endpoint), endpoints: endpoints, voices: voices}
}

func hostPort(ep string) string {
	for _, scheme := range []string{"tcp://", "http://"} {
		ep = strings.TrimPrefix(ep, scheme)
	}
	return ep
}

// route picks the voice and server for a request. Unknown languages use the
// English voice and the default endpoint.
func (s *Synthesizer) route(opts tts.SynthesizeOpts) (voice, endpoint string, err error) {
	voice = opts.Voice
	if voice == "" {
		voice = s.voices[opts.Language]
	}
	if voice == "" {
		voice = s.voices["en"]
	}
	endpoint = s.endpoints[opts.Language]
	if endpoint == "" {
		endpoint = s.endpoint
	}
	if endpoint == "" {
		return "", "", fmt.Errorf("no piper endpoint configured for language %q", opts.Language)
	}
	return voice, endpoint, nil
}

// Synthesize sends text to Piper and returns the audio as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}
	voice, endpoint, err := s.route(opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "endpoint", endpoint)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	_ = conn.SetDeadline(deadline)

	req := event{Type: "synthesize", Data: map[string]any{
		"text":  text,
		"voice": map[string]any{"name": voice},
	}}
	if err := writeEvent(conn, req, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}
	return collectAudio(bufio.NewReader(conn))
}

// Close is a no-op; connections are per request.
func (s *Synthesizer) Close() error { return nil }

type audioFormat struct {
	rate, channels, width int
}

func (f *audioFormat) update(data map[string]any) {
	if v, ok := data["rate"].(float64); ok {
		f.rate = int(v)
	}
	if v, ok := data["channels"].(float64); ok {
		f.channels = int(v)
	}
	if v, ok := data["width"].(float64); ok {
		f.width = int(v)
	}
}

// collectAudio reads audio-start, audio-chunk* and audio-stop events and
// wraps the PCM in a WAV container.
func collectAudio(r *bufio.Reader) (*tts.SynthesizeResult, error) {
	format := audioFormat{rate: 22050, channels: 1, width: 2}
	var pcm bytes.Buffer
	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}
		switch evt.Type {
		case "audio-start":
			format.update(evt.Data)
		case "audio-chunk":
			format.update(evt.Data)
			pcm.Write(payload)
		case "audio-stop":
			return &tts.SynthesizeResult{
				Audio:       wav(pcm.Bytes(), format),
				ContentType: "audio/wav",
				SampleRate:  format.rate,
				Channels:    format.channels,
			}, nil
		case "error":
			msg, _ := evt.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper error: %s", msg)
		default:
			slog.Debug("piper ignored event", "type", evt.Type)
		}
	}
}

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func writeEvent(w io.Writer, evt event, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(body), len(payload))
	buf.Write(body)
	buf.WriteByte('\n')
	buf.Write(payload)
	_, err = w.Write(buf.Bytes())
	return err
}

func readEvent(r *bufio.Reader) (*event, []byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", strings.TrimSpace(header))
	}
	jsonLen, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json length: %w", err)
	}
	payloadLen, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload length: %w", err)
	}

	body := make([]byte, jsonLen+1) // trailing newline
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}
	var evt event
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}

// wav wraps PCM samples in a 44-byte RIFF header.
func wav(pcm []byte, f audioFormat) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	le := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	le(uint32(36 + len(pcm)))
	buf.WriteString("WAVEfmt ")
	le(uint32(16)) // fmt chunk size
	le(uint16(1))  // PCM
	le(uint16(f.channels))
	le(uint32(f.rate))
	le(uint32(f.rate * f.channels * f.width))
	le(uint16(f.channels * f.width))
	le(uint16(f.width * 8))
	buf.WriteString("data")
	le(uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
