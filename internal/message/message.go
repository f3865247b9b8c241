// Package message defines the request and response records that every
// transport exchanges with the dispatcher.
package message

import (
	"encoding/base64"
	"time"

	"github.com/nadzzz/deskpilot/internal/command"
)

// Mode selects how text is normalized into a command.
type Mode string

const (
	// ModeVoice tries the keyword matcher first and falls back to the AI.
	ModeVoice Mode = "voice"

	// ModeAI sends the text straight to the AI interpreter.
	ModeAI Mode = "ai"

	// ModeKeyword uses the keyword matcher only.
	ModeKeyword Mode = "keyword"
)

// Valid reports whether m is a known mode. The empty mode is valid and
// means ModeVoice.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeVoice, ModeAI, ModeKeyword:
		return true
	}
	return false
}

// ResponseMode controls what natural-language output the caller wants.
type ResponseMode string

const (
	// ResponseModeNone suppresses the spoken/text reply; only the result is returned.
	ResponseModeNone ResponseMode = "none"

	// ResponseModeText returns the result message as response_text.
	ResponseModeText ResponseMode = "text"

	// ResponseModeAudio returns TTS-synthesized audio only (no text).
	ResponseModeAudio ResponseMode = "audio"

	// ResponseModeTextAudio returns both text and synthesized audio.
	ResponseModeTextAudio ResponseMode = "text+audio"
)

// WantText reports whether the mode includes text output.
func (m ResponseMode) WantText() bool {
	return m == ResponseModeText || m == ResponseModeTextAudio
}

// WantAudio reports whether the mode includes audio output.
func (m ResponseMode) WantAudio() bool {
	return m == ResponseModeAudio || m == ResponseModeTextAudio
}

// Request is an incoming request from any transport.
type Request struct {
	// ID is a unique identifier for this request (UUID). Assigned if empty.
	ID string `json:"id"`

	// Source identifies the sender (e.g., "repl", "phone-alice"). Each
	// source gets its own voice session.
	Source string `json:"source"`

	// Text is the request text. Required unless Audio is set.
	Text string `json:"text,omitempty"`

	// Audio is a raw audio payload for backends that transcribe.
	Audio []byte `json:"audio,omitempty"`

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string `json:"content_type,omitempty"`

	// Mode selects the normalization path. Defaults to "voice".
	Mode Mode `json:"mode,omitempty"`

	// ResponseMode controls the reply. Defaults to "text", or "text+audio"
	// when TTS is enabled.
	ResponseMode ResponseMode `json:"response_mode,omitempty"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`
}

// HasAudio returns true if the request contains an audio payload.
func (r *Request) HasAudio() bool {
	return len(r.Audio) > 0
}

// Path names how the command was produced.
type Path string

const (
	PathKeyword Path = "keyword"
	PathAI      Path = "ai"
	PathNone    Path = "none"
)

// Response is the outcome of dispatching a request.
type Response struct {
	// RequestID is the original request ID.
	RequestID string `json:"request_id"`

	// Transcript is the text that was normalized (the input text, or the
	// transcription of the audio).
	Transcript string `json:"transcript,omitempty"`

	// Language is the ISO-639-1 code detected during transcription.
	Language string `json:"language,omitempty"`

	// Command is the normalized command. Nil when nothing matched.
	Command *command.Command `json:"command,omitempty"`

	// Result is the handler outcome. Nil when no command was executed.
	Result *command.Result `json:"result,omitempty"`

	// Path is "keyword", "ai" or "none".
	Path Path `json:"path"`

	// ResponseText is the human-readable reply.
	ResponseText string `json:"response_text,omitempty"`

	// ResponseAudio is the TTS-synthesized reply as a base64-encoded WAV.
	ResponseAudio string `json:"response_audio,omitempty"`

	// ResponseContentType is the MIME type of ResponseAudio (e.g., "audio/wav").
	ResponseContentType string `json:"response_content_type,omitempty"`

	// Error is set if the request could not be processed.
	Error string `json:"error,omitempty"`
}

// SetResponseAudioBytes base64-encodes raw audio bytes into ResponseAudio.
func (r *Response) SetResponseAudioBytes(audio []byte) {
	if len(audio) > 0 {
		r.ResponseAudio = base64.StdEncoding.EncodeToString(audio)
	}
}

// Success reports whether a command ran and succeeded.
func (r *Response) Success() bool {
	return r.Error == "" && r.Result != nil && r.Result.Success
}
