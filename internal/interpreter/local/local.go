// Package local implements interpreter.Completer using self-hosted models.
//
// It supports any Whisper-compatible transcription endpoint (e.g., whisper.cpp
// server, faster-whisper) and either Ollama's /api/generate or any
// OpenAI-compatible chat endpoint (e.g., Ollama, vLLM, llama.cpp server).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nadzzz/deskpilot/internal/config"
	"github.com/nadzzz/deskpilot/internal/interpreter"
	"github.com/nadzzz/deskpilot/internal/interpreter/openai"
)

// Client uses self-hosted models for transcription and completion.
type Client struct {
	whisperEndpoint string
	whisperType     string // "openai" or "asr"
	llmEndpoint     string
	llmModel        string
	vadFilter       bool
	defaultLanguage string
	client          *http.Client
}

// New creates a new local client from config.
func New(cfg config.LocalConfig) *Client {
	wt := cfg.WhisperType
	if wt == "" {
		wt = "openai"
	}
	model := cfg.LLMModel
	if model == "" {
		model = "llama3"
	}
	return &Client{
		whisperEndpoint: cfg.WhisperEndpoint,
		whisperType:     wt,
		llmEndpoint:     cfg.LLMEndpoint,
		llmModel:        model,
		vadFilter:       cfg.VADFilter,
		defaultLanguage: cfg.Language,
		client:          &http.Client{},
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "local" }

// Transcribe sends audio to the local Whisper-compatible endpoint.
// Supports two flavors:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string, opts interpreter.TranscribeOpts) (*interpreter.TranscribeResult, error) {
	if c.whisperEndpoint == "" {
		return nil, fmt.Errorf("local: %w", interpreter.ErrNoTranscription)
	}
	lang := opts.Language
	if lang == "" {
		lang = c.defaultLanguage
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	field := "file"
	if c.whisperType == "asr" {
		field = "audio_file"
	}
	part, err := writer.CreateFormFile(field, "audio"+openai.ExtFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	reqURL := c.whisperEndpoint
	if c.whisperType == "asr" {
		q := make(url.Values)
		q.Set("task", "transcribe")
		q.Set("output", "json")
		q.Set("encode", "true")
		if lang != "" {
			q.Set("language", lang)
		}
		if opts.Prompt != "" {
			q.Set("initial_prompt", opts.Prompt)
		}
		if c.vadFilter {
			q.Set("vad_filter", "true")
		}
		reqURL += "?" + q.Encode()
	} else {
		if opts.Model != "" {
			_ = writer.WriteField("model", opts.Model)
		}
		if lang != "" {
			_ = writer.WriteField("language", lang)
		}
		_ = writer.WriteField("response_format", "verbose_json")
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("local transcription complete", "flavor", c.whisperType, "text_length", len(result.Text), "language", result.Language)
	return &interpreter.TranscribeResult{
		Text:     result.Text,
		Language: openai.NormalizeLanguage(result.Language),
	}, nil
}

// Complete sends the prompt to the local LLM endpoint. Endpoints ending in
// /api/generate get Ollama's native format; anything else is treated as
// OpenAI-compatible chat completions.
func (c *Client) Complete(ctx context.Context, system, prompt string, jsonReply bool) (string, error) {
	var reqBody map[string]any
	if strings.HasSuffix(c.llmEndpoint, "/api/generate") {
		reqBody = map[string]any{
			"model":  c.llmModel,
			"prompt": prompt,
			"stream": false,
		}
		if system != "" {
			reqBody["system"] = system
		}
		if jsonReply {
			reqBody["format"] = "json"
		}
	} else {
		messages := []map[string]string{}
		if system != "" {
			messages = append(messages, map[string]string{"role": "system", "content": system})
		}
		messages = append(messages, map[string]string{"role": "user", "content": prompt})
		reqBody = map[string]any{
			"model":       c.llmModel,
			"messages":    messages,
			"temperature": 0.2,
			"stream":      false,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.llmEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody)
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading LLM response: %w", err)
	}

	content := extractContent(respData)
	if content == "" {
		return "", fmt.Errorf("empty response from local LLM")
	}
	return content, nil
}

func extractContent(data []byte) string {
	// OpenAI-compatible: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	// Ollama: {"response": "..."}
	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Response != "" {
		return ollamaResp.Response
	}

	return strings.TrimSpace(string(data))
}
