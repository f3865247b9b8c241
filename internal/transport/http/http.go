// Package http implements the HTTP/WebSocket transport for deskpilot.
//
// POST /dispatch runs one request through the dispatcher. GET /ws upgrades
// to a WebSocket that streams bus events and accepts command frames.
// Swagger UI is served under /swagger/ when enabled.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/deskpilot/internal/config"
	"github.com/nadzzz/deskpilot/internal/events"
	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/metrics"
	"github.com/nadzzz/deskpilot/internal/transport"

	_ "github.com/nadzzz/deskpilot/docs" // registers the OpenAPI spec with swag
)

const maxBody = 25 << 20 // 25 MB

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port    int
	swagger bool
	bus     *events.Bus
	server  *http.Server
}

// New creates a new HTTP transport. A nil bus disables event streaming on
// /ws; command frames still work.
func New(cfg config.HTTPConfig, bus *events.Bus) *Transport {
	return &Transport{port: cfg.Port, swagger: cfg.Swagger, bus: bus}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Routes builds the transport's handler.
func (t *Transport) Routes(ctx context.Context, handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /dispatch", func(w http.ResponseWriter, r *http.Request) {
		t.handleDispatch(w, r, handler)
	})

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleWebSocket(ctx, w, r, handler)
	})

	if t.swagger {
		mux.Handle("GET /swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}
	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Routes(ctx, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port, "swagger", t.swagger)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleDispatch processes a POST /dispatch request.
//
// @Summary     Dispatch a text or voice request
// @Description Accepts a JSON request, or raw audio bytes with the audio Content-Type.
// @Description The text is normalized into a command (keyword matcher, AI, or both per mode),
// @Description executed, recorded in history, and the result is returned to the caller.
// @Tags        dispatch
// @Accept      json
// @Accept      audio/wav
// @Accept      audio/ogg
// @Produce     json
// @Param       request  body      message.Request  true  "Dispatch request (JSON). For raw audio, POST the bytes directly with the appropriate Content-Type."
// @Param       X-Deskpilot-Source  header  string  false  "Sender identifier (used with raw audio uploads)"
// @Param       X-Deskpilot-Mode    header  string  false  "voice, ai or keyword (used with raw audio uploads)"
// @Success     200  {object}  message.Response  "Dispatch result"
// @Failure     400  {string}  string  "Invalid request body"
// @Failure     500  {string}  string  "Internal processing error"
// @Router      /dispatch [post]
func (t *Transport) handleDispatch(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	metrics.Requests.WithLabelValues("http").Inc()
	var req message.Request

	contentType := r.Header.Get("Content-Type")
	switch {
	case contentType == "" || contentType == "application/json":
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	default:
		audio, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			http.Error(w, "reading audio: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Audio = audio
		req.ContentType = contentType
		req.Source = r.Header.Get("X-Deskpilot-Source")
		req.Mode = message.Mode(r.Header.Get("X-Deskpilot-Mode"))
		req.ResponseMode = message.ResponseMode(r.Header.Get("X-Deskpilot-Response-Mode"))
	}
	if req.Source == "" {
		req.Source = "http-" + r.RemoteAddr
	}

	resp, err := handler(r.Context(), &req)
	if err != nil {
		slog.Error("dispatch failed", "error", err)
		http.Error(w, "dispatch error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
