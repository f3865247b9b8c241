// Package transport defines the interface for pluggable request transports.
//
// Each transport (HTTP/WebSocket, gRPC, MQTT) implements this interface and
// forwards requests to the dispatcher through a Handler. The dispatcher
// does not care how requests arrive.
package transport

import (
	"context"

	"github.com/nadzzz/deskpilot/internal/message"
)

// Handler processes an incoming request and returns the response that goes
// back to the sender. *dispatch.Dispatcher's Handle method satisfies it.
type Handler func(ctx context.Context, req *message.Request) (*message.Response, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mqtt").
	Name() string

	// Listen starts accepting requests and dispatches them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
