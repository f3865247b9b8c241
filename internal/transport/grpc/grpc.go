// Package grpc implements the gRPC transport for deskpilot.
//
// The service deskpilot.Assistant has a single unary method, Dispatch,
// whose request and response are message.Request and message.Response
// encoded with the "json" codec registered by this package. Clients select
// it with grpc.CallContentSubtype("json"); Client does that for Go
// callers. The standard grpc.health.v1 service is served alongside.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/metrics"
	"github.com/nadzzz/deskpilot/internal/transport"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "deskpilot.Assistant"
	// DispatchMethod is the full method path of Dispatch.
	DispatchMethod = "/" + ServiceName + "/Dispatch"
)

// AssistantServer is the server API for deskpilot.Assistant.
type AssistantServer interface {
	Dispatch(ctx context.Context, req *message.Request) (*message.Response, error)
}

func dispatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServer).Dispatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DispatchMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServer).Dispatch(ctx, req.(*message.Request))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Dispatch", Handler: dispatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deskpilot/assistant",
}

// RegisterAssistantServer registers srv with s.
func RegisterAssistantServer(s grpc.ServiceRegistrar, srv AssistantServer) {
	s.RegisterService(&serviceDesc, srv)
}

type assistant struct {
	handler transport.Handler
}

func (a assistant) Dispatch(ctx context.Context, req *message.Request) (*message.Response, error) {
	metrics.Requests.WithLabelValues("grpc").Inc()
	if req.Source == "" {
		req.Source = "grpc"
	}
	return a.handler(ctx, req)
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("grpc call", "method", info.FullMethod, "duration", time.Since(start), "error", err)
	return resp, err
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen opens the TCP port and serves until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve runs the server on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	t.server = grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	RegisterAssistantServer(t.server, assistant{handler: handler})

	t.health = health.NewServer()
	healthpb.RegisterHealthServer(t.server, t.health)
	t.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		t.server.GracefulStop()
	}()

	if err := t.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

// Client calls deskpilot.Assistant.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dispatch sends one request.
func (c *Client) Dispatch(ctx context.Context, req *message.Request, opts ...grpc.CallOption) (*message.Response, error) {
	out := new(message.Response)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, DispatchMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
