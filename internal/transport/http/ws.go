package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/deskpilot/internal/events"
	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/metrics"
	"github.com/nadzzz/deskpilot/internal/transport"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// deskpilot listens for local tools; any origin may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Frame is the envelope for every WebSocket message in both directions.
//
// Clients send {"type":"command","request":{...}}. The server sends
// {"type":"event","event":{...}} for bus events, {"type":"response",
// "response":{...}} for command results and {"type":"error","error":"..."}
// for frames it could not handle.
type Frame struct {
	Type     string            `json:"type"`
	Request  *message.Request  `json:"request,omitempty"`
	Response *message.Response `json:"response,omitempty"`
	Event    *events.Event     `json:"event,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(f)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (t *Transport) handleWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "ws-" + r.RemoteAddr
	}
	logger := slog.With("source", source)
	logger.Info("websocket client connected")

	metrics.WebSocketClients.Inc()
	defer metrics.WebSocketClients.Dec()

	c := &wsConn{conn: conn}
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer conn.Close()

	var sub *events.Subscription
	var subC <-chan events.Event
	if t.bus != nil {
		sub = t.bus.Subscribe(r.URL.Query()["topic"]...)
		defer sub.Unsubscribe()
		subC = sub.C
	}

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-connCtx.Done():
				_ = conn.Close()
				return
			case ev, ok := <-subC:
				if !ok {
					subC = nil
					continue
				}
				if err := c.send(Frame{Type: "event", Event: &ev}); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				if err := c.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			logger.Info("websocket client disconnected")
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var in Frame
		if err := json.Unmarshal(data, &in); err != nil {
			_ = c.send(Frame{Type: "error", Error: "invalid frame: " + err.Error()})
			continue
		}
		if in.Type != "command" || in.Request == nil {
			_ = c.send(Frame{Type: "error", Error: `expected {"type":"command","request":{...}}`})
			continue
		}

		metrics.Requests.WithLabelValues("ws").Inc()
		req := in.Request
		if req.Source == "" {
			req.Source = source
		}
		resp, err := handler(connCtx, req)
		if err != nil {
			_ = c.send(Frame{Type: "error", Error: err.Error()})
			continue
		}
		if err := c.send(Frame{Type: "response", Response: resp}); err != nil {
			return
		}
	}
}
