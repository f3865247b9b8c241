// Package mqtt implements the MQTT transport for deskpilot.
//
// The transport subscribes to the request topic and publishes every
// response, as JSON, to "<topic>/reply". Phones and home-automation hubs
// that already speak MQTT can drive the desktop this way.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nadzzz/deskpilot/internal/config"
	"github.com/nadzzz/deskpilot/internal/message"
	"github.com/nadzzz/deskpilot/internal/metrics"
	"github.com/nadzzz/deskpilot/internal/transport"
)

const connectTimeout = 30 * time.Second

// Transport implements transport.Transport over MQTT.
type Transport struct {
	cfg    config.MQTTConfig
	client mqtt.Client
}

// New creates a new MQTT transport.
func New(cfg config.MQTTConfig) *Transport {
	return &Transport{cfg: cfg}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mqtt" }

// ReplyTopic is where responses are published.
func (t *Transport) ReplyTopic() string { return t.cfg.Topic + "/reply" }

// Listen connects to the broker, subscribes to the request topic and
// blocks until ctx is cancelled. The subscription is renewed on every
// reconnect.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(t.cfg.Broker)
	opts.SetClientID(t.cfg.ClientID)
	if t.cfg.Username != "" {
		opts.SetUsername(t.cfg.Username)
		opts.SetPassword(t.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	// Requests may block on the desktop; let paho run callbacks concurrently.
	opts.SetOrderMatters(false)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(t.cfg.Topic, t.cfg.QoS, func(c mqtt.Client, m mqtt.Message) {
			t.onMessage(ctx, c, m, handler)
		})
		if token.Wait() && token.Error() != nil {
			slog.Error("mqtt subscribe failed", "topic", t.cfg.Topic, "error", token.Error())
			return
		}
		slog.Info("mqtt subscribed", "topic", t.cfg.Topic, "reply_topic", t.ReplyTopic())
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("mqtt connection lost", "error", err)
	})

	t.client = mqtt.NewClient(opts)
	token := t.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect: timeout after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	slog.Info("mqtt transport listening", "broker", t.cfg.Broker, "topic", t.cfg.Topic)

	<-ctx.Done()
	slog.Info("mqtt transport shutting down")
	t.client.Disconnect(250)
	return nil
}

func (t *Transport) onMessage(ctx context.Context, c mqtt.Client, m mqtt.Message, handler transport.Handler) {
	metrics.Requests.WithLabelValues("mqtt").Inc()
	reply := Process(ctx, handler, m.Payload())
	token := c.Publish(t.ReplyTopic(), t.cfg.QoS, false, reply)
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		slog.Error("mqtt publish failed", "topic", t.ReplyTopic(), "error", token.Error())
	}
}

// Process decodes one request payload, runs it and encodes the reply.
// Undecodable payloads get a response carrying only the error.
func Process(ctx context.Context, handler transport.Handler, payload []byte) []byte {
	var req message.Request
	var resp *message.Response
	if err := json.Unmarshal(payload, &req); err != nil {
		resp = &message.Response{Path: message.PathNone, Error: "invalid json: " + err.Error()}
	} else {
		if req.Source == "" {
			req.Source = "mqtt"
		}
		var herr error
		resp, herr = handler(ctx, &req)
		if herr != nil {
			resp = &message.Response{RequestID: req.ID, Path: message.PathNone, Error: herr.Error()}
		}
	}
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(message.Response{RequestID: req.ID, Error: "encoding response: " + err.Error()})
	}
	return out
}

// Close disconnects from the MQTT broker.
func (t *Transport) Close() error {
	if t.client != nil && t.client.IsConnected() {
		t.client.Disconnect(250)
	}
	return nil
}
