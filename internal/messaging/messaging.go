// Package messaging delivers chat messages for the send_message action.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
)

// ErrNotConfigured is returned when no messaging backend has credentials.
var ErrNotConfigured = errors.New("messaging is not configured")

// Sender posts a text message to a user or channel ID.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// SlackConfig holds Slack bot settings.
type SlackConfig struct {
	Token          string
	DefaultChannel string
	// APIURL overrides the Web API base URL. It must end with a slash.
	APIURL string
}

// Slack posts through the Slack Web API.
type Slack struct {
	client         *slack.Client
	defaultChannel string
}

// NewSlack creates a Slack sender. An empty token yields ErrNotConfigured.
func NewSlack(cfg SlackConfig) (*Slack, error) {
	if cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &Slack{
		client:         slack.New(cfg.Token, opts...),
		defaultChannel: cfg.DefaultChannel,
	}, nil
}

// Send posts text to a member or channel ID. An empty recipient uses the
// default channel.
func (s *Slack) Send(ctx context.Context, to, text string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		to = s.defaultChannel
	}
	if to == "" {
		return errors.New("no recipient and no default channel")
	}
	channel, ts, err := s.client.PostMessageContext(ctx, to, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	slog.Debug("slack message sent", "channel", channel, "ts", ts)
	return nil
}

// Disabled is the Sender used when nothing is configured.
type Disabled struct{}

// Send always fails with ErrNotConfigured.
func (Disabled) Send(context.Context, string, string) error { return ErrNotConfigured }
