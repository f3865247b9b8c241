package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/deskpilot/internal/command"
	"github.com/nadzzz/deskpilot/internal/config"
	"github.com/nadzzz/deskpilot/internal/message"
)

func TestProcess(t *testing.T) {
	var got *message.Request
	handler := func(_ context.Context, req *message.Request) (*message.Response, error) {
		got = req
		return &message.Response{RequestID: req.ID, Path: message.PathKeyword, Result: command.OK("Opened chrome")}, nil
	}

	out := Process(context.Background(), handler, []byte(`{"id":"m1","text":"open chrome","mode":"keyword"}`))

	var resp message.Response
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "m1", resp.RequestID)
	assert.Equal(t, "Opened chrome", resp.Result.Message)
	require.NotNil(t, got)
	assert.Equal(t, "mqtt", got.Source)
	assert.Equal(t, message.ModeKeyword, got.Mode)
}

func TestProcessErrors(t *testing.T) {
	never := func(context.Context, *message.Request) (*message.Response, error) {
		t.Fatal("handler must not run")
		return nil, nil
	}
	var resp message.Response
	require.NoError(t, json.Unmarshal(Process(context.Background(), never, []byte("not json")), &resp))
	assert.Contains(t, resp.Error, "invalid json")

	failing := func(context.Context, *message.Request) (*message.Response, error) {
		return nil, errors.New("boom")
	}
	require.NoError(t, json.Unmarshal(Process(context.Background(), failing, []byte(`{"id":"m2","text":"x"}`)), &resp))
	assert.Equal(t, "m2", resp.RequestID)
	assert.Equal(t, "boom", resp.Error)
}

func TestReplyTopic(t *testing.T) {
	tr := New(config.MQTTConfig{Topic: "deskpilot/requests"})
	assert.Equal(t, "deskpilot/requests/reply", tr.ReplyTopic())
	assert.Equal(t, "mqtt", tr.Name())
	assert.NoError(t, tr.Close())
}
