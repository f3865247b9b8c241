package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlackSend(t *testing.T) {
	var gotChannel, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotChannel = r.Form.Get("channel")
		gotText = r.Form.Get("text")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1700000000.000100"}`))
	}))
	defer srv.Close()

	s, err := NewSlack(SlackConfig{Token: "xoxb-test", DefaultChannel: "C-default", APIURL: srv.URL + "/"})
	require.NoError(t, err)

	require.NoError(t, s.Send(context.Background(), "U123", "running late"))
	assert.Equal(t, "U123", gotChannel)
	assert.Equal(t, "running late", gotText)

	require.NoError(t, s.Send(context.Background(), "", "hello"))
	assert.Equal(t, "C-default", gotChannel)
}

func TestSlackAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer srv.Close()

	s, err := NewSlack(SlackConfig{Token: "xoxb-test", APIURL: srv.URL + "/"})
	require.NoError(t, err)
	err = s.Send(context.Background(), "C404", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")

	assert.Error(t, s.Send(context.Background(), "", "hi"), "no default channel")
}

func TestNotConfigured(t *testing.T) {
	_, err := NewSlack(SlackConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, Disabled{}.Send(context.Background(), "x", "y"), ErrNotConfigured)
}
