package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	topics []string
	last   any
}

func (r *recorder) Publish(topic string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.last = payload
}

func TestSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:30", "30 9 * * *", false},
		{"00:00", "0 0 * * *", false},
		{" 23:59 ", "59 23 * * *", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"ab:cd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Spec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddCancelPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.json")
	noop := func(context.Context, string) error { return nil }

	s, err := Open(path, noop, nil)
	require.NoError(t, err)

	e, err := s.Add("8:05", []string{"chrome", " ", "slack"})
	require.NoError(t, err)
	assert.Equal(t, "08:05", e.Time)
	assert.Equal(t, []string{"chrome", "slack"}, e.Apps)
	assert.True(t, e.Enabled)

	_, err = s.Add("07:00", nil)
	assert.Error(t, err)
	_, err = s.Add("7pm", []string{"chrome"})
	assert.Error(t, err)

	reopened, err := Open(path, noop, nil)
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)
	assert.Contains(t, reopened.jobs, e.ID, "enabled entries re-register on open")

	require.NoError(t, reopened.Cancel(e.ID))
	assert.ErrorIs(t, reopened.Cancel(e.ID), ErrNotFound)
	assert.Empty(t, reopened.List())
	assert.Empty(t, reopened.cron.Entries())
}

func TestRunPublishes(t *testing.T) {
	var launched []string
	launch := func(_ context.Context, app string) error {
		if app == "broken" {
			return errors.New("not installed")
		}
		launched = append(launched, app)
		return nil
	}
	pub := &recorder{}
	s, err := Open(filepath.Join(t.TempDir(), "schedules.json"), launch, pub)
	require.NoError(t, err)

	fired := s.Run(context.Background(), Entry{ID: "abc", Time: "09:00", Apps: []string{"chrome", "broken", "slack"}})
	assert.Equal(t, []string{"chrome", "slack"}, fired.Opened)
	assert.Equal(t, []string{"broken"}, fired.Failed)
	assert.Equal(t, []string{"chrome", "slack"}, launched)
	assert.Equal(t, []string{TopicFired}, pub.topics)
	assert.Equal(t, fired, pub.last)
}

func TestListOrder(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "schedules.json"), func(context.Context, string) error { return nil }, nil)
	require.NoError(t, err)
	_, err = s.Add("18:00", []string{"spotify"})
	require.NoError(t, err)
	_, err = s.Add("07:30", []string{"mail"})
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "07:30", list[0].Time)
	assert.Equal(t, "18:00", list[1].Time)
}
