package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, max int) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "history.db"), max)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordRecent(t *testing.T) {
	l := openTest(t, 0)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		e, err := l.Record(ctx, Entry{
			Text:     fmt.Sprintf("cmd %d", i),
			Action:   "open_app",
			Success:  true,
			Duration: 1500 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), e.ID)
		assert.False(t, e.Time.IsZero())
	}

	recent, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "cmd 3", recent[0].Text)
	assert.Equal(t, "cmd 2", recent[1].Text)
	assert.Equal(t, 1500*time.Millisecond, recent[0].Duration)

	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTrim(t *testing.T) {
	l := openTest(t, 3)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := l.Record(ctx, Entry{Text: fmt.Sprintf("cmd %d", i), Action: "wait"})
		require.NoError(t, err)
	}
	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "cmd 5", all[0].Text)
	assert.Equal(t, "cmd 3", all[2].Text)
}

func TestStats(t *testing.T) {
	l := openTest(t, 0)
	ctx := context.Background()

	empty, err := l.Stats(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.SuccessRate)

	for _, e := range []Entry{
		{Action: "open_app", Success: true},
		{Action: "open_app", Success: true},
		{Action: "web_search", Success: true},
		{Action: "unknown", Success: false},
	} {
		_, err := l.Record(ctx, e)
		require.NoError(t, err)
	}

	s, err := l.Stats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 75.0, s.SuccessRate, 0.001)
	assert.Equal(t, []ActionCount{{"open_app", 2}, {"unknown", 1}}, s.TopActions)
}

func TestCancelledContext(t *testing.T) {
	l := openTest(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Record(ctx, Entry{Action: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
