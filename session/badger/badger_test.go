package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hupe1980/chatrouter/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(func(o *Options) { o.InMemory = true })
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open()
	assert.Error(t, err)
}

func TestStore_AppendAndHistory(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	h, err := s.History(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, h)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 4 {
		require.NoError(t, s.Append(ctx, "s1", core.Exchange{
			TurnID:      fmt.Sprint(i),
			UserMessage: fmt.Sprintf("q%d", i),
			Response:    "a",
			Agent:       "technical",
			Confidence:  0.9,
			Timestamp:   ts,
		}))
	}
	require.NoError(t, s.Append(ctx, "s10", core.Exchange{TurnID: "other"}))

	h, err = s.History(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "2", h[0].TurnID)
	assert.Equal(t, "3", h[1].TurnID)
	assert.Equal(t, "technical", h[1].Agent)
	assert.True(t, ts.Equal(h[1].Timestamp))

	all, err := s.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "0", all[0].TurnID)

	other, err := s.History(ctx, "s10", 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "other", other[0].TurnID)
}

func TestStore_SessionsDoNotShareKeys(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ids := []string{"a", "a/b", "a/", "ab"}
	for _, id := range ids {
		require.NoError(t, s.Append(ctx, id, core.Exchange{TurnID: "t-" + id, Response: id}))
	}

	for _, id := range ids {
		h, err := s.History(ctx, id, 0)
		require.NoError(t, err)
		require.Len(t, h, 1, "session %q", id)
		assert.Equal(t, "t-"+id, h[0].TurnID)
	}

	require.NoError(t, s.Append(ctx, "a", core.Exchange{TurnID: "t-a-2"}))
	h, err := s.History(ctx, "a/b", 0)
	require.NoError(t, err)
	assert.Len(t, h, 1)
}

func TestStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(func(o *Options) { o.Dir = dir })
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "s", core.Exchange{TurnID: "persisted"}))
	require.NoError(t, s.Close())

	s, err = Open(func(o *Options) { o.Dir = dir })
	require.NoError(t, err)
	defer s.Close()
	h, err := s.History(ctx, "s", 0)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, "persisted", h[0].TurnID)

	// The sequence counter survives reopening.
	require.NoError(t, s.Append(ctx, "s", core.Exchange{TurnID: "next"}))
	h, err = s.History(ctx, "s", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"persisted", "next"}, []string{h[0].TurnID, h[1].TurnID})
}

func TestStore_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Append(ctx, "s", core.Exchange{}), context.Canceled)
	_, err := s.History(ctx, "s", 0)
	assert.ErrorIs(t, err, context.Canceled)
}
