package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanmltya/repeat/internal/executor"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/recorder"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "repeat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenConfiguresDatabase(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, table := range []string{"action_stats", "sessions", "invocations"} {
		var name string
		err := s.DB().QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
	}

	var journal string
	require.NoError(t, s.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)

	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repeat.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Close())
}

func TestRecordInvocation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Now()

	require.NoError(t, s.RecordInvocation(ctx, executor.Invocation{
		ActionID: "a1", Name: "paste sig", Trigger: "[s,i,g]",
		Started: start, Duration: 20 * time.Millisecond,
		Outcome: executor.OutcomeSuccess, TimeSaved: 2 * time.Second,
	}))
	require.NoError(t, s.RecordInvocation(ctx, executor.Invocation{
		ActionID: "a1", Name: "paste signature", Trigger: "[Ctrl+g]",
		Started: start.Add(time.Second), Duration: 10 * time.Millisecond,
		Outcome: executor.OutcomeFailed, Err: errors.New("exit 1"),
	}))
	require.NoError(t, s.RecordInvocation(ctx, executor.Invocation{
		ActionID: "b2", Name: "other", Started: start, Outcome: executor.OutcomeCancelled,
		TimeSaved: time.Second,
	}))

	st, err := s.Stats(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "paste signature", st.Name)
	assert.Equal(t, int64(2), st.Invocations)
	assert.Equal(t, int64(1), st.Failures)
	assert.Equal(t, 30*time.Millisecond, st.TotalRun)
	assert.Equal(t, 2*time.Second, st.TimeSaved)
	assert.Equal(t, "[Ctrl+g]", st.LastTrigger)
	assert.Equal(t, start.Add(time.Second).UnixMilli(), st.LastUsed.UnixMilli())

	all, err := s.AllStats(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].ActionID)
	assert.Equal(t, int64(1), all[1].Cancelled)

	total, err := s.TotalTimeSaved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, total)

	outcomes, err := s.RecentOutcomes(ctx, "a1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"failed", "success"}, outcomes)

	require.NoError(t, s.ResetStats(ctx, "a1"))
	_, err = s.Stats(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
	outcomes, err = s.RecentOutcomes(ctx, "a1", 5)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestStoreIsStatsSink(t *testing.T) {
	var _ executor.StatsSink = (*Store)(nil)
}

func TestSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := recorder.NewSession("older")
	older.Created = time.Now().Add(-time.Hour)
	older.Append(0, key.Press(key.RuneCode('a'), 0))
	require.NoError(t, s.SaveSession(ctx, older))

	newer := recorder.NewSession("newer")
	newer.Append(0, key.Press(key.RuneCode('b'), 0))
	newer.Append(25*time.Millisecond, key.Release(key.RuneCode('b'), 0))
	require.NoError(t, s.SaveSession(ctx, newer))

	list, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, 2, list[0].Events)
	assert.Equal(t, 25*time.Millisecond, list[0].Duration)

	latest, err := s.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, latest.ID)

	got, err := s.LoadSession(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "older", got.Name)
	assert.Equal(t, 1, got.Len())

	older.Name = "renamed"
	require.NoError(t, s.SaveSession(ctx, older))
	got, err = s.LoadSession(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, s.DeleteSession(ctx, older.ID))
	assert.ErrorIs(t, s.DeleteSession(ctx, older.ID), ErrNotFound)
	_, err = s.LoadSession(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestSessionEmpty(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LatestSession(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	permanent := errors.New("UNIQUE constraint failed")
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}
