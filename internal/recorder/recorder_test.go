package recorder

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/input/mouse"
)

type sink struct {
	mu     sync.Mutex
	events []input.Event
	onEmit func(n int)
}

func (s *sink) Emit(_ context.Context, e input.Event) error {
	s.mu.Lock()
	s.events = append(s.events, e)
	n := len(s.events)
	s.mu.Unlock()
	if s.onEmit != nil {
		s.onEmit(n)
	}
	return nil
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func press(r rune) key.Event { return key.Press(key.RuneCode(r), 0) }
func release(r rune) key.Event { return key.Release(key.RuneCode(r), 0) }

// session builds a session of alternating a/b presses spaced gap apart.
func session(n int, gap time.Duration) *Session {
	s := NewSession("test")
	for i := range n {
		r := 'a'
		if i%2 == 1 {
			r = 'b'
		}
		s.Append(time.Duration(i)*gap, press(r))
	}
	return s
}

// completions records every onComplete call.
type completions struct {
	mu    sync.Mutex
	calls []error
}

func (c *completions) done(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, err)
}

func (c *completions) all() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.calls...)
}

// completion returns an onComplete callback and a way to read its calls.
func completion() (func(error), func() []error) {
	c := &completions{}
	return c.done, c.all
}

func TestRecordCapturesOffsets(t *testing.T) {
	r := New(&sink{})
	assert.Nil(t, r.StopRecord())
	require.True(t, r.Record())
	assert.False(t, r.Record())
	assert.Equal(t, StateRecording, r.State())

	base := time.Now()
	at := func(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }

	r.ObserveEvent(key.Release(key.SpecialCode(key.KeyF9), 0).WithTimestamp(at(0)))
	r.ObserveEvent(press('h').WithTimestamp(at(10)))
	r.ObserveEvent(mouse.Move(mouse.Position{X: 4, Y: 5}).WithTimestamp(at(15)))
	r.ObserveEvent(release('h').WithTimestamp(at(30)))
	r.ObserveEvent(press('i').WithTimestamp(at(25)))
	r.ObserveEvent(release('i').WithTimestamp(at(50)))
	r.ObserveEvent(key.Press(key.SpecialCode(key.KeyF9), 0).WithTimestamp(at(70)))

	s := r.StopRecord()
	require.NotNil(t, s)
	assert.Equal(t, StateIdle, r.State())
	require.Equal(t, 5, s.Len(), "toggle key release and press are trimmed")

	offsets := make([]time.Duration, s.Len())
	for i, e := range s.Entries {
		offsets[i] = e.Offset
	}
	assert.Equal(t, []time.Duration{
		0,
		5 * time.Millisecond,
		20 * time.Millisecond,
		20 * time.Millisecond, // clamped, never decreases
		40 * time.Millisecond,
	}, offsets)
	assert.Equal(t, 40*time.Millisecond, s.Duration())

	r.ObserveEvent(press('z'))
	assert.Equal(t, 5, r.Session().Len(), "events after stop are not recorded")
}

func TestSetSpeedup(t *testing.T) {
	r := New(&sink{})
	assert.InDelta(t, 1.0, r.Speedup(), 0)

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		err := r.SetSpeedup(bad)
		assert.ErrorIs(t, err, ErrInvalidSpeedup)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
	require.NoError(t, r.SetSpeedup(2.5))
	assert.InDelta(t, 2.5, r.Speedup(), 0)
}

func TestTinySpeedupSaturates(t *testing.T) {
	r := New(&sink{})
	require.NoError(t, r.SetSpeedup(1e-12))
	assert.Equal(t, time.Duration(math.MaxInt64), r.scale(time.Second, 0))
	assert.Equal(t, time.Duration(0), r.scale(0, 0))

	out := &sink{}
	r = New(out)
	require.NoError(t, r.SetSpeedup(1e-12))
	require.NoError(t, r.Load(session(2, time.Second)))
	started, err := r.Replay(ReplayOptions{Repeat: 1}, nil)
	require.NoError(t, err)
	require.True(t, started)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, out.count(), "the second event waits out the scaled gap")
	assert.True(t, r.IsReplaying())
	r.StopReplay()
	require.NoError(t, r.Wait(context.Background()))
	assert.Equal(t, 1, out.count())
}

func TestSpeedupChangeAppliesToLaterGaps(t *testing.T) {
	s := NewSession("")
	for i := range 3 {
		s.Append(time.Duration(i)*150*time.Millisecond, press('a'))
	}

	out := &sink{}
	r := New(out)
	require.NoError(t, r.Load(s))
	out.onEmit = func(n int) {
		if n == 1 {
			go func() {
				time.Sleep(20 * time.Millisecond)
				_ = r.SetSpeedup(10)
			}()
		}
	}
	_, err := r.Replay(ReplayOptions{Repeat: 1, Blocking: true}, nil)
	require.NoError(t, err)

	out.mu.Lock()
	defer out.mu.Unlock()
	require.Len(t, out.events, 3)
	inFlight := out.events[1].Time().Sub(out.events[0].Time())
	next := out.events[2].Time().Sub(out.events[1].Time())
	assert.GreaterOrEqual(t, inFlight, 140*time.Millisecond, "the gap already scheduled keeps the old factor")
	assert.Less(t, next, 100*time.Millisecond, "the following gap uses the new factor")
}

func TestReplayValidation(t *testing.T) {
	r := New(&sink{})

	_, err := r.Replay(ReplayOptions{Repeat: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidRepeat)
	_, err = r.Replay(ReplayOptions{Repeat: 1, Delay: -time.Second}, nil)
	assert.ErrorIs(t, err, ErrInvalidDelay)
	_, err = r.Replay(ReplayOptions{Repeat: 1, MaxSpeedup: math.NaN()}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	started, err := r.Replay(ReplayOptions{Repeat: 1}, nil)
	assert.False(t, started)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = New(nil).Replay(ReplayOptions{Repeat: 1}, nil)
	assert.ErrorIs(t, err, ErrNoEmitter)
	assert.Equal(t, StateIdle, r.State())
}

func TestReplayRepeatsAndCompletesOnce(t *testing.T) {
	out := &sink{}
	r := New(out)
	require.NoError(t, r.Load(session(3, time.Millisecond)))

	onComplete, calls := completion()
	started, err := r.Replay(ReplayOptions{Repeat: 3, Delay: 2 * time.Millisecond, Blocking: true}, onComplete)
	require.NoError(t, err)
	assert.True(t, started)

	assert.Equal(t, 9, out.count())
	assert.Equal(t, []error{nil}, calls())
	assert.Equal(t, StateIdle, r.State())

	got := make([]string, 0, 9)
	for _, e := range out.events {
		got = append(got, e.String())
	}
	assert.Equal(t, []string{"a", "b", "a", "a", "b", "a", "a", "b", "a"}, got)
}

func TestReplayRestampsEvents(t *testing.T) {
	out := &sink{}
	r := New(out)
	s := NewSession("old")
	s.Append(0, press('q').WithTimestamp(time.Unix(0, 0)))
	require.NoError(t, r.Load(s))

	before := time.Now()
	_, err := r.Replay(ReplayOptions{Repeat: 1, Blocking: true}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, out.count())
	assert.False(t, out.events[0].Time().Before(before))
}

func TestReplayCancelAfterFirstPass(t *testing.T) {
	out := &sink{}
	r := New(out)
	require.NoError(t, r.Load(session(4, time.Millisecond)))
	out.onEmit = func(n int) {
		if n == 4 {
			r.StopReplay()
		}
	}

	onComplete, calls := completion()
	started, err := r.Replay(ReplayOptions{Repeat: 3}, onComplete)
	require.NoError(t, err)
	require.True(t, started)

	require.NoError(t, r.Wait(context.Background()))
	assert.Equal(t, 4, out.count(), "no event from the second pass")
	require.Len(t, calls(), 1)
	assert.ErrorIs(t, calls()[0], context.Canceled)
	assert.False(t, r.IsReplaying())

	r.StopReplay()
	assert.Len(t, calls(), 1)
}

func TestReplayUntilCancelled(t *testing.T) {
	out := &sink{}
	r := New(out)
	require.NoError(t, r.Load(session(2, 0)))
	out.onEmit = func(n int) {
		if n == 7 {
			r.StopReplay()
		}
	}

	onComplete, calls := completion()
	_, err := r.Replay(ReplayOptions{Repeat: 0, Blocking: true}, onComplete)
	require.NoError(t, err)
	assert.Equal(t, 7, out.count())
	assert.Len(t, calls(), 1)
}

func TestReplayParentContext(t *testing.T) {
	r := New(&sink{})
	require.NoError(t, r.Load(session(2, time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	onComplete, calls := completion()
	_, err := r.ReplayContext(ctx, ReplayOptions{Repeat: 1}, onComplete)
	require.NoError(t, err)
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.NoError(t, r.Wait(waitCtx))
	require.Len(t, calls(), 1)
	assert.ErrorIs(t, calls()[0], context.Canceled)
}

func TestReplaySpeedup(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	timeReplay := func(speedup, maxSpeedup float64) time.Duration {
		r := New(&sink{})
		require.NoError(t, r.Load(session(3, 60*time.Millisecond)))
		require.NoError(t, r.SetSpeedup(speedup))
		start := time.Now()
		_, err := r.Replay(ReplayOptions{Repeat: 1, MaxSpeedup: maxSpeedup, Blocking: true}, nil)
		require.NoError(t, err)
		return time.Since(start)
	}

	normal := timeReplay(1, 0)
	double := timeReplay(2, 0)
	capped := timeReplay(8, 2)

	assert.GreaterOrEqual(t, normal, 120*time.Millisecond)
	assert.GreaterOrEqual(t, double, 60*time.Millisecond)
	assert.Less(t, double, normal*3/4)
	assert.GreaterOrEqual(t, capped, 60*time.Millisecond, "speedup is capped at 2")
}

func TestRecordAndReplayExclusive(t *testing.T) {
	out := &sink{}
	r := New(out)
	require.NoError(t, r.Load(session(2, time.Hour)))

	_, err := r.Replay(ReplayOptions{Repeat: 1}, nil)
	require.NoError(t, err)
	assert.True(t, r.IsReplaying())
	assert.False(t, r.Record(), "record is a no-op while replaying")
	assert.ErrorIs(t, r.Load(session(1, 0)), ErrBusy)

	started, err := r.Replay(ReplayOptions{Repeat: 1}, nil)
	assert.False(t, started)
	assert.NoError(t, err)

	r.StopReplay()
	require.NoError(t, r.Wait(context.Background()))

	require.True(t, r.Record())
	started, err = r.Replay(ReplayOptions{Repeat: 1}, nil)
	assert.False(t, started, "replay is a no-op while recording")
	assert.NoError(t, err)
}

func TestReplayEmitError(t *testing.T) {
	boom := errors.New("boom")
	r := New(EmitterFunc(func(context.Context, input.Event) error { return boom }))
	require.NoError(t, r.Load(session(2, 0)))

	onComplete, calls := completion()
	started, err := r.Replay(ReplayOptions{Repeat: 2, Blocking: true}, onComplete)
	assert.True(t, started)
	assert.ErrorIs(t, err, boom)
	require.Len(t, calls(), 1)
	assert.ErrorIs(t, calls()[0], boom)
}

func TestClear(t *testing.T) {
	r := New(&sink{})
	require.NoError(t, r.Load(session(1, 0)))
	r.Clear()
	assert.Nil(t, r.Session())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "recording", StateRecording.String())
	assert.Equal(t, "replaying", StateReplaying.String())
}
