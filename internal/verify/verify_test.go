package verify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/verify"
	"github.com/questbibek/leads-scraper-pro/internal/wait"
)

// scriptedPanel returns titles[i] on the i-th read and repeats the last one.
type scriptedPanel struct {
	mu     sync.Mutex
	titles []string
	reads  int
}

func (p *scriptedPanel) Title(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.reads
	if idx >= len(p.titles) {
		idx = len(p.titles) - 1
	}
	p.reads++
	return p.titles[idx], nil
}

func fastConfig() verify.Config {
	return verify.Config{
		Timeout:  200 * time.Millisecond,
		Interval: 5 * time.Millisecond,
		MinWait:  verify.MinWait{Base: 10 * time.Millisecond, Step: 5 * time.Millisecond},
		Grace:    60 * time.Millisecond,
	}
}

func TestObserve(t *testing.T) {
	t.Parallel()

	assert.Equal(t, verify.Loading, verify.Observe("  ", "Cafe X"))
	assert.Equal(t, verify.Correct, verify.Observe(" Cafe X ", "Cafe X"))
	assert.Equal(t, verify.Wrong, verify.Observe("Cafe Y", "Cafe X"))
	assert.Equal(t, verify.Wrong, verify.Observe("cafe x", "Cafe X"))
}

func TestMinWait_GrowsWithAttempt(t *testing.T) {
	t.Parallel()

	m := verify.MinWait{Base: time.Second, Step: 500 * time.Millisecond}
	assert.Equal(t, 1500*time.Millisecond, m.For(0))
	assert.Equal(t, 1500*time.Millisecond, m.For(1))
	assert.Equal(t, 3500*time.Millisecond, m.For(5))
}

func TestAwait_VerifiedAfterMinWait(t *testing.T) {
	t.Parallel()

	panel := &scriptedPanel{titles: []string{"", "Previous", "Cafe X"}}
	v := verify.New(fastConfig(), wait.Plain, logger.NewNop())

	start := time.Now()
	outcome, err := v.Await(context.Background(), panel, "Cafe X", 2)
	require.NoError(t, err)
	assert.Equal(t, verify.Verified, outcome)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "match accepted before the minimum wait")
}

func TestAwait_MismatchAfterGrace(t *testing.T) {
	t.Parallel()

	panel := &scriptedPanel{titles: []string{"Cafe Y"}}
	v := verify.New(fastConfig(), wait.Plain, logger.NewNop())

	outcome, err := v.Await(context.Background(), panel, "Cafe X", 1)
	require.NoError(t, err)
	assert.Equal(t, verify.Mismatch, outcome)
}

func TestAwait_TimesOutWhileLoading(t *testing.T) {
	t.Parallel()

	panel := &scriptedPanel{titles: []string{""}}
	v := verify.New(fastConfig(), wait.Plain, logger.NewNop())

	outcome, err := v.Await(context.Background(), panel, "Cafe X", 1)
	require.NoError(t, err)
	assert.Equal(t, verify.TimedOut, outcome)
}

func TestAwait_StopInterruptsPolling(t *testing.T) {
	t.Parallel()

	stopped := wait.SleeperFunc(func(context.Context, time.Duration) error { return wait.ErrStopped })
	v := verify.New(fastConfig(), stopped, logger.NewNop())

	_, err := v.Await(context.Background(), &scriptedPanel{titles: []string{""}}, "Cafe X", 1)
	require.True(t, errors.Is(err, wait.ErrStopped))
}

func TestAwait_PausedTimeDoesNotCountTowardTimeout(t *testing.T) {
	t.Parallel()

	// The first interval blocks well past the timeout, as a paused session does.
	var once sync.Once
	pausing := wait.SleeperFunc(func(ctx context.Context, d time.Duration) error {
		once.Do(func() { time.Sleep(300 * time.Millisecond) })
		return wait.Sleep(ctx, d)
	})
	panel := &scriptedPanel{titles: []string{"", "", "", "Cafe X"}}
	v := verify.New(fastConfig(), pausing, logger.NewNop())

	outcome, err := v.Await(context.Background(), panel, "Cafe X", 1)
	require.NoError(t, err)
	assert.Equal(t, verify.Verified, outcome)
}
