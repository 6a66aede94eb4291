package wait_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/questbibek/leads-scraper-pro/internal/wait"
)

func TestSleep(t *testing.T) {
	t.Parallel()

	start := time.Now()
	require.NoError(t, wait.Plain.Sleep(context.Background(), 20*time.Millisecond))
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSleep_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, wait.Sleep(ctx, time.Hour), context.Canceled)
	require.ErrorIs(t, wait.Sleep(ctx, 0), context.Canceled)
}
