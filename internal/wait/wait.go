// Package wait holds the cooperative wait primitives shared by the polling loops.
package wait

import (
	"context"
	"errors"
	"time"
)

// ErrStopped is returned from a wait point once the session has been stopped.
var ErrStopped = errors.New("session stopped")

// Sleeper suspends the caller for a duration. Implementations may spin while
// paused and must return ErrStopped once a stop was requested.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a plain function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// Plain is a context-aware sleeper with no pause support.
var Plain Sleeper = SleeperFunc(Sleep)

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
