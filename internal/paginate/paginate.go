// Package paginate loads an infinite-scroll result list until it stops growing.
package paginate

import (
	"context"
	"fmt"
	"time"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/wait"
)

// Feed is a scrollable result list.
type Feed interface {
	// ScrollToEnd scrolls the list to its current maximum extent.
	ScrollToEnd(ctx context.Context) error
	// Extent reports the list's current content height.
	Extent(ctx context.Context) (int, error)
	// EndReached reports whether the "end of results" marker is rendered.
	EndReached(ctx context.Context) (bool, error)
}

// Reason records why loading stopped.
type Reason string

const (
	ReasonStagnant  Reason = "stagnant"
	ReasonEndMarker Reason = "end of results"
	ReasonMaxScroll Reason = "max scrolls"
)

// Stats summarises one load.
type Stats struct {
	Iterations int
	Extent     int
	Reason     Reason
}

// Config tunes the loader.
type Config struct {
	MaxScrolls    int
	StagnantLimit int
	Settle        time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		MaxScrolls:    30,
		StagnantLimit: 3,
		Settle:        1500 * time.Millisecond,
	}
}

// Loader drives a Feed to convergence.
type Loader struct {
	cfg     Config
	sleeper wait.Sleeper
	log     logger.Logger
}

// New creates a Loader.
func New(cfg Config, sleeper wait.Sleeper, log logger.Logger) *Loader {
	if sleeper == nil {
		sleeper = wait.Plain
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{cfg: cfg, sleeper: sleeper, log: log}
}

// Load scrolls the feed until its extent stays unchanged for StagnantLimit
// rounds, the end marker shows up, or MaxScrolls rounds have run. A final
// settle wait lets the last batch render.
func (l *Loader) Load(ctx context.Context, feed Feed) (Stats, error) {
	previous, err := feed.Extent(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("read feed extent: %w", err)
	}

	stats := Stats{Reason: ReasonMaxScroll, Extent: previous}
	stagnant := 0

	for i := 0; i < l.cfg.MaxScrolls; i++ {
		stats.Iterations = i + 1

		if err := feed.ScrollToEnd(ctx); err != nil {
			return stats, fmt.Errorf("scroll feed: %w", err)
		}
		if err := l.sleeper.Sleep(ctx, l.cfg.Settle); err != nil {
			return stats, err
		}

		current, err := feed.Extent(ctx)
		if err != nil {
			return stats, fmt.Errorf("read feed extent: %w", err)
		}
		if current == previous {
			stagnant++
		} else {
			stagnant = 0
		}
		previous = current
		stats.Extent = current

		if end, err := feed.EndReached(ctx); err == nil && end {
			stats.Reason = ReasonEndMarker
			break
		}
		if stagnant >= l.cfg.StagnantLimit {
			stats.Reason = ReasonStagnant
			break
		}
	}

	l.log.Debug("Feed loaded",
		logger.Int("iterations", stats.Iterations),
		logger.Int("extent", stats.Extent),
		logger.String("reason", string(stats.Reason)),
	)

	if err := l.sleeper.Sleep(ctx, l.cfg.Settle); err != nil {
		return stats, err
	}
	return stats, nil
}
