// Package verify decides whether the detail panel shows the listing that was
// just selected.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/wait"
)

// Panel exposes the identity label of the currently displayed detail view.
type Panel interface {
	Title(ctx context.Context) (string, error)
}

// State classifies a single observation of the panel.
type State int

const (
	// Loading means the panel shows no identity yet.
	Loading State = iota
	// Wrong means the panel shows a different listing.
	Wrong
	// Correct means the panel shows the expected listing.
	Correct
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Wrong:
		return "wrong"
	case Correct:
		return "correct"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Observe classifies an observed label against the expected one. Matching is
// exact after trimming surrounding whitespace; duplicate business names are
// indistinguishable.
func Observe(observed, expected string) State {
	observed = strings.TrimSpace(observed)
	switch {
	case observed == "":
		return Loading
	case observed == strings.TrimSpace(expected):
		return Correct
	default:
		return Wrong
	}
}

// Outcome is the result of waiting for the panel to settle.
type Outcome int

const (
	// Verified means the expected label was shown after the minimum wait.
	Verified Outcome = iota
	// Mismatch means another listing stayed on screen past the grace window.
	Mismatch
	// TimedOut means neither happened before the timeout.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Mismatch:
		return "mismatch"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MinWait is the minimum time a match must wait before it is accepted. It
// grows with the attempt number so later retries give the panel longer to
// replace a stale value.
type MinWait struct {
	Base time.Duration
	Step time.Duration
}

// For returns the minimum wait for a 1-based attempt.
func (m MinWait) For(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return m.Base + time.Duration(attempt)*m.Step
}

// Config tunes the verifier.
type Config struct {
	// Timeout bounds one verification.
	Timeout time.Duration
	// Interval is the poll period.
	Interval time.Duration
	// MinWait gates acceptance of a match.
	MinWait MinWait
	// Grace is how long a wrong label may persist before it is rejected.
	Grace time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		Timeout:  10 * time.Second,
		Interval: 250 * time.Millisecond,
		MinWait:  MinWait{Base: 1000 * time.Millisecond, Step: 500 * time.Millisecond},
		Grace:    4 * time.Second,
	}
}

// Verifier polls a Panel until it shows an expected label.
type Verifier struct {
	cfg     Config
	sleeper wait.Sleeper
	log     logger.Logger
}

// New creates a Verifier. A nil sleeper falls back to wait.Plain.
func New(cfg Config, sleeper wait.Sleeper, log logger.Logger) *Verifier {
	if sleeper == nil {
		sleeper = wait.Plain
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{cfg: cfg, sleeper: sleeper, log: log}
}

// Await polls the panel until it shows expected (Verified), keeps showing
// another listing past the grace window (Mismatch), or the timeout elapses
// (TimedOut). Errors are returned only when the wait itself is interrupted.
//
// Elapsed time counts the polls and the intervals slept through the sleeper,
// so time the sleeper spends paused does not run down the timeout.
func (v *Verifier) Await(ctx context.Context, panel Panel, expected string, attempt int) (Outcome, error) {
	minWait := v.cfg.MinWait.For(attempt)
	var elapsed time.Duration
	mark := time.Now()
	var last string

	for {
		elapsed += time.Since(mark)
		mark = time.Now()

		observed, err := panel.Title(ctx)
		if err != nil {
			v.log.Debug("Reading panel title failed", logger.Error(err))
			observed = ""
		}
		observed = strings.TrimSpace(observed)
		if observed != last {
			v.log.Debug("Panel title changed",
				logger.String("observed", observed),
				logger.String("expected", expected),
				logger.Duration("elapsed", elapsed),
			)
			last = observed
		}

		switch Observe(observed, expected) {
		case Correct:
			if elapsed >= minWait {
				return Verified, nil
			}
		case Wrong:
			if elapsed >= v.cfg.Grace {
				return Mismatch, nil
			}
		case Loading:
		}

		if elapsed >= v.cfg.Timeout {
			return TimedOut, nil
		}
		elapsed += time.Since(mark)
		if err := v.sleeper.Sleep(ctx, v.cfg.Interval); err != nil {
			return TimedOut, err
		}
		elapsed += v.cfg.Interval
		mark = time.Now()
	}
}
