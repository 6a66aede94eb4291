// Package navigate brings one candidate's detail view on screen, verifies it
// and extracts the record, retrying with backoff.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/questbibek/leads-scraper-pro/internal/extract"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
	"github.com/questbibek/leads-scraper-pro/internal/verify"
	"github.com/questbibek/leads-scraper-pro/internal/wait"
)

// Page is the slice of the browser the navigator drives.
type Page interface {
	verify.Panel
	// DismissOverlay closes suggestion dropdowns or dialogs covering the panel.
	DismissOverlay(ctx context.Context) error
	// Select scrolls the candidate into view and triggers its detail view.
	Select(ctx context.Context, c models.Candidate) error
	// Snapshot captures the current detail panel.
	Snapshot(ctx context.Context) (extract.Snapshot, error)
}

// Backoff is the inter-attempt wait policy: Base + attempt*Step.
type Backoff struct {
	Base time.Duration
	Step time.Duration
}

// Delay returns the wait after the given 1-based attempt failed.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return b.Base + time.Duration(attempt)*b.Step
}

// VerificationTimeout reports a candidate whose detail view never verified.
type VerificationTimeout struct {
	Label    string
	Attempts int
	Last     verify.Outcome
}

func (e *VerificationTimeout) Error() string {
	return fmt.Sprintf("detail view for %q not verified after %d attempts (last: %s)", e.Label, e.Attempts, e.Last)
}

// Result is the outcome of navigating one candidate.
type Result struct {
	Record   models.Record
	Verified bool
	Attempts int
	// Err is set to a *VerificationTimeout when Record is a placeholder.
	Err error
}

// Config tunes the navigator.
type Config struct {
	MaxAttempts int
	Backoff     Backoff
}

// DefaultConfig returns the production retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Backoff:     Backoff{Base: 2000 * time.Millisecond, Step: 1000 * time.Millisecond},
	}
}

// Navigator runs the navigate-and-verify protocol.
type Navigator struct {
	cfg      Config
	verifier *verify.Verifier
	sleeper  wait.Sleeper
	log      logger.Logger
	// Enrich runs on every verified record before it is returned.
	Enrich func(ctx context.Context, rec models.Record) models.Record
}

// New creates a Navigator.
func New(cfg Config, verifier *verify.Verifier, sleeper wait.Sleeper, log logger.Logger) *Navigator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if sleeper == nil {
		sleeper = wait.Plain
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Navigator{cfg: cfg, verifier: verifier, sleeper: sleeper, log: log}
}

// Navigate selects c, waits for its detail view and extracts it. Fields other
// than the identity are only ever read from a panel verified to show c. When
// every attempt fails the result carries a placeholder record.
//
// The returned error is non-nil only when a wait point was interrupted
// (wait.ErrStopped or a context error); nothing should be recorded then.
func (n *Navigator) Navigate(ctx context.Context, page Page, c models.Candidate) (Result, error) {
	log := n.log.With(logger.String("candidate", c.Label), logger.Int("index", c.Index))
	last := verify.TimedOut

	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		rec, outcome, err := n.attempt(ctx, page, c, attempt, log)
		if err != nil {
			return Result{Attempts: attempt}, err
		}
		if outcome == verify.Verified {
			return Result{Record: rec, Verified: true, Attempts: attempt}, nil
		}
		last = outcome

		if attempt < n.cfg.MaxAttempts {
			delay := n.cfg.Backoff.Delay(attempt)
			log.Debug("Retrying candidate",
				logger.Int("attempt", attempt),
				logger.String("outcome", outcome.String()),
				logger.Duration("backoff", delay),
			)
			if err := n.sleeper.Sleep(ctx, delay); err != nil {
				return Result{Attempts: attempt}, err
			}
		}
	}

	timeout := &VerificationTimeout{Label: c.Label, Attempts: n.cfg.MaxAttempts, Last: last}
	log.Warn("Emitting placeholder record", logger.Error(timeout))
	return Result{
		Record:   models.Placeholder(c.Label, c.Href),
		Attempts: n.cfg.MaxAttempts,
		Err:      timeout,
	}, nil
}

func (n *Navigator) attempt(ctx context.Context, page Page, c models.Candidate, attempt int, log logger.Logger) (models.Record, verify.Outcome, error) {
	if err := page.DismissOverlay(ctx); err != nil {
		log.Debug("Dismissing overlay failed", logger.Error(err))
	}
	if err := page.Select(ctx, c); err != nil {
		if interrupted(ctx, err) {
			return models.Record{}, verify.TimedOut, err
		}
		log.Debug("Selecting candidate failed", logger.Int("attempt", attempt), logger.Error(err))
		return models.Record{}, verify.TimedOut, nil
	}

	outcome, err := n.verifier.Await(ctx, page, c.Label, attempt)
	if err != nil {
		return models.Record{}, outcome, err
	}
	if outcome != verify.Verified {
		return models.Record{}, outcome, nil
	}

	snap, err := page.Snapshot(ctx)
	if err != nil {
		if interrupted(ctx, err) {
			return models.Record{}, verify.TimedOut, err
		}
		log.Debug("Capturing detail panel failed", logger.Int("attempt", attempt), logger.Error(err))
		return models.Record{}, verify.TimedOut, nil
	}

	rec := extract.Extract(snap)
	if verify.Observe(rec.Title, c.Label) == verify.Wrong {
		// The panel changed between verification and capture.
		log.Debug("Panel changed before capture", logger.String("observed", rec.Title))
		return models.Record{}, verify.Mismatch, nil
	}
	rec.Title = c.Label
	if c.Href != "" {
		rec.Href = c.Href
	}
	if n.Enrich != nil {
		rec = n.Enrich(ctx, rec)
	}
	return rec, verify.Verified, nil
}

// interrupted separates a stop or cancelled run from an ordinary browser error.
func interrupted(ctx context.Context, err error) bool {
	return errors.Is(err, wait.ErrStopped) || ctx.Err() != nil
}
