package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/questbibek/leads-scraper-pro/internal/export"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
	"github.com/questbibek/leads-scraper-pro/internal/navigate"
	"github.com/questbibek/leads-scraper-pro/internal/paginate"
	"github.com/questbibek/leads-scraper-pro/internal/results"
	"github.com/questbibek/leads-scraper-pro/internal/verify"
	"github.com/questbibek/leads-scraper-pro/internal/wait"
)

// Driver is the browser surface a run needs.
type Driver interface {
	paginate.Feed
	navigate.Page
	// SubmitSearch triggers a search without awaiting its results.
	SubmitSearch(ctx context.Context, query string) error
	// FeedPresent reports whether the result list is rendered.
	FeedPresent(ctx context.Context) (bool, error)
	// Candidates lists the rendered results in order.
	Candidates(ctx context.Context) ([]models.Candidate, error)
}

// Config holds the per-location timings.
type Config struct {
	// Settle is the wait after submitting a search.
	Settle time.Duration
	// FeedPoll and FeedPollAttempts bound the wait for the result list.
	FeedPoll         time.Duration
	FeedPollAttempts int
	// Cooldown separates consecutive locations.
	Cooldown time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		Settle:           3 * time.Second,
		FeedPoll:         500 * time.Millisecond,
		FeedPollAttempts: 10,
		Cooldown:         2 * time.Second,
	}
}

// Options wires an Orchestrator.
type Options struct {
	Config   Config
	Paginate paginate.Config
	Verify   verify.Config
	Navigate navigate.Config

	Driver   Driver
	Store    *results.Store
	Sink     export.Sink
	Reporter Reporter
	// Enrich post-processes every verified record, e.g. MX validation.
	Enrich func(ctx context.Context, rec models.Record) models.Record
	Logger logger.Logger
	Now    func() time.Time
}

// LocationSummary is the outcome of one location.
type LocationSummary struct {
	Location     string
	Records      int
	Placeholders int
	Err          error
}

// Summary is the outcome of a run.
type Summary struct {
	Term       string
	State      State
	Locations  []LocationSummary
	Failures   []*LocationError
	Appended   int
	Total      int
	ExportPath string
	ExportErr  error
	Elapsed    time.Duration
}

// Orchestrator drives a Session across its locations.
type Orchestrator struct {
	opts Options
	log  logger.Logger
}

// NewOrchestrator validates the wiring and fills defaults.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Driver == nil {
		return nil, errors.New("orchestrator: driver is required")
	}
	if opts.Store == nil {
		return nil, errors.New("orchestrator: result store is required")
	}
	if opts.Reporter == nil {
		opts.Reporter = discard{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Config.FeedPollAttempts < 1 {
		opts.Config.FeedPollAttempts = 1
	}
	return &Orchestrator{opts: opts, log: opts.Logger}, nil
}

// Run scrapes every location of a started session in order. Location
// failures are collected, not returned; the error is non-nil only when the
// session was not started.
func (o *Orchestrator) Run(ctx context.Context, sess *Session) (Summary, error) {
	p, ok := sess.plan()
	if !ok {
		return Summary{}, ErrInvalidTransition
	}
	started := o.opts.Now()

	o.opts.Store.SetMeta(results.Meta{
		SearchTerm: p.term,
		Locations:  strings.Join(p.locations, ","),
		MaxResults: capString(p.cap),
	})
	sess.setResults(o.opts.Store.Len())

	loader := paginate.New(o.opts.Paginate, sess, o.log)
	verifier := verify.New(o.opts.Verify, sess, o.log)
	nav := navigate.New(o.opts.Navigate, verifier, sess, o.log)
	nav.Enrich = o.opts.Enrich

	sess.observe(o.reportTransition)
	defer sess.observe(nil)
	defer o.opts.Store.OnError(func(err error) {
		o.opts.Reporter.Report(fmt.Sprintf("Saving results failed: %v", err), Error)
	})()

	summary := Summary{Term: p.term}
	o.log.Info("Scrape started",
		logger.String("term", p.term),
		logger.Strings("locations", p.locations),
		logger.Int("cap", p.cap),
	)

	for i, loc := range p.locations {
		if sess.Checkpoint(ctx) != nil {
			break
		}
		sess.setLocation(i, loc)
		o.opts.Reporter.Report(fmt.Sprintf("Scraping %d/%d: %s in %s...", i+1, len(p.locations), p.term, loc), Info)

		ls, err := o.runLocation(ctx, sess, loader, nav, p, loc)
		summary.Appended += ls.Records
		if err != nil && halted(ctx, err) {
			summary.Locations = append(summary.Locations, ls)
			break
		}
		if err != nil {
			lerr := &LocationError{Location: loc, Err: err}
			ls.Err = lerr
			summary.Failures = append(summary.Failures, lerr)
			o.log.Error("Location failed", logger.String("location", loc), logger.Error(err))
			o.opts.Reporter.Report(fmt.Sprintf("Error scraping %s: %v", loc, err), Error)
		} else {
			o.log.Info("Location done",
				logger.String("location", loc),
				logger.Int("records", ls.Records),
				logger.Int("placeholders", ls.Placeholders),
			)
		}
		summary.Locations = append(summary.Locations, ls)

		if i < len(p.locations)-1 {
			if err := sess.Sleep(ctx, o.opts.Config.Cooldown); err != nil {
				break
			}
		}
	}

	if ctx.Err() != nil {
		sess.Stop()
	}
	summary.State = sess.finish()
	o.finalize(&summary)
	summary.Elapsed = o.opts.Now().Sub(started)
	return summary, nil
}

func (o *Orchestrator) reportTransition(from, to State) {
	o.log.Info("Session state changed", logger.String("from", from.String()), logger.String("to", to.String()))
	switch to {
	case Paused:
		o.opts.Reporter.Report("Paused", Info)
	case Running:
		o.opts.Reporter.Report("Resumed", Info)
	case Stopped:
		o.opts.Reporter.Report("Stopping after the current step...", Info)
	}
}

func (o *Orchestrator) finalize(summary *Summary) {
	// Flush with a fresh context so a cancelled run still persists.
	flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := o.opts.Store.Flush(flushCtx); err != nil {
		o.log.Error("Final persist failed", logger.Error(err))
	}

	records := o.opts.Store.Records()
	summary.Total = len(records)

	if len(records) > 0 && o.opts.Sink != nil {
		name := export.Filename(summary.Term, o.opts.Now())
		path, err := o.opts.Sink.Deliver(name, export.Build(records))
		if err != nil {
			summary.ExportErr = err
			o.log.Error("Export failed", logger.String("file", name), logger.Error(err))
			o.opts.Reporter.Report(fmt.Sprintf("Export failed: %v", err), Error)
		} else {
			summary.ExportPath = path
			o.log.Info("Export written",
				logger.String("path", path),
				logger.Int("records", len(records)),
				logger.Int("schema_version", export.SchemaVersion),
			)
			o.opts.Reporter.Report(fmt.Sprintf("✓ CSV saved: %s", path), Success)
		}
	}

	if summary.State == Stopped {
		o.opts.Reporter.Report(fmt.Sprintf("Stopped. %d total results (%d new)", summary.Total, summary.Appended), Info)
		return
	}
	o.opts.Reporter.Report(fmt.Sprintf("✓ Complete! Scraped %d total results from %d location(s)", summary.Total, len(summary.Locations)), Success)
}

func (o *Orchestrator) runLocation(ctx context.Context, sess *Session, loader *paginate.Loader, nav *navigate.Navigator, p plan, loc string) (ls LocationSummary, err error) {
	ls.Location = loc
	log := o.log.With(logger.String("location", loc))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered panic in location", logger.Any("panic", r))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	query := p.term + " in " + loc
	if err := o.opts.Driver.SubmitSearch(ctx, query); err != nil {
		return ls, fmt.Errorf("submit search: %w", err)
	}
	if err := sess.Sleep(ctx, o.opts.Config.Settle); err != nil {
		return ls, err
	}

	if err := o.awaitFeed(ctx, sess, log); err != nil {
		return ls, err
	}

	stats, err := loader.Load(ctx, o.opts.Driver)
	if err != nil {
		return ls, fmt.Errorf("load results: %w", err)
	}

	candidates, err := o.opts.Driver.Candidates(ctx)
	if err != nil {
		return ls, fmt.Errorf("list candidates: %w", err)
	}
	limit := len(candidates)
	if p.cap > 0 && p.cap < limit {
		limit = p.cap
	}
	log.Info("Results loaded",
		logger.Int("available", len(candidates)),
		logger.Int("processing", limit),
		logger.Int("scrolls", stats.Iterations),
		logger.String("stop_reason", string(stats.Reason)),
	)

	for j := 0; j < limit; j++ {
		if err := sess.Checkpoint(ctx); err != nil {
			return ls, err
		}
		c := candidates[j]
		sess.setCandidate(j)

		res, err := nav.Navigate(ctx, o.opts.Driver, c)
		if err != nil {
			return ls, err
		}

		rec := res.Record
		rec.Location = loc
		total := o.opts.Store.Append(rec)
		sess.setResults(total)
		ls.Records++
		if res.Err != nil {
			ls.Placeholders++
			o.opts.Reporter.Report(fmt.Sprintf("Could not verify %s in %s, saved name only: %v", c.Label, loc, res.Err), Error)
		}

		o.opts.Reporter.Report(fmt.Sprintf("Scraped %d/%d in %s: %s", j+1, limit, loc, rec.Title), Info)
	}
	return ls, nil
}

func (o *Orchestrator) awaitFeed(ctx context.Context, sess *Session, log logger.Logger) error {
	for i := 0; i < o.opts.Config.FeedPollAttempts; i++ {
		present, err := o.opts.Driver.FeedPresent(ctx)
		if err != nil {
			if halted(ctx, err) {
				return err
			}
			log.Debug("Result list probe failed", logger.Error(err))
		}
		if present {
			return nil
		}
		if err := sess.Sleep(ctx, o.opts.Config.FeedPoll); err != nil {
			return err
		}
	}
	return ErrNoResults
}

// halted reports whether err means the run itself is over.
func halted(ctx context.Context, err error) bool {
	return errors.Is(err, wait.ErrStopped) || ctx.Err() != nil
}

func capString(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
