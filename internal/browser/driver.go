// Package browser drives Google Maps in headless Chrome through chromedp.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/questbibek/leads-scraper-pro/internal/extract"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// ErrCandidateMissing is returned by Select when neither the permalink nor the
// index resolves to a rendered result link.
var ErrCandidateMissing = errors.New("candidate not found in result list")

// Config holds the browser settings.
type Config struct {
	Headless  bool
	UserAgent string
	MapsURL   string
	// ActionTimeout bounds every single browser round trip.
	ActionTimeout time.Duration
}

// Driver owns one Chrome tab showing Google Maps.
type Driver struct {
	cfg    Config
	log    logger.Logger
	tab    context.Context
	cancel []context.CancelFunc
}

// New launches Chrome. Close must be called to release it.
func New(cfg Config, log logger.Logger) (*Driver, error) {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(1366, 900),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)

	d := &Driver{cfg: cfg, log: log, tab: tab, cancel: []context.CancelFunc{cancelTab, cancelAlloc}}

	// Starts the browser process.
	if err := chromedp.Run(tab); err != nil {
		d.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	log.Debug("Chrome started", logger.Bool("headless", cfg.Headless))
	return d, nil
}

// Close shuts the tab and the browser down.
func (d *Driver) Close() {
	for _, cancel := range d.cancel {
		cancel()
	}
}

// run executes actions on the tab, bounded by ActionTimeout and by ctx.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(d.tab, d.cfg.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (d *Driver) eval(ctx context.Context, script string, res any) error {
	return d.run(ctx, chromedp.Evaluate(script, res))
}

// Open loads the Maps start page and accepts the consent dialog when shown.
func (d *Driver) Open(ctx context.Context) error {
	if err := d.run(ctx, chromedp.Navigate(d.cfg.MapsURL)); err != nil {
		return fmt.Errorf("open %s: %w", d.cfg.MapsURL, err)
	}
	d.acceptConsent(ctx)
	return nil
}

func (d *Driver) acceptConsent(ctx context.Context) {
	var clicked bool
	if err := d.eval(ctx, consentScript, &clicked); err != nil {
		d.log.Debug("Consent check failed", logger.Error(err))
		return
	}
	if clicked {
		d.log.Info("Accepted consent dialog")
	}
}

// SearchURL builds the direct search URL for query.
func SearchURL(mapsURL, query string) string {
	return strings.TrimRight(mapsURL, "/") + "/search/" + url.QueryEscape(query)
}

// SubmitSearch types query into the search box and triggers the search. When
// the box is not rendered it navigates to the search URL instead. Completion
// is not awaited.
func (d *Driver) SubmitSearch(ctx context.Context, query string) error {
	var submitted bool
	if err := d.eval(ctx, searchScript(query), &submitted); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	if submitted {
		return nil
	}

	target := SearchURL(d.cfg.MapsURL, query)
	d.log.Debug("Search box missing, navigating directly", logger.String("url", target))
	if err := d.run(ctx, chromedp.Navigate(target)); err != nil {
		return fmt.Errorf("navigate to search: %w", err)
	}
	d.acceptConsent(ctx)
	return nil
}

// FeedPresent reports whether the result list is rendered.
func (d *Driver) FeedPresent(ctx context.Context) (bool, error) {
	var ok bool
	err := d.eval(ctx, feedPresentScript, &ok)
	return ok, err
}

// ScrollToEnd scrolls the result list to its current bottom.
func (d *Driver) ScrollToEnd(ctx context.Context) error {
	var ok bool
	return d.eval(ctx, scrollScript, &ok)
}

// Extent returns the result list's scroll height.
func (d *Driver) Extent(ctx context.Context) (int, error) {
	var h float64
	if err := d.eval(ctx, extentScript, &h); err != nil {
		return 0, err
	}
	return int(h), nil
}

// EndReached reports whether the end-of-results heading is rendered.
func (d *Driver) EndReached(ctx context.Context) (bool, error) {
	var ok bool
	err := d.eval(ctx, endReachedScript, &ok)
	return ok, err
}

// Candidates lists the rendered result links in order.
func (d *Driver) Candidates(ctx context.Context) ([]models.Candidate, error) {
	var raw string
	if err := d.eval(ctx, candidatesScript, &raw); err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return parseCandidates(raw)
}

func parseCandidates(raw string) ([]models.Candidate, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []models.Candidate
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	for i := range out {
		out[i].Label = strings.TrimSpace(out[i].Label)
	}
	return out, nil
}

// DismissOverlay blurs the focused element and sends Escape.
func (d *Driver) DismissOverlay(ctx context.Context) error {
	var ok bool
	return d.eval(ctx, dismissOverlayScript, &ok)
}

// Select scrolls the candidate into view and clicks it.
func (d *Driver) Select(ctx context.Context, c models.Candidate) error {
	var ok bool
	if err := d.eval(ctx, selectScript(c.Href, c.Index), &ok); err != nil {
		return fmt.Errorf("select %q: %w", c.Label, err)
	}
	if !ok {
		return fmt.Errorf("select %q: %w", c.Label, ErrCandidateMissing)
	}
	return nil
}

// Title returns the detail panel's heading, empty while none is rendered.
func (d *Driver) Title(ctx context.Context) (string, error) {
	var title string
	err := d.eval(ctx, titleScript, &title)
	return title, err
}

// Snapshot captures the detail panel markup and text.
func (d *Driver) Snapshot(ctx context.Context) (extract.Snapshot, error) {
	var raw string
	if err := d.eval(ctx, snapshotScript, &raw); err != nil {
		return extract.Snapshot{}, fmt.Errorf("snapshot panel: %w", err)
	}
	var snap struct {
		HTML string `json:"html"`
		Text string `json:"text"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return extract.Snapshot{}, fmt.Errorf("decode panel snapshot: %w", err)
	}
	return extract.Snapshot{HTML: snap.HTML, Text: snap.Text, URL: snap.URL}, nil
}
