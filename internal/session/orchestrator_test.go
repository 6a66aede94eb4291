package session_test

import (
	"context"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbibek/leads-scraper-pro/internal/extract"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
	"github.com/questbibek/leads-scraper-pro/internal/navigate"
	"github.com/questbibek/leads-scraper-pro/internal/paginate"
	"github.com/questbibek/leads-scraper-pro/internal/results"
	"github.com/questbibek/leads-scraper-pro/internal/session"
	"github.com/questbibek/leads-scraper-pro/internal/storage"
	"github.com/questbibek/leads-scraper-pro/internal/verify"
)

// fakeDriver serves one result list per location. A location missing from
// lists never renders its feed.
type fakeDriver struct {
	mu       sync.Mutex
	lists    map[string][]string
	panics   map[string]bool
	wrong    map[string]bool
	current  string
	selected string
	searches []string
	onSelect func(index int)
}

func (f *fakeDriver) SubmitSearch(_ context.Context, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	if i := strings.LastIndex(query, " in "); i >= 0 {
		f.current = query[i+len(" in "):]
	}
	f.selected = ""
	return nil
}

func (f *fakeDriver) FeedPresent(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.lists[f.current]
	return ok, nil
}

func (f *fakeDriver) ScrollToEnd(context.Context) error { return nil }

func (f *fakeDriver) Extent(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists[f.current]) * 100, nil
}

func (f *fakeDriver) EndReached(context.Context) (bool, error) { return true, nil }

func (f *fakeDriver) Candidates(context.Context) ([]models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[f.current] {
		panic("list markup changed")
	}
	var out []models.Candidate
	for i, title := range f.lists[f.current] {
		out = append(out, models.Candidate{
			Index: i,
			Label: title,
			Href:  fmt.Sprintf("https://maps.example/%s/%d", f.current, i),
		})
	}
	return out, nil
}

func (f *fakeDriver) DismissOverlay(context.Context) error { return nil }

func (f *fakeDriver) Select(_ context.Context, c models.Candidate) error {
	f.mu.Lock()
	f.selected = c.Label
	hook := f.onSelect
	f.mu.Unlock()
	if hook != nil {
		hook(c.Index)
	}
	return nil
}

func (f *fakeDriver) Title(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wrong[f.current] {
		return "Some Other Place", nil
	}
	return f.selected, nil
}

func (f *fakeDriver) Snapshot(context.Context) (extract.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return extract.Snapshot{
		HTML: `<div role="main"><h1 class="DUwDvf">` + html.EscapeString(f.selected) + `</h1></div>`,
		URL:  "https://maps.example/place",
	}, nil
}

type memSink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *memSink) Deliver(name string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = content
	return "mem://" + name, nil
}

type fixture struct {
	driver   *fakeDriver
	store    *results.Store
	sink     *memSink
	orch     *session.Orchestrator
	sess     *session.Session

	mu       sync.Mutex
	messages []string
}

func newFixture(t *testing.T, driver *fakeDriver) *fixture {
	t.Helper()
	return newFixtureWith(t, driver, storage.NewFileStore(filepath.Join(t.TempDir(), "snapshot.json")))
}

func newFixtureWith(t *testing.T, driver *fakeDriver, persister results.Persister) *fixture {
	t.Helper()

	fx := &fixture{
		driver: driver,
		store:  results.NewStore(persister, logger.NewNop(), results.WithQuiet(time.Hour)),
		sink: &memSink{},
		sess: session.New().WithTick(time.Millisecond),
	}

	orch, err := session.NewOrchestrator(session.Options{
		Config:   session.Config{Settle: time.Millisecond, FeedPoll: time.Millisecond, FeedPollAttempts: 3, Cooldown: time.Millisecond},
		Paginate: paginate.Config{MaxScrolls: 3, StagnantLimit: 1, Settle: time.Millisecond},
		Verify:   verify.Config{Timeout: 200 * time.Millisecond, Interval: time.Millisecond, Grace: 5 * time.Millisecond},
		Navigate: navigate.Config{MaxAttempts: 2, Backoff: navigate.Backoff{Base: time.Millisecond}},
		Driver:   driver,
		Store:    fx.store,
		Sink:     fx.sink,
		Reporter: session.ReporterFunc(func(msg string, _ session.Severity) {
			fx.mu.Lock()
			defer fx.mu.Unlock()
			fx.messages = append(fx.messages, msg)
		}),
		Logger: logger.NewNop(),
		Now:    func() time.Time { return time.Date(2026, 10, 18, 9, 5, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	fx.orch = orch
	return fx
}

func (fx *fixture) reported() string {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return strings.Join(fx.messages, "\n")
}

func (fx *fixture) run(t *testing.T, req session.Request) session.Summary {
	t.Helper()
	require.NoError(t, fx.sess.Start(req))
	summary, err := fx.orch.Run(context.Background(), fx.sess)
	require.NoError(t, err)
	return summary
}

func TestRun_MissingFeedFailsOnlyThatLocation(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &fakeDriver{lists: map[string][]string{
		"Alpha": {"Crumb & Co", "Rye Society", "Loaf Lab"},
	}})
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Alpha, Beta"})

	assert.Equal(t, session.Completed, summary.State)
	assert.Equal(t, []string{"bakery in Alpha", "bakery in Beta"}, fx.driver.searches)

	recs := fx.store.Records()
	require.Len(t, recs, 3)
	for i, title := range []string{"Crumb & Co", "Rye Society", "Loaf Lab"} {
		assert.Equal(t, title, recs[i].Title)
		assert.Equal(t, "Alpha", recs[i].Location)
		assert.Equal(t, fmt.Sprintf("https://maps.example/Alpha/%d", i), recs[i].Href)
	}

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "Beta", summary.Failures[0].Location)
	assert.ErrorIs(t, summary.Failures[0], session.ErrNoResults)
	assert.Equal(t, 3, summary.Appended)

	require.Len(t, fx.sink.files, 1)
	content, ok := fx.sink.files["google-maps-bakery_20261018_0905.csv"]
	require.True(t, ok)
	assert.Equal(t, 4, strings.Count(string(content), "\n")+1)
	assert.Equal(t, "mem://google-maps-bakery_20261018_0905.csv", summary.ExportPath)
}

func TestRun_CapAndLocationOrder(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &fakeDriver{lists: map[string][]string{
		"Alpha": {"A1", "A2", "A3"},
		"Beta":  {"B1", "B2", "B3"},
	}})
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Beta,Alpha", MaxResults: "2"})

	var got []string
	for _, r := range fx.store.Records() {
		got = append(got, r.Location+"/"+r.Title)
	}
	assert.Equal(t, []string{"Beta/B1", "Beta/B2", "Alpha/A1", "Alpha/A2"}, got)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, results.Meta{SearchTerm: "bakery", Locations: "Beta,Alpha", MaxResults: "2"}, fx.store.Meta())
}

func TestRun_PanicBecomesLocationError(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &fakeDriver{
		lists:  map[string][]string{"Alpha": {"A1"}, "Beta": {"B1"}},
		panics: map[string]bool{"Alpha": true},
	})
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Alpha,Beta"})

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "Alpha", summary.Failures[0].Location)
	assert.Contains(t, summary.Failures[0].Error(), "list markup changed")

	recs := fx.store.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "Beta", recs[0].Location)
}

func TestRun_UnverifiedCandidateBecomesPlaceholder(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &fakeDriver{
		lists: map[string][]string{"Gamma": {"G1"}},
		wrong: map[string]bool{"Gamma": true},
	})
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Gamma"})

	recs := fx.store.Records()
	require.Len(t, recs, 1)
	assert.True(t, recs[0].IsPlaceholder())
	assert.Equal(t, "G1", recs[0].Title)
	assert.Equal(t, "Gamma", recs[0].Location)
	assert.Equal(t, "https://maps.example/Gamma/0", recs[0].Href)

	require.Len(t, summary.Locations, 1)
	assert.Equal(t, 1, summary.Locations[0].Placeholders)
	assert.Empty(t, summary.Failures)
}

func TestRun_StopEndsRunAndStillExports(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{lists: map[string][]string{
		"Alpha": {"A1", "A2", "A3"},
		"Beta":  {"B1"},
	}}
	fx := newFixture(t, driver)
	driver.onSelect = func(index int) {
		if index == 1 {
			fx.sess.Stop()
		}
	}
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Alpha,Beta"})

	assert.Equal(t, session.Stopped, summary.State)
	assert.Equal(t, session.Stopped, fx.sess.State())
	assert.Equal(t, []string{"bakery in Alpha"}, driver.searches)
	assert.Empty(t, summary.Failures)
	assert.LessOrEqual(t, fx.store.Len(), 2)
	assert.Len(t, fx.sink.files, 1)
}

func TestRun_PauseHoldsProgress(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{lists: map[string][]string{"Alpha": {"A1", "A2", "A3"}}}
	fx := newFixture(t, driver)

	var once sync.Once
	driver.onSelect = func(int) {
		once.Do(func() {
			require.NoError(t, fx.sess.Pause())
			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = fx.sess.Resume()
			}()
		})
	}

	start := time.Now()
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Alpha"})

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, session.Completed, summary.State)
	assert.Equal(t, 3, fx.store.Len())
}

func TestRun_RequiresStartedSession(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &fakeDriver{})
	_, err := fx.orch.Run(context.Background(), fx.sess)
	assert.ErrorIs(t, err, session.ErrInvalidTransition)
}

func TestRun_NoExportWithoutRecords(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, &fakeDriver{lists: map[string][]string{}})
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Nowhere"})

	assert.Equal(t, session.Completed, summary.State)
	assert.Empty(t, fx.sink.files)
	assert.Empty(t, summary.ExportPath)
	require.Len(t, summary.Failures, 1)
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) (models.Snapshot, error) { return models.Snapshot{}, nil }

func (failingPersister) Save(context.Context, models.Snapshot) error {
	return errors.New("disk full")
}

func TestRun_ReportsTransitionsAndErrors(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{
		lists: map[string][]string{"Gamma": {"G1", "G2"}},
		wrong: map[string]bool{"Gamma": true},
	}
	fx := newFixtureWith(t, driver, failingPersister{})

	var once sync.Once
	driver.onSelect = func(int) {
		once.Do(func() {
			require.NoError(t, fx.sess.Pause())
			go func() {
				time.Sleep(20 * time.Millisecond)
				_ = fx.sess.Resume()
			}()
		})
	}
	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Gamma", MaxResults: "1"})
	assert.Equal(t, session.Completed, summary.State)

	require.Eventually(t, func() bool { return strings.Contains(fx.reported(), "Resumed") }, time.Second, time.Millisecond)
	out := fx.reported()
	assert.Contains(t, out, "Paused")
	assert.Contains(t, out, "Could not verify G1 in Gamma")
	assert.Contains(t, out, "not verified after 2 attempts")
	assert.Contains(t, out, "Saving results failed")
	assert.Contains(t, out, "disk full")
}

func TestRun_ReportsStop(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{lists: map[string][]string{"Alpha": {"A1", "A2"}}}
	fx := newFixture(t, driver)
	driver.onSelect = func(int) { fx.sess.Stop() }

	summary := fx.run(t, session.Request{Term: "bakery", Locations: "Alpha"})
	assert.Equal(t, session.Stopped, summary.State)
	assert.Contains(t, fx.reported(), "Stopping after the current step")
	assert.Contains(t, fx.reported(), "Stopped.")
}
