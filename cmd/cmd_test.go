package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
	"github.com/questbibek/leads-scraper-pro/internal/results"
	"github.com/questbibek/leads-scraper-pro/internal/session"
)

func TestTogglePause(t *testing.T) {
	t.Parallel()

	sess := session.New()
	log := logger.NewNop()
	assert.Equal(t, session.Idle, togglePause(sess, log))

	assert.NoError(t, sess.Start(session.Request{Term: "bakery", Locations: "Alpha"}))
	assert.Equal(t, session.Paused, togglePause(sess, log))
	assert.Equal(t, session.Running, togglePause(sess, log))

	sess.Stop()
	assert.Equal(t, session.Stopped, togglePause(sess, log))
}

func TestStatusLine(t *testing.T) {
	t.Parallel()

	sess := session.New()
	assert.Equal(t, "Session idle, 0 results", statusLine(sess.Status()))

	assert.NoError(t, sess.Start(session.Request{Term: "bakery", Locations: "Alpha, Beta"}))
	assert.NoError(t, sess.Pause())
	assert.Equal(t, "Session paused: starting 2 location(s), 0 results", statusLine(sess.Status()))
}

func TestRenderStatus(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderStatus(&out, results.Meta{SearchTerm: "bakery", Locations: "Alpha,Beta"}, []models.Record{
		{Location: "Alpha", Title: "A1", Phone: "1"},
		models.Placeholder("A2", "h"),
		{Location: "Beta", Title: "B1", Rating: "4"},
	})

	s := out.String()
	assert.Contains(t, s, "Search term: bakery")
	assert.Contains(t, s, "Max results: all")
	assert.Contains(t, s, "Alpha")
	assert.Contains(t, s, "(none)")
	assert.Contains(t, s, "Total")
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	renderSummary(&out, session.Summary{
		Term:  "bakery",
		State: session.Completed,
		Locations: []session.LocationSummary{
			{Location: "Alpha", Records: 3},
			{Location: "Beta", Err: &session.LocationError{Location: "Beta", Err: errors.New("result list did not appear")}},
		},
		Appended:   3,
		Total:      3,
		ExportPath: "exports/google-maps-bakery.csv",
		Elapsed:    2 * time.Second,
	})

	s := out.String()
	assert.Contains(t, s, "bakery (completed)")
	assert.True(t, strings.Contains(s, "result list did not appear"))
	assert.Contains(t, s, "CSV: exports/google-maps-bakery.csv")
}

func TestConsoleReporter(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	r := consoleReporter{out: &out, log: logger.NewNop()}
	r.Report("Scraping 1/2", session.Info)
	r.Report("done", session.Success)

	assert.Contains(t, out.String(), "Scraping 1/2\n")
	assert.Contains(t, out.String(), "done")
}
