package cmd

import (
	"fmt"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/session"
)

// togglePause flips a running session to paused and back.
func togglePause(sess *session.Session, log logger.Logger) session.State {
	switch sess.State() {
	case session.Running:
		if err := sess.Pause(); err == nil {
			log.Info("Paused")
		}
	case session.Paused:
		if err := sess.Resume(); err == nil {
			log.Info("Resumed")
		}
	}
	return sess.State()
}

// statusLine renders the session status as one progress line.
func statusLine(st session.Status) string {
	if !st.Active {
		return fmt.Sprintf("Session %s, %d results", st.State, st.ResultsCount)
	}
	if st.Location == "" {
		return fmt.Sprintf("Session %s: starting %d location(s), %d results", st.State, st.LocationCount, st.ResultsCount)
	}
	return fmt.Sprintf("Session %s: %s (%d/%d), listing %d, %d results",
		st.State, st.Location, st.LocationIndex+1, st.LocationCount, st.CandidateIndex+1, st.ResultsCount)
}
