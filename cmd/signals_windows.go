//go:build windows

package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/session"
)

// watchSignals maps Ctrl+C to Stop; a second one cancels the run outright.
// Windows has no SIGUSR1, so pause/resume is unavailable there.
func watchSignals(ctx context.Context, sess *session.Session, cancel context.CancelFunc, log logger.Logger, rep session.Reporter) func() {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt)

	done := make(chan struct{})
	go func() {
		stops := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ch:
				stops++
				rep.Report(statusLine(sess.Status()), session.Info)
				if stops == 1 {
					log.Info("Stop requested, finishing current step")
					sess.Stop()
					continue
				}
				cancel()
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
