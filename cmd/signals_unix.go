//go:build !windows

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/session"
)

// watchSignals maps SIGINT/SIGTERM to Stop (a second one cancels the run
// outright) and SIGUSR1 to a pause/resume toggle followed by a status line.
func watchSignals(ctx context.Context, sess *session.Session, cancel context.CancelFunc, log logger.Logger, rep session.Reporter) func() {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	done := make(chan struct{})
	go func() {
		stops := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case sig := <-ch:
				if sig == syscall.SIGUSR1 {
					togglePause(sess, log)
					rep.Report(statusLine(sess.Status()), session.Info)
					continue
				}
				stops++
				if stops == 1 {
					log.Info("Stop requested, finishing current step", logger.String("signal", sig.String()))
					sess.Stop()
					continue
				}
				log.Warn("Second stop signal, cancelling", logger.String("signal", sig.String()))
				cancel()
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
