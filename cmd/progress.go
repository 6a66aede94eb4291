package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/session"
)

// consoleReporter prints progress lines and mirrors them to the log.
type consoleReporter struct {
	out io.Writer
	log logger.Logger
}

func (r consoleReporter) Report(msg string, sev session.Severity) {
	switch sev {
	case session.Success:
		fmt.Fprintln(r.out, text.FgGreen.Sprint(msg))
	case session.Error:
		fmt.Fprintln(r.out, text.FgRed.Sprint(msg))
	default:
		fmt.Fprintln(r.out, msg)
	}
	r.log.Debug("Progress", logger.String("message", msg), logger.String("severity", sev.String()))
}
