package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/questbibek/leads-scraper-pro/internal/browser"
	"github.com/questbibek/leads-scraper-pro/internal/contact"
	"github.com/questbibek/leads-scraper-pro/internal/export"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/session"
)

var _ session.Driver = (*browser.Driver)(nil)

func scrapeCommand() *cobra.Command {
	var req session.Request

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Search a term in every location and collect the listings",
		Example: `  leads-scraper scrape --term bakery --locations "Zurich, Bern" --max-results 20

While running: Ctrl+C stops after the current step (results are kept and
exported), SIGUSR1 toggles pause/resume.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}

	cmd.Flags().StringVarP(&req.Term, "term", "t", "", "search term, e.g. \"bakery\"")
	cmd.Flags().StringVarP(&req.Locations, "locations", "l", "", "comma-separated locations")
	cmd.Flags().StringVarP(&req.MaxResults, "max-results", "m", "", "max listings per location (empty for all)")
	return cmd
}

func runScrape(ctx context.Context, out io.Writer, req session.Request) error {
	sess := session.New()
	// Validate before launching Chrome.
	if err := sess.Start(req); err != nil {
		return err
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			a.log.Error("Closing store failed", logger.Error(err))
		}
	}()

	driver, err := browser.New(a.cfg.Browser(), a.log.With(logger.String("component", "browser")))
	if err != nil {
		return err
	}
	defer driver.Close()

	if err := driver.Open(ctx); err != nil {
		return err
	}

	reporter := consoleReporter{out: out, log: a.log}
	opts := session.Options{
		Config:   a.cfg.Session(),
		Paginate: a.cfg.Paginate(),
		Verify:   a.cfg.Verify(),
		Navigate: a.cfg.Navigate(),
		Driver:   driver,
		Store:    a.store,
		Sink:     export.FileSink{Dir: a.cfg.ExportDir},
		Reporter: reporter,
		Logger:   a.log,
	}
	if a.cfg.VerifyEmailMX {
		validator := contact.NewMXValidator(nil, a.cfg.DNSServers, a.log.With(logger.String("component", "mx")))
		opts.Enrich = validator.Enrich
	}

	orch, err := session.NewOrchestrator(opts)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopSignals := watchSignals(runCtx, sess, cancel, a.log, reporter)
	defer stopSignals()

	summary, err := orch.Run(runCtx, sess)
	if err != nil {
		return err
	}
	renderSummary(out, summary)
	return nil
}

func renderSummary(out io.Writer, s session.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("%s (%s)", s.Term, s.State))
	t.AppendHeader(table.Row{"Location", "Records", "Placeholders", "Error"})
	for _, l := range s.Locations {
		errText := ""
		if l.Err != nil {
			errText = l.Err.Error()
		}
		t.AppendRow(table.Row{l.Location, l.Records, l.Placeholders, errText})
	}
	t.AppendFooter(table.Row{"Total stored", s.Total, "", fmt.Sprintf("new: %d, took %s", s.Appended, s.Elapsed.Round(time.Second))})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if s.ExportPath != "" {
		fmt.Fprintf(out, "CSV: %s\n", s.ExportPath)
	}
	if s.ExportErr != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", s.ExportErr)
	}
}
