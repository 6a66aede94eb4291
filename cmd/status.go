package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/questbibek/leads-scraper-pro/internal/models"
	"github.com/questbibek/leads-scraper-pro/internal/results"
)

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored results and the inputs of the last run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			renderStatus(cmd.OutOrStdout(), a.store.Meta(), a.store.Records())
			return nil
		},
	}
}

func renderStatus(out io.Writer, meta results.Meta, records []models.Record) {
	fmt.Fprintf(out, "Search term: %s\n", valueOr(meta.SearchTerm, "-"))
	fmt.Fprintf(out, "Locations:   %s\n", valueOr(meta.Locations, "-"))
	fmt.Fprintf(out, "Max results: %s\n", valueOr(meta.MaxResults, "all"))

	var order []string
	counts := make(map[string][2]int)
	for _, r := range records {
		c, seen := counts[r.Location]
		if !seen {
			order = append(order, r.Location)
		}
		c[0]++
		if r.IsPlaceholder() {
			c[1]++
		}
		counts[r.Location] = c
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Location", "Records", "Placeholders"})
	for _, loc := range order {
		c := counts[loc]
		t.AppendRow(table.Row{valueOr(loc, "(none)"), c[0], c[1]})
	}
	t.AppendFooter(table.Row{"Total", len(records), ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
