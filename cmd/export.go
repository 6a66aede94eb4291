package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/questbibek/leads-scraper-pro/internal/export"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
)

func exportCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored results to a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			records := a.store.Records()
			if len(records) == 0 {
				return errors.New("no results to export")
			}
			if dir == "" {
				dir = a.cfg.ExportDir
			}

			name := export.Filename(a.store.Meta().SearchTerm, time.Now())
			path, err := export.FileSink{Dir: dir}.Deliver(name, export.Build(records))
			if err != nil {
				return err
			}
			a.log.Info("Export written",
				logger.String("path", path),
				logger.Int("records", len(records)),
				logger.Int("schema_version", export.SchemaVersion),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(records), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "out", "o", "", "output directory (default EXPORT_DIR)")
	return cmd
}
