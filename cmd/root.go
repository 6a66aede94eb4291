// Package cmd implements the leads-scraper command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/questbibek/leads-scraper-pro/internal/config"
	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/results"
	"github.com/questbibek/leads-scraper-pro/internal/storage"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug forces debug logging with the console encoder.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "leads-scraper",
		Short: "Scrape Google Maps business listings across locations",
		Long: `leads-scraper searches Google Maps for a term in every given location,
opens each listing, extracts its contact details and exports the results as CSV.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCommand())
	rootCmd.AddCommand(exportCommand())
	rootCmd.AddCommand(clearCommand())
	rootCmd.AddCommand(statusCommand())
}

// app bundles what every command needs.
type app struct {
	cfg   *config.Config
	log   logger.Logger
	store *results.Store
	close func() error
}

// bootstrap loads config, builds the logger, opens the snapshot store and
// restores the persisted results.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Development: debug})
	if err != nil {
		return nil, err
	}

	persister, closeFn, err := openPersister(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	store := results.NewStore(persister, log,
		results.WithQuiet(cfg.Timing.PersistQuiet),
		results.WithErrorHandler(func(err error) {
			log.Warn("Snapshot write failed; in-memory results kept", logger.Error(err))
		}),
	)
	if _, err := store.Restore(ctx); err != nil {
		_ = closeFn()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: store}
	a.close = func() error {
		err := store.Close(context.Background())
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		_ = log.Sync()
		return err
	}
	return a, nil
}

func openPersister(ctx context.Context, cfg *config.Config, log logger.Logger) (results.Persister, func() error, error) {
	if cfg.Database.Driver == "file" {
		fs := storage.NewFileStore(cfg.SnapshotPath)
		log.Debug("Using snapshot file", logger.String("path", fs.Path()))
		return fs, func() error { return nil }, nil
	}

	dialect, err := storage.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.OpenSQLStore(ctx, dialect, cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
