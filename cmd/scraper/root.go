package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-flashsale/config"
	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/storage"
)

const serviceName = "flashsale-scraper"

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "scraper",
		Short:         "Scrape the flash-sale catalog and serve the results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.Path("config.yml"), "path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newHistoryCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// load reads and validates the config and builds the service logger.
func (o *rootOptions) load() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Service.Name = serviceName

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log.With(logger.String("service", serviceName)), nil
}

// openDatabase connects and applies migrations unless they are disabled.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*sqlx.DB, error) {
	if !cfg.SkipMigrations {
		if err := storage.MigrateUp(cfg.DSN(), log); err != nil {
			return nil, err
		}
	}
	return storage.Open(ctx, cfg)
}
