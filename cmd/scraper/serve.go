package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-flashsale/api"
	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/pipeline"
	"github.com/aluiziolira/go-flashsale/scraper"
	"github.com/aluiziolira/go-flashsale/storage"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the scraper HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := openDatabase(ctx, cfg.Database, log)
			if err != nil {
				log.Error("Database unavailable", logger.Error(err))
				return err
			}
			defer db.Close()

			fetcher, err := scraper.NewFetcher(cfg.Feed, log)
			if err != nil {
				return err
			}
			cache, err := pipeline.NewExportCache(cfg.Export.CacheSize)
			if err != nil {
				return err
			}

			runs := storage.NewRunStore(db)
			handler := api.NewScrapeHandler(pipeline.New(fetcher, runs, log), runs, cache, log)

			server := api.NewServer(cfg.Service, log, func(router *gin.Engine) {
				api.RegisterHealthRoutes(router, cfg.Service.Name, cfg.Service.Version, map[string]api.HealthChecker{
					"database": func(ctx context.Context) error { return db.PingContext(ctx) },
				})
				api.RegisterMetricsRoute(router, fetcher.Metrics.Registry, prometheus.DefaultGatherer)
				api.RegisterScrapeRoutes(router, handler)
			})
			return server.RunWithGracefulShutdown(ctx)
		},
	}
}
