// Command emailcapture serves the email-capture form backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-flashsale/api"
	"github.com/aluiziolira/go-flashsale/config"
	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/storage"
)

const serviceName = "email-capture"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "emailcapture",
		Short:         "Serve the email-capture API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.Path("config.yml"), "path to the YAML config file")
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Service.Name = serviceName

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log = log.With(logger.String("service", serviceName))
	defer func() { _ = log.Sync() }()

	if !cfg.Database.SkipMigrations {
		if err := storage.MigrateUp(cfg.Database.DSN(), log); err != nil {
			return err
		}
	}
	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Error("Database unavailable", logger.Error(err))
		return err
	}
	defer db.Close()

	handler := api.NewEmailHandler(storage.NewEmailStore(db), log)
	server := api.NewServer(cfg.Service, log, func(router *gin.Engine) {
		api.RegisterHealthRoutes(router, cfg.Service.Name, cfg.Service.Version, map[string]api.HealthChecker{
			"database": func(ctx context.Context) error { return db.PingContext(ctx) },
		})
		api.RegisterMetricsRoute(router, prometheus.DefaultGatherer)
		api.RegisterEmailRoutes(router, handler, cfg.Email.MaxSubmissions, cfg.Email.Window)
	})
	return server.RunWithGracefulShutdown(ctx)
}
