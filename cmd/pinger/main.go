// Command pinger pings the configured webhooks every minute and reports their status.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-flashsale/api"
	"github.com/aluiziolira/go-flashsale/config"
	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/pinger"
)

const serviceName = "webhook-pinger"

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
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:           "pinger",
		Short:         "Ping the configured webhooks on a schedule",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			p, err := pinger.New(cfg.Pinger, log)
			if err != nil {
				return err
			}
			if once {
				return pingOnce(cmd, p)
			}
			return serve(cmd.Context(), cfg, log, p)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.Path("config.yml"), "path to the YAML config file")
	cmd.Flags().BoolVar(&once, "once", false, "ping every target once, print the results and exit")
	return cmd
}

func load(configPath string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(cfg.Pinger.Targets) == 0 {
		return nil, nil, errors.New("no pinger targets configured")
	}
	cfg.Service.Name = serviceName

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log.With(logger.String("service", serviceName)), nil
}

func pingOnce(cmd *cobra.Command, p *pinger.Pinger) error {
	results := p.PingAll(cmd.Context())

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Target", "Status", "Latency", "Error"})
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
		t.AppendRow(table.Row{r.Target, r.StatusCode, r.Latency.Round(time.Millisecond), r.Error})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if failed > 0 {
		return fmt.Errorf("%d of %d pings failed", failed, len(results))
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger, p *pinger.Pinger) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	go p.PingAll(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Service.ShutdownTimeout)
		defer cancel()
		if err := p.Stop(stopCtx); err != nil {
			log.Error("Pinger did not stop cleanly", logger.Error(err))
		}
	}()

	server := api.NewServer(cfg.Service, log, func(router *gin.Engine) {
		api.RegisterHealthRoutes(router, cfg.Service.Name, cfg.Service.Version, nil)
		api.RegisterMetricsRoute(router, p.Metrics.Registry)
		api.RegisterPingerRoutes(router, api.NewPingerHandler(p))
	})
	return server.RunWithGracefulShutdown(ctx)
}
