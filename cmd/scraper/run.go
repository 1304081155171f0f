package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-flashsale/logger"
	"github.com/aluiziolira/go-flashsale/pipeline"
	"github.com/aluiziolira/go-flashsale/scraper"
	"github.com/aluiziolira/go-flashsale/storage"
)

const cookiesEnv = "SCRAPER_COOKIES"

type runOptions struct {
	cookiesFile string
	output      string
	format      string
	noStore     bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scrape and exit",
		Long: "Run one scrape with the session cookies from --cookies-file or " + cookiesEnv +
			", store it and optionally write the products to a file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cookies, err := opts.readCookies()
			if err != nil {
				return err
			}

			fetcher, err := scraper.NewFetcher(cfg.Feed, log)
			if err != nil {
				return err
			}

			var pipelineOpts []pipeline.Option
			var writer pipeline.OutputWriter
			if opts.output != "" {
				writer, err = pipeline.NewWriter(strings.ToLower(opts.format), opts.output)
				if err != nil {
					return err
				}
				pipelineOpts = append(pipelineOpts, pipeline.WithWriter(writer))
			}

			var store pipeline.RunStore
			if !opts.noStore {
				db, err := openDatabase(ctx, cfg.Database, log)
				if err != nil {
					return err
				}
				defer db.Close()
				store = storage.NewRunStore(db)
			}

			report, err := pipeline.New(fetcher, store, log, pipelineOpts...).Run(ctx, cookies)
			if writer != nil {
				if err == nil && report.TotalProducts > 0 {
					if verr := writer.Validate(); verr != nil {
						err = fmt.Errorf("output validation failed: %w", verr)
					}
				}
				if closeErr := writer.Close(); closeErr != nil {
					log.Error("Close output", logger.Error(closeErr))
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Scrape complete")
			fmt.Fprintf(out, "  Run id:        %s\n", report.RunID)
			fmt.Fprintf(out, "  Products:      %d\n", report.TotalProducts)
			fmt.Fprintf(out, "  Pages scraped: %d\n", report.PagesScraped)
			fmt.Fprintf(out, "  Time taken:    %ds\n", report.TimeTaken)
			if opts.output != "" {
				fmt.Fprintf(out, "  Output file:   %s\n", opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.cookiesFile, "cookies-file", "", "file holding the raw Cookie header (defaults to $"+cookiesEnv+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also write products to this file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "output format: csv, json or dual")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "skip the database and only write the output file")
	return cmd
}

func (o *runOptions) readCookies() (string, error) {
	if o.cookiesFile != "" {
		data, err := os.ReadFile(o.cookiesFile)
		if err != nil {
			return "", fmt.Errorf("read cookies file: %w", err)
		}
		return string(data), nil
	}
	if cookies := os.Getenv(cookiesEnv); cookies != "" {
		return cookies, nil
	}
	return "", errors.New("no cookies provided: use --cookies-file or " + cookiesEnv)
}
