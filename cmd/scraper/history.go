package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-flashsale/storage"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scraping runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := storage.Open(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := storage.NewRunStore(db).ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Run", "Date", "Products", "Pages", "Seconds"})
			for _, r := range runs {
				t.AppendRow(table.Row{r.ID, r.RunDate.Local().Format(time.DateTime), r.ProductCount, r.PagesScraped, r.TimeTaken})
			}
			t.AppendFooter(table.Row{"", "Total runs", len(runs)})
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", storage.DefaultHistoryLimit, "number of runs to show")
	return cmd
}
