package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/bootstrap"
	"github.com/spf13/cobra"
)

func (c *cli) historyCmd() *cobra.Command {
	var (
		filter importapp.ListHistoryFilter
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent import batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				page, err := app.History.ListHistory(ctx, filter, 1, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if c.asJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(page)
				}
				if len(page.Items) == 0 {
					fmt.Fprintln(w, "No imports recorded")
					return nil
				}

				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "STARTED\tENTITY\tSOURCE\tSTATUS\tROWS\tCREATED\tUPDATED\tSKIPPED\tERRORS\tHIDDEN\tBY\tFILE")
				for _, h := range page.Items {
					started := "-"
					if h.StartedAt != nil {
						started = h.StartedAt.Local().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
						started, h.EntityType, h.Source, h.Status, h.TotalRows,
						h.CreatedRows, h.UpdatedRows, h.SkippedRows, h.ErrorRows,
						h.HiddenCount, h.ImportedBy, h.FileName)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if page.Total > int64(len(page.Items)) {
					fmt.Fprintf(w, "(%d of %d)\n", len(page.Items), page.Total)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter.EntityType, "entity", "e", "", "Filter by entity (purchase_orders, line_items)")
	cmd.Flags().StringVarP(&filter.Status, "status", "s", "", "Filter by status (pending, processing, completed, failed)")
	cmd.Flags().StringVar(&filter.ImportedBy, "by", "", "Filter by importer")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum batches to show")
	return cmd
}
