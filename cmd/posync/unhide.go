package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erp/posync/internal/bootstrap"
	"github.com/spf13/cobra"
)

func (c *cli) unhideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unhide PO_NUMBER",
		Short: "Make a hidden purchase order visible again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				po, err := app.PurchaseOrders.UnhideByPONumber(ctx, args[0], c.actorOr(app))
				if err != nil {
					return fmt.Errorf("unhide %s: %w", args[0], err)
				}
				w := cmd.OutOrStdout()
				if c.asJSON {
					return json.NewEncoder(w).Encode(po)
				}
				fmt.Fprintf(w, "%s is visible (vendor %s, status %s)\n", po.PONumber, po.Vendor, po.NSStatus)
				return nil
			})
		},
	}
}
