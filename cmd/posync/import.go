package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/bootstrap"
	"github.com/erp/posync/internal/domain/bulk"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"github.com/spf13/cobra"
)

func (c *cli) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an ERP export file",
	}
	cmd.AddCommand(c.importEntityCmd("purchase-orders", "Import a purchase order export", bulk.ImportEntityPurchaseOrders))
	cmd.AddCommand(c.importEntityCmd("line-items", "Import a line item export", bulk.ImportEntityLineItems))
	return cmd
}

func (c *cli) importEntityCmd(use, short string, entity bulk.ImportEntityType) *cobra.Command {
	return &cobra.Command{
		Use:   use + " FILE",
		Short: short,
		Long:  short + ". The file is read in place and left untouched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) error {
				result, err := importFile(ctx, app, entity, args[0], c.actorOr(app))
				if err != nil {
					return err
				}
				return c.printResult(cmd.OutOrStdout(), result)
			})
		},
	}
}

func importFile(ctx context.Context, app *bootstrap.App, entity bulk.ImportEntityType, path, actor string) (*csvimport.BatchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	req := importapp.ImportRequest{
		FileName:   filepath.Base(path),
		Size:       info.Size(),
		Source:     bulk.ImportSourceCLI,
		ImportedBy: actor,
		Content:    f,
	}
	if entity == bulk.ImportEntityLineItems {
		return app.LineItemImports.Import(ctx, req)
	}
	return app.PurchaseOrderImports.Import(ctx, req)
}

func (c *cli) printResult(w io.Writer, r *csvimport.BatchResult) error {
	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "Import %s", r.ImportID)
	if r.ReportDate != "" {
		fmt.Fprintf(w, " (report date %s)", r.ReportDate)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  rows:      %d\n", r.TotalRows)
	fmt.Fprintf(w, "  created:   %d\n", r.CreatedRows)
	fmt.Fprintf(w, "  updated:   %d\n", r.UpdatedRows)
	fmt.Fprintf(w, "  unchanged: %d\n", r.UnchangedRows)
	fmt.Fprintf(w, "  skipped:   %d\n", r.SkippedRows)
	fmt.Fprintf(w, "  errors:    %d\n", r.ErrorRows)
	if r.HiddenCount > 0 || r.RestoredCount > 0 {
		fmt.Fprintf(w, "  hidden:    %d\n", r.HiddenCount)
		fmt.Fprintf(w, "  restored:  %d\n", r.RestoredCount)
	}

	if len(r.SkipReasons) > 0 {
		reasons := make([]string, 0, len(r.SkipReasons))
		for reason := range r.SkipReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		fmt.Fprintln(w, "Skip reasons:")
		for _, reason := range reasons {
			fmt.Fprintf(w, "  %-24s %d\n", reason, r.SkipReasons[reason])
		}
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  ! %s\n", e.Error())
	}
	if r.IsTruncated {
		fmt.Fprintf(w, "  ... %d diagnostics in total\n", r.TotalErrors)
	}
	return nil
}
