package importapp

import (
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
)

// UpsertAction is what applying a row will do to the store
type UpsertAction string

const (
	ActionCreate    UpsertAction = "create"
	ActionUpdate    UpsertAction = "update"
	ActionUnchanged UpsertAction = "unchanged"
)

// PlannedUpsert is one usable export row and the order it produces
type PlannedUpsert struct {
	Line   int
	Action UpsertAction
	Order  *purchasing.PurchaseOrder
}

// ReconcileOptions carries the inputs Reconcile needs besides the data
type ReconcileOptions struct {
	// Actor is recorded as HiddenBy on orphaned orders.
	Actor     string
	Now       time.Time
	MaxErrors int
}

// ReconcilePlan is the set of writes that brings the store in line with
// one export. Result holds the skip diagnostics; the caller adds the
// outcome of each write as it applies them.
type ReconcilePlan struct {
	Upserts  []PlannedUpsert
	Hides    []*purchasing.PurchaseOrder
	Restores []*purchasing.PurchaseOrder
	// Seen is the number of distinct usable PO numbers in the export.
	Seen   int
	Result *csvimport.BatchResult
}

// Reconcile merges an extracted export into a snapshot of the store. It
// performs no I/O; orders in the plan are the snapshot's own values with
// the changes applied.
//
// System fields of existing orders are overwritten and local fields are
// never touched. Orders missing from the export are hidden as
// not_in_import, unless no row carried a usable PO number at all. Orders
// hidden as not_in_import that show up again are restored.
func Reconcile(snapshot []purchasing.PurchaseOrder, extract *csvimport.POExtract, opts ReconcileOptions) *ReconcilePlan {
	result := csvimport.NewBatchResult(opts.MaxErrors)
	result.ReportDate = extract.ReportDate
	result.TotalRows = len(extract.Rows)
	plan := &ReconcilePlan{Result: result}

	known := make(map[string]*purchasing.PurchaseOrder, len(snapshot))
	for i := range snapshot {
		known[snapshot[i].PONumber] = &snapshot[i]
	}

	seen := make(map[string]bool)
	applied := make(map[string]bool)
	for _, row := range extract.Rows {
		number, err := purchasing.NormalizePONumber(row.PONumber)
		if err != nil {
			result.Skip(row.Line, "po_number", csvimport.SkipInvalidPONumber, row.PONumber, err.Error())
			continue
		}
		// the order is in the export even when the rest of the row is bad
		seen[number] = true

		if row.AmountErr != nil {
			result.Skip(row.Line, "amount", csvimport.SkipInvalidAmount, row.RawAmount, row.AmountErr.Error())
			continue
		}
		if applied[number] {
			result.Skip(row.Line, "po_number", csvimport.SkipDuplicate, number, "PO number already imported earlier in this file")
			continue
		}
		applied[number] = true

		system := purchasing.SystemFields{
			Vendor:     row.Vendor,
			NSStatus:   row.NSStatus,
			Amount:     row.Amount,
			Location:   row.Location,
			ReportDate: extract.ReportDate,
			OrderDate:  row.OrderDate,
			OrderedAt:  purchasing.ParseOrderDate(row.OrderDate),
		}
		if row.OrderDate != "" && system.OrderedAt == nil {
			result.Note(row.Line, "order_date", csvimport.ErrCodeInvalidRow, row.OrderDate, "order date is not MM/DD/YYYY; kept as text")
		}
		system, cut := system.Bounded()
		for _, c := range cut {
			result.Note(row.Line, c.Field, csvimport.ErrCodeInvalidRow, c.Original,
				fmt.Sprintf("longer than %d characters; truncated", c.Max))
		}

		if po, ok := known[number]; ok {
			action := ActionUnchanged
			if po.ApplySystemFields(system, opts.Now) {
				action = ActionUpdate
			}
			plan.Upserts = append(plan.Upserts, PlannedUpsert{Line: row.Line, Action: action, Order: po})
			continue
		}

		po, err := purchasing.NewPurchaseOrder(number, system, opts.Now)
		if err != nil {
			result.Skip(row.Line, "po_number", csvimport.SkipInvalidPONumber, number, err.Error())
			continue
		}
		plan.Upserts = append(plan.Upserts, PlannedUpsert{Line: row.Line, Action: ActionCreate, Order: po})
	}
	plan.Seen = len(seen)

	for i := range snapshot {
		po := &snapshot[i]
		switch {
		case seen[po.PONumber] && po.Visibility.IsHidden && po.Visibility.HiddenReason == purchasing.HiddenReasonNotInImport:
			if _, err := po.Unhide(opts.Actor, opts.Now); err == nil {
				plan.Restores = append(plan.Restores, po)
			}
		case plan.Seen > 0 && !seen[po.PONumber] && !po.Visibility.IsHidden:
			if _, err := po.Hide(purchasing.HiddenReasonNotInImport, opts.Actor, opts.Now); err == nil {
				plan.Hides = append(plan.Hides, po)
			}
		}
	}
	return plan
}
