package csvimport

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultSentinel marks the end of the data region in ERP exports.
const DefaultSentinel = "Total"

// POLayout addresses the purchase order export positionally. All indices
// are 0-based.
type POLayout struct {
	ReportDateRow int
	ReportDateCol int
	DataStartRow  int
	// Sentinel ends the data region at the first row whose first cell
	// contains it. Empty disables the check.
	Sentinel     string
	OrderDateCol int
	PONumberCol  int
	VendorCol    int
	NSStatusCol  int
	AmountCol    int
	LocationCol  int
}

// DefaultPOLayout returns the layout of the standard purchase order export
func DefaultPOLayout() POLayout {
	return POLayout{
		ReportDateRow: 3,
		ReportDateCol: 0,
		DataStartRow:  8,
		Sentinel:      DefaultSentinel,
		OrderDateCol:  1,
		PONumberCol:   2,
		VendorCol:     3,
		NSStatusCol:   4,
		AmountCol:     5,
		LocationCol:   6,
	}
}

// Validate checks the layout is addressable
func (l POLayout) Validate() error {
	for name, v := range map[string]int{
		"report_date_row": l.ReportDateRow, "report_date_col": l.ReportDateCol,
		"order_date_col": l.OrderDateCol, "po_number_col": l.PONumberCol,
		"vendor_col": l.VendorCol, "ns_status_col": l.NSStatusCol,
		"amount_col": l.AmountCol, "location_col": l.LocationCol,
	} {
		if v < 0 {
			return fmt.Errorf("po layout: %s cannot be negative", name)
		}
	}
	if l.DataStartRow <= l.ReportDateRow {
		return fmt.Errorf("po layout: data_start_row (%d) must come after report_date_row (%d)", l.DataStartRow, l.ReportDateRow)
	}
	return nil
}

// PORow is one row of the purchase order data region
type PORow struct {
	// Line is the 1-based line in the source document.
	Line      int
	PONumber  string
	OrderDate string
	Vendor    string
	NSStatus  string
	Location  string
	RawAmount string
	Amount    decimal.Decimal
	// AmountErr is set when a non-blank amount did not parse; Amount is zero then.
	AmountErr error
}

// POExtract is the data region of a purchase order export
type POExtract struct {
	ReportDate    string
	Rows          []PORow
	SentinelFound bool
	// BlankRows counts empty rows ignored inside the region.
	BlankRows int
}

// ExtractPurchaseOrders locates the data region and pulls the positional
// fields out of each row. Only a document too short to address is an
// error; bad cells are reported on the row.
func ExtractPurchaseOrders(records [][]string, layout POLayout) (*POExtract, error) {
	if len(records) < layout.DataStartRow {
		return nil, &StructuralParseError{
			Reason: "purchase order export is shorter than its header block",
			Rows:   len(records),
			Need:   layout.DataStartRow,
		}
	}

	out := &POExtract{
		ReportDate: Cell(records[layout.ReportDateRow], layout.ReportDateCol),
	}
	for i := layout.DataStartRow; i < len(records); i++ {
		row := records[i]
		if isSentinel(row, layout.Sentinel) {
			out.SentinelFound = true
			break
		}
		if IsBlankRow(row) {
			out.BlankRows++
			continue
		}
		raw := Cell(row, layout.AmountCol)
		amount, amountErr := ParseAmount(raw)
		out.Rows = append(out.Rows, PORow{
			Line:      i + 1,
			PONumber:  Cell(row, layout.PONumberCol),
			OrderDate: Cell(row, layout.OrderDateCol),
			Vendor:    Cell(row, layout.VendorCol),
			NSStatus:  Cell(row, layout.NSStatusCol),
			Location:  Cell(row, layout.LocationCol),
			RawAmount: raw,
			Amount:    amount,
			AmountErr: amountErr,
		})
	}
	return out, nil
}

func isSentinel(row []string, sentinel string) bool {
	return sentinel != "" && len(row) > 0 && strings.Contains(row[0], sentinel)
}
