package csvimport

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// poNumberPattern accepts "PO10001", "po 10001", "PO#1234" and bare "10001".
var poNumberPattern = regexp.MustCompile(`(?i)^(?:PO)?\s*#?\s*(\d{4,6})$`)

// LineItemLayout addresses the line item export. All indices are 0-based.
type LineItemLayout struct {
	DataStartRow int
	Sentinel     string
	// CandidateColumns are tried in order when looking for the PO number.
	CandidateColumns []int
	AccountCol       int
	MemoCol          int
	DateCol          int
	// QuantityCol is optional; a negative value disables it.
	QuantityCol   int
	AccountPrefix string
}

// DefaultLineItemLayout returns the layout of the standard line item export
func DefaultLineItemLayout() LineItemLayout {
	return LineItemLayout{
		DataStartRow:     1,
		Sentinel:         DefaultSentinel,
		CandidateColumns: []int{3, 2, 4, 5, 1},
		AccountCol:       8,
		MemoCol:          9,
		DateCol:          1,
		QuantityCol:      10,
		AccountPrefix:    "1250",
	}
}

// Validate checks the layout is addressable
func (l LineItemLayout) Validate() error {
	if l.DataStartRow < 0 || l.AccountCol < 0 || l.MemoCol < 0 || l.DateCol < 0 {
		return fmt.Errorf("line item layout: row and column indices cannot be negative")
	}
	if len(l.CandidateColumns) == 0 {
		return fmt.Errorf("line item layout: at least one candidate PO column is required")
	}
	if slices.ContainsFunc(l.CandidateColumns, func(c int) bool { return c < 0 }) {
		return fmt.Errorf("line item layout: candidate columns cannot be negative")
	}
	return nil
}

// POMatch is the outcome of looking for a PO number in a row
type POMatch struct {
	Found  bool
	Column int
	Raw    string
	Digits string
}

// LookupKeys returns the natural keys to try, most specific first
func (m POMatch) LookupKeys() []string {
	if !m.Found {
		return nil
	}
	return []string{"PO" + m.Digits, m.Digits}
}

// MatchPONumber reports whether a cell has the shape of a PO number
func MatchPONumber(cell string) (string, bool) {
	sub := poNumberPattern.FindStringSubmatch(trimCell(cell))
	if sub == nil {
		return "", false
	}
	return sub[1], true
}

// ColumnSniffer finds the PO number column in files whose layout drifts.
// The column that matched last is tried first on the next row, but every
// row is scanned again so a shifted row still matches.
type ColumnSniffer struct {
	candidates []int
	hint       int
}

func NewColumnSniffer(candidates []int) *ColumnSniffer {
	return &ColumnSniffer{candidates: slices.Clone(candidates), hint: -1}
}

// Hint returns the working column, or -1 before the first match
func (s *ColumnSniffer) Hint() int {
	return s.hint
}

// Find scans the row for a PO number. No match is a normal result.
func (s *ColumnSniffer) Find(row []string) POMatch {
	try := func(col int) (POMatch, bool) {
		if col < 0 || col >= len(row) {
			return POMatch{}, false
		}
		digits, ok := MatchPONumber(row[col])
		if !ok {
			return POMatch{}, false
		}
		s.hint = col
		return POMatch{Found: true, Column: col, Raw: trimCell(row[col]), Digits: digits}, true
	}

	if m, ok := try(s.hint); ok {
		return m
	}
	for _, col := range s.candidates {
		if col == s.hint {
			continue
		}
		if m, ok := try(col); ok {
			return m
		}
	}
	return POMatch{}
}

// LineItemRow is one row of the line item data region
type LineItemRow struct {
	Line        int
	Match       POMatch
	AccountCode string
	Memo        string
	Date        string
	Quantity    decimal.Decimal
}

// HasAccountPrefix reports whether the row belongs to the given ledger
func (r LineItemRow) HasAccountPrefix(prefix string) bool {
	return strings.HasPrefix(r.AccountCode, prefix)
}

// LineItemExtract is the data region of a line item export
type LineItemExtract struct {
	Rows          []LineItemRow
	SentinelFound bool
	BlankRows     int
}

// ExtractLineItems runs the column sniffer over the data region and pulls
// the fixed-offset fields out of every row.
func ExtractLineItems(records [][]string, layout LineItemLayout) (*LineItemExtract, error) {
	if len(records) < layout.DataStartRow {
		return nil, &StructuralParseError{
			Reason: "line item export is shorter than its header block",
			Rows:   len(records),
			Need:   layout.DataStartRow,
		}
	}

	sniffer := NewColumnSniffer(layout.CandidateColumns)
	out := &LineItemExtract{}
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
		item := LineItemRow{
			Line:        i + 1,
			Match:       sniffer.Find(row),
			AccountCode: Cell(row, layout.AccountCol),
			Memo:        Cell(row, layout.MemoCol),
			Date:        Cell(row, layout.DateCol),
		}
		if layout.QuantityCol >= 0 {
			// quantity is informational; a bad cell just reads as zero
			item.Quantity, _ = ParseAmount(Cell(row, layout.QuantityCol))
		}
		out.Rows = append(out.Rows, item)
	}
	return out, nil
}
