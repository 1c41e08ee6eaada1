package purchasing

import (
	"fmt"
	"unicode/utf8"

	"github.com/erp/posync/internal/domain/shared"
)

// Column widths of the imported text fields, in characters.
const (
	MaxVendorLength       = 255
	MaxNSStatusLength     = 100
	MaxLocationLength     = 255
	MaxReportDateLength   = 100
	MaxOrderDateLength    = 100
	MaxAccountCodeLength  = 50
	MaxMemoLength         = 1000
	MaxLineItemDateLength = 30
)

// ErrFieldTooLong matches every FieldTooLongError via errors.Is
var ErrFieldTooLong = shared.NewDomainError("FIELD_TOO_LONG", "Field exceeds its maximum length")

// FieldTooLongError reports a value that does not fit its column
type FieldTooLongError struct {
	Field string
	Max   int
}

func (e *FieldTooLongError) Error() string {
	return fmt.Sprintf("%s cannot exceed %d characters", e.Field, e.Max)
}

func (e *FieldTooLongError) Is(target error) bool { return target == ErrFieldTooLong }

func checkLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return &FieldTooLongError{Field: field, Max: max}
	}
	return nil
}

// Truncate cuts s to at most max characters. It reports whether anything
// was cut.
func Truncate(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}

// Truncation names a system field that was cut to fit its column
type Truncation struct {
	Field    string
	Original string
	Max      int
}

// Bounded returns s with every text field cut to its column width, plus
// one Truncation per field that was cut.
func (s SystemFields) Bounded() (SystemFields, []Truncation) {
	var cut []Truncation
	bound := func(field string, v *string, max int) {
		if t, ok := Truncate(*v, max); ok {
			cut = append(cut, Truncation{Field: field, Original: *v, Max: max})
			*v = t
		}
	}
	bound("vendor", &s.Vendor, MaxVendorLength)
	bound("ns_status", &s.NSStatus, MaxNSStatusLength)
	bound("location", &s.Location, MaxLocationLength)
	bound("report_date", &s.ReportDate, MaxReportDateLength)
	bound("order_date", &s.OrderDate, MaxOrderDateLength)
	return s, cut
}
