package purchasing

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Field labels as they appear in audit notes.
const (
	FieldStatus         = "Status"
	FieldETA            = "ETA"
	FieldURL            = "URL"
	FieldTrackingNumber = "Tracking Number"
	FieldSnoozedUntil   = "Snoozed Until"
	FieldHidden         = "Hidden"
	FieldHiddenReason   = "Hidden Reason"
	FieldReceived       = "Received"
)

const (
	dateDisplayLayout      = "Jan 2, 2006"
	timestampDisplayLayout = "Jan 2, 2006 3:04 PM"
	emptyDisplay           = "None"
	systemActor            = "System"
)

// Date is a calendar date; it formats without a time of day.
type Date struct{ time.Time }

// Timestamp is an instant; it formats with a time of day.
type Timestamp struct{ time.Time }

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Date{*t}
}

func timestampValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Timestamp{*t}
}

// FieldChange is a single observed mutation of one field.
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// AuditLine renders the change as a timeline entry.
func (c FieldChange) AuditLine(at time.Time, actor string) string {
	if strings.TrimSpace(actor) == "" {
		actor = systemActor
	}
	return fmt.Sprintf("[%s] %s changed %s from %s to %s",
		at.Format(timestampDisplayLayout), actor, c.Field, FormatValue(c.Old), FormatValue(c.New))
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *time.Time:
		return x == nil
	case HiddenReason:
		return x == ""
	}
	return false
}

// ValuesEqual compares two field values the way the audit trail sees them:
// empty values are interchangeable, dates compare by calendar day, times
// and decimals by value.
func ValuesEqual(a, b any) bool {
	ae, be := isEmptyValue(a), isEmptyValue(b)
	if ae || be {
		return ae && be
	}
	switch x := a.(type) {
	case Date:
		y, ok := b.(Date)
		if !ok {
			return false
		}
		xy, xm, xd := x.Date()
		yy, ym, yd := y.Date()
		return xy == yy && xm == ym && xd == yd
	case Timestamp:
		y, ok := b.(Timestamp)
		return ok && x.Equal(y.Time)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case *time.Time:
		y, ok := b.(*time.Time)
		return ok && y != nil && x.Equal(*y)
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as US dollars with thousands separators.
func FormatCurrency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + currencyPrinter.Sprintf("%.2f", d.Neg().InexactFloat64())
	}
	return "$" + currencyPrinter.Sprintf("%.2f", d.InexactFloat64())
}

// FormatValue renders a field value for an audit line.
func FormatValue(v any) string {
	if isEmptyValue(v) {
		return emptyDisplay
	}
	switch x := v.(type) {
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case Date:
		return x.Format(dateDisplayLayout)
	case Timestamp:
		return x.Format(timestampDisplayLayout)
	case time.Time:
		return formatTime(x)
	case *time.Time:
		return formatTime(*x)
	case decimal.Decimal:
		return FormatCurrency(x)
	case HiddenReason:
		return x.Label()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(dateDisplayLayout)
	}
	return t.Format(timestampDisplayLayout)
}
