package purchasing

import (
	"strings"
	"time"
	"unicode"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxPONumberLength is the longest PO number accepted from an export.
const MaxPONumberLength = 50

// OrderDateLayout is the date format ERP exports use for order dates.
const OrderDateLayout = "01/02/2006"

// HiddenReason records why a purchase order was taken out of the active list
type HiddenReason string

const (
	HiddenReasonNotInImport HiddenReason = "not_in_import"
	HiddenReasonManual      HiddenReason = "manually_hidden"
	HiddenReasonCompleted   HiddenReason = "completed"
	HiddenReasonCancelled   HiddenReason = "cancelled"
	HiddenReasonOther       HiddenReason = "other"
)

// IsValid checks if the reason is one of the known hidden reasons
func (r HiddenReason) IsValid() bool {
	switch r {
	case HiddenReasonNotInImport, HiddenReasonManual, HiddenReasonCompleted,
		HiddenReasonCancelled, HiddenReasonOther:
		return true
	}
	return false
}

// Label returns the human readable form used in audit notes.
func (r HiddenReason) Label() string {
	switch r {
	case HiddenReasonNotInImport:
		return "Not in import"
	case HiddenReasonManual:
		return "Manually hidden"
	case HiddenReasonCompleted:
		return "Completed"
	case HiddenReasonCancelled:
		return "Cancelled"
	case HiddenReasonOther:
		return "Other"
	}
	return string(r)
}

// SystemFields are owned by the ERP. Every import overwrites them.
type SystemFields struct {
	Vendor     string
	NSStatus   string
	Amount     decimal.Decimal
	Location   string
	ReportDate string
	OrderDate  string
	OrderedAt  *time.Time
}

// Equal compares two system field sets value by value.
func (s SystemFields) Equal(o SystemFields) bool {
	return s.Vendor == o.Vendor &&
		s.NSStatus == o.NSStatus &&
		s.Amount.Equal(o.Amount) &&
		s.Location == o.Location &&
		s.ReportDate == o.ReportDate &&
		s.OrderDate == o.OrderDate &&
		timePtrEqual(s.OrderedAt, o.OrderedAt)
}

// ParseOrderDate parses an export order date. Unparseable input yields nil.
func ParseOrderDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(OrderDateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

// Attachment is a reference to a file stored elsewhere.
type Attachment struct {
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// EmailRecord is one outbound email logged against the order.
type EmailRecord struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	SentBy  string    `json:"sent_by,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// LocalFields are owned by this system. Imports never write them.
type LocalFields struct {
	Status         string
	Notes          string
	ETA            *time.Time
	URL            string
	TrackingNumber string
	Attachments    []Attachment
	SnoozedUntil   *time.Time
	EmailHistory   []EmailRecord
}

// Visibility is the soft-hide state of an order.
type Visibility struct {
	IsHidden     bool
	HiddenReason HiddenReason
	HiddenDate   *time.Time
	HiddenBy     string
}

// PurchaseOrder is the aggregate root keyed by its ERP PO number.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	PONumber   string
	System     SystemFields
	Local      LocalFields
	Visibility Visibility
}

// NormalizePONumber trims and upper-cases a raw PO number and rejects
// values that cannot serve as a natural key. "po10001" and "PO10001" are
// the same order.
func NormalizePONumber(raw string) (string, error) {
	n := strings.ToUpper(strings.TrimSpace(raw))
	if n == "" {
		return "", shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if len(n) > MaxPONumberLength {
		return "", shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot exceed 50 characters")
	}
	if strings.IndexFunc(n, unicode.IsSpace) >= 0 {
		return "", shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot contain whitespace")
	}
	return n, nil
}

// NewPurchaseOrder creates an order first seen in an import. The custom
// status starts empty and is never derived from the ERP status.
func NewPurchaseOrder(poNumber string, system SystemFields, at time.Time) (*PurchaseOrder, error) {
	n, err := NormalizePONumber(poNumber)
	if err != nil {
		return nil, err
	}
	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(at),
		PONumber:          n,
		System:            system,
	}
	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))
	return po, nil
}

// ApplySystemFields overwrites the ERP-owned fields and stamps UpdatedAt.
// It reports whether any value actually changed.
func (po *PurchaseOrder) ApplySystemFields(system SystemFields, at time.Time) bool {
	changed := !po.System.Equal(system)
	po.System = system
	po.Touch(at)
	return changed
}

// Hide soft-hides the order. Line items and notes are left alone.
func (po *PurchaseOrder) Hide(reason HiddenReason, by string, at time.Time) ([]FieldChange, error) {
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_HIDDEN_REASON", "Unknown hidden reason: "+string(reason))
	}
	if po.Visibility.IsHidden {
		return nil, shared.NewDomainError("INVALID_STATE", "Purchase order is already hidden")
	}
	hiddenAt := at
	po.Visibility = Visibility{
		IsHidden:     true,
		HiddenReason: reason,
		HiddenDate:   &hiddenAt,
		HiddenBy:     by,
	}
	po.Touch(at)
	po.AddDomainEvent(NewPurchaseOrderHiddenEvent(po))
	return []FieldChange{
		{Field: FieldHidden, Old: false, New: true},
		{Field: FieldHiddenReason, Old: nil, New: reason},
	}, nil
}

// Unhide restores a hidden order to the active list.
func (po *PurchaseOrder) Unhide(by string, at time.Time) ([]FieldChange, error) {
	if !po.Visibility.IsHidden {
		return nil, shared.NewDomainError("INVALID_STATE", "Purchase order is not hidden")
	}
	previous := po.Visibility.HiddenReason
	po.Visibility = Visibility{}
	po.Touch(at)
	po.AddDomainEvent(NewPurchaseOrderUnhiddenEvent(po, previous, by))
	return []FieldChange{
		{Field: FieldHidden, Old: true, New: false},
		{Field: FieldHiddenReason, Old: previous, New: nil},
	}, nil
}

// IsSnoozed reports whether the order is snoozed at the given time.
func (po *PurchaseOrder) IsSnoozed(now time.Time) bool {
	return po.Local.SnoozedUntil != nil && now.Before(*po.Local.SnoozedUntil)
}

// LocalFieldsPatch is a partial update of user-owned fields. Nil pointers
// leave the field alone; the Clear flags reset a date to empty.
type LocalFieldsPatch struct {
	Status         *string
	ETA            *time.Time
	ClearETA       bool
	URL            *string
	TrackingNumber *string
	SnoozedUntil   *time.Time
	ClearSnooze    bool
}

// IsEmpty reports whether the patch would touch nothing.
func (p LocalFieldsPatch) IsEmpty() bool {
	return p.Status == nil && p.ETA == nil && !p.ClearETA && p.URL == nil &&
		p.TrackingNumber == nil && p.SnoozedUntil == nil && !p.ClearSnooze
}

// ApplyLocalPatch applies the patch and returns one FieldChange per field
// whose value actually changed, in a stable field order. It does not
// stamp UpdatedAt; callers do that only when changes were recorded.
func (po *PurchaseOrder) ApplyLocalPatch(p LocalFieldsPatch) []FieldChange {
	var changes []FieldChange
	record := func(field string, old, next any) bool {
		if ValuesEqual(old, next) {
			return false
		}
		changes = append(changes, FieldChange{Field: field, Old: old, New: next})
		return true
	}

	if p.Status != nil {
		status := strings.TrimSpace(*p.Status)
		if record(FieldStatus, po.Local.Status, status) {
			po.Local.Status = status
		}
	}
	if p.ClearETA || p.ETA != nil {
		eta := p.ETA
		if p.ClearETA {
			eta = nil
		}
		if record(FieldETA, dateValue(po.Local.ETA), dateValue(eta)) {
			po.Local.ETA = eta
		}
	}
	if p.URL != nil {
		url := strings.TrimSpace(*p.URL)
		if record(FieldURL, po.Local.URL, url) {
			po.Local.URL = url
		}
	}
	if p.TrackingNumber != nil {
		tn := strings.TrimSpace(*p.TrackingNumber)
		if record(FieldTrackingNumber, po.Local.TrackingNumber, tn) {
			po.Local.TrackingNumber = tn
		}
	}
	if p.ClearSnooze || p.SnoozedUntil != nil {
		until := p.SnoozedUntil
		if p.ClearSnooze {
			until = nil
		}
		if record(FieldSnoozedUntil, timestampValue(po.Local.SnoozedUntil), timestampValue(until)) {
			po.Local.SnoozedUntil = until
		}
	}
	return changes
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
