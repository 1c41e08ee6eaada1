package purchasing

import (
	"strings"
	"time"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is an accounting line associated with a purchase order.
type LineItem struct {
	shared.BaseEntity
	PurchaseOrderID uuid.UUID
	PONumber        string
	AccountCode     string
	Memo            string
	Date            string
	Quantity        decimal.Decimal
	Received        bool
	ReceivedDate    *time.Time
}

// LineItemKey identifies a line item for deduplication. Quantity is not
// part of the key.
type LineItemKey struct {
	PurchaseOrderID uuid.UUID
	PONumber        string
	Memo            string
	Date            string
}

// NewLineItem creates a line item under an existing purchase order.
func NewLineItem(po *PurchaseOrder, accountCode, memo, date string, quantity decimal.Decimal, at time.Time) (*LineItem, error) {
	if po == nil || po.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PURCHASE_ORDER", "Line item requires an existing purchase order")
	}
	accountCode = strings.TrimSpace(accountCode)
	if accountCode == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account code cannot be empty")
	}
	memo = strings.TrimSpace(memo)
	date = strings.TrimSpace(date)
	// memo and date are part of the dedup key, so they are rejected
	// rather than cut
	for _, err := range []error{
		checkLength("account", accountCode, MaxAccountCodeLength),
		checkLength("memo", memo, MaxMemoLength),
		checkLength("date", date, MaxLineItemDateLength),
	} {
		if err != nil {
			return nil, err
		}
	}
	return &LineItem{
		BaseEntity:      shared.NewBaseEntity(at),
		PurchaseOrderID: po.ID,
		PONumber:        po.PONumber,
		AccountCode:     accountCode,
		Memo:            memo,
		Date:            date,
		Quantity:        quantity,
	}, nil
}

// Key returns the deduplication key
func (li *LineItem) Key() LineItemKey {
	return LineItemKey{
		PurchaseOrderID: li.PurchaseOrderID,
		PONumber:        li.PONumber,
		Memo:            li.Memo,
		Date:            li.Date,
	}
}

// Label names the item in audit notes.
func (li *LineItem) Label() string {
	if li.Memo == "" {
		return "line item " + li.AccountCode
	}
	return "line item \"" + li.Memo + "\""
}

// MarkReceived sets the receiving state. It returns the change and false
// when the state already matches.
func (li *LineItem) MarkReceived(received bool, at time.Time) (FieldChange, bool) {
	if li.Received == received {
		return FieldChange{}, false
	}
	change := FieldChange{Field: FieldReceived + " (" + li.Label() + ")", Old: li.Received, New: received}
	li.Received = received
	if received {
		ts := at
		li.ReceivedDate = &ts
	} else {
		li.ReceivedDate = nil
	}
	li.Touch(at)
	return change, true
}
