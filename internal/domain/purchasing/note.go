package purchasing

import (
	"strings"
	"time"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
)

// Note is an immutable timeline entry attached to a purchase order.
// The order's Notes field always mirrors the newest note's content.
type Note struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	PONumber        string
	Vendor          string
	Content         string
	CreatedBy       string
	CreatedAt       time.Time
}

// NewNote creates a timeline entry for the order.
func NewNote(po *PurchaseOrder, actor, content string, at time.Time) (*Note, error) {
	if po == nil {
		return nil, shared.NewDomainError("INVALID_PURCHASE_ORDER", "Note requires a purchase order")
	}
	if strings.TrimSpace(content) == "" {
		return nil, shared.NewDomainError("INVALID_NOTE", "Note content cannot be empty")
	}
	return &Note{
		ID:              uuid.New(),
		PurchaseOrderID: po.ID,
		PONumber:        po.PONumber,
		Vendor:          po.System.Vendor,
		Content:         content,
		CreatedBy:       actor,
		CreatedAt:       at,
	}, nil
}
