package purchasing

import (
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypePurchaseOrder is the aggregate type carried on events
const AggregateTypePurchaseOrder = "PurchaseOrder"

const (
	EventTypePurchaseOrderCreated  = "PurchaseOrderCreated"
	EventTypePurchaseOrderHidden   = "PurchaseOrderHidden"
	EventTypePurchaseOrderUnhidden = "PurchaseOrderUnhidden"
)

// PurchaseOrderCreatedEvent is raised when an import first sees an order
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID `json:"order_id"`
	PONumber string    `json:"po_number"`
	Vendor   string    `json:"vendor"`
}

func NewPurchaseOrderCreatedEvent(po *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, po.ID, po.CreatedAt),
		OrderID:         po.ID,
		PONumber:        po.PONumber,
		Vendor:          po.System.Vendor,
	}
}

// PurchaseOrderHiddenEvent is raised when an order is soft-hidden
type PurchaseOrderHiddenEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID    `json:"order_id"`
	PONumber string       `json:"po_number"`
	Reason   HiddenReason `json:"reason"`
	HiddenBy string       `json:"hidden_by"`
}

func NewPurchaseOrderHiddenEvent(po *PurchaseOrder) *PurchaseOrderHiddenEvent {
	return &PurchaseOrderHiddenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderHidden, AggregateTypePurchaseOrder, po.ID, po.UpdatedAt),
		OrderID:         po.ID,
		PONumber:        po.PONumber,
		Reason:          po.Visibility.HiddenReason,
		HiddenBy:        po.Visibility.HiddenBy,
	}
}

// PurchaseOrderUnhiddenEvent is raised when a hidden order is restored
type PurchaseOrderUnhiddenEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID    `json:"order_id"`
	PONumber       string       `json:"po_number"`
	PreviousReason HiddenReason `json:"previous_reason"`
	RestoredBy     string       `json:"restored_by"`
}

func NewPurchaseOrderUnhiddenEvent(po *PurchaseOrder, previous HiddenReason, by string) *PurchaseOrderUnhiddenEvent {
	return &PurchaseOrderUnhiddenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderUnhidden, AggregateTypePurchaseOrder, po.ID, po.UpdatedAt),
		OrderID:         po.ID,
		PONumber:        po.PONumber,
		PreviousReason:  previous,
		RestoredBy:      by,
	}
}
