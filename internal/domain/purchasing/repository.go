package purchasing

import (
	"context"
	"time"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderFilter narrows purchase order listings.
type PurchaseOrderFilter struct {
	shared.Filter
	// Status matches the custom (local) status exactly.
	Status string
	// NSStatus matches the ERP status exactly.
	NSStatus    string
	OrderedFrom *time.Time
	OrderedTo   *time.Time
	// Hidden selects hidden (true) or visible (false) orders; nil selects both.
	Hidden *bool
}

// PurchaseOrderRepository persists purchase orders. Writes are scoped to a
// field group so an import can never clobber user-owned columns and a user
// edit can never clobber ERP-owned columns.
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByPONumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, int64, error)

	// Snapshot loads every order, hidden or not, for reconciliation.
	Snapshot(ctx context.Context) ([]PurchaseOrder, error)

	// Create inserts a new order. Returns shared.ErrAlreadyExists on a PO number clash.
	Create(ctx context.Context, po *PurchaseOrder) error
	SaveSystemFields(ctx context.Context, po *PurchaseOrder) error
	SaveLocalFields(ctx context.Context, po *PurchaseOrder) error
	SaveVisibility(ctx context.Context, po *PurchaseOrder) error
}

// LineItemRepository persists line items.
type LineItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LineItem, error)
	FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]LineItem, error)
	Exists(ctx context.Context, key LineItemKey) (bool, error)
	// Create inserts a new item. Returns shared.ErrAlreadyExists when the key is taken.
	Create(ctx context.Context, item *LineItem) error
	SaveReceipt(ctx context.Context, item *LineItem) error
}

// NoteRepository persists the append-only note timeline.
type NoteRepository interface {
	Append(ctx context.Context, note *Note) error
	FindByID(ctx context.Context, id uuid.UUID) (*Note, error)
	// FindByPurchaseOrder returns notes newest first.
	FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]Note, error)
	// Latest returns the newest note, or shared.ErrNotFound when there is none.
	Latest(ctx context.Context, poID uuid.UUID) (*Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
