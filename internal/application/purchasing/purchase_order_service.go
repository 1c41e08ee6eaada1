package purchasingapp

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseOrderService handles reads and user-driven edits of purchase orders
type PurchaseOrderService struct {
	orderRepo      purchasing.PurchaseOrderRepository
	lineItemRepo   purchasing.LineItemRepository
	txScope        TransactionScope
	tracker        *ChangeTracker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	orderRepo purchasing.PurchaseOrderRepository,
	lineItemRepo purchasing.LineItemRepository,
	txScope TransactionScope,
	tracker *ChangeTracker,
	logger *zap.Logger,
) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = NewChangeTracker(logger)
	}
	return &PurchaseOrderService{
		orderRepo:    orderRepo,
		lineItemRepo: lineItemRepo,
		txScope:      txScope,
		tracker:      tracker,
		logger:       logger,
		now:          time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po, s.now())
	return &resp, nil
}

// GetByPONumber retrieves a purchase order by its natural key
func (s *PurchaseOrderService) GetByPONumber(ctx context.Context, poNumber string) (*PurchaseOrderResponse, error) {
	n, err := purchasing.NormalizePONumber(poNumber)
	if err != nil {
		return nil, err
	}
	po, err := s.orderRepo.FindByPONumber(ctx, n)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(po, s.now())
	return &resp, nil
}

// List returns a page of purchase orders
func (s *PurchaseOrderService) List(ctx context.Context, filter purchasing.PurchaseOrderFilter) (shared.Paginated[PurchaseOrderResponse], error) {
	orders, total, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[PurchaseOrderResponse]{}, err
	}
	now := s.now()
	items := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		items[i] = ToPurchaseOrderResponse(&orders[i], now)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateLocalFields applies a partial update of user-owned fields. Every
// changed field gets a timeline note; an update that changes nothing is a
// no-op and leaves UpdatedAt alone.
func (s *PurchaseOrderService) UpdateLocalFields(ctx context.Context, id uuid.UUID, actor string, req UpdateLocalFieldsRequest) (*PurchaseOrderResponse, error) {
	patch, err := req.ToPatch()
	if err != nil {
		return nil, err
	}

	var po *purchasing.PurchaseOrder
	var changes []purchasing.FieldChange
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.PurchaseOrderRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		po = found
		changes = po.ApplyLocalPatch(patch)
		_, err = s.tracker.Record(ctx, repos, po, actor, changes, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.logger.Info("Purchase order updated",
			zap.String("po_number", po.PONumber),
			zap.String("actor", actor),
			zap.Int("changes", len(changes)))
	}
	resp := ToPurchaseOrderResponse(po, s.now())
	return &resp, nil
}

// Hide soft-hides an order. An empty reason means manually_hidden.
func (s *PurchaseOrderService) Hide(ctx context.Context, id uuid.UUID, actor string, reason purchasing.HiddenReason) (*PurchaseOrderResponse, error) {
	if reason == "" {
		reason = purchasing.HiddenReasonManual
	}
	return s.changeVisibility(ctx, actor, func(repo purchasing.PurchaseOrderRepository) (*purchasing.PurchaseOrder, error) {
		return repo.FindByID(ctx, id)
	}, func(po *purchasing.PurchaseOrder, at time.Time) ([]purchasing.FieldChange, error) {
		return po.Hide(reason, actor, at)
	})
}

// Unhide restores a hidden order to the active list.
func (s *PurchaseOrderService) Unhide(ctx context.Context, id uuid.UUID, actor string) (*PurchaseOrderResponse, error) {
	return s.changeVisibility(ctx, actor, func(repo purchasing.PurchaseOrderRepository) (*purchasing.PurchaseOrder, error) {
		return repo.FindByID(ctx, id)
	}, func(po *purchasing.PurchaseOrder, at time.Time) ([]purchasing.FieldChange, error) {
		return po.Unhide(actor, at)
	})
}

// UnhideByPONumber restores a hidden order looked up by its PO number.
func (s *PurchaseOrderService) UnhideByPONumber(ctx context.Context, poNumber, actor string) (*PurchaseOrderResponse, error) {
	n, err := purchasing.NormalizePONumber(poNumber)
	if err != nil {
		return nil, err
	}
	return s.changeVisibility(ctx, actor, func(repo purchasing.PurchaseOrderRepository) (*purchasing.PurchaseOrder, error) {
		return repo.FindByPONumber(ctx, n)
	}, func(po *purchasing.PurchaseOrder, at time.Time) ([]purchasing.FieldChange, error) {
		return po.Unhide(actor, at)
	})
}

func (s *PurchaseOrderService) changeVisibility(
	ctx context.Context,
	actor string,
	load func(purchasing.PurchaseOrderRepository) (*purchasing.PurchaseOrder, error),
	mutate func(*purchasing.PurchaseOrder, time.Time) ([]purchasing.FieldChange, error),
) (*PurchaseOrderResponse, error) {
	var po *purchasing.PurchaseOrder
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := load(repos.PurchaseOrderRepo())
		if err != nil {
			return err
		}
		po = found
		at := s.now()
		changes, err := mutate(po, at)
		if err != nil {
			return err
		}
		if err := repos.PurchaseOrderRepo().SaveVisibility(ctx, po); err != nil {
			return fmt.Errorf("failed to save visibility: %w", err)
		}
		_, err = s.tracker.Record(ctx, repos, po, actor, changes, at)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchase order visibility changed",
		zap.String("po_number", po.PONumber),
		zap.Bool("hidden", po.Visibility.IsHidden),
		zap.String("actor", actor))
	s.publishEvents(ctx, po)
	resp := ToPurchaseOrderResponse(po, s.now())
	return &resp, nil
}

// ListLineItems returns the line items of an order
func (s *PurchaseOrderService) ListLineItems(ctx context.Context, poID uuid.UUID) ([]LineItemResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, poID); err != nil {
		return nil, err
	}
	items, err := s.lineItemRepo.FindByPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	responses := make([]LineItemResponse, len(items))
	for i := range items {
		responses[i] = ToLineItemResponse(&items[i])
	}
	return responses, nil
}

// MarkLineItemReceived sets the receiving state of a line item and writes
// an audit note on its purchase order. Setting the current state again is a
// no-op.
func (s *PurchaseOrderService) MarkLineItemReceived(ctx context.Context, lineItemID uuid.UUID, actor string, received bool) (*LineItemResponse, error) {
	var item *purchasing.LineItem
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.LineItemRepo().FindByID(ctx, lineItemID)
		if err != nil {
			return err
		}
		item = found
		at := s.now()
		change, changed := item.MarkReceived(received, at)
		if !changed {
			return nil
		}
		if err := repos.LineItemRepo().SaveReceipt(ctx, item); err != nil {
			return fmt.Errorf("failed to save line item: %w", err)
		}
		po, err := repos.PurchaseOrderRepo().FindByID(ctx, item.PurchaseOrderID)
		if err != nil {
			return err
		}
		_, err = s.tracker.Record(ctx, repos, po, actor, []purchasing.FieldChange{change}, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToLineItemResponse(item)
	return &resp, nil
}

// publishEvents publishes and clears the order's pending domain events.
// Failures are logged; the state change is already committed.
func (s *PurchaseOrderService) publishEvents(ctx context.Context, po *purchasing.PurchaseOrder) {
	events := po.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		po.ClearDomainEvents()
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	po.ClearDomainEvents()
}
