package importapp

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"go.uber.org/zap"
)

// PurchaseOrderImportService reconciles purchase order exports into the store
type PurchaseOrderImportService struct {
	batchRunner
	orderRepo      purchasing.PurchaseOrderRepository
	layout         csvimport.POLayout
	eventPublisher shared.EventPublisher
}

// NewPurchaseOrderImportService creates a new PurchaseOrderImportService
func NewPurchaseOrderImportService(
	orderRepo purchasing.PurchaseOrderRepository,
	historyRepo bulk.ImportHistoryRepository,
	lock shared.ImportLock,
	layout csvimport.POLayout,
	opts ImportOptions,
	logger *zap.Logger,
) *PurchaseOrderImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderImportService{
		batchRunner: batchRunner{
			historyRepo: historyRepo,
			lock:        lock,
			opts:        opts,
			logger:      logger,
			now:         time.Now,
		},
		orderRepo: orderRepo,
		layout:    layout,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderImportService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetArchive sets where raw exports are archived
func (s *PurchaseOrderImportService) SetArchive(archive ExportArchive) {
	s.archive = archive
}

// SetMetrics sets the batch metrics recorder
func (s *PurchaseOrderImportService) SetMetrics(metrics BatchMetrics) {
	s.metrics = metrics
}

// Import runs one purchase order export through extraction, reconciliation
// and orphan resolution. Row problems end up in the result; only a
// structural problem with the file, a held lock or cancellation return an
// error.
func (s *PurchaseOrderImportService) Import(ctx context.Context, req ImportRequest) (*csvimport.BatchResult, error) {
	return s.run(ctx, bulk.ImportEntityPurchaseOrders, req, s.process)
}

func (s *PurchaseOrderImportService) process(ctx context.Context, records [][]string) (*csvimport.BatchResult, error) {
	extract, err := csvimport.ExtractPurchaseOrders(records, s.layout)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.orderRepo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase orders: %w", err)
	}

	plan := Reconcile(snapshot, extract, ReconcileOptions{
		Actor:     s.opts.Actor,
		Now:       s.now(),
		MaxErrors: s.opts.MaxErrors,
	})
	result := plan.Result
	for _, e := range result.Errors {
		s.logger.Debug("Row skipped", zap.Int("row", e.Row), zap.String("reason", e.Code), zap.String("value", e.Value))
	}
	if plan.Seen == 0 && len(snapshot) > 0 {
		s.logger.Warn("No usable PO numbers in export; orphan resolution skipped", zap.Int("rows", result.TotalRows))
	}

	failed := make(map[*purchasing.PurchaseOrder]bool)
	for _, u := range plan.Upserts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.applyUpsert(ctx, u); err != nil {
			failed[u.Order] = true
			result.Fail(u.Line, err.Error())
			s.logger.Error("Failed to persist purchase order",
				zap.Int("row", u.Line), zap.String("po_number", u.Order.PONumber), zap.Error(err))
			continue
		}
		switch u.Action {
		case ActionCreate:
			result.Created()
		case ActionUpdate:
			result.Updated()
		default:
			result.Unchanged()
		}
	}

	for _, po := range plan.Restores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.orderRepo.SaveVisibility(ctx, po); err != nil {
			failed[po] = true
			result.Note(0, "po_number", csvimport.ErrCodePersistFailure, po.PONumber, "failed to restore: "+err.Error())
			s.logger.Error("Failed to restore purchase order", zap.String("po_number", po.PONumber), zap.Error(err))
			continue
		}
		result.RestoredCount++
	}
	for _, po := range plan.Hides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.orderRepo.SaveVisibility(ctx, po); err != nil {
			failed[po] = true
			result.Note(0, "po_number", csvimport.ErrCodePersistFailure, po.PONumber, "failed to hide: "+err.Error())
			s.logger.Error("Failed to hide purchase order", zap.String("po_number", po.PONumber), zap.Error(err))
			continue
		}
		result.HiddenCount++
	}

	s.publishEvents(ctx, plan, failed)
	return result, nil
}

func (s *PurchaseOrderImportService) applyUpsert(ctx context.Context, u PlannedUpsert) error {
	if u.Action == ActionCreate {
		if err := s.orderRepo.Create(ctx, u.Order); err != nil {
			return fmt.Errorf("failed to create %s: %w", u.Order.PONumber, err)
		}
		return nil
	}
	if err := s.orderRepo.SaveSystemFields(ctx, u.Order); err != nil {
		return fmt.Errorf("failed to update %s: %w", u.Order.PONumber, err)
	}
	return nil
}

// publishEvents publishes the pending events of every order in the plan
// that was written. Failures are logged; the writes are already done.
func (s *PurchaseOrderImportService) publishEvents(ctx context.Context, plan *ReconcilePlan, failed map[*purchasing.PurchaseOrder]bool) {
	var events []shared.DomainEvent
	collect := func(po *purchasing.PurchaseOrder) {
		if !failed[po] {
			events = append(events, po.GetDomainEvents()...)
		}
		po.ClearDomainEvents()
	}
	for _, u := range plan.Upserts {
		collect(u.Order)
	}
	for _, po := range plan.Restores {
		collect(po)
	}
	for _, po := range plan.Hides {
		collect(po)
	}
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}
