package event

import (
	"context"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes purchase order lifecycle events to the log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the purchase order events
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		purchasing.EventTypePurchaseOrderCreated,
		purchasing.EventTypePurchaseOrderHidden,
		purchasing.EventTypePurchaseOrderUnhidden,
	}
}

// Handle logs one event
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("order_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	switch e := event.(type) {
	case *purchasing.PurchaseOrderCreatedEvent:
		fields = append(fields, zap.String("po_number", e.PONumber), zap.String("vendor", e.Vendor))
	case *purchasing.PurchaseOrderHiddenEvent:
		fields = append(fields, zap.String("po_number", e.PONumber),
			zap.String("reason", string(e.Reason)), zap.String("by", e.HiddenBy))
	case *purchasing.PurchaseOrderUnhiddenEvent:
		fields = append(fields, zap.String("po_number", e.PONumber),
			zap.String("previous_reason", string(e.PreviousReason)), zap.String("by", e.RestoredBy))
	}
	h.logger.Info("purchase order event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
