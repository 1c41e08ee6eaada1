package purchasingapp_test

import (
	"context"
	"testing"
	"time"

	purchasingapp "github.com/erp/posync/internal/application/purchasing"
	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/persistence"
	"github.com/erp/posync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

type fixture struct {
	orders   *persistence.GormPurchaseOrderRepository
	items    *persistence.GormLineItemRepository
	notes    *persistence.GormNoteRepository
	service  *purchasingapp.PurchaseOrderService
	timeline *purchasingapp.NoteTimelineService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := persistence.Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zaptest.NewLogger(t)
	f := &fixture{
		orders: persistence.NewGormPurchaseOrderRepository(db),
		items:  persistence.NewGormLineItemRepository(db),
		notes:  persistence.NewGormNoteRepository(db),
	}
	scope := persistence.NewGormTransactionScope(db)
	f.service = purchasingapp.NewPurchaseOrderService(f.orders, f.items, scope, purchasingapp.NewChangeTracker(logger), logger)
	f.timeline = purchasingapp.NewNoteTimelineService(f.orders, f.notes, scope, logger)
	return f
}

func (f *fixture) seedPO(t *testing.T, poNumber string) *purchasing.PurchaseOrder {
	t.Helper()
	po, err := purchasing.NewPurchaseOrder(poNumber, purchasing.SystemFields{
		Vendor:   "121 CROOKHAM CO",
		NSStatus: "Pending Receipt",
		Amount:   decimal.RequireFromString("1234.56"),
		Location: "Main Warehouse",
	}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.orders.Create(context.Background(), po))
	return po
}

func strPtr(s string) *string { return &s }

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func TestPurchaseOrderService_UpdateLocalFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.seedPO(t, "PO10001")

	resp, err := f.service.UpdateLocalFields(ctx, po.ID, "jane", purchasingapp.UpdateLocalFieldsRequest{
		Status:         strPtr("Expedite"),
		ETA:            strPtr("2025-09-10"),
		TrackingNumber: strPtr("1Z999"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Expedite", resp.Status)
	assert.Equal(t, "1Z999", resp.TrackingNumber)
	require.NotNil(t, resp.ETA)

	notes, err := f.timeline.List(ctx, po.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	// newest first: the last change in field order is on top
	assert.Contains(t, notes[0].Content, "jane changed Tracking Number from None to 1Z999")
	assert.Contains(t, notes[1].Content, "jane changed ETA from None to Sep 10, 2025")
	assert.Contains(t, notes[2].Content, "jane changed Status from None to Expedite")
	assert.Equal(t, notes[0].Content, resp.Notes)

	t.Run("repeating the update is a no-op", func(t *testing.T) {
		before, err := f.orders.FindByID(ctx, po.ID)
		require.NoError(t, err)

		again, err := f.service.UpdateLocalFields(ctx, po.ID, "jane", purchasingapp.UpdateLocalFieldsRequest{
			Status: strPtr("  Expedite "),
			ETA:    strPtr("2025-09-10T00:00:00Z"),
		})
		require.NoError(t, err)
		assert.True(t, before.UpdatedAt.Equal(again.UpdatedAt))

		notes, err := f.timeline.List(ctx, po.ID)
		require.NoError(t, err)
		assert.Len(t, notes, 3)
	})

	t.Run("clearing the ETA is tracked", func(t *testing.T) {
		_, err := f.service.UpdateLocalFields(ctx, po.ID, "", purchasingapp.UpdateLocalFieldsRequest{ETA: strPtr("")})
		require.NoError(t, err)

		found, err := f.orders.FindByID(ctx, po.ID)
		require.NoError(t, err)
		assert.Nil(t, found.Local.ETA)
		assert.Contains(t, found.Local.Notes, "System changed ETA from Sep 10, 2025 to None")
	})

	t.Run("system fields are untouched", func(t *testing.T) {
		found, err := f.orders.FindByID(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, "Pending Receipt", found.System.NSStatus)
	})

	t.Run("bad date is rejected", func(t *testing.T) {
		_, err := f.service.UpdateLocalFields(ctx, po.ID, "jane", purchasingapp.UpdateLocalFieldsRequest{ETA: strPtr("next week")})
		assert.Equal(t, "INVALID_DATE", shared.CodeOf(err))
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.service.UpdateLocalFields(ctx, uuid.New(), "jane", purchasingapp.UpdateLocalFieldsRequest{Status: strPtr("x")})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPurchaseOrderService_HideUnhide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.seedPO(t, "PO10001")

	item, err := purchasing.NewLineItem(po, "1250-100", "Widgets", "09/03/2025", decimal.NewFromInt(2), time.Now())
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, item))

	publisher := new(mockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.service.SetEventPublisher(publisher)

	hidden, err := f.service.Hide(ctx, po.ID, "jane", "")
	require.NoError(t, err)
	assert.True(t, hidden.IsHidden)
	assert.Equal(t, string(purchasing.HiddenReasonManual), hidden.HiddenReason)
	assert.Equal(t, "jane", hidden.HiddenBy)
	assert.Contains(t, hidden.Notes, "jane changed Hidden Reason from None to Manually hidden")

	t.Run("hidden orders keep line items and notes", func(t *testing.T) {
		items, err := f.service.ListLineItems(ctx, po.ID)
		require.NoError(t, err)
		assert.Len(t, items, 1)

		notes, err := f.timeline.List(ctx, po.ID)
		require.NoError(t, err)
		assert.Len(t, notes, 2)
	})

	t.Run("hiding twice is an invalid state", func(t *testing.T) {
		_, err := f.service.Hide(ctx, po.ID, "jane", purchasing.HiddenReasonCompleted)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown reason is rejected", func(t *testing.T) {
		other := f.seedPO(t, "PO10002")
		_, err := f.service.Hide(ctx, other.ID, "jane", "lost")
		assert.Equal(t, "INVALID_HIDDEN_REASON", shared.CodeOf(err))
	})

	t.Run("unhide by PO number restores", func(t *testing.T) {
		restored, err := f.service.UnhideByPONumber(ctx, " PO10001 ", "bob")
		require.NoError(t, err)
		assert.False(t, restored.IsHidden)
		assert.Empty(t, restored.HiddenReason)
		assert.Contains(t, restored.Notes, "bob changed Hidden Reason from Manually hidden to None")
	})

	t.Run("unhiding a visible order is an invalid state", func(t *testing.T) {
		_, err := f.service.Unhide(ctx, po.ID, "bob")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestPurchaseOrderService_MarkLineItemReceived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.seedPO(t, "PO10001")

	item, err := purchasing.NewLineItem(po, "1250-100", "Widgets", "09/03/2025", decimal.NewFromInt(2), time.Now())
	require.NoError(t, err)
	require.NoError(t, f.items.Create(ctx, item))

	resp, err := f.service.MarkLineItemReceived(ctx, item.ID, "dock", true)
	require.NoError(t, err)
	assert.True(t, resp.Received)
	require.NotNil(t, resp.ReceivedDate)

	found, err := f.orders.FindByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Contains(t, found.Local.Notes, `dock changed Received (line item "Widgets") from No to Yes`)

	t.Run("receiving again writes nothing", func(t *testing.T) {
		_, err := f.service.MarkLineItemReceived(ctx, item.ID, "dock", true)
		require.NoError(t, err)

		notes, err := f.timeline.List(ctx, po.ID)
		require.NoError(t, err)
		assert.Len(t, notes, 1)
	})

	t.Run("unknown line item", func(t *testing.T) {
		_, err := f.service.MarkLineItemReceived(ctx, uuid.New(), "dock", true)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestPurchaseOrderService_Reads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.seedPO(t, "PO10001")
	f.seedPO(t, "PO10002")

	byNumber, err := f.service.GetByPONumber(ctx, "PO10001")
	require.NoError(t, err)
	assert.Equal(t, po.ID, byNumber.ID)
	assert.Equal(t, "", byNumber.Status)
	assert.NotNil(t, byNumber.Attachments)

	_, err = f.service.GetByPONumber(ctx, "PO 10001")
	assert.Equal(t, "INVALID_PO_NUMBER", shared.CodeOf(err))

	query := purchasingapp.ListPurchaseOrdersQuery{PageSize: 1, OrderBy: "po_number", OrderDir: "asc"}
	filter, err := query.ToFilter()
	require.NoError(t, err)
	page, err := f.service.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "PO10001", page.Items[0].PONumber)
}
