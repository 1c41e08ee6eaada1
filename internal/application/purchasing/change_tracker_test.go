package purchasingapp

import (
	"context"
	"testing"
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockOrderRepo struct {
	mock.Mock
	purchasing.PurchaseOrderRepository
}

func (m *mockOrderRepo) SaveLocalFields(ctx context.Context, po *purchasing.PurchaseOrder) error {
	return m.Called(ctx, po).Error(0)
}

type mockNoteRepo struct {
	mock.Mock
	purchasing.NoteRepository
}

func (m *mockNoteRepo) Append(ctx context.Context, note *purchasing.Note) error {
	return m.Called(ctx, note).Error(0)
}

func TestChangeTracker_Record(t *testing.T) {
	at := time.Date(2025, 9, 2, 15, 4, 0, 0, time.UTC)
	newPO := func() *purchasing.PurchaseOrder {
		po, err := purchasing.NewPurchaseOrder("PO10001", purchasing.SystemFields{Vendor: "Acme"}, at.Add(-time.Hour))
		require.NoError(t, err)
		return po
	}

	t.Run("no changes writes nothing", func(t *testing.T) {
		orders, notes := new(mockOrderRepo), new(mockNoteRepo)
		po := newPO()
		before := po.UpdatedAt

		written, err := NewChangeTracker(zap.NewNop()).Record(context.Background(),
			NewNoOpTransactionScope(orders, nil, notes), po, "jane", nil, at)

		require.NoError(t, err)
		assert.Nil(t, written)
		assert.Equal(t, before, po.UpdatedAt)
		orders.AssertNotCalled(t, "SaveLocalFields", mock.Anything, mock.Anything)
		notes.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("one ordered note per change", func(t *testing.T) {
		orders, notes := new(mockOrderRepo), new(mockNoteRepo)
		notes.On("Append", mock.Anything, mock.Anything).Return(nil)
		orders.On("SaveLocalFields", mock.Anything, mock.Anything).Return(nil)
		po := newPO()

		changes := []purchasing.FieldChange{
			{Field: purchasing.FieldStatus, Old: "", New: "Expedite"},
			{Field: purchasing.FieldURL, Old: "", New: "https://vendor.example/po"},
		}
		written, err := NewChangeTracker(nil).Record(context.Background(),
			NewNoOpTransactionScope(orders, nil, notes), po, "jane", changes, at)

		require.NoError(t, err)
		require.Len(t, written, 2)
		assert.Equal(t, "[Sep 2, 2025 3:04 PM] jane changed Status from None to Expedite", written[0].Content)
		assert.True(t, written[1].CreatedAt.After(written[0].CreatedAt))
		assert.Equal(t, written[1].Content, po.Local.Notes)
		assert.Equal(t, at, po.UpdatedAt)
		notes.AssertNumberOfCalls(t, "Append", 2)
		orders.AssertNumberOfCalls(t, "SaveLocalFields", 1)
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		orders, notes := new(mockOrderRepo), new(mockNoteRepo)
		notes.On("Append", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)
		po := newPO()
		po.ID = uuid.New()

		_, err := NewChangeTracker(nil).Record(context.Background(),
			NewNoOpTransactionScope(orders, nil, notes), po, "jane",
			[]purchasing.FieldChange{{Field: purchasing.FieldStatus, Old: "", New: "x"}}, at)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		orders.AssertNotCalled(t, "SaveLocalFields", mock.Anything, mock.Anything)
	})
}
