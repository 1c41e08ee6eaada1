package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func TestGormPurchaseOrderRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()

	po := newTestPO(t, "PO10001", "121 CROOKHAM CO")
	require.NoError(t, repo.Create(ctx, po))

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, "PO10001", found.PONumber)
		assert.Equal(t, "121 CROOKHAM CO", found.System.Vendor)
		assert.True(t, decimal.RequireFromString("1234.56").Equal(found.System.Amount))
		assert.Equal(t, "", found.Local.Status)
		assert.Empty(t, found.Local.Attachments)
		assert.True(t, found.CreatedAt.Equal(baseTime))
	})

	t.Run("finds by PO number", func(t *testing.T) {
		found, err := repo.FindByPONumber(ctx, "PO10001")
		require.NoError(t, err)
		assert.Equal(t, po.ID, found.ID)
	})

	t.Run("missing order is not found", func(t *testing.T) {
		_, err := repo.FindByPONumber(ctx, "PO99999")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate PO number is rejected", func(t *testing.T) {
		dup := newTestPO(t, "PO10001", "Someone Else")
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGormPurchaseOrderRepository_ColumnScopedSaves(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()

	po := newTestPO(t, "PO10001", "121 CROOKHAM CO")
	require.NoError(t, repo.Create(ctx, po))

	// a user edits local fields through one copy
	userCopy, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	userCopy.Local.Status = "Waiting on vendor"
	userCopy.Local.Notes = "called Tuesday"
	userCopy.Local.Attachments = []purchasing.Attachment{{Name: "quote.pdf", Key: "a/quote.pdf", UploadedAt: baseTime}}
	userCopy.Touch(baseTime.Add(time.Minute))
	require.NoError(t, repo.SaveLocalFields(ctx, userCopy))

	// an import holding a stale copy writes system fields
	po.ApplySystemFields(purchasing.SystemFields{
		Vendor:   "121 CROOKHAM CO",
		NSStatus: "Fully Billed",
		Amount:   decimal.RequireFromString("99.10"),
		Location: "Annex",
	}, baseTime.Add(2*time.Minute))
	require.NoError(t, repo.SaveSystemFields(ctx, po))

	found, err := repo.FindByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fully Billed", found.System.NSStatus)
	assert.Equal(t, "Annex", found.System.Location)
	assert.Equal(t, "Waiting on vendor", found.Local.Status)
	assert.Equal(t, "called Tuesday", found.Local.Notes)
	require.Len(t, found.Local.Attachments, 1)
	assert.Equal(t, "quote.pdf", found.Local.Attachments[0].Name)
	assert.True(t, found.UpdatedAt.Equal(baseTime.Add(2*time.Minute)))

	t.Run("visibility save leaves other groups alone", func(t *testing.T) {
		_, err := found.Hide(purchasing.HiddenReasonNotInImport, "ERP Import", baseTime.Add(3*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.SaveVisibility(ctx, found))

		hidden, err := repo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		assert.True(t, hidden.Visibility.IsHidden)
		assert.Equal(t, purchasing.HiddenReasonNotInImport, hidden.Visibility.HiddenReason)
		assert.Equal(t, "ERP Import", hidden.Visibility.HiddenBy)
		assert.Equal(t, "Waiting on vendor", hidden.Local.Status)
	})

	t.Run("saving an unknown order is not found", func(t *testing.T) {
		ghost := newTestPO(t, "PO55555", "Ghost")
		assert.ErrorIs(t, repo.SaveSystemFields(ctx, ghost), shared.ErrNotFound)
	})
}

func TestGormPurchaseOrderRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()

	for i, spec := range []struct {
		number, vendor, nsStatus, orderDate string
		hidden                              bool
	}{
		{"PO10001", "Acme Supply", "Pending Receipt", "09/01/2025", false},
		{"PO10002", "Beta Tools", "Pending Receipt", "09/05/2025", false},
		{"PO10003", "Acme Supply", "Fully Billed", "08/15/2025", false},
		{"PO10004", "Gamma Parts", "Closed", "07/01/2025", true},
	} {
		po := newTestPO(t, spec.number, spec.vendor)
		po.System.NSStatus = spec.nsStatus
		po.System.OrderDate = spec.orderDate
		po.System.OrderedAt = purchasing.ParseOrderDate(spec.orderDate)
		if i == 0 {
			po.Local.Status = "Expedite"
		}
		if spec.hidden {
			_, err := po.Hide(purchasing.HiddenReasonCompleted, "jane", baseTime)
			require.NoError(t, err)
		}
		require.NoError(t, repo.Create(ctx, po))
	}

	visible := false
	hidden := true
	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   purchasing.PurchaseOrderFilter
		expected []string
		total    int64
	}{
		{
			name:     "all orders sorted by order date",
			filter:   purchasing.PurchaseOrderFilter{Filter: shared.Filter{OrderBy: "ordered_at", OrderDir: "asc"}},
			expected: []string{"PO10004", "PO10003", "PO10001", "PO10002"},
			total:    4,
		},
		{
			name:     "visible only",
			filter:   purchasing.PurchaseOrderFilter{Filter: shared.Filter{OrderBy: "po_number", OrderDir: "asc"}, Hidden: &visible},
			expected: []string{"PO10001", "PO10002", "PO10003"},
			total:    3,
		},
		{
			name:     "hidden only",
			filter:   purchasing.PurchaseOrderFilter{Hidden: &hidden},
			expected: []string{"PO10004"},
			total:    1,
		},
		{
			name:     "by ERP status",
			filter:   purchasing.PurchaseOrderFilter{Filter: shared.Filter{OrderBy: "po_number", OrderDir: "asc"}, NSStatus: "Pending Receipt"},
			expected: []string{"PO10001", "PO10002"},
			total:    2,
		},
		{
			name:     "by custom status",
			filter:   purchasing.PurchaseOrderFilter{Status: "Expedite"},
			expected: []string{"PO10001"},
			total:    1,
		},
		{
			name:     "by order date range",
			filter:   purchasing.PurchaseOrderFilter{Filter: shared.Filter{OrderBy: "po_number", OrderDir: "asc"}, OrderedFrom: &from},
			expected: []string{"PO10001", "PO10002"},
			total:    2,
		},
		{
			name:     "search matches vendor case-insensitively",
			filter:   purchasing.PurchaseOrderFilter{Filter: shared.Filter{Search: "acme", OrderBy: "po_number", OrderDir: "asc"}},
			expected: []string{"PO10001", "PO10003"},
			total:    2,
		},
		{
			name:     "pagination keeps the total",
			filter:   purchasing.PurchaseOrderFilter{Filter: shared.Filter{Page: 2, PageSize: 3, OrderBy: "po_number", OrderDir: "asc"}},
			expected: []string{"PO10004"},
			total:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, total, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			numbers := make([]string, len(orders))
			for i, o := range orders {
				numbers[i] = o.PONumber
			}
			assert.Equal(t, tt.expected, numbers)
		})
	}

	t.Run("snapshot includes hidden orders", func(t *testing.T) {
		all, err := repo.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})
}

func newMockPurchaseOrderRepository(t *testing.T) (*GormPurchaseOrderRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), nil)
	require.NoError(t, err)

	return NewGormPurchaseOrderRepository(gormDB), mock, mockDB
}

func TestGormPurchaseOrderRepository_SaveSystemFieldsSQL(t *testing.T) {
	t.Run("import update never names local columns", func(t *testing.T) {
		repo, mock, mockDB := newMockPurchaseOrderRepository(t)
		defer mockDB.Close()

		po := newTestPO(t, "PO10001", "121 CROOKHAM CO")
		po.Local.Status = "must not be written"

		mock.ExpectExec(`^UPDATE "purchase_orders" SET "updated_at"=\$1,"vendor"=\$2,"ns_status"=\$3,"amount"=\$4,"location"=\$5,"report_date"=\$6,"order_date"=\$7,"ordered_at"=\$8 WHERE id = \$9$`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveSystemFields(context.Background(), po))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected is not found", func(t *testing.T) {
		repo, mock, mockDB := newMockPurchaseOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "purchase_orders" SET "updated_at"=\$1,"is_hidden"=\$2`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveVisibility(context.Background(), newTestPO(t, "PO10001", "x"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
