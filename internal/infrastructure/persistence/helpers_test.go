package persistence

import (
	"testing"
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory sqlite database with every table migrated.
// The pool is pinned to one connection so the in-memory database survives.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

var baseTime = time.Date(2025, 9, 2, 15, 0, 0, 0, time.UTC)

func newTestPO(t *testing.T, poNumber, vendor string) *purchasing.PurchaseOrder {
	t.Helper()
	po, err := purchasing.NewPurchaseOrder(poNumber, purchasing.SystemFields{
		Vendor:     vendor,
		NSStatus:   "Pending Receipt",
		Amount:     decimal.RequireFromString("1234.56"),
		Location:   "Main Warehouse",
		ReportDate: "September 2, 2025",
		OrderDate:  "09/01/2025",
		OrderedAt:  purchasing.ParseOrderDate("09/01/2025"),
	}, baseTime)
	require.NoError(t, err)
	return po
}
