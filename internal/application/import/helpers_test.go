package importapp_test

import (
	"context"
	"strings"
	"testing"
	"time"

	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/infrastructure/cache"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"github.com/erp/posync/internal/infrastructure/persistence"
	"github.com/erp/posync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
)

type fixture struct {
	orders    *persistence.GormPurchaseOrderRepository
	items     *persistence.GormLineItemRepository
	histories *persistence.GormImportHistoryRepository
	lock      *cache.InMemoryImportLock
	poImport  *importapp.PurchaseOrderImportService
	liImport  *importapp.LineItemImportService
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
		orders:    persistence.NewGormPurchaseOrderRepository(db),
		items:     persistence.NewGormLineItemRepository(db),
		histories: persistence.NewGormImportHistoryRepository(db),
		lock:      cache.NewInMemoryImportLock(),
	}
	opts := importapp.DefaultImportOptions()
	f.poImport = importapp.NewPurchaseOrderImportService(f.orders, f.histories, f.lock, csvimport.DefaultPOLayout(), opts, logger)
	f.liImport = importapp.NewLineItemImportService(f.orders, f.items, f.histories, f.lock, csvimport.DefaultLineItemLayout(), opts, logger)
	return f
}

// poExport builds a purchase order export with the standard eight-line
// header block and a Total sentinel.
func poExport(rows ...string) string {
	var sb strings.Builder
	sb.WriteString("Purchase Order Report\n")
	sb.WriteString("ACME Corp\n")
	sb.WriteString("\n")
	sb.WriteString("September 2 2025\n")
	sb.WriteString("\n\n\n")
	sb.WriteString("Date,Order Date,PO Number,Vendor,Status,Amount,Location\n")
	for _, r := range rows {
		sb.WriteString(r + "\n")
	}
	sb.WriteString("Total,,,,,\"$99,999.99\",\n")
	sb.WriteString("Generated by ERP\n")
	return sb.String()
}

// lineItemExport builds a line item export with a single header line.
func lineItemExport(rows ...string) string {
	var sb strings.Builder
	sb.WriteString("Type,Date,Ref,Document,Name,Class,Dept,Site,Account,Memo,Qty\n")
	for _, r := range rows {
		sb.WriteString(r + "\n")
	}
	sb.WriteString("Total,,,,,,,,,,\n")
	return sb.String()
}

func upload(name, content string) importapp.ImportRequest {
	return importapp.ImportRequest{
		FileName:   name,
		Size:       int64(len(content)),
		Source:     bulk.ImportSourceUpload,
		ImportedBy: "jane",
		Content:    strings.NewReader(content),
	}
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, entity bulk.ImportEntityType, historyID uuid.UUID, at time.Time, data []byte) (string, error) {
	args := m.Called(ctx, entity, historyID, at, data)
	return args.String(0), args.Error(1)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordBatch(ctx context.Context, entity, source, status string, r *csvimport.BatchResult) {
	m.Called(ctx, entity, source, status, r)
}
