package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletedHistory(t *testing.T, entity bulk.ImportEntityType, at time.Time) *bulk.ImportHistory {
	t.Helper()
	h, err := bulk.NewImportHistory(entity, bulk.ImportSourceUpload, "export.csv", 2048, "jane", at)
	require.NoError(t, err)
	require.NoError(t, h.StartProcessing(at))
	require.NoError(t, h.Complete(bulk.ImportCounts{
		TotalRows:   3,
		CreatedRows: 2,
		SkippedRows: 1,
		SkipReasons: map[string]int{"invalid_amount": 1},
		ErrorDetails: []bulk.ImportErrorDetail{
			{Row: 10, Column: "amount", Code: "invalid_amount", Message: "cannot parse amount", Value: "abc"},
		},
	}, at.Add(time.Second)))
	return h
}

func TestGormImportHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormImportHistoryRepository(db)
	ctx := context.Background()

	older := newCompletedHistory(t, bulk.ImportEntityPurchaseOrders, baseTime)
	newer := newCompletedHistory(t, bulk.ImportEntityPurchaseOrders, baseTime.Add(time.Hour))
	lines := newCompletedHistory(t, bulk.ImportEntityLineItems, baseTime.Add(2*time.Hour))
	for _, h := range []*bulk.ImportHistory{older, newer, lines} {
		require.NoError(t, repo.Save(ctx, h))
	}

	t.Run("round trips counts and details", func(t *testing.T) {
		found, err := repo.FindByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, bulk.ImportStatusCompleted, found.Status)
		assert.Equal(t, 2, found.CreatedRows)
		assert.Equal(t, 1, found.SkipReasons["invalid_amount"])
		require.Len(t, found.ErrorDetails, 1)
		assert.Equal(t, "abc", found.ErrorDetails[0].Value)
	})

	t.Run("latest of a kind", func(t *testing.T) {
		found, err := repo.FindLatest(ctx, bulk.ImportEntityPurchaseOrders)
		require.NoError(t, err)
		assert.Equal(t, newer.ID, found.ID)
	})

	t.Run("filters and paginates newest first", func(t *testing.T) {
		entity := bulk.ImportEntityPurchaseOrders
		page, total, err := repo.FindAll(ctx, bulk.ImportHistoryFilter{
			Filter:     shared.Filter{Page: 1, PageSize: 1},
			EntityType: &entity,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, page, 1)
		assert.Equal(t, newer.ID, page[0].ID)

		all, total, err := repo.FindAll(ctx, bulk.ImportHistoryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, all, 3)
		assert.Equal(t, lines.ID, all[0].ID)

		by, _, err := repo.FindAll(ctx, bulk.ImportHistoryFilter{ImportedBy: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, by)
	})

	t.Run("save updates in place", func(t *testing.T) {
		older.SetArchiveKey("exports/purchase_orders/2025/09/02/x.csv")
		require.NoError(t, repo.Save(ctx, older))

		found, err := repo.FindByID(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, "exports/purchase_orders/2025/09/02/x.csv", found.ArchiveKey)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
