package persistence

import (
	"context"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLineItemRepository implements LineItemRepository using GORM
type GormLineItemRepository struct {
	db *gorm.DB
}

// NewGormLineItemRepository creates a new GormLineItemRepository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{db: db}
}

// FindByID finds a line item by ID
func (r *GormLineItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.LineItem, error) {
	var model models.LineItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByPurchaseOrder returns the items of one order in import order
func (r *GormLineItemRepository) FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]purchasing.LineItem, error) {
	var itemModels []models.LineItemModel
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", poID).
		Order("created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]purchasing.LineItem, len(itemModels))
	for i := range itemModels {
		items[i] = *itemModels[i].ToDomain()
	}
	return items, nil
}

// Exists reports whether an item with the same dedup key is stored
func (r *GormLineItemRepository) Exists(ctx context.Context, key purchasing.LineItemKey) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LineItemModel{}).
		Where("purchase_order_id = ? AND po_number = ? AND memo = ? AND date = ?",
			key.PurchaseOrderID, key.PONumber, key.Memo, key.Date).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new line item
func (r *GormLineItemRepository) Create(ctx context.Context, item *purchasing.LineItem) error {
	model := models.LineItemModelFromDomain(item)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// SaveReceipt writes the received flag and date
func (r *GormLineItemRepository) SaveReceipt(ctx context.Context, item *purchasing.LineItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.LineItemModel{}).
		Where("id = ?", item.ID).
		Select("received", "received_date", "updated_at").
		Updates(models.LineItemModelFromDomain(item))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLineItemRepository implements LineItemRepository
var _ purchasing.LineItemRepository = (*GormLineItemRepository)(nil)
