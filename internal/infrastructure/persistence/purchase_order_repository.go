package persistence

import (
	"context"
	"strings"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByPONumber finds a purchase order by its PO number
func (r *GormPurchaseOrderRepository) FindByPONumber(ctx context.Context, poNumber string) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).Where("po_number = ?", poNumber).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds purchase orders with filtering, search and pagination
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter purchasing.PurchaseOrderFilter) ([]purchasing.PurchaseOrder, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(purchaseOrderSort.orderBy(filter.OrderBy, filter.OrderDir, "ordered_at")).Order("po_number ASC")

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var poModels []models.PurchaseOrderModel
	if err := query.Find(&poModels).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]purchasing.PurchaseOrder, len(poModels))
	for i := range poModels {
		orders[i] = *poModels[i].ToDomain()
	}
	return orders, total, nil
}

func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter purchasing.PurchaseOrderFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where(
			"LOWER(po_number) LIKE ? OR LOWER(vendor) LIKE ? OR LOWER(tracking_number) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.NSStatus != "" {
		query = query.Where("ns_status = ?", filter.NSStatus)
	}
	if filter.OrderedFrom != nil {
		query = query.Where("ordered_at >= ?", *filter.OrderedFrom)
	}
	if filter.OrderedTo != nil {
		query = query.Where("ordered_at <= ?", *filter.OrderedTo)
	}
	if filter.Hidden != nil {
		query = query.Where("is_hidden = ?", *filter.Hidden)
	}
	return query
}

// Snapshot loads every purchase order, hidden or visible
func (r *GormPurchaseOrderRepository) Snapshot(ctx context.Context) ([]purchasing.PurchaseOrder, error) {
	var poModels []models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).Order("po_number ASC").Find(&poModels).Error; err != nil {
		return nil, err
	}
	orders := make([]purchasing.PurchaseOrder, len(poModels))
	for i := range poModels {
		orders[i] = *poModels[i].ToDomain()
	}
	return orders, nil
}

// Create inserts a new purchase order
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, po *purchasing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(po)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// SaveSystemFields writes the ERP-owned columns only
func (r *GormPurchaseOrderRepository) SaveSystemFields(ctx context.Context, po *purchasing.PurchaseOrder) error {
	return r.saveColumns(ctx, po, models.PurchaseOrderSystemColumns)
}

// SaveLocalFields writes the user-owned columns only
func (r *GormPurchaseOrderRepository) SaveLocalFields(ctx context.Context, po *purchasing.PurchaseOrder) error {
	return r.saveColumns(ctx, po, models.PurchaseOrderLocalColumns)
}

// SaveVisibility writes the hidden flag and its metadata only
func (r *GormPurchaseOrderRepository) SaveVisibility(ctx context.Context, po *purchasing.PurchaseOrder) error {
	return r.saveColumns(ctx, po, models.PurchaseOrderVisibilityColumns)
}

func (r *GormPurchaseOrderRepository) saveColumns(ctx context.Context, po *purchasing.PurchaseOrder, columns []string) error {
	model := models.PurchaseOrderModelFromDomain(po)
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ?", po.ID).
		Select(columns).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ purchasing.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
