package persistence

import (
	"context"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormImportHistoryRepository keeps import batches in import_histories
type GormImportHistoryRepository struct {
	db *gorm.DB
}

func NewGormImportHistoryRepository(db *gorm.DB) *GormImportHistoryRepository {
	return &GormImportHistoryRepository{db: db}
}

func (r *GormImportHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportHistory, error) {
	return r.first(ctx, r.db.Where("id = ?", id))
}

// FindLatest orders by completion time so a long batch that started first
// but finished last still wins.
func (r *GormImportHistoryRepository) FindLatest(ctx context.Context, entityType bulk.ImportEntityType) (*bulk.ImportHistory, error) {
	return r.first(ctx, r.db.
		Where("entity_type = ? AND status = ?", entityType, bulk.ImportStatusCompleted).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "completed_at"}, Desc: true}))
}

func (r *GormImportHistoryRepository) first(ctx context.Context, scope *gorm.DB) (*bulk.ImportHistory, error) {
	var m models.ImportHistoryModel
	if err := scope.WithContext(ctx).Take(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindAll lists batches newest first, ties broken by ID for stable paging
func (r *GormImportHistoryRepository) FindAll(ctx context.Context, filter bulk.ImportHistoryFilter) ([]*bulk.ImportHistory, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ImportHistoryModel{}).Scopes(historyMatches(filter))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ImportHistoryModel
	if err := query.Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*bulk.ImportHistory, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

func (r *GormImportHistoryRepository) Save(ctx context.Context, history *bulk.ImportHistory) error {
	return translateError(r.db.WithContext(ctx).Save(models.ImportHistoryModelFromDomain(history)).Error)
}

func historyMatches(f bulk.ImportHistoryFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.EntityType != nil {
			q = q.Where("entity_type = ?", *f.EntityType)
		}
		if f.Status != nil {
			q = q.Where("status = ?", *f.Status)
		}
		if f.ImportedBy != "" {
			q = q.Where("imported_by = ?", f.ImportedBy)
		}
		if f.StartedFrom != nil {
			q = q.Where("started_at >= ?", *f.StartedFrom)
		}
		if f.StartedTo != nil {
			q = q.Where("started_at <= ?", *f.StartedTo)
		}
		return q
	}
}

var _ bulk.ImportHistoryRepository = (*GormImportHistoryRepository)(nil)
