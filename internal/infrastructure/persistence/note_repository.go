package persistence

import (
	"context"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNoteRepository implements NoteRepository using GORM
type GormNoteRepository struct {
	db *gorm.DB
}

// NewGormNoteRepository creates a new GormNoteRepository
func NewGormNoteRepository(db *gorm.DB) *GormNoteRepository {
	return &GormNoteRepository{db: db}
}

// Append inserts a note
func (r *GormNoteRepository) Append(ctx context.Context, note *purchasing.Note) error {
	return translateError(r.db.WithContext(ctx).Create(models.NoteModelFromDomain(note)).Error)
}

// FindByID finds a note by ID
func (r *GormNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.Note, error) {
	var model models.NoteModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByPurchaseOrder returns the timeline of one order, newest first
func (r *GormNoteRepository) FindByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]purchasing.Note, error) {
	var noteModels []models.NoteModel
	if err := r.newestFirst(r.db.WithContext(ctx).Where("purchase_order_id = ?", poID)).
		Find(&noteModels).Error; err != nil {
		return nil, err
	}
	notes := make([]purchasing.Note, len(noteModels))
	for i := range noteModels {
		notes[i] = *noteModels[i].ToDomain()
	}
	return notes, nil
}

// Latest returns the newest note of one order
func (r *GormNoteRepository) Latest(ctx context.Context, poID uuid.UUID) (*purchasing.Note, error) {
	var model models.NoteModel
	if err := r.newestFirst(r.db.WithContext(ctx).Where("purchase_order_id = ?", poID)).
		Take(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Delete removes a note
func (r *GormNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.NoteModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormNoteRepository) newestFirst(query *gorm.DB) *gorm.DB {
	return query.Order("created_at DESC").Order("id DESC")
}

// Ensure GormNoteRepository implements NoteRepository
var _ purchasing.NoteRepository = (*GormNoteRepository)(nil)
