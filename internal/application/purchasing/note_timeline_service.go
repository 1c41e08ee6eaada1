package purchasingapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoteTimelineService manages the append-only note timeline of purchase
// orders and keeps each order's notes projection in sync with it.
type NoteTimelineService struct {
	orderRepo purchasing.PurchaseOrderRepository
	noteRepo  purchasing.NoteRepository
	txScope   TransactionScope
	logger    *zap.Logger
	now       func() time.Time
}

// NewNoteTimelineService creates a new NoteTimelineService
func NewNoteTimelineService(
	orderRepo purchasing.PurchaseOrderRepository,
	noteRepo purchasing.NoteRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *NoteTimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteTimelineService{
		orderRepo: orderRepo,
		noteRepo:  noteRepo,
		txScope:   txScope,
		logger:    logger,
		now:       time.Now,
	}
}

// Append adds a free-form note and makes it the order's current notes.
func (s *NoteTimelineService) Append(ctx context.Context, poID uuid.UUID, actor, content string) (*NoteResponse, error) {
	var created *purchasing.Note
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.PurchaseOrderRepo().FindByID(ctx, poID)
		if err != nil {
			return err
		}
		at := s.now()
		note, err := purchasing.NewNote(po, actor, content, at)
		if err != nil {
			return err
		}
		if err := repos.NoteRepo().Append(ctx, note); err != nil {
			return fmt.Errorf("failed to append note: %w", err)
		}
		po.Local.Notes = note.Content
		po.Touch(at)
		if err := repos.PurchaseOrderRepo().SaveLocalFields(ctx, po); err != nil {
			return fmt.Errorf("failed to save purchase order: %w", err)
		}
		created = note
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Note appended",
		zap.String("po_number", created.PONumber),
		zap.String("note_id", created.ID.String()),
		zap.String("actor", actor))
	resp := ToNoteResponse(created)
	return &resp, nil
}

// List returns the timeline of an order, newest first.
func (s *NoteTimelineService) List(ctx context.Context, poID uuid.UUID) ([]NoteResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, poID); err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.FindByPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	responses := make([]NoteResponse, len(notes))
	for i := range notes {
		responses[i] = ToNoteResponse(&notes[i])
	}
	return responses, nil
}

// Delete removes a note and re-derives the order's notes from the note that
// is now the newest, or clears them when none remain.
func (s *NoteTimelineService) Delete(ctx context.Context, noteID uuid.UUID) error {
	var poNumber string
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		note, err := repos.NoteRepo().FindByID(ctx, noteID)
		if err != nil {
			return err
		}
		if err := repos.NoteRepo().Delete(ctx, noteID); err != nil {
			return err
		}

		po, err := repos.PurchaseOrderRepo().FindByID(ctx, note.PurchaseOrderID)
		if err != nil {
			return err
		}
		poNumber = po.PONumber

		projection := ""
		latest, err := repos.NoteRepo().Latest(ctx, po.ID)
		switch {
		case err == nil:
			projection = latest.Content
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		if po.Local.Notes == projection {
			return nil
		}
		po.Local.Notes = projection
		po.Touch(s.now())
		return repos.PurchaseOrderRepo().SaveLocalFields(ctx, po)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Note deleted",
		zap.String("po_number", poNumber),
		zap.String("note_id", noteID.String()))
	return nil
}
