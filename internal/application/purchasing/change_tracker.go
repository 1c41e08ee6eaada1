package purchasingapp

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	"go.uber.org/zap"
)

// noteSpacing keeps notes written in one save strictly ordered by creation time.
const noteSpacing = time.Microsecond

// ChangeTracker turns field changes into timeline notes. Every user-driven
// mutation of a purchase order goes through Record.
type ChangeTracker struct {
	logger *zap.Logger
	loc    *time.Location
}

// NewChangeTracker creates a new ChangeTracker
func NewChangeTracker(logger *zap.Logger) *ChangeTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeTracker{logger: logger, loc: time.UTC}
}

// SetLocation sets the zone audit line timestamps are rendered in.
func (t *ChangeTracker) SetLocation(loc *time.Location) {
	if loc != nil {
		t.loc = loc
	}
}

// Record appends one note per change, in order, and refreshes the order's
// notes projection and local columns. With no changes it does nothing and
// leaves UpdatedAt alone.
func (t *ChangeTracker) Record(
	ctx context.Context,
	repos TransactionalRepositories,
	po *purchasing.PurchaseOrder,
	actor string,
	changes []purchasing.FieldChange,
	at time.Time,
) ([]purchasing.Note, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	notes := make([]purchasing.Note, 0, len(changes))
	for i, change := range changes {
		createdAt := at.Add(time.Duration(i) * noteSpacing)
		note, err := purchasing.NewNote(po, actor, change.AuditLine(at.In(t.loc), actor), createdAt)
		if err != nil {
			return nil, err
		}
		if err := repos.NoteRepo().Append(ctx, note); err != nil {
			return nil, fmt.Errorf("failed to append note: %w", err)
		}
		notes = append(notes, *note)
	}

	po.Local.Notes = notes[len(notes)-1].Content
	po.Touch(at)
	if err := repos.PurchaseOrderRepo().SaveLocalFields(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to save purchase order: %w", err)
	}

	t.logger.Debug("Recorded field changes",
		zap.String("po_number", po.PONumber),
		zap.String("actor", actor),
		zap.Int("changes", len(changes)))
	return notes, nil
}
