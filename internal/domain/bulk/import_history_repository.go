package bulk

import (
	"context"
	"time"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportHistoryFilter narrows a history listing. Nil pointers and empty
// strings match everything. Only the paging fields of Filter are used;
// listings are always newest first.
type ImportHistoryFilter struct {
	shared.Filter
	EntityType  *ImportEntityType
	Status      *ImportStatus
	ImportedBy  string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

// ImportHistoryRepository stores one record per import batch
type ImportHistoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ImportHistory, error)
	// FindAll returns one page of matching batches and the total match count
	FindAll(ctx context.Context, filter ImportHistoryFilter) ([]*ImportHistory, int64, error)
	// FindLatest returns the most recent completed batch of the given kind
	FindLatest(ctx context.Context, entityType ImportEntityType) (*ImportHistory, error)
	Save(ctx context.Context, history *ImportHistory) error
}
