package importapp

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportHistoryService reads back the record of past import batches
type ImportHistoryService struct {
	historyRepo bulk.ImportHistoryRepository
}

// NewImportHistoryService creates a new ImportHistoryService
func NewImportHistoryService(historyRepo bulk.ImportHistoryRepository) *ImportHistoryService {
	return &ImportHistoryService{
		historyRepo: historyRepo,
	}
}

// ImportHistoryResponse is the API view of one batch
type ImportHistoryResponse struct {
	ID            uuid.UUID                `json:"id"`
	EntityType    string                   `json:"entity_type"`
	Source        string                   `json:"source"`
	FileName      string                   `json:"file_name"`
	FileSize      int64                    `json:"file_size"`
	ReportDate    string                   `json:"report_date,omitempty"`
	Status        string                   `json:"status"`
	FailureReason string                   `json:"failure_reason,omitempty"`
	TotalRows     int                      `json:"total_rows"`
	CreatedRows   int                      `json:"created_rows"`
	UpdatedRows   int                      `json:"updated_rows"`
	UnchangedRows int                      `json:"unchanged_rows"`
	SkippedRows   int                      `json:"skipped_rows"`
	ErrorRows     int                      `json:"error_rows"`
	HiddenCount   int                      `json:"hidden_count"`
	RestoredCount int                      `json:"restored_count"`
	SkipReasons   map[string]int           `json:"skip_reasons"`
	ErrorDetails  []bulk.ImportErrorDetail `json:"error_details,omitempty"`
	ArchiveKey    string                   `json:"archive_key,omitempty"`
	ImportedBy    string                   `json:"imported_by"`
	StartedAt     *time.Time               `json:"started_at,omitempty"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
	DurationMs    int64                    `json:"duration_ms"`
	CreatedAt     time.Time                `json:"created_at"`
}

// ToImportHistoryResponse converts the domain record
func ToImportHistoryResponse(h *bulk.ImportHistory) ImportHistoryResponse {
	return ImportHistoryResponse{
		ID:            h.ID,
		EntityType:    string(h.EntityType),
		Source:        string(h.Source),
		FileName:      h.FileName,
		FileSize:      h.FileSize,
		ReportDate:    h.ReportDate,
		Status:        string(h.Status),
		FailureReason: h.FailureReason,
		TotalRows:     h.TotalRows,
		CreatedRows:   h.CreatedRows,
		UpdatedRows:   h.UpdatedRows,
		UnchangedRows: h.UnchangedRows,
		SkippedRows:   h.SkippedRows,
		ErrorRows:     h.ErrorRows,
		HiddenCount:   h.HiddenCount,
		RestoredCount: h.RestoredCount,
		SkipReasons:   h.SkipReasons,
		ErrorDetails:  h.ErrorDetails,
		ArchiveKey:    h.ArchiveKey,
		ImportedBy:    h.ImportedBy,
		StartedAt:     h.StartedAt,
		CompletedAt:   h.CompletedAt,
		DurationMs:    h.Duration().Milliseconds(),
		CreatedAt:     h.CreatedAt,
	}
}

// GetHistory retrieves a specific import history by ID
func (s *ImportHistoryService) GetHistory(ctx context.Context, historyID uuid.UUID) (*ImportHistoryResponse, error) {
	h, err := s.historyRepo.FindByID(ctx, historyID)
	if err != nil {
		return nil, err
	}
	resp := ToImportHistoryResponse(h)
	return &resp, nil
}

// LatestCompleted returns the most recent completed batch of a kind
func (s *ImportHistoryService) LatestCompleted(ctx context.Context, entityType bulk.ImportEntityType) (*ImportHistoryResponse, error) {
	h, err := s.historyRepo.FindLatest(ctx, entityType)
	if err != nil {
		return nil, err
	}
	resp := ToImportHistoryResponse(h)
	return &resp, nil
}

// ListHistoryFilter defines the filter options for listing import histories
type ListHistoryFilter struct {
	EntityType  string
	Status      string
	ImportedBy  string
	StartedFrom *time.Time
	StartedTo   *time.Time
}

// ListHistory retrieves import history newest first. Unknown entity types
// and statuses are ignored rather than rejected.
func (s *ImportHistoryService) ListHistory(
	ctx context.Context,
	filter ListHistoryFilter,
	page, pageSize int,
) (shared.Paginated[ImportHistoryResponse], error) {
	repoFilter := bulk.ImportHistoryFilter{
		Filter:      shared.Filter{Page: page, PageSize: pageSize},
		ImportedBy:  filter.ImportedBy,
		StartedFrom: filter.StartedFrom,
		StartedTo:   filter.StartedTo,
	}
	if filter.EntityType != "" {
		entityType := bulk.ImportEntityType(filter.EntityType)
		if entityType.IsValid() {
			repoFilter.EntityType = &entityType
		}
	}
	if filter.Status != "" {
		status := bulk.ImportStatus(filter.Status)
		if status.IsValid() {
			repoFilter.Status = &status
		}
	}

	histories, total, err := s.historyRepo.FindAll(ctx, repoFilter)
	if err != nil {
		return shared.Paginated[ImportHistoryResponse]{}, err
	}
	items := make([]ImportHistoryResponse, len(histories))
	for i, h := range histories {
		items[i] = ToImportHistoryResponse(h)
	}
	return shared.NewPaginated(items, total, page, pageSize), nil
}

// GetErrorsCSV renders the row diagnostics of a batch as a CSV download.
// It returns the content and a file name.
func (s *ImportHistoryService) GetErrorsCSV(ctx context.Context, historyID uuid.UUID) (string, string, error) {
	h, err := s.historyRepo.FindByID(ctx, historyID)
	if err != nil {
		return "", "", err
	}
	if len(h.ErrorDetails) == 0 {
		return "", "", shared.NewDomainError("NO_ERRORS", "Import has no row diagnostics to export")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Row", "Column", "Code", "Message", "Value"})
	for _, e := range h.ErrorDetails {
		_ = w.Write([]string{strconv.Itoa(e.Row), e.Column, e.Code, e.Message, e.Value})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", "", fmt.Errorf("failed to render errors: %w", err)
	}

	fileName := fmt.Sprintf("import_errors_%s_%s.csv", h.EntityType, h.ID.String()[:8])
	return buf.String(), fileName, nil
}
