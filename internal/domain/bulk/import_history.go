package bulk

import (
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/shared"
)

// ImportEntityType represents the kind of ERP export being imported
type ImportEntityType string

const (
	ImportEntityPurchaseOrders ImportEntityType = "purchase_orders"
	ImportEntityLineItems      ImportEntityType = "line_items"
)

// IsValid checks if the entity type is valid
func (e ImportEntityType) IsValid() bool {
	switch e {
	case ImportEntityPurchaseOrders, ImportEntityLineItems:
		return true
	}
	return false
}

// ImportSource records how a file reached the importer
type ImportSource string

const (
	ImportSourceUpload ImportSource = "upload"
	ImportSourceInbox  ImportSource = "inbox"
	ImportSourceCLI    ImportSource = "cli"
)

// ImportStatus represents the status of an import operation
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// IsValid checks if the status is valid
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted, ImportStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ImportErrorDetail represents a detailed error for a specific row
type ImportErrorDetail struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ImportCounts is the outcome of one batch as recorded in history
type ImportCounts struct {
	TotalRows     int                 `json:"total_rows"`
	CreatedRows   int                 `json:"created_rows"`
	UpdatedRows   int                 `json:"updated_rows"`
	UnchangedRows int                 `json:"unchanged_rows"`
	SkippedRows   int                 `json:"skipped_rows"`
	ErrorRows     int                 `json:"error_rows"`
	HiddenCount   int                 `json:"hidden_count"`
	RestoredCount int                 `json:"restored_count"`
	SkipReasons   map[string]int      `json:"skip_reasons,omitempty"`
	ErrorDetails  []ImportErrorDetail `json:"error_details,omitempty"`
}

// Persisted reports whether any row reached storage
func (c ImportCounts) Persisted() int {
	return c.CreatedRows + c.UpdatedRows + c.UnchangedRows
}

// ImportHistory is the audit record of one batch. It moves from pending to
// processing and ends completed or failed; terminal records never change.
type ImportHistory struct {
	shared.BaseAggregateRoot
	ImportCounts
	EntityType    ImportEntityType `json:"entity_type"`
	Source        ImportSource     `json:"source"`
	FileName      string           `json:"file_name"`
	FileSize      int64            `json:"file_size"`
	ReportDate    string           `json:"report_date,omitempty"`
	Status        ImportStatus     `json:"status"`
	FailureReason string           `json:"failure_reason,omitempty"`
	ArchiveKey    string           `json:"archive_key,omitempty"`
	ImportedBy    string           `json:"imported_by"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// NewImportHistory opens a pending record. An empty source means upload.
func NewImportHistory(
	entityType ImportEntityType,
	source ImportSource,
	fileName string,
	fileSize int64,
	importedBy string,
	at time.Time,
) (*ImportHistory, error) {
	switch {
	case !entityType.IsValid():
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", fmt.Sprintf("Invalid entity type: %s", entityType))
	case fileName == "":
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	case fileSize < 0:
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size cannot be negative")
	}
	if source == "" {
		source = ImportSourceUpload
	}

	return &ImportHistory{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(at),
		ImportCounts:      ImportCounts{SkipReasons: map[string]int{}},
		EntityType:        entityType,
		Source:            source,
		FileName:          fileName,
		FileSize:          fileSize,
		Status:            ImportStatusPending,
		ImportedBy:        importedBy,
	}, nil
}

func (h *ImportHistory) transition(to ImportStatus, at time.Time) {
	h.Status = to
	h.Touch(at)
	h.IncrementVersion()
}

func (h *ImportHistory) invalidState(action string) error {
	return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot %s from state: %s", action, h.Status))
}

// StartProcessing stamps the start time
func (h *ImportHistory) StartProcessing(at time.Time) error {
	if h.Status != ImportStatusPending {
		return h.invalidState("start processing")
	}
	h.StartedAt = &at
	h.transition(ImportStatusProcessing, at)
	return nil
}

// Complete records the batch outcome. When rows failed and none were
// persisted the batch ends failed instead.
func (h *ImportHistory) Complete(counts ImportCounts, at time.Time) error {
	if h.Status != ImportStatusProcessing {
		return h.invalidState("complete")
	}
	if counts.SkipReasons == nil {
		counts.SkipReasons = map[string]int{}
	}
	h.ImportCounts = counts
	h.CompletedAt = &at

	status := ImportStatusCompleted
	if counts.ErrorRows > 0 && counts.Persisted() == 0 {
		status = ImportStatusFailed
	}
	h.transition(status, at)
	return nil
}

// Fail ends a batch that never produced counts
func (h *ImportHistory) Fail(reason string, at time.Time) error {
	if h.Status.IsTerminal() {
		return h.invalidState("fail")
	}
	h.FailureReason = reason
	h.CompletedAt = &at
	h.transition(ImportStatusFailed, at)
	return nil
}

// SetArchiveKey records where the raw export was archived
func (h *ImportHistory) SetArchiveKey(key string) {
	h.ArchiveKey = key
}

func (h *ImportHistory) IsCompleted() bool { return h.Status == ImportStatusCompleted }

func (h *ImportHistory) IsFailed() bool { return h.Status == ImportStatusFailed }

// Duration is zero until the batch has both started and finished
func (h *ImportHistory) Duration() time.Duration {
	if h.StartedAt == nil || h.CompletedAt == nil {
		return 0
	}
	return h.CompletedAt.Sub(*h.StartedAt)
}
