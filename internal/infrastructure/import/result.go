package csvimport

import (
	"time"

	"github.com/google/uuid"
)

// BatchResult is the outcome of one import pass. Row numbers in the
// diagnostics are 1-based lines of the source document.
type BatchResult struct {
	ImportID      uuid.UUID      `json:"import_id"`
	ReportDate    string         `json:"report_date,omitempty"`
	TotalRows     int            `json:"total_rows"`
	ProcessedRows int            `json:"processed_rows"`
	CreatedRows   int            `json:"created_rows"`
	UpdatedRows   int            `json:"updated_rows"`
	UnchangedRows int            `json:"unchanged_rows"`
	SkippedRows   int            `json:"skipped_rows"`
	ErrorRows     int            `json:"error_rows"`
	HiddenCount   int            `json:"hidden_count"`
	RestoredCount int            `json:"restored_count"`
	SkipReasons   map[string]int `json:"skip_reasons"`
	Errors        []RowError     `json:"errors,omitempty"`
	IsTruncated   bool           `json:"is_truncated,omitempty"`
	TotalErrors   int            `json:"total_errors,omitempty"`
	Duration      time.Duration  `json:"duration_ns"`

	maxErrors int
}

// NewBatchResult creates an empty result keeping at most maxErrors
// diagnostics, DefaultMaxErrors when maxErrors is not positive.
func NewBatchResult(maxErrors int) *BatchResult {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &BatchResult{
		SkipReasons: make(map[string]int),
		maxErrors:   maxErrors,
	}
}

// diagnose keeps the first maxErrors diagnostics and counts all of them
func (r *BatchResult) diagnose(e RowError) {
	r.TotalErrors++
	if len(r.Errors) < r.maxErrors {
		r.Errors = append(r.Errors, e)
	}
}

// Skip records a row deliberately left out of the import.
func (r *BatchResult) Skip(row int, column string, reason SkipReason, value, message string) {
	r.SkippedRows++
	r.SkipReasons[string(reason)]++
	r.diagnose(RowError{Row: row, Column: column, Code: string(reason), Message: message, Value: value})
}

// Note records a diagnostic for a row that was still imported.
func (r *BatchResult) Note(row int, column, code, value, message string) {
	r.diagnose(RowError{Row: row, Column: column, Code: code, Message: message, Value: value})
}

// Fail records a row that could not be persisted.
func (r *BatchResult) Fail(row int, message string) {
	r.ErrorRows++
	r.diagnose(RowError{Row: row, Code: ErrCodePersistFailure, Message: message})
}

// Created, Updated and Unchanged count rows that reached storage.
func (r *BatchResult) Created() {
	r.CreatedRows++
	r.ProcessedRows++
}

func (r *BatchResult) Updated() {
	r.UpdatedRows++
	r.ProcessedRows++
}

func (r *BatchResult) Unchanged() {
	r.UnchangedRows++
	r.ProcessedRows++
}

// Finish stamps the duration and flags dropped diagnostics
func (r *BatchResult) Finish(elapsed time.Duration) {
	r.IsTruncated = r.TotalErrors > len(r.Errors)
	r.Duration = elapsed
}
