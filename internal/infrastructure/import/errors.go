package csvimport

import (
	"errors"
	"fmt"
)

// SkipReason classifies a row that was deliberately not imported.
type SkipReason string

const (
	SkipInvalidPONumber   SkipReason = "invalid_po_number"
	SkipInvalidAmount     SkipReason = "invalid_amount"
	SkipNoPOMatch         SkipReason = "no_po_match"
	SkipAccountMismatch   SkipReason = "account_prefix_mismatch"
	SkipPONotFound        SkipReason = "po_not_found"
	SkipDuplicate         SkipReason = "duplicate"
	SkipFieldTooLong      SkipReason = "field_too_long"
	ErrCodePersistFailure            = "persist_failed"
	ErrCodeInvalidRow                = "invalid_row"
)

var (
	// ErrStructural matches every StructuralParseError via errors.Is
	ErrStructural       = errors.New("structural parse error")
	ErrEmptyFile        = errors.New("CSV file is empty")
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrImportInProgress = errors.New("an import of this kind is already in progress")
)

// StructuralParseError means the document cannot be addressed positionally
// at all. It aborts the whole import.
type StructuralParseError struct {
	Reason string
	Rows   int
	Need   int
	Err    error
}

func (e *StructuralParseError) Error() string {
	msg := "structural parse error: " + e.Reason
	if e.Need > 0 {
		msg += fmt.Sprintf(" (document has %d rows, need at least %d)", e.Rows, e.Need)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuralParseError) Unwrap() error { return e.Err }

func (e *StructuralParseError) Is(target error) bool { return target == ErrStructural }

// RowError is one row diagnostic. Code is a SkipReason or one of the
// ErrCode values.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
}

// DefaultMaxErrors caps the row diagnostics kept per batch
const DefaultMaxErrors = 100
