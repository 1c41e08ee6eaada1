package csvimport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError_Error(t *testing.T) {
	assert.Equal(t, "row 9, column 'amount': bad", RowError{Row: 9, Column: "amount", Message: "bad"}.Error())
	assert.Equal(t, "row 9: bad", RowError{Row: 9, Message: "bad"}.Error())
}

func TestBatchResult_DiagnosticsCap(t *testing.T) {
	t.Run("keeps first N and counts all", func(t *testing.T) {
		r := NewBatchResult(2)
		for i := 0; i < 5; i++ {
			r.Skip(i+9, "", SkipDuplicate, "", "duplicate line item")
		}
		r.Finish(0)
		assert.Len(t, r.Errors, 2)
		assert.Equal(t, 5, r.TotalErrors)
		assert.True(t, r.IsTruncated)
		assert.Equal(t, 5, r.SkipReasons["duplicate"])
	})

	t.Run("default limit", func(t *testing.T) {
		r := NewBatchResult(0)
		for i := 0; i < DefaultMaxErrors+1; i++ {
			r.Note(i, "", ErrCodeInvalidRow, "", "bad date")
		}
		r.Finish(0)
		assert.Len(t, r.Errors, DefaultMaxErrors)
		assert.True(t, r.IsTruncated)
	})

	t.Run("clean batch", func(t *testing.T) {
		r := NewBatchResult(10)
		r.Created()
		r.Finish(0)
		assert.Empty(t, r.Errors)
		assert.False(t, r.IsTruncated)
		assert.Zero(t, r.TotalErrors)
	})
}

func TestStructuralParseError(t *testing.T) {
	err := fmt.Errorf("import failed: %w", &StructuralParseError{Reason: "too short", Rows: 2, Need: 8})

	assert.ErrorIs(t, err, ErrStructural)
	assert.Contains(t, err.Error(), "document has 2 rows, need at least 8")

	var spe *StructuralParseError
	assert.True(t, errors.As(err, &spe))
	assert.Equal(t, 8, spe.Need)

	wrapped := &StructuralParseError{Reason: "file is empty", Err: ErrEmptyFile}
	assert.ErrorIs(t, wrapped, ErrEmptyFile)
	assert.ErrorIs(t, wrapped, ErrStructural)
}

func TestBatchResult(t *testing.T) {
	r := NewBatchResult(10)
	r.Created()
	r.Updated()
	r.Unchanged()
	r.Skip(9, "amount", SkipInvalidAmount, "abc", "amount is not a number")
	r.Skip(10, "po_number", SkipInvalidPONumber, "", "PO number is empty")
	r.Fail(11, "db down")
	r.Finish(0)

	assert.Equal(t, 3, r.ProcessedRows)
	assert.Equal(t, 2, r.SkippedRows)
	assert.Equal(t, 1, r.ErrorRows)
	assert.Equal(t, map[string]int{"invalid_amount": 1, "invalid_po_number": 1}, r.SkipReasons)
	assert.Len(t, r.Errors, 3)
	assert.Equal(t, 3, r.TotalErrors)
	assert.False(t, r.IsTruncated)
}
