package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortColumns_OrderBy(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		dir      string
		wantCol  string
		wantDesc bool
	}{
		{"empty uses fallback descending", "", "", "ordered_at", true},
		{"known field ascending", "po_number", "asc", "po_number", false},
		{"alias maps to column", "order_date", "ASC", "ordered_at", false},
		{"spacing is trimmed", "  amount ", " asc ", "amount", false},
		{"unknown field falls back", "notes", "asc", "ordered_at", false},
		{"injection in field falls back", "vendor; DROP TABLE notes;--", "", "ordered_at", true},
		{"injection in direction sorts descending", "vendor", "ASC; DROP TABLE purchase_orders;--", "vendor", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := purchaseOrderSort.orderBy(tt.field, tt.dir, "ordered_at")
			assert.Equal(t, tt.wantCol, got.Column.Name)
			assert.Equal(t, tt.wantDesc, got.Desc)
		})
	}
}
