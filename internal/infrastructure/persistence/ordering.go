package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortColumns maps the order_by values a list endpoint accepts to columns.
// Anything else falls back, so request input never reaches the SQL text.
type sortColumns map[string]string

var purchaseOrderSort = sortColumns{
	"po_number":       "po_number",
	"vendor":          "vendor",
	"ns_status":       "ns_status",
	"amount":          "amount",
	"location":        "location",
	"ordered_at":      "ordered_at",
	"order_date":      "ordered_at",
	"status":          "status",
	"eta":             "eta",
	"snoozed_until":   "snoozed_until",
	"tracking_number": "tracking_number",
	"hidden_date":     "hidden_date",
	"created_at":      "created_at",
	"updated_at":      "updated_at",
}

// orderBy resolves field or fallback. Only "asc" in any case and spacing
// sorts ascending.
func (s sortColumns) orderBy(field, dir, fallback string) clause.OrderByColumn {
	col, ok := s[strings.TrimSpace(field)]
	if !ok {
		col = s[fallback]
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: col},
		Desc:   !strings.EqualFold(strings.TrimSpace(dir), "asc"),
	}
}
