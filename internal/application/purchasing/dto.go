package purchasingapp

import (
	"strings"
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderResponse represents a purchase order with both field groups
type PurchaseOrderResponse struct {
	ID         uuid.UUID       `json:"id"`
	PONumber   string          `json:"po_number"`
	Vendor     string          `json:"vendor"`
	NSStatus   string          `json:"ns_status"`
	Amount     decimal.Decimal `json:"amount"`
	Location   string          `json:"location"`
	ReportDate string          `json:"report_date"`
	OrderDate  string          `json:"order_date"`
	OrderedAt  *time.Time      `json:"ordered_at,omitempty"`

	Status         string                   `json:"status"`
	Notes          string                   `json:"notes"`
	ETA            *time.Time               `json:"eta,omitempty"`
	URL            string                   `json:"url"`
	TrackingNumber string                   `json:"tracking_number"`
	Attachments    []purchasing.Attachment  `json:"attachments"`
	SnoozedUntil   *time.Time               `json:"snoozed_until,omitempty"`
	IsSnoozed      bool                     `json:"is_snoozed"`
	EmailHistory   []purchasing.EmailRecord `json:"email_history"`

	IsHidden     bool       `json:"is_hidden"`
	HiddenReason string     `json:"hidden_reason,omitempty"`
	HiddenDate   *time.Time `json:"hidden_date,omitempty"`
	HiddenBy     string     `json:"hidden_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to a response
func ToPurchaseOrderResponse(po *purchasing.PurchaseOrder, now time.Time) PurchaseOrderResponse {
	attachments := po.Local.Attachments
	if attachments == nil {
		attachments = []purchasing.Attachment{}
	}
	emails := po.Local.EmailHistory
	if emails == nil {
		emails = []purchasing.EmailRecord{}
	}
	return PurchaseOrderResponse{
		ID:             po.ID,
		PONumber:       po.PONumber,
		Vendor:         po.System.Vendor,
		NSStatus:       po.System.NSStatus,
		Amount:         po.System.Amount,
		Location:       po.System.Location,
		ReportDate:     po.System.ReportDate,
		OrderDate:      po.System.OrderDate,
		OrderedAt:      po.System.OrderedAt,
		Status:         po.Local.Status,
		Notes:          po.Local.Notes,
		ETA:            po.Local.ETA,
		URL:            po.Local.URL,
		TrackingNumber: po.Local.TrackingNumber,
		Attachments:    attachments,
		SnoozedUntil:   po.Local.SnoozedUntil,
		IsSnoozed:      po.IsSnoozed(now),
		EmailHistory:   emails,
		IsHidden:       po.Visibility.IsHidden,
		HiddenReason:   string(po.Visibility.HiddenReason),
		HiddenDate:     po.Visibility.HiddenDate,
		HiddenBy:       po.Visibility.HiddenBy,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
		Version:        po.Version,
	}
}

// LineItemResponse represents a line item
type LineItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	PONumber        string          `json:"po_number"`
	AccountCode     string          `json:"account_code"`
	Memo            string          `json:"memo"`
	Date            string          `json:"date"`
	Quantity        decimal.Decimal `json:"quantity"`
	Received        bool            `json:"received"`
	ReceivedDate    *time.Time      `json:"received_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToLineItemResponse converts a domain LineItem to a response
func ToLineItemResponse(li *purchasing.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:              li.ID,
		PurchaseOrderID: li.PurchaseOrderID,
		PONumber:        li.PONumber,
		AccountCode:     li.AccountCode,
		Memo:            li.Memo,
		Date:            li.Date,
		Quantity:        li.Quantity,
		Received:        li.Received,
		ReceivedDate:    li.ReceivedDate,
		CreatedAt:       li.CreatedAt,
	}
}

// NoteResponse represents a timeline note
type NoteResponse struct {
	ID              uuid.UUID `json:"id"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	PONumber        string    `json:"po_number"`
	Vendor          string    `json:"vendor"`
	Content         string    `json:"content"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToNoteResponse converts a domain Note to a response
func ToNoteResponse(n *purchasing.Note) NoteResponse {
	return NoteResponse{
		ID:              n.ID,
		PurchaseOrderID: n.PurchaseOrderID,
		PONumber:        n.PONumber,
		Vendor:          n.Vendor,
		Content:         n.Content,
		CreatedBy:       n.CreatedBy,
		CreatedAt:       n.CreatedAt,
	}
}

// UpdateLocalFieldsRequest is a partial update of user-owned fields.
// Absent fields are left alone; an empty ETA or snoozed_until clears it.
type UpdateLocalFieldsRequest struct {
	Status         *string `json:"status"`
	ETA            *string `json:"eta"`
	URL            *string `json:"url" binding:"omitempty,max=2048"`
	TrackingNumber *string `json:"tracking_number" binding:"omitempty,max=100"`
	SnoozedUntil   *string `json:"snoozed_until"`
}

// ToPatch converts the request to a domain patch, parsing dates.
// ETA accepts 2006-01-02 or RFC 3339; snoozed_until accepts RFC 3339.
func (r UpdateLocalFieldsRequest) ToPatch() (purchasing.LocalFieldsPatch, error) {
	patch := purchasing.LocalFieldsPatch{
		Status:         r.Status,
		URL:            r.URL,
		TrackingNumber: r.TrackingNumber,
	}
	if r.ETA != nil {
		raw := strings.TrimSpace(*r.ETA)
		if raw == "" {
			patch.ClearETA = true
		} else {
			eta, err := parseDate(raw)
			if err != nil {
				return patch, shared.NewDomainError("INVALID_DATE", "ETA must be YYYY-MM-DD or RFC 3339")
			}
			patch.ETA = &eta
		}
	}
	if r.SnoozedUntil != nil {
		raw := strings.TrimSpace(*r.SnoozedUntil)
		if raw == "" {
			patch.ClearSnooze = true
		} else {
			until, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return patch, shared.NewDomainError("INVALID_DATE", "snoozed_until must be RFC 3339")
			}
			patch.SnoozedUntil = &until
		}
	}
	return patch, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// HideRequest hides an order; the reason defaults to manually_hidden
type HideRequest struct {
	Reason string `json:"reason" binding:"omitempty,hidden_reason"`
}

// ReceiveRequest sets the receiving state of a line item
type ReceiveRequest struct {
	Received *bool `json:"received" binding:"required"`
}

// AppendNoteRequest adds a free-form note to the timeline
type AppendNoteRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

// ListPurchaseOrdersQuery holds list parameters as they arrive over HTTP
type ListPurchaseOrdersQuery struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir"`
	Search      string `form:"search"`
	Status      string `form:"status"`
	NSStatus    string `form:"ns_status"`
	OrderedFrom string `form:"ordered_from"`
	OrderedTo   string `form:"ordered_to"`
	Hidden      *bool  `form:"hidden"`
}

// ToFilter converts the query to a domain filter. Page size is capped at 200.
func (q ListPurchaseOrdersQuery) ToFilter() (purchasing.PurchaseOrderFilter, error) {
	filter := purchasing.PurchaseOrderFilter{
		Filter:   shared.Filter{Page: 1, PageSize: 20, OrderBy: "ordered_at", OrderDir: "desc"},
		Status:   strings.TrimSpace(q.Status),
		NSStatus: strings.TrimSpace(q.NSStatus),
		Hidden:   q.Hidden,
	}
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = min(q.PageSize, 200)
	}
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.OrderDir != "" {
		filter.OrderDir = q.OrderDir
	}
	filter.Search = strings.TrimSpace(q.Search)

	if q.OrderedFrom != "" {
		from, err := parseDate(q.OrderedFrom)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_DATE", "ordered_from must be YYYY-MM-DD or RFC 3339")
		}
		filter.OrderedFrom = &from
	}
	if q.OrderedTo != "" {
		to, err := parseDate(q.OrderedTo)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_DATE", "ordered_to must be YYYY-MM-DD or RFC 3339")
		}
		filter.OrderedTo = &to
	}
	return filter, nil
}
