package models

import (
	"time"

	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Column groups of purchase_orders. Each write path updates exactly one
// group plus updated_at.
var (
	PurchaseOrderSystemColumns = []string{
		"vendor", "ns_status", "amount", "location", "report_date", "order_date", "ordered_at", "updated_at",
	}
	PurchaseOrderLocalColumns = []string{
		"status", "notes", "eta", "url", "tracking_number", "attachments", "snoozed_until", "email_history", "updated_at",
	}
	PurchaseOrderVisibilityColumns = []string{
		"is_hidden", "hidden_reason", "hidden_date", "hidden_by", "updated_at",
	}
)

// PurchaseOrderModel is the persistence model for purchasing.PurchaseOrder
type PurchaseOrderModel struct {
	AggregateModel
	PONumber string `gorm:"column:po_number;type:varchar(50);not null;uniqueIndex"`

	Vendor     string          `gorm:"type:varchar(255);not null;default:''"`
	NSStatus   string          `gorm:"column:ns_status;type:varchar(100);not null;default:''"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Location   string          `gorm:"type:varchar(255);not null;default:''"`
	ReportDate string          `gorm:"type:varchar(100);not null;default:''"`
	OrderDate  string          `gorm:"type:varchar(100);not null;default:''"`
	OrderedAt  *time.Time      `gorm:"index"`

	Status         string                   `gorm:"type:varchar(100);not null;default:'';index"`
	Notes          string                   `gorm:"type:text;not null;default:''"`
	ETA            *time.Time               `gorm:"column:eta"`
	URL            string                   `gorm:"column:url;type:varchar(2048);not null;default:''"`
	TrackingNumber string                   `gorm:"type:varchar(100);not null;default:''"`
	Attachments    []purchasing.Attachment  `gorm:"type:text;not null;serializer:json"`
	SnoozedUntil   *time.Time
	EmailHistory   []purchasing.EmailRecord `gorm:"type:text;not null;serializer:json"`

	IsHidden     bool   `gorm:"not null;default:false;index"`
	HiddenReason string `gorm:"type:varchar(30);not null;default:''"`
	HiddenDate   *time.Time
	HiddenBy     string `gorm:"type:varchar(100);not null;default:''"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *purchasing.PurchaseOrder {
	po := &purchasing.PurchaseOrder{
		BaseAggregateRoot: m.aggregate(),
		PONumber:          m.PONumber,
		System: purchasing.SystemFields{
			Vendor:     m.Vendor,
			NSStatus:   m.NSStatus,
			Amount:     m.Amount,
			Location:   m.Location,
			ReportDate: m.ReportDate,
			OrderDate:  m.OrderDate,
			OrderedAt:  m.OrderedAt,
		},
		Local: purchasing.LocalFields{
			Status:         m.Status,
			Notes:          m.Notes,
			ETA:            m.ETA,
			URL:            m.URL,
			TrackingNumber: m.TrackingNumber,
			Attachments:    m.Attachments,
			SnoozedUntil:   m.SnoozedUntil,
			EmailHistory:   m.EmailHistory,
		},
		Visibility: purchasing.Visibility{
			IsHidden:     m.IsHidden,
			HiddenReason: purchasing.HiddenReason(m.HiddenReason),
			HiddenDate:   m.HiddenDate,
			HiddenBy:     m.HiddenBy,
		},
	}
	return po
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(po *purchasing.PurchaseOrder) {
	m.AggregateModel = aggregateModelOf(po.BaseAggregateRoot)
	m.PONumber = po.PONumber

	m.Vendor = po.System.Vendor
	m.NSStatus = po.System.NSStatus
	m.Amount = po.System.Amount
	m.Location = po.System.Location
	m.ReportDate = po.System.ReportDate
	m.OrderDate = po.System.OrderDate
	m.OrderedAt = po.System.OrderedAt

	m.Status = po.Local.Status
	m.Notes = po.Local.Notes
	m.ETA = po.Local.ETA
	m.URL = po.Local.URL
	m.TrackingNumber = po.Local.TrackingNumber
	m.Attachments = nonNil(po.Local.Attachments)
	m.SnoozedUntil = po.Local.SnoozedUntil
	m.EmailHistory = nonNil(po.Local.EmailHistory)

	m.IsHidden = po.Visibility.IsHidden
	m.HiddenReason = string(po.Visibility.HiddenReason)
	m.HiddenDate = po.Visibility.HiddenDate
	m.HiddenBy = po.Visibility.HiddenBy
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(po *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(po)
	return m
}

// nonNil makes the json serializer write [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// LineItemModel is the persistence model for purchasing.LineItem
type LineItemModel struct {
	BaseModel
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_line_items_dedup,priority:1"`
	PONumber        string          `gorm:"column:po_number;type:varchar(50);not null;uniqueIndex:idx_line_items_dedup,priority:2"`
	Memo            string          `gorm:"type:varchar(1000);not null;default:'';uniqueIndex:idx_line_items_dedup,priority:3"`
	Date            string          `gorm:"type:varchar(30);not null;default:'';uniqueIndex:idx_line_items_dedup,priority:4"`
	AccountCode     string          `gorm:"type:varchar(50);not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Received        bool            `gorm:"not null;default:false"`
	ReceivedDate    *time.Time
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "line_items"
}

func (m *LineItemModel) ToDomain() *purchasing.LineItem {
	return &purchasing.LineItem{
		BaseEntity:      m.entity(),
		PurchaseOrderID: m.PurchaseOrderID,
		PONumber:        m.PONumber,
		AccountCode:     m.AccountCode,
		Memo:            m.Memo,
		Date:            m.Date,
		Quantity:        m.Quantity,
		Received:        m.Received,
		ReceivedDate:    m.ReceivedDate,
	}
}

func (m *LineItemModel) FromDomain(li *purchasing.LineItem) {
	m.BaseModel = baseModelOf(li.BaseEntity)
	m.PurchaseOrderID = li.PurchaseOrderID
	m.PONumber = li.PONumber
	m.AccountCode = li.AccountCode
	m.Memo = li.Memo
	m.Date = li.Date
	m.Quantity = li.Quantity
	m.Received = li.Received
	m.ReceivedDate = li.ReceivedDate
}

// LineItemModelFromDomain creates a new persistence model from a domain LineItem.
func LineItemModelFromDomain(li *purchasing.LineItem) *LineItemModel {
	m := &LineItemModel{}
	m.FromDomain(li)
	return m
}

// NoteModel is the persistence model for purchasing.Note. Rows are only
// ever inserted or deleted.
type NoteModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID `gorm:"type:uuid;not null;index:idx_notes_po_created,priority:1"`
	PONumber        string    `gorm:"column:po_number;type:varchar(50);not null"`
	Vendor          string    `gorm:"type:varchar(255);not null;default:''"`
	Content         string    `gorm:"type:text;not null"`
	CreatedBy       string    `gorm:"type:varchar(100);not null;default:''"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime:false;index:idx_notes_po_created,priority:2"`
}

// TableName returns the table name for GORM
func (NoteModel) TableName() string {
	return "notes"
}

func (m *NoteModel) ToDomain() *purchasing.Note {
	return &purchasing.Note{
		ID:              m.ID,
		PurchaseOrderID: m.PurchaseOrderID,
		PONumber:        m.PONumber,
		Vendor:          m.Vendor,
		Content:         m.Content,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}

// NoteModelFromDomain creates a new persistence model from a domain Note.
func NoteModelFromDomain(n *purchasing.Note) *NoteModel {
	return &NoteModel{
		ID:              n.ID,
		PurchaseOrderID: n.PurchaseOrderID,
		PONumber:        n.PONumber,
		Vendor:          n.Vendor,
		Content:         n.Content,
		CreatedBy:       n.CreatedBy,
		CreatedAt:       n.CreatedAt,
	}
}
