package models

import (
	"time"

	"github.com/erp/posync/internal/domain/bulk"
)

// ImportHistoryModel maps to import_histories. Skip reasons and row
// diagnostics are stored as JSON text through gorm's json serializer.
type ImportHistoryModel struct {
	AggregateModel
	EntityType    bulk.ImportEntityType    `gorm:"type:varchar(30);not null;index"`
	Source        bulk.ImportSource        `gorm:"type:varchar(20);not null;default:'upload'"`
	FileName      string                   `gorm:"type:varchar(255);not null"`
	FileSize      int64                    `gorm:"not null;default:0"`
	ReportDate    string                   `gorm:"type:varchar(100);not null;default:''"`
	TotalRows     int                      `gorm:"not null;default:0"`
	CreatedRows   int                      `gorm:"not null;default:0"`
	UpdatedRows   int                      `gorm:"not null;default:0"`
	UnchangedRows int                      `gorm:"not null;default:0"`
	SkippedRows   int                      `gorm:"not null;default:0"`
	ErrorRows     int                      `gorm:"not null;default:0"`
	HiddenCount   int                      `gorm:"not null;default:0"`
	RestoredCount int                      `gorm:"not null;default:0"`
	SkipReasons   map[string]int           `gorm:"type:text;not null;serializer:json"`
	Status        bulk.ImportStatus        `gorm:"type:varchar(20);not null;default:'pending';index"`
	FailureReason string                   `gorm:"type:text;not null;default:''"`
	ErrorDetails  []bulk.ImportErrorDetail `gorm:"type:text;not null;serializer:json"`
	ArchiveKey    string                   `gorm:"type:varchar(512);not null;default:''"`
	ImportedBy    string                   `gorm:"type:varchar(100);not null;default:''"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

func (ImportHistoryModel) TableName() string {
	return "import_histories"
}

func (m *ImportHistoryModel) counts() bulk.ImportCounts {
	c := bulk.ImportCounts{
		TotalRows:     m.TotalRows,
		CreatedRows:   m.CreatedRows,
		UpdatedRows:   m.UpdatedRows,
		UnchangedRows: m.UnchangedRows,
		SkippedRows:   m.SkippedRows,
		ErrorRows:     m.ErrorRows,
		HiddenCount:   m.HiddenCount,
		RestoredCount: m.RestoredCount,
		SkipReasons:   m.SkipReasons,
		ErrorDetails:  m.ErrorDetails,
	}
	if c.SkipReasons == nil {
		c.SkipReasons = map[string]int{}
	}
	if c.ErrorDetails == nil {
		c.ErrorDetails = []bulk.ImportErrorDetail{}
	}
	return c
}

// ToDomain rebuilds the history record
func (m *ImportHistoryModel) ToDomain() *bulk.ImportHistory {
	return &bulk.ImportHistory{
		BaseAggregateRoot: m.aggregate(),
		ImportCounts:      m.counts(),
		EntityType:        m.EntityType,
		Source:            m.Source,
		FileName:          m.FileName,
		FileSize:          m.FileSize,
		ReportDate:        m.ReportDate,
		Status:            m.Status,
		FailureReason:     m.FailureReason,
		ArchiveKey:        m.ArchiveKey,
		ImportedBy:        m.ImportedBy,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
	}
}

// FromDomain copies h into the model. Empty collections are written as
// {} and [] rather than null.
func (m *ImportHistoryModel) FromDomain(h *bulk.ImportHistory) {
	c := h.ImportCounts
	*m = ImportHistoryModel{
		AggregateModel: aggregateModelOf(h.BaseAggregateRoot),
		EntityType:     h.EntityType,
		Source:         h.Source,
		FileName:       h.FileName,
		FileSize:       h.FileSize,
		ReportDate:     h.ReportDate,
		TotalRows:      c.TotalRows,
		CreatedRows:    c.CreatedRows,
		UpdatedRows:    c.UpdatedRows,
		UnchangedRows:  c.UnchangedRows,
		SkippedRows:    c.SkippedRows,
		ErrorRows:      c.ErrorRows,
		HiddenCount:    c.HiddenCount,
		RestoredCount:  c.RestoredCount,
		SkipReasons:    c.SkipReasons,
		ErrorDetails:   c.ErrorDetails,
		Status:         h.Status,
		FailureReason:  h.FailureReason,
		ArchiveKey:     h.ArchiveKey,
		ImportedBy:     h.ImportedBy,
		StartedAt:      h.StartedAt,
		CompletedAt:    h.CompletedAt,
	}
	if m.SkipReasons == nil {
		m.SkipReasons = map[string]int{}
	}
	if m.ErrorDetails == nil {
		m.ErrorDetails = []bulk.ImportErrorDetail{}
	}
}

// ImportHistoryModelFromDomain builds a model ready to save
func ImportHistoryModelFromDomain(h *bulk.ImportHistory) *ImportHistoryModel {
	m := &ImportHistoryModel{}
	m.FromDomain(h)
	return m
}
