package handler

import (
	"context"

	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/domain/bulk"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"github.com/gin-gonic/gin"
)

// uploadField is the multipart field carrying the export
const uploadField = "file"

type importFunc func(ctx context.Context, req importapp.ImportRequest) (*csvimport.BatchResult, error)

// ImportHandler accepts ERP export uploads
type ImportHandler struct {
	BaseHandler
	poImport       *importapp.PurchaseOrderImportService
	lineItemImport *importapp.LineItemImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(poImport *importapp.PurchaseOrderImportService, lineItemImport *importapp.LineItemImportService) *ImportHandler {
	return &ImportHandler{
		poImport:       poImport,
		lineItemImport: lineItemImport,
	}
}

// ImportPurchaseOrders runs a purchase order export through reconciliation
//
//	POST /api/v1/imports/purchase-orders (multipart, field "file")
func (h *ImportHandler) ImportPurchaseOrders(c *gin.Context) {
	h.upload(c, h.poImport.Import)
}

// ImportLineItems attaches line items from a line item export
//
//	POST /api/v1/imports/line-items (multipart, field "file")
func (h *ImportHandler) ImportLineItems(c *gin.Context) {
	h.upload(c, h.lineItemImport.Import)
}

func (h *ImportHandler) upload(c *gin.Context, run importFunc) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		h.BadRequest(c, "A CSV file is required in the \"file\" field")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	result, err := run(c.Request.Context(), importapp.ImportRequest{
		FileName:   fh.Filename,
		Size:       fh.Size,
		Source:     bulk.ImportSourceUpload,
		ImportedBy: getActor(c),
		Content:    f,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
