package handler

import (
	"net/http"
	"time"

	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// ImportHistoryHandler handles import history related HTTP requests
type ImportHistoryHandler struct {
	BaseHandler
	historyService *importapp.ImportHistoryService
}

// NewImportHistoryHandler creates a new ImportHistoryHandler
func NewImportHistoryHandler(historyService *importapp.ImportHistoryService) *ImportHistoryHandler {
	return &ImportHistoryHandler{
		historyService: historyService,
	}
}

// ImportHistoryListRequest holds the list query parameters
type ImportHistoryListRequest struct {
	EntityType  string `form:"entity_type"`
	Status      string `form:"status"`
	ImportedBy  string `form:"imported_by"`
	StartedFrom string `form:"started_from"`
	StartedTo   string `form:"started_to"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

// ListHistory returns batches newest first
//
//	GET /api/v1/imports/history
func (h *ImportHistoryHandler) ListHistory(c *gin.Context) {
	var req ImportHistoryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	req.PageSize = min(req.PageSize, 100)

	filter := importapp.ListHistoryFilter{
		EntityType: req.EntityType,
		Status:     req.Status,
		ImportedBy: req.ImportedBy,
	}
	// malformed dates are ignored like unknown statuses
	if req.StartedFrom != "" {
		if t, err := time.Parse(time.DateOnly, req.StartedFrom); err == nil {
			filter.StartedFrom = &t
		}
	}
	if req.StartedTo != "" {
		if t, err := time.Parse(time.DateOnly, req.StartedTo); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.StartedTo = &endOfDay
		}
	}

	result, err := h.historyService.ListHistory(c.Request.Context(), filter, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetHistory returns one batch with its row diagnostics
//
//	GET /api/v1/imports/history/:id
func (h *ImportHistoryHandler) GetHistory(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	history, err := h.historyService.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// DownloadErrors streams the row diagnostics of a batch as CSV
//
//	GET /api/v1/imports/history/:id/errors
func (h *ImportHistoryHandler) DownloadErrors(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	content, fileName, err := h.historyService.GetErrorsCSV(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(content))
}
