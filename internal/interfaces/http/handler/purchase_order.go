package handler

import (
	purchasingapp "github.com/erp/posync/internal/application/purchasing"
	"github.com/erp/posync/internal/domain/purchasing"
	"github.com/erp/posync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// PurchaseOrderHandler serves the purchase order list and its local edits
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *purchasingapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler. Hide
// requests rely on the validator tags SetupValidator registers.
func NewPurchaseOrderHandler(orderService *purchasingapp.PurchaseOrderService) *PurchaseOrderHandler {
	middleware.SetupValidator()
	return &PurchaseOrderHandler{orderService: orderService}
}

// List returns a page of purchase orders
//
//	GET /api/v1/purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var q purchasingapp.ListPurchaseOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get returns one purchase order
//
//	GET /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	po, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// GetByNumber looks an order up by its natural key
//
//	GET /api/v1/purchase-orders/by-number/:poNumber
func (h *PurchaseOrderHandler) GetByNumber(c *gin.Context) {
	po, err := h.orderService.GetByPONumber(c.Request.Context(), c.Param("poNumber"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Update edits the locally owned fields of an order
//
//	PATCH /api/v1/purchase-orders/:id
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.UpdateLocalFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	po, err := h.orderService.UpdateLocalFields(c.Request.Context(), id, getActor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Hide takes an order out of the active list. An empty body hides it as
// manually_hidden.
//
//	POST /api/v1/purchase-orders/:id/hide
func (h *PurchaseOrderHandler) Hide(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.HideRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}
	po, err := h.orderService.Hide(c.Request.Context(), id, getActor(c), purchasing.HiddenReason(req.Reason))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// Unhide restores an order to the active list
//
//	POST /api/v1/purchase-orders/:id/unhide
func (h *PurchaseOrderHandler) Unhide(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	po, err := h.orderService.Unhide(c.Request.Context(), id, getActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, po)
}

// ListLineItems returns the line items attached to an order
//
//	GET /api/v1/purchase-orders/:id/line-items
func (h *PurchaseOrderHandler) ListLineItems(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.orderService.ListLineItems(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// ReceiveLineItem sets or clears the received flag of a line item
//
//	POST /api/v1/line-items/:id/receive
func (h *PurchaseOrderHandler) ReceiveLineItem(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	item, err := h.orderService.MarkLineItemReceived(c.Request.Context(), id, getActor(c), *req.Received)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}
