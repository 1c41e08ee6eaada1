package router

import (
	"net/http"

	"github.com/erp/posync/internal/interfaces/http/handler"
	"github.com/erp/posync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is the slack allowed on top of the import size limit
// for multipart boundaries and headers.
const multipartOverhead = 1 << 20

// Handlers are the HTTP handlers of the posync API
type Handlers struct {
	Imports        *handler.ImportHandler
	History        *handler.ImportHistoryHandler
	PurchaseOrders *handler.PurchaseOrderHandler
	Notes          *handler.NoteHandler
	Health         *handler.HealthHandler
}

// Groups returns the resource groups under APIPrefix. Uploads are capped
// at maxUploadBytes plus multipart overhead.
func Groups(h Handlers, maxUploadBytes int64) []Group {
	return []Group{
		{
			Prefix: "/imports",
			Routes: []Route{
				route(http.MethodGet, "/history", h.History.ListHistory),
				route(http.MethodGet, "/history/:id", h.History.GetHistory),
				route(http.MethodGet, "/history/:id/errors", h.History.DownloadErrors),
			},
			Groups: []Group{{
				Middleware: []gin.HandlerFunc{middleware.BodyLimit(maxUploadBytes + multipartOverhead)},
				Routes: []Route{
					route(http.MethodPost, "/purchase-orders", h.Imports.ImportPurchaseOrders),
					route(http.MethodPost, "/line-items", h.Imports.ImportLineItems),
				},
			}},
		},
		{
			Prefix: "/purchase-orders",
			Routes: []Route{
				route(http.MethodGet, "", h.PurchaseOrders.List),
				route(http.MethodGet, "/by-number/:poNumber", h.PurchaseOrders.GetByNumber),
				route(http.MethodGet, "/:id", h.PurchaseOrders.Get),
				route(http.MethodPatch, "/:id", h.PurchaseOrders.Update),
				route(http.MethodPost, "/:id/hide", h.PurchaseOrders.Hide),
				route(http.MethodPost, "/:id/unhide", h.PurchaseOrders.Unhide),
				route(http.MethodGet, "/:id/line-items", h.PurchaseOrders.ListLineItems),
				route(http.MethodGet, "/:id/notes", h.Notes.List),
				route(http.MethodPost, "/:id/notes", h.Notes.Append),
			},
		},
		{
			Prefix: "/line-items",
			Routes: []Route{route(http.MethodPost, "/:id/receive", h.PurchaseOrders.ReceiveLineItem)},
		},
		{
			Prefix: "/notes",
			Routes: []Route{route(http.MethodDelete, "/:id", h.Notes.Delete)},
		},
	}
}

// RegisterAPI wires /health and every API group onto the engine
func RegisterAPI(engine *gin.Engine, h Handlers, maxUploadBytes int64) {
	engine.GET("/health", h.Health.Health)

	api := engine.Group(APIPrefix)
	for _, g := range Groups(h, maxUploadBytes) {
		g.Mount(api)
	}
}
