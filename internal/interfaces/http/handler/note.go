package handler

import (
	purchasingapp "github.com/erp/posync/internal/application/purchasing"
	"github.com/erp/posync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// NoteHandler serves the per-order note timeline
type NoteHandler struct {
	BaseHandler
	notes *purchasingapp.NoteTimelineService
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(notes *purchasingapp.NoteTimelineService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// List returns an order's notes newest first
//
//	GET /api/v1/purchase-orders/:id/notes
func (h *NoteHandler) List(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	notes, err := h.notes.List(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, notes)
}

// Append adds a note to an order
//
//	POST /api/v1/purchase-orders/:id/notes
func (h *NoteHandler) Append(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.AppendNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	note, err := h.notes.Append(c.Request.Context(), id, getActor(c), req.Content)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, note)
}

// Delete removes a note
//
//	DELETE /api/v1/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.notes.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
