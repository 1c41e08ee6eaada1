package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/posync/internal/domain/shared"
	csvimport "github.com/erp/posync/internal/infrastructure/import"
	"github.com/erp/posync/internal/infrastructure/logger"
	"github.com/erp/posync/internal/interfaces/http/dto"
	"github.com/erp/posync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler holds the response helpers shared by every handler
type BaseHandler struct{}

// importFailures maps import pipeline sentinels to their HTTP form. Order
// matters only when an error wraps more than one of them.
var importFailures = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{csvimport.ErrImportInProgress, http.StatusConflict, dto.ErrCodeImportInProgress, ""},
	{csvimport.ErrFileTooLarge, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge, csvimport.ErrFileTooLarge.Error()},
	{csvimport.ErrEmptyFile, http.StatusBadRequest, dto.ErrCodeEmptyFile, ""},
	{csvimport.ErrStructural, http.StatusUnprocessableEntity, dto.ErrCodeStructuralParse, ""},
}

// getRequestID prefers the ID stored by the RequestID middleware
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// getActor returns the X-User-Name header. No authentication happens here;
// a missing header records an empty actor.
func getActor(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(middleware.ActorHeader))
}

func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "Invalid "+param+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta adds the paging block for list endpoints
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes the standard error envelope tagged with the request ID
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError turns a service error into a response. Domain errors carry
// their own code; import sentinels use importFailures. Anything else is
// logged and surfaces as a bare 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = csvimport.ErrFileTooLarge
	}
	for _, f := range importFailures {
		if !errors.Is(err, f.err) {
			continue
		}
		msg := f.message
		if msg == "" {
			msg = err.Error()
		}
		h.Error(c, f.status, f.code, msg)
		return
	}

	logger.FromContext(c.Request.Context()).Error("Request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
