package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	importapp "github.com/erp/posync/internal/application/import"
	"github.com/erp/posync/internal/domain/bulk"
	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is satisfied by persistence.Database
type Pinger interface {
	Ping() error
}

// HealthHandler reports liveness, database reachability and import freshness
type HealthHandler struct {
	BaseHandler
	db        Pinger
	history   *importapp.ImportHistoryService
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. history may be nil.
func NewHealthHandler(db Pinger, history *importapp.ImportHistoryService, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		history:   history,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string                `json:"status"`
	Database    string                `json:"database"`
	Version     string                `json:"version"`
	GoVersion   string                `json:"go_version"`
	Uptime      string                `json:"uptime"`
	Time        string                `json:"time"`
	LastImports map[string]*time.Time `json:"last_imports,omitempty"`
}

// Health answers 200 when the database responds and 503 otherwise
//
//	GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Time:      time.Now().Format(time.RFC3339),
	}

	if err := h.db.Ping(); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	if h.history != nil {
		resp.LastImports = h.lastImports(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) lastImports(ctx context.Context) map[string]*time.Time {
	out := make(map[string]*time.Time, 2)
	for _, entity := range []bulk.ImportEntityType{bulk.ImportEntityPurchaseOrders, bulk.ImportEntityLineItems} {
		latest, err := h.history.LatestCompleted(ctx, entity)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				logger.FromContext(ctx).Warn("Failed to read import freshness", zap.String("entity", string(entity)), zap.Error(err))
			}
			out[string(entity)] = nil
			continue
		}
		out[string(entity)] = latest.CompletedAt
	}
	return out
}
