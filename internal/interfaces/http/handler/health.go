package handler

import (
	"net/http"

	"github.com/gcs/crm/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping() error
}

// HealthHandler serves the liveness and readiness check
type HealthHandler struct {
	BaseHandler
	db      Pinger
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, version string, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{db: db, version: version, logger: logger}
}

// Health godoc
// @ID           health
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthData]
// @Failure      503 {object} APIResponse[HealthData]
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	data := HealthData{Status: "ok", Database: "ok", Version: h.version}
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.logger.Warn("Health check: database unreachable", zap.Error(err))
			data.Status = "degraded"
			data.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: data})
			return
		}
	}
	h.Success(c, data)
}
