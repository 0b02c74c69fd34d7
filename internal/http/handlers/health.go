package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaultmedia/vaultmedia-backend/internal/platform/logger"
	"github.com/vaultmedia/vaultmedia-backend/internal/services"
)

type HealthHandler struct {
	log           *logger.Logger
	healthService services.HealthService
}

func NewHealthHandler(baseLog *logger.Logger, healthService services.HealthService) *HealthHandler {
	return &HealthHandler{
		log:           baseLog.With("handler", "HealthHandler"),
		healthService: healthService,
	}
}

// GET /api/health
// Degraded still returns 200; load balancers only pull the instance when a
// hard dependency is down.
func (h *HealthHandler) Check(c *gin.Context) {
	report := h.healthService.CheckAll(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
