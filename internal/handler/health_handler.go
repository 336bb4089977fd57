// internal/handler/health_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mw-source-service/internal/config"
	"mw-source-service/internal/utils"
	"mw-source-service/pkg/microwave"
)

// HealthHandler reports service and device health
type HealthHandler struct {
	config *config.Config
	source microwave.Source
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config, source microwave.Source, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		config: cfg,
		source: source,
		logger: logger,
	}
}

// Health returns the service health and whether the instrument is reachable
func (h *HealthHandler) Health(c *gin.Context) {
	connected := h.source.IsConnected()

	data := gin.H{
		"service":          h.config.App.Name,
		"version":          h.config.App.Version,
		"environment":      h.config.App.Environment,
		"device_model":     h.config.Device.Model,
		"device_connected": connected,
	}

	status := http.StatusOK
	message := "Service healthy"
	if !connected {
		status = http.StatusServiceUnavailable
		message = "Device not connected"
	}

	utils.SuccessResponse(c, status, message, data)
}
