// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/geo-visualizer/backend/internal/layers"
	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	service *layers.Service
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, service *layers.Service) HealthHandler {
	return &HealthHandlerImpl{version: version, service: service}
}

// HandleHealth reports the server version and whether the layer store answers
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	status := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.service != nil {
		list, err := h.service.List(0)
		if err != nil {
			status["status"] = "degraded"
			status["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		status["layers"] = len(list)
	}
	return c.JSON(http.StatusOK, status)
}
