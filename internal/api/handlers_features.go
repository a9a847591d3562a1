// handlers_features.go - Bulk loading of feature values
package api

import (
	"errors"
	"net/http"

	"github.com/geo-visualizer/backend/internal/aggregate"
	"github.com/geo-visualizer/backend/internal/layers"
	"github.com/geo-visualizer/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FeatureHandlerImpl implements the FeatureHandler interface
type FeatureHandlerImpl struct {
	analytics aggregate.Store
}

// NewFeatureHandler creates a new feature handler instance
func NewFeatureHandler(analytics aggregate.Store) FeatureHandler {
	return &FeatureHandlerImpl{analytics: analytics}
}

// loadFeaturesRequest carries the values of one field of a layer
type loadFeaturesRequest struct {
	Field  string                `json:"field" yaml:"field" msgpack:"field"`
	Values []models.FeatureValue `json:"values" yaml:"values" msgpack:"values"`
}

// HandleLoadFeatures replaces the values of a field in the analytics store.
// Accepts JSON, YAML or msgpack bodies.
func (h *FeatureHandlerImpl) HandleLoadFeatures(c echo.Context) error {
	id := c.Param("id")
	if err := layers.ValidateID(id); err != nil {
		return NewValidationError("id", err)
	}

	var req loadFeaturesRequest
	if err := decodeBody(c.Request(), &req); err != nil {
		return NewBadRequestError("invalid feature values", err)
	}
	if req.Field == "" {
		return NewValidationError("field", nil)
	}

	if err := h.analytics.Load(c.Request().Context(), id, req.Field, req.Values); err != nil {
		if errors.Is(err, aggregate.ErrDuplicateFeature) {
			return NewValidationError("values", err)
		}
		return NewInternalError("failed to load feature values", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"layer":  id,
		"field":  req.Field,
		"loaded": len(req.Values),
	})
}
