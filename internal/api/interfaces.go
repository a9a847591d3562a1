// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// LayerHandler handles layer and style operations
type LayerHandler interface {
	HandleListLayers(c echo.Context) error
	HandleGetLayer(c echo.Context) error
	HandleSaveLayer(c echo.Context) error
	HandleDeleteLayer(c echo.Context) error
	HandleGetLegends(c echo.Context) error
	HandlePreviewStyle(c echo.Context) error
}

// FeatureHandler handles loading of feature values into the analytics store
type FeatureHandler interface {
	HandleLoadFeatures(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
