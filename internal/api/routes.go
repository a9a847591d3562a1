// routes.go - Route registration helpers
package api

import (
	"net/http"
	"time"

	"github.com/geo-visualizer/backend/internal/aggregate"
	"github.com/geo-visualizer/backend/internal/layers"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Service   *layers.Service
	Analytics aggregate.Store
	Logger    *zap.Logger
	Version   string

	PreserveLegendsByDefault bool
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Layer   LayerHandler
	Feature FeatureHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Service),
		Layer:   NewLayerHandler(deps.Service, deps.Analytics, deps.Logger, deps.PreserveLegendsByDefault),
		Feature: NewFeatureHandler(deps.Analytics),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/health", handlers.Health.HandleHealth)

	layerGroup := e.Group("/api/layers")
	layerGroup.GET("", handlers.Layer.HandleListLayers)
	layerGroup.GET("/:id", handlers.Layer.HandleGetLayer)
	layerGroup.PUT("/:id", handlers.Layer.HandleSaveLayer)
	layerGroup.DELETE("/:id", handlers.Layer.HandleDeleteLayer)
	layerGroup.GET("/:id/legends", handlers.Layer.HandleGetLegends)
	layerGroup.POST("/:id/style/preview", handlers.Layer.HandlePreviewStyle)
	layerGroup.POST("/:id/features", handlers.Feature.HandleLoadFeatures)
}

// MiddlewareOptions configures SetupMiddleware
type MiddlewareOptions struct {
	ShowErrorDetails bool
	RequestLogging   bool
	BodyLimit        string
	AllowOrigins     []string
	Timeout          time.Duration
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, log *zap.Logger, opts MiddlewareOptions) {
	if log == nil {
		log = zap.NewNop()
	}
	e.HTTPErrorHandler = NewErrorHandler(log, opts.ShowErrorDetails)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !opts.RequestLogging || c.Request().URL.Path == "/api/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if opts.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout:      opts.Timeout,
			ErrorMessage: "Request timeout - style compilation took too long",
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if len(opts.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
