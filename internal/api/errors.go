// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/layers"
	"github.com/geo-visualizer/backend/internal/style"
	"github.com/geo-visualizer/backend/internal/symbols"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAPIError(status int, code, message string, cause error) *APIError {
	err := &APIError{Status: status, Code: code, Message: message}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	return newAPIError(http.StatusBadRequest, "BAD_REQUEST", message, cause)
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string, cause error) *APIError {
	return newAPIError(http.StatusBadRequest, "VALIDATION_ERROR",
		fmt.Sprintf("validation failed for field: %s", field), cause)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return newAPIError(http.StatusNotFound, "NOT_FOUND",
		fmt.Sprintf("%s not found: %s", resource, id), nil)
}

// NewUnprocessableError creates a 422 error for a style configuration that
// cannot be compiled
func NewUnprocessableError(message string, cause error) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, "INVALID_STYLE", message, cause)
}

// NewBadGatewayError creates a 502 error for a failing aggregation backend
func NewBadGatewayError(message string, cause error) *APIError {
	return newAPIError(http.StatusBadGateway, "AGGREGATION_FAILURE", message, cause)
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	return newAPIError(http.StatusInternalServerError, "INTERNAL_ERROR", message, cause)
}

var styleErrors = []error{
	style.ErrUnhandledAnalysis,
	style.ErrUnhandledMethod,
	style.ErrInvalidBoundaries,
	style.ErrMissingClassificationInput,
	symbols.ErrNonPositiveMinimum,
}

// FromError maps a service error to its API error. id names the layer the
// request was about.
func FromError(err error, id string) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, layers.ErrNotFound):
		return NewNotFoundError("layer", id)
	case errors.Is(err, layers.ErrInvalidID):
		return NewValidationError("id", err)
	case errors.Is(err, classify.ErrAggregationProvider):
		return NewBadGatewayError("aggregation provider failed", err)
	}
	for _, target := range styleErrors {
		if errors.Is(err, target) {
			return NewUnprocessableError("style configuration cannot be compiled", err)
		}
	}
	return NewInternalError("unexpected error", err)
}

// NewErrorHandler returns the Echo error handler rendering APIError bodies.
// Details of unexpected errors are only sent when showDetails is set.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(log, false)
func NewErrorHandler(log *zap.Logger, showDetails bool) echo.HTTPErrorHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Message: "An unexpected error occurred",
			}
			if showDetails {
				apiErr.Details = err.Error()
			}
		}

		if apiErr.Status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", apiErr.Status),
				zap.Error(err))
			if !showDetails && apiErr.Status == http.StatusInternalServerError {
				apiErr = &APIError{Status: apiErr.Status, Code: apiErr.Code, Message: apiErr.Message}
			}
		}

		if err := c.JSON(apiErr.Status, apiErr); err != nil {
			log.Warn("failed to write error response", zap.Error(err))
		}
	}
}
