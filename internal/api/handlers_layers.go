// handlers_layers.go - Layer, style and legend handlers
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geo-visualizer/backend/internal/aggregate"
	"github.com/geo-visualizer/backend/internal/layers"
	"github.com/geo-visualizer/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	mimeYAML    = "application/yaml"
	mimeMsgpack = "application/msgpack"

	defaultListLimit = 50
)

// LayerHandlerImpl implements the LayerHandler interface
type LayerHandlerImpl struct {
	service   *layers.Service
	analytics aggregate.Store
	log       *zap.Logger

	// used when a save request has no preserve_legends parameter
	preserveByDefault bool
}

// NewLayerHandler creates a new layer handler instance
func NewLayerHandler(service *layers.Service, analytics aggregate.Store, log *zap.Logger, preserveByDefault bool) LayerHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LayerHandlerImpl{
		service:           service,
		analytics:         analytics,
		log:               log,
		preserveByDefault: preserveByDefault,
	}
}

// layerSummary is the list representation of a layer
type layerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slots     int    `json:"slots"`
	Legends   int    `json:"legends"`
	UpdatedAt string `json:"updatedAt"`
}

// previewResponse is the result of a style preview
type previewResponse struct {
	Style   *models.StyleTree       `json:"style" msgpack:"style"`
	Legends []models.LegendFragment `json:"legends" msgpack:"legends"`
}

// HandleListLayers returns the most recently updated layers
func (h *LayerHandlerImpl) HandleListLayers(c echo.Context) error {
	limit := defaultListLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return NewValidationError("limit", err)
		}
		limit = n
	}

	list, err := h.service.List(limit)
	if err != nil {
		return NewInternalError("failed to list layers", err)
	}

	out := make([]layerSummary, 0, len(list))
	for _, l := range list {
		out = append(out, layerSummary{
			ID:        l.ID,
			Name:      l.Name,
			Slots:     1 + len(l.Extras),
			Legends:   len(l.Legends),
			UpdatedAt: l.UpdatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// HandleGetLayer returns a stored layer with its compiled styles
func (h *LayerHandlerImpl) HandleGetLayer(c echo.Context) error {
	id := c.Param("id")
	layer, err := h.service.Get(id)
	if err != nil {
		return FromError(err, id)
	}
	return c.JSON(http.StatusOK, layer)
}

// HandleSaveLayer creates or replaces a layer. The body is the layer as JSON
// or YAML; its styles are compiled and its legends reconciled before it is
// stored.
func (h *LayerHandlerImpl) HandleSaveLayer(c echo.Context) error {
	id := c.Param("id")
	if err := layers.ValidateID(id); err != nil {
		return NewValidationError("id", err)
	}

	preserve := h.preserveByDefault
	if s := c.QueryParam("preserve_legends"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return NewValidationError("preserve_legends", err)
		}
		preserve = b
	}

	var layer models.Layer
	if err := decodeBody(c.Request(), &layer); err != nil {
		return NewBadRequestError("invalid layer document", err)
	}
	layer.ID = id
	if layer.Main.StyleConfig.MapStyleType == "" {
		return NewValidationError("main_style.style_config.map_style_type", nil)
	}

	saved, err := h.service.Save(c.Request().Context(), &layer, layers.SaveOptions{PreserveLegends: preserve})
	if err != nil {
		return FromError(err, id)
	}
	return c.JSON(http.StatusOK, saved)
}

// HandleDeleteLayer removes a layer and its analytics data
func (h *LayerHandlerImpl) HandleDeleteLayer(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Delete(id); err != nil {
		return FromError(err, id)
	}
	if h.analytics != nil {
		if err := h.analytics.DeleteLayer(c.Request().Context(), id); err != nil {
			h.log.Warn("failed to delete layer analytics", zap.String("layer", id), zap.Error(err))
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetLegends returns the legend list of a layer
func (h *LayerHandlerImpl) HandleGetLegends(c echo.Context) error {
	id := c.Param("id")
	layer, err := h.service.Get(id)
	if err != nil {
		return FromError(err, id)
	}
	legends := layer.Legends
	if legends == nil {
		legends = []models.LegendEntry{}
	}
	return c.JSON(http.StatusOK, legends)
}

// HandlePreviewStyle compiles a style slot against the layer data without
// storing anything. Responds with msgpack when the client accepts it.
func (h *LayerHandlerImpl) HandlePreviewStyle(c echo.Context) error {
	id := c.Param("id")
	var slot models.StyleSlot
	if err := decodeBody(c.Request(), &slot); err != nil {
		return NewBadRequestError("invalid style slot", err)
	}

	tree, fragments, err := h.service.Preview(c.Request().Context(), id, slot)
	if err != nil {
		return FromError(err, id)
	}
	if fragments == nil {
		fragments = []models.LegendFragment{}
	}
	resp := previewResponse{Style: tree, Legends: fragments}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack) {
		data, err := msgpack.Marshal(resp)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, mimeMsgpack, data)
	}
	return c.JSON(http.StatusOK, resp)
}

// decodeBody decodes a JSON, YAML or msgpack request body into v according
// to its content type. JSON is assumed when none is given.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	mediaType := ""
	if ct := r.Header.Get(echo.HeaderContentType); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("content type: %w", err)
		}
		mediaType = mt
	}

	var err error
	switch mediaType {
	case mimeYAML, "application/x-yaml", "text/yaml":
		err = yaml.NewDecoder(r.Body).Decode(v)
	case mimeMsgpack:
		dec := msgpack.NewDecoder(r.Body)
		dec.UseLooseInterfaceDecoding(true)
		err = dec.Decode(v)
	case "", echo.MIMEApplicationJSON:
		err = json.NewDecoder(r.Body).Decode(v)
	default:
		return fmt.Errorf("unsupported content type %q", mediaType)
	}
	if errors.Is(err, io.EOF) {
		return errors.New("empty body")
	}
	return err
}
