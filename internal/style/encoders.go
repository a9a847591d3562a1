package style

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/geo-visualizer/backend/internal/models"
)

var (
	// ErrUnhandledAnalysis is returned for a variation/analysis pair no encoder handles.
	ErrUnhandledAnalysis = errors.New("unhandled analysis type")
	// ErrUnhandledMethod is returned for a graduated property with an unknown classification method.
	ErrUnhandledMethod = errors.New("unhandled classification method")
	// ErrInvalidBoundaries is returned when fewer than two explicit boundaries are given.
	ErrInvalidBoundaries = errors.New("invalid boundaries")
	// ErrMissingClassificationInput is returned for a graduated property with neither boundaries nor method.
	ErrMissingClassificationInput = errors.New("missing classification input")
)

// Options are the process-wide values encoders fall back to.
type Options struct {
	NoValueFillColor      string
	CircleMinLegendHeight float64
	SizeMinLegendHeight   float64
	SignificantDigits     int

	// LegacyCategorizedLegend reproduces the historical categorized legend,
	// whose trailing default item carries the value of the last category
	// listed instead of the value of the default category.
	LegacyCategorizedLegend bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		NoValueFillColor:      "#DDDDDD",
		CircleMinLegendHeight: 10,
		SizeMinLegendHeight:   5,
		SignificantDigits:     2,
	}
}

// Variation is the visual channel driven by data.
type Variation int

const (
	VariationColor Variation = iota
	VariationSize
	VariationRadius
)

func (v Variation) String() string {
	switch v {
	case VariationColor:
		return "color"
	case VariationRadius:
		return "radius"
	default:
		return "size"
	}
}

// VariationOf derives the variation from a property name such as
// fill_color, circle_radius or line_width.
func VariationOf(property string) Variation {
	switch {
	case strings.HasSuffix(property, "color"):
		return VariationColor
	case strings.HasSuffix(property, "radius"):
		return VariationRadius
	default:
		return VariationSize
	}
}

// encoderKind enumerates the encoders. Every (variation, analysis) pair
// resolves to exactly one kind or to an error.
type encoderKind int

const (
	kindFixed encoderKind = iota
	kindGraduatedColor
	kindGraduatedSize
	kindProportionalRadius
	kindProportionalValue
	kindCategorized
)

func (k encoderKind) String() string {
	return [...]string{
		"fixed",
		"graduated_color",
		"graduated_size",
		"proportional_radius",
		"proportional_value",
		"categorized",
	}[k]
}

func resolveKind(v Variation, p models.PropertyEncoding) (encoderKind, error) {
	switch p.Type {
	case models.EncodingFixed:
		return kindFixed, nil
	case models.EncodingVariable:
	default:
		return 0, fmt.Errorf("%w: property type %q", ErrUnhandledAnalysis, p.Type)
	}

	switch p.Analysis {
	case models.AnalysisCategorized:
		return kindCategorized, nil
	case models.AnalysisGraduated:
		switch v {
		case VariationColor:
			return kindGraduatedColor, nil
		case VariationSize:
			return kindGraduatedSize, nil
		}
	case models.AnalysisProportional:
		switch v {
		case VariationRadius:
			return kindProportionalRadius, nil
		case VariationSize:
			return kindProportionalValue, nil
		}
	}
	return 0, fmt.Errorf("%w: %s analysis of a %s property", ErrUnhandledAnalysis, p.Analysis, v)
}

// encodeInput is what every encoder receives.
type encodeInput struct {
	layerID        string
	property       string
	variation      Variation
	shape          models.LegendShape
	enc            models.PropertyEncoding
	defaultNoValue any
}

// encoding is what every encoder returns. A nil value omits the property.
type encoding struct {
	value   any
	items   []models.LegendItem
	legend  bool
	shape   models.LegendShape
	sortKey string
}

func (c *Compiler) encode(ctx context.Context, kind encoderKind, in encodeInput) (encoding, error) {
	switch kind {
	case kindFixed:
		return encodeFixed(in), nil
	case kindGraduatedColor, kindGraduatedSize:
		return c.encodeGraduated(ctx, in)
	case kindProportionalRadius:
		return c.encodeProportionalRadius(ctx, in)
	case kindProportionalValue:
		return c.encodeProportionalValue(ctx, in)
	case kindCategorized:
		return c.encodeCategorized(in), nil
	default:
		return encoding{}, fmt.Errorf("%w: encoder %d", ErrUnhandledAnalysis, kind)
	}
}

func encodeFixed(in encodeInput) encoding {
	if in.enc.Value == nil {
		return encoding{}
	}
	return encoding{value: noValueCondition(in.enc.Field, in.enc.Value, in.enc.NoValue)}
}

// legendItem builds the item of a class drawn with value.
func legendItem(v Variation, shape models.LegendShape, value any) models.LegendItem {
	var item models.LegendItem
	switch {
	case v == VariationColor:
		item.Color = colorString(value)
	case v == VariationSize && shape == models.ShapeLine:
		if f, ok := toFloat(value); ok {
			item.StrokeWidth = models.Float(f)
		}
	default:
		if f, ok := toFloat(value); ok {
			item.Size = models.Float(f)
		}
	}
	return item
}

func noValueItem(v Variation, shape models.LegendShape, value any) models.LegendItem {
	item := legendItem(v, shape, value)
	item.Boundaries = &models.Range{
		Lower: models.Bound{Included: true},
		Upper: models.Bound{Included: true},
	}
	return item
}

func valueRange(v float64) *models.Range {
	return &models.Range{
		Lower: models.Bound{Value: models.Float(v), Included: true},
		Upper: models.Bound{Value: models.Float(v), Included: true},
	}
}

func colorString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// toFloat converts the numeric literals produced by JSON, YAML and msgpack
// decoding.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint8:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func shapeFor(styleType string) models.LegendShape {
	switch styleType {
	case "line":
		return models.ShapeLine
	case "circle":
		return models.ShapeCircle
	case "symbol":
		return models.ShapeSymbol
	default:
		return models.ShapeSquare
	}
}
