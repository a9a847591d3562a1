package style

import (
	"context"
	"errors"
	"fmt"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/models"
	"go.uber.org/zap"
)

// encodeGraduated builds a step expression over classified boundaries, one
// value per class. The legend lists classes from the highest to the lowest,
// preceded by the no-value class.
func (c *Compiler) encodeGraduated(ctx context.Context, in encodeInput) (encoding, error) {
	p := in.enc
	out := encoding{legend: true}

	boundaries, err := c.graduatedBoundaries(ctx, in.layerID, p)
	if err != nil {
		return encoding{}, err
	}
	if len(boundaries) < 2 || len(p.Values) == 0 {
		c.log.Debug("no boundaries, using fallback value",
			zap.String("property", in.property), zap.String("field", p.Field))
		out.value = p.NoValue
		if out.value == nil {
			out.value = in.defaultNoValue
		}
		if p.NoValue != nil {
			out.items = []models.LegendItem{noValueItem(in.variation, in.shape, p.NoValue)}
		}
		return out, nil
	}
	// boundaries past the last value would describe classes nothing is drawn with
	if len(boundaries) > len(p.Values)+1 {
		boundaries = boundaries[:len(p.Values)+1]
	}

	var stops []any
	for i := 1; i < len(boundaries) && i < len(p.Values); i++ {
		stops = append(stops, boundaries[i], p.Values[i])
	}
	out.value = noValueCondition(p.Field, Step(Get(p.Field), p.Values[0], stops...), p.NoValue)

	classes := make([]models.LegendItem, 0, len(boundaries))
	for i := 0; i+1 < len(boundaries) && i < len(p.Values); i++ {
		item := legendItem(in.variation, in.shape, p.Values[i])
		item.Boundaries = &models.Range{
			Lower: models.Bound{Value: models.Float(boundaries[i]), Included: true},
			Upper: models.Bound{Value: models.Float(boundaries[i+1]), Included: i == len(boundaries)-2},
		}
		classes = append(classes, item)
	}

	if p.NoValue != nil {
		out.items = append(out.items, noValueItem(in.variation, in.shape, p.NoValue))
	}
	for i := len(classes) - 1; i >= 0; i-- {
		out.items = append(out.items, classes[i])
	}
	return out, nil
}

// graduatedBoundaries returns explicit boundaries when given, otherwise the
// rounded classification of the field. nil means the field has no data.
func (c *Compiler) graduatedBoundaries(ctx context.Context, layerID string, p models.PropertyEncoding) ([]float64, error) {
	if p.Boundaries != nil {
		if len(p.Boundaries) < 2 {
			return nil, fmt.Errorf("%w: need at least 2, got %d", ErrInvalidBoundaries, len(p.Boundaries))
		}
		return p.Boundaries, nil
	}
	if p.Method == "" {
		return nil, fmt.Errorf("%w: field %q", ErrMissingClassificationInput, p.Field)
	}

	raw, err := c.classifier.Classify(ctx, layerID, p.Field, len(p.Values), classify.Method(p.Method))
	if errors.Is(err, classify.ErrUnknownMethod) {
		return nil, fmt.Errorf("%w: %w", ErrUnhandledMethod, err)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return classify.RoundBoundaries(raw, c.opts.SignificantDigits), nil
}
