package style

import (
	"context"
	"fmt"
	"math"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/models"
	"github.com/geo-visualizer/backend/internal/symbols"
)

// positiveRange returns the rounded positive min/max of the field, ok=false
// when the field has no positive value.
func (c *Compiler) positiveRange(ctx context.Context, layerID, field string) (min, max float64, ok bool, err error) {
	ext, err := c.classifier.Provider().PositiveMinMax(ctx, layerID, field)
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: positive min/max of %q: %w", classify.ErrAggregationProvider, field, err)
	}
	if !ext.Valid {
		return 0, 0, false, nil
	}
	r := classify.RoundBoundaries([]float64{ext.Min, ext.Max}, c.opts.SignificantDigits)
	return r[0], r[1], true, nil
}

// noDataEncoding is the proportional fallback: the no-value literal and a
// legend holding only the no-value item.
func noDataEncoding(in encodeInput, size float64) encoding {
	value := in.enc.NoValue
	if value == nil {
		value = in.defaultNoValue
	}
	return encoding{
		value:  value,
		legend: true,
		items:  []models.LegendItem{noValueItem(in.variation, in.shape, size)},
	}
}

// encodeProportionalRadius scales circle areas with the field value. The
// legend keeps a legible subset of round reference values, biggest first,
// followed by the no-value circle.
func (c *Compiler) encodeProportionalRadius(ctx context.Context, in encodeInput) (encoding, error) {
	p := in.enc
	min, max, ok, err := c.positiveRange(ctx, in.layerID, p.Field)
	if err != nil {
		return encoding{}, err
	}

	noValue, hasNoValue := toFloat(p.NoValue)
	if !ok {
		out := noDataEncoding(in, noValue*2)
		out.shape = models.ShapeStackedCircle
		return out, nil
	}

	interp := InterpolateLinear(
		Sqrt(Div(Get(p.Field), Pi())),
		0, 0,
		math.Sqrt(max/math.Pi), p.MaxRadius/2,
	)
	out := encoding{
		value:   noValueCondition(p.Field, interp, p.NoValue),
		legend:  true,
		shape:   models.ShapeStackedCircle,
		sortKey: p.Field,
	}

	candidates, err := symbols.CandidateValues(min, max)
	if err != nil {
		return encoding{}, err
	}
	values := symbols.FilterValues(append([]float64{max}, candidates...), max, p.MaxRadius, c.opts.CircleMinLegendHeight)
	for _, v := range values {
		out.items = append(out.items, models.LegendItem{
			Boundaries: valueRange(v),
			Size:       models.Float(symbols.SymbolHeight(v, max, p.MaxRadius)),
		})
	}
	if hasNoValue {
		out.items = append(out.items, noValueItem(in.variation, in.shape, noValue*2))
	}
	return out, nil
}

// encodeProportionalValue scales a size linearly with the field value. The
// legend shows the maximum and the midpoint of the range, then the no-value entry.
func (c *Compiler) encodeProportionalValue(ctx context.Context, in encodeInput) (encoding, error) {
	p := in.enc
	min, max, ok, err := c.positiveRange(ctx, in.layerID, p.Field)
	if err != nil {
		return encoding{}, err
	}

	noValue, hasNoValue := toFloat(p.NoValue)
	if !ok {
		return noDataEncoding(in, noValue), nil
	}

	interp := InterpolateLinear(Get(p.Field), 0, 0, max, p.MaxValue)
	out := encoding{
		value:   noValueCondition(p.Field, interp, p.NoValue),
		legend:  true,
		sortKey: p.Field,
	}

	values := []float64{max}
	mid := (max - min) / 2
	if mid > 0 && symbols.LinearSize(mid, max, p.MaxValue) >= c.opts.SizeMinLegendHeight {
		values = append(values, mid)
	}
	for _, v := range values {
		item := legendItem(in.variation, in.shape, symbols.LinearSize(v, max, p.MaxValue))
		item.Boundaries = valueRange(v)
		out.items = append(out.items, item)
	}
	if hasNoValue {
		out.items = append(out.items, noValueItem(in.variation, in.shape, noValue))
	}
	return out, nil
}
