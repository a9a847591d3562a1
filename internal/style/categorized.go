package style

import (
	"reflect"

	"github.com/geo-visualizer/backend/internal/models"
	"go.uber.org/zap"
)

// encodeCategorized matches field labels to values. A category without a
// name is the default for unmatched labels and, through the outer case, for
// features missing the field.
func (c *Compiler) encodeCategorized(in encodeInput) encoding {
	p := in.enc
	if len(p.Categories) == 0 {
		return encoding{}
	}

	var (
		pairs      []any
		items      []models.LegendItem
		def        any
		hasDefault bool
	)
	for _, cat := range p.Categories {
		if cat.Name == nil {
			def, hasDefault = cat.Value, true
			continue
		}
		pairs = append(pairs, *cat.Name, cat.Value)
		item := legendItem(in.variation, in.shape, cat.Value)
		item.Label = cat.Name
		items = append(items, item)
	}

	fallback := in.defaultNoValue
	if hasDefault {
		fallback = def
	}

	out := encoding{legend: true, items: items}
	if len(pairs) == 0 {
		out.value = fallback
	} else {
		var expr any = Match(Get(p.Field), pairs, fallback)
		if hasDefault {
			expr = Case(Has(p.Field), expr, def)
		}
		out.value = expr
	}

	if hasDefault {
		trailing := def
		if c.opts.LegacyCategorizedLegend {
			trailing = p.Categories[len(p.Categories)-1].Value
			if !reflect.DeepEqual(trailing, def) {
				c.log.Warn("legacy categorized legend: default item uses last category value",
					zap.String("property", in.property), zap.Any("default", def), zap.Any("used", trailing))
			}
		}
		out.items = append(out.items, legendItem(in.variation, in.shape, trailing))
	}
	return out
}
