package style

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/models"
	"go.uber.org/zap"
)

// layoutProperties are the renderer properties that belong to the layout
// bucket; every other property is paint.
var layoutProperties = map[string]bool{
	"icon-image":         true,
	"icon-size":          true,
	"icon-allow-overlap": true,
	"text-field":         true,
	"text-font":          true,
	"text-size":          true,
	"text-allow-overlap": true,
}

// Compiler turns the wizard configuration of a style slot into a style tree
// and legend fragments. It is safe for concurrent use; it keeps no state
// between calls.
type Compiler struct {
	classifier *classify.Classifier
	opts       Options
	log        *zap.Logger
}

// NewCompiler creates a compiler classifying fields through classifier.
func NewCompiler(classifier *classify.Classifier, opts Options, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SignificantDigits <= 0 {
		opts.SignificantDigits = classify.DefaultSignificantDigits
	}
	return &Compiler{classifier: classifier, opts: opts, log: log}
}

// Compile compiles one style slot of layerID. Properties are processed in
// lexical order of their names. Legend fragments are returned for the
// properties asking for one, with uid "<slot uid>__<property>".
func (c *Compiler) Compile(ctx context.Context, layerID string, slot models.StyleSlot) (*models.StyleTree, []models.LegendFragment, error) {
	cfg := slot.StyleConfig
	styleType := normalizeType(cfg.MapStyleType)
	outType := outputType(styleType)
	shape := shapeFor(styleType)

	tree := &models.StyleTree{
		Type:    outType,
		Paint:   make(map[string]any),
		Layout:  make(map[string]any),
		MinZoom: cfg.MinZoom,
		MaxZoom: cfg.MaxZoom,
		Weight:  cfg.Weight,
	}

	names := make([]string, 0, len(cfg.Style))
	for name := range cfg.Style {
		names = append(names, name)
	}
	sort.Strings(names)

	var fragments []models.LegendFragment
	for _, name := range names {
		p := cfg.Style[name]
		if !belongsTo(name, styleType) {
			c.log.Debug("skipping property of another style type",
				zap.String("property", name), zap.String("type", cfg.MapStyleType))
			continue
		}
		if p.Type == "" || p.Type == models.EncodingNone {
			continue
		}

		variation := VariationOf(name)
		kind, err := resolveKind(variation, p)
		if err != nil {
			return nil, nil, fmt.Errorf("property %s: %w", name, err)
		}
		c.log.Debug("encoding property",
			zap.String("layer", layerID), zap.String("property", name), zap.Stringer("encoder", kind))

		out, err := c.encode(ctx, kind, encodeInput{
			layerID:        layerID,
			property:       name,
			variation:      variation,
			shape:          shape,
			enc:            p,
			defaultNoValue: c.defaultNoValue(variation, p),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("property %s: %w", name, err)
		}

		if out.value != nil {
			key := kebab(name)
			if layoutProperties[key] || strings.HasSuffix(key, "-sort-key") {
				tree.Layout[key] = out.value
			} else {
				tree.Paint[key] = out.value
			}
		}
		if out.sortKey != "" {
			tree.Layout[outType+"-sort-key"] = Negate(Get(out.sortKey))
		}
		if p.GenerateLegend && out.legend {
			fragShape := shape
			if out.shape != "" {
				fragShape = out.shape
			}
			items := out.items
			if items == nil {
				items = []models.LegendItem{}
			}
			fragments = append(fragments, models.LegendFragment{
				UID:   LegendUID(slot.UID, name),
				Shape: fragShape,
				Items: items,
			})
		}
	}

	if len(tree.Layout) == 0 {
		tree.Layout = nil
	}
	return tree, fragments, nil
}

func (c *Compiler) defaultNoValue(v Variation, p models.PropertyEncoding) any {
	if p.NoValue != nil {
		return p.NoValue
	}
	if v == VariationColor {
		return c.opts.NoValueFillColor
	}
	return 0.0
}

// LegendUID is the uid of the legend generated for property of a slot.
func LegendUID(slotUID, property string) string {
	return slotUID + "__" + property
}

// SplitLegendUID is the inverse of LegendUID.
func SplitLegendUID(uid string) (slotUID, property string, ok bool) {
	return strings.Cut(uid, "__")
}

// normalizeType maps fill_extrusion and extrusion to the same style type.
func normalizeType(t string) string {
	t = strings.ReplaceAll(strings.ToLower(t), "-", "_")
	if t == "fill_extrusion" {
		return "extrusion"
	}
	return t
}

func outputType(normalized string) string {
	if normalized == "extrusion" {
		return "fill-extrusion"
	}
	return kebab(normalized)
}

// typePrefixes lists the property prefixes of style types whose properties
// are not all named after the type.
var typePrefixes = map[string][]string{
	"symbol": {"symbol_", "icon_", "text_"},
}

// belongsTo reports whether a property name is prefixed by the normalized style type.
func belongsTo(property, normalizedType string) bool {
	name := strings.ReplaceAll(property, "-", "_")
	if strings.HasPrefix(name, "fill_extrusion_") {
		name = strings.TrimPrefix(name, "fill_")
	}
	prefixes, ok := typePrefixes[normalizedType]
	if !ok {
		prefixes = []string{normalizedType + "_"}
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func kebab(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}
