// Package models contains domain types for the geo visualizer backend.
package models

// EncodingType tells whether a visual property is constant or driven by data.
type EncodingType string

const (
	EncodingFixed    EncodingType = "fixed"
	EncodingVariable EncodingType = "variable"
	EncodingNone     EncodingType = "none"
)

// AnalysisType selects how a data value maps to a visual output.
type AnalysisType string

const (
	AnalysisGraduated    AnalysisType = "graduated"
	AnalysisCategorized  AnalysisType = "categorized"
	AnalysisProportional AnalysisType = "proportional"
)

// PropertyEncoding is the wizard configuration of one visual property
// (fill_color, circle_radius, line_width...).
type PropertyEncoding struct {
	Type  EncodingType `json:"type" yaml:"type" msgpack:"type"`
	Value any          `json:"value,omitempty" yaml:"value,omitempty" msgpack:"value,omitempty"` // fixed only

	Field    string       `json:"field,omitempty" yaml:"field,omitempty" msgpack:"field,omitempty"`
	Analysis AnalysisType `json:"analysis,omitempty" yaml:"analysis,omitempty" msgpack:"analysis,omitempty"`
	Method   string       `json:"method,omitempty" yaml:"method,omitempty" msgpack:"method,omitempty"` // graduated only

	Values     []any      `json:"values,omitempty" yaml:"values,omitempty" msgpack:"values,omitempty"`
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty" msgpack:"categories,omitempty"`
	Boundaries []float64  `json:"boundaries,omitempty" yaml:"boundaries,omitempty" msgpack:"boundaries,omitempty"`
	NoValue    any        `json:"no_value,omitempty" yaml:"no_value,omitempty" msgpack:"no_value,omitempty"`

	GenerateLegend bool `json:"generate_legend,omitempty" yaml:"generate_legend,omitempty" msgpack:"generate_legend,omitempty"`

	// Proportional analysis only.
	MaxRadius float64 `json:"max_radius,omitempty" yaml:"max_radius,omitempty" msgpack:"max_radius,omitempty"`
	MaxValue  float64 `json:"max_value,omitempty" yaml:"max_value,omitempty" msgpack:"max_value,omitempty"`
}

// Category maps one label of a categorized field to a visual value.
// A nil Name marks the default category.
type Category struct {
	Name  *string `json:"name" yaml:"name" msgpack:"name"`
	Value any     `json:"value" yaml:"value" msgpack:"value"`
}

// StyleConfig is the wizard input of a style slot.
type StyleConfig struct {
	MapStyleType string                      `json:"map_style_type" yaml:"map_style_type" msgpack:"map_style_type"`
	MinZoom      *float64                    `json:"min_zoom,omitempty" yaml:"min_zoom,omitempty" msgpack:"min_zoom,omitempty"`
	MaxZoom      *float64                    `json:"max_zoom,omitempty" yaml:"max_zoom,omitempty" msgpack:"max_zoom,omitempty"`
	Weight       *float64                    `json:"weight,omitempty" yaml:"weight,omitempty" msgpack:"weight,omitempty"`
	Style        map[string]PropertyEncoding `json:"style" yaml:"style" msgpack:"style"`
}

// PropertyType returns the encoding type of the named property, EncodingNone when absent.
func (c StyleConfig) PropertyType(name string) EncodingType {
	p, ok := c.Style[name]
	if !ok || p.Type == "" {
		return EncodingNone
	}
	return p.Type
}

// StyleTree is the compiled, renderer-ready style of a slot. Paint and layout
// values are literals or expression trees.
type StyleTree struct {
	Type    string         `json:"type" msgpack:"type"`
	Paint   map[string]any `json:"paint" msgpack:"paint"`
	Layout  map[string]any `json:"layout,omitempty" msgpack:"layout,omitempty"`
	MinZoom *float64       `json:"minzoom,omitempty" msgpack:"minzoom,omitempty"`
	MaxZoom *float64       `json:"maxzoom,omitempty" msgpack:"maxzoom,omitempty"`
	Weight  *float64       `json:"weight,omitempty" msgpack:"weight,omitempty"`
}

// StyleSlot is one independently styled layer or sub-layer.
type StyleSlot struct {
	UID         string      `json:"uid" yaml:"uid" msgpack:"uid"`
	StyleConfig StyleConfig `json:"style_config" yaml:"style_config" msgpack:"style_config"`
	Style       *StyleTree  `json:"style,omitempty" yaml:"-" msgpack:"style,omitempty"`
}

// Clone returns a deep copy of the slot.
func (s StyleSlot) Clone() StyleSlot {
	s.StyleConfig = s.StyleConfig.Clone()
	if s.Style != nil {
		tree := *s.Style
		tree.Paint = cloneMap(s.Style.Paint)
		tree.Layout = cloneMap(s.Style.Layout)
		tree.MinZoom = cloneFloat(s.Style.MinZoom)
		tree.MaxZoom = cloneFloat(s.Style.MaxZoom)
		tree.Weight = cloneFloat(s.Style.Weight)
		s.Style = &tree
	}
	return s
}

// Clone returns a deep copy of the configuration.
func (c StyleConfig) Clone() StyleConfig {
	c.MinZoom = cloneFloat(c.MinZoom)
	c.MaxZoom = cloneFloat(c.MaxZoom)
	c.Weight = cloneFloat(c.Weight)
	if c.Style != nil {
		props := make(map[string]PropertyEncoding, len(c.Style))
		for name, p := range c.Style {
			props[name] = p.Clone()
		}
		c.Style = props
	}
	return c
}

// Clone returns a deep copy of the encoding.
func (p PropertyEncoding) Clone() PropertyEncoding {
	p.Value = cloneValue(p.Value)
	p.NoValue = cloneValue(p.NoValue)
	if p.Values != nil {
		values := make([]any, len(p.Values))
		for i, v := range p.Values {
			values[i] = cloneValue(v)
		}
		p.Values = values
	}
	if p.Categories != nil {
		cats := make([]Category, len(p.Categories))
		for i, cat := range p.Categories {
			if cat.Name != nil {
				name := *cat.Name
				cat.Name = &name
			}
			cat.Value = cloneValue(cat.Value)
			cats[i] = cat
		}
		p.Categories = cats
	}
	if p.Boundaries != nil {
		p.Boundaries = append(make([]float64, 0, len(p.Boundaries)), p.Boundaries...)
	}
	return p
}

// cloneValue copies the containers decoders produce for untyped literals.
// Scalars are returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		return cloneMap(t)
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
