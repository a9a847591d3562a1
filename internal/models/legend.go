package models

// LegendShape is the symbol drawn next to a legend item.
type LegendShape string

const (
	ShapeSquare        LegendShape = "square"
	ShapeCircle        LegendShape = "circle"
	ShapeStackedCircle LegendShape = "stackedCircle"
	ShapeLine          LegendShape = "line"
	ShapeSymbol        LegendShape = "symbol"
)

// Bound is one end of a class range. A nil Value means "no value".
type Bound struct {
	Value    *float64 `json:"value" msgpack:"value" yaml:"value"`
	Included bool     `json:"included" msgpack:"included" yaml:"included"`
}

// Range is the boundary range represented by a legend item.
type Range struct {
	Lower Bound `json:"lower" msgpack:"lower" yaml:"lower"`
	Upper Bound `json:"upper" msgpack:"upper" yaml:"upper"`
}

// LegendItem describes one visual class. Exactly one of Boundaries or Label
// identifies the class; the default category of a categorized legend has neither.
type LegendItem struct {
	Boundaries  *Range   `json:"boundaries,omitempty" msgpack:"boundaries,omitempty" yaml:"boundaries,omitempty"`
	Label       *string  `json:"label,omitempty" msgpack:"label,omitempty" yaml:"label,omitempty"`
	Color       string   `json:"color,omitempty" msgpack:"color,omitempty" yaml:"color,omitempty"`
	Size        *float64 `json:"size,omitempty" msgpack:"size,omitempty" yaml:"size,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty" msgpack:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`
}

// LegendFragment is the legend produced for one encoded property of a slot.
type LegendFragment struct {
	UID   string       `json:"uid" msgpack:"uid"`
	Shape LegendShape  `json:"shape" msgpack:"shape"`
	Items []LegendItem `json:"items" msgpack:"items"`
}

// LegendEntry is a legend stored on a layer. Auto entries are owned by the
// style compiler; the others were authored or kept by an operator.
type LegendEntry struct {
	UID   string       `json:"uid" yaml:"uid" msgpack:"uid"`
	Title string       `json:"title" yaml:"title" msgpack:"title"`
	Shape LegendShape  `json:"shape" yaml:"shape" msgpack:"shape"`
	Items []LegendItem `json:"items" yaml:"items" msgpack:"items"`
	Auto  bool         `json:"auto" yaml:"auto" msgpack:"auto"`

	NotUpdated bool `json:"-" yaml:"-" msgpack:"-"`
}

// Clone returns a deep copy of the entry.
func (e LegendEntry) Clone() LegendEntry {
	if e.Items != nil {
		items := make([]LegendItem, len(e.Items))
		for i, it := range e.Items {
			items[i] = it.Clone()
		}
		e.Items = items
	}
	return e
}

// Clone returns a deep copy of the item.
func (it LegendItem) Clone() LegendItem {
	if it.Boundaries != nil {
		r := *it.Boundaries
		r.Lower.Value = cloneFloat(r.Lower.Value)
		r.Upper.Value = cloneFloat(r.Upper.Value)
		it.Boundaries = &r
	}
	if it.Label != nil {
		label := *it.Label
		it.Label = &label
	}
	it.Size = cloneFloat(it.Size)
	it.StrokeWidth = cloneFloat(it.StrokeWidth)
	return it
}
