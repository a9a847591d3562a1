package models

import "time"

// Layer owns a primary style slot, optional extra slots and the legend list.
type Layer struct {
	ID        string        `json:"id" yaml:"id" msgpack:"id"`
	Name      string        `json:"name" yaml:"name" msgpack:"name"`
	Main      StyleSlot     `json:"main_style" yaml:"main_style" msgpack:"main_style"`
	Extras    []StyleSlot   `json:"extra_styles,omitempty" yaml:"extra_styles,omitempty" msgpack:"extra_styles,omitempty"`
	Legends   []LegendEntry `json:"legends" yaml:"legends,omitempty" msgpack:"legends"`
	UpdatedAt time.Time     `json:"updatedAt" yaml:"-" msgpack:"updatedAt"`
}

// Slots returns pointers to the primary slot followed by the extra slots.
func (l *Layer) Slots() []*StyleSlot {
	slots := make([]*StyleSlot, 0, 1+len(l.Extras))
	slots = append(slots, &l.Main)
	for i := range l.Extras {
		slots = append(slots, &l.Extras[i])
	}
	return slots
}

// Clone returns a deep copy of the layer. Nothing reachable from the copy is
// shared with l.
func (l *Layer) Clone() *Layer {
	c := *l
	c.Main = l.Main.Clone()
	if l.Extras != nil {
		c.Extras = make([]StyleSlot, len(l.Extras))
		for i := range l.Extras {
			c.Extras[i] = l.Extras[i].Clone()
		}
	}
	if l.Legends != nil {
		c.Legends = make([]LegendEntry, len(l.Legends))
		for i := range l.Legends {
			c.Legends[i] = l.Legends[i].Clone()
		}
	}
	return &c
}

// FeatureValue is one numeric property value of a feature, as loaded into the
// analytics store. A nil Value is a feature without a value for the field.
type FeatureValue struct {
	FeatureID string   `json:"featureId" yaml:"featureId" msgpack:"featureId"`
	Value     *float64 `json:"value" yaml:"value" msgpack:"value"`
}
