// Package legend merges the legend fragments of a compilation pass into the
// legend list stored on a layer.
package legend

import (
	"github.com/geo-visualizer/backend/internal/models"
	"github.com/geo-visualizer/backend/internal/style"
	"github.com/google/uuid"
)

// Options controls a reconciliation pass.
type Options struct {
	// Preserve demotes auto entries that are no longer generated into
	// manual entries instead of dropping them, when they still make sense.
	Preserve bool
	// Title is given to entries created by this pass, usually the layer name.
	Title string
	// NewUID generates the uid of demoted entries. Defaults to uuid.NewString.
	NewUID func() string
}

// Reconcile returns the legend list resulting from merging fragments into
// old. live maps the uid of every slot compiled in this pass to its
// configuration. old is not modified.
//
// Entries keep their position; entries created by this pass are appended in
// fragment order. An auto entry matched by a fragment uid is updated in place
// and keeps its title.
func Reconcile(old []models.LegendEntry, fragments []models.LegendFragment, live map[string]models.StyleConfig, opts Options) []models.LegendEntry {
	newUID := opts.NewUID
	if newUID == nil {
		newUID = uuid.NewString
	}

	entries := make([]models.LegendEntry, len(old))
	index := make(map[string]int, len(old)+len(fragments))
	for i, e := range old {
		e.NotUpdated = e.Auto
		entries[i] = e
		index[e.UID] = i
	}

	for _, f := range fragments {
		items := append([]models.LegendItem(nil), f.Items...)
		if i, ok := index[f.UID]; ok {
			entries[i].Shape = f.Shape
			entries[i].Items = items
			entries[i].NotUpdated = false
			continue
		}
		index[f.UID] = len(entries)
		entries = append(entries, models.LegendEntry{
			UID:   f.UID,
			Title: opts.Title,
			Shape: f.Shape,
			Items: items,
			Auto:  true,
		})
	}

	out := entries[:0]
	for _, e := range entries {
		switch {
		case !e.Auto, !e.NotUpdated:
			out = append(out, e)
		case opts.Preserve && demotable(e.UID, live):
			e.UID = newUID()
			e.Auto = false
			e.NotUpdated = false
			out = append(out, e)
		}
	}
	return out
}

// demotable reports whether the property a stale auto entry was generated
// for still exists with a data-driven encoding.
func demotable(uid string, live map[string]models.StyleConfig) bool {
	slotUID, property, ok := style.SplitLegendUID(uid)
	if !ok {
		return false
	}
	cfg, ok := live[slotUID]
	if !ok {
		return false
	}
	switch cfg.PropertyType(property) {
	case models.EncodingFixed, models.EncodingNone:
		return false
	}
	return true
}

// LiveSlots maps the uid of each slot to its configuration.
func LiveSlots(slots []*models.StyleSlot) map[string]models.StyleConfig {
	live := make(map[string]models.StyleConfig, len(slots))
	for _, s := range slots {
		live[s.UID] = s.StyleConfig
	}
	return live
}

// ApplyEdits merges the legend list sent by an operator into the stored one
// and returns the base list of the next reconciliation. A nil edited list
// keeps stored unchanged.
//
// Manual entries of edited replace the stored manual entries; missing uids
// are generated. An auto entry of edited only carries a title: the stored
// auto entry with that uid is kept with the new title and its own items.
// Auto entries unknown to the store are ignored, and stored auto entries that
// edited does not mention are kept after the edited ones.
func ApplyEdits(stored, edited []models.LegendEntry, newUID func() string) []models.LegendEntry {
	if edited == nil {
		return stored
	}
	if newUID == nil {
		newUID = uuid.NewString
	}

	autos := make(map[string]int, len(stored))
	for i, e := range stored {
		if e.Auto {
			autos[e.UID] = i
		}
	}

	out := make([]models.LegendEntry, 0, len(edited)+len(autos))
	used := make(map[string]bool, len(edited))
	for _, e := range edited {
		if !e.Auto {
			e = e.Clone()
			if e.UID == "" || used[e.UID] {
				e.UID = newUID()
			}
			if _, taken := autos[e.UID]; taken {
				e.UID = newUID()
			}
			e.NotUpdated = false
			used[e.UID] = true
			out = append(out, e)
			continue
		}
		i, ok := autos[e.UID]
		if !ok || used[e.UID] {
			continue
		}
		kept := stored[i].Clone()
		kept.Title = e.Title
		used[kept.UID] = true
		out = append(out, kept)
	}

	for _, e := range stored {
		if e.Auto && !used[e.UID] {
			out = append(out, e.Clone())
		}
	}
	return out
}
