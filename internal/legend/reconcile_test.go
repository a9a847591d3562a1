package legend

import (
	"fmt"
	"testing"

	"github.com/geo-visualizer/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialUIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("uid-%d", n)
	}
}

func colorFragment(uid, color string) models.LegendFragment {
	return models.LegendFragment{
		UID:   uid,
		Shape: models.ShapeSquare,
		Items: []models.LegendItem{{Color: color}},
	}
}

func variableConfig(props ...string) models.StyleConfig {
	cfg := models.StyleConfig{MapStyleType: "fill", Style: map[string]models.PropertyEncoding{}}
	for _, p := range props {
		cfg.Style[p] = models.PropertyEncoding{Type: models.EncodingVariable, Field: "f"}
	}
	return cfg
}

func TestReconcile_NewEntries(t *testing.T) {
	got := Reconcile(nil,
		[]models.LegendFragment{colorFragment("s1__fill_color", "#f00"), colorFragment("s2__line_color", "#0f0")},
		map[string]models.StyleConfig{"s1": variableConfig("fill_color")},
		Options{Title: "Parcels"})

	require.Len(t, got, 2)
	assert.Equal(t, "s1__fill_color", got[0].UID)
	assert.Equal(t, "Parcels", got[0].Title)
	assert.True(t, got[0].Auto)
	assert.False(t, got[0].NotUpdated)
	assert.Equal(t, "s2__line_color", got[1].UID)
}

func TestReconcile_SameUIDUpdatedInPlace(t *testing.T) {
	live := map[string]models.StyleConfig{"s1": variableConfig("fill_color")}

	first := Reconcile(nil, []models.LegendFragment{colorFragment("s1__fill_color", "#f00")}, live, Options{Title: "Parcels"})
	first[0].Title = "Renamed by hand"

	second := Reconcile(first, []models.LegendFragment{colorFragment("s1__fill_color", "#00f")}, live, Options{Title: "Parcels"})

	require.Len(t, second, 1, "updated, not duplicated")
	assert.Equal(t, "s1__fill_color", second[0].UID)
	assert.Equal(t, "#00f", second[0].Items[0].Color)
	assert.Equal(t, "Renamed by hand", second[0].Title)
	assert.True(t, second[0].Auto)

	assert.Equal(t, "#f00", first[0].Items[0].Color, "old list is not modified")
}

func TestReconcile_RemovedEncoding(t *testing.T) {
	manual := models.LegendEntry{UID: "manual-1", Title: "Notes", Shape: models.ShapeSymbol}
	old := []models.LegendEntry{
		{UID: "s1__fill_color", Title: "Parcels", Shape: models.ShapeSquare, Items: []models.LegendItem{{Color: "#f00"}}, Auto: true},
		manual,
	}

	t.Run("dropped without preserve", func(t *testing.T) {
		live := map[string]models.StyleConfig{"s1": variableConfig("fill_color")}
		got := Reconcile(old, nil, live, Options{})
		require.Len(t, got, 1)
		assert.Equal(t, manual, got[0], "manual entries are always kept")
	})

	t.Run("demoted with preserve", func(t *testing.T) {
		live := map[string]models.StyleConfig{"s1": variableConfig("fill_color")}
		got := Reconcile(old, nil, live, Options{Preserve: true, NewUID: sequentialUIDs()})
		require.Len(t, got, 2)
		assert.Equal(t, "uid-1", got[0].UID)
		assert.False(t, got[0].Auto)
		assert.False(t, got[0].NotUpdated)
		assert.Equal(t, "Parcels", got[0].Title)
		assert.Equal(t, manual, got[1])
	})

	t.Run("dropped with preserve when slot is gone", func(t *testing.T) {
		got := Reconcile(old, nil, map[string]models.StyleConfig{}, Options{Preserve: true})
		require.Len(t, got, 1)
		assert.Equal(t, "manual-1", got[0].UID)
	})

	t.Run("dropped with preserve when property became fixed", func(t *testing.T) {
		cfg := variableConfig()
		cfg.Style["fill_color"] = models.PropertyEncoding{Type: models.EncodingFixed, Value: "#000"}
		got := Reconcile(old, nil, map[string]models.StyleConfig{"s1": cfg}, Options{Preserve: true})
		require.Len(t, got, 1)
	})

	t.Run("dropped with preserve when property is absent", func(t *testing.T) {
		got := Reconcile(old, nil, map[string]models.StyleConfig{"s1": variableConfig("fill_opacity")}, Options{Preserve: true})
		require.Len(t, got, 1)
	})
}

func TestReconcile_DemotedEntryIsNeverMatchedAgain(t *testing.T) {
	old := []models.LegendEntry{
		{UID: "s1__fill_color", Title: "Parcels", Shape: models.ShapeSquare, Auto: true},
	}
	live := map[string]models.StyleConfig{"s1": variableConfig("fill_color")}

	demoted := Reconcile(old, nil, live, Options{Preserve: true, NewUID: sequentialUIDs()})
	got := Reconcile(demoted, []models.LegendFragment{colorFragment("s1__fill_color", "#123")}, live, Options{Title: "Parcels"})

	require.Len(t, got, 2)
	assert.Equal(t, "uid-1", got[0].UID)
	assert.False(t, got[0].Auto)
	assert.Equal(t, "s1__fill_color", got[1].UID)
	assert.True(t, got[1].Auto)
}

func TestReconcile_Order(t *testing.T) {
	old := []models.LegendEntry{
		{UID: "s1__a_color", Auto: true},
		{UID: "m", Auto: false},
		{UID: "s1__b_color", Auto: true},
	}
	live := map[string]models.StyleConfig{"s1": variableConfig("a_color", "b_color")}
	got := Reconcile(old, []models.LegendFragment{
		colorFragment("s1__c_color", "#1"),
		colorFragment("s1__b_color", "#2"),
	}, live, Options{})

	uids := make([]string, len(got))
	for i, e := range got {
		uids[i] = e.UID
	}
	assert.Equal(t, []string{"m", "s1__b_color", "s1__c_color"}, uids)
}

func TestLiveSlots(t *testing.T) {
	layer := &models.Layer{
		Main:   models.StyleSlot{UID: "main", StyleConfig: variableConfig("fill_color")},
		Extras: []models.StyleSlot{{UID: "extra", StyleConfig: variableConfig("line_width")}},
	}
	live := LiveSlots(layer.Slots())
	require.Len(t, live, 2)
	assert.Equal(t, models.EncodingVariable, live["extra"].PropertyType("line_width"))
}

func TestApplyEdits(t *testing.T) {
	stored := []models.LegendEntry{
		{UID: "s1__fill_color", Title: "Parcels", Shape: models.ShapeSquare, Items: []models.LegendItem{{Color: "#f00"}}, Auto: true},
		{UID: "old-manual", Title: "Old", Shape: models.ShapeSquare},
		{UID: "s1__line_width", Title: "Parcels", Shape: models.ShapeLine, Auto: true},
	}

	t.Run("nil keeps stored", func(t *testing.T) {
		assert.Equal(t, stored, ApplyEdits(stored, nil, sequentialUIDs()))
	})

	t.Run("manual entries and titles", func(t *testing.T) {
		edited := []models.LegendEntry{
			{UID: "", Title: "Hand made", Shape: models.ShapeCircle, Items: []models.LegendItem{{Color: "#00f"}}},
			{UID: "s1__fill_color", Title: "Land use", Items: []models.LegendItem{{Color: "#bad"}}, Auto: true},
			{UID: "unknown__fill_color", Title: "Forged", Auto: true},
		}
		got := ApplyEdits(stored, edited, sequentialUIDs())
		require.Len(t, got, 3)

		assert.Equal(t, "uid-1", got[0].UID)
		assert.Equal(t, "Hand made", got[0].Title)
		assert.False(t, got[0].Auto)

		assert.Equal(t, "s1__fill_color", got[1].UID)
		assert.Equal(t, "Land use", got[1].Title)
		assert.Equal(t, "#f00", got[1].Items[0].Color, "auto items stay as stored")
		assert.True(t, got[1].Auto)

		assert.Equal(t, "s1__line_width", got[2].UID, "unmentioned auto entries are kept")
		assert.Equal(t, "Parcels", stored[0].Title, "stored is not modified")
	})

	t.Run("manual entry cannot take an auto uid", func(t *testing.T) {
		got := ApplyEdits(stored, []models.LegendEntry{{UID: "s1__line_width", Title: "Mine"}}, sequentialUIDs())
		require.Len(t, got, 3)
		assert.Equal(t, "uid-1", got[0].UID)
		assert.False(t, got[0].Auto)
	})

	t.Run("manual entries survive reconciliation", func(t *testing.T) {
		base := ApplyEdits(stored, []models.LegendEntry{{UID: "manual-1", Title: "Hand made"}}, sequentialUIDs())
		got := Reconcile(base, []models.LegendFragment{colorFragment("s1__fill_color", "#0f0")},
			map[string]models.StyleConfig{"s1": variableConfig("fill_color")}, Options{Title: "Parcels"})
		require.Len(t, got, 2)
		assert.Equal(t, "manual-1", got[0].UID)
		assert.Equal(t, "s1__fill_color", got[1].UID)
		assert.Equal(t, "#0f0", got[1].Items[0].Color)
	})
}
