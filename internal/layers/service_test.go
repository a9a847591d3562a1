package layers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/models"
	"github.com/geo-visualizer/backend/internal/style"
	"github.com/geo-visualizer/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func createTestService(t *testing.T) (*Service, *FileStore, *testutil.MockAggregator) {
	t.Helper()
	store, _ := createTestStore(t)
	agg := testutil.NewMockAggregator()
	log := zaptest.NewLogger(t)
	compiler := style.NewCompiler(classify.NewClassifier(agg), style.DefaultOptions(), log)
	svc := NewService(store, compiler, log)

	n := 0
	svc.newUID = func() string {
		n++
		return fmt.Sprintf("uid-%d", n)
	}
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store, agg
}

func graduatedLayer(id string) *models.Layer {
	return &models.Layer{
		ID:   id,
		Name: "Density",
		Main: models.StyleSlot{
			StyleConfig: models.StyleConfig{
				MapStyleType: "fill",
				Style: map[string]models.PropertyEncoding{
					"fill_color": {
						Type:           models.EncodingVariable,
						Field:          "density",
						Analysis:       models.AnalysisGraduated,
						Boundaries:     []float64{0, 10, 20},
						Values:         []any{"#fee", "#f00"},
						GenerateLegend: true,
					},
				},
			},
		},
	}
}

func TestService_Save(t *testing.T) {
	svc, store, _ := createTestService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, graduatedLayer("density"), SaveOptions{})
	require.NoError(t, err)

	assert.Equal(t, "uid-1", saved.Main.UID, "slot uid assigned")
	require.NotNil(t, saved.Main.Style)
	assert.Contains(t, saved.Main.Style.Paint, "fill-color")
	require.Len(t, saved.Legends, 1)
	assert.Equal(t, "uid-1__fill_color", saved.Legends[0].UID)
	assert.Equal(t, "Density", saved.Legends[0].Title)
	assert.True(t, saved.Legends[0].Auto)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), saved.UpdatedAt)

	stored, err := store.Get("density")
	require.NoError(t, err)
	assert.Equal(t, saved.Legends, stored.Legends)
	assert.Equal(t, "uid-1", stored.Main.UID)
}

func TestService_SaveTwiceKeepsLegend(t *testing.T) {
	svc, _, _ := createTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, graduatedLayer("density"), SaveOptions{})
	require.NoError(t, err)

	edited := first.Clone()
	enc := edited.Main.StyleConfig.Style["fill_color"]
	enc.Values = []any{"#eef", "#00f"}
	edited.Main.StyleConfig.Style = map[string]models.PropertyEncoding{"fill_color": enc}

	second, err := svc.Save(ctx, edited, SaveOptions{})
	require.NoError(t, err)
	require.Len(t, second.Legends, 1)
	assert.Equal(t, first.Legends[0].UID, second.Legends[0].UID)
	assert.Equal(t, "#00f", second.Legends[0].Items[0].Color)
}

func TestService_SaveRemovedEncoding(t *testing.T) {
	for _, preserve := range []bool{false, true} {
		t.Run(fmt.Sprintf("preserve=%v", preserve), func(t *testing.T) {
			svc, _, _ := createTestService(t)
			ctx := context.Background()

			first, err := svc.Save(ctx, graduatedLayer("density"), SaveOptions{})
			require.NoError(t, err)

			edited := first.Clone()
			enc := edited.Main.StyleConfig.Style["fill_color"]
			enc.GenerateLegend = false
			edited.Main.StyleConfig.Style = map[string]models.PropertyEncoding{"fill_color": enc}

			second, err := svc.Save(ctx, edited, SaveOptions{PreserveLegends: preserve})
			require.NoError(t, err)
			if !preserve {
				assert.Empty(t, second.Legends)
				return
			}
			require.Len(t, second.Legends, 1)
			assert.False(t, second.Legends[0].Auto)
			assert.Equal(t, "uid-2", second.Legends[0].UID)
		})
	}
}

func TestService_SaveFailureLeavesStoreUntouched(t *testing.T) {
	svc, store, agg := createTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, graduatedLayer("density"), SaveOptions{})
	require.NoError(t, err)
	before, err := store.Get("density")
	require.NoError(t, err)

	broken := graduatedLayer("density")
	broken.Name = "Renamed"
	broken.Extras = []models.StyleSlot{{
		UID: "extra",
		StyleConfig: models.StyleConfig{
			MapStyleType: "circle",
			Style: map[string]models.PropertyEncoding{
				"circle_radius": {Type: models.EncodingVariable, Field: "pop", Analysis: models.AnalysisProportional, MaxRadius: 20},
			},
		},
	}}
	agg.Err = testutil.ErrInjected

	_, err = svc.Save(ctx, broken, SaveOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, classify.ErrAggregationProvider)

	after, err := store.Get("density")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_SaveInvalidID(t *testing.T) {
	svc, _, _ := createTestService(t)
	_, err := svc.Save(context.Background(), graduatedLayer("../x"), SaveOptions{})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestService_Preview(t *testing.T) {
	svc, store, agg := createTestService(t)
	agg.SetRange("pop", 1, 100)

	tree, frags, err := svc.Preview(context.Background(), "cities", models.StyleSlot{
		UID: "s",
		StyleConfig: models.StyleConfig{
			MapStyleType: "circle",
			Style: map[string]models.PropertyEncoding{
				"circle_radius": {Type: models.EncodingVariable, Field: "pop", Analysis: models.AnalysisProportional, MaxRadius: 20, GenerateLegend: true},
			},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, tree.Paint, "circle-radius")
	require.Len(t, frags, 1)
	assert.Equal(t, models.ShapeStackedCircle, frags[0].Shape)

	list, err := store.List(0)
	require.NoError(t, err)
	assert.Empty(t, list, "preview stores nothing")
}

func TestService_Delete(t *testing.T) {
	svc, _, _ := createTestService(t)
	ctx := context.Background()
	_, err := svc.Save(ctx, graduatedLayer("density"), SaveOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete("density"))
	_, err = svc.Get("density")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_SaveKeepsManualLegends(t *testing.T) {
	svc, store, _ := createTestService(t)
	ctx := context.Background()

	layer := graduatedLayer("roads")
	layer.Legends = []models.LegendEntry{{UID: "manual-1", Title: "Hand made", Shape: models.ShapeLine}}
	saved, err := svc.Save(ctx, layer, SaveOptions{})
	require.NoError(t, err)
	require.Len(t, saved.Legends, 2)
	assert.Equal(t, "Hand made", saved.Legends[0].Title)
	assert.False(t, saved.Legends[0].Auto)
	assert.Equal(t, "Density", saved.Legends[1].Title)

	// recompiling without legends in the input keeps the stored list
	again, err := svc.Save(ctx, graduatedLayer("roads"), SaveOptions{})
	require.NoError(t, err)
	require.Len(t, again.Legends, 2)
	assert.Equal(t, "manual-1", again.Legends[0].UID)

	// an operator retitles the auto entry
	edited := again.Clone()
	edited.Legends[1].Title = "Traffic density"
	edited.Legends[1].Items = nil
	third, err := svc.Save(ctx, edited, SaveOptions{})
	require.NoError(t, err)
	require.Len(t, third.Legends, 2)
	assert.Equal(t, "Traffic density", third.Legends[1].Title)
	assert.Len(t, third.Legends[1].Items, 2)

	stored, err := store.Get("roads")
	require.NoError(t, err)
	assert.Equal(t, third.Legends, stored.Legends)
}
