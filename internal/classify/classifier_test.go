package classify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_EqualInterval(t *testing.T) {
	agg := testutil.NewMockAggregator()
	agg.SetRange("population", 1, 2)
	c := classify.NewClassifier(agg)

	got, err := c.Classify(context.Background(), "layer-1", "population", 4, classify.EqualInterval)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 1.25, 1.5, 1.75, 2.0}, got)
}

func TestClassify_NoData(t *testing.T) {
	agg := testutil.NewMockAggregator()
	c := classify.NewClassifier(agg)

	for _, method := range []classify.Method{classify.EqualInterval, classify.Quantile, classify.Jenks} {
		t.Run(string(method), func(t *testing.T) {
			got, err := c.Classify(context.Background(), "layer-1", "empty", 3, method)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestClassify_Partitions(t *testing.T) {
	agg := testutil.NewMockAggregator()
	agg.Quantiles["area"] = []classify.Partition{{Min: 1, Max: 4}, {Min: 5, Max: 9}, {Min: 10, Max: 30}}
	agg.Clusters["area"] = []classify.Partition{{Min: 1, Max: 2}, {Min: 8, Max: 12}}
	c := classify.NewClassifier(agg)

	got, err := c.Classify(context.Background(), "layer-1", "area", 3, classify.Quantile)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5, 10, 30}, got)

	got, err = c.Classify(context.Background(), "layer-1", "area", 3, classify.Jenks)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 8, 12}, got)
}

func TestClassify_Errors(t *testing.T) {
	t.Run("unknown method", func(t *testing.T) {
		c := classify.NewClassifier(testutil.NewMockAggregator())
		_, err := c.Classify(context.Background(), "layer-1", "area", 3, classify.Method("head_tail"))
		assert.ErrorIs(t, err, classify.ErrUnknownMethod)
	})

	t.Run("provider failure", func(t *testing.T) {
		agg := testutil.NewMockAggregator()
		agg.Err = testutil.ErrInjected
		c := classify.NewClassifier(agg)
		_, err := c.Classify(context.Background(), "layer-1", "area", 3, classify.Quantile)
		require.Error(t, err)
		assert.True(t, errors.Is(err, classify.ErrAggregationProvider))
		assert.True(t, errors.Is(err, testutil.ErrInjected))
	})
}
