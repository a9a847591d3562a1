package aggregate

import (
	"testing"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster1D(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		k      int
		want   []classify.Partition
	}{
		{
			name:   "separated groups",
			values: []float64{1000, 2, 101, 1, 3, 100, 1001, 102},
			k:      3,
			want:   []classify.Partition{{Min: 1, Max: 3}, {Min: 100, Max: 102}, {Min: 1000, Max: 1001}},
		},
		{
			name:   "fewer distinct values than clusters",
			values: []float64{1, 1, 2},
			k:      5,
			want:   []classify.Partition{{Min: 1, Max: 1}, {Min: 2, Max: 2}},
		},
		{
			name:   "single cluster",
			values: []float64{4, 8, 6},
			k:      1,
			want:   []classify.Partition{{Min: 4, Max: 8}},
		},
		{
			name:   "no values",
			values: nil,
			k:      3,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cluster1D(tt.values, tt.k))
		})
	}
}

func TestCluster1D_PartitionsAreOrderedAndDisjoint(t *testing.T) {
	values := []float64{-2, 0, 1, 3, 5, 8, 9, 10, 3, 5, 5, 7}
	parts := Cluster1D(values, 4)
	require.Len(t, parts, 4)
	assert.Equal(t, -2.0, parts[0].Min)
	assert.Equal(t, 10.0, parts[len(parts)-1].Max)
	for i := range parts {
		assert.LessOrEqual(t, parts[i].Min, parts[i].Max)
		if i > 0 {
			assert.Less(t, parts[i-1].Max, parts[i].Min)
		}
	}
}

func TestCluster1D_DoesNotModifyInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Cluster1D(values, 2)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestNtile(t *testing.T) {
	xs := []float64{-2, 0, 1, 3, 5, 8, 9, 10}
	assert.Equal(t,
		[]classify.Partition{{Min: -2, Max: 1}, {Min: 3, Max: 8}, {Min: 9, Max: 10}},
		ntile(xs, 3))
	assert.Equal(t,
		[]classify.Partition{{Min: 1, Max: 1}, {Min: 2, Max: 2}},
		ntile([]float64{1, 2}, 4), "no empty buckets")
	assert.Nil(t, ntile(nil, 4))
}
