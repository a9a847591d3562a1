package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aclements/go-moremath/stats"
	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/models"
)

// ErrDuplicateFeature is returned by Load when a feature id appears twice.
var ErrDuplicateFeature = errors.New("duplicate feature id")

// Store is an aggregation provider that field values can be loaded into.
type Store interface {
	classify.Provider
	// Load replaces the values of field on layerID. On error the previous
	// values are kept.
	Load(ctx context.Context, layerID, field string, values []models.FeatureValue) error
	// DeleteLayer removes every value of layerID.
	DeleteLayer(ctx context.Context, layerID string) error
	Close() error
}

type column struct {
	sorted []float64
	nulls  int
}

// MemoryAggregator keeps field values in memory.
type MemoryAggregator struct {
	mu      sync.RWMutex
	columns map[string]*column
}

// NewMemoryAggregator creates an empty in-memory store.
func NewMemoryAggregator() *MemoryAggregator {
	return &MemoryAggregator{columns: make(map[string]*column)}
}

func columnKey(layerID, field string) string {
	return layerID + "::" + field
}

func (m *MemoryAggregator) Load(ctx context.Context, layerID, field string, values []models.FeatureValue) error {
	col := &column{sorted: make([]float64, 0, len(values))}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v.FeatureID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateFeature, v.FeatureID)
		}
		seen[v.FeatureID] = struct{}{}
		if v.Value == nil {
			col.nulls++
			continue
		}
		col.sorted = append(col.sorted, *v.Value)
	}
	sort.Float64s(col.sorted)

	m.mu.Lock()
	m.columns[columnKey(layerID, field)] = col
	m.mu.Unlock()
	return ctx.Err()
}

func (m *MemoryAggregator) DeleteLayer(ctx context.Context, layerID string) error {
	prefix := columnKey(layerID, "")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.columns {
		if strings.HasPrefix(key, prefix) {
			delete(m.columns, key)
		}
	}
	return nil
}

func (m *MemoryAggregator) column(layerID, field string) *column {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if col, ok := m.columns[columnKey(layerID, field)]; ok {
		return col
	}
	return &column{}
}

func extentOf(xs []float64, nulls int) classify.Extent {
	ext := classify.Extent{HasNull: nulls > 0}
	if len(xs) > 0 {
		ext.Valid = true
		ext.Min, ext.Max = stats.Bounds(xs)
	}
	return ext
}

func (m *MemoryAggregator) MinMax(ctx context.Context, layerID, field string) (classify.Extent, error) {
	col := m.column(layerID, field)
	return extentOf(col.sorted, col.nulls), ctx.Err()
}

func (m *MemoryAggregator) PositiveMinMax(ctx context.Context, layerID, field string) (classify.Extent, error) {
	col := m.column(layerID, field)
	i := sort.Search(len(col.sorted), func(i int) bool { return col.sorted[i] > 0 })
	return extentOf(col.sorted[i:], col.nulls), ctx.Err()
}

func (m *MemoryAggregator) QuantilePartitions(ctx context.Context, layerID, field string, k int) ([]classify.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ntile(m.column(layerID, field).sorted, k), nil
}

func (m *MemoryAggregator) JenksClusters(ctx context.Context, layerID, field string, k int) ([]classify.Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Cluster1D(m.column(layerID, field).sorted, k), nil
}

// Close releases nothing; it makes MemoryAggregator a Store.
func (m *MemoryAggregator) Close() error {
	return nil
}

var _ Store = (*MemoryAggregator)(nil)
