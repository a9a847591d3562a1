// mock_aggregator.go - Scriptable aggregation provider for testing
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/geo-visualizer/backend/internal/classify"
)

// ErrInjected is the default error returned by a MockAggregator set to fail.
var ErrInjected = errors.New("injected aggregation failure")

// MockAggregator implements classify.Provider with canned answers per field.
type MockAggregator struct {
	mu sync.Mutex

	Extents         map[string]classify.Extent
	PositiveExtents map[string]classify.Extent
	Quantiles       map[string][]classify.Partition
	Clusters        map[string][]classify.Partition

	// Err, when set, is returned by every call.
	Err error

	calls []string
}

// NewMockAggregator creates an empty mock. Unknown fields behave as fields
// without any value.
func NewMockAggregator() *MockAggregator {
	return &MockAggregator{
		Extents:         make(map[string]classify.Extent),
		PositiveExtents: make(map[string]classify.Extent),
		Quantiles:       make(map[string][]classify.Partition),
		Clusters:        make(map[string][]classify.Partition),
	}
}

// record logs the call and returns the injected error. The caller must hold m.mu.
func (m *MockAggregator) record(call string) error {
	m.calls = append(m.calls, call)
	return m.Err
}

func (m *MockAggregator) MinMax(ctx context.Context, layerID, field string) (classify.Extent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("MinMax:" + field); err != nil {
		return classify.Extent{}, err
	}
	return m.Extents[field], nil
}

func (m *MockAggregator) PositiveMinMax(ctx context.Context, layerID, field string) (classify.Extent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("PositiveMinMax:" + field); err != nil {
		return classify.Extent{}, err
	}
	return m.PositiveExtents[field], nil
}

func (m *MockAggregator) QuantilePartitions(ctx context.Context, layerID, field string, k int) ([]classify.Partition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("QuantilePartitions:" + field); err != nil {
		return nil, err
	}
	return m.Quantiles[field], nil
}

func (m *MockAggregator) JenksClusters(ctx context.Context, layerID, field string, k int) ([]classify.Partition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("JenksClusters:" + field); err != nil {
		return nil, err
	}
	return m.Clusters[field], nil
}

// Ensure MockAggregator implements classify.Provider
var _ classify.Provider = (*MockAggregator)(nil)

// Test Helper Methods

// SetRange registers the same extent for MinMax and PositiveMinMax.
func (m *MockAggregator) SetRange(field string, min, max float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ext := classify.Extent{Valid: true, Min: min, Max: max}
	m.Extents[field] = ext
	m.PositiveExtents[field] = ext
}

// Calls returns the calls received so far, as "Method:field".
func (m *MockAggregator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
