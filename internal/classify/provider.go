package classify

import "context"

// Extent is the result of a min/max aggregation over a field.
// Valid is false when the field has no (matching) non-null value.
type Extent struct {
	HasNull bool
	Valid   bool
	Min     float64
	Max     float64
}

// Partition is the value range of one group of ordered field values.
type Partition struct {
	Min float64
	Max float64
}

// Provider computes aggregates over the stored values of a layer field.
// Implementations own cancellation and timeouts through ctx.
type Provider interface {
	MinMax(ctx context.Context, layerID, field string) (Extent, error)
	PositiveMinMax(ctx context.Context, layerID, field string) (Extent, error)
	QuantilePartitions(ctx context.Context, layerID, field string, k int) ([]Partition, error)
	JenksClusters(ctx context.Context, layerID, field string, k int) ([]Partition, error)
}
