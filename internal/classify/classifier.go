// Package classify computes class boundaries for numeric layer fields and
// rounds them to visually clean values.
package classify

import (
	"context"
	"errors"
	"fmt"
)

// Method is a classification method.
type Method string

const (
	EqualInterval Method = "equal_interval"
	Quantile      Method = "quantile"
	Jenks         Method = "jenks"
)

var (
	// ErrUnknownMethod is returned for a classification method the classifier does not implement.
	ErrUnknownMethod = errors.New("unknown classification method")
	// ErrAggregationProvider wraps any failure of the aggregation provider.
	ErrAggregationProvider = errors.New("aggregation provider failure")
)

// Classifier computes boundaries through an aggregation Provider.
type Classifier struct {
	provider Provider
}

// NewClassifier creates a classifier backed by p.
func NewClassifier(p Provider) *Classifier {
	return &Classifier{provider: p}
}

// Provider returns the aggregation provider of the classifier.
func (c *Classifier) Provider() Provider {
	return c.provider
}

// Classify returns the N+1 boundaries of N classes of field. A nil result
// with a nil error means the field holds no usable value.
func (c *Classifier) Classify(ctx context.Context, layerID, field string, classes int, method Method) ([]float64, error) {
	switch method {
	case EqualInterval:
		ext, err := c.provider.MinMax(ctx, layerID, field)
		if err != nil {
			return nil, fmt.Errorf("%w: min/max of %q: %w", ErrAggregationProvider, field, err)
		}
		return equalInterval(ext, classes), nil
	case Quantile:
		parts, err := c.provider.QuantilePartitions(ctx, layerID, field, classes)
		if err != nil {
			return nil, fmt.Errorf("%w: quantiles of %q: %w", ErrAggregationProvider, field, err)
		}
		return partitionBoundaries(parts), nil
	case Jenks:
		parts, err := c.provider.JenksClusters(ctx, layerID, field, classes)
		if err != nil {
			return nil, fmt.Errorf("%w: jenks clusters of %q: %w", ErrAggregationProvider, field, err)
		}
		return partitionBoundaries(parts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

func equalInterval(ext Extent, classes int) []float64 {
	if !ext.Valid || classes < 1 {
		return nil
	}
	step := (ext.Max - ext.Min) / float64(classes)
	boundaries := make([]float64, classes+1)
	for i := range boundaries {
		boundaries[i] = ext.Min + float64(i)*step
	}
	// min + k*step can drift from max by one ulp
	boundaries[classes] = ext.Max
	return boundaries
}

// partitionBoundaries turns ordered partitions into each partition's min plus
// the last partition's max.
func partitionBoundaries(parts []Partition) []float64 {
	if len(parts) == 0 {
		return nil
	}
	boundaries := make([]float64, 0, len(parts)+1)
	for _, p := range parts {
		boundaries = append(boundaries, p.Min)
	}
	return append(boundaries, parts[len(parts)-1].Max)
}
