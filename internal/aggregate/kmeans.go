// Package aggregate implements the aggregation providers classifying layer
// fields: a DuckDB analytics store and an in-memory one.
package aggregate

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
	"github.com/geo-visualizer/backend/internal/classify"
)

const maxLloydIterations = 100

// Cluster1D groups values into at most k natural clusters and returns their
// extents in increasing order. The number of clusters is min(k, number of
// distinct values). Seeds are spread over the quantiles of the distinct
// values so the result is deterministic.
func Cluster1D(values []float64, k int) []classify.Partition {
	if len(values) == 0 || k < 1 {
		return nil
	}
	xs := append([]float64(nil), values...)
	sort.Float64s(xs)

	distinct := distinctSorted(xs)
	if k > len(distinct) {
		k = len(distinct)
	}

	seeds := stats.Sample{Xs: distinct, Sorted: true}
	centroids := make([]float64, k)
	for i := range centroids {
		centroids[i] = seeds.Quantile((float64(i) + 0.5) / float64(k))
	}

	for iter := 0; iter < maxLloydIterations; iter++ {
		moved := false
		for i, g := range assign(xs, centroids) {
			if len(g) == 0 {
				continue
			}
			if m := stats.Mean(g); m != centroids[i] {
				centroids[i] = m
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	var parts []classify.Partition
	for _, g := range assign(xs, centroids) {
		if len(g) == 0 {
			continue
		}
		min, max := stats.Bounds(g)
		parts = append(parts, classify.Partition{Min: min, Max: max})
	}
	return parts
}

// assign splits sorted xs between sorted centroids, each value going to its
// nearest centroid. Ties go to the lower centroid.
func assign(xs, centroids []float64) [][]float64 {
	groups := make([][]float64, len(centroids))
	j, start := 0, 0
	for i, x := range xs {
		next := j
		for next+1 < len(centroids) && math.Abs(x-centroids[next+1]) < math.Abs(x-centroids[next]) {
			next++
		}
		if next != j {
			groups[j] = xs[start:i]
			j, start = next, i
		}
	}
	groups[j] = xs[start:]
	return groups
}

func distinctSorted(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}

// ntile splits sorted xs into k buckets the way SQL NTILE does: sizes differ
// by at most one, larger buckets first. Empty buckets are omitted.
func ntile(xs []float64, k int) []classify.Partition {
	if len(xs) == 0 || k < 1 {
		return nil
	}
	n := len(xs)
	size, extra := n/k, n%k
	var parts []classify.Partition
	for b, start := 0, 0; b < k && start < n; b++ {
		end := start + size
		if b < extra {
			end++
		}
		parts = append(parts, classify.Partition{Min: xs[start], Max: xs[end-1]})
		start = end
	}
	return parts
}
