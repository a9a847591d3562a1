// Package symbols picks reference values for proportional symbol legends.
//
// The selection follows "Self-Adjusting Legends for Proportional Symbol Maps"
// (Dykes, Wood & Slingsby): candidates are round numbers (5, 2.5, 1 times a
// power of ten) below the maximum, kept only when their symbols are far
// enough apart to be told from each other.
package symbols

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonPositiveMinimum is returned when candidates are requested for a
// range whose minimum is not strictly positive.
var ErrNonPositiveMinimum = errors.New("proportional symbol minimum must be positive")

var bases = []float64{5, 2.5, 1}

// CandidateValues returns round values strictly between min and max, in
// decreasing order.
func CandidateValues(min, max float64) ([]float64, error) {
	if min <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrNonPositiveMinimum, min)
	}
	if max <= min {
		return nil, nil
	}

	scale := 1.0
	for min*scale < 1 {
		scale *= 10
	}
	digits := int(math.Floor(math.Log10(max * scale)))

	var candidates []float64
	for {
		for _, base := range bases {
			v := base * math.Pow10(digits) / scale
			if v <= min {
				return candidates, nil
			}
			if v < max {
				candidates = append(candidates, v)
			}
		}
		digits--
	}
}

// SymbolHeight is the height of the symbol of value v when maxValue is drawn
// with maxSymbolSize. Symbol areas are proportional to values.
func SymbolHeight(v, maxValue, maxSymbolSize float64) float64 {
	if maxValue <= 0 {
		return 0
	}
	return math.Sqrt(v/math.Pi) * (maxSymbolSize / math.Sqrt(maxValue/math.Pi))
}

// FilterValues keeps the legible subset of candidates. candidates must be in
// decreasing order and start with the maximum, which is always kept.
func FilterValues(candidates []float64, maxValue, maxSymbolSize, minGap float64) []float64 {
	if len(candidates) == 0 {
		return nil
	}
	height := func(v float64) float64 {
		return SymbolHeight(v, maxValue, maxSymbolSize)
	}

	kept := []float64{candidates[0]}

	smallest := -1
	for i := len(candidates) - 1; i > 0; i-- {
		if height(candidates[i]) > minGap {
			smallest = i
			break
		}
	}
	if smallest < 0 {
		return kept
	}

	lastHeight := height(candidates[0])
	smallestHeight := height(candidates[smallest])
	for i := 1; i <= smallest; i++ {
		h := height(candidates[i])
		if lastHeight-h < minGap {
			continue
		}
		if i != smallest && h-smallestHeight < minGap {
			continue
		}
		kept = append(kept, candidates[i])
		lastHeight = h
	}
	return kept
}

// LinearSize scales v linearly so that max is drawn with maxSize.
func LinearSize(v, max, maxSize float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max * maxSize
}
