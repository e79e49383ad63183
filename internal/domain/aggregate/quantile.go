package aggregate

import (
	"math"
	"sort"

	"github.com/okian/aqframes/internal/domain/model"
)

// whiskerSpan is the Tukey fence multiplier.
const whiskerSpan = 1.5

// Quantiles computes the box summary of values. Quartiles use linear
// interpolation at rank p*(n-1); whiskers are clamped to the observed range.
// values is not modified.
func Quantiles(values []float64) (model.BoxStats, error) {
	if len(values) == 0 {
		return model.BoxStats{}, ErrEmptyGroup
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	b := model.BoxStats{
		N:      len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
	}
	b.IQR = b.Q3 - b.Q1
	b.Lower = math.Max(b.Min, b.Q1-whiskerSpan*b.IQR)
	b.Upper = math.Min(b.Max, b.Q3+whiskerSpan*b.IQR)
	return b, nil
}

// quantile reads p from an ascending slice.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
