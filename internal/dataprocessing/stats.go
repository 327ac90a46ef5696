package dataprocessing

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"growthdash/pkg/contracts/domain"
)

// mean returns the arithmetic mean, undefined for no values
func mean(values []float64) domain.Value {
	if len(values) == 0 {
		return domain.Undefined()
	}
	return domain.Defined(stat.Mean(values, nil))
}

// median returns the middle value, or the mean of the two middle values for an
// even count. Undefined for no values. The input is not modified.
func median(values []float64) domain.Value {
	if len(values) == 0 {
		return domain.Undefined()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return domain.Defined((sorted[n/2-1] + sorted[n/2]) / 2)
	}
	return domain.Defined(sorted[n/2])
}
