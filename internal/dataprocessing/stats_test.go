package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"growthdash/pkg/contracts/domain"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   domain.Value
	}{
		{"empty", nil, domain.Undefined()},
		{"single", []float64{7}, domain.Defined(7)},
		{"odd", []float64{9, 1, 5}, domain.Defined(5)},
		{"even", []float64{20, 10}, domain.Defined(15)},
		{"even unsorted", []float64{4, -2, 10, 1}, domain.Defined(2.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, median(tt.values))
		})
	}
}

func TestMedian_DoesNotSortInput(t *testing.T) {
	in := []float64{3, 1, 2}
	median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestMean(t *testing.T) {
	assert.Equal(t, domain.Undefined(), mean(nil))
	assert.Equal(t, domain.Defined(2), mean([]float64{1, 2, 3}))
}
