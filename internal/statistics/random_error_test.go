package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestValue(t *testing.T) {
	assert.InDelta(t, 1.001, BestValue([]float64{1.001, 1.002, 1.000}), 1e-12)
	assert.InDelta(t, 2.0, BestValue([]float64{1, 2, 3}), 1e-12)
}

func TestRandomError(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{name: "identical values", samples: []float64{5, 5, 5}, want: 0},
		{name: "identical values larger sample", samples: []float64{0.25, 0.25, 0.25, 0.25}, want: 0},
		{name: "unit spread", samples: []float64{1, 2, 3}, want: 1 / math.Sqrt(3)},
		{name: "millivolt spread", samples: []float64{1.001, 1.002, 1.000}, want: 0.001 / math.Sqrt(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RandomError(tt.samples), 1e-12)
		})
	}
}

func TestEstimateSample(t *testing.T) {
	est, err := EstimateSample([]float64{2.001, 2.002, 2.000})
	require.NoError(t, err)
	assert.Equal(t, 3, est.Samples)
	assert.InDelta(t, 2.001, est.BestValue, 1e-12)
	assert.InDelta(t, 0.001/math.Sqrt(3), est.RandomError, 1e-12)

	_, err = EstimateSample([]float64{1})
	assert.ErrorIs(t, err, ErrTooFewSamples)
}
