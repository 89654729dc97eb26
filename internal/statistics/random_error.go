// Package statistics estimates the best value and random error of a small sample of
// repeated readings.
package statistics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrTooFewSamples is returned when a sample is too small for a standard deviation.
var ErrTooFewSamples = errors.New("at least 2 samples are required")

// rectangularFactor scales the standard deviation under a rectangular distribution.
var rectangularFactor = math.Sqrt(3)

// Estimate is the point estimate and random error of one sample.
type Estimate struct {
	BestValue   float64
	RandomError float64
	Samples     int
}

// BestValue returns the arithmetic mean of samples.
func BestValue(samples []float64) float64 {
	return stat.Mean(samples, nil)
}

// RandomError returns the sample standard deviation (n-1 divisor) divided by √3.
func RandomError(samples []float64) float64 {
	return stat.StdDev(samples, nil) / rectangularFactor
}

// EstimateSample computes both statistics, refusing samples smaller than two.
func EstimateSample(samples []float64) (Estimate, error) {
	if len(samples) < 2 {
		return Estimate{}, fmt.Errorf("estimate random error of %d samples: %w", len(samples), ErrTooFewSamples)
	}
	return Estimate{
		BestValue:   BestValue(samples),
		RandomError: RandomError(samples),
		Samples:     len(samples),
	}, nil
}
