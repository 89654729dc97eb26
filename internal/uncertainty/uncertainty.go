// Package uncertainty combines random and systematic error and renders a measurement
// with precision matched to its error.
package uncertainty

import (
	"math"
	"strconv"
	"strings"
)

// PlusMinus separates a best value from its error in combined results.
const PlusMinus = " ± "

// TotalError adds independent random and systematic error in quadrature.
func TotalError(random, systematic float64) float64 {
	return math.Sqrt(random*random + systematic*systematic)
}

// DecimalPlaces is the number of decimals at which err is reported: one significant
// figure, or two when that figure is a 1. A zero (or non-finite) error reports one
// decimal.
func DecimalPlaces(err float64) int {
	if err == 0 || math.IsNaN(err) || math.IsInf(err, 0) {
		return 1
	}

	dp := int(-math.Floor(math.Log10(math.Abs(err))))
	if dp < 0 {
		dp = 0
	}

	sci := strconv.FormatFloat(err, 'e', dp+2, 64)
	digits := strings.TrimLeft(strings.ReplaceAll(strings.TrimLeft(sci, "-"), ".", ""), "0")
	if digits != "" && digits[0] == '1' {
		dp++
	}
	return dp
}

// FormatError renders err at DecimalPlaces(err) and returns the precision used.
func FormatError(err float64) (string, int) {
	dp := DecimalPlaces(err)
	return strconv.FormatFloat(err, 'f', dp, 64), dp
}

// FormatBestValue renders v with dp decimals.
func FormatBestValue(v float64, dp int) string {
	return strconv.FormatFloat(v, 'f', dp, 64)
}

// FormatResult renders "best ± err", followed by the unit when includeUnits is set
// and unit is non-empty.
func FormatResult(best, err float64, unit string, includeUnits bool) string {
	errStr, dp := FormatError(err)
	s := FormatBestValue(best, dp) + PlusMinus + errStr
	if includeUnits && unit != "" {
		s += " " + unit
	}
	return s
}
