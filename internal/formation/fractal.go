package formation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FractalDimension returns the Katz fractal dimension of the curve (i, v[i])
// with unit spacing between samples:
//
//	D = log10(n) / (log10(n) + log10(d/L))
//
// where n is the number of steps, L the total curve length and d the largest
// distance from the first point. Values are min-max rescaled to [0, 1] first,
// so the result does not depend on the units of the series and is never below 1.
// Straight lines, including constant windows, give exactly 1; the dimension
// grows with the irregularity of the curve. Windows with fewer than two
// samples return 1.
func FractalDimension(values []float64) float64 {
	n := len(values) - 1
	// A single step is always a straight segment.
	if n < 2 {
		return 1
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if hi-lo <= 0 {
		return 1
	}
	scale := 1 / (hi - lo)

	var length, extent float64
	for i := 1; i <= n; i++ {
		length += math.Hypot(1, (values[i]-values[i-1])*scale)
		if d := math.Hypot(float64(i), (values[i]-values[0])*scale); d > extent {
			extent = d
		}
	}
	steps := math.Log10(float64(n))
	return math.Max(1, steps/(steps+math.Log10(extent/length)))
}
