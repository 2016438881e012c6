package formation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Entropy returns the Shannon entropy, in bits, of the distribution of values.
// Values are binned into len(values) equal-width bins spanning [min, max], so the
// result is 0 for identical values and log2(len(values)) when every sample falls
// in its own bin.
func Entropy(values []float64) float64 {
	return EntropyBins(values, len(values))
}

// EntropyBins is Entropy with an explicit bin count.
// A value v lands in bin floor((v-min)/(max-min)·bins), the maximum going to the last bin.
func EntropyBins(values []float64, bins int) float64 {
	if len(values) < 2 || bins < 2 {
		return 0
	}

	lo, hi := floats.Min(values), floats.Max(values)
	width := hi - lo
	if width <= 0 {
		return 0
	}

	p := make([]float64, bins)
	for _, v := range values {
		b := int(math.Floor((v - lo) / width * float64(bins)))
		if b >= bins {
			b = bins - 1
		}
		p[b]++
	}
	floats.Scale(1/float64(len(values)), p)

	// stat.Entropy skips empty bins and reports nats.
	return stat.Entropy(p) / math.Ln2
}
