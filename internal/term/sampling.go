package term

import "math/rand"

// WeightedSample draws an index proportional to weights. Non-positive
// weights are treated as zero. If every weight is non-positive it
// returns ok=false so the caller can fall back to uniform sampling.
func WeightedSample(weights []float64) (index int, ok bool) {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1, false
	}
	r := rand.Float64() * total
	var cum float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		if r < cum {
			return i, true
		}
	}
	// Floating point rounding: return the last positive-weight candidate.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i, true
		}
	}
	return -1, false
}

// UniformSample draws an index uniformly at random from [0, n).
// Returns -1 if n <= 0.
func UniformSample(n int) int {
	if n <= 0 {
		return -1
	}
	return rand.Intn(n)
}
