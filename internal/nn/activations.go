package nn

import "math"

func invSqrt(v float32) float32 {
	return float32(1.0 / math.Sqrt(float64(v)))
}

// ReluInPlace applies the rectified linear activation to x.
func ReluInPlace(x []float32) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}
