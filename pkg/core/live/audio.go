package live

import "math"

// BlockRMS computes the root-mean-square energy of one microphone block.
// Returns a value between 0.0 and 1.0.
func BlockRMS(block []float32) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range block {
		s := float64(sample)
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(block)))
}

// BlockPeak returns the maximum absolute amplitude in one microphone block.
// Returns a value between 0.0 and 1.0; clipped input may exceed 1.0.
func BlockPeak(block []float32) float64 {
	var peak float64
	for _, sample := range block {
		abs := math.Abs(float64(sample))
		if abs > peak {
			peak = abs
		}
	}
	return peak
}
