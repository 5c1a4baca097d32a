package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	ecgEpsilon = 1e-8
	// ecgScale matches the lighter z-score scaling used in training.
	ecgScale = 2.0
)

// NormalizePPG rescales the window to [0, 1] using its own min and max.
// A constant window yields all zeros.
func NormalizePPG(ppg []float64) []float32 {
	out := make([]float32, len(ppg))
	if len(ppg) == 0 {
		return out
	}
	lo, hi := floats.Min(ppg), floats.Max(ppg)
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range ppg {
		out[i] = float32((v - lo) / span)
	}
	return out
}

// NormalizeECG applies a per-window z-score divided by ecgScale.
// The epsilon is added to the population standard deviation.
func NormalizeECG(ecg []float64) []float32 {
	out := make([]float32, len(ecg))
	if len(ecg) == 0 {
		return out
	}
	// Population standard deviation, as numpy's np.std.
	mean, std := stat.PopMeanStdDev(ecg, nil)
	denom := (std + ecgEpsilon) * ecgScale
	for i, v := range ecg {
		out[i] = float32((v - mean) / denom)
	}
	return out
}

// Stack lays out the two channels channel-major: PPG is channel 0, ECG is
// channel 1. The trained weights depend on this order.
func Stack(ppg, ecg []float32) []float32 {
	x := make([]float32, 0, len(ppg)+len(ecg))
	x = append(x, ppg...)
	return append(x, ecg...)
}

func Clamp(bp float64) float64 {
	return math.Min(math.Max(bp, MinBP), MaxBP)
}

func rangeOf(xs []float64) Range {
	if len(xs) == 0 {
		return Range{}
	}
	return Range{floats.Min(xs), floats.Max(xs)}
}

func rangeOf32(xs []float32) Range {
	wide := make([]float64, len(xs))
	for i, v := range xs {
		wide[i] = float64(v)
	}
	return rangeOf(wide)
}
