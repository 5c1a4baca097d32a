package model

import (
	"math"
	"math/rand"
	"testing"
)

func randomWindow(r *rand.Rand, scale, offset float64) []float64 {
	xs := make([]float64, WindowSize)
	for i := range xs {
		xs[i] = offset + scale*r.NormFloat64()
	}
	return xs
}

func TestNormalizePPGRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 0; n < 50; n++ {
		out := NormalizePPG(randomWindow(r, 3, 1.5))
		lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
		for _, v := range out {
			if v < 0 || v > 1 {
				t.Fatalf("value %v outside [0, 1]", v)
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
		if lo != 0 || hi != 1 {
			t.Fatalf("expected range [0, 1], got [%v, %v]", lo, hi)
		}
	}
}

func TestNormalizePPGConstant(t *testing.T) {
	in := make([]float64, WindowSize)
	for i := range in {
		in[i] = 2.5
	}
	for i, v := range NormalizePPG(in) {
		if v != 0 {
			t.Fatalf("index %d: expected 0, got %v", i, v)
		}
	}
}

func TestNormalizeECGZeroMean(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	in := randomWindow(r, 0.4, 0.36)
	out := NormalizeECG(in)

	var sum, sq float64
	for _, v := range out {
		sum += float64(v)
	}
	mean := sum / float64(len(out))
	for _, v := range out {
		d := float64(v) - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(out)))

	if math.Abs(mean) > 1e-6 {
		t.Fatalf("expected zero mean, got %v", mean)
	}
	// Divided by twice the standard deviation.
	if math.Abs(std-0.5) > 1e-5 {
		t.Fatalf("expected std 0.5, got %v", std)
	}
}

func TestNormalizeECGConstant(t *testing.T) {
	in := make([]float64, WindowSize)
	for i := range in {
		in[i] = 1.0
	}
	for i, v := range NormalizeECG(in) {
		if v != 0 || math.IsNaN(float64(v)) {
			t.Fatalf("index %d: expected 0, got %v", i, v)
		}
	}
}

func TestStackChannelOrder(t *testing.T) {
	ppg := []float32{1, 2, 3}
	ecg := []float32{4, 5, 6}
	x := Stack(ppg, ecg)
	want := []float32{1, 2, 3, 4, 5, 6}
	if len(x) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(x))
	}
	for i := range want {
		if x[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], x[i])
		}
	}
}

func TestClamp(t *testing.T) {
	cases := map[float64]float64{
		-1000: MinBP,
		49.9:  MinBP,
		50:    50,
		120:   120,
		200:   200,
		200.1: MaxBP,
		1e9:   MaxBP,
	}
	for in, want := range cases {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestEstimatePressures(t *testing.T) {
	e := EstimatePressures(100)
	if e.SBP != 100 || e.DBP != 65 {
		t.Fatalf("unexpected estimate %+v", e)
	}
	if got := EstimatePressures(93.37).DBP; got != 60.7 {
		t.Fatalf("expected dbp rounded to 60.7, got %v", got)
	}
}

func TestNormalizeECGUsesPopulationStd(t *testing.T) {
	out := NormalizeECG([]float64{1, 2, 3, 4})
	want := -1.5 / ((math.Sqrt(1.25) + 1e-8) * 2)
	if math.Abs(float64(out[0])-want) > 1e-6 {
		t.Fatalf("expected %v, got %v", want, out[0])
	}
}
