package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Stats holds the normalization statistics recorded during training.
// Only the BP pair takes part in inference; the PPG and ECG values are kept
// for display because requests are normalized per sample.
type Stats struct {
	PPGMin  float64 `json:"ppg_min"`
	PPGMax  float64 `json:"ppg_max"`
	ECGMean float64 `json:"ecg_mean"`
	ECGStd  float64 `json:"ecg_std"`
	BPMin   float64 `json:"bp_min"`
	BPMax   float64 `json:"bp_max"`
}

// rawStats uses pointers so a missing field can be told apart from a zero.
type rawStats struct {
	PPGMin  *float64 `json:"ppg_min"`
	PPGMax  *float64 `json:"ppg_max"`
	ECGMean *float64 `json:"ecg_mean"`
	ECGStd  *float64 `json:"ecg_std"`
	BPMin   *float64 `json:"bp_min"`
	BPMax   *float64 `json:"bp_max"`
}

func LoadStats(path string) (Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read normalization stats: %w", err)
	}
	stats, err := ParseStats(data)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

// ParseStats decodes a statistics record and rejects it unless all six
// fields are present, finite and describe non-degenerate ranges.
func ParseStats(data []byte) (Stats, error) {
	var raw rawStats
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return Stats{}, fmt.Errorf("failed to parse normalization stats: %w", err)
	}

	fields := []struct {
		name string
		val  *float64
	}{
		{"ppg_min", raw.PPGMin},
		{"ppg_max", raw.PPGMax},
		{"ecg_mean", raw.ECGMean},
		{"ecg_std", raw.ECGStd},
		{"bp_min", raw.BPMin},
		{"bp_max", raw.BPMax},
	}
	for _, f := range fields {
		if f.val == nil {
			return Stats{}, fmt.Errorf("normalization stats: missing field %q", f.name)
		}
		if math.IsNaN(*f.val) || math.IsInf(*f.val, 0) {
			return Stats{}, fmt.Errorf("normalization stats: field %q is not finite", f.name)
		}
	}

	stats := Stats{
		PPGMin:  *raw.PPGMin,
		PPGMax:  *raw.PPGMax,
		ECGMean: *raw.ECGMean,
		ECGStd:  *raw.ECGStd,
		BPMin:   *raw.BPMin,
		BPMax:   *raw.BPMax,
	}
	if err := stats.Validate(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s Stats) Validate() error {
	if !(s.BPMax > s.BPMin) {
		return fmt.Errorf("normalization stats: bp_max (%g) must be greater than bp_min (%g)", s.BPMax, s.BPMin)
	}
	if !(s.PPGMax > s.PPGMin) {
		return fmt.Errorf("normalization stats: ppg_max (%g) must be greater than ppg_min (%g)", s.PPGMax, s.PPGMin)
	}
	return nil
}

// Denormalize maps a network output back to mmHg using the training BP range.
func (s Stats) Denormalize(y float64) float64 {
	return y*(s.BPMax-s.BPMin) + s.BPMin
}
