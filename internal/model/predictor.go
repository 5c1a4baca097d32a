package model

import (
	"errors"
	"fmt"
	"math"
)

// Forwarder runs the trained network on one stacked (2, WindowSize) input,
// channel-major, and returns its single normalized output.
type Forwarder interface {
	Forward(input []float32) (float32, error)
}

// Predictor is the immutable per-process state: training statistics plus the
// network. It is safe for concurrent use as long as the Forwarder is.
type Predictor struct {
	stats   Stats
	forward Forwarder
	engine  string
}

func NewPredictor(stats Stats, f Forwarder) (*Predictor, error) {
	if f == nil {
		return nil, errors.New("predictor requires a forwarder")
	}
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	name := "custom"
	if n, ok := f.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return &Predictor{stats: stats, forward: f, engine: name}, nil
}

func (p *Predictor) Stats() Stats { return p.stats }

func (p *Predictor) Predict(req PredictionRequest) (*PredictionResponse, error) {
	if len(req.PPG) != WindowSize || len(req.ECG) != WindowSize {
		return nil, &ValidationError{Expected: WindowSize, PPGLen: len(req.PPG), ECGLen: len(req.ECG)}
	}

	ppg := NormalizePPG(req.PPG)
	ecg := NormalizeECG(req.ECG)

	y, err := p.forward.Forward(Stack(ppg, ecg))
	if err != nil {
		return nil, &ComputationError{Err: err}
	}
	normalized := float64(y)
	if math.IsNaN(normalized) || math.IsInf(normalized, 0) {
		return nil, &ComputationError{Err: fmt.Errorf("non-finite model output %v", normalized)}
	}

	meanBP := Clamp(p.stats.Denormalize(normalized))

	return &PredictionResponse{
		MeanBP: meanBP,
		Status: "success",
		Details: Details{
			NormalizedPrediction: normalized,
			PPGInputRange:        rangeOf(req.PPG),
			ECGInputRange:        rangeOf(req.ECG),
			PPGNormalizedRange:   rangeOf32(ppg),
			ECGNormalizedRange:   rangeOf32(ecg),
			Heuristic:            EstimatePressures(meanBP),
		},
	}, nil
}

func (p *Predictor) Info() Info {
	return Info{
		Service: "BP Prediction API",
		Status:  "running",
		Model:   "CNN-BiLSTM",
		Engine:  p.engine,
		Normalization: map[string]string{
			"ppg": "Min-Max [per-sample]",
			"ecg": "Z-score [per-sample, scaled by 2]",
			"bp":  fmt.Sprintf("Min-Max [%.1f, %.1f] mmHg", p.stats.BPMin, p.stats.BPMax),
		},
		BPRange: Range{p.stats.BPMin, p.stats.BPMax},
	}
}

func (p *Predictor) Health() Health {
	return Health{
		Status:             "healthy",
		ModelLoaded:        true,
		StatsLoaded:        true,
		Engine:             p.engine,
		NormalizationStats: p.stats,
	}
}
