package model

// WindowSize is the number of samples per waveform the network was trained on.
const WindowSize = 125

// Physiologically plausible bounds for the mean BP output, in mmHg.
const (
	MinBP = 50.0
	MaxBP = 200.0
)

type PredictionRequest struct {
	PPG []float64 `json:"ppg"`
	ECG []float64 `json:"ecg"`
}

type PredictionResponse struct {
	MeanBP  float64 `json:"mean_bp"`
	Status  string  `json:"status"`
	Details Details `json:"details"`
}

// Details is diagnostic output only. Consumers should rely on MeanBP.
type Details struct {
	NormalizedPrediction float64  `json:"normalized_prediction"`
	PPGInputRange        Range    `json:"ppg_input_range"`
	ECGInputRange        Range    `json:"ecg_input_range"`
	PPGNormalizedRange   Range    `json:"ppg_normalized_range"`
	ECGNormalizedRange   Range    `json:"ecg_normalized_range"`
	Heuristic            Estimate `json:"heuristic_estimate"`
}

// Range is encoded as a two element [min, max] array.
type Range [2]float64

func (r Range) Min() float64 { return r[0] }
func (r Range) Max() float64 { return r[1] }

type Info struct {
	Service       string            `json:"service"`
	Status        string            `json:"status"`
	Model         string            `json:"model"`
	Engine        string            `json:"engine"`
	Normalization map[string]string `json:"normalization"`
	BPRange       Range             `json:"bp_range"`
}

type Health struct {
	Status             string `json:"status"`
	ModelLoaded        bool   `json:"model_loaded"`
	StatsLoaded        bool   `json:"stats_loaded"`
	Engine             string `json:"engine"`
	NormalizationStats Stats  `json:"normalization_stats"`
}
