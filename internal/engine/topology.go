package engine

import "fmt"

// Fixed CNN-BiLSTM topology the weights were trained for.
const (
	InputChannels = 2
	InputSteps    = 125

	conv1Out   = 32
	conv2Out   = 64
	kernelSize = 5
	convPad    = 2
	poolSize   = 2
	hiddenSize = 64
	gateCount  = 4
)

type tensorSpec struct {
	name  string
	shape []int
}

// Topology lists every tensor a weights blob must carry, in state dict order.
var Topology = []tensorSpec{
	{"conv1.weight", []int{conv1Out, InputChannels, kernelSize}},
	{"conv1.bias", []int{conv1Out}},
	{"conv2.weight", []int{conv2Out, conv1Out, kernelSize}},
	{"conv2.bias", []int{conv2Out}},
	{"lstm.weight_ih_l0", []int{gateCount * hiddenSize, conv2Out}},
	{"lstm.weight_hh_l0", []int{gateCount * hiddenSize, hiddenSize}},
	{"lstm.bias_ih_l0", []int{gateCount * hiddenSize}},
	{"lstm.bias_hh_l0", []int{gateCount * hiddenSize}},
	{"lstm.weight_ih_l0_reverse", []int{gateCount * hiddenSize, conv2Out}},
	{"lstm.weight_hh_l0_reverse", []int{gateCount * hiddenSize, hiddenSize}},
	{"lstm.bias_ih_l0_reverse", []int{gateCount * hiddenSize}},
	{"lstm.bias_hh_l0_reverse", []int{gateCount * hiddenSize}},
	{"fc.weight", []int{1, 2 * hiddenSize}},
	{"fc.bias", []int{1}},
}

// CheckTopology verifies that w carries every expected tensor with the
// expected shape.
func CheckTopology(w *Weights) error {
	for _, spec := range Topology {
		t, ok := w.Get(spec.name)
		if !ok {
			return fmt.Errorf("weights: missing tensor %q", spec.name)
		}
		if !sameShape(t.Shape, spec.shape) {
			return fmt.Errorf("weights: tensor %q has shape %v, want %v", spec.name, t.Shape, spec.shape)
		}
	}
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
