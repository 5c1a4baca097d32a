package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Native executes the CNN-BiLSTM in Go from a weights blob. Forward holds no
// mutable state, so one Native serves concurrent callers.
type Native struct {
	conv1 conv1d
	conv2 conv1d
	fwd   lstmCell
	bwd   lstmCell
	fcW   *mat.VecDense
	fcB   float64
}

func OpenNative(path string) (*Native, error) {
	w, err := ReadWeightsFile(path)
	if err != nil {
		return nil, err
	}
	return NewNative(w)
}

func NewNative(w *Weights) (*Native, error) {
	if err := CheckTopology(w); err != nil {
		return nil, err
	}
	get := func(name string) []float64 {
		t, _ := w.Get(name)
		return widen(t.Data)
	}

	n := &Native{
		conv1: newConv1d(conv1Out, InputChannels, get("conv1.weight"), get("conv1.bias")),
		conv2: newConv1d(conv2Out, conv1Out, get("conv2.weight"), get("conv2.bias")),
		fwd: newLSTMCell(get("lstm.weight_ih_l0"), get("lstm.weight_hh_l0"),
			get("lstm.bias_ih_l0"), get("lstm.bias_hh_l0")),
		bwd: newLSTMCell(get("lstm.weight_ih_l0_reverse"), get("lstm.weight_hh_l0_reverse"),
			get("lstm.bias_ih_l0_reverse"), get("lstm.bias_hh_l0_reverse")),
		fcW: mat.NewVecDense(2*hiddenSize, get("fc.weight")),
		fcB: get("fc.bias")[0],
	}
	return n, nil
}

func (n *Native) Name() string { return "native" }

func (n *Native) Close() error { return nil }

func (n *Native) Forward(input []float32) (float32, error) {
	if len(input) != InputChannels*InputSteps {
		return 0, fmt.Errorf("input has %d values, want %d", len(input), InputChannels*InputSteps)
	}

	x := mat.NewDense(InputChannels, InputSteps, widen(input))
	x = n.conv1.apply(x)
	x = maxPool(n.conv2.apply(x), poolSize)

	_, steps := x.Dims()
	order := make([]int, steps)
	for t := range order {
		order[t] = t
	}
	hf := n.fwd.run(x, order)
	// The reverse direction's output at the last position is its first step.
	hb := n.bwd.run(x, []int{steps - 1})

	feat := mat.NewVecDense(2*hiddenSize, nil)
	for k := 0; k < hiddenSize; k++ {
		feat.SetVec(k, hf.AtVec(k))
		feat.SetVec(hiddenSize+k, hb.AtVec(k))
	}

	y := mat.Dot(n.fcW, feat) + n.fcB
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("forward pass produced %v", y)
	}
	return float32(y), nil
}

// conv1d is a stride-1 zero-padded convolution followed by ReLU. The weight
// is stored as out × (in·k), matching the row-major (out, in, k) layout.
type conv1d struct {
	w    *mat.Dense
	bias []float64
	k    int
	pad  int
}

func newConv1d(out, in int, weight, bias []float64) conv1d {
	return conv1d{
		w:    mat.NewDense(out, in*kernelSize, weight),
		bias: bias,
		k:    kernelSize,
		pad:  convPad,
	}
}

func (c conv1d) apply(x *mat.Dense) *mat.Dense {
	in, steps := x.Dims()
	cols := mat.NewDense(in*c.k, steps, nil)
	for i := 0; i < in; i++ {
		for j := 0; j < c.k; j++ {
			row := i*c.k + j
			for t := 0; t < steps; t++ {
				src := t + j - c.pad
				if src >= 0 && src < steps {
					cols.Set(row, t, x.At(i, src))
				}
			}
		}
	}

	var out mat.Dense
	out.Mul(c.w, cols)
	out.Apply(func(o, _ int, v float64) float64 {
		return math.Max(v+c.bias[o], 0)
	}, &out)
	return &out
}

// maxPool drops a trailing remainder, as MaxPool1d does by default.
func maxPool(x *mat.Dense, size int) *mat.Dense {
	ch, steps := x.Dims()
	outSteps := steps / size
	out := mat.NewDense(ch, outSteps, nil)
	for c := 0; c < ch; c++ {
		for t := 0; t < outSteps; t++ {
			m := x.At(c, t*size)
			for j := 1; j < size; j++ {
				m = math.Max(m, x.At(c, t*size+j))
			}
			out.Set(c, t, m)
		}
	}
	return out
}

// lstmCell holds one direction. Gate rows are ordered input, forget, cell,
// output.
type lstmCell struct {
	wih  *mat.Dense
	whh  *mat.Dense
	bias *mat.VecDense
}

func newLSTMCell(wih, whh, bih, bhh []float64) lstmCell {
	bias := mat.NewVecDense(gateCount*hiddenSize, nil)
	bias.AddVec(mat.NewVecDense(len(bih), bih), mat.NewVecDense(len(bhh), bhh))
	return lstmCell{
		wih:  mat.NewDense(gateCount*hiddenSize, conv2Out, wih),
		whh:  mat.NewDense(gateCount*hiddenSize, hiddenSize, whh),
		bias: bias,
	}
}

// run feeds the columns of x in the given order from a zero state and
// returns the final hidden state.
func (l lstmCell) run(x *mat.Dense, order []int) *mat.VecDense {
	h := mat.NewVecDense(hiddenSize, nil)
	c := make([]float64, hiddenSize)
	gates := mat.NewVecDense(gateCount*hiddenSize, nil)
	rec := mat.NewVecDense(gateCount*hiddenSize, nil)

	for _, t := range order {
		gates.MulVec(l.wih, x.ColView(t))
		rec.MulVec(l.whh, h)
		gates.AddVec(gates, rec)
		gates.AddVec(gates, l.bias)

		for k := 0; k < hiddenSize; k++ {
			i := sigmoid(gates.AtVec(k))
			f := sigmoid(gates.AtVec(hiddenSize + k))
			g := math.Tanh(gates.AtVec(2*hiddenSize + k))
			o := sigmoid(gates.AtVec(3*hiddenSize + k))
			c[k] = f*c[k] + i*g
			h.SetVec(k, o*math.Tanh(c[k]))
		}
	}
	return h
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

func widen(xs []float32) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = float64(v)
	}
	return out
}
