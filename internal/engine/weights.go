package engine

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Weights blob layout, all little-endian:
//
//	magic   [4]byte "BPNW"
//	version uint32
//	count   uint32
//	count × { nameLen uint16, name, ndim uint32, dims [ndim]uint32, data [prod(dims)]float32 }
const (
	weightsMagic   = "BPNW"
	weightsVersion = 1

	maxTensors     = 64
	maxTensorElems = 1 << 24
)

type Tensor struct {
	Name  string
	Shape []int
	Data  []float32
}

func (t Tensor) size() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Weights is an ordered set of named tensors.
type Weights struct {
	Tensors []Tensor
}

func (w *Weights) Get(name string) (Tensor, bool) {
	for _, t := range w.Tensors {
		if t.Name == name {
			return t, true
		}
	}
	return Tensor{}, false
}

func ReadWeightsFile(path string) (*Weights, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights: %w", err)
	}
	defer f.Close()

	w, err := ReadWeights(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

func ReadWeights(r io.Reader) (*Weights, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read weights header: %w", err)
	}
	if string(magic[:]) != weightsMagic {
		return nil, errors.New("not a weights blob: bad magic")
	}

	var version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read weights version: %w", err)
	}
	if version != weightsVersion {
		return nil, fmt.Errorf("unsupported weights version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read tensor count: %w", err)
	}
	if count > maxTensors {
		return nil, fmt.Errorf("tensor count %d exceeds %d", count, maxTensors)
	}

	w := &Weights{}
	for i := uint32(0); i < count; i++ {
		t, err := readTensor(r)
		if err != nil {
			return nil, fmt.Errorf("tensor %d: %w", i, err)
		}
		w.Tensors = append(w.Tensors, t)
	}
	return w, nil
}

func readTensor(r io.Reader) (Tensor, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return Tensor{}, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return Tensor{}, err
	}

	var ndim uint32
	if err := binary.Read(r, binary.LittleEndian, &ndim); err != nil {
		return Tensor{}, err
	}
	if ndim == 0 || ndim > 4 {
		return Tensor{}, fmt.Errorf("%s: invalid rank %d", name, ndim)
	}
	dims := make([]uint32, ndim)
	if err := binary.Read(r, binary.LittleEndian, dims); err != nil {
		return Tensor{}, err
	}

	t := Tensor{Name: string(name), Shape: make([]int, ndim)}
	n := 1
	for i, d := range dims {
		// Bounded per dim so the running product cannot wrap.
		if d == 0 || d > maxTensorElems {
			return Tensor{}, fmt.Errorf("%s: invalid shape %v", t.Name, dims)
		}
		n *= int(d)
		if n > maxTensorElems {
			return Tensor{}, fmt.Errorf("%s: shape %v exceeds %d values", t.Name, dims, maxTensorElems)
		}
		t.Shape[i] = int(d)
	}
	t.Data = make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, t.Data); err != nil {
		return Tensor{}, fmt.Errorf("%s: %w", t.Name, err)
	}
	return t, nil
}

func WriteWeights(wr io.Writer, w *Weights) error {
	if _, err := io.WriteString(wr, weightsMagic); err != nil {
		return err
	}
	header := []uint32{weightsVersion, uint32(len(w.Tensors))}
	if err := binary.Write(wr, binary.LittleEndian, header); err != nil {
		return err
	}
	for _, t := range w.Tensors {
		if len(t.Data) != t.size() {
			return fmt.Errorf("%s: shape %v does not match %d values", t.Name, t.Shape, len(t.Data))
		}
		if err := binary.Write(wr, binary.LittleEndian, uint16(len(t.Name))); err != nil {
			return err
		}
		if _, err := io.WriteString(wr, t.Name); err != nil {
			return err
		}
		dims := make([]uint32, 0, len(t.Shape)+1)
		dims = append(dims, uint32(len(t.Shape)))
		for _, d := range t.Shape {
			dims = append(dims, uint32(d))
		}
		if err := binary.Write(wr, binary.LittleEndian, dims); err != nil {
			return err
		}
		if err := binary.Write(wr, binary.LittleEndian, t.Data); err != nil {
			return err
		}
	}
	return nil
}
