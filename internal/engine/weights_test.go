package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// header returns the blob prefix announcing count tensors.
func header(count uint32) []byte {
	b := append([]byte(weightsMagic), 1, 0, 0, 0)
	return append(b, byte(count), byte(count>>8), byte(count>>16), byte(count>>24))
}

func TestWeightsRoundTrip(t *testing.T) {
	in := randomWeights(2)
	var buf bytes.Buffer
	if err := WriteWeights(&buf, in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := ReadWeights(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Tensors) != len(Topology) {
		t.Fatalf("expected %d tensors, got %d", len(Topology), len(out.Tensors))
	}
	if err := CheckTopology(out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, _ := in.Get("lstm.weight_hh_l0_reverse")
	b, _ := out.Get("lstm.weight_hh_l0_reverse")
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("value %d differs: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestReadWeightsRejectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWeights(&buf, randomWeights(4)); err != nil {
		t.Fatal(err)
	}
	valid := buf.Bytes()

	cases := map[string][]byte{
		"empty":      nil,
		"bad magic":  append([]byte("NOPE"), valid[4:]...),
		"truncated":  valid[:len(valid)/2],
		"version":    append(append([]byte(weightsMagic), 9, 0, 0, 0), valid[8:]...),
		"count":      header(0xffffffff),
		"no tensors": header(1),
		"wrapping dims": append(header(1),
			1, 0, 'x', // name
			4, 0, 0, 0, // rank
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff),
		"oversized tensor": append(header(1),
			1, 0, 'x',
			2, 0, 0, 0,
			0, 0x10, 0, 0, // 4096
			0, 0x20, 0, 0), // 8192
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadWeights(bytes.NewReader(data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCheckTopology(t *testing.T) {
	w := randomWeights(6)
	w.Tensors = w.Tensors[:len(w.Tensors)-1]
	if err := CheckTopology(w); err == nil || !strings.Contains(err.Error(), "fc.bias") {
		t.Fatalf("expected missing fc.bias error, got %v", err)
	}

	w = randomWeights(6)
	w.Tensors[0].Shape = []int{32, 5, 2}
	if err := CheckTopology(w); err == nil || !strings.Contains(err.Error(), "conv1.weight") {
		t.Fatalf("expected shape error, got %v", err)
	}
	if _, err := NewNative(w); err == nil {
		t.Fatal("NewNative should reject a mismatched topology")
	}
}

func TestWriteWeightsShapeMismatch(t *testing.T) {
	w := &Weights{Tensors: []Tensor{{Name: "x", Shape: []int{2, 2}, Data: []float32{1}}}}
	if err := WriteWeights(&bytes.Buffer{}, w); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(FormatNative, filepath.Join(t.TempDir(), "nope.bpw"), ONNXOptions{}); err == nil {
		t.Fatal("expected error for missing weights")
	}
	if _, err := Open("tflite", "model.tflite", ONNXOptions{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestResolveFormat(t *testing.T) {
	cases := []struct{ format, path, want string }{
		{"", "models/bp.onnx", FormatONNX},
		{"auto", "models/BP.ONNX", FormatONNX},
		{"auto", "models/bp.bpw", FormatNative},
		{"Native", "models/bp.onnx", FormatNative},
	}
	for _, c := range cases {
		if got := resolveFormat(c.format, c.path); got != c.want {
			t.Errorf("resolveFormat(%q, %q) = %q, want %q", c.format, c.path, got, c.want)
		}
	}
}
