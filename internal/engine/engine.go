// Package engine executes the fixed CNN-BiLSTM forward pass. Both engines
// take one channel-major (2, 125) input and return the single raw output.
package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	FormatAuto   = "auto"
	FormatONNX   = "onnx"
	FormatNative = "native"
)

// Engine is a loaded network plus the resources it holds.
type Engine interface {
	Name() string
	Forward(input []float32) (float32, error)
	Close() error
}

// Open loads the model at path. FormatAuto selects ONNX for .onnx files and
// the native engine for everything else.
func Open(format, path string, opts ONNXOptions) (Engine, error) {
	switch resolveFormat(format, path) {
	case FormatONNX:
		e, err := OpenONNX(path, opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	case FormatNative:
		e, err := OpenNative(path)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown model format %q", format)
	}
}

func resolveFormat(format, path string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != FormatAuto {
		return format
	}
	if strings.EqualFold(filepath.Ext(path), ".onnx") {
		return FormatONNX
	}
	return FormatNative
}
