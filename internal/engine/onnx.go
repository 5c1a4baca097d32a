package engine

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu   sync.Mutex
	envRefs int
)

// ONNX runs an exported model through onnxruntime. It uses a dynamic session
// with per-call tensors, so concurrent Forward calls share no buffers.
type ONNX struct {
	session     *ort.DynamicAdvancedSession
	inputShape  ort.Shape
	outputShape ort.Shape
}

type ONNXOptions struct {
	// SharedLibrary overrides the onnxruntime shared library location.
	SharedLibrary string
	InputName     string
	OutputName    string
}

func OpenONNX(modelPath string, opts ONNXOptions) (*ONNX, error) {
	if opts.InputName == "" {
		opts.InputName = "input"
	}
	if opts.OutputName == "" {
		opts.OutputName = "output"
	}

	if err := acquireEnvironment(opts.SharedLibrary); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{opts.InputName}, []string{opts.OutputName}, nil)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{
		session:     session,
		inputShape:  ort.NewShape(1, InputChannels, InputSteps),
		outputShape: ort.NewShape(1, 1),
	}, nil
}

func (o *ONNX) Name() string { return "onnx" }

func (o *ONNX) Forward(input []float32) (float32, error) {
	if len(input) != InputChannels*InputSteps {
		return 0, fmt.Errorf("input has %d values, want %d", len(input), InputChannels*InputSteps)
	}

	data := make([]float32, len(input))
	copy(data, input)
	inputTensor, err := ort.NewTensor(o.inputShape, data)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](o.outputShape)
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := o.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	out := outputTensor.GetData()
	if len(out) != 1 {
		return 0, fmt.Errorf("unexpected output size %d", len(out))
	}
	return out[0], nil
}

func (o *ONNX) Close() error {
	var err error
	if o.session != nil {
		err = o.session.Destroy()
		o.session = nil
		releaseEnvironment()
	}
	return err
}

func acquireEnvironment(sharedLibrary string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if sharedLibrary != "" {
			ort.SetSharedLibraryPath(sharedLibrary)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs == 0 {
		ort.DestroyEnvironment()
	}
}
