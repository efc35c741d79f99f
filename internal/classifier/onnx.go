package classifier

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/dataset"
	"github.com/himanishpuri/AcousticScene/pkg/logger"
)

var (
	onnxInitialized bool
	onnxInitMu      sync.Mutex
)

func initONNXRuntime(libPath string) error {
	onnxInitMu.Lock()
	defer onnxInitMu.Unlock()

	if onnxInitialized {
		return nil
	}
	if libPath == "" {
		libPath = os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if libPath != "" {
		logger.GetLogger().Debugf("Using ONNX Runtime library: %s", libPath)
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initializing onnx runtime: %w", err)
	}
	onnxInitialized = true
	return nil
}

type ONNXConfig struct {
	ModelPath   string
	LibraryPath string
	// InputName and OutputName default to the model's first input/output.
	InputName  string
	OutputName string
}

// ONNX runs a model taking a float32 [N, context, bins] input and producing
// [N, labels] probabilities.
type ONNX struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	input   string
	output  string
}

func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if err := initONNXRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has no inputs or outputs", cfg.ModelPath)
	}
	m := &ONNX{input: cfg.InputName, output: cfg.OutputName}
	if m.input == "" {
		m.input = inputs[0].Name
	}
	if m.output == "" {
		m.output = outputs[0].Name
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{m.input}, []string{m.output}, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	m.session = session
	logger.GetLogger().Infof("Loaded model %s (input %s, output %s)", cfg.ModelPath, m.input, m.output)
	return m, nil
}

func (m *ONNX) Predict(ctx context.Context, x *dataset.Tensor) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, fmt.Errorf("onnx session is closed")
	}

	shape := ort.NewShape(int64(x.N), int64(x.Context), int64(x.Bins))
	in, err := ort.NewTensor(shape, x.Float32())
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{in}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	data := out.GetData()
	if x.N == 0 || len(data)%x.N != 0 {
		return nil, fmt.Errorf("output of %d values does not split into %d rows", len(data), x.N)
	}
	labels := len(data) / x.N

	probs := mat.NewDense(x.N, labels, nil)
	for i := 0; i < x.N; i++ {
		for j := 0; j < labels; j++ {
			probs.Set(i, j, float64(data[i*labels+j]))
		}
	}
	return probs, nil
}

func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
