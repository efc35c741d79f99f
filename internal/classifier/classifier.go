// Package classifier defines the prediction capability the evaluation
// pipeline consumes and its runtime-backed implementations.
package classifier

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/dataset"
)

// Classifier maps a context tensor of N windows to an (N x labels)
// probability matrix.
type Classifier interface {
	Predict(ctx context.Context, x *dataset.Tensor) (*mat.Dense, error)
}

// Func adapts a plain function to Classifier.
type Func func(ctx context.Context, x *dataset.Tensor) (*mat.Dense, error)

func (f Func) Predict(ctx context.Context, x *dataset.Tensor) (*mat.Dense, error) {
	return f(ctx, x)
}

// Load opens the model at path, choosing the runtime by extension. The
// returned closer releases runtime resources.
func Load(path string) (Classifier, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".onnx":
		m, err := NewONNX(ONNXConfig{ModelPath: path})
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported model format %q", filepath.Ext(path))
	}
}
