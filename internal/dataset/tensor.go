package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Tensor is a stack of context windows, shaped (N x Context x Bins) and
// stored row-major in Data.
type Tensor struct {
	N       int
	Context int
	Bins    int
	Data    []float64
}

// NewTensor allocates a zeroed tensor.
func NewTensor(n, context, bins int) *Tensor {
	return &Tensor{N: n, Context: context, Bins: bins, Data: make([]float64, n*context*bins)}
}

// Shape returns (N, Context, Bins).
func (t *Tensor) Shape() [3]int { return [3]int{t.N, t.Context, t.Bins} }

func (t *Tensor) offset(i, j, k int) int {
	return (i*t.Context+j)*t.Bins + k
}

func (t *Tensor) At(i, j, k int) float64 { return t.Data[t.offset(i, j, k)] }

// Window returns a copy of window i as a (Context x Bins) matrix.
func (t *Tensor) Window(i int) *mat.Dense {
	if i < 0 || i >= t.N {
		panic(fmt.Sprintf("dataset: window %d out of range [0,%d)", i, t.N))
	}
	size := t.Context * t.Bins
	data := make([]float64, size)
	copy(data, t.Data[i*size:(i+1)*size])
	return mat.NewDense(t.Context, t.Bins, data)
}

// Float32 returns the tensor data converted for inference runtimes.
func (t *Tensor) Float32() []float32 {
	out := make([]float32, len(t.Data))
	for i, v := range t.Data {
		out[i] = float32(v)
	}
	return out
}

// Concat stacks tensors along the window axis. All inputs must share
// Context and Bins.
func Concat(parts ...*Tensor) (*Tensor, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("dataset: nothing to concatenate")
	}
	context, bins := parts[0].Context, parts[0].Bins
	total := 0
	for i, p := range parts {
		if p.Context != context || p.Bins != bins {
			return nil, fmt.Errorf("dataset: tensor %d shape (%d,%d) does not match (%d,%d)", i, p.Context, p.Bins, context, bins)
		}
		total += p.N
	}
	out := &Tensor{N: total, Context: context, Bins: bins, Data: make([]float64, 0, total*context*bins)}
	for _, p := range parts {
		out.Data = append(out.Data, p.Data...)
	}
	return out, nil
}
