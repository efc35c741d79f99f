package dataset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// InsufficientFramesError is returned when a feature matrix is shorter than
// one context window.
type InsufficientFramesError struct {
	Frames        int
	ContextLength int
}

func (e *InsufficientFramesError) Error() string {
	return fmt.Sprintf("insufficient frames: have %d, need at least %d", e.Frames, e.ContextLength)
}

// Windower slides a ContextLength-frame window over a feature matrix with a
// stride of Hop frames.
type Windower struct {
	ContextLength int
	Hop           int
}

func NewWindower(contextLength, hop int) (*Windower, error) {
	if contextLength < 1 {
		return nil, errors.New("context length must be positive")
	}
	if hop < 1 {
		return nil, errors.New("hop must be positive")
	}
	return &Windower{ContextLength: contextLength, Hop: hop}, nil
}

// Count returns the number of windows for a matrix of frames rows, or 0
// when frames < ContextLength.
func (w *Windower) Count(frames int) int {
	if frames < w.ContextLength {
		return 0
	}
	return (frames-w.ContextLength)/w.Hop + 1
}

// Window copies rows [i*Hop, i*Hop+ContextLength) of x into window i of the
// result. No padding is applied.
func (w *Windower) Window(x mat.Matrix) (*Tensor, error) {
	frames, bins := x.Dims()
	n := w.Count(frames)
	if n == 0 {
		return nil, &InsufficientFramesError{Frames: frames, ContextLength: w.ContextLength}
	}

	t := NewTensor(n, w.ContextLength, bins)
	for i := 0; i < n; i++ {
		start := i * w.Hop
		for j := 0; j < w.ContextLength; j++ {
			row := t.Data[t.offset(i, j, 0) : t.offset(i, j, 0)+bins]
			mat.Row(row, start+j, x)
		}
	}
	return t, nil
}

// Replicate returns label repeated n times, one per window.
func Replicate(label Label, n int) []Label {
	out := make([]Label, n)
	for i := range out {
		out[i] = label
	}
	return out
}
