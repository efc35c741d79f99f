// Package eval reduces per-frame classifier output to clip-level decisions
// and accumulates accuracy statistics over an evaluation run.
package eval

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/dataset"
)

var (
	ErrNoClips       = errors.New("eval: no clips evaluated")
	ErrShapeMismatch = errors.New("eval: prediction shape does not match vocabulary")
)

// ClipResult is the outcome of evaluating one clip.
type ClipResult struct {
	RecordingID   string
	Truth         dataset.Label
	Predicted     dataset.Label
	Frames        int
	FrameAccuracy float64
}

func (r ClipResult) Correct() bool { return r.Truth == r.Predicted }

// Evaluate reduces a (frames x labels) probability matrix for one clip.
// It does not touch any shared state.
func Evaluate(recordingID string, probs mat.Matrix, truth dataset.Label, vocab *dataset.Vocabulary) (ClipResult, error) {
	if !vocab.Valid(truth) {
		return ClipResult{}, &dataset.UnknownLabelError{Label: fmt.Sprintf("#%d", truth)}
	}
	rows, cols := probs.Dims()
	if cols != vocab.Len() {
		return ClipResult{}, fmt.Errorf("%w: %d columns, %d labels", ErrShapeMismatch, cols, vocab.Len())
	}
	if rows == 0 {
		return ClipResult{}, fmt.Errorf("%w: no frames", ErrShapeMismatch)
	}

	preds := FramePredictions(probs)
	return ClipResult{
		RecordingID:   recordingID,
		Truth:         truth,
		Predicted:     Vote(preds),
		Frames:        rows,
		FrameAccuracy: FrameAccuracy(preds, truth),
	}, nil
}

// Aggregator owns the confusion matrix and the per-clip frame accuracy list
// for one run. It is safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	vocab     *dataset.Vocabulary
	confusion [][]int
	frameAccs []float64
	clips     []ClipResult
}

func NewAggregator(vocab *dataset.Vocabulary) *Aggregator {
	n := vocab.Len()
	confusion := make([][]int, n)
	for i := range confusion {
		confusion[i] = make([]int, n)
	}
	return &Aggregator{vocab: vocab, confusion: confusion}
}

// Add records one clip. Labels outside the vocabulary are rejected before
// anything is counted.
func (a *Aggregator) Add(r ClipResult) error {
	if !a.vocab.Valid(r.Truth) {
		return &dataset.UnknownLabelError{Label: fmt.Sprintf("#%d", r.Truth)}
	}
	if !a.vocab.Valid(r.Predicted) {
		return fmt.Errorf("%w: predicted label %d", ErrShapeMismatch, r.Predicted)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.confusion[r.Truth][r.Predicted]++
	a.frameAccs = append(a.frameAccs, r.FrameAccuracy)
	a.clips = append(a.clips, r)
	return nil
}

// AddClip evaluates probs and records the result.
func (a *Aggregator) AddClip(recordingID string, probs mat.Matrix, truth dataset.Label) (ClipResult, error) {
	r, err := Evaluate(recordingID, probs, truth, a.vocab)
	if err != nil {
		return ClipResult{}, err
	}
	return r, a.Add(r)
}

// Confusion returns a copy of the confusion matrix, indexed [truth][predicted].
func (a *Aggregator) Confusion() [][]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]int, len(a.confusion))
	for i, row := range a.confusion {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// FrameAccuracies returns the per-clip frame accuracies in insertion order.
func (a *Aggregator) FrameAccuracies() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.frameAccs...)
}

// Summary computes the final statistics.
func (a *Aggregator) Summary() (*Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.clips) == 0 {
		return nil, ErrNoClips
	}

	var diag, total int
	for i, row := range a.confusion {
		for j, c := range row {
			total += c
			if i == j {
				diag += c
			}
		}
	}
	var sum float64
	for _, f := range a.frameAccs {
		sum += f
	}

	confusion := make([][]int, len(a.confusion))
	for i, row := range a.confusion {
		confusion[i] = append([]int(nil), row...)
	}
	return &Summary{
		ClipAccuracy:  float64(diag) / float64(total),
		FrameAccuracy: sum / float64(len(a.frameAccs)),
		Confusion:     confusion,
		Labels:        a.vocab.Names(),
		Clips:         append([]ClipResult(nil), a.clips...),
	}, nil
}
