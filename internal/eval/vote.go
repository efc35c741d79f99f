package eval

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/dataset"
)

// FramePredictions takes the argmax of every row of probs. On ties the
// first (lowest) label index wins.
func FramePredictions(probs mat.Matrix) []dataset.Label {
	rows, cols := probs.Dims()
	out := make([]dataset.Label, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, probs)
		out[i] = dataset.Label(floats.MaxIdx(row))
	}
	return out
}

// Vote returns the most frequent label in preds. Ties go to the smallest
// label index. preds must be non-empty.
func Vote(preds []dataset.Label) dataset.Label {
	counts := make(map[dataset.Label]int, len(preds))
	for _, p := range preds {
		counts[p]++
	}
	best, bestCount := dataset.Label(-1), 0
	for l, c := range counts {
		if c > bestCount || (c == bestCount && l < best) {
			best, bestCount = l, c
		}
	}
	return best
}

// FrameAccuracy is the fraction of preds equal to truth.
func FrameAccuracy(preds []dataset.Label, truth dataset.Label) float64 {
	if len(preds) == 0 {
		return 0
	}
	hits := 0
	for _, p := range preds {
		if p == truth {
			hits++
		}
	}
	return float64(hits) / float64(len(preds))
}
