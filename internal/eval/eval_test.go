package eval

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/dataset"
)

const (
	labelA dataset.Label = 0
	labelB dataset.Label = 1
)

func vocab(t *testing.T) *dataset.Vocabulary {
	t.Helper()
	v, err := dataset.NewVocabulary([]string{"beach", "bus", "park"})
	require.NoError(t, err)
	return v
}

// probsFor builds a probability matrix whose argmax per row is preds[i].
func probsFor(preds []dataset.Label, labels int) *mat.Dense {
	m := mat.NewDense(len(preds), labels, nil)
	for i, p := range preds {
		for j := 0; j < labels; j++ {
			m.Set(i, j, 0.1)
		}
		m.Set(i, int(p), 0.8)
	}
	return m
}

func TestFramePredictions(t *testing.T) {
	probs := mat.NewDense(3, 3, []float64{
		0.1, 0.7, 0.2,
		0.5, 0.2, 0.3,
		0.4, 0.4, 0.2,
	})
	assert.Equal(t, []dataset.Label{1, 0, 0}, FramePredictions(probs))
}

func TestMajorityVote(t *testing.T) {
	r, err := Evaluate("clip", probsFor([]dataset.Label{labelA, labelA, labelB, labelA}, 3), labelA, vocab(t))
	require.NoError(t, err)

	assert.Equal(t, labelA, r.Predicted)
	assert.Equal(t, 0.75, r.FrameAccuracy)
	assert.Equal(t, 4, r.Frames)
	assert.True(t, r.Correct())
}

func TestVoteTieBreakSmallestIndex(t *testing.T) {
	preds := []dataset.Label{labelB, labelA, labelB, labelA}
	for i := 0; i < 50; i++ {
		assert.Equal(t, labelA, Vote(preds))
	}
	assert.Equal(t, dataset.Label(1), Vote([]dataset.Label{2, 1, 2, 1, 0}))
	assert.Equal(t, dataset.Label(2), Vote([]dataset.Label{2, 2, 1}))
}

func TestConfusionAccumulation(t *testing.T) {
	agg := NewAggregator(vocab(t))

	_, err := agg.AddClip("a", probsFor([]dataset.Label{labelA, labelA}, 3), labelA)
	require.NoError(t, err)
	_, err = agg.AddClip("b", probsFor([]dataset.Label{labelA, labelA, labelB}, 3), labelB)
	require.NoError(t, err)

	s, err := agg.Summary()
	require.NoError(t, err)

	assert.Equal(t, 1, s.Confusion[labelA][labelA])
	assert.Equal(t, 1, s.Confusion[labelB][labelA])
	assert.Equal(t, 0.5, s.ClipAccuracy)
	assert.InDelta(t, (1.0+1.0/3)/2, s.FrameAccuracy, 1e-12)
	assert.Equal(t, []float64{1, 0, 0}, s.ClassAccuracy())
}

func TestUnknownTruthNotCounted(t *testing.T) {
	agg := NewAggregator(vocab(t))

	_, err := agg.AddClip("x", probsFor([]dataset.Label{labelA}, 3), dataset.Label(7))
	var unknown *dataset.UnknownLabelError
	require.True(t, errors.As(err, &unknown))

	_, err = agg.Summary()
	assert.True(t, errors.Is(err, ErrNoClips))
	for _, row := range agg.Confusion() {
		for _, c := range row {
			assert.Zero(t, c)
		}
	}
}

func TestShapeMismatch(t *testing.T) {
	_, err := Evaluate("x", mat.NewDense(2, 5, nil), labelA, vocab(t))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestAggregatorConcurrentAdds(t *testing.T) {
	defer goleak.VerifyNone(t)

	agg := NewAggregator(vocab(t))
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			truth := dataset.Label(i % 3)
			_, err := agg.AddClip("c", probsFor([]dataset.Label{truth}, 3), truth)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	s, err := agg.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.ClipAccuracy)
	assert.Len(t, agg.FrameAccuracies(), 32)
}

func TestSummaryIsDeterministic(t *testing.T) {
	run := func() *Summary {
		agg := NewAggregator(vocab(t))
		for i, truth := range []dataset.Label{0, 1, 2, 1} {
			preds := []dataset.Label{truth, dataset.Label((i + 1) % 3), truth}
			_, err := agg.AddClip("c", probsFor(preds, 3), truth)
			require.NoError(t, err)
		}
		s, err := agg.Summary()
		require.NoError(t, err)
		return s
	}
	assert.Equal(t, run(), run())
}

func TestSummaryWriteTo(t *testing.T) {
	agg := NewAggregator(vocab(t))
	_, err := agg.AddClip("a", probsFor([]dataset.Label{labelA}, 3), labelA)
	require.NoError(t, err)
	s, err := agg.Summary()
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Contains(t, buf.String(), "event_acc: 1.0000")
	assert.Contains(t, buf.String(), "frame_acc: 1.0000")
	assert.Contains(t, buf.String(), "0 beach")
}
