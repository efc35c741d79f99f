package feature

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var smallKey = FilterBankKey{SampleRate: 8000, NFFT: 256, NMels: 16, FMin: 0, FMax: 4000}

func TestProjectSilenceHitsFloor(t *testing.T) {
	p := NewMelProjector(nil, smallKey)

	out, err := p.Project(mat.NewDense(3, smallKey.Bins(), nil))
	require.NoError(t, err)

	rows, cols := out.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 16, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, LogFloor, out.At(i, j))
		}
	}
}

func TestProjectNeverBelowFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	spec := mat.NewDense(20, smallKey.Bins(), nil)
	spec.Apply(func(_, _ int, _ float64) float64 { return rng.Float64() * 3 }, spec)

	out, err := NewMelProjector(NewFilterBankCache(), smallKey).Project(spec)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mat.Min(out), LogFloor)
}

func TestProjectMatchesManualProduct(t *testing.T) {
	spec := mat.NewDense(2, smallKey.Bins(), nil)
	for k := 0; k < smallKey.Bins(); k++ {
		spec.Set(0, k, float64(k))
		spec.Set(1, k, 1)
	}
	p := NewMelProjector(nil, smallKey)
	out, err := p.Project(spec)
	require.NoError(t, err)

	fb := p.FilterBank()
	for m := 0; m < smallKey.NMels; m++ {
		var dot float64
		for k := 0; k < smallKey.Bins(); k++ {
			dot += spec.At(0, k) * fb.At(m, k)
		}
		assert.InDelta(t, math.Log(dot+LogEpsilon), out.At(0, m), 1e-12)
	}
}

func TestProjectRejectsWrongBinCount(t *testing.T) {
	_, err := NewMelProjector(nil, smallKey).Project(mat.NewDense(2, 128, nil))
	var mismatch *ConfigMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, smallKey.Bins(), mismatch.Want)
}

func TestLogMelExtractorDeterministic(t *testing.T) {
	samples := make([]float64, 10*smallKey.NFFT)
	for i := range samples {
		samples[i] = 0.3*math.Sin(2*math.Pi*440*float64(i)/8000) + 0.1*math.Sin(2*math.Pi*1800*float64(i)/8000)
	}
	w := audio.Waveform{Samples: samples, SampleRate: 8000}

	cache := NewFilterBankCache()
	a, err := NewLogMelExtractor(cache, smallKey).Extract(w)
	require.NoError(t, err)
	b, err := NewLogMelExtractor(cache, smallKey).Extract(w)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a, b))
	assert.Equal(t, 1, cache.Builds())

	rows, cols := a.Dims()
	assert.Equal(t, 10, rows)
	assert.Equal(t, 16, cols)
	assert.False(t, floats.HasNaN(a.RawRowView(0)))
}

func TestLogMelExtractorSampleRateMismatch(t *testing.T) {
	_, err := NewLogMelExtractor(nil, smallKey).Extract(audio.Waveform{Samples: make([]float64, 1024), SampleRate: 16000})
	var mismatch *ConfigMismatchError
	assert.True(t, errors.As(err, &mismatch))
}
