package plot

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/audio"
)

func TestHeatRamp(t *testing.T) {
	assert.Equal(t, heat[0], Heat(-3))
	assert.Equal(t, heat[0], Heat(math.NaN()))
	assert.Equal(t, heat[len(heat)-1], Heat(1.5))
	assert.Equal(t, heat[2], Heat(0.5))
}

func TestLogMelImageSize(t *testing.T) {
	x := mat.NewDense(10, 4, nil)
	for i := 0; i < 10; i++ {
		for j := 0; j < 4; j++ {
			x.Set(i, j, float64(i*j))
		}
	}
	path := filepath.Join(t.TempDir(), "out", "logmel.png")
	require.NoError(t, LogMel(x, path, 3))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 12, cfg.Height)
}

func TestLogMelEmpty(t *testing.T) {
	assert.Error(t, LogMel(&mat.Dense{}, filepath.Join(t.TempDir(), "x.png"), 1))
}

func TestSpectrogram(t *testing.T) {
	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/8000)
	}
	opts := DefaultOptions()
	opts.Width, opts.Height = 256, 64
	path := filepath.Join(t.TempDir(), "spec.png")

	require.NoError(t, Spectrogram(audio.Waveform{Samples: samples, SampleRate: 8000}, path, opts))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, Spectrogram(audio.Waveform{SampleRate: 8000}, path, opts))
}
