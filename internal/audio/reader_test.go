package audio

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestWav writes interleaved 16-bit PCM samples to a temp WAV file.
func writeTestWav(t *testing.T, data []int, rate, channels int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestReadWavMono(t *testing.T) {
	path := writeTestWav(t, []int{0, 16384, -16384, 32767}, 8000, 1)

	w, err := ReadWav(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, w.SampleRate)
	require.Len(t, w.Samples, 4)
	assert.InDelta(t, 0.0, w.Samples[0], 1e-12)
	assert.InDelta(t, 0.5, w.Samples[1], 1e-12)
	assert.InDelta(t, -0.5, w.Samples[2], 1e-12)
	assert.InDelta(t, 32767.0/32768.0, w.Samples[3], 1e-12)
}

func TestReadWavStereoAveragesChannels(t *testing.T) {
	// L/R pairs
	path := writeTestWav(t, []int{16384, 0, -16384, -16384, 8192, 24576}, 44100, 2)

	w, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, w.SampleRate)
	require.Len(t, w.Samples, 3)
	assert.InDelta(t, 0.25, w.Samples[0], 1e-12)
	assert.InDelta(t, -0.5, w.Samples[1], 1e-12)
	assert.InDelta(t, 0.5, w.Samples[2], 1e-12)
}

func TestReadWavInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	require.NoError(t, os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o644))

	_, err := ReadWav(path)
	assert.Error(t, err)
}

func TestReadUnsupportedExtension(t *testing.T) {
	_, err := Read("clip.ogg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, IsSupported("clip.ogg"))
	assert.True(t, IsSupported("CLIP.WAV"))
	assert.True(t, IsSupported("x.flac"))
}

func TestToMono(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, ToMono([]float64{1, 2, 3}, 1))
	assert.Equal(t, []float64{1.5, 3.5}, ToMono([]float64{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, []float64{2}, ToMono([]float64{1, 2, 3}, 3))
}

func TestWaveformDuration(t *testing.T) {
	w := Waveform{Samples: make([]float64, 22050), SampleRate: 44100}
	assert.InDelta(t, 0.5, w.Duration(), 1e-12)
	assert.Zero(t, Waveform{}.Duration())
}
