package feature

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/mat"
)

// Hamming returns a symmetric Hamming window of length n.
func Hamming(n int) []float64 {
	return window.Hamming(n)
}

// MagnitudeSpectrum converts a complex spectrum into its one-sided magnitude:
// bins 0..n/2 inclusive.
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	bins := len(spectrum)/2 + 1
	mag := make([]float64, bins)
	for i := 0; i < bins; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// SpectrogramExtractor turns a mono waveform into a magnitude spectrogram
// using non-overlapping Hamming-windowed frames of NFFT samples.
type SpectrogramExtractor struct {
	sampleRate int
	nFFT       int
	window     []float64
	// density scaling with unit sample rate: 1/sqrt(sum(w^2))
	scale float64
}

func NewSpectrogramExtractor(sampleRate, nFFT int) *SpectrogramExtractor {
	win := Hamming(nFFT)
	var energy float64
	for _, w := range win {
		energy += w * w
	}
	return &SpectrogramExtractor{
		sampleRate: sampleRate,
		nFFT:       nFFT,
		window:     win,
		scale:      1 / math.Sqrt(energy),
	}
}

func (e *SpectrogramExtractor) SampleRate() int { return e.sampleRate }
func (e *SpectrogramExtractor) NFFT() int { return e.nFFT }

// Bins is the number of one-sided frequency bins per frame.
func (e *SpectrogramExtractor) Bins() int { return e.nFFT/2 + 1 }

// Extract returns a (frames x bins) magnitude spectrogram. Trailing samples
// that do not fill a whole frame are dropped.
func (e *SpectrogramExtractor) Extract(w audio.Waveform) (*mat.Dense, error) {
	if w.SampleRate != e.sampleRate {
		return nil, &ConfigMismatchError{Field: "sample rate", Want: e.sampleRate, Got: w.SampleRate}
	}
	frames := len(w.Samples) / e.nFFT
	if frames == 0 {
		return nil, fmt.Errorf("%w: %d samples, frame is %d", ErrTooShort, len(w.Samples), e.nFFT)
	}

	bins := e.Bins()
	out := mat.NewDense(frames, bins, nil)
	frame := make([]float64, e.nFFT)
	for t := 0; t < frames; t++ {
		start := t * e.nFFT
		for i := 0; i < e.nFFT; i++ {
			frame[i] = w.Samples[start+i] * e.window[i]
		}
		mag := MagnitudeSpectrum(fft.FFTReal(frame))
		for k, v := range mag {
			mag[k] = v * e.scale
		}
		out.SetRow(t, mag)
	}
	return out, nil
}
