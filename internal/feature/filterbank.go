package feature

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency to the Slaney mel scale.
func HzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	if mel >= melMinLogMel {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
	}
	return mel * melFSp
}

// FilterBankKey identifies one filter bank configuration.
type FilterBankKey struct {
	SampleRate int
	NFFT       int
	NMels      int
	FMin       float64
	FMax       float64
}

// Default analysis settings of the scene pipeline.
const (
	DefaultSampleRate = 44100
	DefaultNFFT       = 1024
	DefaultNMels      = 64
	DefaultFMax       = 22100.0
)

// DefaultFilterBankKey returns the scene pipeline's filter bank tuple with
// the given analysis settings. FMax stays at DefaultFMax for every rate.
func DefaultFilterBankKey(sampleRate, nFFT, nMels int) FilterBankKey {
	return FilterBankKey{SampleRate: sampleRate, NFFT: nFFT, NMels: nMels, FMax: DefaultFMax}
}

// Bins is the number of one-sided FFT bins the bank expects.
func (k FilterBankKey) Bins() int { return k.NFFT/2 + 1 }

// NewFilterBank builds an (NMels x NFFT/2+1) bank of triangular filters whose
// edges are evenly spaced on the mel scale between FMin and FMax. Each filter
// is area-normalized by 2/(upper edge - lower edge) in Hz.
func NewFilterBank(key FilterBankKey) *mat.Dense {
	bins := key.Bins()

	fftFreqs := make([]float64, bins)
	nyquist := float64(key.SampleRate) / 2
	for i := range fftFreqs {
		fftFreqs[i] = nyquist * float64(i) / float64(bins-1)
	}

	// NMels+2 edge frequencies
	melLo, melHi := HzToMel(key.FMin), HzToMel(key.FMax)
	edges := make([]float64, key.NMels+2)
	for i := range edges {
		edges[i] = MelToHz(melLo + (melHi-melLo)*float64(i)/float64(key.NMels+1))
	}

	fb := mat.NewDense(key.NMels, bins, nil)
	for m := 0; m < key.NMels; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		enorm := 2.0 / (right - left)
		for k, f := range fftFreqs {
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			w := math.Max(0, math.Min(lower, upper))
			fb.Set(m, k, w*enorm)
		}
	}
	return fb
}
