package feature

import (
	"fmt"
	"math"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"gonum.org/v1/gonum/mat"
)

// LogEpsilon is added before the logarithm so silent bins stay finite.
const LogEpsilon = 1e-8

// LogFloor is the smallest value a log-mel feature can take.
var LogFloor = math.Log(LogEpsilon)

// MelProjector maps magnitude spectrograms onto mel bands and compresses them
// with log(x + LogEpsilon). It holds no state besides the shared bank.
type MelProjector struct {
	key FilterBankKey
	fb  *mat.Dense
}

// NewMelProjector resolves the filter bank for key through cache. A nil
// cache builds a private bank.
func NewMelProjector(cache *FilterBankCache, key FilterBankKey) *MelProjector {
	var fb *mat.Dense
	if cache != nil {
		fb = cache.Get(key)
	} else {
		fb = NewFilterBank(key)
	}
	return &MelProjector{key: key, fb: fb}
}

func (p *MelProjector) NMels() int { return p.key.NMels }

// FilterBank exposes the (read-only) bank in use.
func (p *MelProjector) FilterBank() mat.Matrix { return p.fb }

// Project returns log(spec * fb^T + eps), shaped (frames x mels).
func (p *MelProjector) Project(spec mat.Matrix) (*mat.Dense, error) {
	frames, bins := spec.Dims()
	if bins != p.key.Bins() {
		return nil, &ConfigMismatchError{Field: "frequency bins", Want: p.key.Bins(), Got: bins}
	}

	out := mat.NewDense(frames, p.key.NMels, nil)
	out.Mul(spec, p.fb.T())
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Log(v + LogEpsilon)
	}, out)
	return out, nil
}

// LogMelExtractor chains a SpectrogramExtractor and a MelProjector.
type LogMelExtractor struct {
	spec *SpectrogramExtractor
	mel  *MelProjector
}

func NewLogMelExtractor(cache *FilterBankCache, key FilterBankKey) *LogMelExtractor {
	return &LogMelExtractor{
		spec: NewSpectrogramExtractor(key.SampleRate, key.NFFT),
		mel:  NewMelProjector(cache, key),
	}
}

// Extract computes the (frames x mels) log-mel feature of w.
func (e *LogMelExtractor) Extract(w audio.Waveform) (*mat.Dense, error) {
	spec, err := e.spec.Extract(w)
	if err != nil {
		return nil, err
	}
	logmel, err := e.mel.Project(spec)
	if err != nil {
		return nil, fmt.Errorf("mel projection: %w", err)
	}
	return logmel, nil
}
