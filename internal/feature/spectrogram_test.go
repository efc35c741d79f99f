package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"gonum.org/v1/gonum/floats"
)

func TestHamming(t *testing.T) {
	sizes := []int{128, 256, 512, 1024}

	for _, size := range sizes {
		window := Hamming(size)

		if len(window) != size {
			t.Errorf("Expected window size %d, got %d", size, len(window))
		}

		for i, val := range window {
			if val < 0 || val > 1 {
				t.Errorf("Window value %d out of range [0,1]: %f", i, val)
			}
		}

		if math.Abs(window[0]-0.08) > 1e-12 || math.Abs(window[size-1]-0.08) > 1e-12 {
			t.Errorf("Hamming window should be symmetric with 0.08 edges, got %f, %f", window[0], window[size-1])
		}
		if window[0] >= window[size/2] {
			t.Error("Hamming window should be lower at edges")
		}
	}
}

func TestMagnitudeSpectrum(t *testing.T) {
	spectrum := []complex128{
		complex(1.0, 0.0),
		complex(0.0, 1.0),
		complex(3.0, 4.0),
		complex(0.0, 0.0),
	}

	mag := MagnitudeSpectrum(spectrum)

	if len(mag) != 3 {
		t.Fatalf("Expected one-sided length 3, got %d", len(mag))
	}
	if mag[0] != 1.0 || mag[1] != 1.0 || mag[2] != 5.0 {
		t.Errorf("Unexpected magnitudes %v", mag)
	}
}

func TestExtractFrameCount(t *testing.T) {
	const (
		sampleRate = 8000
		nFFT       = 256
	)
	e := NewSpectrogramExtractor(sampleRate, nFFT)

	for k := 1; k <= 5; k++ {
		w := audio.Waveform{Samples: make([]float64, k*nFFT), SampleRate: sampleRate}
		spec, err := e.Extract(w)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		frames, bins := spec.Dims()
		if frames != k {
			t.Errorf("Expected %d frames, got %d", k, frames)
		}
		if bins != nFFT/2+1 {
			t.Errorf("Expected %d bins, got %d", nFFT/2+1, bins)
		}
	}
}

func TestExtractDropsTrailingSamples(t *testing.T) {
	e := NewSpectrogramExtractor(8000, 256)
	w := audio.Waveform{Samples: make([]float64, 3*256+255), SampleRate: 8000}

	spec, err := e.Extract(w)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if frames, _ := spec.Dims(); frames != 3 {
		t.Errorf("Expected 3 frames, got %d", frames)
	}
}

func TestExtractDCScaling(t *testing.T) {
	const nFFT = 64
	e := NewSpectrogramExtractor(1000, nFFT)

	samples := make([]float64, nFFT)
	for i := range samples {
		samples[i] = 1
	}
	spec, err := e.Extract(audio.Waveform{Samples: samples, SampleRate: 1000})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	win := Hamming(nFFT)
	var sum, energy float64
	for _, w := range win {
		sum += w
		energy += w * w
	}
	want := sum / math.Sqrt(energy)
	if got := spec.At(0, 0); math.Abs(got-want) > 1e-9 {
		t.Errorf("DC bin: expected %f, got %f", want, got)
	}
}

func TestExtractSinePeak(t *testing.T) {
	const (
		sampleRate = 8000
		nFFT       = 256
		bin        = 16
	)
	freq := float64(sampleRate) * bin / nFFT

	samples := make([]float64, 4*nFFT)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	spec, err := NewSpectrogramExtractor(sampleRate, nFFT).Extract(audio.Waveform{Samples: samples, SampleRate: sampleRate})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for f := 0; f < 4; f++ {
		if peak := floats.MaxIdx(spec.RawRowView(f)); peak != bin {
			t.Errorf("frame %d: expected peak at bin %d, got %d", f, bin, peak)
		}
	}
}

func TestExtractInvalidInput(t *testing.T) {
	e := NewSpectrogramExtractor(44100, 1024)

	_, err := e.Extract(audio.Waveform{Samples: make([]float64, 4096), SampleRate: 22050})
	var mismatch *ConfigMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected ConfigMismatchError, got %v", err)
	}
	if mismatch.Want != 44100 || mismatch.Got != 22050 {
		t.Errorf("Unexpected mismatch fields: %+v", mismatch)
	}

	_, err = e.Extract(audio.Waveform{Samples: make([]float64, 1000), SampleRate: 44100})
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("Expected ErrTooShort, got %v", err)
	}
}
