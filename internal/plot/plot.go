// Package plot renders recordings and features as PNG images.
package plot

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"

	"github.com/eligwz/spectrogram"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"github.com/himanishpuri/AcousticScene/pkg/utils"
)

type Options struct {
	Width      int
	Height     int
	Background string // hex, e.g. "000000"
}

func DefaultOptions() Options {
	return Options{Width: 2048, Height: 512, Background: "000000"}
}

func prepare(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return utils.MakeDir(dir)
	}
	return nil
}

// Spectrogram draws the STFT magnitude of w, Hamming windowed, and saves it
// to path.
func Spectrogram(w audio.Waveform, path string, opts Options) error {
	if len(w.Samples) == 0 {
		return errors.New("plot: empty waveform")
	}
	if err := prepare(path); err != nil {
		return err
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))
	bg := spectrogram.ParseColor(opts.Background)
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		w.Samples,
		uint32(w.SampleRate),
		uint32(opts.Height), // bins
		false,               // RECTANGLE: Hamming window
		false,               // DFT: use FFT
		true,                // MAG
		false,               // LOG10
	)
	return spectrogram.SavePng(img, path)
}

// heat stops, dark blue to yellow.
var heat = []color.RGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
	{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	{R: 0x5e, G: 0xc9, B: 0x62, A: 0xff},
	{R: 0xfd, G: 0xe7, B: 0x25, A: 0xff},
}

// Heat maps v in [0,1] onto the colour ramp.
func Heat(v float64) color.RGBA {
	if math.IsNaN(v) || v <= 0 {
		return heat[0]
	}
	if v >= 1 {
		return heat[len(heat)-1]
	}
	pos := v * float64(len(heat)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := heat[i], heat[i+1]
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + f*(float64(y)-float64(x)) + 0.5) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}

// LogMel renders a (frames x mels) feature matrix as a heatmap with time on
// the x axis and the lowest mel band at the bottom. Each cell becomes a
// scale x scale block.
func LogMel(x mat.Matrix, path string, scale int) error {
	frames, mels := x.Dims()
	if frames == 0 || mels == 0 {
		return errors.New("plot: empty feature matrix")
	}
	if scale < 1 {
		scale = 1
	}
	if err := prepare(path); err != nil {
		return err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for t := 0; t < frames; t++ {
		for m := 0; m < mels; m++ {
			v := x.At(t, m)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, frames*scale, mels*scale))
	for t := 0; t < frames; t++ {
		for m := 0; m < mels; m++ {
			c := Heat((x.At(t, m) - lo) / span)
			y0 := (mels - 1 - m) * scale
			for dx := 0; dx < scale; dx++ {
				for dy := 0; dy < scale; dy++ {
					img.Set(t*scale+dx, y0+dy, c)
				}
			}
		}
	}
	return spectrogram.SavePng(img, path)
}
