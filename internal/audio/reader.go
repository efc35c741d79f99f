package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// Waveform is a mono recording: samples normalized to [-1, 1] and the rate
// they were sampled at.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the waveform in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// SupportedExtensions lists the file extensions Read can decode.
var SupportedExtensions = []string{".wav", ".mp3", ".flac"}

// IsSupported reports whether path has a decodable extension.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Read decodes a recording by extension and collapses it to mono by
// averaging channels.
func Read(path string) (Waveform, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return ReadWav(path)
	case ".mp3":
		return ReadMP3(path)
	case ".flac":
		return ReadFLAC(path)
	default:
		return Waveform{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadWav reads an integer PCM WAV file. Samples are divided by
// 2^(bitDepth-1).
func ReadWav(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Waveform{}, fmt.Errorf("invalid WAV file: %s", path)
	}
	if decoder.WavAudioFormat != 1 {
		return Waveform{}, fmt.Errorf("%w: WAV audio format %d (only PCM supported)", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Waveform{}, fmt.Errorf("reading PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return Waveform{}, errors.New("WAV file has no channel information")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	return Waveform{
		Samples:    intBufferToMono(buf, bitDepth),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

func intBufferToMono(buf *goaudio.IntBuffer, bitDepth int) []float64 {
	scale := 1.0 / float64(int64(1)<<uint(bitDepth-1))
	interleaved := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		interleaved[i] = float64(v) * scale
	}
	return ToMono(interleaved, buf.Format.NumChannels)
}

// ReadMP3 decodes an MP3 file. go-mp3 always yields 16-bit stereo.
func ReadMP3(path string) (Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return Waveform{}, fmt.Errorf("creating MP3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return Waveform{}, fmt.Errorf("decoding MP3: %w", err)
	}

	const scale = 1.0 / 32768.0
	n := len(pcm) / 2
	interleaved := make([]float64, n)
	for i := 0; i < n; i++ {
		interleaved[i] = float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) * scale
	}
	return Waveform{
		Samples:    ToMono(interleaved, 2),
		SampleRate: decoder.SampleRate(),
	}, nil
}

// ReadFLAC decodes a FLAC file frame by frame.
func ReadFLAC(path string) (Waveform, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return Waveform{}, fmt.Errorf("opening FLAC stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels <= 0 {
		return Waveform{}, errors.New("FLAC stream has no channels")
	}
	scale := 1.0 / float64(int64(1)<<uint(stream.Info.BitsPerSample-1))

	var mono []float64
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Waveform{}, fmt.Errorf("parsing FLAC frame: %w", err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i]) * scale
			}
			mono = append(mono, sum/float64(channels))
		}
	}
	return Waveform{Samples: mono, SampleRate: int(stream.Info.SampleRate)}, nil
}

// ToMono averages interleaved multichannel samples into one channel. A
// trailing partial frame is dropped.
func ToMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += interleaved[i*channels+ch]
		}
		out[i] = sum / float64(channels)
	}
	return out
}
