//go:build js && wasm
// +build js,wasm

package main

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"github.com/himanishpuri/AcousticScene/internal/feature"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorTooShort
)

var cache = feature.NewFilterBankCache()

// Computes the log-mel feature of a recording.
// Args: audioArray, sampleRate, channels[, nFFT, nMels]
// Returns: {error: number, data: {frames, bins, values} | string}
func extractLogMel(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected at least 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float64Array")
	}
	if sampleRateJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate must be a number")
	}
	if channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "channels must be a number")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()
	nFFT, nMels := feature.DefaultNFFT, feature.DefaultNMels
	if len(args) > 3 && args[3].Type() == js.TypeNumber {
		nFFT = args[3].Int()
	}
	if len(args) > 4 && args[4].Type() == js.TypeNumber {
		nMels = args[4].Int()
	}

	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}
	if nFFT < 2 || nMels < 1 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid nFFT/nMels: %d/%d", nFFT, nMels))
	}

	length := audioDataJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}

	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		val := audioDataJS.Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("audioArray element %d is not a number", i))
		}
		samples[i] = val.Float()
	}
	if channels == 2 {
		samples = audio.ToMono(samples, 2)
	}

	key := feature.DefaultFilterBankKey(sampleRate, nFFT, nMels)

	x, err := feature.NewLogMelExtractor(cache, key).Extract(audio.Waveform{Samples: samples, SampleRate: sampleRate})
	if errors.Is(err, feature.ErrTooShort) {
		return makeErrorResponse(ErrorTooShort, fmt.Sprintf("Audio shorter than one %d-sample frame", nFFT))
	}
	if err != nil {
		return makeErrorResponse(ErrorProcessing, fmt.Sprintf("Failed to extract log-mel: %v", err))
	}

	frames, bins := x.Dims()
	values := js.Global().Get("Float64Array").New(frames * bins)
	for i, v := range x.RawMatrix().Data {
		values.SetIndex(i, v)
	}

	data := js.Global().Get("Object").New()
	data.Set("frames", frames)
	data.Set("bins", bins)
	data.Set("values", values)

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 AcousticScene WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("extractLogMel", js.FuncOf(extractLogMel))

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("error", "❌ window object is undefined!")
	}

	if !console.IsUndefined() {
		console.Call("log", "✅ AcousticScene WASM module loaded and ready")
	}

	<-done
}
