package feature

import (
	"errors"
	"fmt"
)

// ErrTooShort is returned when a waveform holds fewer samples than one
// analysis frame.
var ErrTooShort = errors.New("waveform shorter than one analysis frame")

// ConfigMismatchError reports a recording property that disagrees with the
// configured pipeline.
type ConfigMismatchError struct {
	Field string
	Want  int
	Got   int
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("config mismatch: %s is %d, expected %d", e.Field, e.Got, e.Want)
}
