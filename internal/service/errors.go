package service

import (
	"errors"
	"fmt"
)

// ErrDuplicateRecording is returned when two files in one folder share a
// recording id.
var ErrDuplicateRecording = errors.New("duplicate recording id")

// RecordError ties a failure to the recording that caused it.
type RecordError struct {
	RecordingID string
	Op          string
	Err         error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.RecordingID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

func recordErr(id, op string, err error) error {
	if err == nil {
		return nil
	}
	return &RecordError{RecordingID: id, Op: op, Err: err}
}
