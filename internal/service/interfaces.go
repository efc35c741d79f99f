package service

import (
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/scaler"
	"github.com/himanishpuri/AcousticScene/internal/storage"
)

// Storage is the persistence the pipeline needs. *storage.DBClient
// implements it.
type Storage interface {
	SaveFeature(recordingID string, x *mat.Dense) error
	LoadFeature(recordingID string) (*mat.Dense, error)
	SaveScaler(name string, st scaler.State) error
	LoadScaler(name string) (scaler.State, error)
	SaveRun(run *storage.EvaluationRun) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
