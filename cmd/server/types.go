package main

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/storage"
)

// MaxUploadBytes bounds recordings posted to /api/features.
const MaxUploadBytes = 64 << 20

// Store is the read side of the feature database used by the API.
type Store interface {
	ListFeatures() ([]storage.Feature, error)
	FeatureInfo(recordingID string) (*storage.Feature, error)
	LoadFeature(recordingID string) (*mat.Dense, error)
	DeleteFeature(recordingID string) error
	ListRuns(limit int) ([]storage.EvaluationRun, error)
	GetRun(id string) (*storage.EvaluationRun, error)
}

// Extractor computes and stores the feature of an uploaded recording.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (string, error)
}

// FeatureDTO represents a stored feature in API responses
type FeatureDTO struct {
	RecordingID string    `json:"recording_id"`
	Frames      int       `json:"frames"`
	Bins        int       `json:"bins"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FeatureDetailResponse is the response for GET /api/features/{id}
type FeatureDetailResponse struct {
	FeatureDTO
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// ListFeaturesResponse is the response for GET /api/features
type ListFeaturesResponse struct {
	Features []FeatureDTO `json:"features"`
	Count    int          `json:"count"`
}

// ExtractResponse is the response for POST /api/features
type ExtractResponse struct {
	Message     string `json:"message"`
	RecordingID string `json:"recording_id"`
	Frames      int    `json:"frames"`
	Bins        int    `json:"bins"`
}

// DeleteFeatureResponse is the response for DELETE /api/features/{id}
type DeleteFeatureResponse struct {
	Message     string `json:"message"`
	RecordingID string `json:"recording_id"`
}

// RunDTO summarizes an evaluation run
type RunDTO struct {
	ID            string    `json:"id"`
	Manifest      string    `json:"manifest"`
	Model         string    `json:"model"`
	Clips         int       `json:"clips"`
	ClipAccuracy  float64   `json:"clip_accuracy"`
	FrameAccuracy float64   `json:"frame_accuracy"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListRunsResponse is the response for GET /api/runs
type ListRunsResponse struct {
	Runs  []RunDTO `json:"runs"`
	Count int      `json:"count"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	FeatureCount int    `json:"feature_count"`
	RunCount     int    `json:"run_count"`
	SampleRate   int    `json:"sample_rate"`
	NFFT         int    `json:"n_fft"`
	NMels        int    `json:"n_mels"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func toFeatureDTO(f storage.Feature) FeatureDTO {
	return FeatureDTO{RecordingID: f.RecordingID, Frames: f.Frames, Bins: f.Bins, UpdatedAt: f.UpdatedAt}
}

func toRunDTO(r storage.EvaluationRun) RunDTO {
	return RunDTO{
		ID:            r.ID,
		Manifest:      r.Manifest,
		Model:         r.Model,
		Clips:         r.Clips,
		ClipAccuracy:  r.ClipAccuracy,
		FrameAccuracy: r.FrameAccuracy,
		CreatedAt:     r.CreatedAt,
	}
}
