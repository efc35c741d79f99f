package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"github.com/himanishpuri/AcousticScene/internal/config"
	"github.com/himanishpuri/AcousticScene/internal/feature"
	"github.com/himanishpuri/AcousticScene/internal/service"
	"github.com/himanishpuri/AcousticScene/internal/storage"
	"github.com/himanishpuri/AcousticScene/pkg/logger"
	"github.com/himanishpuri/AcousticScene/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	store     Store
	extractor Extractor
	cfg       *config.Config
	config    *ServerConfig
	log       service.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	TempDir        string
	AllowedOrigins []string
}

// NewServer creates a new server instance. extractor may be nil, which
// disables uploads.
func NewServer(store Store, extractor Extractor, cfg *config.Config, config *ServerConfig) *Server {
	return &Server{
		store:     store,
		extractor: extractor,
		cfg:       cfg,
		config:    config,
		log:       logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "AcousticScene API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":        "GET /health",
			"metrics":       "GET /api/health/metrics",
			"features":      "GET /api/features",
			"extract":       "POST /api/features",
			"getFeature":    "GET /api/features/{id}",
			"deleteFeature": "DELETE /api/features/{id}",
			"runs":          "GET /api/runs",
			"getRun":        "GET /api/runs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	features, err := s.store.ListFeatures()
	if err != nil {
		s.log.Errorf("Failed to count features: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}
	runs, err := s.store.ListRuns(0)
	if err != nil {
		s.log.Errorf("Failed to count runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.cfg.Paths.FeaturesDB,
		FeatureCount: len(features),
		RunCount:     len(runs),
		SampleRate:   s.cfg.Audio.SampleRate,
		NFFT:         s.cfg.Audio.NFFT,
		NMels:        s.cfg.Features.NMels,
	})
}

// handleListFeatures handles GET /api/features
func (s *Server) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.store.ListFeatures()
	if err != nil {
		s.log.Errorf("Failed to list features: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve features")
		return
	}

	dtos := make([]FeatureDTO, len(features))
	for i, f := range features {
		dtos[i] = toFeatureDTO(f)
	}
	s.respondJSON(w, http.StatusOK, ListFeaturesResponse{Features: dtos, Count: len(dtos)})
}

// handleGetFeature handles GET /api/features/{id}
func (s *Server) handleGetFeature(w http.ResponseWriter, r *http.Request, id string) {
	info, err := s.store.FeatureInfo(id)
	if err != nil {
		s.respondStoreError(w, err, "feature")
		return
	}
	x, err := s.store.LoadFeature(id)
	if err != nil {
		s.respondStoreError(w, err, "feature")
		return
	}

	data := x.RawMatrix().Data
	resp := FeatureDetailResponse{FeatureDTO: toFeatureDTO(*info)}
	if len(data) > 0 {
		resp.Min = floats.Min(data)
		resp.Max = floats.Max(data)
		resp.Mean = floats.Sum(data) / float64(len(data))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleDeleteFeature handles DELETE /api/features/{id}
func (s *Server) handleDeleteFeature(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.DeleteFeature(id); err != nil {
		s.respondStoreError(w, err, "feature")
		return
	}
	s.log.Infof("Deleted feature %s", id)
	s.respondJSON(w, http.StatusOK, DeleteFeatureResponse{Message: "Feature deleted", RecordingID: id})
}

// handleExtract handles POST /api/features with a multipart "audio" file.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Extraction is disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid form: %v", err))
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Missing 'audio' file")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !audio.IsSupported(name) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported format: %s", filepath.Ext(name)))
		return
	}

	dir, err := os.MkdirTemp(s.config.TempDir, "upload-")
	if err != nil {
		s.log.Errorf("Failed to create temp dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.respondError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	dst.Close()

	id, err := s.extractor.ExtractFile(r.Context(), path)
	if err != nil {
		var mismatch *feature.ConfigMismatchError
		if errors.As(err, &mismatch) || errors.Is(err, feature.ErrTooShort) || errors.Is(err, audio.ErrUnsupportedFormat) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Errorf("Extraction of %s failed: %v", name, err)
		s.respondError(w, http.StatusInternalServerError, "Extraction failed")
		return
	}

	info, err := s.store.FeatureInfo(id)
	if err != nil {
		s.respondStoreError(w, err, "feature")
		return
	}
	s.respondJSON(w, http.StatusCreated, ExtractResponse{
		Message:     "Feature extracted",
		RecordingID: id,
		Frames:      info.Frames,
		Bins:        info.Bins,
	})
}

// handleListRuns handles GET /api/runs?limit=N
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.log.Errorf("Failed to list runs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	s.respondJSON(w, http.StatusOK, ListRunsResponse{Runs: dtos, Count: len(dtos)})
}

// handleGetRun handles GET /api/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request, id string) {
	run, err := s.store.GetRun(id)
	if err != nil {
		s.respondStoreError(w, err, "run")
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, storage.ErrFeatureNotFound) || errors.Is(err, storage.ErrRunNotFound) {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Errorf("Failed to access %s: %v", what, err)
	s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve %s", what))
}

// handleFeatures routes requests to /api/features
func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListFeatures(w, r)
	case http.MethodPost:
		s.handleExtract(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleFeature routes requests to /api/features/{id}
func (s *Server) handleFeature(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/features/"):]
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Recording ID required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetFeature(w, r, id)
	case http.MethodDelete:
		s.handleDeleteFeature(w, r, id)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRuns routes requests to /api/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleListRuns(w, r)
}

// handleRun routes requests to /api/runs/{id}
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/runs/"):]
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "Run ID required")
		return
	}
	if !utils.IsUUID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleGetRun(w, r, id)
}
