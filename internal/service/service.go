package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"github.com/himanishpuri/AcousticScene/internal/config"
	"github.com/himanishpuri/AcousticScene/internal/dataset"
	"github.com/himanishpuri/AcousticScene/internal/feature"
	"github.com/himanishpuri/AcousticScene/internal/storage"
	"github.com/himanishpuri/AcousticScene/pkg/logger"
	"github.com/himanishpuri/AcousticScene/pkg/utils"
)

type AcousticService struct {
	cfg       *config.Config
	store     Storage
	log       Logger
	workers   int
	strict    bool
	cache     *feature.FilterBankCache
	extractor *feature.LogMelExtractor
	windower  *dataset.Windower
	vocab     *dataset.Vocabulary
}

// NewAcousticService wires the pipeline for cfg. Without WithStore it opens
// the sqlite database at cfg.Paths.FeaturesDB.
func NewAcousticService(cfg *config.Config, opts ...Option) (*AcousticService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{workers: cfg.Workers}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.GetLogger()
	}
	if o.cache == nil {
		o.cache = feature.NewFilterBankCache()
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.store == nil {
		db, err := storage.NewDBClientWithPath(cfg.Paths.FeaturesDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open feature store: %w", err)
		}
		o.store = db
	}

	return &AcousticService{
		cfg:       cfg,
		store:     o.store,
		log:       o.log,
		workers:   o.workers,
		strict:    o.strict,
		cache:     o.cache,
		extractor: feature.NewLogMelExtractor(o.cache, cfg.FilterBankKey()),
		windower:  cfg.Windower(),
		vocab:     cfg.Vocabulary(),
	}, nil
}

func (s *AcousticService) Vocabulary() *dataset.Vocabulary { return s.vocab }

func (s *AcousticService) Close() error {
	return s.store.Close()
}

// ExtractFile computes the log-mel feature of one recording and stores it
// under the recording id, which is returned.
func (s *AcousticService) ExtractFile(ctx context.Context, path string) (string, error) {
	id := utils.BaseName(path)
	if err := ctx.Err(); err != nil {
		return id, err
	}

	w, err := audio.Read(path)
	if err != nil {
		return id, recordErr(id, "read", err)
	}
	x, err := s.extractor.Extract(w)
	if err != nil {
		return id, recordErr(id, "extract", err)
	}
	if err := s.store.SaveFeature(id, x); err != nil {
		return id, recordErr(id, "save", err)
	}

	frames, _ := x.Dims()
	s.log.Debugf("Extracted %s: %d frames (%.1fs)", id, frames, w.Duration())
	return id, nil
}

// ExtractDir extracts every supported recording in dir, in parallel. The
// first failure cancels the remaining work. Two files mapping to the same
// recording id fail the call before anything is extracted.
func (s *AcousticService) ExtractDir(ctx context.Context, dir string) (int, error) {
	names, err := utils.ListFiles(dir, audio.SupportedExtensions...)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", dir, err)
	}
	seen := make(map[string]string, len(names))
	for _, name := range names {
		id := utils.BaseName(name)
		if prev, ok := seen[id]; ok {
			return 0, recordErr(id, "list", fmt.Errorf("%w: %s and %s", ErrDuplicateRecording, prev, name))
		}
		seen[id] = name
	}
	s.log.Infof("Extracting log-mel features for %d recordings in %s", len(names), dir)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, name := range names {
		path := filepath.Join(dir, name)
		g.Go(func() error {
			if _, err := s.ExtractFile(gctx, path); err != nil {
				return err
			}
			done.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(done.Load()), err
	}

	s.log.Infof("Extracted %d features (%d filter bank builds)", done.Load(), s.cache.Builds())
	return int(done.Load()), nil
}
