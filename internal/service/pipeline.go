package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/classifier"
	"github.com/himanishpuri/AcousticScene/internal/dataset"
	"github.com/himanishpuri/AcousticScene/internal/eval"
	"github.com/himanishpuri/AcousticScene/internal/scaler"
	"github.com/himanishpuri/AcousticScene/internal/storage"
)

// loadFeatures fetches the feature of every entry concurrently. It returns
// only after all loads have finished.
func (s *AcousticService) loadFeatures(ctx context.Context, entries []dataset.Entry) ([]*mat.Dense, error) {
	out := make([]*mat.Dense, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			x, err := s.store.LoadFeature(e.RecordingID())
			if err != nil {
				return recordErr(e.RecordingID(), "load", err)
			}
			out[i] = x
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FitScaler fits a standard scaler over every feature listed in the manifest
// and stores its state under the configured scaler name. Labels are not
// required.
func (s *AcousticService) FitScaler(ctx context.Context, manifest string) (*scaler.Standard, error) {
	entries, err := dataset.LoadManifest(manifest)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest %s is empty", manifest)
	}

	parts, err := s.loadFeatures(ctx, entries)
	if err != nil {
		return nil, err
	}

	sc := scaler.New(s.cfg.Scaler.WithMean, s.cfg.Scaler.WithStd)
	if err := sc.Fit(parts); err != nil {
		return nil, err
	}
	st, err := sc.State()
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveScaler(s.cfg.Scaler.Name, st); err != nil {
		return nil, fmt.Errorf("failed to save scaler: %w", err)
	}

	s.log.Infof("Fitted scaler %q over %d recordings (%d dims)", s.cfg.Scaler.Name, len(parts), sc.Dim())
	return sc, nil
}

func (s *AcousticService) LoadScaler(name string) (*scaler.Standard, error) {
	st, err := s.store.LoadScaler(name)
	if err != nil {
		return nil, err
	}
	return scaler.FromState(st)
}

// Transformer returns the configured scaler, or a passthrough when scaling
// is disabled.
func (s *AcousticService) Transformer() (scaler.Transformer, error) {
	if !s.cfg.Scaler.Enabled {
		return scaler.Identity{}, nil
	}
	sc, err := s.LoadScaler(s.cfg.Scaler.Name)
	if err != nil {
		return nil, fmt.Errorf("scaling is enabled but scaler %q is unavailable: %w", s.cfg.Scaler.Name, err)
	}
	return sc, nil
}

// windowed loads, scales and windows one recording.
func (s *AcousticService) windowed(e dataset.Entry, tr scaler.Transformer) (*dataset.Tensor, error) {
	id := e.RecordingID()
	x, err := s.store.LoadFeature(id)
	if err != nil {
		return nil, recordErr(id, "load", err)
	}
	if x, err = tr.Transform(x); err != nil {
		return nil, recordErr(id, "scale", err)
	}
	t, err := s.windower.Window(x)
	if err != nil {
		return nil, recordErr(id, "window", err)
	}
	return t, nil
}

// PrepareData builds the classifier-ready tensor and one-hot labels for a
// labeled manifest. Recordings shorter than one context window are skipped
// with a warning unless the service is strict.
func (s *AcousticService) PrepareData(ctx context.Context, manifest string, tr scaler.Transformer) (*dataset.Tensor, *mat.Dense, error) {
	if tr == nil {
		tr = scaler.Identity{}
	}
	entries, err := dataset.LoadManifest(manifest)
	if err != nil {
		return nil, nil, err
	}
	labels, err := dataset.Labels(entries, s.vocab)
	if err != nil {
		return nil, nil, err
	}

	tensors := make([]*dataset.Tensor, len(entries))
	skipped := make([]error, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := s.windowed(e, tr)
			var short *dataset.InsufficientFramesError
			if err != nil && errors.As(err, &short) && !s.strict {
				skipped[i] = err
				return nil
			}
			tensors[i] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var parts []*dataset.Tensor
	var windowLabels []dataset.Label
	for i, t := range tensors {
		if skipped[i] != nil {
			s.log.Warnf("Skipping recording: %v", skipped[i])
			continue
		}
		parts = append(parts, t)
		windowLabels = append(windowLabels, dataset.Replicate(labels[i], t.N)...)
	}
	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("no recording in %s yields a full context window", manifest)
	}

	x, err := dataset.Concat(parts...)
	if err != nil {
		return nil, nil, err
	}
	y, err := s.vocab.OneHot(windowLabels)
	if err != nil {
		return nil, nil, err
	}

	s.log.Infof("Prepared %d windows from %d recordings (%d skipped)", x.N, len(parts), len(entries)-len(parts))
	return x, y, nil
}

// Recognize evaluates clf on every clip of a labeled manifest. Clips are
// evaluated in parallel and reduced into the aggregator in manifest order.
// Any failing clip aborts the run; a completed run is persisted under model,
// or the configured model path when model is empty.
func (s *AcousticService) Recognize(ctx context.Context, manifest, model string, clf classifier.Classifier, tr scaler.Transformer) (*eval.Summary, error) {
	if tr == nil {
		tr = scaler.Identity{}
	}
	if model == "" {
		model = s.cfg.Paths.Model
	}
	entries, err := dataset.LoadManifest(manifest)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, eval.ErrNoClips
	}
	labels, err := dataset.Labels(entries, s.vocab)
	if err != nil {
		return nil, err
	}

	results := make([]eval.ClipResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id := e.RecordingID()
			x, err := s.windowed(e, tr)
			if err != nil {
				return err
			}
			probs, err := clf.Predict(gctx, x)
			if err != nil {
				return recordErr(id, "predict", err)
			}
			if rows, _ := probs.Dims(); rows != x.N {
				return recordErr(id, "predict", fmt.Errorf("%w: %d rows for %d windows", eval.ErrShapeMismatch, rows, x.N))
			}
			r, err := eval.Evaluate(id, probs, labels[i], s.vocab)
			if err != nil {
				return recordErr(id, "evaluate", err)
			}
			s.log.Debugf("%s: truth=%s predicted=%s frame_acc=%.3f", id, s.vocab.Name(r.Truth), s.vocab.Name(r.Predicted), r.FrameAccuracy)
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := eval.NewAggregator(s.vocab)
	for _, r := range results {
		if err := agg.Add(r); err != nil {
			return nil, recordErr(r.RecordingID, "aggregate", err)
		}
	}
	summary, err := agg.Summary()
	if err != nil {
		return nil, err
	}

	run := &storage.EvaluationRun{
		Manifest:      manifest,
		Model:         model,
		Clips:         len(summary.Clips),
		ClipAccuracy:  summary.ClipAccuracy,
		FrameAccuracy: summary.FrameAccuracy,
		Labels:        summary.Labels,
		Confusion:     summary.Confusion,
		Results:       make([]storage.ClipOutcome, 0, len(summary.Clips)),
	}
	for _, c := range summary.Clips {
		run.Results = append(run.Results, storage.ClipOutcome{
			RecordingID:   c.RecordingID,
			Truth:         s.vocab.Name(c.Truth),
			Predicted:     s.vocab.Name(c.Predicted),
			Frames:        c.Frames,
			FrameAccuracy: c.FrameAccuracy,
		})
	}
	if err := s.store.SaveRun(run); err != nil {
		return nil, fmt.Errorf("failed to save evaluation run: %w", err)
	}
	summary.RunID = run.ID

	s.log.Infof("Evaluated %d clips: event_acc=%.4f frame_acc=%.4f (run %s)", len(summary.Clips), summary.ClipAccuracy, summary.FrameAccuracy, run.ID)
	return summary, nil
}
