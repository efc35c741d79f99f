// Package scaler normalizes feature matrices column-wise.
package scaler

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrUnfitted is returned by Transform on a scaler that was never fit.
	ErrUnfitted = errors.New("scaler: transform before fit")
	// ErrDimensionMismatch is returned when a matrix's column count differs
	// from the fitted dimension.
	ErrDimensionMismatch = errors.New("scaler: column count mismatch")
)

// Transformer maps a feature matrix to its normalized form. Implementations
// must not modify the input.
type Transformer interface {
	Transform(x mat.Matrix) (*mat.Dense, error)
}

// Identity is the no-op Transformer used when scaling is disabled.
type Identity struct{}

func (Identity) Transform(x mat.Matrix) (*mat.Dense, error) {
	return mat.DenseCopyOf(x), nil
}

// Standard is a per-column standardizer: (x - mean) / std.
type Standard struct {
	WithMean bool
	WithStd  bool

	mean []float64
	std  []float64
}

func New(withMean, withStd bool) *Standard {
	return &Standard{WithMean: withMean, WithStd: withStd}
}

// Fit computes statistics over the row-wise concatenation of parts. All
// parts must have the same number of columns. Variance is the population
// variance; a column with zero variance gets std 1.
func (s *Standard) Fit(parts []*mat.Dense) error {
	if len(parts) == 0 {
		return errors.New("scaler: no data to fit")
	}
	_, cols := parts[0].Dims()
	rows := 0
	for i, p := range parts {
		r, c := p.Dims()
		if c != cols {
			return fmt.Errorf("%w: part %d has %d columns, want %d", ErrDimensionMismatch, i, c, cols)
		}
		rows += r
	}
	if rows == 0 {
		return errors.New("scaler: no rows to fit")
	}

	mean := make([]float64, cols)
	std := make([]float64, cols)
	column := make([]float64, rows)
	for k := 0; k < cols; k++ {
		n := 0
		for _, p := range parts {
			r, _ := p.Dims()
			for i := 0; i < r; i++ {
				column[n] = p.At(i, k)
				n++
			}
		}
		m, v := stat.PopMeanVariance(column, nil)
		mean[k], std[k] = m, 1
		if s.WithStd && v > 0 {
			std[k] = math.Sqrt(v)
		}
		if !s.WithMean {
			mean[k] = 0
		}
	}
	s.mean, s.std = mean, std
	return nil
}

// Fitted reports whether Fit (or FromState) has populated the statistics.
func (s *Standard) Fitted() bool { return s.mean != nil }

// Dim is the fitted column count, 0 before fitting.
func (s *Standard) Dim() int { return len(s.mean) }

func (s *Standard) Mean() []float64 { return append([]float64(nil), s.mean...) }

func (s *Standard) Std() []float64 { return append([]float64(nil), s.std...) }

// Transform returns a new matrix with every column standardized.
func (s *Standard) Transform(x mat.Matrix) (*mat.Dense, error) {
	if !s.Fitted() {
		return nil, ErrUnfitted
	}
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, fmt.Errorf("%w: got %d, fitted on %d", ErrDimensionMismatch, cols, len(s.mean))
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (v - s.mean[j]) / s.std[j]
	}, x)
	return out, nil
}

// State is the persisted form of a fitted Standard scaler.
type State struct {
	WithMean bool      `json:"with_mean"`
	WithStd  bool      `json:"with_std"`
	Mean     []float64 `json:"mean"`
	Std      []float64 `json:"std"`
}

// State snapshots the fitted statistics.
func (s *Standard) State() (State, error) {
	if !s.Fitted() {
		return State{}, ErrUnfitted
	}
	return State{WithMean: s.WithMean, WithStd: s.WithStd, Mean: s.Mean(), Std: s.Std()}, nil
}

// FromState rebuilds a fitted scaler.
func FromState(st State) (*Standard, error) {
	if len(st.Mean) == 0 || len(st.Mean) != len(st.Std) {
		return nil, fmt.Errorf("%w: mean has %d entries, std %d", ErrDimensionMismatch, len(st.Mean), len(st.Std))
	}
	for i, v := range st.Std {
		if v == 0 {
			return nil, fmt.Errorf("scaler: std[%d] is zero", i)
		}
	}
	return &Standard{
		WithMean: st.WithMean,
		WithStd:  st.WithStd,
		mean:     append([]float64(nil), st.Mean...),
		std:      append([]float64(nil), st.Std...),
	}, nil
}
