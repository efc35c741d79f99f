package eval

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Summary is the final report of a completed evaluation run.
type Summary struct {
	// RunID is set once the run has been persisted.
	RunID         string
	ClipAccuracy  float64
	FrameAccuracy float64
	Confusion     [][]int
	Labels        []string
	Clips         []ClipResult
}

// ClassAccuracy returns the clip accuracy of each ground-truth class, NaN-free:
// classes without clips report 0.
func (s *Summary) ClassAccuracy() []float64 {
	out := make([]float64, len(s.Confusion))
	for i, row := range s.Confusion {
		total := 0
		for _, c := range row {
			total += c
		}
		if total > 0 {
			out[i] = float64(row[i]) / float64(total)
		}
	}
	return out
}

// WriteTo prints accuracies followed by the confusion matrix, rows are
// ground truth and columns predictions.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if s.RunID != "" {
		fmt.Fprintf(&b, "run: %s\n", s.RunID)
	}
	fmt.Fprintf(&b, "event_acc: %.4f\n", s.ClipAccuracy)
	fmt.Fprintf(&b, "frame_acc: %.4f\n", s.FrameAccuracy)
	fmt.Fprintf(&b, "clips: %d\n\n", len(s.Clips))

	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "\t")
	for i := range s.Labels {
		fmt.Fprintf(tw, "%d\t", i)
	}
	fmt.Fprint(tw, "acc\t\n")
	acc := s.ClassAccuracy()
	for i, row := range s.Confusion {
		fmt.Fprintf(tw, "%d %s\t", i, s.Labels[i])
		for _, c := range row {
			fmt.Fprintf(tw, "%d\t", c)
		}
		fmt.Fprintf(tw, "%.2f\t\n", acc[i])
	}
	if err := tw.Flush(); err != nil {
		return 0, err
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
