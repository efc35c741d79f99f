package dataset

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Label is an index into a Vocabulary.
type Label int

// UnknownLabelError is returned for a label string outside the vocabulary.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown label %q", e.Label)
}

// Vocabulary is the ordered, fixed set of class labels. It is immutable
// after construction.
type Vocabulary struct {
	names []string
	index map[string]Label
}

// NewVocabulary validates names (non-empty, unique) and freezes their order.
func NewVocabulary(names []string) (*Vocabulary, error) {
	if len(names) == 0 {
		return nil, errors.New("label vocabulary is empty")
	}
	v := &Vocabulary{
		names: make([]string, len(names)),
		index: make(map[string]Label, len(names)),
	}
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("label %d is blank", i)
		}
		if _, dup := v.index[n]; dup {
			return nil, fmt.Errorf("duplicate label %q", n)
		}
		v.names[i] = n
		v.index[n] = Label(i)
	}
	return v, nil
}

func (v *Vocabulary) Len() int { return len(v.names) }

// Names returns a copy of the labels in index order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Index resolves a label string.
func (v *Vocabulary) Index(name string) (Label, error) {
	l, ok := v.index[strings.TrimSpace(name)]
	if !ok {
		return 0, &UnknownLabelError{Label: name}
	}
	return l, nil
}

// Name returns the string for l, or "" when l is out of range.
func (v *Vocabulary) Name(l Label) string {
	if int(l) < 0 || int(l) >= len(v.names) {
		return ""
	}
	return v.names[l]
}

// Valid reports whether l indexes this vocabulary.
func (v *Vocabulary) Valid(l Label) bool {
	return int(l) >= 0 && int(l) < len(v.names)
}

// OneHot encodes labels as a (len(labels) x Len()) indicator matrix.
func (v *Vocabulary) OneHot(labels []Label) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.New("no labels to encode")
	}
	out := mat.NewDense(len(labels), v.Len(), nil)
	for i, l := range labels {
		if !v.Valid(l) {
			return nil, fmt.Errorf("label index %d out of range [0,%d)", l, v.Len())
		}
		out.Set(i, int(l), 1)
	}
	return out, nil
}
