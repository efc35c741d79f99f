package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyLookup(t *testing.T) {
	v, err := NewVocabulary([]string{"beach", "bus", "cafe/restaurant"})
	require.NoError(t, err)

	assert.Equal(t, 3, v.Len())
	l, err := v.Index("bus")
	require.NoError(t, err)
	assert.Equal(t, Label(1), l)
	assert.Equal(t, "cafe/restaurant", v.Name(2))
	assert.Equal(t, "", v.Name(3))
	assert.Equal(t, []string{"beach", "bus", "cafe/restaurant"}, v.Names())
}

func TestVocabularyUnknownLabel(t *testing.T) {
	v, err := NewVocabulary([]string{"beach", "bus"})
	require.NoError(t, err)

	_, err = v.Index("tram")
	var unknown *UnknownLabelError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "tram", unknown.Label)
}

func TestVocabularyValidation(t *testing.T) {
	_, err := NewVocabulary(nil)
	assert.Error(t, err)
	_, err = NewVocabulary([]string{"a", "b", "a"})
	assert.Error(t, err)
	_, err = NewVocabulary([]string{"a", " "})
	assert.Error(t, err)
}

func TestOneHot(t *testing.T) {
	v, err := NewVocabulary([]string{"a", "b", "c"})
	require.NoError(t, err)

	y, err := v.OneHot([]Label{2, 0, 0})
	require.NoError(t, err)
	rows, cols := y.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []float64{0, 0, 1}, y.RawRowView(0))
	assert.Equal(t, []float64{1, 0, 0}, y.RawRowView(1))

	_, err = v.OneHot([]Label{3})
	assert.Error(t, err)
}

func TestReadManifest(t *testing.T) {
	in := strings.Join([]string{
		"audio/b020_90_100.wav\tbeach",
		"",
		"audio/a001_10_20.wav\tcafe/restaurant",
		"audio/unlabeled.wav",
	}, "\n")

	entries, err := ReadManifest(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "b020_90_100", entries[0].RecordingID())
	assert.Equal(t, "beach", entries[0].Label)
	assert.Equal(t, "cafe/restaurant", entries[1].Label)
	assert.Equal(t, "unlabeled", entries[2].RecordingID())
	assert.Empty(t, entries[2].Label)
}

func TestLabelsResolvesOrFails(t *testing.T) {
	v, err := NewVocabulary([]string{"beach", "bus"})
	require.NoError(t, err)

	labels, err := Labels([]Entry{{Path: "a.wav", Label: "bus"}, {Path: "b.wav", Label: "beach"}}, v)
	require.NoError(t, err)
	assert.Equal(t, []Label{1, 0}, labels)

	_, err = Labels([]Entry{{Path: "c.wav", Label: "park"}}, v)
	var unknown *UnknownLabelError
	assert.True(t, errors.As(err, &unknown))
	assert.Contains(t, err.Error(), "recording c")
}
