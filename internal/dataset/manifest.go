package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/himanishpuri/AcousticScene/pkg/utils"
)

// Entry is one manifest row: a recording and its (possibly empty) label.
type Entry struct {
	Path  string
	Label string
}

// RecordingID is the feature store key for the entry: the recording's base
// name without extension.
func (e Entry) RecordingID() string {
	return utils.BaseName(e.Path)
}

// ReadManifest parses tab-separated "path<TAB>label" rows. The label column
// is optional; blank lines are skipped.
func ReadManifest(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		e := Entry{Path: strings.TrimSpace(rec[0])}
		if len(rec) > 1 {
			e.Label = strings.TrimSpace(rec[1])
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadManifest reads a manifest file from disk.
func LoadManifest(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := ReadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Labels resolves every entry's label against v. Entries with a missing or
// unknown label fail with UnknownLabelError.
func Labels(entries []Entry, v *Vocabulary) ([]Label, error) {
	out := make([]Label, len(entries))
	for i, e := range entries {
		l, err := v.Index(e.Label)
		if err != nil {
			return nil, fmt.Errorf("recording %s: %w", e.RecordingID(), err)
		}
		out[i] = l
	}
	return out, nil
}
