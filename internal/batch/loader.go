// Package batch classifies transcripts read from a CSV export.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrEmptyInput         = errors.New("input has no header row")
	ErrNoTranscriptColumn = errors.New("no column name contains \"transcript\"")
)

// Record is one input row. Row is the zero-based data row index.
type Record struct {
	Row             int
	Text            string
	DurationSeconds *int
}

// Load reads a CSV with a header row. The transcript column is the first
// header containing "transcript"; an optional "duration" column supplies the
// call length. limit > 0 keeps only the first limit rows.
func Load(r io.Reader, limit int) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	textCol, durationCol := -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if textCol < 0 && strings.Contains(name, "transcript") {
			textCol = i
		}
		if durationCol < 0 && name == "duration" {
			durationCol = i
		}
	}
	if textCol < 0 {
		return nil, fmt.Errorf("%w: columns %v", ErrNoTranscriptColumn, header)
	}

	var records []Record
	for row := 0; limit <= 0 || row < limit; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		rec := Record{Row: row}
		if textCol < len(fields) {
			rec.Text = fields[textCol]
		}
		if durationCol >= 0 && durationCol < len(fields) {
			rec.DurationSeconds = parseDuration(fields[durationCol])
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseDuration accepts whole or fractional seconds ("40", "40.0") and
// truncates. Blank or unparsable values mean unknown.
func parseDuration(v string) *int {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	d := int(f)
	return &d
}
