// Package reference reads the vendor software's CSV export and compares it with decoded
// waveform samples. Comparison is exact integer equality.
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/skypro1111/poxymeter/internal/protocol"
)

// ErrNoValues is returned when the export holds no data rows
var ErrNoValues = errors.New("reference export has no values")

// ReadValues reads the integer values of one column from a comma-separated export.
// Fields may be padded with spaces as in "12, 98, 61, 40".
func ReadValues(src io.Reader, column int, skipHeader bool) ([]int, error) {
	if column < 0 {
		return nil, fmt.Errorf("column cannot be negative, got %d", column)
	}

	r := csv.NewReader(src)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var values []int
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read reference row %d: %w", row, err)
		}

		if row == 0 && skipHeader {
			continue
		}
		if len(record) <= column {
			return nil, fmt.Errorf("reference row %d has %d fields, need column %d", row, len(record), column)
		}

		value, err := strconv.Atoi(strings.TrimSpace(record[column]))
		if err != nil {
			return nil, fmt.Errorf("reference row %d: invalid value %q: %w", row, record[column], err)
		}
		values = append(values, value)
	}

	if len(values) == 0 {
		return nil, ErrNoValues
	}

	return values, nil
}

// Mismatch is a decoded sample that differs from the reference value at the same offset
type Mismatch struct {
	Offset    int // Position in the reference export
	Frame     int // Index of the frame in the decoded batch
	Sample    int // Index of the sample within the frame
	Expected  int
	Actual    uint8
	Ambiguous bool
}

// String renders the mismatch as "offset | CSV: x | USB: y"
func (m Mismatch) String() string {
	s := fmt.Sprintf("%d | CSV: %d | USB: %d", m.Offset, m.Expected, m.Actual)
	if m.Ambiguous {
		s += " | ambiguous nibble"
	}
	return s
}

// Report is the outcome of a comparison
type Report struct {
	Compared           int
	Mismatches         []Mismatch
	UnrecoverableSkips int  // frames whose samples were skipped
	ErrorSkips         int  // frames that failed to decode
	Exhausted          bool // the reference ran out before the decoded samples did
	Remaining          int  // reference values left after the last decoded sample
}

// OK reports whether every compared sample matched
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Compare walks results in order against expected values.
// A nil result marks a frame that failed to decode and does not consume reference values.
// An unrecoverable frame consumes one reference value per placeholder without comparing them.
func Compare(results []*protocol.Result, expected []int) *Report {
	report := &Report{}
	offset := 0

frames:
	for fi, result := range results {
		if result == nil {
			report.ErrorSkips++
			continue
		}
		if offset >= len(expected) {
			report.Exhausted = true
			break
		}
		if result.Unrecoverable {
			report.UnrecoverableSkips++
			offset += len(result.Samples)
			continue
		}

		for si, sample := range result.Samples {
			if offset >= len(expected) {
				report.Exhausted = true
				break frames
			}

			report.Compared++
			if int(sample.Value) != expected[offset] {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Offset:    offset,
					Frame:     fi,
					Sample:    si,
					Expected:  expected[offset],
					Actual:    sample.Value,
					Ambiguous: sample.Ambiguous,
				})
			}
			offset++
		}
	}

	if offset < len(expected) {
		report.Remaining = len(expected) - offset
	}

	return report
}
