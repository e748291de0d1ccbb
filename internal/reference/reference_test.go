package reference

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro1111/poxymeter/internal/protocol"
)

func TestReadValues(t *testing.T) {
	input := "Time, SpO2, Pulse, Pleth\n" +
		"00:00:00, 98, 61, 40\n" +
		"00:00:00, 98, 61, 42\n" +
		"00:00:01, 97, 62, 45\n"

	values, err := ReadValues(strings.NewReader(input), 3, true)
	require.NoError(t, err)
	assert.Equal(t, []int{40, 42, 45}, values)
}

func TestReadValuesNoHeader(t *testing.T) {
	values, err := ReadValues(strings.NewReader("1,2\n3,4\n"), 1, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, values)
}

func TestReadValuesErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		column   int
		errorMsg string
	}{
		{name: "short row", input: "h\n1, 2\n", column: 3, errorMsg: "row 1 has 2 fields, need column 3"},
		{name: "not a number", input: "h\n1, x\n", column: 1, errorMsg: `row 1: invalid value "x"`},
		{name: "negative column", input: "h\n1\n", column: -1, errorMsg: "column cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadValues(strings.NewReader(tt.input), tt.column, true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestReadValuesHeaderOnly(t *testing.T) {
	_, err := ReadValues(strings.NewReader("Time, SpO2, Pulse, Pleth\n"), 3, true)
	assert.True(t, errors.Is(err, ErrNoValues))
}

func numeric(values ...uint8) *protocol.Result {
	samples := make([]protocol.Sample, len(values))
	for i, v := range values {
		samples[i].Value = v
	}
	return &protocol.Result{Samples: samples}
}

func TestCompare(t *testing.T) {
	t.Run("all match", func(t *testing.T) {
		report := Compare([]*protocol.Result{numeric(1, 2, 3), numeric(4, 5)}, []int{1, 2, 3, 4, 5})

		assert.True(t, report.OK())
		assert.Equal(t, 5, report.Compared)
		assert.False(t, report.Exhausted)
		assert.Equal(t, 0, report.Remaining)
	})

	t.Run("mismatch is located", func(t *testing.T) {
		second := numeric(4, 9)
		second.Samples[1].Ambiguous = true

		report := Compare([]*protocol.Result{numeric(1, 2, 3), second}, []int{1, 2, 3, 4, 5})

		require.Len(t, report.Mismatches, 1)
		m := report.Mismatches[0]
		assert.Equal(t, Mismatch{Offset: 4, Frame: 1, Sample: 1, Expected: 5, Actual: 9, Ambiguous: true}, m)
		assert.Equal(t, "4 | CSV: 5 | USB: 9 | ambiguous nibble", m.String())
	})

	t.Run("unrecoverable frame skips its span", func(t *testing.T) {
		marker := &protocol.Result{Samples: make([]protocol.Sample, 2), Unrecoverable: true}

		report := Compare([]*protocol.Result{numeric(1), marker, numeric(7)}, []int{1, 127, 127, 7})

		assert.True(t, report.OK())
		assert.Equal(t, 2, report.Compared)
		assert.Equal(t, 1, report.UnrecoverableSkips)
	})

	t.Run("failed frame does not consume values", func(t *testing.T) {
		report := Compare([]*protocol.Result{numeric(1), nil, numeric(2)}, []int{1, 2})

		assert.True(t, report.OK())
		assert.Equal(t, 1, report.ErrorSkips)
		assert.Equal(t, 2, report.Compared)
	})

	t.Run("reference runs out", func(t *testing.T) {
		report := Compare([]*protocol.Result{numeric(1, 2, 3), numeric(4)}, []int{1, 2})

		assert.True(t, report.OK())
		assert.True(t, report.Exhausted)
		assert.Equal(t, 2, report.Compared)
	})

	t.Run("reference longer than capture", func(t *testing.T) {
		report := Compare([]*protocol.Result{numeric(1)}, []int{1, 2, 3})

		assert.False(t, report.Exhausted)
		assert.Equal(t, 2, report.Remaining)
	})
}
