package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordFrameDecoded(t *testing.T) {
	m := NewMetrics("poxymeter", "run-1")

	m.RecordFrameDecoded(27, 2, false)
	m.RecordFrameDecoded(27, 0, false)
	m.RecordFrameDecoded(27, 0, true)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.FramesDecoded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UnrecoverableFrames))
	assert.Equal(t, 54.0, testutil.ToFloat64(m.SamplesDecoded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AmbiguousNibbles))
}

func TestRecordFrameSplit(t *testing.T) {
	m := NewMetrics("poxymeter", "run-2")

	m.RecordFrameSplit("ReadPulseFromManuallyRecordedFileResponse")
	m.RecordFrameSplit("ReadPulseFromManuallyRecordedFileResponse")
	m.RecordFrameSplit("KeepAliveCommand")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesSplit.WithLabelValues("ReadPulseFromManuallyRecordedFileResponse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesSplit.WithLabelValues("KeepAliveCommand")))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewMetrics("poxymeter", "a")
	b := NewMetrics("poxymeter", "b")

	a.RecordSizeMismatch()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.SizeMismatches))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SizeMismatches))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("poxymeter", "run-3")
	m.RecordBytesRead(120)
	m.RecordComparison(54, 1)
	m.RecordDecodeDuration(0.002)

	path := filepath.Join(t.TempDir(), "poxymeter.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `poxymeter_capture_bytes_read_total{run_id="run-3"} 120`)
	assert.Contains(t, text, `poxymeter_reference_samples_compared_total{run_id="run-3"} 54`)
	assert.Contains(t, text, `poxymeter_reference_mismatches_total{run_id="run-3"} 1`)
	assert.Contains(t, text, "poxymeter_decode_duration_seconds_count")
}

func TestWriteTextfileBadPath(t *testing.T) {
	m := NewMetrics("poxymeter", "run-4")

	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write metrics textfile")
}
