// Package metrics records decode statistics as Prometheus metrics and writes them in the
// node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for one decoder run
type Metrics struct {
	registry *prometheus.Registry

	// Input metrics
	BytesRead   prometheus.Counter
	FramesSplit *prometheus.CounterVec

	// Decode metrics
	FramesDecoded       prometheus.Counter
	SizeMismatches      prometheus.Counter
	UnrecoverableFrames prometheus.Counter
	AmbiguousNibbles    prometheus.Counter
	SamplesDecoded      prometheus.Counter
	DecodeDuration      prometheus.Histogram

	// Reference comparison metrics
	ReferenceCompared   prometheus.Counter
	ReferenceMismatches prometheus.Counter
}

// NewMetrics creates all metrics on a private registry. Every series carries the run_id label.
func NewMetrics(namespace, runID string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"run_id": runID}, registry))

	return &Metrics{
		registry: registry,

		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_bytes_read_total",
			Help:      "Total number of capture bytes read into the stream",
		}),
		FramesSplit: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_split_total",
			Help:      "Total number of frames produced by the splitter, by command code",
		}, []string{"command"}),

		FramesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decoded_total",
			Help:      "Total number of fixed frames decoded",
		}),
		SizeMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_size_mismatches_total",
			Help:      "Total number of frames rejected for having the wrong length",
		}),
		UnrecoverableFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_unrecoverable_total",
			Help:      "Total number of frames carrying the no-reading sentinel",
		}),
		AmbiguousNibbles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ambiguous_nibbles_total",
			Help:      "Total number of samples produced from a 0xF delta nibble",
		}),
		SamplesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_decoded_total",
			Help:      "Total number of waveform samples reconstructed",
		}),
		DecodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding a batch of frames",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		}),

		ReferenceCompared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_samples_compared_total",
			Help:      "Total number of decoded samples compared against the reference export",
		}),
		ReferenceMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_mismatches_total",
			Help:      "Total number of decoded samples that differ from the reference export",
		}),
	}
}

// Gatherer exposes the underlying registry
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordBytesRead adds n to the bytes read counter
func (m *Metrics) RecordBytesRead(n int) {
	m.BytesRead.Add(float64(n))
}

// RecordFrameSplit increments the split counter for the frame's command name
func (m *Metrics) RecordFrameSplit(command string) {
	m.FramesSplit.WithLabelValues(command).Inc()
}

// RecordFrameDecoded records one decoded frame
func (m *Metrics) RecordFrameDecoded(samples, ambiguous int, unrecoverable bool) {
	m.FramesDecoded.Inc()
	if unrecoverable {
		m.UnrecoverableFrames.Inc()
		return
	}
	m.SamplesDecoded.Add(float64(samples))
	m.AmbiguousNibbles.Add(float64(ambiguous))
}

// RecordSizeMismatch increments the size mismatch counter
func (m *Metrics) RecordSizeMismatch() {
	m.SizeMismatches.Inc()
}

// RecordDecodeDuration observes the duration of a decode batch
func (m *Metrics) RecordDecodeDuration(seconds float64) {
	m.DecodeDuration.Observe(seconds)
}

// RecordComparison records the outcome of a reference comparison
func (m *Metrics) RecordComparison(compared, mismatches int) {
	m.ReferenceCompared.Add(float64(compared))
	m.ReferenceMismatches.Add(float64(mismatches))
}

// WriteTextfile writes all metrics to path atomically in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
