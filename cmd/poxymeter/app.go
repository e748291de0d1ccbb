package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/skypro1111/poxymeter/internal/capture"
	"github.com/skypro1111/poxymeter/internal/config"
	"github.com/skypro1111/poxymeter/internal/metrics"
	"github.com/skypro1111/poxymeter/internal/pipeline"
	"github.com/skypro1111/poxymeter/internal/protocol"
)

// command is one subcommand of the tool
type command interface {
	register(fs *flag.FlagSet)
	run(ctx context.Context, a *app, capturePath string) (int, error)
}

// app carries what every command needs for one run
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	stdin   io.Reader
	stdout  io.Writer
}

func newApp(cfg *config.Config, logger *slog.Logger, runID string, stdin io.Reader, stdout io.Writer) *app {
	return &app{
		cfg:     cfg,
		logger:  logger.With(slog.String("run_id", runID)),
		metrics: metrics.NewMetrics(cfg.Metrics.Namespace, runID),
		stdin:   stdin,
		stdout:  stdout,
	}
}

// readStream reads the capture at path, or stdin for "-"
func (a *app) readStream(path string) ([]byte, error) {
	reader, err := capture.NewReader(a.cfg.Input.Format, a.cfg.Input.TrimPadding, a.logger)
	if err != nil {
		return nil, err
	}

	var src io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open capture: %w", err)
		}
		defer f.Close()
		src = f
	}

	stream, stats, err := reader.ReadStream(bufio.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to read capture %s: %w", path, err)
	}

	a.metrics.RecordBytesRead(stats.Bytes)
	a.logger.Info("Capture loaded",
		slog.Int("reports", stats.Reports),
		slog.Int("bytes", stats.Bytes),
	)

	return stream, nil
}

// decode cuts the stream into data frames and decodes them
func (a *app) decode(ctx context.Context, stream []byte, useSplitter bool) ([]pipeline.FrameOutcome, error) {
	var chunks []pipeline.Chunk
	if useSplitter {
		frames := protocol.Split(stream)
		a.recordSplit(frames)
		chunks = pipeline.FromFrames(frames,
			protocol.ReadPulseFromManuallyRecordedFileResponse,
			protocol.ReadOxygenFromManuallyRecordedFileResponse,
		)
	} else {
		chunks = pipeline.Segment(stream, a.cfg.Decode.FrameSize)
	}

	a.logger.Debug("Stream segmented",
		slog.Bool("splitter", useSplitter),
		slog.Int("chunks", len(chunks)),
	)

	d := pipeline.NewDecoder(a.cfg.Decode.Workers, a.logger, a.metrics)
	return d.DecodeAll(ctx, chunks)
}

func (a *app) recordSplit(frames []protocol.Frame) {
	for _, f := range frames {
		a.metrics.RecordFrameSplit(commandLabel(f))
	}
}

// commandLabel names the frame's command, or "none" for a leading run without a marker
func commandLabel(f protocol.Frame) string {
	if !f.HasMarker() {
		return "none"
	}
	return f.Command().String()
}

// formatSamples renders sample values separated by spaces; ambiguous samples get a '?' suffix
func formatSamples(samples []protocol.Sample) string {
	var sb strings.Builder
	for i, s := range samples {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", s.Value)
		if s.Ambiguous {
			sb.WriteByte('?')
		}
	}
	return sb.String()
}
