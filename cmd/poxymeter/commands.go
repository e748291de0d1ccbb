package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/skypro1111/poxymeter/internal/export"
	"github.com/skypro1111/poxymeter/internal/pipeline"
	"github.com/skypro1111/poxymeter/internal/protocol"
	"github.com/skypro1111/poxymeter/internal/reference"
)

// framesCommand prints every command frame of the capture
type framesCommand struct {
	verbose bool
}

func (c *framesCommand) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "Prefix each frame with its offset and command name, and decode live readings and auto-recorded file data")
}

func (c *framesCommand) run(ctx context.Context, a *app, capturePath string) (int, error) {
	stream, err := a.readStream(capturePath)
	if err != nil {
		return exitError, err
	}

	out := bufio.NewWriter(a.stdout)
	defer out.Flush()

	frames := protocol.Split(stream)
	a.recordSplit(frames)

	records := protocol.NewRecordDecoder()
	for _, f := range frames {
		if c.verbose {
			fmt.Fprintf(out, "%08x %-44s %s\n", f.Offset, commandLabel(f), f)
			annotateFrame(out, f, records)
			continue
		}
		fmt.Fprintln(out, f)
	}

	a.logger.Info("Capture split", slog.Int("frames", len(frames)))
	return exitOK, nil
}

// annotateFrame prints the decoded content of live readings and auto-recorded file frames.
// Auto-recorded frames share one decoder so the base value carries across them.
func annotateFrame(out *bufio.Writer, f protocol.Frame, records *protocol.RecordDecoder) {
	switch f.Command() {
	case protocol.LiveDataResponse:
		reading, err := protocol.ParseLiveReading(f.Data)
		if err != nil {
			if errors.Is(err, protocol.ErrNotLiveReading) {
				return
			}
			fmt.Fprintf(out, "  # %v\n", err)
			return
		}
		fmt.Fprintf(out, "  %s\n", reading)

	case protocol.ReadAutoRecordedFileResponse:
		frame, err := protocol.ParseRecordFrame(f.Data)
		if err != nil {
			fmt.Fprintf(out, "  # %v\n", err)
			return
		}
		fmt.Fprintf(out, "  values: %s\n", protocol.FormatRecordValues(records.Decode(frame)))
	}
}

// decodeCommand prints the reconstructed samples of every data frame
type decodeCommand struct {
	verbose     bool
	useSplitter bool
	wavPath     string
	sampleRate  int
	bitDepth    int
}

func (c *decodeCommand) register(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "Print each frame and its sign mask before its samples")
	fs.BoolVar(&c.useSplitter, "split", false, "Find frames with the splitter instead of assuming back-to-back 20-byte frames")
	fs.StringVar(&c.wavPath, "wav", "", "Also write the decoded waveform to this WAV file")
	fs.IntVar(&c.sampleRate, "wav-rate", 0, "WAV sample rate in Hz (default from config)")
	fs.IntVar(&c.bitDepth, "wav-bits", 0, "WAV bit depth, 8 or 16 (default from config)")
}

func (c *decodeCommand) run(ctx context.Context, a *app, capturePath string) (int, error) {
	stream, err := a.readStream(capturePath)
	if err != nil {
		return exitError, err
	}

	outcomes, err := a.decode(ctx, stream, c.useSplitter)
	if err != nil {
		return exitError, fmt.Errorf("decode aborted: %w", err)
	}

	out := bufio.NewWriter(a.stdout)
	for _, o := range outcomes {
		writeOutcome(out, o, c.verbose)
	}
	if err := out.Flush(); err != nil {
		return exitError, fmt.Errorf("failed to write output: %w", err)
	}

	if c.wavPath != "" {
		if err := c.writeWAV(a, outcomes); err != nil {
			return exitError, err
		}
	}

	return exitOK, nil
}

func (c *decodeCommand) writeWAV(a *app, outcomes []pipeline.FrameOutcome) error {
	rate := a.cfg.Export.SampleRate
	if c.sampleRate > 0 {
		rate = c.sampleRate
	}
	bits := a.cfg.Export.BitDepth
	if c.bitDepth > 0 {
		bits = c.bitDepth
	}

	f, err := os.Create(c.wavPath)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}
	defer f.Close()

	values := pipeline.Values(outcomes)
	if err := export.WriteWAV(f, values, rate, bits); err != nil {
		return fmt.Errorf("failed to export %s: %w", c.wavPath, err)
	}

	a.logger.Info("Waveform exported",
		slog.String("path", c.wavPath),
		slog.Int("samples", len(values)),
		slog.Int("sample_rate", rate),
		slog.Int("bit_depth", bits),
	)
	return nil
}

func writeOutcome(out *bufio.Writer, o pipeline.FrameOutcome, verbose bool) {
	if o.Err != nil {
		fmt.Fprintf(out, "# frame %d at offset %d: %v\n", o.Index, o.Offset, o.Err)
		return
	}

	if verbose {
		fmt.Fprintln(out, o.Frame)
		if !o.Result.Unrecoverable {
			fmt.Fprintf(out, "signs: %s\n", o.Frame.SignMask())
		}
	}

	if o.Result.Unrecoverable {
		fmt.Fprintf(out, "# frame %d at offset %d: no reading\n", o.Index, o.Offset)
		return
	}
	fmt.Fprintln(out, formatSamples(o.Result.Samples))
}

// compareCommand checks decoded samples against a reference CSV export
type compareCommand struct {
	csvPath     string
	column      int
	useSplitter bool
}

func (c *compareCommand) register(fs *flag.FlagSet) {
	fs.StringVar(&c.csvPath, "csv", "", "Reference CSV export (required)")
	fs.IntVar(&c.column, "column", -1, "Zero-based CSV column holding the waveform (default from config)")
	fs.BoolVar(&c.useSplitter, "split", false, "Find frames with the splitter instead of assuming back-to-back 20-byte frames")
}

func (c *compareCommand) run(ctx context.Context, a *app, capturePath string) (int, error) {
	if c.csvPath == "" {
		return exitError, fmt.Errorf("-csv is required")
	}

	column := a.cfg.Reference.Column
	if c.column >= 0 {
		column = c.column
	}

	expected, err := readReference(c.csvPath, column, a.cfg.Reference.SkipHeader)
	if err != nil {
		return exitError, err
	}

	stream, err := a.readStream(capturePath)
	if err != nil {
		return exitError, err
	}

	outcomes, err := a.decode(ctx, stream, c.useSplitter)
	if err != nil {
		return exitError, fmt.Errorf("decode aborted: %w", err)
	}

	report := reference.Compare(pipeline.Results(outcomes), expected)
	a.metrics.RecordComparison(report.Compared, len(report.Mismatches))

	out := bufio.NewWriter(a.stdout)
	for _, m := range report.Mismatches {
		fmt.Fprintln(out, m)
	}
	if err := out.Flush(); err != nil {
		return exitError, fmt.Errorf("failed to write output: %w", err)
	}

	a.logger.Info("Comparison finished",
		slog.Int("reference_values", len(expected)),
		slog.Int("compared", report.Compared),
		slog.Int("mismatches", len(report.Mismatches)),
		slog.Int("unrecoverable_frames", report.UnrecoverableSkips),
		slog.Int("failed_frames", report.ErrorSkips),
		slog.Bool("reference_exhausted", report.Exhausted),
		slog.Int("reference_remaining", report.Remaining),
	)

	if !report.OK() {
		return exitMismatch, nil
	}
	return exitOK, nil
}

func readReference(path string, column int, skipHeader bool) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference: %w", err)
	}
	defer f.Close()

	values, err := reference.ReadValues(f, column, skipHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference %s: %w", path, err)
	}
	return values, nil
}
