// Package capture turns exported HID report dumps into the byte stream consumed by the
// frame splitter. It reads either hex text, one report per line, or raw binary reports.
package capture

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gobwas/pool/pbytes"
)

// Supported input formats
const (
	FormatHex = "hex"
	FormatRaw = "raw"
)

// HIDReportSize is the size of one interrupt report; reports are padded with 0x00 to this length
const HIDReportSize = 64

// ErrUnknownFormat is returned for an input format other than hex or raw
var ErrUnknownFormat = errors.New("unknown capture format")

// Reader assembles a byte stream from capture reports
type Reader struct {
	format      string
	trimPadding bool
	logger      *slog.Logger
}

// Stats describes what a read produced
type Stats struct {
	Reports      int
	Bytes        int
	PaddingBytes int // bytes removed by padding trimming
}

// NewReader creates a reader for the given format
func NewReader(format string, trimPadding bool, logger *slog.Logger) (*Reader, error) {
	if format != FormatHex && format != FormatRaw {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reader{
		format:      format,
		trimPadding: trimPadding,
		logger:      logger,
	}, nil
}

// ReadStream reads every report from src and concatenates them in order
func (r *Reader) ReadStream(src io.Reader) ([]byte, Stats, error) {
	var (
		stream []byte
		stats  Stats
		err    error
	)

	switch r.format {
	case FormatHex:
		stream, stats, err = r.readHex(src)
	case FormatRaw:
		stream, stats, err = r.readRaw(src)
	}
	if err != nil {
		return nil, stats, err
	}

	r.logger.Debug("Capture read",
		slog.String("format", r.format),
		slog.Int("reports", stats.Reports),
		slog.Int("bytes", stats.Bytes),
		slog.Int("padding_bytes", stats.PaddingBytes),
	)

	return stream, stats, nil
}

// readHex parses lines of hex bytes separated by ':' or whitespace.
// Blank lines and '#' comments are skipped.
func (r *Reader) readHex(src io.Reader) ([]byte, Stats, error) {
	var (
		stream []byte
		stats  Stats
	)

	scanner := bufio.NewScanner(src)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.FieldsFunc(line, isSeparator)
		if len(fields) == 0 {
			continue
		}

		report := pbytes.GetCap(len(fields))
		for _, field := range fields {
			if len(field) != 2 {
				pbytes.Put(report)
				return nil, stats, fmt.Errorf("line %d: invalid byte %q", lineNo, field)
			}
			b, err := hex.DecodeString(field)
			if err != nil {
				pbytes.Put(report)
				return nil, stats, fmt.Errorf("line %d: invalid byte %q: %w", lineNo, field, err)
			}
			report = append(report, b[0])
		}

		stream = r.appendReport(stream, report, &stats)
		pbytes.Put(report)
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read hex capture: %w", err)
	}

	return stream, stats, nil
}

// readRaw reads the input as consecutive HIDReportSize-byte reports. A short final report is kept.
func (r *Reader) readRaw(src io.Reader) ([]byte, Stats, error) {
	var (
		stream []byte
		stats  Stats
	)

	report := pbytes.GetLen(HIDReportSize)
	defer pbytes.Put(report)

	for {
		n, err := io.ReadFull(src, report)
		if n > 0 {
			stream = r.appendReport(stream, report[:n], &stats)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read raw capture: %w", err)
		}
	}

	return stream, stats, nil
}

func (r *Reader) appendReport(stream, report []byte, stats *Stats) []byte {
	stats.Reports++
	if r.trimPadding {
		trimmed := TrimPadding(report)
		stats.PaddingBytes += len(report) - len(trimmed)
		report = trimmed
	}
	stats.Bytes += len(report)
	return append(stream, report...)
}

// TrimPadding returns report without its trailing 0x00 bytes
func TrimPadding(report []byte) []byte {
	end := len(report)
	for end > 0 && report[end-1] == 0x00 {
		end--
	}
	return report[:end]
}

func isSeparator(r rune) bool {
	return r == ':' || r == ' ' || r == '\t' || r == ','
}
