package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skypro1111/poxymeter/internal/metrics"
	"github.com/skypro1111/poxymeter/internal/protocol"
)

// FrameOutcome is the result of decoding one chunk. Exactly one of Result and Err is set.
type FrameOutcome struct {
	Index   int
	Offset  int
	Command protocol.CommandCode
	Frame   *protocol.FixedFrame
	Result  *protocol.Result
	Err     error
}

// Summary aggregates a batch of outcomes
type Summary struct {
	Frames           int
	Decoded          int
	Unrecoverable    int
	SizeMismatches   int
	AmbiguousSamples int
	Samples          int
}

// Decoder decodes batches of chunks on a bounded number of workers
type Decoder struct {
	workers int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewDecoder creates a decoder. m may be nil.
func NewDecoder(workers int, logger *slog.Logger, m *metrics.Metrics) *Decoder {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Decoder{
		workers: workers,
		logger:  logger,
		metrics: m,
	}
}

// DecodeAll decodes every chunk and returns outcomes in chunk order.
// Per-frame errors are recorded in the outcomes; only context cancellation fails the batch.
func (d *Decoder) DecodeAll(ctx context.Context, chunks []Chunk) ([]FrameOutcome, error) {
	start := time.Now()
	outcomes := make([]FrameOutcome, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Each worker writes only its own slot
			outcomes[i] = d.decodeChunk(chunks[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	if d.metrics != nil {
		d.metrics.RecordDecodeDuration(elapsed.Seconds())
	}

	summary := Summarize(outcomes)
	d.logger.Info("Batch decoded",
		slog.Int("frames", summary.Frames),
		slog.Int("decoded", summary.Decoded),
		slog.Int("unrecoverable", summary.Unrecoverable),
		slog.Int("size_mismatches", summary.SizeMismatches),
		slog.Int("ambiguous_samples", summary.AmbiguousSamples),
		slog.Duration("elapsed", elapsed),
	)

	return outcomes, nil
}

func (d *Decoder) decodeChunk(chunk Chunk) FrameOutcome {
	outcome := FrameOutcome{
		Index:  chunk.Index,
		Offset: chunk.Offset,
	}
	if len(chunk.Data) > 0 {
		outcome.Command = protocol.CommandCode(chunk.Data[0])
	}

	frame, err := protocol.ParseFixedFrame(chunk.Data)
	if err != nil {
		outcome.Err = err
		if d.metrics != nil && errors.Is(err, protocol.ErrSizeMismatch) {
			d.metrics.RecordSizeMismatch()
		}
		d.logger.Warn("Skipping frame",
			slog.Int("index", chunk.Index),
			slog.Int("offset", chunk.Offset),
			slog.String("error", err.Error()),
		)
		return outcome
	}

	result := protocol.Decode(frame)
	outcome.Frame = frame
	outcome.Result = result

	ambiguous := result.AmbiguousCount()
	if d.metrics != nil {
		d.metrics.RecordFrameDecoded(len(result.Samples), ambiguous, result.Unrecoverable)
	}

	switch {
	case result.Unrecoverable:
		d.logger.Debug("Frame carries no reading",
			slog.Int("index", chunk.Index),
			slog.Int("offset", chunk.Offset),
		)
	case ambiguous > 0:
		d.logger.Warn("Frame contains ambiguous nibbles",
			slog.Int("index", chunk.Index),
			slog.Int("offset", chunk.Offset),
			slog.Int("ambiguous_samples", ambiguous),
		)
	}

	return outcome
}

// Summarize counts the outcomes of a batch
func Summarize(outcomes []FrameOutcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Frames++
		switch {
		case o.Err != nil:
			if errors.Is(o.Err, protocol.ErrSizeMismatch) {
				s.SizeMismatches++
			}
		case o.Result.Unrecoverable:
			s.Unrecoverable++
		default:
			s.Decoded++
			s.Samples += len(o.Result.Samples)
			s.AmbiguousSamples += o.Result.AmbiguousCount()
		}
	}
	return s
}

// Results returns the decoded results in order, with nil for frames that failed
func Results(outcomes []FrameOutcome) []*protocol.Result {
	results := make([]*protocol.Result, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.Result
	}
	return results
}

// Values concatenates the samples of every numeric result in order
func Values(outcomes []FrameOutcome) []uint8 {
	var values []uint8
	for _, o := range outcomes {
		if o.Result == nil || o.Result.Unrecoverable {
			continue
		}
		values = append(values, o.Result.Values()...)
	}
	return values
}
