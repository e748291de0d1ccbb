// Package export writes decoded waveform samples to WAV so they can be inspected in any
// audio editor.
package export

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmFormat = 1

// WriteWAV encodes samples as mono PCM. At 8 bits the byte values are written unchanged;
// at 16 bits they are re-centred around zero and scaled to the full range.
func WriteWAV(w io.WriteSeeker, samples []uint8, sampleRate, bitDepth int) error {
	if len(samples) == 0 {
		return fmt.Errorf("cannot encode empty waveform")
	}

	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if bitDepth != 8 && bitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (only 8 and 16 are supported)", bitDepth)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = scaleSample(s, bitDepth)
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, pcmFormat)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}

	return nil
}

func scaleSample(s uint8, bitDepth int) int {
	if bitDepth == 8 {
		return int(s)
	}
	return (int(s) - 128) << 8
}

// WAVInfo holds basic information about an encoded waveform
type WAVInfo struct {
	SampleRate int
	BitDepth   int
	Channels   int
	NumSamples int
}

// ReadWAVInfo reads the header and sample count of a WAV stream
func ReadWAVInfo(r io.ReadSeeker) (*WAVInfo, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV samples: %w", err)
	}

	return &WAVInfo{
		SampleRate: int(dec.SampleRate),
		BitDepth:   int(dec.BitDepth),
		Channels:   int(dec.NumChans),
		NumSamples: len(buf.Data),
	}, nil
}
