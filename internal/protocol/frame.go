package protocol

import (
	"errors"
	"fmt"
)

// ErrSizeMismatch is matched by every error returned for a frame of the wrong length
var ErrSizeMismatch = errors.New("frame size mismatch")

// SizeMismatchError reports a frame whose length does not fit its command
type SizeMismatchError struct {
	Expected int
	Got      int
	AtLeast  bool // Expected is a minimum rather than an exact length
}

func (e *SizeMismatchError) Error() string {
	if e.AtLeast {
		return fmt.Sprintf("frame size mismatch: expected at least %d bytes, got %d", e.Expected, e.Got)
	}
	return fmt.Sprintf("frame size mismatch: expected %d bytes, got %d", e.Expected, e.Got)
}

// Is lets errors.Is match ErrSizeMismatch
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// FixedFrame is a named-field view of a 20-byte data frame
// Layout: [Command:1][Sequence:2][Payload:16][Checksum:1]
type FixedFrame struct {
	Command  CommandCode        // Response code, e.g. 0xD2 for pulse file data
	Sequence [SequenceSize]byte // Opaque to decoding
	Payload  [PayloadSize]byte  // [SignMask:2][Base:1][Deltas:13]
	Checksum byte               // Not validated
}

// ParseFixedFrame parses exactly FixedFrameSize bytes into a FixedFrame
func ParseFixedFrame(data []byte) (*FixedFrame, error) {
	if len(data) != FixedFrameSize {
		return nil, &SizeMismatchError{Expected: FixedFrameSize, Got: len(data)}
	}

	frame := &FixedFrame{
		Command:  CommandCode(data[0]),
		Checksum: data[FixedFrameSize-1],
	}
	copy(frame.Sequence[:], data[CommandSize:CommandSize+SequenceSize])
	copy(frame.Payload[:], data[CommandSize+SequenceSize:FixedFrameSize-ChecksumSize])

	return frame, nil
}

// Bytes reassembles the 20 wire bytes of the frame
func (f *FixedFrame) Bytes() []byte {
	out := make([]byte, 0, FixedFrameSize)
	out = append(out, byte(f.Command))
	out = append(out, f.Sequence[:]...)
	out = append(out, f.Payload[:]...)
	return append(out, f.Checksum)
}

// SignMask returns the packed sign bits of the top nibbles
func (f *FixedFrame) SignMask() SignMask {
	return NewSignMask(f.Payload[0], f.Payload[1])
}

// Base returns the initial sample value
func (f *FixedFrame) Base() uint8 {
	return f.Payload[BaseOffset]
}

// Deltas returns the 13 delta bytes following the base value
func (f *FixedFrame) Deltas() []byte {
	return f.Payload[DeltaOffset:]
}

// IsSentinel reports whether every payload byte is SentinelByte
func (f *FixedFrame) IsSentinel() bool {
	for _, b := range f.Payload {
		if b != SentinelByte {
			return false
		}
	}
	return true
}

// String renders the frame as a table row: | cmd | seq | payload | checksum
func (f *FixedFrame) String() string {
	return fmt.Sprintf("| %02x | %s | %s | %02x", uint8(f.Command), hexBytes(f.Sequence[:]),
		hexBytes(f.Payload[:]), f.Checksum)
}
