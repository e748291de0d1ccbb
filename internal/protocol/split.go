package protocol

import (
	"fmt"
	"strings"
)

// Frame is a contiguous run of the stream starting at a marker byte.
// Data aliases the stream it was split from; its capacity is clipped to its length.
type Frame struct {
	Offset int    // Position of the first byte in the stream
	Data   []byte // Frame bytes, including the leading marker
}

// Len returns the number of bytes in the frame
func (f Frame) Len() int {
	return len(f.Data)
}

// HasMarker reports whether the frame begins on a marker byte.
// Only the first frame of a stream that does not start on a marker returns false.
func (f Frame) HasMarker() bool {
	return len(f.Data) > 0 && IsMarker(f.Data[0])
}

// Command returns the frame's leading byte as a command code
func (f Frame) Command() CommandCode {
	if len(f.Data) == 0 {
		return 0
	}
	return CommandCode(f.Data[0])
}

// String returns the frame bytes as space-separated hex
func (f Frame) String() string {
	return hexBytes(f.Data)
}

// Scanner walks a byte stream frame by frame.
// It never fails: every byte of the stream lands in exactly one frame.
type Scanner struct {
	stream []byte
	cursor int
	frame  Frame
}

// NewScanner creates a scanner over stream. The stream is not copied and must not be
// modified while frames are in use.
func NewScanner(stream []byte) *Scanner {
	return &Scanner{stream: stream}
}

// Next advances to the next frame, returning false once the stream is exhausted
func (s *Scanner) Next() bool {
	if s.cursor >= len(s.stream) {
		return false
	}

	start := s.cursor
	end := len(s.stream)

	// The byte at the cursor is the current frame's own marker, so the search starts after it
	if j := IndexOfMarker(s.stream[start+1:]); j >= 0 {
		end = start + 1 + j
	}

	s.frame = Frame{Offset: start, Data: s.stream[start:end:end]}
	s.cursor = end
	return true
}

// Frame returns the frame produced by the last call to Next
func (s *Scanner) Frame() Frame {
	return s.frame
}

// Reset rewinds the scanner to the beginning of its stream
func (s *Scanner) Reset() {
	s.cursor = 0
	s.frame = Frame{}
}

// Split cuts stream into frames. An empty stream yields no frames.
func Split(stream []byte) []Frame {
	var frames []Frame
	s := NewScanner(stream)
	for s.Next() {
		frames = append(frames, s.Frame())
	}
	return frames
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}
