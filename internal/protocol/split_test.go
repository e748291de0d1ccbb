package protocol

import (
	"math/rand"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		stream   []byte
		expected [][]byte
		offsets  []int
	}{
		{
			name:     "empty stream",
			stream:   []byte{},
			expected: nil,
		},
		{
			name:     "single byte",
			stream:   []byte{0x42},
			expected: [][]byte{{0x42}},
			offsets:  []int{0},
		},
		{
			name:     "two commands",
			stream:   []byte{0x81, 0x01, 0x02, 0x83, 0x04},
			expected: [][]byte{{0x81, 0x01, 0x02}, {0x83, 0x04}},
			offsets:  []int{0, 3},
		},
		{
			name:     "no markers",
			stream:   []byte{0x01, 0x02, 0x03},
			expected: [][]byte{{0x01, 0x02, 0x03}},
			offsets:  []int{0},
		},
		{
			name:     "every byte a marker",
			stream:   []byte{0x80, 0x9A, 0xFF},
			expected: [][]byte{{0x80}, {0x9A}, {0xFF}},
			offsets:  []int{0, 1, 2},
		},
		{
			name:     "stream starting mid-command",
			stream:   []byte{0x05, 0x06, 0xD2, 0x07},
			expected: [][]byte{{0x05, 0x06}, {0xD2, 0x07}},
			offsets:  []int{0, 2},
		},
		{
			name:     "trailing marker",
			stream:   []byte{0xEB, 0x01, 0x9A},
			expected: [][]byte{{0xEB, 0x01}, {0x9A}},
			offsets:  []int{0, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := Split(tt.stream)

			if len(frames) != len(tt.expected) {
				t.Fatalf("Expected %d frames, got %d: %v", len(tt.expected), len(frames), frames)
			}
			for i, frame := range frames {
				if !bytesEqual(frame.Data, tt.expected[i]) {
					t.Errorf("Frame %d: expected [%s], got [%s]", i, hexBytes(tt.expected[i]), frame)
				}
				if frame.Offset != tt.offsets[i] {
					t.Errorf("Frame %d: expected offset %d, got %d", i, tt.offsets[i], frame.Offset)
				}
			}
		})
	}
}

func TestSplitReassemblesStream(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 200; run++ {
		stream := make([]byte, rng.Intn(128))
		rng.Read(stream)

		var rebuilt []byte
		for _, frame := range Split(stream) {
			rebuilt = append(rebuilt, frame.Data...)
		}

		if !bytesEqual(rebuilt, stream) {
			t.Fatalf("Run %d: reassembled stream differs\nwant [%s]\ngot  [%s]", run, hexBytes(stream), hexBytes(rebuilt))
		}
	}
}

func TestSplitFrameInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for run := 0; run < 200; run++ {
		stream := make([]byte, 1+rng.Intn(96))
		rng.Read(stream)

		for i, frame := range Split(stream) {
			if frame.Len() == 0 {
				t.Fatalf("Run %d: frame %d is empty", run, i)
			}
			if i > 0 && !frame.HasMarker() {
				t.Errorf("Run %d: frame %d at offset %d does not start on a marker", run, i, frame.Offset)
			}
			if j := IndexOfMarker(frame.Data[1:]); j >= 0 {
				t.Errorf("Run %d: frame %d has a marker inside it at position %d", run, i, j+1)
			}
		}
	}
}

func TestSplitDoesNotLeakCapacity(t *testing.T) {
	stream := []byte{0x81, 0x01, 0x83, 0x04}
	frames := Split(stream)

	_ = append(frames[0].Data, 0xEE)

	if stream[2] != 0x83 {
		t.Errorf("Appending to a frame overwrote the next frame: stream is [%s]", hexBytes(stream))
	}
}

func TestScannerReset(t *testing.T) {
	stream := []byte{0xD2, 0x01, 0xD3, 0x02, 0x03}
	s := NewScanner(stream)

	var first []Frame
	for s.Next() {
		first = append(first, s.Frame())
	}

	s.Reset()

	var second []Frame
	for s.Next() {
		second = append(second, s.Frame())
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Expected 2 frames on each pass, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Offset != second[i].Offset || !bytesEqual(first[i].Data, second[i].Data) {
			t.Errorf("Frame %d differs between passes: %v vs %v", i, first[i], second[i])
		}
	}
	if s.Next() {
		t.Error("Expected exhausted scanner to stay exhausted")
	}
}

func TestFrameCommand(t *testing.T) {
	frames := Split([]byte{0xD2, 0x00, 0x01})
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}
	if frames[0].Command() != ReadPulseFromManuallyRecordedFileResponse {
		t.Errorf("Expected pulse file response, got %s", frames[0].Command())
	}
	if got := frames[0].String(); got != "d2 00 01" {
		t.Errorf("Expected \"d2 00 01\", got %q", got)
	}
}
