package protocol

import (
	"errors"
	"testing"
)

func TestParseFixedFrame(t *testing.T) {
	valid := buildFrame(0xD2, 0x02, 0x00, 0x64)

	tests := []struct {
		name        string
		data        []byte
		expectError bool
		errorMsg    string
		validate    func(*FixedFrame) bool
	}{
		{
			name:        "valid frame",
			data:        valid,
			expectError: false,
			validate: func(f *FixedFrame) bool {
				return f.Command == ReadPulseFromManuallyRecordedFileResponse &&
					f.Sequence == [2]byte{0x01, 0x02} &&
					f.Payload[0] == 0x02 &&
					f.Base() == 0x64 &&
					len(f.Deltas()) == DeltaCount &&
					f.Checksum == 0x5A
			},
		},
		{
			name:        "frame too short",
			data:        valid[:19],
			expectError: true,
			errorMsg:    "expected 20 bytes, got 19",
		},
		{
			name:        "frame too long",
			data:        append(append([]byte{}, valid...), 0x00),
			expectError: true,
			errorMsg:    "expected 20 bytes, got 21",
		},
		{
			name:        "empty frame",
			data:        []byte{},
			expectError: true,
			errorMsg:    "frame size mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseFixedFrame(tt.data)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else {
					if !errors.Is(err, ErrSizeMismatch) {
						t.Errorf("Expected error to match ErrSizeMismatch, got %v", err)
					}
					if tt.errorMsg != "" && !contains(err.Error(), tt.errorMsg) {
						t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
					}
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				} else if tt.validate != nil && !tt.validate(result) {
					t.Errorf("Validation failed for result: %+v", result)
				}
			}
		})
	}
}

func TestFixedFrameBytesRoundTrip(t *testing.T) {
	data := buildFrame(0xD3, 0x10, 0x20, 0x30, 0x41, 0x52)

	frame, err := ParseFixedFrame(data)
	if err != nil {
		t.Fatalf("ParseFixedFrame failed: %v", err)
	}

	if !bytesEqual(frame.Bytes(), data) {
		t.Errorf("Expected [%s], got [%s]", hexBytes(data), hexBytes(frame.Bytes()))
	}
}

func TestSizeMismatchErrorAs(t *testing.T) {
	_, err := ParseFixedFrame(make([]byte, 7))

	var sizeErr *SizeMismatchError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("Expected *SizeMismatchError, got %T", err)
	}
	if sizeErr.Got != 7 {
		t.Errorf("Expected Got = 7, got %d", sizeErr.Got)
	}
}

func TestFixedFrameString(t *testing.T) {
	frame, err := ParseFixedFrame(buildFrame(0xD2, 0x02, 0x00, 0x64))
	if err != nil {
		t.Fatalf("ParseFixedFrame failed: %v", err)
	}

	expected := "| d2 | 01 02 | 02 00 64 00 00 00 00 00 00 00 00 00 00 00 00 00 | 5a"
	if got := frame.String(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestIsSentinel(t *testing.T) {
	sentinel := buildFrame(0xD2)
	for i := 3; i < 19; i++ {
		sentinel[i] = SentinelByte
	}
	almost := append([]byte{}, sentinel...)
	almost[18] = 0x7E

	tests := []struct {
		name     string
		data     []byte
		expected bool
	}{
		{name: "all 0x7F", data: sentinel, expected: true},
		{name: "one byte off", data: almost, expected: false},
		{name: "all zero", data: buildFrame(0xD2), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := ParseFixedFrame(tt.data)
			if err != nil {
				t.Fatalf("ParseFixedFrame failed: %v", err)
			}
			if got := frame.IsSentinel(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
