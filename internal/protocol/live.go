package protocol

import (
	"errors"
	"fmt"
)

// ErrNotLiveReading is returned for frames that are not a current-readings live data response
var ErrNotLiveReading = errors.New("not a live reading")

// LiveReading holds the current values streamed by the device in live mode
type LiveReading struct {
	Pulse uint8 // beats per minute
	SpO2  uint8 // percent
}

// ParseLiveReading extracts the current readings from a LiveDataResponse frame.
// Live data responses of other kinds (such as waveform points) return ErrNotLiveReading.
func ParseLiveReading(data []byte) (*LiveReading, error) {
	if len(data) < 2 || CommandCode(data[0]) != LiveDataResponse {
		return nil, ErrNotLiveReading
	}
	if data[1] != LiveReadingKind {
		return nil, fmt.Errorf("%w: kind 0x%02x", ErrNotLiveReading, data[1])
	}
	if len(data) < LiveReadingMinSize {
		return nil, &SizeMismatchError{Expected: LiveReadingMinSize, Got: len(data), AtLeast: true}
	}

	return &LiveReading{
		Pulse: data[LivePulseOffset],
		SpO2:  data[LiveSpO2Offset],
	}, nil
}

// String renders the reading as "pulse=N spo2=N"
func (r *LiveReading) String() string {
	return fmt.Sprintf("pulse=%d spo2=%d", r.Pulse, r.SpO2)
}
