package protocol

import (
	"fmt"
	"strings"
)

const recordSignMask = 1<<RecordDataCount - 1

// RecordFrame is a named-field view of a 30-byte auto-recorded file response
type RecordFrame struct {
	Command  CommandCode
	Header   [RecordHeaderSize]byte // Opaque
	Signs    uint32                 // Bit j supplies bit 3 of the top nibble of Data[j]
	Data     [RecordDataCount]byte
	Checksum byte // Not validated
}

// ParseRecordFrame parses exactly RecordFrameSize bytes into a RecordFrame
func ParseRecordFrame(data []byte) (*RecordFrame, error) {
	if len(data) != RecordFrameSize {
		return nil, &SizeMismatchError{Expected: RecordFrameSize, Got: len(data)}
	}

	frame := &RecordFrame{
		Command:  CommandCode(data[0]),
		Checksum: data[RecordFrameSize-1],
	}
	copy(frame.Header[:], data[1:1+RecordHeaderSize])
	copy(frame.Data[:], data[RecordDataOffset:RecordDataOffset+RecordDataCount])

	// Three 7-bit groups, least significant first
	s := data[RecordSignOffset:]
	frame.Signs = (uint32(s[0]) | uint32(s[1])<<7 | uint32(s[2])<<14) & recordSignMask

	return frame, nil
}

// RecordValue is one value of an auto-recorded file
type RecordValue struct {
	Value   uint8
	Invalid bool // The device stored no reading here; Value is InvalidRecordValue
}

// RecordDecoder reconstructs the values of one auto-recorded file.
// Frames must be fed in order: the base value carries over from frame to frame.
type RecordDecoder struct {
	base    uint8
	pending bool // The high half of a new base value has been read
}

// NewRecordDecoder creates a decoder with a zero base value
func NewRecordDecoder() *RecordDecoder {
	return &RecordDecoder{}
}

// Reset clears the base value before decoding another file or mode
func (d *RecordDecoder) Reset() {
	d.base = 0
	d.pending = false
}

// Decode returns the values carried by f.
// Each nibble is a downward delta from the base value. A top nibble of 0xF instead loads the
// bottom nibble into the base value, high half first; 0xFF outside such a load marks two
// invalid values. A bottom nibble of 0xF produces no value.
func (d *RecordDecoder) Decode(f *RecordFrame) []RecordValue {
	values := make([]RecordValue, 0, 2*RecordDataCount)

	for j, b := range f.Data {
		top := (b >> 4) & 0x0F
		if f.Signs&(1<<uint(j)) != 0 {
			top |= nibbleSignBit
		}
		bottom := b & 0x0F

		if top == invalidNibble {
			if bottom == invalidNibble && !d.pending {
				invalid := RecordValue{Value: InvalidRecordValue, Invalid: true}
				values = append(values, invalid, invalid)
				continue
			}

			if d.pending {
				d.base |= bottom
				d.pending = false
			} else {
				d.base = bottom << 4
				d.pending = true
			}
			continue
		}

		values = append(values, RecordValue{Value: d.base - top})
		if bottom != invalidNibble {
			values = append(values, RecordValue{Value: d.base - bottom})
		}
	}

	return values
}

// FormatRecordValues renders values separated by spaces, with "-" for invalid values
func FormatRecordValues(values []RecordValue) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if v.Invalid {
			sb.WriteByte('-')
			continue
		}
		fmt.Fprintf(&sb, "%d", v.Value)
	}
	return sb.String()
}
