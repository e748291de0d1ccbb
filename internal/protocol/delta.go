package protocol

import "fmt"

const (
	signMaskLow     = 1<<SignMaskBits - 1
	nibbleSignBit   = 0x08
	nibbleMagnitude = 0x07
	invalidNibble   = 0x0F
)

// SignMask holds one sign bit per top nibble; bit k set means the k-th top nibble
// is subtracted. Only the low SignMaskBits bits are meaningful.
type SignMask uint16

// NewSignMask packs the two sign bytes. The top bit of each byte is reserved for framing,
// and the bottom bit of the first byte is unused: 0sssssss 0ssssss?
func NewSignMask(lo, hi byte) SignMask {
	return SignMask((uint16(hi)<<6)|uint16(lo>>1)) & signMaskLow
}

// Subtract reports whether the k-th top nibble carries a negative sign
func (m SignMask) Subtract(k int) bool {
	if k < 0 || k >= SignMaskBits {
		return false
	}
	return m&(1<<uint(k)) != 0
}

// String returns the mask as 13 binary digits, most significant first
func (m SignMask) String() string {
	return fmt.Sprintf("%013b", uint16(m))
}

// Sample is one reconstructed waveform value
type Sample struct {
	Value     uint8
	Ambiguous bool // Produced from a nibble with sign set and magnitude 7 (0xF), which the device uses as a marker
}

// Result is the outcome of decoding one fixed frame.
// When Unrecoverable is set the device reported no reading and Samples only holds placeholders.
type Result struct {
	Samples       []Sample
	Unrecoverable bool
}

// Values returns the sample values in order, or nil for an unrecoverable frame
func (r *Result) Values() []uint8 {
	if r.Unrecoverable {
		return nil
	}
	values := make([]uint8, len(r.Samples))
	for i, s := range r.Samples {
		values[i] = s.Value
	}
	return values
}

// AmbiguousCount returns the number of samples flagged as ambiguous
func (r *Result) AmbiguousCount() int {
	n := 0
	for _, s := range r.Samples {
		if s.Ambiguous {
			n++
		}
	}
	return n
}

// Decode reconstructs SamplesPerFrame absolute values from a fixed frame.
// The accumulator is a byte and wraps on overflow and underflow.
func Decode(f *FixedFrame) *Result {
	if f.IsSentinel() {
		return unrecoverable()
	}

	mask := f.SignMask()
	value := f.Base()

	samples := make([]Sample, 0, SamplesPerFrame)
	samples = append(samples, Sample{Value: value})

	for bi, b := range f.Deltas() {
		// The top nibble's own bit 3 is the framing bit; its sign lives in the mask
		top := (b >> 4) & nibbleMagnitude
		if mask.Subtract(bi) {
			top |= nibbleSignBit
		}
		value = applyNibble(value, top, top&nibbleSignBit != 0)
		samples = append(samples, Sample{Value: value, Ambiguous: top == invalidNibble})

		bottom := b & 0x0F
		value = applyNibble(value, bottom, bottom&nibbleSignBit != 0)
		samples = append(samples, Sample{Value: value, Ambiguous: bottom == invalidNibble})
	}

	return &Result{Samples: samples}
}

// DecodeBytes parses and decodes a raw 20-byte frame
func DecodeBytes(data []byte) (*Result, error) {
	frame, err := ParseFixedFrame(data)
	if err != nil {
		return nil, err
	}
	return Decode(frame), nil
}

func applyNibble(value, nibble uint8, subtract bool) uint8 {
	magnitude := nibble & nibbleMagnitude
	if subtract {
		return value - magnitude
	}
	return value + magnitude
}

func unrecoverable() *Result {
	samples := make([]Sample, SamplesPerFrame)
	for i := range samples {
		samples[i].Value = SentinelByte
	}
	return &Result{Samples: samples, Unrecoverable: true}
}
