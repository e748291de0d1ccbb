// Package protocol implements framing and delta decoding for the oximeter's USB-HID protocol.
// It splits a concatenated byte stream into command frames on top-bit markers, and
// reconstructs absolute waveform samples from the fixed 20-byte data frames carried by the
// pulse and oxygen file responses.
package protocol
