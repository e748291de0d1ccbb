package protocol

import "fmt"

// Protocol constants
const (
	// Framing
	MarkerBit    = 0x80 // Set on the first byte of every command/response
	SentinelByte = 0x7F // Fills the payload of a frame without a valid reading

	// Fixed frame layout: [Command:1][Sequence:2][Payload:16][Checksum:1]
	FixedFrameSize = 20
	CommandSize    = 1
	SequenceSize   = 2
	PayloadSize    = 16
	ChecksumSize   = 1

	// Payload layout: [SignMask:2][Base:1][Deltas:13]
	SignMaskSize = 2
	BaseOffset   = 2
	DeltaOffset  = 3
	DeltaCount   = PayloadSize - DeltaOffset

	SignMaskBits    = 13
	SamplesPerFrame = 1 + 2*DeltaCount

	// Auto-recorded file frame layout: [Command:1][Header:4][SignBits:3][Data:21][Checksum:1]
	RecordFrameSize    = 30
	RecordHeaderSize   = 4
	RecordSignOffset   = 5
	RecordSignSize     = 3
	RecordDataOffset   = 8
	RecordDataCount    = 21
	InvalidRecordValue = 0xFF

	// Live data reading layout: [Command:1][Kind:1][?:1][Pulse:1][SpO2:1]...
	LiveReadingKind    = 0x01
	LiveReadingMinSize = 8
	LivePulseOffset    = 3
	LiveSpO2Offset     = 4
)

// CommandCode identifies a command sent to the oximeter or a response received from it.
// Response codes are mostly the command code XOR 0x70, with exceptions.
type CommandCode uint8

// Known command and response codes
const (
	ReadyCommand                                CommandCode = 0x80
	GetDeviceNameCommand                        CommandCode = 0x81
	GetVersionInfoCommand                       CommandCode = 0x82
	SetDateTimeCommand                          CommandCode = 0x83
	ReadPropertyCommand                         CommandCode = 0x8E
	SetPropertyCommand                          CommandCode = 0x8F
	GetAuxiliaryDataCommand                     CommandCode = 0x90
	KeepAliveCommand                            CommandCode = 0x9A
	LiveDataCommand                             CommandCode = 0x9B
	AdvanceAndShowAutoRecordedFileHeaderCommand CommandCode = 0x9C
	ReadAutoRecordedFileCommand                 CommandCode = 0x9D
	FileStoreInfoCommand                        CommandCode = 0x9F
	ManuallyRecordedFileMetadataCommand         CommandCode = 0xA0
	ReadPulseFromManuallyRecordedFileCommand    CommandCode = 0xA2
	ReadOxygenFromManuallyRecordedFileCommand   CommandCode = 0xA3

	ManuallyRecordedFileMetadataResponse         CommandCode = 0xD0
	ReadPulseFromManuallyRecordedFileResponse    CommandCode = 0xD2
	ReadOxygenFromManuallyRecordedFileResponse   CommandCode = 0xD3
	GetAuxiliaryDataResponse                     CommandCode = 0xE0
	LiveDataResponse                             CommandCode = 0xEB
	AdvanceAndShowAutoRecordedFileHeaderResponse CommandCode = 0xEC
	ReadAutoRecordedFileResponse                 CommandCode = 0xED
	FileStoreInfoResponse                        CommandCode = 0xEF
	ReadyResponse                                CommandCode = 0xF0
	GetDeviceNameResponse                        CommandCode = 0xF1
	GetVersionInfoResponse                       CommandCode = 0xF2
	SetDateTimeResponse                          CommandCode = 0xF3
	ReadPropertyResponse                         CommandCode = 0xFE
	SetPropertyResponse                          CommandCode = 0xFF
)

var commandNames = map[CommandCode]string{
	ReadyCommand:                                "ReadyCommand",
	GetDeviceNameCommand:                        "GetDeviceNameCommand",
	GetVersionInfoCommand:                       "GetVersionInfoCommand",
	SetDateTimeCommand:                          "SetDateTimeCommand",
	ReadPropertyCommand:                         "ReadPropertyCommand",
	SetPropertyCommand:                          "SetPropertyCommand",
	GetAuxiliaryDataCommand:                     "GetAuxiliaryDataCommand",
	KeepAliveCommand:                            "KeepAliveCommand",
	LiveDataCommand:                             "LiveDataCommand",
	AdvanceAndShowAutoRecordedFileHeaderCommand: "AdvanceAndShowAutoRecordedFileHeaderCommand",
	ReadAutoRecordedFileCommand:                 "ReadAutoRecordedFileCommand",
	FileStoreInfoCommand:                        "FileStoreInfoCommand",
	ManuallyRecordedFileMetadataCommand:         "ManuallyRecordedFileMetadataCommand",
	ReadPulseFromManuallyRecordedFileCommand:    "ReadPulseFromManuallyRecordedFileCommand",
	ReadOxygenFromManuallyRecordedFileCommand:   "ReadOxygenFromManuallyRecordedFileCommand",

	ManuallyRecordedFileMetadataResponse:         "ManuallyRecordedFileMetadataResponse",
	ReadPulseFromManuallyRecordedFileResponse:    "ReadPulseFromManuallyRecordedFileResponse",
	ReadOxygenFromManuallyRecordedFileResponse:   "ReadOxygenFromManuallyRecordedFileResponse",
	GetAuxiliaryDataResponse:                     "GetAuxiliaryDataResponse",
	LiveDataResponse:                             "LiveDataResponse",
	AdvanceAndShowAutoRecordedFileHeaderResponse: "AdvanceAndShowAutoRecordedFileHeaderResponse",
	ReadAutoRecordedFileResponse:                 "ReadAutoRecordedFileResponse",
	FileStoreInfoResponse:                        "FileStoreInfoResponse",
	ReadyResponse:                                "ReadyResponse",
	GetDeviceNameResponse:                        "GetDeviceNameResponse",
	GetVersionInfoResponse:                       "GetVersionInfoResponse",
	SetDateTimeResponse:                          "SetDateTimeResponse",
	ReadPropertyResponse:                         "ReadPropertyResponse",
	SetPropertyResponse:                          "SetPropertyResponse",
}

// IsKnown reports whether the code appears in the command/response table
func (c CommandCode) IsKnown() bool {
	_, ok := commandNames[c]
	return ok
}

// IsMarker reports whether the code byte carries the framing marker
func (c CommandCode) IsMarker() bool {
	return IsMarker(byte(c))
}

// String returns the name of the code, or Unknown(0xNN)
func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(c))
}

// IsMarker reports whether b starts a new command or response
func IsMarker(b byte) bool {
	return b&MarkerBit != 0
}

// IndexOfMarker returns the index of the first marker byte in b, or -1 if there is none
func IndexOfMarker(b []byte) int {
	for i, c := range b {
		if IsMarker(c) {
			return i
		}
	}
	return -1
}
