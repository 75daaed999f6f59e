// Package owl provides a Go binding to the OWL firmware program vector, the shared
// structure through which the host OS drives a loaded patch. It validates the
// versioned structure once at startup and exposes its disjoint regions as
// capability objects (Audio, Parameters, Midi, Meta, Resources).
package owl

// Checksum identifies the layout revision of the program vector.
// These values correspond to the PROGRAM_VECTOR_CHECKSUM_* constants in the
// firmware's ProgramVector.h. An unknown value means the host firmware is
// incompatible and the patch must refuse to start.
type Checksum uint8

const (
	PROGRAM_VECTOR_CHECKSUM_V11 Checksum = 0xa1
	PROGRAM_VECTOR_CHECKSUM_V12 Checksum = 0xa2
	PROGRAM_VECTOR_CHECKSUM_V13 Checksum = 0xa3
)

// HardwareVersion identifies the device variant running the firmware.
// These values correspond to the *_HARDWARE constants in OpenWareMidiControl.h.
// The variant does not change the vector layout, only calibration defaults.
type HardwareVersion uint8

const (
	OWL_PEDAL_HARDWARE   HardwareVersion = 0x11
	OWL_MODULAR_HARDWARE HardwareVersion = 0x12
	OWL_RACK_HARDWARE    HardwareVersion = 0x13
	PRISM_HARDWARE       HardwareVersion = 0x14
	PLAYER_HARDWARE      HardwareVersion = 0x15
)

// Audio format byte, as published in the vector's audio_format field.
// The low nibble holds the channel count, the format bits select the sample
// representation, and AUDIO_FORMAT_NONINTERLEAVED marks block-per-channel
// (planar) storage instead of the default interleaved frames.
const (
	AUDIO_FORMAT_24B16 uint8 = 0x10 // 24-bit data, 16-bit word pairs in an int32 container
	AUDIO_FORMAT_24B32 uint8 = 0x20 // 24-bit data left-justified in an int32 container
	AUDIO_FORMAT_F32   uint8 = 0x30 // IEEE 754 single precision

	AUDIO_FORMAT_FORMAT_MASK    uint8 = 0x70
	AUDIO_FORMAT_NONINTERLEAVED uint8 = 0x80
	AUDIO_FORMAT_CHANNEL_MASK   uint8 = 0x0f
)

// SampleFormat is the in-memory representation of one sample in the raw
// firmware buffers. Both 24B16 and 24B32 resolve to Int32: the container is a
// 32-bit integer either way, with full scale at 2^31.
type SampleFormat int32

const (
	SampleInt32   SampleFormat = 0
	SampleFloat32 SampleFormat = 1
)

// BufferLayout describes how a multi-channel block is laid out in memory.
type BufferLayout int32

const (
	// Interleaved stores one frame at a time: l0, r0, l1, r1, ...
	Interleaved BufferLayout = 0
	// Planar stores one channel at a time: l0, l1, ..., r0, r1, ...
	Planar BufferLayout = 1
)

// ServiceOpcode identifies a firmware service call.
// These values correspond to the OWL_SERVICE_* constants in ServiceCall.h.
// The set of opcodes a firmware revision implements is closed and versioned;
// the dispatcher refuses opcodes outside the set for the detected layout.
type ServiceOpcode int32

const (
	OWL_SERVICE_ARM_RFFT_FAST_INIT_F32 ServiceOpcode = 1
	OWL_SERVICE_ARM_CFFT_INIT_F32      ServiceOpcode = 2
	OWL_SERVICE_GET_PARAMETERS         ServiceOpcode = 3
	OWL_SERVICE_GET_ARRAY              ServiceOpcode = 4
	OWL_SERVICE_REGISTER_CALLBACK      ServiceOpcode = 5
	OWL_SERVICE_REQUEST_CALLBACK       ServiceOpcode = 6
	OWL_SERVICE_LOAD_RESOURCE          ServiceOpcode = 7
)

// Service call status codes, as returned by the firmware's serviceCall entry
// point. Anything other than OWL_SERVICE_OK is an error; the dispatcher maps
// each code to a sentinel error so callers can classify without magic numbers.
const (
	OWL_SERVICE_OK               int32 = 0
	OWL_SERVICE_ERROR            int32 = -1
	OWL_SERVICE_INVALID_ARGS     int32 = -2
	OWL_SERVICE_NOT_SUPPORTED    int32 = -3
	OWL_SERVICE_BUSY             int32 = -4
	OWL_SERVICE_BUFFER_TOO_SMALL int32 = -5
)

// System table and function names passed to GET_ARRAY, REGISTER_CALLBACK and
// REQUEST_CALLBACK. The firmware matches these as NUL-terminated strings.
const (
	SYSTEM_TABLE_LOG     = "LOG"
	SYSTEM_TABLE_POW     = "POW"
	SYSTEM_FUNCTION_DRAW = "DRAW"
	SYSTEM_FUNCTION_MIDI = "MIDI"
)

// ProgramStatus is reported back to the firmware through the programStatus
// entry point.
type ProgramStatus int32

const (
	AUDIO_IDLE_STATUS       ProgramStatus = 0
	AUDIO_READY_STATUS      ProgramStatus = 1
	AUDIO_PROCESSING_STATUS ProgramStatus = 2
	AUDIO_EXIT_STATUS       ProgramStatus = 3
	AUDIO_ERROR_STATUS      ProgramStatus = 4
)

// Error status codes written to the vector's error slot.
const (
	CHECKSUM_ERROR_STATUS      int8 = -10
	OUT_OF_MEMORY_ERROR_STATUS int8 = -20
	CONFIGURATION_ERROR_STATUS int8 = -30
)

// PatchParameterId identifies one of the patch parameter slots.
type PatchParameterId uint8

const (
	PARAMETER_A PatchParameterId = 0
	PARAMETER_B PatchParameterId = 1
	PARAMETER_C PatchParameterId = 2
	PARAMETER_D PatchParameterId = 3
	PARAMETER_E PatchParameterId = 4
	PARAMETER_F PatchParameterId = 5
	PARAMETER_G PatchParameterId = 6
	PARAMETER_H PatchParameterId = 7
)

// PatchButtonId identifies a button bit in the vector's buttons bitmask.
type PatchButtonId uint8

const (
	PUSHBUTTON PatchButtonId = 0
	BUTTON_1   PatchButtonId = 1
	BUTTON_2   PatchButtonId = 2
	BUTTON_3   PatchButtonId = 3
	BUTTON_4   PatchButtonId = 4
)

// ChecksumNames provides human-readable names for the known vector layouts.
var ChecksumNames = map[Checksum]string{
	PROGRAM_VECTOR_CHECKSUM_V11: "V11",
	PROGRAM_VECTOR_CHECKSUM_V12: "V12",
	PROGRAM_VECTOR_CHECKSUM_V13: "V13",
}

// HardwareVersionNames provides human-readable names for device variants.
var HardwareVersionNames = map[HardwareVersion]string{
	OWL_PEDAL_HARDWARE:   "OWL Pedal",
	OWL_MODULAR_HARDWARE: "OWL Modular",
	OWL_RACK_HARDWARE:    "OWL Rack",
	PRISM_HARDWARE:       "Prism",
	PLAYER_HARDWARE:      "Player",
}

// ServiceOpcodeNames provides human-readable names for service opcodes.
var ServiceOpcodeNames = map[ServiceOpcode]string{
	OWL_SERVICE_ARM_RFFT_FAST_INIT_F32: "ARM_RFFT_FAST_INIT_F32",
	OWL_SERVICE_ARM_CFFT_INIT_F32:      "ARM_CFFT_INIT_F32",
	OWL_SERVICE_GET_PARAMETERS:         "GET_PARAMETERS",
	OWL_SERVICE_GET_ARRAY:              "GET_ARRAY",
	OWL_SERVICE_REGISTER_CALLBACK:      "REGISTER_CALLBACK",
	OWL_SERVICE_REQUEST_CALLBACK:       "REQUEST_CALLBACK",
	OWL_SERVICE_LOAD_RESOURCE:          "LOAD_RESOURCE",
}

// SampleFormatNames provides human-readable names for sample representations.
var SampleFormatNames = map[SampleFormat]string{
	SampleInt32:   "Int32",
	SampleFloat32: "Float32",
}

// BufferLayoutNames provides human-readable names for buffer layouts.
var BufferLayoutNames = map[BufferLayout]string{
	Interleaved: "Interleaved",
	Planar:      "Planar",
}
