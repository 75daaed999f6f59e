package owl

import (
	"fmt"
	"unsafe"
)

// ProgramVector is the typed view of the shared structure the firmware
// publishes at a fixed address before the patch starts. There is exactly one
// instance per process, owned by the firmware for the process lifetime; it is
// never copied or reallocated.
//
// Scalar fields and the raw buffer addresses mirror the firmware's
// ProgramVector.h layout. Entry points appear as Go funcs installed by the
// loader shim over the raw function pointers; a nil func means the firmware
// left that slot empty. Which slots and service opcodes are populated depends
// on the Checksum; Bind validates this before anything is dereferenced.
type ProgramVector struct {
	Checksum        Checksum
	HardwareVersion HardwareVersion

	// Audio negotiation. AudioInput and AudioOutput are addresses of
	// firmware-owned sample storage, valid for one block after each
	// programReady return. AudioFormat packs representation, layout and
	// channel count (see AUDIO_FORMAT_*).
	AudioFormat       uint8
	AudioBitdepth     uint8
	AudioInput        uintptr
	AudioOutput       uintptr
	AudioBlocksize    uint16
	AudioSamplingRate uint32

	// Parameter slots: ParametersSize int16 values at the Parameters
	// address, refreshed by the firmware each cycle. Buttons is a live input
	// bitmask.
	Parameters     uintptr
	ParametersSize uint8
	Buttons        uint16

	// Diagnostic slots written by the patch, read by the firmware.
	Message        *byte
	Error          int8
	CyclesPerBlock uint32
	HeapBytesUsed  uint32

	// Entry points into the firmware.
	RegisterPatch          func(name string, inputs, outputs uint8)
	RegisterPatchParameter func(id uint8, name string)
	ProgramReady           func()
	ProgramStatus          func(status ProgramStatus)
	ServiceCall            func(service int32, args []unsafe.Pointer) int32
	SetPatchParameter      func(id uint8, value int16)
	SetButton              func(id uint8, state uint16, samples uint16)

	// ButtonChangedCallback is written by the patch and invoked by the
	// firmware when a button input changes.
	ButtonChangedCallback func(id uint8, state uint16, samples uint16)

	// HeapLocations lists the memory segments available to the patch
	// allocator. Published by V13 firmware only.
	HeapLocations []MemorySegment
}

// MemorySegment describes one region of memory the firmware grants to the
// patch for heap use.
type MemorySegment struct {
	Location uintptr
	Size     uint32
}

// AudioSettings is the audio format negotiated at bind time, read-only for
// the rest of the session.
type AudioSettings struct {
	SampleRate int
	BlockSize  int
	Channels   int
	Format     SampleFormat
	Layout     BufferLayout
}

// vectorLayout records what a given checksum revision of the vector
// guarantees: which optional entry points are populated and which service
// opcodes the firmware implements. Fields and opcodes outside this record
// must never be touched for that revision.
type vectorLayout struct {
	checksum Checksum

	hasSetPatchParameter bool
	hasSetButton         bool
	hasButtonCallback    bool
	hasHeapLocations     bool

	opcodes map[ServiceOpcode]struct{}
}

func opcodeSet(ops ...ServiceOpcode) map[ServiceOpcode]struct{} {
	set := make(map[ServiceOpcode]struct{}, len(ops))
	for _, op := range ops {
		set[op] = struct{}{}
	}

	return set
}

// vectorLayouts is the exhaustive table of known vector revisions.
var vectorLayouts = map[Checksum]*vectorLayout{
	PROGRAM_VECTOR_CHECKSUM_V11: {
		checksum: PROGRAM_VECTOR_CHECKSUM_V11,
		opcodes: opcodeSet(
			OWL_SERVICE_ARM_RFFT_FAST_INIT_F32,
			OWL_SERVICE_ARM_CFFT_INIT_F32,
			OWL_SERVICE_GET_PARAMETERS,
		),
	},
	PROGRAM_VECTOR_CHECKSUM_V12: {
		checksum:             PROGRAM_VECTOR_CHECKSUM_V12,
		hasSetPatchParameter: true,
		hasSetButton:         true,
		hasButtonCallback:    true,
		opcodes: opcodeSet(
			OWL_SERVICE_ARM_RFFT_FAST_INIT_F32,
			OWL_SERVICE_ARM_CFFT_INIT_F32,
			OWL_SERVICE_GET_PARAMETERS,
			OWL_SERVICE_GET_ARRAY,
		),
	},
	PROGRAM_VECTOR_CHECKSUM_V13: {
		checksum:             PROGRAM_VECTOR_CHECKSUM_V13,
		hasSetPatchParameter: true,
		hasSetButton:         true,
		hasButtonCallback:    true,
		hasHeapLocations:     true,
		opcodes: opcodeSet(
			OWL_SERVICE_ARM_RFFT_FAST_INIT_F32,
			OWL_SERVICE_ARM_CFFT_INIT_F32,
			OWL_SERVICE_GET_PARAMETERS,
			OWL_SERVICE_GET_ARRAY,
			OWL_SERVICE_LOAD_RESOURCE,
			OWL_SERVICE_REGISTER_CALLBACK,
			OWL_SERVICE_REQUEST_CALLBACK,
		),
	},
}

// detectVersion maps the vector's checksum byte to a known layout revision.
func detectVersion(checksum Checksum) (*vectorLayout, error) {
	layout, ok := vectorLayouts[checksum]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x - is your firmware up to date?", ErrUnsupportedChecksum, uint8(checksum))
	}

	return layout, nil
}

// parseAudioFormat decodes the vector's audio_format byte into a sample
// representation, a buffer layout and a channel count.
func parseAudioFormat(value uint8) (SampleFormat, BufferLayout, int, error) {
	layout := Interleaved
	if value&AUDIO_FORMAT_NONINTERLEAVED != 0 {
		layout = Planar
	}

	var format SampleFormat
	switch value & AUDIO_FORMAT_FORMAT_MASK {
	case AUDIO_FORMAT_24B16, AUDIO_FORMAT_24B32:
		format = SampleInt32
	case AUDIO_FORMAT_F32:
		format = SampleFloat32
	default:
		return 0, 0, 0, fmt.Errorf("%w: unknown audio format byte 0x%02x", ErrInvalidAudioBuffers, value)
	}

	return format, layout, int(value & AUDIO_FORMAT_CHANNEL_MASK), nil
}

// interpret reads every field the binding needs for this revision and checks
// the vector's internal consistency. It touches no field outside the
// revision's layout record.
func (l *vectorLayout) interpret(pv *ProgramVector) (AudioSettings, error) {
	format, bufLayout, channels, err := parseAudioFormat(pv.AudioFormat)
	if err != nil {
		return AudioSettings{}, err
	}

	// The audio pointers must be present exactly when the format declares
	// channels. A populated pointer with zero channels means the vector is
	// corrupt, not that audio is disabled.
	if channels > 0 {
		if pv.AudioInput == 0 || pv.AudioOutput == 0 {
			return AudioSettings{}, fmt.Errorf("%w: %d channels declared but buffer pointer is null", ErrInvalidAudioBuffers, channels)
		}
		if pv.AudioBlocksize == 0 {
			return AudioSettings{}, fmt.Errorf("%w: %d channels declared but block size is zero", ErrInvalidAudioBuffers, channels)
		}
	} else if pv.AudioInput != 0 || pv.AudioOutput != 0 {
		return AudioSettings{}, fmt.Errorf("%w: buffer pointer set with zero channels", ErrInvalidAudioBuffers)
	}

	if pv.ParametersSize > 0 && pv.Parameters == 0 {
		return AudioSettings{}, fmt.Errorf("%w: %d parameter slots declared but table pointer is null", ErrInvalidAudioBuffers, pv.ParametersSize)
	}

	// Registration and dispatch are mandatory in every known revision.
	if pv.RegisterPatch == nil {
		return AudioSettings{}, fmt.Errorf("%w: registerPatch", ErrMissingEntryPoint)
	}
	if pv.ServiceCall == nil {
		return AudioSettings{}, fmt.Errorf("%w: serviceCall", ErrMissingEntryPoint)
	}

	return AudioSettings{
		SampleRate: int(pv.AudioSamplingRate),
		BlockSize:  int(pv.AudioBlocksize),
		Channels:   channels,
		Format:     format,
		Layout:     bufLayout,
	}, nil
}
