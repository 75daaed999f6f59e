package owl_test

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	owl "github.com/orukusaki/owl-patch"
)

// The tests drive the binding against a fake firmware: a ProgramVector whose
// entry points record what the patch does, with sample storage allocated by
// anonymous mmap so the raw buffer overlays run against memory outside the
// Go heap, as they do on device.

// mmapBlock allocates n bytes of firmware-style storage outside the Go heap.
func mmapBlock(t *testing.T, n int) (uintptr, []byte) {
	t.Helper()

	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		t.Fatalf("mmap failed: %v", err)
	}

	t.Cleanup(func() {
		_ = unix.Munmap(buf)
	})

	return uintptr(unsafe.Pointer(&buf[0])), buf
}

func int32View(b []byte) []int32 {
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func float32View(b []byte) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func unsafeBytes(addr uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

func addrOf(mem []int32) uintptr {
	return uintptr(unsafe.Pointer(&mem[0]))
}

// firmwareVector stands in for the ProgramVector the firmware publishes at a
// fixed address before the patch starts. On hardware this comes from the
// loader, not from Go code.
func firmwareVector() *owl.ProgramVector {
	return &owl.ProgramVector{}
}

// readMessage reads the NUL-terminated string behind the vector's message
// slot.
func readMessage(p *byte) string {
	return gostring(unsafe.Pointer(p))
}

// gostring reads a NUL-terminated string argument the way the firmware does.
func gostring(p unsafe.Pointer) string {
	var out []byte
	for i := 0; ; i++ {
		c := *(*byte)(unsafe.Add(p, i))
		if c == 0 {
			break
		}
		out = append(out, c)
	}

	return string(out)
}

type registration struct {
	name    string
	inputs  uint8
	outputs uint8
}

type fakeFirmware struct {
	t  *testing.T
	pv *owl.ProgramVector

	input  []byte
	output []byte
	params [8]int16

	registrations  []registration
	paramRegs      map[uint8]string
	paramWrites    map[uint8]int16
	buttonWrites   []uint16
	readyCount     int
	lastStatus     owl.ProgramStatus
	statusReported bool

	calls       []owl.ServiceOpcode
	busyNext    bool
	forceStatus *int32

	deviceParams map[string]int32
	logTable     []float32
	resources    map[string][]byte
	mapped       map[string]bool
	midiOut      []owl.MidiMessage
	midiReceive  owl.MidiReceiveFunc
	onReady      func()
}

// newFakeFirmware builds a consistent vector for the given checksum and
// audio format byte. Tests mutate the vector before Bind to create the
// inconsistent variants.
func newFakeFirmware(t *testing.T, checksum owl.Checksum, format uint8, blockSize uint16) *fakeFirmware {
	t.Helper()

	f := &fakeFirmware{
		t:            t,
		paramRegs:    make(map[uint8]string),
		paramWrites:  make(map[uint8]int16),
		deviceParams: map[string]int32{"IO": 0, "IS": 131070, "OO": 0, "OS": 131070},
		logTable:     []float32{0.0, 0.5, 1.0},
		resources:    make(map[string][]byte),
		mapped:       make(map[string]bool),
	}

	channels := int(format & owl.AUDIO_FORMAT_CHANNEL_MASK)

	var inAddr, outAddr uintptr
	if channels > 0 {
		n := channels * int(blockSize) * 4
		inAddr, f.input = mmapBlock(t, n)
		outAddr, f.output = mmapBlock(t, n)
	}

	f.pv = &owl.ProgramVector{
		Checksum:          checksum,
		HardwareVersion:   owl.OWL_PEDAL_HARDWARE,
		AudioFormat:       format,
		AudioInput:        inAddr,
		AudioOutput:       outAddr,
		AudioBlocksize:    blockSize,
		AudioSamplingRate: 48000,
		Parameters:        uintptr(unsafe.Pointer(&f.params[0])),
		ParametersSize:    uint8(len(f.params)),
		RegisterPatch: func(name string, inputs, outputs uint8) {
			f.registrations = append(f.registrations, registration{name, inputs, outputs})
		},
		RegisterPatchParameter: func(id uint8, name string) {
			f.paramRegs[id] = name
		},
		SetPatchParameter: func(id uint8, value int16) {
			f.paramWrites[id] = value
		},
		SetButton: func(id uint8, state, samples uint16) {
			f.buttonWrites = append(f.buttonWrites, state)
		},
		ProgramReady: func() {
			f.readyCount++
			if f.onReady != nil {
				f.onReady()
			}
		},
		ProgramStatus: func(status owl.ProgramStatus) {
			f.statusReported = true
			f.lastStatus = status
		},
	}
	f.pv.ServiceCall = f.serviceCall

	return f
}

func (f *fakeFirmware) bind(name string) *owl.Patch {
	f.t.Helper()

	patch, err := owl.Bind(f.pv, name)
	if err != nil {
		f.t.Fatalf("Bind failed: %v", err)
	}

	return patch
}

func (f *fakeFirmware) serviceCall(service int32, args []unsafe.Pointer) int32 {
	f.calls = append(f.calls, owl.ServiceOpcode(service))

	if f.busyNext {
		f.busyNext = false

		return owl.OWL_SERVICE_BUSY
	}
	if f.forceStatus != nil {
		status := *f.forceStatus
		f.forceStatus = nil

		return status
	}

	switch owl.ServiceOpcode(service) {
	case owl.OWL_SERVICE_ARM_RFFT_FAST_INIT_F32, owl.OWL_SERVICE_ARM_CFFT_INIT_F32:
		return owl.OWL_SERVICE_OK

	case owl.OWL_SERVICE_GET_PARAMETERS:
		if f.deviceParams == nil {
			return owl.OWL_SERVICE_ERROR
		}
		for i := 0; i+1 < len(args); i += 2 {
			value, ok := f.deviceParams[gostring(args[i])]
			if !ok {
				return owl.OWL_SERVICE_INVALID_ARGS
			}
			*(*int32)(args[i+1]) = value
		}

		return owl.OWL_SERVICE_OK

	case owl.OWL_SERVICE_GET_ARRAY:
		if gostring(args[0]) != owl.SYSTEM_TABLE_LOG {
			return owl.OWL_SERVICE_INVALID_ARGS
		}
		*(*unsafe.Pointer)(args[1]) = unsafe.Pointer(&f.logTable[0])
		*(*int)(args[2]) = len(f.logTable)

		return owl.OWL_SERVICE_OK

	case owl.OWL_SERVICE_REQUEST_CALLBACK:
		if gostring(args[0]) != owl.SYSTEM_FUNCTION_MIDI {
			return owl.OWL_SERVICE_NOT_SUPPORTED
		}
		*(*owl.MidiSendFunc)(args[1]) = func(port, status, d1, d2 uint8) {
			f.midiOut = append(f.midiOut, owl.MidiMessage{Port: port, Status: status, Data1: d1, Data2: d2})
		}

		return owl.OWL_SERVICE_OK

	case owl.OWL_SERVICE_REGISTER_CALLBACK:
		if gostring(args[0]) != owl.SYSTEM_FUNCTION_MIDI {
			return owl.OWL_SERVICE_NOT_SUPPORTED
		}
		f.midiReceive = *(*owl.MidiReceiveFunc)(args[1])

		return owl.OWL_SERVICE_OK

	case owl.OWL_SERVICE_LOAD_RESOURCE:
		data, ok := f.resources[gostring(args[0])]
		if !ok {
			return owl.OWL_SERVICE_INVALID_ARGS
		}
		offset := *(*int)(args[2])
		if offset < 0 || offset > len(data) {
			return owl.OWL_SERVICE_INVALID_ARGS
		}
		sizePtr := (*int)(args[3])
		destPtr := *(*unsafe.Pointer)(args[1])
		if destPtr == nil {
			// Size query: report remaining length and, for mapped
			// resources, the data address.
			*sizePtr = len(data) - offset
			if f.mapped[gostring(args[0])] && len(data) > offset {
				*(*unsafe.Pointer)(args[1]) = unsafe.Pointer(&data[offset])
			}

			return owl.OWL_SERVICE_OK
		}
		n := copy(unsafe.Slice((*byte)(destPtr), *sizePtr), data[offset:])
		*sizePtr = n
		if n < len(data)-offset {
			return owl.OWL_SERVICE_BUFFER_TOO_SMALL
		}

		return owl.OWL_SERVICE_OK
	}

	return owl.OWL_SERVICE_ERROR
}

func (f *fakeFirmware) inputInt32() []int32 {
	return int32View(f.input)
}

func (f *fakeFirmware) outputInt32() []int32 {
	return int32View(f.output)
}

func (f *fakeFirmware) inputFloat32() []float32 {
	return float32View(f.input)
}

func (f *fakeFirmware) outputFloat32() []float32 {
	return float32View(f.output)
}
