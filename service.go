package owl

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

// ServiceCall dispatches type-checked calls through the firmware's service
// entry point. Arguments travel as an array of untyped pointers with the
// firmware's fixed per-opcode conventions; this file is the only place that
// convention is spelled out, callers see typed methods and classified errors.
//
// All calls are synchronous register-style operations with bounded latency.
// The dispatcher performs at most one firmware call per invocation and never
// retries; on ErrHardwareBusy the caller may retry immediately.
type ServiceCall struct {
	call            func(service int32, args []unsafe.Pointer) int32
	hardwareVersion HardwareVersion
	opcodes         map[ServiceOpcode]struct{}
}

func newServiceCall(pv *ProgramVector, layout *vectorLayout) *ServiceCall {
	return &ServiceCall{
		call:            pv.ServiceCall,
		hardwareVersion: pv.HardwareVersion,
		opcodes:         layout.opcodes,
	}
}

// Available reports whether the detected firmware revision implements the
// opcode.
func (s *ServiceCall) Available(op ServiceOpcode) bool {
	_, ok := s.opcodes[op]

	return ok
}

// Invoke performs one service call. Opcodes outside the table validated at
// bind time fail with ErrUnknownOpcode without reaching the firmware.
func (s *ServiceCall) Invoke(op ServiceOpcode, args []unsafe.Pointer) error {
	if !s.Available(op) {
		return fmt.Errorf("%w: %s (0x%02x)", ErrUnknownOpcode, ServiceOpcodeNames[op], int32(op))
	}

	status := s.call(int32(op), args)
	if err := serviceStatusErr(status); err != nil {
		return fmt.Errorf("service %s: %w", ServiceOpcodeNames[op], err)
	}

	return nil
}

// InvokeWithBuffer performs one service call that writes into a
// caller-supplied buffer, using the firmware's name / address / offset /
// length argument convention. It returns the number of bytes written. If the
// firmware reports truncation the byte count is still valid and the error is
// ErrBufferTooSmall.
func (s *ServiceCall) InvokeWithBuffer(op ServiceOpcode, name string, offset int, dest []byte) (int, error) {
	cname := cstring(name)
	destPtr := unsafe.Pointer(nil)
	if len(dest) > 0 {
		destPtr = unsafe.Pointer(&dest[0])
	}
	size := len(dest)

	args := []unsafe.Pointer{
		unsafe.Pointer(&cname[0]),
		unsafe.Pointer(&destPtr),
		unsafe.Pointer(&offset),
		unsafe.Pointer(&size),
	}

	err := s.Invoke(op, args)
	runtime.KeepAlive(cname)
	runtime.KeepAlive(dest)

	if err != nil && !errors.Is(err, ErrBufferTooSmall) {
		return 0, err
	}

	return size, err
}

// GetArray fetches one of the firmware's float lookup tables
// (SYSTEM_TABLE_LOG or SYSTEM_TABLE_POW). The returned slice aliases
// firmware-owned memory and stays valid for the process lifetime.
func (s *ServiceCall) GetArray(table string) ([]float32, error) {
	cname := cstring(table)
	var ptr unsafe.Pointer
	var size int

	args := []unsafe.Pointer{
		unsafe.Pointer(&cname[0]),
		unsafe.Pointer(&ptr),
		unsafe.Pointer(&size),
	}

	err := s.Invoke(OWL_SERVICE_GET_ARRAY, args)
	runtime.KeepAlive(cname)
	if err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, fmt.Errorf("table %q: %w", table, ErrNotAvailable)
	}

	return unsafe.Slice((*float32)(ptr), size), nil
}

// RegisterCallback hands a callback to the firmware under one of the
// SYSTEM_FUNCTION_* names. The callback pointer's type is dictated by the
// function name; callers pass a pointer to the appropriately typed func
// value.
func (s *ServiceCall) RegisterCallback(function string, callback unsafe.Pointer) error {
	cname := cstring(function)
	args := []unsafe.Pointer{
		unsafe.Pointer(&cname[0]),
		callback,
	}

	err := s.Invoke(OWL_SERVICE_REGISTER_CALLBACK, args)
	runtime.KeepAlive(cname)

	return err
}

// RequestCallback asks the firmware for its implementation of one of the
// SYSTEM_FUNCTION_* entry points. The firmware writes the callback into the
// slot the caller provides.
func (s *ServiceCall) RequestCallback(function string, slot unsafe.Pointer) error {
	cname := cstring(function)
	args := []unsafe.Pointer{
		unsafe.Pointer(&cname[0]),
		slot,
	}

	err := s.Invoke(OWL_SERVICE_REQUEST_CALLBACK, args)
	runtime.KeepAlive(cname)

	return err
}

// InitRFFT asks the firmware to initialise a real FFT instance of the given
// size. The instance layout is opaque to this binding.
func (s *ServiceCall) InitRFFT(instance unsafe.Pointer, size int) error {
	args := []unsafe.Pointer{instance, unsafe.Pointer(&size)}

	return s.Invoke(OWL_SERVICE_ARM_RFFT_FAST_INIT_F32, args)
}

// InitCFFT asks the firmware to initialise a complex FFT instance of the
// given size. The instance layout is opaque to this binding.
func (s *ServiceCall) InitCFFT(instance unsafe.Pointer, size int) error {
	args := []unsafe.Pointer{instance, unsafe.Pointer(&size)}

	return s.Invoke(OWL_SERVICE_ARM_CFFT_INIT_F32, args)
}

// DeviceParameters holds the analog IO calibration scalars reported by the
// firmware, normalised from the raw 16-bit fixed point values.
type DeviceParameters struct {
	InputOffset  float32
	InputScalar  float32
	OutputOffset float32
	OutputScalar float32
}

// defaultDeviceParameters returns the documented calibration defaults when
// GET_PARAMETERS is unavailable or fails. The OWL Modular inverts its CV
// range, hence the negative scalars.
func defaultDeviceParameters(hw HardwareVersion) DeviceParameters {
	if hw == OWL_MODULAR_HARDWARE {
		return DeviceParameters{
			InputOffset:  -0.06382,
			InputScalar:  -4.29,
			OutputOffset: 0.1208,
			OutputScalar: -4.642,
		}
	}

	return DeviceParameters{InputScalar: 2.0, OutputScalar: 2.0}
}

// DeviceParameters queries the firmware's IO calibration values, falling back
// to per-hardware defaults when the call is unavailable or fails.
func (s *ServiceCall) DeviceParameters() DeviceParameters {
	inOffsetKey := cstring("IO")
	inScalarKey := cstring("IS")
	outOffsetKey := cstring("OO")
	outScalarKey := cstring("OS")

	var inOffset, inScalar, outOffset, outScalar int32

	args := []unsafe.Pointer{
		unsafe.Pointer(&inOffsetKey[0]), unsafe.Pointer(&inOffset),
		unsafe.Pointer(&inScalarKey[0]), unsafe.Pointer(&inScalar),
		unsafe.Pointer(&outOffsetKey[0]), unsafe.Pointer(&outOffset),
		unsafe.Pointer(&outScalarKey[0]), unsafe.Pointer(&outScalar),
	}

	err := s.Invoke(OWL_SERVICE_GET_PARAMETERS, args)
	runtime.KeepAlive(inOffsetKey)
	runtime.KeepAlive(inScalarKey)
	runtime.KeepAlive(outOffsetKey)
	runtime.KeepAlive(outScalarKey)
	if err != nil {
		return defaultDeviceParameters(s.hardwareVersion)
	}

	const scale = 1.0 / 65535.0

	return DeviceParameters{
		InputOffset:  float32(inOffset) * scale,
		InputScalar:  float32(inScalar) * scale,
		OutputOffset: float32(outOffset) * scale,
		OutputScalar: float32(outScalar) * scale,
	}
}

// getResource queries a resource's size and, for memory-mapped resources,
// its data address, without copying anything.
func (s *ServiceCall) getResource(name string) (int, unsafe.Pointer, error) {
	cname := cstring(name)
	var ptr unsafe.Pointer
	var offset, size int

	args := []unsafe.Pointer{
		unsafe.Pointer(&cname[0]),
		unsafe.Pointer(&ptr),
		unsafe.Pointer(&offset),
		unsafe.Pointer(&size),
	}

	err := s.Invoke(OWL_SERVICE_LOAD_RESOURCE, args)
	runtime.KeepAlive(cname)
	if err != nil {
		return 0, nil, err
	}

	return size, ptr, nil
}

// cstring returns s as NUL-terminated bytes for the firmware's string
// arguments.
func cstring(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)

	return b
}
