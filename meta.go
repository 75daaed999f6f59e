package owl

import (
	"fmt"
	"runtime"
)

// Meta is the capability over the vector's identity and accounting fields:
// firmware revision, device variant, performance counters and the
// heap-bytes-used slot the patch reports its allocation through.
type Meta struct {
	pv     *ProgramVector
	layout *vectorLayout
}

func newMeta(pv *ProgramVector, layout *vectorLayout) *Meta {
	return &Meta{pv: pv, layout: layout}
}

// Checksum returns the vector layout revision detected at bind time.
func (m *Meta) Checksum() Checksum {
	return m.pv.Checksum
}

// HardwareVersion returns the device variant id.
func (m *Meta) HardwareVersion() HardwareVersion {
	return m.pv.HardwareVersion
}

// HardwareName returns the device variant's human-readable name.
func (m *Meta) HardwareName() string {
	if name, ok := HardwareVersionNames[m.pv.HardwareVersion]; ok {
		return name
	}

	return fmt.Sprintf("unknown (0x%02x)", uint8(m.pv.HardwareVersion))
}

// CyclesPerBlock returns the firmware's running count of CPU cycles spent
// per audio block, for load monitoring.
func (m *Meta) CyclesPerBlock() uint32 {
	return m.pv.CyclesPerBlock
}

// SetHeapBytesUsed reports the patch's current heap usage to the firmware.
// The allocator itself is outside this binding; callers with their own
// accounting write it through here.
func (m *Meta) SetHeapBytesUsed(bytes uint32) {
	m.pv.HeapBytesUsed = bytes
}

// HeapBytesUsed returns the last reported heap usage.
func (m *Meta) HeapBytesUsed() uint32 {
	return m.pv.HeapBytesUsed
}

// ReportHeapUsage samples the runtime's live heap size and reports it
// through the vector. It is a stop-the-world sample; call it from the setup
// phase, not the audio callback.
func (m *Meta) ReportHeapUsage() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.SetHeapBytesUsed(uint32(stats.HeapAlloc))
}

// MemorySegments returns the memory regions the firmware grants to the patch
// allocator. Only V13 firmware publishes them.
func (m *Meta) MemorySegments() ([]MemorySegment, error) {
	if !m.layout.hasHeapLocations {
		return nil, fmt.Errorf("memory segments: %w", ErrNotAvailable)
	}

	return m.pv.HeapLocations, nil
}
