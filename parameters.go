package owl

import (
	"fmt"
	"unsafe"
)

// Parameters is the capability over the patch parameter slots and buttons.
// Input values are refreshed by the firmware before every audio cycle;
// reading them is allocation-free and safe inside the audio callback.
type Parameters struct {
	pv      *ProgramVector
	layout  *vectorLayout
	service *ServiceCall
}

func newParameters(pv *ProgramVector, layout *vectorLayout, service *ServiceCall) *Parameters {
	return &Parameters{pv: pv, layout: layout, service: service}
}

// slots overlays the vector's live parameter table.
func (p *Parameters) slots() []int16 {
	if p.pv.Parameters == 0 || p.pv.ParametersSize == 0 {
		return nil
	}

	return unsafe.Slice((*int16)(unsafe.Pointer(p.pv.Parameters)), p.pv.ParametersSize)
}

// Count returns the number of parameter slots the firmware publishes.
func (p *Parameters) Count() int {
	return int(p.pv.ParametersSize)
}

// Register announces an input or output parameter to the firmware.
// Postfixing the name with ">" designates the parameter as an output.
func (p *Parameters) Register(pid PatchParameterId, name string) {
	if p.pv.RegisterPatchParameter == nil {
		return
	}

	p.pv.RegisterPatchParameter(uint8(pid), name)
}

// Get returns the current value of an input parameter, scaled to roughly
// (-1.0..1.0). Unknown slots read as zero.
func (p *Parameters) Get(pid PatchParameterId) float32 {
	slots := p.slots()
	if int(pid) >= len(slots) {
		return 0
	}

	return float32(slots[pid]) / 4096.0
}

// Set writes an output parameter, expecting a value in (-1.0..1.0).
// Firmware revisions without the setPatchParameter entry point ignore the
// write.
func (p *Parameters) Set(pid PatchParameterId, value float32) {
	if !p.layout.hasSetPatchParameter || p.pv.SetPatchParameter == nil {
		return
	}

	p.pv.SetPatchParameter(uint8(pid), int16(value*4096.0))
}

// GetButton returns the state of an input button bit.
func (p *Parameters) GetButton(bid PatchButtonId) bool {
	return p.pv.Buttons&(1<<uint8(bid)) != 0
}

// SetButton drives an output button. The firmware convention is 0xfff for
// pressed, 0 for released. Revisions without the setButton entry point
// ignore the write.
func (p *Parameters) SetButton(bid PatchButtonId, state bool) {
	if !p.layout.hasSetButton || p.pv.SetButton == nil {
		return
	}

	var value uint16
	if state {
		value = 0xfff
	}

	p.pv.SetButton(uint8(bid), value, 0)
}

// OnButtonChanged installs a callback invoked by the firmware when a button
// input changes. The state is generally 0 or 0xfff; samples is the offset
// into the previous audio block at which the change occurred. The callback
// is delivered during programReady and must not allocate or block.
func (p *Parameters) OnButtonChanged(callback func(bid PatchButtonId, state uint16, samples uint16)) error {
	if !p.layout.hasButtonCallback {
		return fmt.Errorf("button callback: %w", ErrNotAvailable)
	}

	p.pv.ButtonChangedCallback = func(id uint8, state uint16, samples uint16) {
		callback(PatchButtonId(id), state, samples)
	}

	return nil
}

// DeviceParameters returns the analog IO calibration scalars for the device,
// querying the firmware and falling back to per-hardware defaults.
func (p *Parameters) DeviceParameters() DeviceParameters {
	return p.service.DeviceParameters()
}
