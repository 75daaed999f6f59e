package owl

import (
	"fmt"
	"unsafe"
)

// MidiMessage is one 4-byte MIDI event as exchanged with the firmware.
// Encoding beyond the raw bytes is left to the patch.
type MidiMessage struct {
	Port   uint8
	Status uint8
	Data1  uint8
	Data2  uint8
}

// Channel returns the channel number from the status byte.
func (m MidiMessage) Channel() uint8 {
	return m.Status & 0x0f
}

// MidiSendFunc is the firmware's MIDI transmit entry point, resolved through
// the REQUEST_CALLBACK service call.
type MidiSendFunc func(port, status, d1, d2 uint8)

// MidiReceiveFunc is the patch's MIDI receive entry point, handed to the
// firmware through the REGISTER_CALLBACK service call.
type MidiReceiveFunc func(port, status, d1, d2 uint8)

// Midi is the capability for sending and receiving MIDI through the
// firmware's message queues.
type Midi struct {
	send    MidiSendFunc
	receive MidiReceiveFunc
	service *ServiceCall
}

// newMidi resolves the firmware's send callback. Firmware revisions without
// the callback service calls cannot provide MIDI.
func newMidi(service *ServiceCall) (*Midi, error) {
	var send MidiSendFunc
	if err := service.RequestCallback(SYSTEM_FUNCTION_MIDI, unsafe.Pointer(&send)); err != nil {
		return nil, err
	}
	if send == nil {
		return nil, fmt.Errorf("firmware returned no MIDI send callback: %w", ErrNotAvailable)
	}

	return &Midi{send: send, service: service}, nil
}

// Send pushes one message to the firmware's outgoing MIDI queue.
func (m *Midi) Send(msg MidiMessage) {
	m.send(msg.Port, msg.Status, msg.Data1, msg.Data2)
}

// OnReceive registers a callback for incoming MIDI messages. Messages are
// delivered during the programReady call, inside the audio callback context;
// the callback must not allocate or block.
func (m *Midi) OnReceive(callback func(MidiMessage)) error {
	m.receive = func(port, status, d1, d2 uint8) {
		callback(MidiMessage{Port: port, Status: status, Data1: d1, Data2: d2})
	}

	return m.service.RegisterCallback(SYSTEM_FUNCTION_MIDI, unsafe.Pointer(&m.receive))
}
