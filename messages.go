package owl

// messages publishes diagnostics through the vector's message and error
// slots. The buffer is fixed at 64 bytes: the firmware reads a NUL-terminated
// string from whatever address the message slot points at, so the storage
// must outlive the patch.
type messages struct {
	pv  *ProgramVector
	buf [64]byte
}

func newMessages(pv *ProgramVector) *messages {
	return &messages{pv: pv}
}

// debug copies the message into the fixed buffer, truncating to 63 bytes,
// and points the vector's message slot at it.
func (m *messages) debug(message string) {
	n := copy(m.buf[:len(m.buf)-1], message)
	m.buf[n] = 0
	m.pv.Message = &m.buf[0]
}

// fatal publishes the message, writes the error status and asks the firmware
// to stop the program. Firmware revisions without programStatus still see
// the error slot.
func (m *messages) fatal(status int8, message string) {
	m.debug(message)
	m.pv.Error = status

	if m.pv.ProgramStatus != nil {
		m.pv.ProgramStatus(AUDIO_ERROR_STATUS)
	}
}
