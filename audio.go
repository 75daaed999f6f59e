package owl

// Audio is the capability driving the per-cycle sample exchange with the
// firmware. It owns the vector's audio buffer pointers; no other capability
// touches them.
//
// Everything here runs inside the single audio callback context and must
// stay allocation-free and bounded: the firmware expects each block to be
// produced within the block's real-time deadline.
type Audio struct {
	pv       *ProgramVector
	settings AudioSettings
}

func newAudio(pv *ProgramVector, settings AudioSettings) *Audio {
	return &Audio{pv: pv, settings: settings}
}

// Settings returns the audio format negotiated at bind time.
func (a *Audio) Settings() AudioSettings {
	return a.settings
}

// InputBlock describes the current raw input block. The vector's buffer
// pointer is re-read on every call: the firmware may publish a different
// address each cycle, but never a different format.
func (a *Audio) InputBlock() RawBlock {
	return RawBlock{
		Addr:      a.pv.AudioInput,
		Format:    a.settings.Format,
		Layout:    a.settings.Layout,
		Channels:  a.settings.Channels,
		BlockSize: a.settings.BlockSize,
	}
}

// OutputBlock describes the current raw output block.
func (a *Audio) OutputBlock() RawBlock {
	return RawBlock{
		Addr:      a.pv.AudioOutput,
		Format:    a.settings.Format,
		Layout:    a.settings.Layout,
		Channels:  a.settings.Channels,
		BlockSize: a.settings.BlockSize,
	}
}

// Process runs one audio cycle: it blocks in the firmware's programReady
// until the next block is due, converts the raw input into in, invokes
// process, and converts out back into the raw output block.
//
// Any callbacks registered with the firmware (buttons, MIDI receive) are
// delivered during the programReady call.
func (a *Audio) Process(in, out *Buffer, process func(in, out *Buffer)) error {
	a.pv.ProgramReady()

	if err := in.ConvertFrom(a.InputBlock()); err != nil {
		return err
	}

	process(in, out)

	return out.ConvertTo(a.OutputBlock())
}

// Run allocates one input and one output buffer in the requested layout and
// processes blocks until a conversion fails. It only returns on error: the
// audio loop runs until the device powers off or the firmware unloads the
// patch.
func (a *Audio) Run(layout BufferLayout, process func(in, out *Buffer)) error {
	in := NewBuffer(a.settings, layout)
	out := NewBuffer(a.settings, layout)

	for {
		if err := a.Process(in, out, process); err != nil {
			return err
		}
	}
}
