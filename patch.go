package owl

import "fmt"

// Patch is the validated binding to the program vector. It is constructed
// exactly once per process by Bind and owns the vector for the process
// lifetime, handing out each capability at most once so no two call sites can
// alias the same region of the structure.
//
// Patch is not safe for concurrent use: the execution model is a single
// startup phase followed by a single audio callback context.
type Patch struct {
	pv       *ProgramVector
	layout   *vectorLayout
	settings AudioSettings
	service  *ServiceCall
	messages *messages

	audioTaken     bool
	paramsTaken    bool
	midiTaken      bool
	metaTaken      bool
	resourcesTaken bool
}

// Bind validates the program vector and registers the patch with the
// firmware. It must be called once, before the audio callback is entered.
//
// Validation failures are unrecoverable: they mean the host firmware is
// incompatible with this binding. The failure is written to the vector's
// diagnostic slots (so devices with a screen can display it) and returned.
// A vector that failed Bind must not be used.
func Bind(pv *ProgramVector, name string) (*Patch, error) {
	msgs := newMessages(pv)

	layout, err := detectVersion(pv.Checksum)
	if err != nil {
		msgs.fatal(CHECKSUM_ERROR_STATUS, err.Error())

		return nil, err
	}

	settings, err := layout.interpret(pv)
	if err != nil {
		msgs.fatal(CONFIGURATION_ERROR_STATUS, err.Error())

		return nil, fmt.Errorf("program vector validation failed: %w", err)
	}

	// Announce the patch to the firmware. The channel counts are negotiated
	// through the audio format byte, not here; firmware uses this call to
	// display the patch name on devices with a screen.
	pv.RegisterPatch(name, uint8(settings.Channels), uint8(settings.Channels))

	return &Patch{
		pv:       pv,
		layout:   layout,
		settings: settings,
		service:  newServiceCall(pv, layout),
		messages: msgs,
	}, nil
}

// Settings returns the audio format negotiated at bind time.
func (p *Patch) Settings() AudioSettings {
	return p.settings
}

// Audio returns the audio capability: the per-cycle sample buffer exchange.
// It can be obtained at most once, and only if the vector declares audio
// channels and a programReady entry point.
func (p *Patch) Audio() (*Audio, error) {
	if p.audioTaken {
		return nil, fmt.Errorf("audio: %w", ErrAlreadyTaken)
	}
	if p.settings.Channels == 0 || p.pv.ProgramReady == nil {
		return nil, fmt.Errorf("audio: %w", ErrNotAvailable)
	}

	p.audioTaken = true

	return newAudio(p.pv, p.settings), nil
}

// Parameters returns the parameter and button capability. It can be obtained
// at most once.
func (p *Patch) Parameters() (*Parameters, error) {
	if p.paramsTaken {
		return nil, fmt.Errorf("parameters: %w", ErrAlreadyTaken)
	}

	p.paramsTaken = true

	return newParameters(p.pv, p.layout, p.service), nil
}

// Midi returns the MIDI send/receive capability. It can be obtained at most
// once, and only on firmware revisions that implement the callback service
// calls. Obtaining it performs the send-callback request service call, so it
// must happen during setup, not inside the audio callback.
func (p *Patch) Midi() (*Midi, error) {
	if p.midiTaken {
		return nil, fmt.Errorf("midi: %w", ErrAlreadyTaken)
	}

	midi, err := newMidi(p.service)
	if err != nil {
		return nil, fmt.Errorf("midi: %w", err)
	}

	p.midiTaken = true

	return midi, nil
}

// Meta returns the metadata capability: firmware identity, performance
// counters and heap reporting. It can be obtained at most once.
func (p *Patch) Meta() (*Meta, error) {
	if p.metaTaken {
		return nil, fmt.Errorf("meta: %w", ErrAlreadyTaken)
	}

	p.metaTaken = true

	return newMeta(p.pv, p.layout), nil
}

// Resources returns the resource-loading capability. It can be obtained at
// most once, and only on firmware revisions that implement LOAD_RESOURCE.
// Resource loads are slow; they belong in the setup phase.
func (p *Patch) Resources() (*Resources, error) {
	if p.resourcesTaken {
		return nil, fmt.Errorf("resources: %w", ErrAlreadyTaken)
	}
	if !p.service.Available(OWL_SERVICE_LOAD_RESOURCE) {
		return nil, fmt.Errorf("resources: %w", ErrNotAvailable)
	}

	p.resourcesTaken = true

	return newResources(p.service), nil
}

// Service returns the raw service-call dispatcher shared by the capabilities.
// The dispatcher only ever invokes opcodes validated for the detected
// firmware revision, so sharing it does not break capability isolation.
func (p *Patch) Service() *ServiceCall {
	return p.service
}

// DebugMessage publishes a message through the vector's diagnostic slot.
// The firmware reads at most 63 bytes; longer messages are truncated.
func (p *Patch) DebugMessage(message string) {
	p.messages.debug(message)
}

// Fail reports an unrecoverable patch error to the firmware and requests
// program termination. It does not return control to the audio loop.
func (p *Patch) Fail(message string) {
	p.messages.fatal(CONFIGURATION_ERROR_STATUS, message)
}
