package owl

import "errors"

// Validation errors. All of these are fatal: they mean the host firmware is
// incompatible with this binding, and there is nothing to retry.
var (
	// ErrUnsupportedChecksum indicates the vector's checksum byte does not
	// match any known layout revision.
	ErrUnsupportedChecksum = errors.New("unsupported program vector checksum")

	// ErrInvalidAudioBuffers indicates the audio buffer pointers and the
	// declared channel count / block size are inconsistent.
	ErrInvalidAudioBuffers = errors.New("inconsistent audio buffer descriptors")

	// ErrMissingEntryPoint indicates a mandatory firmware entry point
	// (registerPatch or serviceCall) is absent from the vector.
	ErrMissingEntryPoint = errors.New("mandatory entry point missing from program vector")
)

// Service errors. These are recoverable at the call site; the dispatcher
// never retries on its own.
var (
	// ErrUnknownOpcode indicates the opcode is not part of the service table
	// for the detected layout revision. The firmware is never called.
	ErrUnknownOpcode = errors.New("service opcode not available in this firmware revision")

	// ErrServiceFailed is the generic OWL_SERVICE_ERROR status.
	ErrServiceFailed = errors.New("service call failed")

	// ErrInvalidArguments is the OWL_SERVICE_INVALID_ARGS status.
	ErrInvalidArguments = errors.New("service call rejected arguments")

	// ErrNotSupported is the OWL_SERVICE_NOT_SUPPORTED status.
	ErrNotSupported = errors.New("service not supported by firmware")

	// ErrHardwareBusy is the OWL_SERVICE_BUSY status. The call was not
	// performed; the caller may retry immediately.
	ErrHardwareBusy = errors.New("hardware busy")

	// ErrBufferTooSmall is the OWL_SERVICE_BUFFER_TOO_SMALL status: the
	// firmware truncated the data written to the caller's buffer.
	ErrBufferTooSmall = errors.New("destination buffer too small")
)

// Usage errors. These indicate API misuse by the patch, not a runtime
// condition, and must be treated as fatal by the caller.
var (
	// ErrAlreadyTaken indicates a capability was requested a second time.
	// Each capability wraps an exclusive region of the vector and can be
	// handed out only once.
	ErrAlreadyTaken = errors.New("capability already taken")

	// ErrFormatMismatch indicates a raw block descriptor does not match the
	// format a converter was constructed with. The host is assumed never to
	// renegotiate the format mid-session; a mismatch means the patch is
	// converting against the wrong descriptor.
	ErrFormatMismatch = errors.New("raw block format does not match converter format")

	// ErrNotAvailable indicates the detected firmware revision does not
	// populate the vector fields the capability needs.
	ErrNotAvailable = errors.New("capability not available in this firmware revision")
)

// serviceStatusErr maps a firmware status code to its sentinel error.
// A nil return means OWL_SERVICE_OK.
func serviceStatusErr(status int32) error {
	switch status {
	case OWL_SERVICE_OK:
		return nil
	case OWL_SERVICE_INVALID_ARGS:
		return ErrInvalidArguments
	case OWL_SERVICE_NOT_SUPPORTED:
		return ErrNotSupported
	case OWL_SERVICE_BUSY:
		return ErrHardwareBusy
	case OWL_SERVICE_BUFFER_TOO_SMALL:
		return ErrBufferTooSmall
	default:
		return ErrServiceFailed
	}
}
