package owl

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Resource describes one resource file stored by the firmware. Memory-mapped
// resources expose their contents directly; others must be copied out with
// Resources.Load.
type Resource struct {
	name string
	size int
	data unsafe.Pointer
}

// Name returns the resource name.
func (r *Resource) Name() string {
	return r.name
}

// Size returns the resource size in bytes.
func (r *Resource) Size() int {
	return r.size
}

// IsMemoryMapped reports whether the resource contents are directly
// addressable.
func (r *Resource) IsMemoryMapped() bool {
	return r.data != nil
}

// Data returns the full contents of a memory-mapped resource, aliasing
// firmware-owned storage. It returns nil for resources that need Load.
func (r *Resource) Data() []byte {
	if r.data == nil {
		return nil
	}

	return unsafe.Slice((*byte)(r.data), r.size)
}

// Resources is the capability for fetching resource files through the
// LOAD_RESOURCE service call. Loads are synchronous but slow; they belong in
// the setup phase, never in the audio callback.
type Resources struct {
	service *ServiceCall
}

func newResources(service *ServiceCall) *Resources {
	return &Resources{service: service}
}

// Get looks a resource up by name, returning its size and, when the firmware
// has it memory-mapped, its data address. Nothing is copied.
func (rs *Resources) Get(name string) (*Resource, error) {
	size, data, err := rs.service.getResource(name)
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", name, err)
	}

	return &Resource{name: name, size: size, data: data}, nil
}

// Load copies resource data starting at offset into dest, returning the
// number of bytes written. A dest smaller than the remaining data yields
// ErrBufferTooSmall alongside the bytes that did fit.
func (rs *Resources) Load(res *Resource, offset int, dest []byte) (int, error) {
	n, err := rs.service.InvokeWithBuffer(OWL_SERVICE_LOAD_RESOURCE, res.name, offset, dest)
	if err != nil {
		return n, fmt.Errorf("resource %q: %w", res.name, err)
	}

	return n, nil
}

// LoadAll copies the entire resource into a freshly allocated slice.
func (rs *Resources) LoadAll(res *Resource) ([]byte, error) {
	buf := make([]byte, res.Size())
	if _, err := rs.Load(res, 0, buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// LoadWav fetches a resource and decodes it as a wav file, returning the
// full PCM contents. Sample data is interleaved, as go-audio decoders
// produce it.
func (rs *Resources) LoadWav(name string) (*audio.IntBuffer, error) {
	res, err := rs.Get(name)
	if err != nil {
		return nil, err
	}

	data, err := rs.LoadAll(res)
	if err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("resource %q is not a valid wav file", name)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("resource %q: decoding wav: %w", name, err)
	}

	return buf, nil
}
