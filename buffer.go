package owl

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/go-audio/audio"
)

// fullScale is the divisor mapping the integer sample representations to
// float: i32 full scale (2^31) becomes 1.0. Both directions use the same
// power-of-two constant so exactly representable values round-trip
// bit-for-bit.
const fullScale = 2147483648.0

// RawBlock describes one cycle's raw sample storage as published by the
// firmware: an address of firmware-owned memory plus the format descriptor
// negotiated at bind time. Addr must point outside the Go heap; the audio
// capability builds RawBlocks from the vector's buffer pointers.
type RawBlock struct {
	Addr      uintptr
	Format    SampleFormat
	Layout    BufferLayout
	Channels  int
	BlockSize int
}

func (r RawBlock) int32Samples() []int32 {
	return unsafe.Slice((*int32)(unsafe.Pointer(r.Addr)), r.Channels*r.BlockSize)
}

func (r RawBlock) float32Samples() []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(r.Addr)), r.Channels*r.BlockSize)
}

// Buffer is the application-facing sample buffer: float32 samples in the
// layout the patch prefers, independent of how the firmware stores its
// blocks. The backing storage is allocated once at construction; ConvertFrom
// and ConvertTo are allocation-free and touch every sample exactly once.
type Buffer struct {
	samples    []float32
	channels   int
	blockSize  int
	layout     BufferLayout
	sampleRate int
}

// NewBuffer allocates an application buffer matching the negotiated settings,
// stored in the requested layout. The channel count and block size are fixed
// for the buffer's lifetime; if the host renegotiates the format the buffer
// must be rebuilt from the new settings.
func NewBuffer(settings AudioSettings, layout BufferLayout) *Buffer {
	return &Buffer{
		samples:    make([]float32, settings.Channels*settings.BlockSize),
		channels:   settings.Channels,
		blockSize:  settings.BlockSize,
		layout:     layout,
		sampleRate: settings.SampleRate,
	}
}

// Samples returns the backing storage. Sample ordering follows the buffer's
// layout.
func (b *Buffer) Samples() []float32 {
	return b.samples
}

// Channel returns the samples for one channel. Only planar buffers store
// channels contiguously; for interleaved buffers Channel returns nil.
func (b *Buffer) Channel(ch int) []float32 {
	if b.layout != Planar || ch < 0 || ch >= b.channels {
		return nil
	}

	return b.samples[ch*b.blockSize : (ch+1)*b.blockSize]
}

// Frame returns the samples for one frame across all channels. Only
// interleaved buffers store frames contiguously; for planar buffers Frame
// returns nil.
func (b *Buffer) Frame(n int) []float32 {
	if b.layout != Interleaved || n < 0 || n >= b.blockSize {
		return nil
	}

	return b.samples[n*b.channels : (n+1)*b.channels]
}

// Channels returns the channel count fixed at construction.
func (b *Buffer) Channels() int {
	return b.channels
}

// BlockSize returns the per-channel block size fixed at construction.
func (b *Buffer) BlockSize() int {
	return b.blockSize
}

// Layout returns the buffer's storage layout.
func (b *Buffer) Layout() BufferLayout {
	return b.layout
}

// checkBlock rejects raw descriptors that disagree with the buffer's
// construction-time dimensions. A mismatch means the host renegotiated the
// format beneath the patch; converting anyway would read or write out of
// bounds, so this is a fatal usage error.
func (b *Buffer) checkBlock(raw RawBlock) error {
	if raw.Channels != b.channels || raw.BlockSize != b.blockSize {
		return fmt.Errorf("%w: raw %dch x %d, buffer %dch x %d",
			ErrFormatMismatch, raw.Channels, raw.BlockSize, b.channels, b.blockSize)
	}
	if raw.Addr == 0 {
		return fmt.Errorf("%w: nil raw block", ErrFormatMismatch)
	}

	return nil
}

// index returns the flat position of (channel, frame) for a layout.
func index(layout BufferLayout, channels, blockSize, ch, frame int) int {
	if layout == Interleaved {
		return frame*channels + ch
	}

	return ch*blockSize + frame
}

// ConvertFrom fills the buffer from one raw input block, rescaling integer
// samples to float and reordering between layouts as required.
func (b *Buffer) ConvertFrom(raw RawBlock) error {
	if err := b.checkBlock(raw); err != nil {
		return err
	}

	switch raw.Format {
	case SampleFloat32:
		src := raw.float32Samples()
		if raw.Layout == b.layout {
			copy(b.samples, src)

			return nil
		}
		for ch := 0; ch < b.channels; ch++ {
			for frame := 0; frame < b.blockSize; frame++ {
				b.samples[index(b.layout, b.channels, b.blockSize, ch, frame)] =
					src[index(raw.Layout, b.channels, b.blockSize, ch, frame)]
			}
		}
	case SampleInt32:
		src := raw.int32Samples()
		if raw.Layout == b.layout {
			for i, v := range src {
				b.samples[i] = intToFloat(v)
			}

			return nil
		}
		for ch := 0; ch < b.channels; ch++ {
			for frame := 0; frame < b.blockSize; frame++ {
				b.samples[index(b.layout, b.channels, b.blockSize, ch, frame)] =
					intToFloat(src[index(raw.Layout, b.channels, b.blockSize, ch, frame)])
			}
		}
	default:
		return fmt.Errorf("%w: sample format %d", ErrFormatMismatch, raw.Format)
	}

	return nil
}

// ConvertTo writes the buffer into one raw output block, rescaling float
// samples back to the integer representation (with saturation) and
// reordering between layouts as required.
func (b *Buffer) ConvertTo(raw RawBlock) error {
	if err := b.checkBlock(raw); err != nil {
		return err
	}

	switch raw.Format {
	case SampleFloat32:
		dst := raw.float32Samples()
		if raw.Layout == b.layout {
			copy(dst, b.samples)

			return nil
		}
		for ch := 0; ch < b.channels; ch++ {
			for frame := 0; frame < b.blockSize; frame++ {
				dst[index(raw.Layout, b.channels, b.blockSize, ch, frame)] =
					b.samples[index(b.layout, b.channels, b.blockSize, ch, frame)]
			}
		}
	case SampleInt32:
		dst := raw.int32Samples()
		if raw.Layout == b.layout {
			for i, v := range b.samples {
				dst[i] = floatToInt(v)
			}

			return nil
		}
		for ch := 0; ch < b.channels; ch++ {
			for frame := 0; frame < b.blockSize; frame++ {
				dst[index(raw.Layout, b.channels, b.blockSize, ch, frame)] =
					floatToInt(b.samples[index(b.layout, b.channels, b.blockSize, ch, frame)])
			}
		}
	default:
		return fmt.Errorf("%w: sample format %d", ErrFormatMismatch, raw.Format)
	}

	return nil
}

// intToFloat rescales an integer sample so that full scale maps to 1.0.
func intToFloat(v int32) float32 {
	return float32(v) * (1.0 / fullScale)
}

// floatToInt rescales a float sample to the integer representation,
// saturating at the representation limits. Values outside [-1.0, 1.0) clamp
// to the minimum/maximum rather than wrapping.
func floatToInt(v float32) int32 {
	v *= fullScale
	switch {
	case v >= fullScale:
		return math.MaxInt32
	case v <= -fullScale:
		return math.MinInt32
	}

	return int32(v)
}

// AsFloat32Buffer copies the block into a go-audio buffer with interleaved
// data, for handing to go-audio transforms and encoders. It allocates and is
// not for use inside the audio callback.
func (b *Buffer) AsFloat32Buffer() *audio.Float32Buffer {
	data := make([]float32, len(b.samples))
	for ch := 0; ch < b.channels; ch++ {
		for frame := 0; frame < b.blockSize; frame++ {
			data[frame*b.channels+ch] = b.samples[index(b.layout, b.channels, b.blockSize, ch, frame)]
		}
	}

	return &audio.Float32Buffer{
		Format: &audio.Format{
			NumChannels: b.channels,
			SampleRate:  b.sampleRate,
		},
		Data:           data,
		SourceBitDepth: 32,
	}
}

// FromFloat32Buffer fills the block from a go-audio buffer holding
// interleaved data of matching dimensions.
func (b *Buffer) FromFloat32Buffer(buf *audio.Float32Buffer) error {
	if buf == nil {
		return fmt.Errorf("%w: nil go-audio buffer", ErrFormatMismatch)
	}
	if len(buf.Data) != len(b.samples) {
		return fmt.Errorf("%w: go-audio buffer of %d samples, need %d",
			ErrFormatMismatch, len(buf.Data), len(b.samples))
	}

	for ch := 0; ch < b.channels; ch++ {
		for frame := 0; frame < b.blockSize; frame++ {
			b.samples[index(b.layout, b.channels, b.blockSize, ch, frame)] = buf.Data[frame*b.channels+ch]
		}
	}

	return nil
}
