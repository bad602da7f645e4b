// Core frame and packet types shared by the decode and encode drivers.
package avcodec

// PixelFormat represents internal video pixel formats.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatI420                // YUV 4:2:0 planar (Y + U + V)
	PixelFormatI422                // YUV 4:2:2 planar
	PixelFormatI444                // YUV 4:4:4 planar
	PixelFormatI440                // YUV 4:4:0 planar
	PixelFormatNV12                // YUV 4:2:0 semi-planar (Y + interleaved UV)
	PixelFormatNV21                // YUV 4:2:0 semi-planar (Y + interleaved VU)
	PixelFormatYUYV                // Packed YUV 4:2:2 (YUYV order)
	PixelFormatUYVY                // Packed YUV 4:2:2 (UYVY order)
	PixelFormatGray8               // 8-bit grayscale
	PixelFormatPal8                // 8-bit paletted, palette carried as frame metadata
	PixelFormatRGB24               // Packed RGB, 3 bytes per pixel
	PixelFormatBGR24               // Packed BGR, 3 bytes per pixel
	PixelFormatRGBA32              // Packed RGBA, 4 bytes per pixel
	PixelFormatBGRA32              // Packed BGRA, 4 bytes per pixel
	PixelFormatARGB32              // Packed ARGB, 4 bytes per pixel
	PixelFormatABGR32              // Packed ABGR, 4 bytes per pixel
	PixelFormatGBRP                // Planar RGB (G + B + R planes)
	PixelFormatXYZ12               // Packed XYZ, 12 bits per component
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatI420:
		return "I420"
	case PixelFormatI422:
		return "I422"
	case PixelFormatI444:
		return "I444"
	case PixelFormatI440:
		return "I440"
	case PixelFormatNV12:
		return "NV12"
	case PixelFormatNV21:
		return "NV21"
	case PixelFormatYUYV:
		return "YUYV"
	case PixelFormatUYVY:
		return "UYVY"
	case PixelFormatGray8:
		return "Gray8"
	case PixelFormatPal8:
		return "Pal8"
	case PixelFormatRGB24:
		return "RGB24"
	case PixelFormatBGR24:
		return "BGR24"
	case PixelFormatRGBA32:
		return "RGBA32"
	case PixelFormatBGRA32:
		return "BGRA32"
	case PixelFormatARGB32:
		return "ARGB32"
	case PixelFormatABGR32:
		return "ABGR32"
	case PixelFormatGBRP:
		return "GBRP"
	case PixelFormatXYZ12:
		return "XYZ12"
	default:
		return "Unknown"
	}
}

// PlaneCount returns the number of planes for this pixel format.
func (p PixelFormat) PlaneCount() int {
	switch p {
	case PixelFormatI420, PixelFormatI422, PixelFormatI444, PixelFormatI440, PixelFormatGBRP:
		return 3
	case PixelFormatNV12, PixelFormatNV21:
		return 2
	case PixelFormatYUYV, PixelFormatUYVY, PixelFormatGray8, PixelFormatPal8, PixelFormatRGB24,
		PixelFormatBGR24, PixelFormatRGBA32, PixelFormatBGRA32, PixelFormatARGB32,
		PixelFormatABGR32, PixelFormatXYZ12:
		return 1
	default:
		return 0
	}
}

// IsRGB returns true for RGB-family formats (packed or planar).
func (p PixelFormat) IsRGB() bool {
	switch p {
	case PixelFormatRGB24, PixelFormatBGR24, PixelFormatRGBA32, PixelFormatBGRA32,
		PixelFormatARGB32, PixelFormatABGR32, PixelFormatGBRP:
		return true
	default:
		return false
	}
}

// IsPlanar returns true if each component lives in its own plane.
func (p PixelFormat) IsPlanar() bool {
	switch p {
	case PixelFormatI420, PixelFormatI422, PixelFormatI444, PixelFormatI440,
		PixelFormatNV12, PixelFormatNV21, PixelFormatGBRP:
		return true
	default:
		return false
	}
}

// IsXYZ returns true for CIE XYZ formats.
func (p PixelFormat) IsXYZ() bool { return p == PixelFormatXYZ12 }

// HasPalette returns true if the format carries a palette plane.
func (p PixelFormat) HasPalette() bool { return p == PixelFormatPal8 }

// chromaShift returns the horizontal and vertical chroma subsampling shifts.
func (p PixelFormat) chromaShift() (h, v int) {
	switch p {
	case PixelFormatI420, PixelFormatNV12, PixelFormatNV21:
		return 1, 1
	case PixelFormatI422:
		return 1, 0
	case PixelFormatI440:
		return 0, 1
	default:
		return 0, 0
	}
}

// PlaneHeight returns the height in rows of the given plane.
func (p PixelFormat) PlaneHeight(plane, height int) int {
	if plane == 0 || !p.IsPlanar() {
		return height
	}
	_, v := p.chromaShift()
	return (height + (1 << v) - 1) >> v
}

// ColorSpace describes how YUV/RGB values map to color.
type ColorSpace int

const (
	ColorSpaceUnknown ColorSpace = iota
	ColorSpaceRGB
	ColorSpaceGBR // planar RGB output, e.g. GL interop frames
	ColorSpaceBT601
	ColorSpaceBT709
	ColorSpaceSMPTE240M
	ColorSpaceBT2020
	ColorSpaceXYZ
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceRGB:
		return "RGB"
	case ColorSpaceGBR:
		return "GBR"
	case ColorSpaceBT601:
		return "BT601"
	case ColorSpaceBT709:
		return "BT709"
	case ColorSpaceSMPTE240M:
		return "SMPTE240M"
	case ColorSpaceBT2020:
		return "BT2020"
	case ColorSpaceXYZ:
		return "XYZ"
	default:
		return "Unknown"
	}
}

// ColorRange describes whether sample values use the full numeric range or
// the limited/studio swing.
type ColorRange int

const (
	ColorRangeUnknown ColorRange = iota
	ColorRangeLimited
	ColorRangeFull
)

func (c ColorRange) String() string {
	switch c {
	case ColorRangeLimited:
		return "Limited"
	case ColorRangeFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// SampleFormat represents internal audio sample formats.
type SampleFormat int

const (
	SampleFormatUnknown SampleFormat = iota
	SampleFormatU8
	SampleFormatS16
	SampleFormatS32
	SampleFormatF32
	SampleFormatF64
	SampleFormatU8P
	SampleFormatS16P
	SampleFormatS32P
	SampleFormatF32P
	SampleFormatF64P
)

func (s SampleFormat) String() string {
	switch s {
	case SampleFormatU8:
		return "U8"
	case SampleFormatS16:
		return "S16"
	case SampleFormatS32:
		return "S32"
	case SampleFormatF32:
		return "F32"
	case SampleFormatF64:
		return "F64"
	case SampleFormatU8P:
		return "U8P"
	case SampleFormatS16P:
		return "S16P"
	case SampleFormatS32P:
		return "S32P"
	case SampleFormatF32P:
		return "F32P"
	case SampleFormatF64P:
		return "F64P"
	default:
		return "Unknown"
	}
}

// BytesPerSample returns the number of bytes per sample for this format.
func (s SampleFormat) BytesPerSample() int {
	switch s {
	case SampleFormatU8, SampleFormatU8P:
		return 1
	case SampleFormatS16, SampleFormatS16P:
		return 2
	case SampleFormatS32, SampleFormatS32P, SampleFormatF32, SampleFormatF32P:
		return 4
	case SampleFormatF64, SampleFormatF64P:
		return 8
	default:
		return 0
	}
}

// IsPlanar returns true if each channel lives in its own plane.
func (s SampleFormat) IsPlanar() bool {
	switch s {
	case SampleFormatU8P, SampleFormatS16P, SampleFormatS32P, SampleFormatF32P, SampleFormatF64P:
		return true
	default:
		return false
	}
}

// ChannelLayout identifies a speaker layout.
type ChannelLayout int

const (
	ChannelLayoutUnsupported ChannelLayout = iota
	ChannelLayoutMono
	ChannelLayoutStereo
	ChannelLayout2Point1
	ChannelLayoutSurround // 3.0: FL+FR+FC
	ChannelLayoutQuad
	ChannelLayout5Point1
	ChannelLayout7Point1
)

func (c ChannelLayout) String() string {
	switch c {
	case ChannelLayoutMono:
		return "Mono"
	case ChannelLayoutStereo:
		return "Stereo"
	case ChannelLayout2Point1:
		return "2.1"
	case ChannelLayoutSurround:
		return "Surround"
	case ChannelLayoutQuad:
		return "Quad"
	case ChannelLayout5Point1:
		return "5.1"
	case ChannelLayout7Point1:
		return "7.1"
	default:
		return "Unsupported"
	}
}

// Channels returns the channel count for this layout.
func (c ChannelLayout) Channels() int {
	switch c {
	case ChannelLayoutMono:
		return 1
	case ChannelLayoutStereo:
		return 2
	case ChannelLayout2Point1, ChannelLayoutSurround:
		return 3
	case ChannelLayoutQuad:
		return 4
	case ChannelLayout5Point1:
		return 6
	case ChannelLayout7Point1:
		return 8
	default:
		return 0
	}
}

// AudioFormat fully describes a raw audio stream.
type AudioFormat struct {
	SampleRate    int
	SampleFormat  SampleFormat
	ChannelLayout ChannelLayout
}

// Channels returns the channel count.
func (f AudioFormat) Channels() int { return f.ChannelLayout.Channels() }

// BytesPerSample returns the bytes per single-channel sample.
func (f AudioFormat) BytesPerSample() int { return f.SampleFormat.BytesPerSample() }

// IsPlanar reports whether channels are stored in separate planes.
func (f AudioFormat) IsPlanar() bool { return f.SampleFormat.IsPlanar() }

// PlaneCount returns the number of data planes for this format.
func (f AudioFormat) PlaneCount() int {
	if f.IsPlanar() {
		return f.Channels()
	}
	return 1
}

// IsValid reports whether every field is resolved.
func (f AudioFormat) IsValid() bool {
	return f.SampleRate > 0 &&
		f.SampleFormat != SampleFormatUnknown &&
		f.ChannelLayout != ChannelLayoutUnsupported
}

// Packet is a compressed bitstream unit with timing metadata. A packet with
// the EOF marker set carries no data and tells the decoder to flush.
// Packets handed to a decoder are read-only to the adapter.
type Packet struct {
	Data     []byte
	PTS      float64 // presentation time in seconds
	DTS      float64 // decode time in seconds
	Duration float64 // duration in seconds (0 if unknown)
	KeyFrame bool
	eof      bool
}

// FlushPacket returns the end-of-stream marker packet.
func FlushPacket() *Packet { return &Packet{eof: true} }

// IsEOF reports whether this packet is the end-of-stream marker.
func (p *Packet) IsEOF() bool { return p.eof }

// Clone creates a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	clone := *p
	if p.Data != nil {
		clone.Data = make([]byte, len(p.Data))
		copy(clone.Data, p.Data)
	}
	return &clone
}

// VideoFrame is a decoded video frame. Plane data may point into memory
// owned by the external decoder; the embedded reference keeps that storage
// alive until Release (or a deep Clone) is called. A frame returned by a
// decoder is only guaranteed valid until the next Decode call unless the
// caller retains or clones it.
type VideoFrame struct {
	Data   [][]byte // plane data, PlaneCount() planes
	Stride []int    // bytes per row for each plane
	Width  int
	Height int
	Format PixelFormat

	Timestamp          float64 // seconds
	DisplayAspectRatio float64 // 0 if unknown
	ColorSpace         ColorSpace
	ColorRange         ColorRange
	Palette            []byte // 256*4 bytes for Pal8 frames, nil otherwise

	ref *FrameRef
}

// IsValid reports whether dimensions and format are resolved. Metadata of an
// invalid frame must not be trusted.
func (f *VideoFrame) IsValid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && f.Format != PixelFormatUnknown
}

// Retain increments the shared reference on the underlying external frame
// storage. Each Retain must be balanced by a Release.
func (f *VideoFrame) Retain() {
	if f.ref != nil {
		f.ref.Retain()
	}
}

// Release drops this frame's reference on the external storage. The plane
// slices must not be used afterwards.
func (f *VideoFrame) Release() {
	if f.ref != nil {
		f.ref.Release()
		f.ref = nil
	}
}

// Clone creates a deep copy owning its own memory, decoupled from the
// external decoder storage.
func (f *VideoFrame) Clone() *VideoFrame {
	clone := &VideoFrame{
		Data:               make([][]byte, len(f.Data)),
		Stride:             make([]int, len(f.Stride)),
		Width:              f.Width,
		Height:             f.Height,
		Format:             f.Format,
		Timestamp:          f.Timestamp,
		DisplayAspectRatio: f.DisplayAspectRatio,
		ColorSpace:         f.ColorSpace,
		ColorRange:         f.ColorRange,
	}
	copy(clone.Stride, f.Stride)
	for i, plane := range f.Data {
		if plane != nil {
			clone.Data[i] = make([]byte, len(plane))
			copy(clone.Data[i], plane)
		}
	}
	if f.Palette != nil {
		clone.Palette = make([]byte, len(f.Palette))
		copy(clone.Palette, f.Palette)
	}
	return clone
}

// AudioFrame is a decoded audio frame. The same ownership rules as
// VideoFrame apply to its plane data.
type AudioFrame struct {
	Data              [][]byte // one plane per channel for planar formats
	Stride            int      // bytes per plane, for alignment
	SamplesPerChannel int
	Format            AudioFormat
	Timestamp         float64 // seconds

	ref *FrameRef
}

// IsValid reports whether the format is fully resolved.
func (f *AudioFrame) IsValid() bool { return f != nil && f.Format.IsValid() }

// Retain increments the shared reference on the external frame storage.
func (f *AudioFrame) Retain() {
	if f.ref != nil {
		f.ref.Retain()
	}
}

// Release drops this frame's reference on the external storage.
func (f *AudioFrame) Release() {
	if f.ref != nil {
		f.ref.Release()
		f.ref = nil
	}
}

// Clone creates a deep copy owning its own memory.
func (f *AudioFrame) Clone() *AudioFrame {
	clone := &AudioFrame{
		Data:              make([][]byte, len(f.Data)),
		Stride:            f.Stride,
		SamplesPerChannel: f.SamplesPerChannel,
		Format:            f.Format,
		Timestamp:         f.Timestamp,
	}
	for i, plane := range f.Data {
		if plane != nil {
			clone.Data[i] = make([]byte, len(plane))
			copy(clone.Data[i], plane)
		}
	}
	return clone
}
