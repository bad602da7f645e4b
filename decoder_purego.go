//go:build (darwin || linux) && !noavcodec

package avcodec

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// paletteSize is the byte size of a Pal8 palette (256 RGBA entries).
const paletteSize = 256 * 4

// AVVideoDecoder implements VideoDecoder on top of libavcodec.
type AVVideoDecoder struct {
	config VideoDecoderConfig

	handle uint64
	// recv and ctx are heap-allocated output structs for purego; stack
	// variables can fail on arm64 when the GC moves the stack during the
	// native call.
	recv *avFrameInfo
	ctx  *avContextInfo

	draining bool
	hasFrame bool

	stats DecoderStats
	mu    sync.Mutex
}

// NewAVVideoDecoder creates a video decoder for the given codec name.
func NewAVVideoDecoder(config VideoDecoderConfig) (*AVVideoDecoder, error) {
	if err := loadMediaAV(); err != nil {
		return nil, fmt.Errorf("avcodec not available: %w", err)
	}
	if mediaAVFindDecoder(config.Codec) == 0 {
		return nil, fmt.Errorf("%w: no decoder named %q", ErrCodecNotSupported, config.Codec)
	}

	threads := int32(0) // 0 = auto
	if config.Threads > 0 {
		threads = int32(config.Threads)
	}

	handle := mediaAVDecoderCreate(config.Codec, avMediaTypeVideo, threads)
	if handle == 0 {
		return nil, fmt.Errorf("failed to open video decoder %q", config.Codec)
	}

	return &AVVideoDecoder{
		config: config,
		handle: handle,
		recv:   &avFrameInfo{},
		ctx:    &avContextInfo{},
	}, nil
}

// Decode implements VideoDecoder. One packet submission, one retrieval
// attempt; see the interface for the outcome contract.
func (d *AVVideoDecoder) Decode(pkt *Packet) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle == 0 {
		return false, errors.New("decoder not initialized")
	}
	d.hasFrame = false

	var ret int32
	if pkt == nil || pkt.IsEOF() {
		// End of stream: submit the flush signal instead of data.
		ret = mediaAVDecoderSendPacket(d.handle, 0, 0, 0, 1)
		d.draining = true
	} else {
		var data uintptr
		if len(pkt.Data) > 0 {
			data = uintptr(unsafe.Pointer(&pkt.Data[0]))
		}
		ret = mediaAVDecoderSendPacket(d.handle, data, int32(len(pkt.Data)), int64(pkt.PTS*1000), 0)
		runtime.KeepAlive(pkt.Data)
	}
	if ret < 0 {
		logrus.WithFields(logrus.Fields{
			"codec": d.config.Codec,
			"error": avStrError(ret),
		}).Warn("avcodec: error sending a packet for decoding")
		return false, fmt.Errorf("send packet: %s", avStrError(ret))
	}
	if pkt != nil && !pkt.IsEOF() {
		d.stats.BytesDecoded += uint64(len(pkt.Data))
	}

	out := d.recv
	ret = mediaAVDecoderReceiveFrame(d.handle, uintptr(unsafe.Pointer(out)))
	runtime.KeepAlive(out)
	if ret == avErrAgain {
		// No frame available yet; feed more input.
		return false, nil
	}
	if ret == avErrEOF {
		return false, ErrDrained
	}
	if ret < 0 {
		logrus.WithFields(logrus.Fields{
			"codec": d.config.Codec,
			"error": avStrError(ret),
		}).Warn("avcodec: error during decoding")
		return false, fmt.Errorf("receive frame: %s", avStrError(ret))
	}

	if ret = mediaAVDecoderContext(d.handle, uintptr(unsafe.Pointer(d.ctx))); ret < 0 {
		return false, fmt.Errorf("query context: %s", avStrError(ret))
	}
	runtime.KeepAlive(d.ctx)
	if d.ctx.Width == 0 || d.ctx.Height == 0 {
		// Decoder warm-up: dimensions not resolvable yet.
		return false, nil
	}

	d.hasFrame = true
	d.stats.FramesDecoded++
	if d.draining {
		d.stats.FlushedFrames++
	}
	return true, nil
}

// Frame implements VideoDecoder. The returned frame's planes view the
// decoder's reference-counted storage without copying; the embedded
// reference keeps that storage alive until the frame is released.
func (d *AVVideoDecoder) Frame() *VideoFrame {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasFrame || d.recv.Width <= 0 || d.recv.Height <= 0 {
		return nil
	}
	format := pixelFormatFromAV(d.recv.Format)
	if format == PixelFormatUnknown {
		return nil
	}

	w, h := int(d.recv.Width), int(d.recv.Height)
	f := &VideoFrame{
		Width:  w,
		Height: h,
		Format: format,
		// demuxer timestamps are in milliseconds
		Timestamp: float64(d.recv.BestEffortTS) / 1000.0,
	}
	f.DisplayAspectRatio = displayAspectRatio(w, h,
		d.recv.SARNum, d.recv.SARDen, d.ctx.SARNum, d.ctx.SARDen)

	if clone := mediaAVFrameClone(d.handle); clone != 0 {
		f.ref = newFrameRef(func() { mediaAVFrameFree(clone) })
	}

	n := format.PlaneCount()
	f.Data = make([][]byte, n)
	f.Stride = make([]int, n)
	for i := 0; i < n; i++ {
		stride := int(d.recv.Linesize[i])
		f.Stride[i] = stride
		if d.recv.Planes[i] == 0 || stride <= 0 {
			continue
		}
		rows := format.PlaneHeight(i, h)
		f.Data[i] = unsafe.Slice((*byte)(unsafe.Pointer(d.recv.Planes[i])), stride*rows)
	}

	f.ColorSpace, f.ColorRange = resolveFrameColor(format, w, h,
		d.recv.Format, d.ctx.PixFmt,
		d.recv.ColorSpace, d.recv.ColorRange,
		d.ctx.ColorSpace, d.ctx.ColorRange)

	if format.HasPalette() && d.recv.Planes[1] != 0 {
		pal := unsafe.Slice((*byte)(unsafe.Pointer(d.recv.Planes[1])), paletteSize)
		f.Palette = append([]byte(nil), pal...)
	}
	return f
}

// Stats implements VideoDecoder.
func (d *AVVideoDecoder) Stats() DecoderStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close implements VideoDecoder. Safe to call more than once.
func (d *AVVideoDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != 0 {
		mediaAVDecoderDestroy(d.handle)
		d.handle = 0
	}
	d.hasFrame = false
	return nil
}

// AVAudioDecoder implements AudioDecoder on top of libavcodec.
type AVAudioDecoder struct {
	config AudioDecoderConfig

	handle uint64
	recv   *avFrameInfo // heap-allocated for purego

	draining bool
	hasFrame bool

	stats DecoderStats
	mu    sync.Mutex
}

// NewAVAudioDecoder creates an audio decoder for the given codec name.
func NewAVAudioDecoder(config AudioDecoderConfig) (*AVAudioDecoder, error) {
	if err := loadMediaAV(); err != nil {
		return nil, fmt.Errorf("avcodec not available: %w", err)
	}
	if mediaAVFindDecoder(config.Codec) == 0 {
		return nil, fmt.Errorf("%w: no decoder named %q", ErrCodecNotSupported, config.Codec)
	}

	handle := mediaAVDecoderCreate(config.Codec, avMediaTypeAudio, 0)
	if handle == 0 {
		return nil, fmt.Errorf("failed to open audio decoder %q", config.Codec)
	}

	return &AVAudioDecoder{
		config: config,
		handle: handle,
		recv:   &avFrameInfo{},
	}, nil
}

// Decode implements AudioDecoder.
func (d *AVAudioDecoder) Decode(pkt *Packet) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle == 0 {
		return false, errors.New("decoder not initialized")
	}
	d.hasFrame = false

	var ret int32
	if pkt == nil || pkt.IsEOF() {
		ret = mediaAVDecoderSendPacket(d.handle, 0, 0, 0, 1)
		d.draining = true
	} else {
		var data uintptr
		if len(pkt.Data) > 0 {
			data = uintptr(unsafe.Pointer(&pkt.Data[0]))
		}
		ret = mediaAVDecoderSendPacket(d.handle, data, int32(len(pkt.Data)), int64(pkt.PTS*1000), 0)
		runtime.KeepAlive(pkt.Data)
	}
	if ret < 0 {
		logrus.WithFields(logrus.Fields{
			"codec": d.config.Codec,
			"error": avStrError(ret),
		}).Warn("avcodec: error sending a packet for decoding")
		return false, fmt.Errorf("send packet: %s", avStrError(ret))
	}
	if pkt != nil && !pkt.IsEOF() {
		d.stats.BytesDecoded += uint64(len(pkt.Data))
	}

	out := d.recv
	ret = mediaAVDecoderReceiveFrame(d.handle, uintptr(unsafe.Pointer(out)))
	runtime.KeepAlive(out)
	if ret == avErrAgain {
		return false, nil
	}
	if ret == avErrEOF {
		return false, ErrDrained
	}
	if ret < 0 {
		logrus.WithFields(logrus.Fields{
			"codec": d.config.Codec,
			"error": avStrError(ret),
		}).Warn("avcodec: error during decoding")
		return false, fmt.Errorf("receive frame: %s", avStrError(ret))
	}

	d.hasFrame = true
	d.stats.FramesDecoded++
	if d.draining {
		d.stats.FlushedFrames++
	}
	return true, nil
}

// Frame implements AudioDecoder. Returns nil while the sample format is not
// yet resolvable (decoder warm-up).
func (d *AVAudioDecoder) Frame() *AudioFrame {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasFrame {
		return nil
	}
	format := AudioFormat{
		SampleRate:    int(d.recv.SampleRate),
		SampleFormat:  sampleFormatFromAV(d.recv.Format),
		ChannelLayout: channelLayoutFromAV(d.recv.ChannelLayout),
	}
	if !format.IsValid() {
		// need more data to decode before the format settles
		return nil
	}

	f := &AudioFrame{
		Format:            format,
		SamplesPerChannel: int(d.recv.NbSamples),
		// linesize[0] holds the plane size, kept for correct alignment
		Stride:    int(d.recv.Linesize[0]),
		Timestamp: float64(d.recv.BestEffortTS) / 1000.0,
	}

	if clone := mediaAVFrameClone(d.handle); clone != 0 {
		f.ref = newFrameRef(func() { mediaAVFrameFree(clone) })
	}

	planes := format.PlaneCount()
	if planes > len(d.recv.Planes) {
		planes = len(d.recv.Planes)
	}
	f.Data = make([][]byte, planes)
	size := int(d.recv.Linesize[0])
	for i := 0; i < planes; i++ {
		if d.recv.Planes[i] == 0 || size <= 0 {
			continue
		}
		f.Data[i] = unsafe.Slice((*byte)(unsafe.Pointer(d.recv.Planes[i])), size)
	}
	return f
}

// Stats implements AudioDecoder.
func (d *AVAudioDecoder) Stats() DecoderStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close implements AudioDecoder. Safe to call more than once.
func (d *AVAudioDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != 0 {
		mediaAVDecoderDestroy(d.handle)
		d.handle = 0
	}
	d.hasFrame = false
	return nil
}
