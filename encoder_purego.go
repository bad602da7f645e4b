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

// AVAudioEncoder implements AudioEncoder on top of libavcodec.
type AVAudioEncoder struct {
	config AudioEncoderConfig

	handle    uint64
	format    AudioFormat // negotiated at open
	frameSize int
	timeBase  float64 // seconds per tick, 1/sampleRate
	buffer    []byte  // packet receive buffer

	// Heap-allocated native-call parameter blocks (purego arm64).
	pktInfo   *avPacketInfo
	planes    *[8]uintptr
	linesizes *[8]int32

	packet *Packet // most recently produced packet

	stats AudioEncoderStats
	mu    sync.Mutex
}

// NewAVAudioEncoder opens an encoder for the given codec name, negotiating
// any output format fields the config leaves unset: the encoder's first
// advertised sample rate, sample format, and channel layout are used, with
// 44100 Hz / S16 / stereo as documented defaults when it advertises none.
func NewAVAudioEncoder(config AudioEncoderConfig) (*AVAudioEncoder, error) {
	if err := loadMediaAV(); err != nil {
		return nil, fmt.Errorf("avcodec not available: %w", err)
	}
	if mediaAVFindEncoder(config.Codec) == 0 {
		return nil, fmt.Errorf("%w: no encoder named %q", ErrCodecNotSupported, config.Codec)
	}

	caps := &avEncoderCaps{}
	if ret := mediaAVEncoderQuery(config.Codec, uintptr(unsafe.Pointer(caps))); ret < 0 {
		// no capability report; negotiation falls back to the defaults
		*caps = avEncoderCaps{SampleFmt: avSampleFmtNone}
	}
	runtime.KeepAlive(caps)

	format := negotiateAudioFormat(config.Codec, config.Format, caps)

	bitRate := config.BitRate
	if bitRate <= 0 {
		bitRate = DefaultBitRate
	}

	handle := mediaAVEncoderCreate(config.Codec,
		int32(format.SampleRate),
		avFromSampleFormat(format.SampleFormat),
		avFromChannelLayout(format.ChannelLayout),
		bitRate)
	if handle == 0 {
		return nil, fmt.Errorf("failed to open audio encoder %q", config.Codec)
	}

	frameSize := int(mediaAVEncoderFrameSize(handle))
	frameSize, bufferSize := encodeBufferSize(frameSize, int(caps.BitsPerCodedSample), format)

	return &AVAudioEncoder{
		config:    config,
		handle:    handle,
		format:    format,
		frameSize: frameSize,
		timeBase:  1.0 / float64(format.SampleRate),
		buffer:    make([]byte, bufferSize),
		pktInfo:   &avPacketInfo{},
		planes:    &[8]uintptr{},
		linesizes: &[8]int32{},
	}, nil
}

// negotiateAudioFormat fills the unset fields of the requested format from
// the encoder's advertised capabilities, falling back to the documented
// defaults when the encoder advertises nothing.
func negotiateAudioFormat(codec string, requested AudioFormat, caps *avEncoderCaps) AudioFormat {
	used := requested
	if requested.SampleRate <= 0 {
		if caps.SampleRate > 0 {
			logrus.WithFields(logrus.Fields{
				"codec": codec, "sample_rate": caps.SampleRate,
			}).Debug("avcodec: using first supported sample rate")
			used.SampleRate = int(caps.SampleRate)
		} else {
			logrus.WithField("codec", codec).
				Warn("avcodec: sample rate not set and none advertised, using 44100")
			used.SampleRate = DefaultSampleRate
		}
	}
	if requested.SampleFormat == SampleFormatUnknown {
		used.SampleFormat = sampleFormatFromAV(caps.SampleFmt)
		if used.SampleFormat != SampleFormatUnknown {
			logrus.WithFields(logrus.Fields{
				"codec": codec, "sample_format": used.SampleFormat.String(),
			}).Debug("avcodec: using first supported sample format")
		} else {
			logrus.WithField("codec", codec).
				Warn("avcodec: sample format not set and none advertised, using s16")
			used.SampleFormat = DefaultSampleFormat
		}
	}
	if requested.ChannelLayout == ChannelLayoutUnsupported {
		used.ChannelLayout = channelLayoutFromAV(caps.ChannelLayout)
		if used.ChannelLayout != ChannelLayoutUnsupported {
			logrus.WithFields(logrus.Fields{
				"codec": codec, "channel_layout": used.ChannelLayout.String(),
			}).Debug("avcodec: using first supported channel layout")
		} else {
			logrus.WithField("codec", codec).
				Warn("avcodec: channel layout not set and none advertised, using stereo")
			used.ChannelLayout = DefaultChannelLayout
		}
	}
	return used
}

// encodeBufferSize computes the working frame size and packet buffer size.
// Raw PCM codecs report no fixed frame size; they get a large working frame
// sized from the coded sample width. The buffer covers the worst case of
// frameSize x bytesPerSample x channels with a 2x safety factor, and never
// shrinks below MinEncodeBufferSize.
func encodeBufferSize(frameSize, bitsPerCodedSample int, format AudioFormat) (int, int) {
	pcm := 0
	if frameSize <= 1 {
		pcm = bitsPerCodedSample / 8
	}
	var bufferSize int
	if pcm > 0 {
		frameSize = DefaultEncoderFlushFrameSize
		bufferSize = frameSize*pcm*format.Channels()*2 + 200
	} else {
		bufferSize = frameSize*format.BytesPerSample()*format.Channels()*2 + 200
	}
	if bufferSize < MinEncodeBufferSize {
		bufferSize = MinEncodeBufferSize
	}
	return frameSize, bufferSize
}

// Encode implements AudioEncoder. A nil or invalid frame signals end of
// stream. The transient external view over the caller's planes is released
// before the call returns; only plane pointers and strides are copied, not
// sample data.
func (e *AVAudioEncoder) Encode(frame *AudioFrame) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle == 0 {
		return false, errors.New("encoder not initialized")
	}
	e.packet = nil

	var ret int32
	valid := frame.IsValid()
	if valid {
		if frame.Format != e.format {
			return false, fmt.Errorf("%w: got %+v, negotiated %+v",
				ErrFormatMismatch, frame.Format, e.format)
		}

		nb := frame.SamplesPerChannel
		if nb <= 0 || nb > e.frameSize {
			nb = e.frameSize
		}
		sampleStride := e.format.BytesPerSample()
		if !e.format.IsPlanar() {
			sampleStride *= e.format.Channels()
		}

		*e.planes = [8]uintptr{}
		*e.linesizes = [8]int32{}
		planeCount := e.format.PlaneCount()
		if planeCount > len(frame.Data) {
			planeCount = len(frame.Data)
		}
		if planeCount > len(e.planes) {
			planeCount = len(e.planes)
		}
		for i := 0; i < planeCount; i++ {
			if len(frame.Data[i]) == 0 {
				continue
			}
			e.planes[i] = uintptr(unsafe.Pointer(&frame.Data[i][0]))
			e.linesizes[i] = int32(nb * sampleStride)
		}

		pts := int64(frame.Timestamp * float64(e.format.SampleRate))
		ret = mediaAVEncoderSendFrame(e.handle,
			uintptr(unsafe.Pointer(e.planes)),
			uintptr(unsafe.Pointer(e.linesizes)),
			int32(nb), pts, 0)
		runtime.KeepAlive(frame.Data)
		runtime.KeepAlive(e.planes)
		runtime.KeepAlive(e.linesizes)
	} else {
		// End of stream: submit the flush signal.
		ret = mediaAVEncoderSendFrame(e.handle, 0, 0, 0, 0, 1)
	}
	if ret < 0 {
		logrus.WithFields(logrus.Fields{
			"codec": e.config.Codec,
			"error": avStrError(ret),
		}).Warn("avcodec: error sending frame to encoder")
		return false, fmt.Errorf("send frame: %s", avStrError(ret))
	}
	if valid {
		e.stats.FramesEncoded++
		e.stats.SamplesEncoded += uint64(frame.SamplesPerChannel)
	}

	n := mediaAVEncoderReceivePacket(e.handle,
		uintptr(unsafe.Pointer(e.pktInfo)),
		uintptr(unsafe.Pointer(&e.buffer[0])),
		int32(len(e.buffer)))
	runtime.KeepAlive(e.pktInfo)
	runtime.KeepAlive(e.buffer)
	if n == avErrAgain {
		// Encoder is buffering; feed more frames.
		return false, nil
	}
	if n == avErrEOF {
		return false, ErrDrained
	}
	if n < 0 {
		logrus.WithFields(logrus.Fields{
			"codec": e.config.Codec,
			"error": avStrError(n),
		}).Warn("avcodec: error receiving packet from encoder")
		return false, fmt.Errorf("receive packet: %s", avStrError(n))
	}

	data := make([]byte, n)
	copy(data, e.buffer[:n])
	e.packet = &Packet{
		Data:     data,
		PTS:      float64(e.pktInfo.PTS) * e.timeBase,
		DTS:      float64(e.pktInfo.DTS) * e.timeBase,
		Duration: float64(e.pktInfo.Duration) * e.timeBase,
		KeyFrame: e.pktInfo.Flags&avPktFlagKey != 0,
	}
	e.stats.PacketsEncoded++
	e.stats.BytesEncoded += uint64(n)
	return true, nil
}

// Packet implements AudioEncoder.
func (e *AVAudioEncoder) Packet() *Packet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.packet
}

// Format implements AudioEncoder.
func (e *AVAudioEncoder) Format() AudioFormat {
	return e.format
}

// FrameSize implements AudioEncoder.
func (e *AVAudioEncoder) FrameSize() int {
	return e.frameSize
}

// Stats implements AudioEncoder.
func (e *AVAudioEncoder) Stats() AudioEncoderStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Close implements AudioEncoder. Safe to call more than once.
func (e *AVAudioEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle != 0 {
		mediaAVEncoderDestroy(e.handle)
		e.handle = 0
	}
	e.packet = nil
	return nil
}
