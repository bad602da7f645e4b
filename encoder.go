package avcodec

import (
	"fmt"
	"io"
	"sync"
)

// Encoder format defaults used when neither the caller nor the codec
// advertises a value.
const (
	DefaultSampleRate                  = 44100
	DefaultSampleFormat                = SampleFormatS16
	DefaultChannelLayout               = ChannelLayoutStereo
	DefaultBitRate               int64 = 128000
	DefaultEncoderFlushFrameSize       = 16384 // working frame size for raw PCM codecs
	MinEncodeBufferSize                = 16384 // AV_INPUT_BUFFER_MIN_SIZE
)

// AudioEncoderConfig configures an audio encoder.
//
// Zero fields of Format are negotiated at open: the encoder's first
// advertised sample rate, sample format, and channel layout are used, with
// 44100 Hz / S16 / stereo as the final fallback.
type AudioEncoderConfig struct {
	Codec   string // Codec identifier (e.g. "aac", "opus", "pcm_s16le")
	Backend string // Backend to use ("" = default)

	Format  AudioFormat // desired output format; zero fields are negotiated
	BitRate int64       // target bitrate in bps (0 = DefaultBitRate)
}

// DefaultAudioEncoderConfig returns a config that lets the encoder pick its
// preferred format.
func DefaultAudioEncoderConfig(codec string) AudioEncoderConfig {
	return AudioEncoderConfig{
		Codec:   codec,
		BitRate: DefaultBitRate,
	}
}

// AudioEncoderStats provides encoding metrics.
type AudioEncoderStats struct {
	FramesEncoded  uint64
	PacketsEncoded uint64
	BytesEncoded   uint64
	SamplesEncoded uint64
}

// AudioEncoder drives raw audio frames through an external encoder.
//
// Encode submits exactly one frame (or the end-of-stream signal when frame
// is nil or invalid) and attempts exactly one retrieval:
//   - (true, nil): a packet is ready via Packet().
//   - (false, nil): the encoder needs more input; not an error.
//   - (false, ErrDrained): flushing finished; no more packets will come.
//   - (false, err): hard failure.
//
// The encoder only borrows the frame's plane data for the duration of the
// call; the transient external view is released before Encode returns.
type AudioEncoder interface {
	io.Closer

	Encode(frame *AudioFrame) (bool, error)

	// Packet returns the most recently produced packet, or nil if the last
	// Encode call produced none. The packet owns its buffer independently of
	// the frame that produced it.
	Packet() *Packet

	// Format returns the negotiated output format.
	Format() AudioFormat

	// FrameSize returns the number of samples per channel the codec expects
	// in each submitted frame.
	FrameSize() int

	Stats() AudioEncoderStats
}

// --- Registry ---

type audioEncoderFactory func(AudioEncoderConfig) (AudioEncoder, error)

type encoderRegistry struct {
	mu sync.RWMutex

	audio        map[string]audioEncoderFactory
	audioDefault string
}

var globalEncoderRegistry = &encoderRegistry{
	audio: make(map[string]audioEncoderFactory),
}

// RegisterAudioEncoder registers an audio encoder factory under a backend
// name. The first registered backend becomes the default.
func RegisterAudioEncoder(backend string, factory func(AudioEncoderConfig) (AudioEncoder, error)) {
	globalEncoderRegistry.mu.Lock()
	defer globalEncoderRegistry.mu.Unlock()

	globalEncoderRegistry.audio[backend] = factory
	if globalEncoderRegistry.audioDefault == "" {
		globalEncoderRegistry.audioDefault = backend
	}
}

// NewAudioEncoder creates an audio encoder using the configured backend.
func NewAudioEncoder(config AudioEncoderConfig) (AudioEncoder, error) {
	globalEncoderRegistry.mu.RLock()
	defer globalEncoderRegistry.mu.RUnlock()

	backend := config.Backend
	if backend == "" {
		backend = globalEncoderRegistry.audioDefault
	}
	factory, ok := globalEncoderRegistry.audio[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, backend)
	}
	return factory(config)
}

// AudioEncoderBackends returns the registered audio encoder backend names.
func AudioEncoderBackends() []string {
	globalEncoderRegistry.mu.RLock()
	defer globalEncoderRegistry.mu.RUnlock()

	result := make([]string, 0, len(globalEncoderRegistry.audio))
	for name := range globalEncoderRegistry.audio {
		result = append(result, name)
	}
	return result
}
