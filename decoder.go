package avcodec

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Common errors
var (
	// ErrDrained is returned once a codec has been flushed and every pending
	// frame or packet has been retrieved. It is terminal: no further output
	// will ever be produced. Distinct from the non-error "no output yet"
	// condition, which is reported as (false, nil).
	ErrDrained = errors.New("codec fully drained")

	ErrBackendNotFound   = errors.New("backend not available")
	ErrCodecNotSupported = errors.New("codec not supported")
	ErrFormatMismatch    = errors.New("frame format does not match negotiated format")
)

// DecoderStats provides decoding metrics.
type DecoderStats struct {
	FramesDecoded uint64 // Total frames retrieved
	BytesDecoded  uint64 // Total compressed bytes submitted
	FlushedFrames uint64 // Frames retrieved after the end-of-stream signal
}

// VideoDecoderConfig configures a video decoder.
type VideoDecoderConfig struct {
	Codec   string // Codec identifier (e.g. "h264", "hevc", "mpeg2video")
	Backend string // Backend to use ("" = default)
	Threads int    // Decoder threads (0 = auto)
}

// AudioDecoderConfig configures an audio decoder.
type AudioDecoderConfig struct {
	Codec   string // Codec identifier (e.g. "aac", "mp3", "flac")
	Backend string // Backend to use ("" = default)
}

// VideoDecoder drives a compressed video stream through an external decoder.
//
// Decode submits exactly one packet and attempts exactly one retrieval:
//   - (true, nil): a frame is ready via Frame().
//   - (false, nil): the decoder needs more input; not an error.
//   - (false, ErrDrained): the stream is finished; stop polling.
//   - (false, err): hard failure; the call is not retried internally.
//
// The frame returned by Frame() shares storage with the decoder and is
// reused by the next Decode call; Retain or Clone it to keep it longer.
type VideoDecoder interface {
	io.Closer

	Decode(pkt *Packet) (bool, error)

	// Frame converts the most recently retrieved external frame. It returns
	// nil while dimensions or format are not yet resolvable.
	Frame() *VideoFrame

	Stats() DecoderStats
}

// AudioDecoder drives a compressed audio stream through an external decoder.
// The Decode contract matches VideoDecoder.
type AudioDecoder interface {
	io.Closer

	Decode(pkt *Packet) (bool, error)

	// Frame converts the most recently retrieved external frame. It returns
	// nil while the sample format is not yet resolvable.
	Frame() *AudioFrame

	Stats() DecoderStats
}

// --- Registry ---

type videoDecoderFactory func(VideoDecoderConfig) (VideoDecoder, error)
type audioDecoderFactory func(AudioDecoderConfig) (AudioDecoder, error)

type decoderRegistry struct {
	mu sync.RWMutex

	video map[string]videoDecoderFactory
	audio map[string]audioDecoderFactory

	videoDefault string
	audioDefault string
}

var globalDecoderRegistry = &decoderRegistry{
	video: make(map[string]videoDecoderFactory),
	audio: make(map[string]audioDecoderFactory),
}

// RegisterVideoDecoder registers a video decoder factory under a backend
// name. The first registered backend becomes the default.
func RegisterVideoDecoder(backend string, factory func(VideoDecoderConfig) (VideoDecoder, error)) {
	globalDecoderRegistry.mu.Lock()
	defer globalDecoderRegistry.mu.Unlock()

	globalDecoderRegistry.video[backend] = factory
	if globalDecoderRegistry.videoDefault == "" {
		globalDecoderRegistry.videoDefault = backend
	}
}

// RegisterAudioDecoder registers an audio decoder factory under a backend
// name. The first registered backend becomes the default.
func RegisterAudioDecoder(backend string, factory func(AudioDecoderConfig) (AudioDecoder, error)) {
	globalDecoderRegistry.mu.Lock()
	defer globalDecoderRegistry.mu.Unlock()

	globalDecoderRegistry.audio[backend] = factory
	if globalDecoderRegistry.audioDefault == "" {
		globalDecoderRegistry.audioDefault = backend
	}
}

// NewVideoDecoder creates a video decoder using the configured backend.
func NewVideoDecoder(config VideoDecoderConfig) (VideoDecoder, error) {
	globalDecoderRegistry.mu.RLock()
	defer globalDecoderRegistry.mu.RUnlock()

	backend := config.Backend
	if backend == "" {
		backend = globalDecoderRegistry.videoDefault
	}
	factory, ok := globalDecoderRegistry.video[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, backend)
	}
	return factory(config)
}

// NewAudioDecoder creates an audio decoder using the configured backend.
func NewAudioDecoder(config AudioDecoderConfig) (AudioDecoder, error) {
	globalDecoderRegistry.mu.RLock()
	defer globalDecoderRegistry.mu.RUnlock()

	backend := config.Backend
	if backend == "" {
		backend = globalDecoderRegistry.audioDefault
	}
	factory, ok := globalDecoderRegistry.audio[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, backend)
	}
	return factory(config)
}

// VideoDecoderBackends returns the registered video decoder backend names.
func VideoDecoderBackends() []string {
	globalDecoderRegistry.mu.RLock()
	defer globalDecoderRegistry.mu.RUnlock()

	result := make([]string, 0, len(globalDecoderRegistry.video))
	for name := range globalDecoderRegistry.video {
		result = append(result, name)
	}
	return result
}

// AudioDecoderBackends returns the registered audio decoder backend names.
func AudioDecoderBackends() []string {
	globalDecoderRegistry.mu.RLock()
	defer globalDecoderRegistry.mu.RUnlock()

	result := make([]string, 0, len(globalDecoderRegistry.audio))
	for name := range globalDecoderRegistry.audio {
		result = append(result, name)
	}
	return result
}
