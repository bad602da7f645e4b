//go:build (darwin || linux) && !noavcodec

// libavcodec bindings via libmedia_avcodec using purego.
//
// libmedia_avcodec is a thin primitive-only wrapper around libavcodec's
// send/receive API. Status codes are passed through unchanged: 0 on success,
// AVERROR(EAGAIN) when more input is needed, AVERROR_EOF once fully drained,
// other negative values on hard errors. Enumeration values in the out
// structs mirror the libavcodec headers.

package avcodec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	mediaAVOnce    sync.Once
	mediaAVHandle  uintptr
	mediaAVInitErr error
	mediaAVLoaded  bool
)

// libmedia_avcodec function pointers
var (
	mediaAVDecoderCreate       func(name string, mediaType, threads int32) uint64
	mediaAVDecoderSendPacket   func(decoder uint64, data uintptr, size int32, ptsMs int64, flush int32) int32
	mediaAVDecoderReceiveFrame func(decoder uint64, out uintptr) int32
	mediaAVDecoderContext      func(decoder uint64, out uintptr) int32
	mediaAVDecoderDestroy      func(decoder uint64)

	mediaAVFrameClone func(decoder uint64) uint64
	mediaAVFrameFree  func(frame uint64)

	mediaAVEncoderQuery         func(name string, out uintptr) int32
	mediaAVEncoderCreate        func(name string, sampleRate, sampleFmt int32, channelLayout uint64, bitRate int64) uint64
	mediaAVEncoderFrameSize     func(encoder uint64) int32
	mediaAVEncoderSendFrame     func(encoder uint64, planes, linesizes uintptr, nbSamples int32, pts int64, flush int32) int32
	mediaAVEncoderReceivePacket func(encoder uint64, out uintptr, buf uintptr, bufCap int32) int32
	mediaAVEncoderDestroy       func(encoder uint64)

	mediaAVFindDecoder func(name string) int32
	mediaAVFindEncoder func(name string) int32
	mediaAVStrError    func(code int32) uintptr
	mediaAVVersion     func() uintptr
)

// AVERROR status codes passed through by the wrapper.
const (
	avErrAgain int32 = -11        // AVERROR(EAGAIN): need more input
	avErrEOF   int32 = -541478725 // AVERROR_EOF: fully drained
)

// Media types (AVMediaType).
const (
	avMediaTypeVideo int32 = 0
	avMediaTypeAudio int32 = 1
)

// avFrameInfo describes the decoder's current frame. Heap-allocate it for
// purego: stack output parameters can fail on arm64 when the GC moves the
// stack during the native call.
type avFrameInfo struct {
	Planes        [8]uintptr // plane base pointers (extended_data)
	Linesize      [8]int32   // bytes per row / per plane
	PTS           int64
	BestEffortTS  int64 // best-effort timestamp in stream time base (ms)
	ChannelLayout uint64
	Format        int32 // AVPixelFormat or AVSampleFormat
	Width         int32
	Height        int32
	SampleRate    int32
	NbSamples     int32
	Channels      int32
	SARNum        int32 // frame sample aspect ratio
	SARDen        int32
	ColorSpace    int32
	ColorRange    int32
}

// avContextInfo is a snapshot of the codec context's negotiated parameters.
type avContextInfo struct {
	ChannelLayout uint64
	Width         int32
	Height        int32
	PixFmt        int32 // coded pixel format
	ColorSpace    int32
	ColorRange    int32
	SARNum        int32
	SARDen        int32
	TimeBaseNum   int32
	TimeBaseDen   int32
	SampleRate    int32
	SampleFmt     int32
	FrameSize     int32
	Channels      int32
}

// avEncoderCaps reports an encoder's first advertised value for each
// negotiable parameter; zero (or -1 for SampleFmt) when none is advertised.
type avEncoderCaps struct {
	ChannelLayout      uint64
	SampleRate         int32
	SampleFmt          int32
	BitsPerCodedSample int32 // nonzero for raw PCM codecs with no frame size
	reserved           int32
}

// avPacketInfo describes an encoded packet written into the caller's buffer.
type avPacketInfo struct {
	PTS      int64 // in codec context time base
	DTS      int64
	Duration int64
	Flags    int32 // bit 0: keyframe
	reserved int32
}

const avPktFlagKey int32 = 0x1

func loadMediaAV() error {
	mediaAVOnce.Do(func() {
		mediaAVInitErr = loadMediaAVLib()
		if mediaAVInitErr == nil {
			mediaAVLoaded = true
		}
	})
	return mediaAVInitErr
}

func loadMediaAVLib() error {
	paths := getMediaAVLibPaths()

	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			mediaAVHandle = handle
			if err := loadMediaAVSymbols(); err != nil {
				purego.Dlclose(handle)
				lastErr = err
				continue
			}
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to load libmedia_avcodec: %w", lastErr)
	}
	return errors.New("libmedia_avcodec not found in any standard location")
}

func getMediaAVLibPaths() []string {
	var paths []string

	libName := "libmedia_avcodec.so"
	if runtime.GOOS == "darwin" {
		libName = "libmedia_avcodec.dylib"
	}

	// Environment variable overrides (highest priority)
	if envPath := os.Getenv("MEDIA_AVCODEC_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv("MEDIA_SDK_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	// Search relative to executable location
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	// Search relative to working directory
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(wd, "build", libName),
			filepath.Join(wd, "build", "ffi", libName),
			filepath.Join(wd, "..", "build", libName),
			filepath.Join(wd, "..", "..", "build", libName),
		)
	}

	// Search relative to module root (find go.mod from cwd)
	if moduleRoot := findModuleRoot(); moduleRoot != "" {
		paths = append(paths,
			filepath.Join(moduleRoot, "build", libName),
			filepath.Join(moduleRoot, "build", "ffi", libName),
		)
	}

	// System paths (lowest priority)
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/opt/homebrew/lib/"+libName,
		)
	case "linux":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/usr/lib/"+libName,
		)
	}

	return paths
}

func loadMediaAVSymbols() error {
	purego.RegisterLibFunc(&mediaAVDecoderCreate, mediaAVHandle, "media_avcodec_decoder_create")
	purego.RegisterLibFunc(&mediaAVDecoderSendPacket, mediaAVHandle, "media_avcodec_decoder_send_packet")
	purego.RegisterLibFunc(&mediaAVDecoderReceiveFrame, mediaAVHandle, "media_avcodec_decoder_receive_frame")
	purego.RegisterLibFunc(&mediaAVDecoderContext, mediaAVHandle, "media_avcodec_decoder_context")
	purego.RegisterLibFunc(&mediaAVDecoderDestroy, mediaAVHandle, "media_avcodec_decoder_destroy")

	purego.RegisterLibFunc(&mediaAVFrameClone, mediaAVHandle, "media_avcodec_frame_clone")
	purego.RegisterLibFunc(&mediaAVFrameFree, mediaAVHandle, "media_avcodec_frame_free")

	purego.RegisterLibFunc(&mediaAVEncoderQuery, mediaAVHandle, "media_avcodec_encoder_query")
	purego.RegisterLibFunc(&mediaAVEncoderCreate, mediaAVHandle, "media_avcodec_encoder_create")
	purego.RegisterLibFunc(&mediaAVEncoderFrameSize, mediaAVHandle, "media_avcodec_encoder_frame_size")
	purego.RegisterLibFunc(&mediaAVEncoderSendFrame, mediaAVHandle, "media_avcodec_encoder_send_frame")
	purego.RegisterLibFunc(&mediaAVEncoderReceivePacket, mediaAVHandle, "media_avcodec_encoder_receive_packet")
	purego.RegisterLibFunc(&mediaAVEncoderDestroy, mediaAVHandle, "media_avcodec_encoder_destroy")

	purego.RegisterLibFunc(&mediaAVFindDecoder, mediaAVHandle, "media_avcodec_find_decoder")
	purego.RegisterLibFunc(&mediaAVFindEncoder, mediaAVHandle, "media_avcodec_find_encoder")
	purego.RegisterLibFunc(&mediaAVStrError, mediaAVHandle, "media_avcodec_strerror")
	purego.RegisterLibFunc(&mediaAVVersion, mediaAVHandle, "media_avcodec_version")

	return nil
}

// IsAvailable checks if libmedia_avcodec is available.
func IsAvailable() bool {
	if err := loadMediaAV(); err != nil {
		return false
	}
	return mediaAVLoaded
}

// Version returns the underlying libavcodec version string.
func Version() string {
	if !IsAvailable() {
		return ""
	}
	return goStringFromPtr(mediaAVVersion())
}

// HasDecoder checks whether a decoder with the given codec name exists.
func HasDecoder(name string) bool {
	return IsAvailable() && mediaAVFindDecoder(name) != 0
}

// HasEncoder checks whether an encoder with the given codec name exists.
func HasEncoder(name string) bool {
	return IsAvailable() && mediaAVFindEncoder(name) != 0
}

// avStrError returns the library's diagnostic string for an AVERROR code.
func avStrError(code int32) string {
	if mediaAVStrError == nil {
		return fmt.Sprintf("averror %d", code)
	}
	s := goStringFromPtr(mediaAVStrError(code))
	if s == "" {
		return fmt.Sprintf("averror %d", code)
	}
	return s
}

// BackendName is the registry key of the libavcodec backend.
const BackendName = "avcodec"

func init() {
	if err := loadMediaAV(); err != nil {
		return
	}
	RegisterVideoDecoder(BackendName, func(config VideoDecoderConfig) (VideoDecoder, error) {
		return NewAVVideoDecoder(config)
	})
	RegisterAudioDecoder(BackendName, func(config AudioDecoderConfig) (AudioDecoder, error) {
		return NewAVAudioDecoder(config)
	})
	RegisterAudioEncoder(BackendName, func(config AudioEncoderConfig) (AudioEncoder, error) {
		return NewAVAudioEncoder(config)
	})
}
