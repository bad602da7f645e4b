//go:build (darwin || linux) && !noavcodec

package avcodec

import (
	"errors"
	"testing"
	"unsafe"
)

func swapEncoderStubs(t *testing.T) {
	t.Helper()
	origSend := mediaAVEncoderSendFrame
	origRecv := mediaAVEncoderReceivePacket
	origDestroy := mediaAVEncoderDestroy
	origStrErr := mediaAVStrError
	t.Cleanup(func() {
		mediaAVEncoderSendFrame = origSend
		mediaAVEncoderReceivePacket = origRecv
		mediaAVEncoderDestroy = origDestroy
		mediaAVStrError = origStrErr
	})
	mediaAVEncoderDestroy = func(uint64) {}
	mediaAVStrError = nil
}

func newStubAudioEncoder(format AudioFormat, frameSize int) *AVAudioEncoder {
	return &AVAudioEncoder{
		config:    AudioEncoderConfig{Codec: "aac"},
		handle:    1,
		format:    format,
		frameSize: frameSize,
		timeBase:  1.0 / float64(format.SampleRate),
		buffer:    make([]byte, MinEncodeBufferSize),
		pktInfo:   &avPacketInfo{},
		planes:    &[8]uintptr{},
		linesizes: &[8]int32{},
	}
}

func TestNegotiateAudioFormat(t *testing.T) {
	tests := []struct {
		name      string
		requested AudioFormat
		caps      avEncoderCaps
		want      AudioFormat
	}{
		{
			name: "encoder advertised values fill unset fields",
			caps: avEncoderCaps{SampleRate: 48000, SampleFmt: avSampleFmtFLTP, ChannelLayout: avChLayoutStereo},
			want: AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatF32P, ChannelLayout: ChannelLayoutStereo},
		},
		{
			name: "defaults when nothing is advertised",
			caps: avEncoderCaps{SampleFmt: avSampleFmtNone},
			want: AudioFormat{SampleRate: DefaultSampleRate, SampleFormat: DefaultSampleFormat, ChannelLayout: DefaultChannelLayout},
		},
		{
			name:      "requested fields are never overridden",
			requested: AudioFormat{SampleRate: 16000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutMono},
			caps:      avEncoderCaps{SampleRate: 48000, SampleFmt: avSampleFmtFLTP, ChannelLayout: avChLayoutStereo},
			want:      AudioFormat{SampleRate: 16000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutMono},
		},
		{
			name:      "partial request negotiates the rest",
			requested: AudioFormat{SampleRate: 48000},
			caps:      avEncoderCaps{SampleRate: 24000, SampleFmt: avSampleFmtS16, ChannelLayout: avChLayoutMono},
			want:      AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutMono},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := tt.caps
			if got := negotiateAudioFormat("test", tt.requested, &caps); got != tt.want {
				t.Errorf("negotiateAudioFormat() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeBufferSize(t *testing.T) {
	s16Stereo := AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutStereo}
	fltp51 := AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatF32P, ChannelLayout: ChannelLayout5Point1}

	tests := []struct {
		name          string
		frameSize     int
		bitsPerCoded  int
		format        AudioFormat
		wantFrameSize int
		wantBuffer    int
	}{
		{
			name:      "small frame floored to min buffer",
			frameSize: 1024, format: s16Stereo,
			wantFrameSize: 1024,
			wantBuffer:    MinEncodeBufferSize, // 1024*2*2*2+200 = 8392 < 16384
		},
		{
			name:      "large frame sized from format",
			frameSize: 1024, format: fltp51,
			wantFrameSize: 1024,
			wantBuffer:    1024*4*6*2 + 200,
		},
		{
			name:      "pcm codec gets a working frame",
			frameSize: 0, bitsPerCoded: 16, format: s16Stereo,
			wantFrameSize: DefaultEncoderFlushFrameSize,
			wantBuffer:    DefaultEncoderFlushFrameSize*2*2*2 + 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frameSize, buffer := encodeBufferSize(tt.frameSize, tt.bitsPerCoded, tt.format)
			if frameSize != tt.wantFrameSize || buffer != tt.wantBuffer {
				t.Errorf("encodeBufferSize() = (%d, %d), want (%d, %d)",
					frameSize, buffer, tt.wantFrameSize, tt.wantBuffer)
			}
		})
	}
}

func TestAVAudioEncoder_EncodePacketReady(t *testing.T) {
	swapEncoderStubs(t)

	format := AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutStereo}
	e := newStubAudioEncoder(format, 1024)

	var sentPTS int64
	var sentSamples int32
	mediaAVEncoderSendFrame = func(h uint64, planes, linesizes uintptr, nbSamples int32, pts int64, flush int32) int32 {
		sentPTS = pts
		sentSamples = nbSamples
		return 0
	}
	mediaAVEncoderReceivePacket = func(h uint64, out, buf uintptr, bufCap int32) int32 {
		info := (*avPacketInfo)(unsafe.Pointer(out))
		*info = avPacketInfo{PTS: 24000, DTS: 24000, Duration: 1024, Flags: avPktFlagKey}
		payload := unsafe.Slice((*byte)(unsafe.Pointer(buf)), bufCap)
		copy(payload, []byte{9, 8, 7})
		return 3
	}

	frame := &AudioFrame{
		Data:              [][]byte{make([]byte, 1024*2*2)},
		SamplesPerChannel: 1024,
		Format:            format,
		Timestamp:         0.5,
	}
	ready, err := e.Encode(frame)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !ready {
		t.Fatal("Encode() = false, want packet ready")
	}
	if sentPTS != 24000 {
		t.Errorf("submitted pts = %d, want 24000 (0.5s at 48kHz)", sentPTS)
	}
	if sentSamples != 1024 {
		t.Errorf("submitted samples = %d, want 1024", sentSamples)
	}

	pkt := e.Packet()
	if pkt == nil {
		t.Fatal("Packet() = nil after ready Encode")
	}
	if string(pkt.Data) != string([]byte{9, 8, 7}) {
		t.Errorf("packet data = %v", pkt.Data)
	}
	if pkt.PTS != 0.5 {
		t.Errorf("packet PTS = %v, want 0.5", pkt.PTS)
	}
	if !pkt.KeyFrame {
		t.Error("keyframe flag not carried over")
	}

	stats := e.Stats()
	if stats.FramesEncoded != 1 || stats.PacketsEncoded != 1 || stats.BytesEncoded != 3 || stats.SamplesEncoded != 1024 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAVAudioEncoder_NeedMoreInput(t *testing.T) {
	swapEncoderStubs(t)

	format := AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutStereo}
	e := newStubAudioEncoder(format, 1024)

	mediaAVEncoderSendFrame = func(uint64, uintptr, uintptr, int32, int64, int32) int32 { return 0 }
	mediaAVEncoderReceivePacket = func(uint64, uintptr, uintptr, int32) int32 { return avErrAgain }

	frame := &AudioFrame{
		Data:              [][]byte{make([]byte, 1024*2*2)},
		SamplesPerChannel: 1024,
		Format:            format,
	}
	ready, err := e.Encode(frame)
	if ready || err != nil {
		t.Errorf("Encode() = (%v, %v), want (false, nil)", ready, err)
	}
	if e.Packet() != nil {
		t.Error("Packet() != nil while the encoder is buffering")
	}
}

func TestAVAudioEncoder_FormatMismatch(t *testing.T) {
	swapEncoderStubs(t)

	format := AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutStereo}
	e := newStubAudioEncoder(format, 1024)
	mediaAVEncoderSendFrame = func(uint64, uintptr, uintptr, int32, int64, int32) int32 {
		t.Fatal("mismatched frame reached the native encoder")
		return 0
	}

	frame := &AudioFrame{
		Data:              [][]byte{make([]byte, 1024)},
		SamplesPerChannel: 1024,
		Format:            AudioFormat{SampleRate: 44100, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutStereo},
	}
	ready, err := e.Encode(frame)
	if ready || !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Encode() = (%v, %v), want ErrFormatMismatch", ready, err)
	}
}

func TestAVAudioEncoder_Drain(t *testing.T) {
	swapEncoderStubs(t)

	format := AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutStereo}
	e := newStubAudioEncoder(format, 1024)

	var flushed bool
	mediaAVEncoderSendFrame = func(h uint64, planes, linesizes uintptr, nbSamples int32, pts int64, flush int32) int32 {
		if flush != 0 {
			flushed = true
		}
		return 0
	}
	mediaAVEncoderReceivePacket = func(uint64, uintptr, uintptr, int32) int32 { return avErrEOF }

	ready, err := e.Encode(nil)
	if !flushed {
		t.Error("nil frame did not submit the flush signal")
	}
	if ready || !errors.Is(err, ErrDrained) {
		t.Errorf("Encode(nil) = (%v, %v), want (false, ErrDrained)", ready, err)
	}
}

func TestAVAudioEncoder_DrainYieldsBufferedPackets(t *testing.T) {
	swapEncoderStubs(t)

	format := AudioFormat{SampleRate: 48000, SampleFormat: SampleFormatS16, ChannelLayout: ChannelLayoutStereo}
	e := newStubAudioEncoder(format, 1024)

	// Flushing returns one buffered packet before reporting EOF.
	calls := 0
	mediaAVEncoderSendFrame = func(uint64, uintptr, uintptr, int32, int64, int32) int32 { return 0 }
	mediaAVEncoderReceivePacket = func(h uint64, out, buf uintptr, bufCap int32) int32 {
		calls++
		if calls == 1 {
			*(*avPacketInfo)(unsafe.Pointer(out)) = avPacketInfo{PTS: 1024}
			*(*byte)(unsafe.Pointer(buf)) = 1
			return 1
		}
		return avErrEOF
	}

	ready, err := e.Encode(nil)
	if !ready || err != nil {
		t.Fatalf("first flush Encode() = (%v, %v), want buffered packet", ready, err)
	}
	if e.Packet() == nil {
		t.Fatal("Packet() = nil for the buffered packet")
	}

	ready, err = e.Encode(nil)
	if ready || !errors.Is(err, ErrDrained) {
		t.Errorf("second flush Encode() = (%v, %v), want ErrDrained", ready, err)
	}
	if e.Packet() != nil {
		t.Error("Packet() not cleared after drain completed")
	}
}
