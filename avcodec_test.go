//go:build (darwin || linux) && !noavcodec

package avcodec

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// createTestAudioFrame creates a packed S16 sine wave frame.
func createTestAudioFrame(sampleRate, channels, samplesPerChannel int, timestamp float64) *AudioFrame {
	data := make([]byte, samplesPerChannel*channels*2)

	frequency := 440.0 // A4 note
	for i := 0; i < samplesPerChannel; i++ {
		ts := timestamp + float64(i)/float64(sampleRate)
		sample := int16(math.Sin(2*math.Pi*frequency*ts) * 16000)
		for ch := 0; ch < channels; ch++ {
			idx := (i*channels + ch) * 2
			binary.LittleEndian.PutUint16(data[idx:], uint16(sample))
		}
	}

	layout := ChannelLayoutMono
	if channels == 2 {
		layout = ChannelLayoutStereo
	}
	return &AudioFrame{
		Data:              [][]byte{data},
		SamplesPerChannel: samplesPerChannel,
		Format: AudioFormat{
			SampleRate:    sampleRate,
			SampleFormat:  SampleFormatS16,
			ChannelLayout: layout,
		},
		Timestamp: timestamp,
	}
}

func TestAvailable(t *testing.T) {
	if !IsAvailable() {
		t.Skip("libmedia_avcodec not available")
	}

	version := Version()
	if version == "" {
		t.Error("Version returned empty string")
	}
	t.Logf("libavcodec version: %s", version)
}

func TestBackendRegistered(t *testing.T) {
	if !IsAvailable() {
		t.Skip("libmedia_avcodec not available")
	}

	found := false
	for _, name := range AudioEncoderBackends() {
		if name == BackendName {
			found = true
		}
	}
	if !found {
		t.Errorf("backend %q not registered", BackendName)
	}
}

func TestPCMEncoderRoundTrip(t *testing.T) {
	if !IsAvailable() {
		t.Skip("libmedia_avcodec not available")
	}
	if !HasEncoder("pcm_s16le") {
		t.Skip("pcm_s16le encoder not available")
	}

	enc, err := NewAudioEncoder(AudioEncoderConfig{
		Codec:   "pcm_s16le",
		Backend: BackendName,
		Format: AudioFormat{
			SampleRate:    48000,
			SampleFormat:  SampleFormatS16,
			ChannelLayout: ChannelLayoutStereo,
		},
	})
	if err != nil {
		t.Fatalf("NewAudioEncoder() error = %v", err)
	}
	defer enc.Close()

	format := enc.Format()
	if format.SampleRate != 48000 || format.SampleFormat != SampleFormatS16 {
		t.Fatalf("negotiated format = %+v", format)
	}

	// Raw PCM encodes every submitted frame immediately.
	samples := 1024
	frame := createTestAudioFrame(48000, 2, samples, 0)
	ready, err := enc.Encode(frame)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !ready {
		t.Fatal("Encode() = false for raw PCM input")
	}
	pkt := enc.Packet()
	if pkt == nil || len(pkt.Data) != samples*2*2 {
		t.Fatalf("packet size = %d, want %d", len(pkt.Data), samples*2*2)
	}

	// Decode the packet back and compare count and format.
	if HasDecoder("pcm_s16le") {
		dec, err := NewAudioDecoder(AudioDecoderConfig{Codec: "pcm_s16le", Backend: BackendName})
		if err != nil {
			t.Fatalf("NewAudioDecoder() error = %v", err)
		}
		defer dec.Close()

		ready, err := dec.Decode(pkt.Clone())
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if ready {
			decoded := dec.Frame()
			if decoded == nil {
				t.Fatal("Frame() = nil after ready Decode")
			}
			if decoded.SamplesPerChannel != samples {
				t.Errorf("decoded samples = %d, want %d", decoded.SamplesPerChannel, samples)
			}
			if decoded.Format.SampleFormat != SampleFormatS16 {
				t.Errorf("decoded sample format = %v, want S16", decoded.Format.SampleFormat)
			}
		}
	}

	// Drain terminates.
	for i := 0; i < 16; i++ {
		ready, err = enc.Encode(nil)
		if errors.Is(err, ErrDrained) {
			return
		}
		if err != nil {
			t.Fatalf("flush Encode() error = %v", err)
		}
		_ = ready
	}
	t.Error("encoder never reported ErrDrained while flushing")
}

func TestAudioDecoderOpen(t *testing.T) {
	if !IsAvailable() {
		t.Skip("libmedia_avcodec not available")
	}
	if !HasDecoder("mp3") {
		t.Skip("mp3 decoder not available")
	}

	dec, err := NewAudioDecoder(AudioDecoderConfig{Codec: "mp3", Backend: BackendName})
	if err != nil {
		t.Fatalf("NewAudioDecoder() error = %v", err)
	}
	defer dec.Close()

	// Immediate flush on a fresh decoder drains without frames.
	for i := 0; i < 16; i++ {
		ready, err := dec.Decode(FlushPacket())
		if errors.Is(err, ErrDrained) {
			return
		}
		if err != nil {
			t.Fatalf("Decode(flush) error = %v", err)
		}
		if ready {
			dec.Frame()
		}
	}
	t.Error("decoder never reported ErrDrained while flushing")
}

func TestUnknownCodecName(t *testing.T) {
	if !IsAvailable() {
		t.Skip("libmedia_avcodec not available")
	}

	if _, err := NewVideoDecoder(VideoDecoderConfig{Codec: "definitely-not-a-codec", Backend: BackendName}); !errors.Is(err, ErrCodecNotSupported) {
		t.Errorf("NewVideoDecoder() error = %v, want ErrCodecNotSupported", err)
	}
	if _, err := NewAudioEncoder(AudioEncoderConfig{Codec: "definitely-not-a-codec", Backend: BackendName}); !errors.Is(err, ErrCodecNotSupported) {
		t.Errorf("NewAudioEncoder() error = %v, want ErrCodecNotSupported", err)
	}
}
