package avcodec

import (
	"strings"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// LocalTrack implements pion's webrtc.TrackLocal interface. It bridges an
// encoder's packet output to WebRTC: packets produced by an AudioEncoder are
// packetized and written to every bound peer connection.
type LocalTrack struct {
	id       string
	streamID string
	codec    webrtc.RTPCodecCapability
	kind     webrtc.RTPCodecType

	packetizer *RTPPacketizer

	bindMu   sync.RWMutex
	bindings []webrtc.TrackLocalContext
}

// NewLocalTrack creates a LocalTrack for the given codec capability. The
// packetizer may be nil if the caller only uses WriteRTP directly.
func NewLocalTrack(codec webrtc.RTPCodecCapability, id, streamID string, packetizer *RTPPacketizer) *LocalTrack {
	kind := webrtc.RTPCodecTypeVideo
	if strings.HasPrefix(codec.MimeType, "audio") {
		kind = webrtc.RTPCodecTypeAudio
	}
	return &LocalTrack{
		id:         id,
		streamID:   streamID,
		codec:      codec,
		kind:       kind,
		packetizer: packetizer,
	}
}

// ID implements webrtc.TrackLocal.
func (t *LocalTrack) ID() string { return t.id }

// StreamID implements webrtc.TrackLocal.
func (t *LocalTrack) StreamID() string { return t.streamID }

// RID implements webrtc.TrackLocal.
func (t *LocalTrack) RID() string { return "" }

// Kind implements webrtc.TrackLocal.
func (t *LocalTrack) Kind() webrtc.RTPCodecType { return t.kind }

// Codec returns the codec capability.
func (t *LocalTrack) Codec() webrtc.RTPCodecCapability {
	return t.codec
}

// Bind implements webrtc.TrackLocal. The negotiated payload type and SSRC
// are pushed into the packetizer when one is attached.
func (t *LocalTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	t.bindings = append(t.bindings, ctx)

	// Find matching codec from negotiated parameters
	for _, p := range ctx.CodecParameters() {
		if p.MimeType == t.codec.MimeType {
			if t.packetizer != nil {
				t.packetizer.SetPayloadType(uint8(p.PayloadType))
				t.packetizer.SetSSRC(uint32(ctx.SSRC()))
			}
			return p, nil
		}
	}

	// Fallback: return our codec with default payload type
	return webrtc.RTPCodecParameters{
		RTPCodecCapability: t.codec,
	}, nil
}

// Unbind implements webrtc.TrackLocal.
func (t *LocalTrack) Unbind(ctx webrtc.TrackLocalContext) error {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	for i, b := range t.bindings {
		if b.ID() == ctx.ID() {
			t.bindings = append(t.bindings[:i], t.bindings[i+1:]...)
			break
		}
	}
	return nil
}

// WritePacket packetizes one encoded packet and writes the resulting RTP
// packets to all bound contexts. Requires a packetizer.
func (t *LocalTrack) WritePacket(pkt *Packet) error {
	if t.packetizer == nil || pkt == nil || len(pkt.Data) == 0 {
		return nil
	}
	packets, err := t.packetizer.Packetize(pkt)
	if err != nil {
		return err
	}
	for _, p := range packets {
		if err := t.WriteRTP(p); err != nil {
			return err
		}
	}
	return nil
}

// WriteRTP writes an RTP packet to all bound contexts.
func (t *LocalTrack) WriteRTP(p *rtp.Packet) error {
	t.bindMu.RLock()
	defer t.bindMu.RUnlock()

	for _, b := range t.bindings {
		if _, err := b.WriteStream().WriteRTP(&p.Header, p.Payload); err != nil {
			return err
		}
	}
	return nil
}

// Verify LocalTrack implements webrtc.TrackLocal
var _ webrtc.TrackLocal = (*LocalTrack)(nil)
