package avcodec

import (
	"math"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// Re-export pion/rtp types for convenience
type (
	// RTPPacket is an alias to pion's rtp.Packet
	RTPPacket = rtp.Packet

	// RTPHeader is an alias to pion's rtp.Header
	RTPHeader = rtp.Header
)

// DefaultMTU is the default MTU for RTP packets (UDP safe).
const DefaultMTU = 1200

// rtpHeaderSize is the fixed RTP header size without extensions or CSRCs.
const rtpHeaderSize = 12

// RTPPacketizer segments encoded packets into RTP packets.
type RTPPacketizer struct {
	ssrc        uint32
	payloadType uint8
	clockRate   int
	mtu         int
	sequencer   rtp.Sequencer
	payloader   rtp.Payloader
	mu          sync.Mutex
}

// NewRTPPacketizer creates a packetizer that splits encoded packets with the
// given payloader. The clock rate converts packet timestamps in seconds to
// RTP timestamp units.
func NewRTPPacketizer(ssrc uint32, pt uint8, clockRate, mtu int, payloader rtp.Payloader) *RTPPacketizer {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	return &RTPPacketizer{
		ssrc:        ssrc,
		payloadType: pt,
		clockRate:   clockRate,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
		payloader:   payloader,
	}
}

// NewOpusRTPPacketizer creates a packetizer for Opus audio. The clock rate
// for Opus over RTP is always 48000 regardless of the coded sample rate.
func NewOpusRTPPacketizer(ssrc uint32, pt uint8, mtu int) *RTPPacketizer {
	return NewRTPPacketizer(ssrc, pt, 48000, mtu, &codecs.OpusPayloader{})
}

// Packetize converts an encoded packet to RTP packets. The marker bit is set
// on the last packet of the frame.
func (p *RTPPacketizer) Packetize(pkt *Packet) ([]*RTPPacket, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pkt == nil || len(pkt.Data) == 0 {
		return nil, nil
	}

	payloads := p.payloader.Payload(uint16(p.mtu-rtpHeaderSize), pkt.Data)
	if len(payloads) == 0 {
		return nil, nil
	}

	ts := rtpTimestamp(pkt.PTS, p.clockRate)
	packets := make([]*RTPPacket, len(payloads))
	for i, payload := range payloads {
		packets[i] = &RTPPacket{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      ts,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}
	return packets, nil
}

// PacketizeToBytes converts an encoded packet to raw RTP packet bytes.
func (p *RTPPacketizer) PacketizeToBytes(pkt *Packet) ([][]byte, error) {
	packets, err := p.Packetize(pkt)
	if err != nil {
		return nil, err
	}
	result := make([][]byte, len(packets))
	for i, rp := range packets {
		b, err := rp.Marshal()
		if err != nil {
			return nil, err
		}
		result[i] = b
	}
	return result, nil
}

func (p *RTPPacketizer) SetSSRC(ssrc uint32) { p.mu.Lock(); p.ssrc = ssrc; p.mu.Unlock() }
func (p *RTPPacketizer) SSRC() uint32        { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }
func (p *RTPPacketizer) PayloadType() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payloadType
}
func (p *RTPPacketizer) SetPayloadType(pt uint8) { p.mu.Lock(); p.payloadType = pt; p.mu.Unlock() }
func (p *RTPPacketizer) MTU() int                { p.mu.Lock(); defer p.mu.Unlock(); return p.mtu }
func (p *RTPPacketizer) SetMTU(mtu int)          { p.mu.Lock(); p.mtu = mtu; p.mu.Unlock() }

// rtpTimestamp converts a timestamp in seconds to 32-bit RTP clock units,
// truncating on wraparound per RTP timestamp arithmetic.
func rtpTimestamp(seconds float64, clockRate int) uint32 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return uint32(int64(seconds * float64(clockRate)))
}
