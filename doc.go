// Package avcodec adapts libavcodec's send/receive codec protocol to Go,
// backed by a native wrapper (libmedia_avcodec).
//
// Key pieces include:
//   - Video/Audio decoders and an audio encoder with a uniform
//     submit-then-retrieve driver contract
//   - Zero-copy frame views over the decoder's reference-counted storage
//   - Pixel/sample format, channel layout, and color metadata translation
//   - RTP packetization and a webrtc.TrackLocal bridge for encoded output
//
// # Driver Contract
//
// Decode and Encode each submit one unit of input and attempt one retrieval:
//
//	ready, err := dec.Decode(pkt)
//
// (true, nil) means output is available from Frame or Packet. (false, nil)
// means the codec wants more input. (false, ErrDrained) means the codec is
// fully flushed after an end-of-stream submission. Any other error is a
// hard failure.
//
// Submitting a nil input or a flush packet switches the codec into draining
// mode; keep calling with nil until ErrDrained to collect buffered output.
//
// # Native Library
//
// Bindings load libmedia_avcodec built against FFmpeg's libavcodec.
// Set MEDIA_AVCODEC_LIB_PATH or MEDIA_SDK_LIB_PATH to the directory
// containing the library. The package uses purego (CGO_ENABLED=0).
//
// # Build Tags
//
// The noavcodec tag disables the native backend; the pure-Go types and
// translators remain usable.
//
// Codec availability depends on the libavcodec build the wrapper links
// against; query it with HasDecoder and HasEncoder.
package avcodec
