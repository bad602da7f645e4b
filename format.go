// Translation between libavcodec enumeration values and internal formats.
//
// The numeric constants mirror the libavcodec headers (pixfmt.h, samplefmt.h,
// channel_layout.h); the native wrapper passes them through untouched.
package avcodec

// Pixel formats (AVPixelFormat).
const (
	avPixFmtNone     int32 = -1
	avPixFmtYUV420P  int32 = 0
	avPixFmtYUYV422  int32 = 1
	avPixFmtRGB24    int32 = 2
	avPixFmtBGR24    int32 = 3
	avPixFmtYUV422P  int32 = 4
	avPixFmtYUV444P  int32 = 5
	avPixFmtGray8    int32 = 8
	avPixFmtPal8     int32 = 11
	avPixFmtYUVJ420P int32 = 12
	avPixFmtYUVJ422P int32 = 13
	avPixFmtYUVJ444P int32 = 14
	avPixFmtUYVY422  int32 = 15
	avPixFmtNV12     int32 = 23
	avPixFmtNV21     int32 = 24
	avPixFmtARGB     int32 = 25
	avPixFmtRGBA     int32 = 26
	avPixFmtABGR     int32 = 27
	avPixFmtBGRA     int32 = 28
	avPixFmtYUV440P  int32 = 31
	avPixFmtYUVJ440P int32 = 32
	avPixFmtGBRP     int32 = 41
	avPixFmtXYZ12LE  int32 = 57
)

// Sample formats (AVSampleFormat).
const (
	avSampleFmtNone int32 = -1
	avSampleFmtU8   int32 = 0
	avSampleFmtS16  int32 = 1
	avSampleFmtS32  int32 = 2
	avSampleFmtFLT  int32 = 3
	avSampleFmtDBL  int32 = 4
	avSampleFmtU8P  int32 = 5
	avSampleFmtS16P int32 = 6
	avSampleFmtS32P int32 = 7
	avSampleFmtFLTP int32 = 8
	avSampleFmtDBLP int32 = 9
)

// Channel layout masks (AV_CH_LAYOUT_*).
const (
	avChLayoutMono     uint64 = 0x4
	avChLayoutStereo   uint64 = 0x3
	avChLayout2Point1  uint64 = 0xB
	avChLayoutSurround uint64 = 0x7
	avChLayoutQuad     uint64 = 0x33
	avChLayout5Point1  uint64 = 0x60F
	avChLayout5P1Back  uint64 = 0x3F
	avChLayout7Point1  uint64 = 0x63F
)

// Color spaces (AVColorSpace).
const (
	avColSpcRGB         int32 = 0
	avColSpcBT709       int32 = 1
	avColSpcUnspecified int32 = 2
	avColSpcFCC         int32 = 4
	avColSpcBT470BG     int32 = 5
	avColSpcSMPTE170M   int32 = 6
	avColSpcSMPTE240M   int32 = 7
	avColSpcBT2020NCL   int32 = 9
	avColSpcBT2020CL    int32 = 10
)

// Color ranges (AVColorRange).
const (
	avColRangeUnspecified int32 = 0
	avColRangeMPEG        int32 = 1 // limited / studio swing
	avColRangeJPEG        int32 = 2 // full swing
)

// pixelFormatFromAV maps an AVPixelFormat value to the internal pixel format.
// Unmappable values yield PixelFormatUnknown, never an error.
func pixelFormatFromAV(av int32) PixelFormat {
	switch av {
	case avPixFmtYUV420P, avPixFmtYUVJ420P:
		return PixelFormatI420
	case avPixFmtYUV422P, avPixFmtYUVJ422P:
		return PixelFormatI422
	case avPixFmtYUV444P, avPixFmtYUVJ444P:
		return PixelFormatI444
	case avPixFmtYUV440P, avPixFmtYUVJ440P:
		return PixelFormatI440
	case avPixFmtNV12:
		return PixelFormatNV12
	case avPixFmtNV21:
		return PixelFormatNV21
	case avPixFmtYUYV422:
		return PixelFormatYUYV
	case avPixFmtUYVY422:
		return PixelFormatUYVY
	case avPixFmtGray8:
		return PixelFormatGray8
	case avPixFmtPal8:
		return PixelFormatPal8
	case avPixFmtRGB24:
		return PixelFormatRGB24
	case avPixFmtBGR24:
		return PixelFormatBGR24
	case avPixFmtRGBA:
		return PixelFormatRGBA32
	case avPixFmtBGRA:
		return PixelFormatBGRA32
	case avPixFmtARGB:
		return PixelFormatARGB32
	case avPixFmtABGR:
		return PixelFormatABGR32
	case avPixFmtGBRP:
		return PixelFormatGBRP
	case avPixFmtXYZ12LE:
		return PixelFormatXYZ12
	default:
		return PixelFormatUnknown
	}
}

// avFromPixelFormat maps an internal pixel format back to AVPixelFormat.
// The limited-range variant is returned for formats with a YUVJ twin.
func avFromPixelFormat(p PixelFormat) int32 {
	switch p {
	case PixelFormatI420:
		return avPixFmtYUV420P
	case PixelFormatI422:
		return avPixFmtYUV422P
	case PixelFormatI444:
		return avPixFmtYUV444P
	case PixelFormatI440:
		return avPixFmtYUV440P
	case PixelFormatNV12:
		return avPixFmtNV12
	case PixelFormatNV21:
		return avPixFmtNV21
	case PixelFormatYUYV:
		return avPixFmtYUYV422
	case PixelFormatUYVY:
		return avPixFmtUYVY422
	case PixelFormatGray8:
		return avPixFmtGray8
	case PixelFormatPal8:
		return avPixFmtPal8
	case PixelFormatRGB24:
		return avPixFmtRGB24
	case PixelFormatBGR24:
		return avPixFmtBGR24
	case PixelFormatRGBA32:
		return avPixFmtRGBA
	case PixelFormatBGRA32:
		return avPixFmtBGRA
	case PixelFormatARGB32:
		return avPixFmtARGB
	case PixelFormatABGR32:
		return avPixFmtABGR
	case PixelFormatGBRP:
		return avPixFmtGBRP
	case PixelFormatXYZ12:
		return avPixFmtXYZ12LE
	default:
		return avPixFmtNone
	}
}

// isFullRangeAVPixFmt reports whether the AVPixelFormat is one of the
// deprecated JPEG-range YUV variants, which imply full-swing samples even
// when the frame carries no explicit range metadata.
func isFullRangeAVPixFmt(av int32) bool {
	switch av {
	case avPixFmtYUVJ420P, avPixFmtYUVJ422P, avPixFmtYUVJ440P, avPixFmtYUVJ444P:
		return true
	default:
		return false
	}
}

// sampleFormatFromAV maps an AVSampleFormat value to the internal format.
func sampleFormatFromAV(av int32) SampleFormat {
	switch av {
	case avSampleFmtU8:
		return SampleFormatU8
	case avSampleFmtS16:
		return SampleFormatS16
	case avSampleFmtS32:
		return SampleFormatS32
	case avSampleFmtFLT:
		return SampleFormatF32
	case avSampleFmtDBL:
		return SampleFormatF64
	case avSampleFmtU8P:
		return SampleFormatU8P
	case avSampleFmtS16P:
		return SampleFormatS16P
	case avSampleFmtS32P:
		return SampleFormatS32P
	case avSampleFmtFLTP:
		return SampleFormatF32P
	case avSampleFmtDBLP:
		return SampleFormatF64P
	default:
		return SampleFormatUnknown
	}
}

// avFromSampleFormat maps an internal sample format back to AVSampleFormat.
func avFromSampleFormat(s SampleFormat) int32 {
	switch s {
	case SampleFormatU8:
		return avSampleFmtU8
	case SampleFormatS16:
		return avSampleFmtS16
	case SampleFormatS32:
		return avSampleFmtS32
	case SampleFormatF32:
		return avSampleFmtFLT
	case SampleFormatF64:
		return avSampleFmtDBL
	case SampleFormatU8P:
		return avSampleFmtU8P
	case SampleFormatS16P:
		return avSampleFmtS16P
	case SampleFormatS32P:
		return avSampleFmtS32P
	case SampleFormatF32P:
		return avSampleFmtFLTP
	case SampleFormatF64P:
		return avSampleFmtDBLP
	default:
		return avSampleFmtNone
	}
}

// channelLayoutFromAV maps an AV_CH_LAYOUT_* mask to the internal layout.
func channelLayoutFromAV(mask uint64) ChannelLayout {
	switch mask {
	case avChLayoutMono:
		return ChannelLayoutMono
	case avChLayoutStereo:
		return ChannelLayoutStereo
	case avChLayout2Point1:
		return ChannelLayout2Point1
	case avChLayoutSurround:
		return ChannelLayoutSurround
	case avChLayoutQuad:
		return ChannelLayoutQuad
	case avChLayout5Point1, avChLayout5P1Back:
		return ChannelLayout5Point1
	case avChLayout7Point1:
		return ChannelLayout7Point1
	default:
		return ChannelLayoutUnsupported
	}
}

// avFromChannelLayout maps an internal layout back to an AV_CH_LAYOUT_* mask.
func avFromChannelLayout(c ChannelLayout) uint64 {
	switch c {
	case ChannelLayoutMono:
		return avChLayoutMono
	case ChannelLayoutStereo:
		return avChLayoutStereo
	case ChannelLayout2Point1:
		return avChLayout2Point1
	case ChannelLayoutSurround:
		return avChLayoutSurround
	case ChannelLayoutQuad:
		return avChLayoutQuad
	case ChannelLayout5Point1:
		return avChLayout5Point1
	case ChannelLayout7Point1:
		return avChLayout7Point1
	default:
		return 0
	}
}

// colorSpaceFromAV maps an AVColorSpace value to the internal color space.
func colorSpaceFromAV(av int32) ColorSpace {
	switch av {
	case avColSpcRGB:
		return ColorSpaceRGB
	case avColSpcBT709:
		return ColorSpaceBT709
	case avColSpcFCC, avColSpcBT470BG, avColSpcSMPTE170M:
		return ColorSpaceBT601
	case avColSpcSMPTE240M:
		return ColorSpaceSMPTE240M
	case avColSpcBT2020NCL, avColSpcBT2020CL:
		return ColorSpaceBT2020
	default:
		return ColorSpaceUnknown
	}
}

// colorRangeFromAV maps an AVColorRange value to the internal color range.
func colorRangeFromAV(av int32) ColorRange {
	switch av {
	case avColRangeMPEG:
		return ColorRangeLimited
	case avColRangeJPEG:
		return ColorRangeFull
	default:
		return ColorRangeUnknown
	}
}

// resolveColorDetails applies the color metadata fallback chain: frame-level
// values, then codec-context values, then pixel-format heuristics, then the
// domain default (limited range for YUV, full range for RGB/XYZ).
func resolveColorDetails(frameSpace, frameRange, framePixFmt, ctxSpace, ctxRange int32, format PixelFormat) (ColorSpace, ColorRange) {
	cs := colorSpaceFromAV(frameSpace)
	if cs == ColorSpaceUnknown {
		cs = colorSpaceFromAV(ctxSpace)
	}
	cr := colorRangeFromAV(frameRange)
	if cr == ColorRangeUnknown && isFullRangeAVPixFmt(framePixFmt) {
		cr = ColorRangeFull
	}
	if cr == ColorRangeUnknown {
		cr = colorRangeFromAV(ctxRange)
		if cr == ColorRangeUnknown {
			if format.IsXYZ() {
				cr = ColorRangeFull
				cs = ColorSpaceXYZ
			} else if !format.IsRGB() {
				// prefer limited yuv range
				cr = ColorRangeLimited
			} else {
				cr = ColorRangeFull
			}
		}
	}
	return cs, cr
}

// resolveFrameColor resolves the color space and range of a decoded frame,
// special-casing hardware decode paths where the frame-level pixel format
// differs from the context's coded format: an RGB output frame whose coding
// was YUV reports an RGB color space with full range, and a YUV output frame
// from an RGB coding falls back to a resolution-based primaries guess with
// limited range.
func resolveFrameColor(format PixelFormat, width, height int,
	framePixFmt, ctxPixFmt, frameSpace, frameRange, ctxSpace, ctxRange int32) (ColorSpace, ColorRange) {
	if framePixFmt == ctxPixFmt {
		return resolveColorDetails(frameSpace, frameRange, framePixFmt, ctxSpace, ctxRange, format)
	}
	if format.IsRGB() {
		if format.IsPlanar() {
			return ColorSpaceGBR, ColorRangeFull
		}
		return ColorSpaceRGB, ColorRangeFull
	}
	if pixelFormatFromAV(ctxPixFmt).IsRGB() {
		return guessColorSpaceBySize(width, height), ColorRangeLimited
	}
	return resolveColorDetails(frameSpace, frameRange, framePixFmt, ctxSpace, ctxRange, format)
}

// displayAspectRatio computes the display aspect ratio from the raw pixel
// dimensions, preferring the frame-level sample aspect ratio over the codec
// context's when it indicates non-square samples (1/1 is skipped).
func displayAspectRatio(width, height int, frameSARNum, frameSARDen, ctxSARNum, ctxSARDen int32) float64 {
	if height <= 0 {
		return 0
	}
	dar := float64(width) / float64(height)
	if frameSARNum > 1 && frameSARDen > 0 {
		dar *= float64(frameSARNum) / float64(frameSARDen)
	} else if ctxSARNum > 1 && ctxSARDen > 0 {
		dar *= float64(ctxSARNum) / float64(ctxSARDen)
	}
	return dar
}

// guessColorSpaceBySize picks BT.709 for HD-sized frames and BT.601
// otherwise. The 1280x576 threshold is load-bearing for compatibility with
// existing streams and is kept as-is.
func guessColorSpaceBySize(width, height int) ColorSpace {
	if width >= 1280 && height >= 576 {
		return ColorSpaceBT709
	}
	return ColorSpaceBT601
}
