// Package hal holds the pixel format catalog and the buffer usage flags shared between the allocator
// façade and its driver back-ends. The values match the graphics HAL so that handles remain meaningful
// to compositors and producers on the other side of a process boundary.
package hal

import (
	"fmt"

	"github.com/vkngwrapper/gralloc/memutils"
)

// PixelFormat identifies the layout of the pixels inside a buffer
type PixelFormat int32

const (
	FormatRGBA8888 PixelFormat = 1
	FormatRGBX8888 PixelFormat = 2
	FormatRGB888   PixelFormat = 3
	FormatRGB565   PixelFormat = 4
	FormatBGRA8888 PixelFormat = 5
	// FormatYCbCr422SP is NV16
	FormatYCbCr422SP PixelFormat = 0x10
	// FormatYCrCb420SP is NV21: a full luma plane followed by one interleaved Cr/Cb plane
	FormatYCrCb420SP PixelFormat = 0x11
	// FormatYCbCr422I is YUY2
	FormatYCbCr422I PixelFormat = 0x14
	// FormatImplementationDefined means the producer has left the choice of format to the allocator
	FormatImplementationDefined PixelFormat = 0x22
	// FormatYCbCr420888 is flexible 4:2:0, laid out by this module as Y, Cb, Cr planes
	FormatYCbCr420888 PixelFormat = 0x23
	// FormatYV12 is Y, Cr, Cb planes with 16-byte aligned chroma strides
	FormatYV12 PixelFormat = 0x32315659
)

var formatMapping = make(map[PixelFormat]string)

func (f PixelFormat) String() string {
	str, ok := formatMapping[f]
	if !ok {
		return fmt.Sprintf("PixelFormat(0x%x)", int32(f))
	}
	return str
}

func init() {
	formatMapping[FormatRGBA8888] = "FormatRGBA8888"
	formatMapping[FormatRGBX8888] = "FormatRGBX8888"
	formatMapping[FormatRGB888] = "FormatRGB888"
	formatMapping[FormatRGB565] = "FormatRGB565"
	formatMapping[FormatBGRA8888] = "FormatBGRA8888"
	formatMapping[FormatYCbCr422SP] = "FormatYCbCr422SP"
	formatMapping[FormatYCrCb420SP] = "FormatYCrCb420SP"
	formatMapping[FormatYCbCr422I] = "FormatYCbCr422I"
	formatMapping[FormatImplementationDefined] = "FormatImplementationDefined"
	formatMapping[FormatYCbCr420888] = "FormatYCbCr420888"
	formatMapping[FormatYV12] = "FormatYV12"
}

// BytesPerPixel returns the number of bytes per pixel of the first plane of the format, or 0 if
// the format cannot be allocated
func BytesPerPixel(format PixelFormat) int {
	switch format {
	case FormatRGBA8888, FormatRGBX8888, FormatBGRA8888:
		return 4
	case FormatRGB888:
		return 3
	case FormatRGB565, FormatYCbCr422I:
		return 2
	case FormatYV12, FormatYCbCr422SP, FormatYCrCb420SP, FormatYCbCr420888:
		return 1
	}

	return 0
}

func fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// FourCC returns the DRM fourcc code describing the same memory layout as format, or 0 if there is none
func FourCC(format PixelFormat) uint32 {
	switch format {
	case FormatRGBA8888:
		return fourcc('A', 'B', '2', '4')
	case FormatRGBX8888:
		return fourcc('X', 'B', '2', '4')
	case FormatRGB888:
		return fourcc('B', 'G', '2', '4')
	case FormatRGB565:
		return fourcc('R', 'G', '1', '6')
	case FormatBGRA8888:
		return fourcc('A', 'R', '2', '4')
	case FormatYCbCr422SP:
		return fourcc('N', 'V', '1', '6')
	case FormatYCrCb420SP:
		return fourcc('N', 'V', '2', '1')
	case FormatYCbCr422I:
		return fourcc('Y', 'U', 'Y', 'V')
	case FormatYCbCr420888:
		return fourcc('Y', 'U', '1', '2')
	case FormatYV12:
		return fourcc('Y', 'V', '1', '2')
	}

	return 0
}

// PlanarLayout describes where the chroma samples of a planar or semi-planar YUV format live
type PlanarLayout struct {
	// PlaneCount is the number of distinct memory planes, including luma
	PlaneCount int
	// CbPlane and CrPlane are the plane indices holding each chroma channel
	CbPlane int
	CrPlane int
	// CbOffset and CrOffset are the byte offsets of the first sample of each chroma channel
	// inside its plane: both are 0 for fully planar formats
	CbOffset int
	CrOffset int
	// ChromaStep is the distance in bytes between two consecutive samples of one chroma channel
	ChromaStep int
	// ChromaAlignment is the alignment applied to chroma plane pitches
	ChromaAlignment int
}

var planarLayouts = map[PixelFormat]PlanarLayout{
	FormatYV12: {
		PlaneCount:      3,
		CrPlane:         1,
		CbPlane:         2,
		ChromaStep:      1,
		ChromaAlignment: 16,
	},
	FormatYCbCr420888: {
		PlaneCount:      3,
		CbPlane:         1,
		CrPlane:         2,
		ChromaStep:      1,
		ChromaAlignment: 16,
	},
	FormatYCrCb420SP: {
		PlaneCount:      2,
		CrPlane:         1,
		CbPlane:         1,
		CrOffset:        0,
		CbOffset:        1,
		ChromaStep:      2,
		ChromaAlignment: 1,
	},
}

// Planar returns the planar layout of a 4:2:0 YUV format. ok is false for every other format.
func Planar(format PixelFormat) (layout PlanarLayout, ok bool) {
	layout, ok = planarLayouts[format]
	return layout, ok
}

// AllocationHeight returns the number of rows of pitch bytes needed to hold a buffer of the provided
// height: planar formats store their chroma planes below the luma plane
func AllocationHeight(format PixelFormat, height int) int {
	if _, ok := planarLayouts[format]; ok {
		return height + memutils.DivRoundUp(height, 2)
	}

	return height
}

// PlaneOffsets computes the pitch and offset of every plane of a buffer whose first plane has the
// provided pitch. Non-planar formats report a single plane. size is the number of bytes that the
// planes cover.
func PlaneOffsets(format PixelFormat, height, pitch int) (pitches, offsets [4]uint32, size int) {
	layout, ok := planarLayouts[format]
	if !ok {
		pitches[0] = uint32(pitch)
		return pitches, offsets, pitch * height
	}

	chromaHeight := memutils.DivRoundUp(height, 2)
	lumaSize := pitch * height

	pitches[0] = uint32(pitch)
	offsets[0] = 0

	if layout.PlaneCount == 2 {
		pitches[1] = uint32(pitch)
		offsets[1] = uint32(lumaSize)
		return pitches, offsets, lumaSize + pitch*chromaHeight
	}

	memutils.DebugCheckPow2(layout.ChromaAlignment, "ChromaAlignment")
	chromaPitch := memutils.AlignUp(pitch/2, layout.ChromaAlignment)
	chromaSize := chromaPitch * chromaHeight

	pitches[1] = uint32(chromaPitch)
	pitches[2] = uint32(chromaPitch)
	offsets[1] = uint32(lumaSize)
	offsets[2] = uint32(lumaSize + chromaSize)

	return pitches, offsets, lumaSize + 2*chromaSize
}
