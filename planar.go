package gralloc

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"golang.org/x/exp/slog"
)

// YCbCr locates the planes of a locked 4:2:0 YUV buffer
type YCbCr struct {
	Y  unsafe.Pointer
	Cb unsafe.Pointer
	Cr unsafe.Pointer

	// YStride is the byte distance between luma rows
	YStride int
	// CStride is the byte distance between chroma rows
	CStride int
	// ChromaStep is the byte distance between two consecutive samples of one chroma channel
	ChromaStep int
}

// LockYCbCr locks a planar YUV buffer and returns the address of each plane. A usage of 0 only
// reports the strides: the buffer is not locked and every pointer is nil. Buffers locked with a
// nonzero usage are released with Unlock.
func (m *Module) LockYCbCr(h *Handle, usage hal.Usage, rect driver.Rect) (YCbCr, error) {
	m.logger.Debug("Module::LockYCbCr", slog.String("usage", usage.String()))

	var ycbcr YCbCr

	dev, err := m.ensureDevice()
	if err != nil {
		return ycbcr, err
	}

	bo, err := m.resolve(h)
	if err != nil {
		return ycbcr, err
	}

	layout, ok := hal.Planar(bo.Format())
	if !ok {
		return ycbcr, errors.Wrapf(ErrBadFormat, "%s is not a planar YUV format", bo.Format())
	}

	planes, err := dev.driver.ResolveFormat(bo.buffer)
	if err != nil {
		return ycbcr, errors.Mark(errors.Wrap(err, "driver failed to resolve plane layout"), ErrBadFormat)
	}

	if planes.Offsets[layout.CbPlane] < planes.Offsets[0] || planes.Offsets[layout.CrPlane] < planes.Offsets[0] {
		return ycbcr, errors.AssertionFailedf("driver reported chroma planes ahead of the luma plane: %v", planes.Offsets)
	}

	ycbcr.YStride = int(planes.Pitches[0])
	ycbcr.CStride = int(planes.Pitches[1])
	ycbcr.ChromaStep = layout.ChromaStep

	if usage == 0 {
		return ycbcr, nil
	}

	base, err := bo.lock(dev.driver, usage, rect)
	if err != nil {
		return ycbcr, err
	}
	if base == nil {
		return ycbcr, nil
	}

	cbOffset := uintptr(planes.Offsets[layout.CbPlane]-planes.Offsets[0]) + uintptr(layout.CbOffset)
	crOffset := uintptr(planes.Offsets[layout.CrPlane]-planes.Offsets[0]) + uintptr(layout.CrOffset)

	ycbcr.Y = base
	ycbcr.Cb = unsafe.Add(base, cbOffset)
	ycbcr.Cr = unsafe.Add(base, crOffset)

	return ycbcr, nil
}
