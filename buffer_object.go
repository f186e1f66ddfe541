package gralloc

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/internal/utils"
	"golang.org/x/exp/slog"
)

// BufferObject is this process's materialization of a buffer: the driver buffer plus reference
// count and lock state. Every handle that has been allocated or registered in a module is attached
// to exactly one BufferObject.
type BufferObject struct {
	id     uint64
	module *Module
	handle *Handle
	buffer driver.Buffer
	desc   driver.Descriptor

	refs     atomic.Int32
	released atomic.Bool
	imported bool

	lockMutex utils.OptionalMutex
	lockCount int
	lockUsage hal.Usage
	writer    bool

	mapData unsafe.Pointer
}

func newBufferObject(m *Module, handle *Handle, buffer driver.Buffer, imported bool) *BufferObject {
	bo := &BufferObject{
		id:       m.nextBufferID.Add(1),
		module:   m,
		handle:   handle,
		buffer:   buffer,
		desc:     handle.Descriptor,
		imported: imported,
		lockMutex: utils.OptionalMutex{
			UseMutex: m.useMutex,
		},
	}
	bo.refs.Store(1)

	return bo
}

func (bo *BufferObject) Width() int              { return int(bo.desc.Width) }
func (bo *BufferObject) Height() int             { return int(bo.desc.Height) }
func (bo *BufferObject) Format() hal.PixelFormat { return bo.desc.Format }
func (bo *BufferObject) Usage() hal.Usage        { return bo.desc.Usage }
func (bo *BufferObject) Pitch() int              { return int(bo.desc.Pitch) }
func (bo *BufferObject) Size() int               { return int(bo.desc.Size) }

// Handle returns the handle this buffer object is attached to
func (bo *BufferObject) Handle() *Handle { return bo.handle }

// Imported returns true if the buffer object was created by registering a handle allocated
// elsewhere
func (bo *BufferObject) Imported() bool { return bo.imported }

// References returns the current reference count
func (bo *BufferObject) References() int {
	return int(bo.refs.Load())
}

// lockState reports whether the buffer object is locked, and whether it holds a CPU mapping
func (bo *BufferObject) lockState() (locked bool, mapped bool, usage hal.Usage) {
	bo.lockMutex.Lock()
	defer bo.lockMutex.Unlock()

	return bo.lockCount > 0, bo.mapData != nil, bo.lockUsage
}

func (bo *BufferObject) String() string {
	return fmt.Sprintf("BufferObject{%d: %dx%d %s}", bo.id, bo.desc.Width, bo.desc.Height, bo.desc.Format)
}

// addReference must be called with lockMutex held
func (bo *BufferObject) addReference() {
	bo.refs.Add(1)
}

// dropReference must be called with lockMutex held. It returns true when the last reference was
// dropped, in which case the caller must free the driver buffer.
func (bo *BufferObject) dropReference() bool {
	refs := bo.refs.Add(-1)
	if refs < 0 {
		panic(fmt.Sprintf("%s has a negative reference count", bo))
	}
	if refs > 0 {
		return false
	}

	bo.released.Store(true)
	bo.handle.bo.CompareAndSwap(bo, nil)
	return true
}

func (bo *BufferObject) checkRect(rect driver.Rect) error {
	if rect.Left < 0 || rect.Top < 0 || rect.Width < 0 || rect.Height < 0 {
		return errors.Wrapf(ErrBadValue, "lock region %+v has negative components", rect)
	}
	if rect.Left+rect.Width > bo.Width() || rect.Top+rect.Height > bo.Height() {
		return errors.Wrapf(ErrBadValue, "lock region %+v lies outside the %dx%d buffer", rect, bo.Width(), bo.Height())
	}

	return nil
}

// lock records a lock for the provided usage and, if the usage includes CPU access, makes sure
// the buffer is mapped. It returns the mapped address, or nil for locks without CPU access.
func (bo *BufferObject) lock(drv driver.Driver, usage hal.Usage, rect driver.Rect) (unsafe.Pointer, error) {
	if !bo.desc.Usage.Permits(usage) {
		return nil, errors.Wrapf(ErrBadValue, "lock usage %s is not permitted by allocation usage %s", usage, bo.desc.Usage)
	}

	err := bo.checkRect(rect)
	if err != nil {
		return nil, err
	}

	bo.lockMutex.Lock()
	defer bo.lockMutex.Unlock()

	if bo.released.Load() {
		return nil, errors.Wrap(ErrBadHandle, "buffer has been released")
	}

	write := usage.SWWrite()
	if bo.writer || (write && bo.lockCount > 0) {
		return nil, errors.Wrapf(ErrBusy, "cannot lock for %s while locked for %s", usage, bo.lockUsage)
	}

	if usage.SW() != 0 && bo.mapData == nil {
		mapData, err := drv.Map(bo.buffer, rect, write)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "driver failed to map buffer"), ErrOutOfMemory)
		}
		if mapData == nil {
			return nil, errors.AssertionFailedf("driver mapped %s to a nil address", bo)
		}
		bo.mapData = mapData
	}

	bo.lockCount++
	bo.lockUsage |= usage
	bo.writer = write

	if usage.SW() == 0 {
		return nil, nil
	}
	return bo.mapData, nil
}

// unlock releases one lock. The mapping is released with the last lock.
func (bo *BufferObject) unlock(drv driver.Driver) error {
	bo.lockMutex.Lock()
	defer bo.lockMutex.Unlock()

	if bo.lockCount == 0 {
		return errors.Wrapf(ErrBadValue, "%s is not locked", bo)
	}

	bo.lockCount--
	if bo.lockCount > 0 {
		return nil
	}

	bo.lockUsage = 0
	bo.writer = false

	if bo.mapData == nil {
		return nil
	}

	bo.mapData = nil
	err := drv.Unmap(bo.buffer)
	if err != nil {
		bo.module.logger.Error("failed to unmap buffer", slog.String("buffer", bo.String()), slog.Any("error", err))
	}

	return nil
}
