package gralloc

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/internal/mocks"
	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"
)

func TestAllocLockRoundTrip(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	before := module.registry.Count()

	usage := hal.UsageSWReadOften | hal.UsageSWWriteOften
	handle, stride, err := dev.Alloc(256, 256, hal.FormatRGBA8888, usage)
	require.NoError(t, err)
	require.GreaterOrEqual(t, stride, 256)
	require.LessOrEqual(t, stride*4, int(handle.Pitch))
	require.Equal(t, before+1, module.registry.Count())
	require.Equal(t, module.ID(), handle.Origin)
	require.True(t, handle.Attached())

	ptr, err := module.Lock(handle, usage, driver.Rect{Width: 256, Height: 256})
	require.NoError(t, err)
	require.NotNil(t, ptr)
	copy(unsafe.Slice((*byte)(ptr), 4), []byte{1, 2, 3, 4})
	require.NoError(t, module.Unlock(handle))

	ptr, err = module.Lock(handle, hal.UsageSWReadOften, driver.Rect{Width: 256, Height: 256})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, unsafe.Slice((*byte)(ptr), 4))
	require.NoError(t, module.Unlock(handle))

	require.NoError(t, dev.Free(handle))
	require.Equal(t, before, module.registry.Count())
	require.False(t, handle.Attached())
	require.Equal(t, 0, drv.Kernel.LiveObjects())
}

func TestAllocStride(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	_, dev := readyModule(t, drv, CreateOptions{})

	formats := []hal.PixelFormat{
		hal.FormatRGBA8888, hal.FormatRGBX8888, hal.FormatBGRA8888,
		hal.FormatRGB888, hal.FormatRGB565, hal.FormatYCbCr422I,
		hal.FormatYV12, hal.FormatYCrCb420SP, hal.FormatYCbCr420888,
	}

	for _, format := range formats {
		for _, width := range []int{1, 17, 100, 641} {
			handle, stride, err := dev.Alloc(width, 9, format, hal.UsageHWTexture)
			require.NoError(t, err)

			bpp := hal.BytesPerPixel(format)
			require.GreaterOrEqual(t, stride, width, "format %s width %d", format, width)
			require.LessOrEqual(t, stride*bpp, int(handle.Pitch), "format %s width %d", format, width)
			require.Equal(t, format, handle.Format)

			require.NoError(t, dev.Free(handle))
		}
	}
}

func TestAllocImplementationDefined(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	_, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(64, 64, hal.FormatImplementationDefined, hal.UsageHWComposer)
	require.NoError(t, err)
	require.Equal(t, hal.FormatRGBA8888, handle.Format)
	require.NoError(t, dev.Free(handle))

	drv = mocks.NewDummyDriver(nil)
	_, dev = readyModule(t, drv, CreateOptions{DefaultFormat: hal.FormatBGRA8888})

	handle, _, err = dev.Alloc(64, 64, hal.FormatImplementationDefined, hal.UsageHWComposer)
	require.NoError(t, err)
	require.Equal(t, hal.FormatBGRA8888, handle.Format)
	require.NoError(t, dev.Free(handle))
}

func TestAllocBadArguments(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	_, _, err := dev.Alloc(64, 64, hal.PixelFormat(0x7777), 0)
	require.True(t, errors.Is(err, ErrBadFormat))

	_, _, err = dev.Alloc(0, 64, hal.FormatRGBA8888, 0)
	require.True(t, errors.Is(err, ErrBadValue))

	_, _, err = dev.Alloc(64, -1, hal.FormatRGBA8888, 0)
	require.True(t, errors.Is(err, ErrBadValue))

	require.Equal(t, int32(0), drv.Allocs.Load())
	require.Equal(t, 0, module.registry.Count())
}

func TestAllocDriverFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	module, dev, drv := mockModule(t, ctrl)

	drv.EXPECT().Alloc(gomock.Any()).Return(nil, errors.New("kernel says no"))

	_, _, err := dev.Alloc(64, 64, hal.FormatRGBA8888, hal.UsageHWRender)
	require.True(t, errors.Is(err, ErrOutOfMemory))
	require.Contains(t, err.Error(), "kernel says no")
	require.Equal(t, 0, module.registry.Count())
}

func TestAllocBadPitch(t *testing.T) {
	ctrl := gomock.NewController(t)
	module, dev, drv := mockModule(t, ctrl)

	buf := mocks.NewMockBuffer(ctrl)
	drv.EXPECT().Alloc(gomock.Any()).DoAndReturn(func(desc *driver.Descriptor) (driver.Buffer, error) {
		require.Equal(t, uint32(64), desc.Width)
		require.Equal(t, int32(-1), desc.PrimeFD)

		desc.Pitch = 128
		desc.Size = 128 * 64
		return buf, nil
	})
	drv.EXPECT().Free(buf).Return(nil)

	_, _, err := dev.Alloc(64, 64, hal.FormatRGBA8888, hal.UsageHWRender)
	require.True(t, errors.Is(err, ErrOutOfMemory))
	require.True(t, errors.HasAssertionFailure(err))
	require.Equal(t, 0, module.registry.Count())
}

func TestDoubleFree(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	keep, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, 0)
	require.NoError(t, err)
	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, 0)
	require.NoError(t, err)
	require.Equal(t, 2, module.registry.Count())

	require.NoError(t, dev.Free(handle))
	require.Equal(t, 1, module.registry.Count())

	err = dev.Free(handle)
	require.True(t, errors.Is(err, ErrBadHandle))
	require.Equal(t, 1, module.registry.Count())
	require.Equal(t, int32(1), drv.Frees.Load())

	err = module.Perform(PerformDestroyBuffer, handle)
	require.True(t, errors.Is(err, ErrBadHandle))
	require.Equal(t, int32(1), drv.Frees.Load())

	require.Equal(t, 1, drv.Kernel.LiveObjects())
	require.NoError(t, dev.Free(keep))
}

func TestFreeDoesNotDoubleDecrementRegisteredBuffer(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, 0)
	require.NoError(t, err)
	require.NoError(t, module.RegisterBuffer(handle))

	bo := handle.bo.Load()
	require.Equal(t, 2, bo.References())

	require.NoError(t, dev.Free(handle))
	require.Equal(t, 1, bo.References())

	// The registration keeps the buffer alive, but a second free must not consume it
	err = dev.Free(handle)
	require.True(t, errors.Is(err, ErrBadHandle))
	require.Equal(t, 1, bo.References())
	require.Equal(t, 1, drv.Kernel.LiveObjects())

	require.NoError(t, module.UnregisterBuffer(handle))
	require.Equal(t, 0, drv.Kernel.LiveObjects())
}

func TestFreeLockedBuffer(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, hal.UsageSWReadRarely)
	require.NoError(t, err)

	_, err = module.Lock(handle, hal.UsageSWReadRarely, driver.Rect{})
	require.NoError(t, err)

	err = dev.Free(handle)
	require.True(t, errors.Is(err, ErrBusy))
	require.Equal(t, -Status(unix.EBUSY), StatusOf(err))
	require.Equal(t, 1, module.registry.Count())

	require.NoError(t, module.Unlock(handle))
	require.NoError(t, dev.Free(handle))
	require.Equal(t, 0, module.registry.Count())
}

func TestFreeForeignHandle(t *testing.T) {
	kernel := mocks.NewDummyKernel()
	_, dev1 := readyModule(t, mocks.NewDummyDriver(kernel), CreateOptions{})
	_, dev2 := readyModule(t, mocks.NewDummyDriver(kernel), CreateOptions{})

	handle, _, err := dev1.Alloc(32, 32, hal.FormatRGBA8888, 0)
	require.NoError(t, err)

	err = dev2.Free(handle)
	require.True(t, errors.Is(err, ErrBadHandle))

	err = dev2.Free(nil)
	require.True(t, errors.Is(err, ErrBadHandle))

	require.NoError(t, dev1.Free(handle))
}
