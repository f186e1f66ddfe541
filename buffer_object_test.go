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
)

func TestLockReadersShareMapping(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, hal.UsageSWReadOften|hal.UsageSWWriteRarely)
	require.NoError(t, err)

	ptr1, err := module.Lock(handle, hal.UsageSWReadOften, driver.Rect{Width: 8, Height: 8})
	require.NoError(t, err)
	ptr2, err := module.Lock(handle, hal.UsageSWReadRarely, driver.Rect{Left: 8, Top: 8, Width: 24, Height: 24})
	require.NoError(t, err)
	require.Equal(t, ptr1, ptr2)
	require.Equal(t, int32(1), drv.Maps.Load())

	_, err = module.Lock(handle, hal.UsageSWWriteRarely, driver.Rect{})
	require.True(t, errors.Is(err, ErrBusy))

	require.NoError(t, module.Unlock(handle))
	require.Equal(t, int32(0), drv.Unmaps.Load())
	require.NoError(t, module.Unlock(handle))
	require.Equal(t, int32(1), drv.Unmaps.Load())

	err = module.Unlock(handle)
	require.True(t, errors.Is(err, ErrBadValue))

	require.NoError(t, dev.Free(handle))
}

func TestLockWriterIsExclusive(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, hal.UsageSWReadOften|hal.UsageSWWriteOften|hal.UsageHWTexture)
	require.NoError(t, err)

	_, err = module.Lock(handle, hal.UsageSWWriteOften, driver.Rect{})
	require.NoError(t, err)

	_, err = module.Lock(handle, hal.UsageSWReadOften, driver.Rect{})
	require.True(t, errors.Is(err, ErrBusy))
	_, err = module.Lock(handle, hal.UsageHWTexture, driver.Rect{})
	require.True(t, errors.Is(err, ErrBusy))

	require.NoError(t, module.Unlock(handle))

	_, err = module.Lock(handle, hal.UsageSWReadOften, driver.Rect{})
	require.NoError(t, err)
	require.NoError(t, module.Unlock(handle))

	require.NoError(t, dev.Free(handle))
}

func TestLockWithoutCPUAccess(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, hal.UsageHWRender|hal.UsageHWTexture)
	require.NoError(t, err)

	ptr, err := module.Lock(handle, hal.UsageHWRender, driver.Rect{})
	require.NoError(t, err)
	require.Nil(t, ptr)
	require.Equal(t, int32(0), drv.Maps.Load())

	locked, mapped, usage := handle.bo.Load().lockState()
	require.True(t, locked)
	require.False(t, mapped)
	require.Equal(t, hal.UsageHWRender, usage)

	require.NoError(t, module.Unlock(handle))
	require.Equal(t, int32(0), drv.Unmaps.Load())
	require.NoError(t, dev.Free(handle))
}

func TestLockUsageNotPermitted(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, hal.UsageSWReadRarely)
	require.NoError(t, err)

	_, err = module.Lock(handle, hal.UsageSWWriteOften, driver.Rect{})
	require.True(t, errors.Is(err, ErrBadValue))

	// Frequency hints do not restrict access
	ptr, err := module.Lock(handle, hal.UsageSWReadOften, driver.Rect{})
	require.NoError(t, err)
	require.NotNil(t, ptr)
	require.NoError(t, module.Unlock(handle))

	require.NoError(t, dev.Free(handle))
}

func TestLockRegion(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 16, hal.FormatRGBA8888, hal.UsageSWReadOften)
	require.NoError(t, err)

	bad := []driver.Rect{
		{Left: -1, Width: 4, Height: 4},
		{Top: 1, Width: 32, Height: 16},
		{Left: 31, Width: 2, Height: 1},
		{Width: -4, Height: 4},
	}
	for _, rect := range bad {
		_, err = module.Lock(handle, hal.UsageSWReadOften, rect)
		require.True(t, errors.Is(err, ErrBadValue), "rect %+v", rect)
	}

	ptr, err := module.Lock(handle, hal.UsageSWReadOften, driver.Rect{Left: 16, Top: 8, Width: 16, Height: 8})
	require.NoError(t, err)

	// The pointer always addresses pixel (0,0)
	base, err := drv.Map(handle.bo.Load().buffer, driver.Rect{}, false)
	require.NoError(t, err)
	require.Equal(t, base, ptr)

	require.NoError(t, module.Unlock(handle))
	require.NoError(t, dev.Free(handle))
}

func TestLockMapFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	module, dev, drv := mockModule(t, ctrl)

	buf := mocks.NewMockBuffer(ctrl)
	drv.EXPECT().Alloc(gomock.Any()).DoAndReturn(func(desc *driver.Descriptor) (driver.Buffer, error) {
		desc.Pitch = desc.Width * 4
		desc.Size = uint64(desc.Pitch * desc.Height)
		return buf, nil
	})

	handle, _, err := dev.Alloc(16, 16, hal.FormatRGBA8888, hal.UsageSWReadOften)
	require.NoError(t, err)

	drv.EXPECT().Map(buf, driver.Rect{Width: 16, Height: 16}, false).Return(unsafe.Pointer(nil), errors.New("mmap failed"))

	_, err = module.Lock(handle, hal.UsageSWReadOften, driver.Rect{Width: 16, Height: 16})
	require.True(t, errors.Is(err, ErrOutOfMemory))

	locked, _, _ := handle.bo.Load().lockState()
	require.False(t, locked)

	data := make([]byte, 1024)
	drv.EXPECT().Map(buf, driver.Rect{}, false).Return(unsafe.Pointer(&data[0]), nil)
	drv.EXPECT().Unmap(buf).Return(nil)

	ptr, err := module.Lock(handle, hal.UsageSWReadOften, driver.Rect{})
	require.NoError(t, err)
	require.Equal(t, unsafe.Pointer(&data[0]), ptr)
	require.NoError(t, module.Unlock(handle))

	drv.EXPECT().Free(buf).Return(nil)
	require.NoError(t, dev.Free(handle))
}

func TestLockReleasedHandle(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(32, 32, hal.FormatRGBA8888, hal.UsageSWReadOften)
	require.NoError(t, err)
	require.NoError(t, dev.Free(handle))

	_, err = module.Lock(handle, hal.UsageSWReadOften, driver.Rect{})
	require.True(t, errors.Is(err, ErrBadHandle))
	err = module.Unlock(handle)
	require.True(t, errors.Is(err, ErrBadHandle))
}
