package gralloc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/internal/mocks"
	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"
)

type resolvingDriver struct {
	*mocks.MockDriver
	*mocks.MockResolver
}

func TestPerformUnknownOp(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(16, 16, hal.FormatRGBA8888, 0)
	require.NoError(t, err)
	before := dev.DumpString()

	err = module.Perform(PerformOp(0xDEAD))
	require.True(t, errors.Is(err, ErrBadOp))
	require.Equal(t, -Status(unix.EINVAL), StatusOf(err))
	require.Equal(t, "PerformOp(0xdead)", PerformOp(0xDEAD).String())

	require.Equal(t, before, dev.DumpString())
	require.Equal(t, deviceLive, module.device.Load().State())

	require.NoError(t, dev.Free(handle))
}

func TestPerformCreateDestroy(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, _ := readyModule(t, drv, CreateOptions{})

	var handle *Handle
	err := module.Perform(PerformCreateBuffer, 48, 24, hal.FormatRGB888, hal.UsageHWTexture, &handle)
	require.NoError(t, err)
	require.NotNil(t, handle)
	require.Equal(t, uint32(48), handle.Width)
	require.Equal(t, hal.FormatRGB888, handle.Format)
	require.Equal(t, 1, module.registry.Count())

	require.NoError(t, module.Perform(PerformDestroyBuffer, handle))
	require.Equal(t, 0, module.registry.Count())

	err = module.Perform(PerformDestroyBuffer, handle)
	require.True(t, errors.Is(err, ErrBadHandle))
}

func TestPerformBadArguments(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, _ := readyModule(t, drv, CreateOptions{})

	var handle *Handle
	var fd int

	calls := []struct {
		op   PerformOp
		args []any
	}{
		{PerformGetDeviceFD, nil},
		{PerformGetDeviceFD, []any{fd}},
		{PerformGetDeviceFD, []any{(*int)(nil)}},
		{PerformCreateBuffer, []any{48, 24, hal.FormatRGB888, hal.UsageHWTexture}},
		{PerformCreateBuffer, []any{48, 24, int32(3), hal.UsageHWTexture, &handle}},
		{PerformCreateBuffer, []any{48, 24, hal.FormatRGB888, hal.UsageHWTexture, handle}},
		{PerformDestroyBuffer, []any{"handle"}},
		{PerformImportExternal, []any{3, handle}},
	}

	for _, call := range calls {
		err := module.Perform(call.op, call.args...)
		require.True(t, errors.Is(err, ErrBadValue), "%s %v", call.op, call.args)
	}

	require.Equal(t, 0, module.registry.Count())
	require.Equal(t, int32(0), drv.Allocs.Load())
}

func TestPerformEnsuresDevice(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module := New(testLogger(), drv.Factory(), CreateOptions{})
	require.Nil(t, module.device.Load())

	err := module.Perform(PerformOp(0xDEAD))
	require.True(t, errors.Is(err, ErrBadOp))
	require.NotNil(t, module.device.Load())
}

func TestImportExternalUnsupported(t *testing.T) {
	drv := mocks.NewDummyDriver(nil)
	module, dev := readyModule(t, drv, CreateOptions{})

	handle, _, err := dev.Alloc(16, 16, hal.FormatRGBA8888, 0)
	require.NoError(t, err)

	var ext driver.ExternalBuffer
	err = module.Perform(PerformImportExternal, 5, handle, &ext)
	require.True(t, errors.Is(err, ErrUnsupported))
	require.Equal(t, -Status(unix.EOPNOTSUPP), StatusOf(err))

	require.NoError(t, dev.Free(handle))
}

func TestImportExternal(t *testing.T) {
	ctrl := gomock.NewController(t)

	drv := resolvingDriver{
		MockDriver:   mocks.NewMockDriver(ctrl),
		MockResolver: mocks.NewMockResolver(ctrl),
	}
	drv.MockDriver.EXPECT().Name().Return("resolving").AnyTimes()

	module := New(testLogger(), func() (driver.Driver, error) { return drv, nil }, CreateOptions{})

	handle := &Handle{
		Descriptor: driver.Descriptor{
			Width:  64,
			Height: 32,
			Format: hal.FormatYV12,
			Pitch:  64,
		},
	}

	drv.MockResolver.EXPECT().ResolveBuffer(9, gomock.Any(), gomock.Any()).DoAndReturn(
		func(fd int, desc *driver.Descriptor, out *driver.ExternalBuffer) error {
			require.Equal(t, hal.FormatYV12, desc.Format)
			out.Width = desc.Width
			out.Height = desc.Height
			out.FourCC = hal.FourCC(desc.Format)
			out.Pitches = [4]uint32{64, 32, 32}
			return nil
		})

	var ext driver.ExternalBuffer
	require.NoError(t, module.ImportExternal(9, handle, &ext))
	require.Equal(t, uint32(64), ext.Width)
	require.Equal(t, uint32(hal.FormatYV12), ext.FourCC)
	require.Equal(t, uint32(32), ext.Pitches[2])

	drv.MockResolver.EXPECT().ResolveBuffer(10, gomock.Any(), gomock.Any()).Return(errors.New("not a dmabuf"))
	err := module.Perform(PerformImportExternal, 10, handle, &ext)
	require.True(t, errors.Is(err, ErrBadValue))
	require.Contains(t, err.Error(), "not a dmabuf")
}
