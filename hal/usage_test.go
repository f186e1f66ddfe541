package hal_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/gralloc/hal"
)

func TestUsageString(t *testing.T) {
	require.Equal(t, "None", hal.Usage(0).String())
	require.Equal(t, "UsageSWReadOften", hal.UsageSWReadOften.String())
	require.Equal(t, "UsageSWReadRarely|UsageSWWriteOften", (hal.UsageSWReadRarely | hal.UsageSWWriteOften).String())
	require.Contains(t, hal.UsageHWTexture.String(), "UsageHWTexture")

	str := (hal.UsageSWWriteRarely | hal.UsageHWTexture | hal.UsageHWRender).String()
	require.True(t, strings.HasPrefix(str, "UsageSWWriteRarely|"))
	require.Contains(t, str, "UsageHWTexture")
	require.Contains(t, str, "UsageHWRender")
}

func TestUsageValues(t *testing.T) {
	require.Equal(t, hal.Usage(0x100), hal.UsageHWTexture)
	require.Equal(t, hal.Usage(0x1000), hal.UsageHWFB)
	require.Equal(t, hal.Usage(0x10000), hal.UsageHWVideoEncoder)
	require.Equal(t, hal.Usage(0x40000), hal.UsageHWCameraRead)
	require.Equal(t, hal.Usage(0x100000), hal.UsageRenderScript)
}

func TestUsagePermits(t *testing.T) {
	alloc := hal.UsageSWReadRarely | hal.UsageHWTexture

	require.True(t, alloc.Permits(hal.UsageSWReadOften))
	require.True(t, alloc.Permits(hal.UsageHWRender))
	require.False(t, alloc.Permits(hal.UsageSWWriteRarely))
	require.False(t, hal.UsageHWTexture.Permits(hal.UsageSWReadRarely))

	require.True(t, (hal.UsageSWReadOften | hal.UsageSWWriteOften).Permits(hal.UsageSWReadRarely|hal.UsageSWWriteRarely))
	require.Equal(t, hal.UsageSWReadOften, (hal.UsageSWReadOften | hal.UsageHWFB).SW())
}
