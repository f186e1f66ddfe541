//go:build !debug_mem_utils

package memutils_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/gralloc/memutils"
)

func TestDebugCheckPow2Disabled(t *testing.T) {
	require.False(t, memutils.DebugEnabled)
	require.NotPanics(t, func() { memutils.DebugCheckPow2(48, "PitchAlignment") })
}
