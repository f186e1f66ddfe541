package gralloc

import (
	"fmt"
	"strings"

	"github.com/vkngwrapper/gralloc/hal"
	"golang.org/x/exp/slog"
)

const dumpHeader = "dump all buffer objects info:\n"

// AllocDevice is the allocation device returned from Module.Open
type AllocDevice struct {
	module *Module
}

// Module returns the module the device was opened from
func (d *AllocDevice) Module() *Module {
	return d.module
}

// Alloc allocates a buffer and returns its handle along with the row stride in pixels
func (d *AllocDevice) Alloc(width, height int, format hal.PixelFormat, usage hal.Usage) (*Handle, int, error) {
	d.module.logger.Debug("AllocDevice::Alloc",
		slog.Int("width", width),
		slog.Int("height", height),
		slog.String("format", format.String()),
		slog.String("usage", usage.String()),
	)

	return d.module.allocate(width, height, format, usage)
}

// Free releases a buffer allocated from this device. Handles that were only registered in this
// module must be released with Module.UnregisterBuffer instead.
func (d *AllocDevice) Free(h *Handle) error {
	d.module.logger.Debug("AllocDevice::Free")

	return d.module.free(h)
}

// DumpString describes every buffer allocated from this device and not yet freed
func (d *AllocDevice) DumpString() string {
	d.module.logger.Debug("AllocDevice::DumpString")

	var sb strings.Builder
	sb.WriteString(dumpHeader)

	for _, entry := range d.module.registry.Snapshot() {
		fmt.Fprintf(&sb, "bo: %p, handle: %p, width: %d, height: %d, format: %x, usage: %x\n",
			entry.bo, entry.handle, entry.bo.Width(), entry.bo.Height(),
			uint32(entry.bo.Format()), uint32(entry.bo.Usage()))
	}

	return sb.String()
}

// Dump writes the text produced by DumpString into buf, truncated to the length of buf, and
// returns the number of bytes written
func (d *AllocDevice) Dump(buf []byte) int {
	return copy(buf, d.DumpString())
}

// Close closes the module's device. Every later operation on the module fails with ErrDeviceInit.
func (d *AllocDevice) Close() error {
	d.module.logger.Debug("AllocDevice::Close")

	return d.module.closeDevice()
}
