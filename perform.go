package gralloc

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"golang.org/x/exp/slog"
)

// PerformOp selects an operation of the Perform control channel
type PerformOp uint32

const (
	// PerformGetDeviceFD writes the device file descriptor into an *int
	PerformGetDeviceFD PerformOp = 0x80000002
	// PerformImportExternal takes (int, *Handle, *driver.ExternalBuffer) and describes a buffer
	// shared as a file descriptor
	PerformImportExternal PerformOp = 0xffeeff00
	// PerformCreateBuffer takes (int, int, hal.PixelFormat, hal.Usage, **Handle) and allocates a buffer
	PerformCreateBuffer PerformOp = 0xffeeff01
	// PerformDestroyBuffer takes (*Handle) and frees a buffer allocated with PerformCreateBuffer
	PerformDestroyBuffer PerformOp = 0xffeeff02
)

var performOpMapping = make(map[PerformOp]string)

func (o PerformOp) String() string {
	str, ok := performOpMapping[o]
	if !ok {
		return fmt.Sprintf("PerformOp(0x%x)", uint32(o))
	}
	return str
}

func init() {
	performOpMapping[PerformGetDeviceFD] = "PerformGetDeviceFD"
	performOpMapping[PerformImportExternal] = "PerformImportExternal"
	performOpMapping[PerformCreateBuffer] = "PerformCreateBuffer"
	performOpMapping[PerformDestroyBuffer] = "PerformDestroyBuffer"
}

func badArgs(op PerformOp, args []any) error {
	return errors.Wrapf(ErrBadValue, "bad arguments for %s (%d given)", op, len(args))
}

// Perform decodes the arguments of a control channel operation and runs it. Each operation also
// has a typed method, which should be preferred.
func (m *Module) Perform(op PerformOp, args ...any) error {
	m.logger.Debug("Module::Perform", slog.String("op", op.String()))

	_, err := m.ensureDevice()
	if err != nil {
		return err
	}

	switch op {
	case PerformGetDeviceFD:
		if len(args) != 1 {
			return badArgs(op, args)
		}
		out, ok := args[0].(*int)
		if !ok || out == nil {
			return badArgs(op, args)
		}

		fd, err := m.DeviceFD()
		if err != nil {
			return err
		}
		*out = fd
		return nil

	case PerformImportExternal:
		if len(args) != 3 {
			return badArgs(op, args)
		}
		fd, ok1 := args[0].(int)
		h, ok2 := args[1].(*Handle)
		out, ok3 := args[2].(*driver.ExternalBuffer)
		if !ok1 || !ok2 || !ok3 {
			return badArgs(op, args)
		}

		return m.ImportExternal(fd, h, out)

	case PerformCreateBuffer:
		if len(args) != 5 {
			return badArgs(op, args)
		}
		width, ok1 := args[0].(int)
		height, ok2 := args[1].(int)
		format, ok3 := args[2].(hal.PixelFormat)
		usage, ok4 := args[3].(hal.Usage)
		out, ok5 := args[4].(**Handle)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || out == nil {
			return badArgs(op, args)
		}

		h, err := m.CreateBuffer(width, height, format, usage)
		if err != nil {
			return err
		}
		*out = h
		return nil

	case PerformDestroyBuffer:
		if len(args) != 1 {
			return badArgs(op, args)
		}
		h, ok := args[0].(*Handle)
		if !ok {
			return badArgs(op, args)
		}

		return m.DestroyBuffer(h)
	}

	return errors.Wrapf(ErrBadOp, "%s", op)
}

// DeviceFD returns the file descriptor of the module's device
func (m *Module) DeviceFD() (int, error) {
	m.logger.Debug("Module::DeviceFD")

	dev, err := m.ensureDevice()
	if err != nil {
		return -1, err
	}

	return dev.driver.FD(), nil
}

// ImportExternal describes a buffer that was shared with this process as a file descriptor. It
// requires a driver that implements driver.Resolver.
func (m *Module) ImportExternal(fd int, h *Handle, out *driver.ExternalBuffer) error {
	m.logger.Debug("Module::ImportExternal", slog.Int("fd", fd))

	dev, err := m.ensureDevice()
	if err != nil {
		return err
	}

	resolver, ok := dev.driver.(driver.Resolver)
	if !ok {
		return errors.Wrapf(ErrUnsupported, "driver %s cannot resolve external buffers", dev.driver.Name())
	}

	if h == nil || out == nil {
		return errors.Wrap(ErrBadValue, "ImportExternal requires a handle and an output buffer")
	}

	desc := h.Descriptor
	err = resolver.ResolveBuffer(fd, &desc, out)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "driver failed to resolve buffer"), ErrBadValue)
	}

	return nil
}

// CreateBuffer allocates a buffer exactly like AllocDevice.Alloc, without reporting the stride
func (m *Module) CreateBuffer(width, height int, format hal.PixelFormat, usage hal.Usage) (*Handle, error) {
	m.logger.Debug("Module::CreateBuffer")

	h, _, err := m.allocate(width, height, format, usage)
	return h, err
}

// DestroyBuffer frees a buffer exactly like AllocDevice.Free
func (m *Module) DestroyBuffer(h *Handle) error {
	m.logger.Debug("Module::DestroyBuffer")

	return m.free(h)
}
