package gralloc

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

var (
	// ErrDeviceInit indicates that the device could not be brought up, or has been closed
	ErrDeviceInit = errors.New("gralloc: device unavailable")
	// ErrBadFormat indicates a pixel format the allocator cannot handle for the requested operation
	ErrBadFormat = errors.New("gralloc: unsupported pixel format")
	// ErrBadHandle indicates a handle that is unknown to this module, foreign, or already released
	ErrBadHandle = errors.New("gralloc: invalid buffer handle")
	// ErrBadName indicates an Open call with an unknown device name
	ErrBadName = errors.New("gralloc: unknown device name")
	// ErrBadOp indicates an unknown Perform operation
	ErrBadOp = errors.New("gralloc: unknown perform operation")
	// ErrBadValue indicates an invalid argument
	ErrBadValue = errors.New("gralloc: invalid argument")
	// ErrOutOfMemory indicates that the driver refused to allocate a buffer
	ErrOutOfMemory = errors.New("gralloc: out of memory")
	// ErrUnsupported indicates that the driver does not implement an optional entry point
	ErrUnsupported = errors.New("gralloc: operation not supported by driver")
	// ErrBusy indicates that a buffer is locked and cannot be released or locked again as requested
	ErrBusy = errors.New("gralloc: buffer is busy")
)

// Status is the integer status a graphics host expects from an allocator entry point: 0 on
// success and a negated errno on failure
type Status int32

const StatusOK Status = 0

var statusMapping = []struct {
	err    error
	status Status
}{
	{ErrDeviceInit, -Status(unix.ENODEV)},
	{ErrOutOfMemory, -Status(unix.ENOMEM)},
	{ErrUnsupported, -Status(unix.EOPNOTSUPP)},
	{ErrBusy, -Status(unix.EBUSY)},
	{ErrBadFormat, -Status(unix.EINVAL)},
	{ErrBadHandle, -Status(unix.EINVAL)},
	{ErrBadName, -Status(unix.EINVAL)},
	{ErrBadOp, -Status(unix.EINVAL)},
	{ErrBadValue, -Status(unix.EINVAL)},
}

// StatusOf maps an error returned from this package to the status a graphics host expects.
// Errors of unknown kind map to -EIO.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}

	for _, entry := range statusMapping {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}

	return -Status(unix.EIO)
}

// ToError maps a status back to an error kind. Every -EINVAL status maps to ErrBadValue.
func (s Status) ToError() error {
	if s == StatusOK {
		return nil
	}

	if s == -Status(unix.EINVAL) {
		return ErrBadValue
	}

	for _, entry := range statusMapping {
		if entry.status == s {
			return entry.err
		}
	}

	return errors.Newf("gralloc: status %d", int32(s))
}

func (s Status) String() string {
	if s == StatusOK {
		return "OK"
	}
	if s < 0 {
		return fmt.Sprintf("-%s", unix.ErrnoName(unix.Errno(-s)))
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}
