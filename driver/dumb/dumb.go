//go:build linux

// Package dumb is a back-end that allocates KMS dumb buffers from a DRM device node. Dumb buffers
// are linear and CPU-mappable on every KMS driver, so this back-end works on any display hardware
// at the cost of any GPU-specific tiling.
package dumb

import (
	"os"
	"sync"
	"unsafe"

	"github.com/NeowayLabs/drm"
	"github.com/NeowayLabs/drm/mode"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/memutils"
	"golang.org/x/exp/slog"
	"golang.org/x/sys/unix"
)

const (
	defaultDevicePath    = "/dev/dri/card0"
	planarWidthAlignment = 32
)

// Options configures a dumb-buffer driver
type Options struct {
	// DevicePath is the DRM device node to open. Empty selects /dev/dri/card0.
	DevicePath string
}

type buffer struct {
	desc   driver.Descriptor
	handle uint32
	owned  bool
	mem    []byte
}

func (b *buffer) Descriptor() driver.Descriptor {
	return b.desc
}

// Driver allocates dumb buffers from one DRM device
type Driver struct {
	logger *slog.Logger
	file   *os.File
	name   string

	// The kernel returns the same GEM handle every time one file imports the same object, so
	// handles are reference counted here and closed with their last user
	handleLock sync.Mutex
	handleRefs map[uint32]int
}

var _ driver.Driver = &Driver{}
var _ driver.Resolver = &Driver{}

// New opens the DRM device node and verifies that it supports dumb buffers
func New(logger *slog.Logger, options Options) (*Driver, error) {
	path := options.DevicePath
	if path == "" {
		path = defaultDevicePath
	}

	file, err := os.OpenFile(path, os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "dumb: could not open %s", path)
	}

	if !drm.HasDumbBuffer(file) {
		_ = file.Close()
		return nil, errors.Newf("dumb: %s does not support dumb buffers", path)
	}

	name := "drm"
	version, err := drm.GetVersion(file)
	if err != nil {
		logger.Warn("dumb: could not query driver version", slog.String("path", path), slog.Any("error", err))
	} else {
		name = version.Name
	}

	logger.Debug("dumb::New", slog.String("path", path), slog.String("driver", name))

	return &Driver{
		logger:     logger,
		file:       file,
		name:       name,
		handleRefs: make(map[uint32]int),
	}, nil
}

// NewFactory returns a driver.Factory that opens a dumb-buffer driver with the provided options
func NewFactory(logger *slog.Logger, options Options) driver.Factory {
	return func() (driver.Driver, error) {
		return New(logger, options)
	}
}

func (d *Driver) Name() string { return d.name }

func (d *Driver) FD() int { return int(d.file.Fd()) }

func (d *Driver) retainHandle(handle uint32) {
	d.handleLock.Lock()
	defer d.handleLock.Unlock()

	d.handleRefs[handle]++
}

func (d *Driver) releaseHandle(handle uint32) bool {
	d.handleLock.Lock()
	defer d.handleLock.Unlock()

	d.handleRefs[handle]--
	if d.handleRefs[handle] > 0 {
		return false
	}

	delete(d.handleRefs, handle)
	return true
}

func (d *Driver) Alloc(desc *driver.Descriptor) (driver.Buffer, error) {
	bpp := hal.BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, errors.Newf("dumb: unsupported format %s", desc.Format)
	}

	width := int(desc.Width)
	height := int(desc.Height)
	_, planar := hal.Planar(desc.Format)
	if planar {
		width = memutils.AlignUp(width, planarWidthAlignment)
		height = hal.AllocationHeight(desc.Format, height)
	}

	if width > 0xffff || height > 0xffff {
		return nil, errors.Newf("dumb: %dx%d exceeds the dumb buffer limits", width, height)
	}

	fb, err := mode.CreateFB(d.file, uint16(width), uint16(height), uint32(bpp*8))
	if err != nil {
		return nil, errors.Wrapf(err, "dumb: CREATE_DUMB %dx%d@%d failed", width, height, bpp*8)
	}
	d.retainHandle(fb.Handle)

	name, err := gemFlink(d.file, fb.Handle)
	if err != nil {
		// Render nodes refuse flink; the PRIME descriptor is enough to share the buffer
		d.logger.Debug("dumb: GEM_FLINK failed", slog.Any("error", err))
		name = 0
	}

	primeFD, err := primeHandleToFD(d.file, fb.Handle)
	if err != nil {
		d.logger.Debug("dumb: PRIME_HANDLE_TO_FD failed", slog.Any("error", err))
		primeFD = -1
	}

	if name == 0 && primeFD < 0 {
		d.releaseHandle(fb.Handle)
		destroyErr := mode.DestroyDumb(d.file, fb.Handle)
		if destroyErr != nil {
			d.logger.Error("dumb: failed to destroy unshareable buffer", slog.Any("error", destroyErr))
		}
		return nil, errors.New("dumb: buffer has neither a flink name nor a PRIME descriptor")
	}

	desc.Pitch = uint32(fb.Pitch)
	desc.Size = uint64(fb.Size)
	desc.Name = name
	desc.PrimeFD = primeFD

	d.logger.Debug("dumb::Alloc", slog.Uint64("handle", uint64(fb.Handle)), slog.Uint64("size", desc.Size))

	return &buffer{desc: *desc, handle: fb.Handle, owned: true}, nil
}

func (d *Driver) Import(desc *driver.Descriptor) (driver.Buffer, error) {
	var handle uint32
	var err error

	switch {
	case desc.PrimeFD >= 0:
		handle, err = primeFDToHandle(d.file, desc.PrimeFD)
		if err != nil {
			return nil, errors.Wrapf(err, "dumb: PRIME_FD_TO_HANDLE of fd %d failed", desc.PrimeFD)
		}
	case desc.Name != 0:
		var size uint64
		handle, size, err = gemOpen(d.file, desc.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "dumb: GEM_OPEN of name %d failed", desc.Name)
		}
		if size < desc.Size {
			_ = gemClose(d.file, handle)
			return nil, errors.Newf("dumb: object %d holds %d bytes but the descriptor requires %d", desc.Name, size, desc.Size)
		}
	default:
		return nil, errors.New("dumb: descriptor carries no kernel identifier")
	}

	d.retainHandle(handle)
	d.logger.Debug("dumb::Import", slog.Uint64("handle", uint64(handle)))

	return &buffer{desc: *desc, handle: handle}, nil
}

func (d *Driver) Free(buf driver.Buffer) error {
	b := buf.(*buffer)

	if b.mem != nil {
		err := unix.Munmap(b.mem)
		if err != nil {
			d.logger.Error("dumb: munmap failed", slog.Any("error", err))
		}
		b.mem = nil
	}

	if b.owned && b.desc.PrimeFD >= 0 {
		err := unix.Close(int(b.desc.PrimeFD))
		if err != nil {
			d.logger.Error("dumb: could not close PRIME descriptor", slog.Any("error", err))
		}
	}

	if !d.releaseHandle(b.handle) {
		return nil
	}

	if b.owned {
		return errors.Wrap(mode.DestroyDumb(d.file, b.handle), "dumb: DESTROY_DUMB failed")
	}
	return errors.Wrap(gemClose(d.file, b.handle), "dumb: GEM_CLOSE failed")
}

func (d *Driver) Map(buf driver.Buffer, rect driver.Rect, write bool) (unsafe.Pointer, error) {
	b := buf.(*buffer)

	if b.mem == nil {
		offset, err := mode.MapDumb(d.file, b.handle)
		if err != nil {
			return nil, errors.Wrap(err, "dumb: MAP_DUMB failed")
		}

		mem, err := unix.Mmap(int(d.file.Fd()), int64(offset), int(b.desc.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return nil, errors.Wrapf(err, "dumb: mmap of %d bytes failed", b.desc.Size)
		}
		b.mem = mem
	}

	return unsafe.Pointer(&b.mem[0]), nil
}

func (d *Driver) Unmap(buf driver.Buffer) error {
	b := buf.(*buffer)
	if b.mem == nil {
		return nil
	}

	err := unix.Munmap(b.mem)
	b.mem = nil
	return errors.Wrap(err, "dumb: munmap failed")
}

func (d *Driver) planeLayout(desc *driver.Descriptor, handle uint32) driver.PlaneLayout {
	var layout driver.PlaneLayout
	pitches, offsets, _ := hal.PlaneOffsets(desc.Format, int(desc.Height), int(desc.Pitch))
	layout.Pitches = pitches
	layout.Offsets = offsets

	for plane := 0; plane < len(pitches); plane++ {
		if pitches[plane] != 0 {
			layout.Handles[plane] = handle
		}
	}

	return layout
}

func (d *Driver) ResolveFormat(buf driver.Buffer) (driver.PlaneLayout, error) {
	b := buf.(*buffer)
	return d.planeLayout(&b.desc, b.handle), nil
}

// ResolveBuffer describes a buffer shared with this process as a PRIME descriptor. The GEM handle
// reported in out stays open until the driver is closed.
func (d *Driver) ResolveBuffer(fd int, desc *driver.Descriptor, out *driver.ExternalBuffer) error {
	handle, err := primeFDToHandle(d.file, int32(fd))
	if err != nil {
		return errors.Wrapf(err, "dumb: PRIME_FD_TO_HANDLE of fd %d failed", fd)
	}
	d.retainHandle(handle)

	out.Width = desc.Width
	out.Height = desc.Height
	out.FourCC = hal.FourCC(desc.Format)
	// Dumb buffers are always linear
	out.Modifier = 0
	out.PlaneLayout = d.planeLayout(desc, handle)

	return nil
}

func (d *Driver) Close() error {
	d.handleLock.Lock()
	for handle := range d.handleRefs {
		err := gemClose(d.file, handle)
		if err != nil {
			d.logger.Error("dumb: GEM_CLOSE at shutdown failed", slog.Any("error", err))
		}
	}
	d.handleRefs = make(map[uint32]int)
	d.handleLock.Unlock()

	return errors.Wrap(d.file.Close(), "dumb: could not close device")
}
