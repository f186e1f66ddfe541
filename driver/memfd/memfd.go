//go:build linux

// Package memfd is a software back-end that backs every buffer with an anonymous shared memory file.
// Buffers are shared between processes by passing the file descriptor, which travels in the
// descriptor's PrimeFD field.
package memfd

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/memutils"
	"golang.org/x/exp/slog"
	"golang.org/x/sys/unix"
)

const (
	defaultPitchAlignment = 64
	defaultNamePrefix     = "gralloc"
)

// Options configures a memfd driver
type Options struct {
	// PitchAlignment is the byte alignment of the first plane's rows. It must be a power of two.
	// 0 selects a 64-byte alignment.
	PitchAlignment int
	// NamePrefix is prepended to the debug name of every memory file
	NamePrefix string
}

type buffer struct {
	desc driver.Descriptor
	fd   int
	mem  []byte
}

func (b *buffer) Descriptor() driver.Descriptor {
	return b.desc
}

// Driver allocates buffers from memfd_create
type Driver struct {
	logger *slog.Logger

	pitchAlignment int
	namePrefix     string

	serial      atomic.Uint64
	liveBuffers atomic.Int64
}

var _ driver.Driver = &Driver{}

// New creates a memfd driver
func New(logger *slog.Logger, options Options) (*Driver, error) {
	if options.PitchAlignment == 0 {
		options.PitchAlignment = defaultPitchAlignment
	}
	if options.NamePrefix == "" {
		options.NamePrefix = defaultNamePrefix
	}

	err := memutils.CheckPow2(options.PitchAlignment, "PitchAlignment")
	if err != nil {
		return nil, err
	}

	return &Driver{
		logger:         logger,
		pitchAlignment: options.PitchAlignment,
		namePrefix:     options.NamePrefix,
	}, nil
}

// NewFactory returns a driver.Factory that opens a memfd driver with the provided options
func NewFactory(logger *slog.Logger, options Options) driver.Factory {
	return func() (driver.Driver, error) {
		return New(logger, options)
	}
}

func (d *Driver) Name() string { return "memfd" }

func (d *Driver) FD() int { return -1 }

// LiveBuffers returns the number of buffers that have been allocated or imported and not yet freed
func (d *Driver) LiveBuffers() int {
	return int(d.liveBuffers.Load())
}

func (d *Driver) Alloc(desc *driver.Descriptor) (driver.Buffer, error) {
	bpp := hal.BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, errors.Newf("memfd: unsupported format %s", desc.Format)
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, errors.Newf("memfd: invalid size %dx%d", desc.Width, desc.Height)
	}

	memutils.DebugCheckPow2(d.pitchAlignment, "PitchAlignment")
	pitch := memutils.AlignUp(int(desc.Width)*bpp, d.pitchAlignment)
	_, _, size := hal.PlaneOffsets(desc.Format, int(desc.Height), pitch)

	name := fmt.Sprintf("%s-%d", d.namePrefix, d.serial.Add(1))
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "memfd: memfd_create failed")
	}

	err = unix.Ftruncate(fd, int64(size))
	if err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "memfd: could not size %s to %d bytes", name, size)
	}

	desc.Pitch = uint32(pitch)
	desc.Size = uint64(size)
	desc.Name = 0
	desc.PrimeFD = int32(fd)

	d.liveBuffers.Add(1)
	d.logger.Debug("memfd::Alloc", slog.String("name", name), slog.Int("fd", fd), slog.Int("size", size))

	return &buffer{desc: *desc, fd: fd}, nil
}

func (d *Driver) Import(desc *driver.Descriptor) (driver.Buffer, error) {
	if desc.PrimeFD < 0 {
		return nil, errors.New("memfd: descriptor carries no file descriptor")
	}

	fd, err := unix.Dup(int(desc.PrimeFD))
	if err != nil {
		return nil, errors.Wrapf(err, "memfd: could not duplicate fd %d", desc.PrimeFD)
	}

	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "memfd: could not stat fd %d", desc.PrimeFD)
	}

	if uint64(stat.Size) < desc.Size {
		_ = unix.Close(fd)
		return nil, errors.Newf("memfd: fd %d holds %d bytes but the descriptor requires %d", desc.PrimeFD, stat.Size, desc.Size)
	}

	imported := *desc
	imported.PrimeFD = int32(fd)

	d.liveBuffers.Add(1)
	d.logger.Debug("memfd::Import", slog.Int("fd", fd))

	return &buffer{desc: imported, fd: fd}, nil
}

func (d *Driver) Free(buf driver.Buffer) error {
	b := buf.(*buffer)

	var unmapErr error
	if b.mem != nil {
		unmapErr = unix.Munmap(b.mem)
		b.mem = nil
	}

	err := unix.Close(b.fd)
	b.fd = -1
	d.liveBuffers.Add(-1)

	if unmapErr != nil {
		return errors.Wrap(unmapErr, "memfd: munmap failed")
	}
	return errors.Wrap(err, "memfd: close failed")
}

func (d *Driver) Map(buf driver.Buffer, rect driver.Rect, write bool) (unsafe.Pointer, error) {
	b := buf.(*buffer)

	if b.mem == nil {
		// Mappings are shared by every lock on the buffer, so they are always writable
		mem, err := unix.Mmap(b.fd, 0, int(b.desc.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return nil, errors.Wrapf(err, "memfd: mmap of %d bytes failed", b.desc.Size)
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
	return errors.Wrap(err, "memfd: munmap failed")
}

func (d *Driver) ResolveFormat(buf driver.Buffer) (driver.PlaneLayout, error) {
	b := buf.(*buffer)

	var layout driver.PlaneLayout
	pitches, offsets, _ := hal.PlaneOffsets(b.desc.Format, int(b.desc.Height), int(b.desc.Pitch))
	layout.Pitches = pitches
	layout.Offsets = offsets

	for plane := 0; plane < len(pitches); plane++ {
		if pitches[plane] != 0 {
			layout.Handles[plane] = uint32(b.fd)
		}
	}

	return layout, nil
}

func (d *Driver) Close() error {
	live := d.liveBuffers.Load()
	if live > 0 {
		d.logger.Warn("memfd::Close with live buffers", slog.Int64("buffers", live))
	}
	return nil
}
