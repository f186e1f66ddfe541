// Package gralloc is a graphics buffer allocator for display and compositor stacks. It allocates
// GPU-visible pixel buffers through a driver back-end, wraps them in handles that can be shared
// between processes, and mediates CPU access to their pixels.
//
// A Module is created with New and handed the driver.Factory that will be used to bring up its
// device the first time one is needed. Buffers are allocated and freed through the AllocDevice
// returned from Module.Open; every other buffer operation lives on the Module itself.
package gralloc

import (
	"io"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/internal/utils"
	"github.com/vkngwrapper/gralloc/memutils"
	"golang.org/x/exp/slog"
)

// DeviceGPU0 is the only device name Open accepts
const DeviceGPU0 = "gpu0"

// ModuleInfo identifies the module to a graphics host
type ModuleInfo struct {
	Tag          uint32
	VersionMajor uint16
	VersionMinor uint16
	ID           string
	Name         string
	Author       string
}

var moduleInfo = ModuleInfo{
	Tag:          'H'<<24 | 'W'<<16 | 'M'<<8 | 'T',
	VersionMajor: 1,
	VersionMinor: 0,
	ID:           "gralloc",
	Name:         "DRM Memory Allocator",
	Author:       "Chia-I Wu",
}

type Module struct {
	useMutex      bool
	logger        *slog.Logger
	id            uuid.UUID
	factory       driver.Factory
	defaultFormat hal.PixelFormat

	deviceMutex utils.OptionalMutex
	device      atomic.Pointer[device]

	registry     registry
	nextBufferID atomic.Uint64
}

// New creates a module. No device is opened until the first operation needs one. A nil logger
// discards all output.
func New(logger *slog.Logger, factory driver.Factory, options CreateOptions) *Module {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	useMutex := options.Flags&ModuleCreateExternallySynchronized == 0

	defaultFormat := options.DefaultFormat
	if defaultFormat == 0 {
		defaultFormat = hal.FormatRGBA8888
	}

	registrySize := options.RegistrySizeHint
	if registrySize <= 0 {
		registrySize = defaultRegistrySize
	}

	m := &Module{
		useMutex:      useMutex,
		logger:        logger,
		id:            uuid.New(),
		factory:       factory,
		defaultFormat: defaultFormat,
		deviceMutex: utils.OptionalMutex{
			UseMutex: useMutex,
		},
	}
	m.registry.Init(useMutex, registrySize)

	return m
}

// ID returns the identity stamped into the handles this module allocates
func (m *Module) ID() uuid.UUID {
	return m.id
}

// Info returns the module identification record
func (m *Module) Info() ModuleInfo {
	return moduleInfo
}

// Open opens the named allocation device. The only valid name is DeviceGPU0.
func (m *Module) Open(name string) (*AllocDevice, error) {
	m.logger.Debug("Module::Open", slog.String("name", name))

	if name != DeviceGPU0 {
		return nil, errors.Wrapf(ErrBadName, "device %q", name)
	}

	_, err := m.ensureDevice()
	if err != nil {
		return nil, err
	}

	return &AllocDevice{module: m}, nil
}

// resolve finds the live buffer object in this module that h is attached to
func (m *Module) resolve(h *Handle) (*BufferObject, error) {
	if h == nil {
		return nil, errors.Wrap(ErrBadHandle, "nil handle")
	}

	bo := h.bo.Load()
	if bo == nil {
		return nil, errors.Wrap(ErrBadHandle, "handle is not registered in this process")
	}
	if bo.module != m {
		return nil, errors.Wrap(ErrBadHandle, "handle belongs to another module")
	}
	if bo.released.Load() {
		return nil, errors.Wrap(ErrBadHandle, "buffer has been released")
	}

	return bo, nil
}

func (m *Module) allocate(width, height int, format hal.PixelFormat, usage hal.Usage) (*Handle, int, error) {
	dev, err := m.ensureDevice()
	if err != nil {
		return nil, 0, err
	}

	if width <= 0 || height <= 0 {
		return nil, 0, errors.Wrapf(ErrBadValue, "invalid buffer size %dx%d", width, height)
	}

	if format == hal.FormatImplementationDefined {
		m.logger.Debug("substituting default format", slog.String("format", m.defaultFormat.String()))
		format = m.defaultFormat
	}

	bpp := hal.BytesPerPixel(format)
	if bpp == 0 {
		return nil, 0, errors.Wrapf(ErrBadFormat, "format %s", format)
	}

	desc := driver.Descriptor{
		Width:   uint32(width),
		Height:  uint32(height),
		Format:  format,
		Usage:   usage,
		PrimeFD: -1,
	}

	buf, err := dev.driver.Alloc(&desc)
	if err != nil {
		return nil, 0, errors.Mark(errors.Wrapf(err, "driver failed to allocate %dx%d %s", width, height, format), ErrOutOfMemory)
	}
	if buf == nil {
		return nil, 0, errors.Mark(errors.AssertionFailedf("driver returned no buffer and no error"), ErrOutOfMemory)
	}

	if int(desc.Pitch) < width*bpp {
		err = errors.AssertionFailedf("driver returned pitch %d for a row of %d bytes", desc.Pitch, width*bpp)

		freeErr := dev.driver.Free(buf)
		if freeErr != nil {
			m.logger.Error("failed to free buffer with bad pitch", slog.Any("error", freeErr))
		}

		return nil, 0, errors.Mark(err, ErrOutOfMemory)
	}

	handle := &Handle{
		Descriptor: desc,
		Origin:     m.id,
	}
	bo := newBufferObject(m, handle, buf, false)
	handle.bo.Store(bo)

	m.registry.Insert(bo, handle)
	memutils.DebugValidate(&m.registry)

	return handle, int(desc.Pitch) / bpp, nil
}

func (m *Module) free(h *Handle) error {
	dev, err := m.ensureDevice()
	if err != nil {
		return err
	}

	bo, err := m.resolve(h)
	if err != nil {
		return err
	}

	bo.lockMutex.Lock()

	if bo.lockCount > 0 {
		bo.lockMutex.Unlock()
		return errors.Wrapf(ErrBusy, "cannot free locked %s", bo)
	}

	// Removing first means a duplicate free can never drop a second reference
	if !m.registry.Remove(bo) {
		bo.lockMutex.Unlock()
		return errors.Wrapf(ErrBadHandle, "%s was not allocated by this module or was already freed", bo)
	}

	last := bo.dropReference()
	bo.lockMutex.Unlock()

	memutils.DebugValidate(&m.registry)

	if last {
		m.releaseDriverBuffer(dev, bo)
	}

	return nil
}

func (m *Module) releaseDriverBuffer(dev *device, bo *BufferObject) {
	err := dev.driver.Free(bo.buffer)
	if err != nil {
		m.logger.Error("driver failed to free buffer", slog.String("buffer", bo.String()), slog.Any("error", err))
	}
}

// RegisterBuffer makes a handle usable in this module. A handle already attached to a buffer
// object of this module gains a reference; any other handle is imported through the driver
// into a new buffer object.
func (m *Module) RegisterBuffer(h *Handle) error {
	m.logger.Debug("Module::RegisterBuffer")

	dev, err := m.ensureDevice()
	if err != nil {
		return err
	}

	if h == nil {
		return errors.Wrap(ErrBadHandle, "nil handle")
	}

	for {
		existing := h.bo.Load()

		if existing != nil && existing.module == m {
			existing.lockMutex.Lock()
			if !existing.released.Load() {
				existing.addReference()
				existing.lockMutex.Unlock()
				return nil
			}
			existing.lockMutex.Unlock()
		} else if existing != nil && !existing.released.Load() {
			return errors.Wrap(ErrBadHandle, "handle is attached to another module in this process")
		}

		bo, err := m.importHandle(dev, h)
		if err != nil {
			return err
		}

		if h.bo.CompareAndSwap(existing, bo) {
			return nil
		}

		// Another goroutine attached the handle first
		bo.released.Store(true)
		m.releaseDriverBuffer(dev, bo)
	}
}

func (m *Module) importHandle(dev *device, h *Handle) (*BufferObject, error) {
	if h.Width == 0 || h.Height == 0 || hal.BytesPerPixel(h.Format) == 0 {
		return nil, errors.Wrapf(ErrBadHandle, "handle describes an invalid %dx%d %s buffer", h.Width, h.Height, h.Format)
	}

	desc := h.Descriptor
	buf, err := dev.driver.Import(&desc)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "driver failed to import buffer"), ErrBadHandle)
	}
	if buf == nil {
		return nil, errors.Mark(errors.AssertionFailedf("driver imported no buffer and returned no error"), ErrBadHandle)
	}

	return newBufferObject(m, h, buf, true), nil
}

// UnregisterBuffer drops a reference taken by RegisterBuffer. The driver buffer is released with
// the last reference.
func (m *Module) UnregisterBuffer(h *Handle) error {
	m.logger.Debug("Module::UnregisterBuffer")

	dev, err := m.ensureDevice()
	if err != nil {
		return err
	}

	bo, err := m.resolve(h)
	if err != nil {
		return err
	}

	bo.lockMutex.Lock()

	if bo.lockCount > 0 {
		bo.lockMutex.Unlock()
		return errors.Wrapf(ErrBusy, "cannot unregister locked %s", bo)
	}

	// A concurrent unregister may have dropped the last reference after resolve
	if bo.released.Load() {
		bo.lockMutex.Unlock()
		return errors.Wrapf(ErrBadHandle, "%s has already been released", bo)
	}

	if bo.References() == 1 && m.registry.Contains(bo) {
		bo.lockMutex.Unlock()
		return errors.Wrapf(ErrBadHandle, "%s holds no registration; it must be freed through its device", bo)
	}

	last := bo.dropReference()
	bo.lockMutex.Unlock()

	if last {
		m.releaseDriverBuffer(dev, bo)
	}

	return nil
}

// Lock locks a buffer for the provided usage. If the usage includes CPU access, the buffer is
// mapped and the address of its first pixel is returned; otherwise the returned pointer is nil.
// The region is a hint but must lie inside the buffer.
func (m *Module) Lock(h *Handle, usage hal.Usage, rect driver.Rect) (unsafe.Pointer, error) {
	m.logger.Debug("Module::Lock")

	dev, err := m.ensureDevice()
	if err != nil {
		return nil, err
	}

	bo, err := m.resolve(h)
	if err != nil {
		return nil, err
	}

	return bo.lock(dev.driver, usage, rect)
}

// Unlock releases one lock taken by Lock or LockYCbCr
func (m *Module) Unlock(h *Handle) error {
	m.logger.Debug("Module::Unlock")

	dev, err := m.ensureDevice()
	if err != nil {
		return err
	}

	bo, err := m.resolve(h)
	if err != nil {
		return err
	}

	return bo.unlock(dev.driver)
}

// CalculateStatistics adds the buffers allocated through this module and not yet freed to stats
func (m *Module) CalculateStatistics(stats *memutils.Statistics) {
	m.logger.Debug("Module::CalculateStatistics")

	var local memutils.Statistics
	for _, entry := range m.registry.Snapshot() {
		locked, mapped, _ := entry.bo.lockState()
		local.AddBuffer(entry.bo.Size(), locked, mapped)
	}

	stats.AddStatistics(&local)
}
