// Package driver defines the contract between the gralloc façade and the back-ends that own kernel
// graphics memory. A back-end is selected once, when the façade brings up its device, through a
// Factory.
package driver

//go:generate mockgen -package mocks -destination ../internal/mocks/driver.go github.com/vkngwrapper/gralloc/driver Driver,Resolver,Buffer

import (
	"unsafe"

	"github.com/vkngwrapper/gralloc/hal"
)

// Descriptor is the self-describing record of a driver buffer. The façade fills in the geometry
// before calling Driver.Alloc, and the driver fills in Pitch, Size and the kernel identifiers. The
// same record travels inside a public handle, so Driver.Import receives exactly what Alloc produced,
// possibly in another process.
type Descriptor struct {
	Width  uint32
	Height uint32
	Format hal.PixelFormat
	Usage  hal.Usage

	// Pitch is the byte distance between the starts of two consecutive rows of the first plane
	Pitch uint32
	// Size is the total byte size of the buffer, all planes included
	Size uint64

	// Name is the global GEM flink name of the buffer, or 0 if the driver does not use flink names
	Name uint32
	// PrimeFD is a dmabuf/shareable file descriptor for the buffer, or -1 if there is none
	PrimeFD int32
	// Aux is reserved for driver-private words
	Aux [4]uint32
}

// Buffer is a driver-private buffer object. The façade never looks inside it.
type Buffer interface {
	// Descriptor returns the descriptor the buffer was created or imported with
	Descriptor() Descriptor
}

// Rect is a region of a buffer, in pixels
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// PlaneLayout reports per-plane byte pitches and offsets together with the kernel handle of the
// memory object containing each plane. Unused planes are zero.
type PlaneLayout struct {
	Pitches [4]uint32
	Offsets [4]uint32
	Handles [4]uint32
}

// ExternalBuffer is filled by Resolver.ResolveBuffer with the layout of a buffer that was allocated
// outside this module
type ExternalBuffer struct {
	Width    uint32
	Height   uint32
	FourCC   uint32
	Modifier uint64
	PlaneLayout
}

// Driver is a back-end that owns kernel graphics memory
type Driver interface {
	// Name returns the name of the kernel driver or back-end
	Name() string
	// FD returns the file descriptor of the underlying device, or -1 if there is none
	FD() int

	// Alloc creates a new buffer for the geometry in desc, and fills desc's Pitch, Size, Name and
	// PrimeFD fields
	Alloc(desc *Descriptor) (Buffer, error)
	// Import materializes a buffer from the kernel identifiers in desc, which was produced by Alloc
	// in this or another process
	Import(desc *Descriptor) (Buffer, error)
	// Free releases the driver's reference to buf
	Free(buf Buffer) error

	// Map makes the buffer's memory visible to the CPU and returns a pointer to its first byte.
	// The rect is a hint and may be ignored.
	Map(buf Buffer, rect Rect, write bool) (unsafe.Pointer, error)
	// Unmap undoes a previous Map
	Unmap(buf Buffer) error

	// ResolveFormat reports the plane layout of buf
	ResolveFormat(buf Buffer) (PlaneLayout, error)

	// Close releases the device
	Close() error
}

// Resolver is implemented by drivers that can describe buffers allocated by other components
type Resolver interface {
	ResolveBuffer(fd int, desc *Descriptor, out *ExternalBuffer) error
}

// Factory opens a driver. It is called once, the first time the façade needs a device.
type Factory func() (Driver, error)
