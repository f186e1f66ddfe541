package mocks

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
	"github.com/vkngwrapper/gralloc/memutils"
)

const dummyPitchAlignment = 16

type kernelObject struct {
	data []byte
	refs int
}

// DummyKernel is an in-memory stand-in for the kernel's graphics object table. Several DummyDriver
// values may share one DummyKernel to simulate processes exchanging buffers by global name.
type DummyKernel struct {
	lock     sync.Mutex
	objects  map[uint32]*kernelObject
	nextName uint32
	released int
}

func NewDummyKernel() *DummyKernel {
	return &DummyKernel{
		objects:  make(map[uint32]*kernelObject),
		nextName: 1,
	}
}

func (k *DummyKernel) create(size int) (uint32, *kernelObject) {
	k.lock.Lock()
	defer k.lock.Unlock()

	name := k.nextName
	k.nextName++
	obj := &kernelObject{data: make([]byte, size), refs: 1}
	k.objects[name] = obj
	return name, obj
}

func (k *DummyKernel) open(name uint32) (*kernelObject, error) {
	k.lock.Lock()
	defer k.lock.Unlock()

	obj, ok := k.objects[name]
	if !ok {
		return nil, errors.Newf("dummy kernel: no object named %d", name)
	}
	obj.refs++
	return obj, nil
}

func (k *DummyKernel) release(name uint32) error {
	k.lock.Lock()
	defer k.lock.Unlock()

	obj, ok := k.objects[name]
	if !ok {
		return errors.Newf("dummy kernel: no object named %d", name)
	}

	obj.refs--
	if obj.refs == 0 {
		delete(k.objects, name)
		k.released++
	}
	return nil
}

// LiveObjects returns the number of objects that at least one driver still references
func (k *DummyKernel) LiveObjects() int {
	k.lock.Lock()
	defer k.lock.Unlock()

	return len(k.objects)
}

// Released returns the number of objects whose last reference has been dropped
func (k *DummyKernel) Released() int {
	k.lock.Lock()
	defer k.lock.Unlock()

	return k.released
}

// References returns the number of driver references to the named object
func (k *DummyKernel) References(name uint32) int {
	k.lock.Lock()
	defer k.lock.Unlock()

	obj, ok := k.objects[name]
	if !ok {
		return 0
	}
	return obj.refs
}

type dummyBuffer struct {
	desc driver.Descriptor
	obj  *kernelObject
}

func (b *dummyBuffer) Descriptor() driver.Descriptor {
	return b.desc
}

// DummyDriver is a driver.Driver backed by Go byte slices. Buffers are shared by their global
// name through the DummyKernel.
type DummyDriver struct {
	Kernel *DummyKernel

	Allocs  atomic.Int32
	Imports atomic.Int32
	Frees   atomic.Int32
	Maps    atomic.Int32
	Unmaps  atomic.Int32
	Closed  atomic.Bool
}

var _ driver.Driver = &DummyDriver{}

func NewDummyDriver(kernel *DummyKernel) *DummyDriver {
	if kernel == nil {
		kernel = NewDummyKernel()
	}
	return &DummyDriver{Kernel: kernel}
}

// Factory returns a driver.Factory that hands out this driver
func (d *DummyDriver) Factory() driver.Factory {
	return func() (driver.Driver, error) {
		return d, nil
	}
}

func (d *DummyDriver) Name() string { return "dummy" }

func (d *DummyDriver) FD() int { return 42 }

func (d *DummyDriver) Alloc(desc *driver.Descriptor) (driver.Buffer, error) {
	bpp := hal.BytesPerPixel(desc.Format)
	if bpp == 0 {
		return nil, errors.Newf("dummy: unsupported format %s", desc.Format)
	}

	pitch := memutils.AlignUp(int(desc.Width)*bpp, dummyPitchAlignment)
	_, _, size := hal.PlaneOffsets(desc.Format, int(desc.Height), pitch)

	name, obj := d.Kernel.create(size)

	desc.Pitch = uint32(pitch)
	desc.Size = uint64(size)
	desc.Name = name
	desc.PrimeFD = -1

	d.Allocs.Add(1)
	return &dummyBuffer{desc: *desc, obj: obj}, nil
}

func (d *DummyDriver) Import(desc *driver.Descriptor) (driver.Buffer, error) {
	obj, err := d.Kernel.open(desc.Name)
	if err != nil {
		return nil, err
	}

	if uint64(len(obj.data)) < desc.Size {
		_ = d.Kernel.release(desc.Name)
		return nil, errors.Newf("dummy: object %d is smaller than its descriptor", desc.Name)
	}

	d.Imports.Add(1)
	return &dummyBuffer{desc: *desc, obj: obj}, nil
}

func (d *DummyDriver) Free(buf driver.Buffer) error {
	b := buf.(*dummyBuffer)
	d.Frees.Add(1)
	return d.Kernel.release(b.desc.Name)
}

func (d *DummyDriver) Map(buf driver.Buffer, rect driver.Rect, write bool) (unsafe.Pointer, error) {
	b := buf.(*dummyBuffer)
	d.Maps.Add(1)
	return unsafe.Pointer(&b.obj.data[0]), nil
}

func (d *DummyDriver) Unmap(buf driver.Buffer) error {
	d.Unmaps.Add(1)
	return nil
}

func (d *DummyDriver) ResolveFormat(buf driver.Buffer) (driver.PlaneLayout, error) {
	b := buf.(*dummyBuffer)

	var layout driver.PlaneLayout
	layout.Pitches, layout.Offsets, _ = hal.PlaneOffsets(b.desc.Format, int(b.desc.Height), int(b.desc.Pitch))
	for plane := 0; plane < len(layout.Pitches); plane++ {
		if layout.Pitches[plane] != 0 {
			layout.Handles[plane] = b.desc.Name
		}
	}

	return layout, nil
}

func (d *DummyDriver) Close() error {
	d.Closed.Store(true)
	return nil
}
