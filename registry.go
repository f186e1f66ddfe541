package gralloc

import (
	"sort"

	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/gralloc/internal/utils"
)

// registry tracks the buffers allocated through a module and not yet freed. Imported buffers are
// never entered.
type registry struct {
	mutex   utils.OptionalRWMutex
	buffers *swiss.Map[*BufferObject, *Handle]
}

type registryEntry struct {
	bo     *BufferObject
	handle *Handle
}

func (r *registry) Init(useMutex bool, size int) {
	r.mutex = utils.OptionalRWMutex{UseMutex: useMutex}
	r.buffers = swiss.NewMap[*BufferObject, *Handle](uint32(size))
}

func (r *registry) Validate() error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var err error
	r.buffers.Iter(func(bo *BufferObject, handle *Handle) bool {
		if bo.handle != handle {
			err = errors.Errorf("registry maps %s to a handle it is not attached to", bo)
			return true
		}
		if bo.imported {
			err = errors.Errorf("imported %s is present in the registry", bo)
			return true
		}
		if bo.released.Load() {
			err = errors.Errorf("released %s is present in the registry", bo)
			return true
		}
		return false
	})

	return err
}

func (r *registry) Insert(bo *BufferObject, handle *Handle) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.buffers.Has(bo) {
		panic("attempted to register " + bo.String() + " twice")
	}
	r.buffers.Put(bo, handle)
}

// Remove returns false if bo was not present
func (r *registry) Remove(bo *BufferObject) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.buffers.Delete(bo)
}

func (r *registry) Contains(bo *BufferObject) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.buffers.Has(bo)
}

func (r *registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.buffers.Count()
}

// Snapshot returns the current entries in allocation order. The registry mutex is not held once it
// returns, so callers may inspect buffer object state freely.
func (r *registry) Snapshot() []registryEntry {
	r.mutex.RLock()
	entries := make([]registryEntry, 0, r.buffers.Count())
	r.buffers.Iter(func(bo *BufferObject, handle *Handle) bool {
		entries = append(entries, registryEntry{bo: bo, handle: handle})
		return false
	})
	r.mutex.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].bo.id < entries[j].bo.id
	})

	return entries
}
