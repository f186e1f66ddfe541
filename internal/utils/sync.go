package utils

import (
	"sync"
)

// OptionalMutex guards per-buffer lock state and device bring-up. It does nothing when the
// module was created with ModuleCreateExternallySynchronized.
type OptionalMutex struct {
	Mutex    sync.Mutex
	UseMutex bool
}

// Lock acquires the mutex if it is in use
func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}

// OptionalRWMutex guards the buffer registry, letting dumps and statistics read it together
type OptionalRWMutex struct {
	Mutex    sync.RWMutex
	UseMutex bool
}

func (m *OptionalRWMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalRWMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}

// RLock acquires a read lock if the mutex is in use
func (m *OptionalRWMutex) RLock() {
	if m.UseMutex {
		m.Mutex.RLock()
	}
}

func (m *OptionalRWMutex) RUnlock() {
	if m.UseMutex {
		m.Mutex.RUnlock()
	}
}
