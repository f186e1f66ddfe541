//go:build linux

package dumb

import (
	"os"
	"unsafe"

	"github.com/NeowayLabs/drm"
	"github.com/NeowayLabs/drm/ioctl"
	"golang.org/x/sys/unix"
)

type (
	sysGemClose struct {
		handle uint32
		pad    uint32
	}

	sysGemFlink struct {
		handle uint32
		name   uint32
	}

	sysGemOpen struct {
		name   uint32
		handle uint32
		size   uint64
	}

	sysPrimeHandle struct {
		handle uint32
		flags  uint32
		fd     int32
	}
)

const primeFlags = unix.O_CLOEXEC | unix.O_RDWR

var (
	// DRM_IOW(0x09, struct drm_gem_close)
	IOCTLGemClose = ioctl.NewCode(ioctl.Write,
		uint16(unsafe.Sizeof(sysGemClose{})), drm.IOCTLBase, 0x09)

	// DRM_IOWR(0x0A, struct drm_gem_flink)
	IOCTLGemFlink = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGemFlink{})), drm.IOCTLBase, 0x0A)

	// DRM_IOWR(0x0B, struct drm_gem_open)
	IOCTLGemOpen = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysGemOpen{})), drm.IOCTLBase, 0x0B)

	// DRM_IOWR(0x2D, struct drm_prime_handle)
	IOCTLPrimeHandleToFD = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysPrimeHandle{})), drm.IOCTLBase, 0x2D)

	// DRM_IOWR(0x2E, struct drm_prime_handle)
	IOCTLPrimeFDToHandle = ioctl.NewCode(ioctl.Read|ioctl.Write,
		uint16(unsafe.Sizeof(sysPrimeHandle{})), drm.IOCTLBase, 0x2E)
)

func gemClose(file *os.File, handle uint32) error {
	return ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLGemClose),
		uintptr(unsafe.Pointer(&sysGemClose{handle: handle})))
}

func gemFlink(file *os.File, handle uint32) (uint32, error) {
	req := &sysGemFlink{handle: handle}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLGemFlink),
		uintptr(unsafe.Pointer(req)))
	if err != nil {
		return 0, err
	}
	return req.name, nil
}

func gemOpen(file *os.File, name uint32) (uint32, uint64, error) {
	req := &sysGemOpen{name: name}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLGemOpen),
		uintptr(unsafe.Pointer(req)))
	if err != nil {
		return 0, 0, err
	}
	return req.handle, req.size, nil
}

func primeHandleToFD(file *os.File, handle uint32) (int32, error) {
	req := &sysPrimeHandle{handle: handle, flags: primeFlags, fd: -1}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLPrimeHandleToFD),
		uintptr(unsafe.Pointer(req)))
	if err != nil {
		return -1, err
	}
	return req.fd, nil
}

func primeFDToHandle(file *os.File, fd int32) (uint32, error) {
	req := &sysPrimeHandle{fd: fd}
	err := ioctl.Do(uintptr(file.Fd()), uintptr(IOCTLPrimeFDToHandle),
		uintptr(unsafe.Pointer(req)))
	if err != nil {
		return 0, err
	}
	return req.handle, nil
}
