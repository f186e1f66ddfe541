package gralloc

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/gralloc/driver"
	"github.com/vkngwrapper/gralloc/hal"
)

const (
	handleMagic   uint32 = 0x48425247 // "GRBH"
	handleVersion uint16 = 1

	// HandleWireSize is the length of a marshaled Handle
	HandleWireSize = 76
)

// Handle is the public, shareable description of a buffer. Everything needed to import the buffer
// into another process travels with it; the buffer object it is attached to in this process does
// not. A Handle is immutable once it has been returned from an allocation.
type Handle struct {
	driver.Descriptor
	// Origin is the ID of the module that allocated the buffer
	Origin uuid.UUID

	bo atomic.Pointer[BufferObject]
}

// Attached returns true if the handle is attached to a live buffer object in this process
func (h *Handle) Attached() bool {
	bo := h.bo.Load()
	return bo != nil && !bo.released.Load()
}

// MarshalBinary encodes the handle in a fixed little-endian layout. The process-local attachment
// is not encoded. PrimeFD is encoded as an integer: transports that carry file descriptors must
// translate it.
func (h *Handle) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, HandleWireSize)

	data = binary.LittleEndian.AppendUint32(data, handleMagic)
	data = binary.LittleEndian.AppendUint16(data, handleVersion)
	data = binary.LittleEndian.AppendUint16(data, 0)
	data = binary.LittleEndian.AppendUint32(data, h.Width)
	data = binary.LittleEndian.AppendUint32(data, h.Height)
	data = binary.LittleEndian.AppendUint32(data, uint32(h.Format))
	data = binary.LittleEndian.AppendUint32(data, uint32(h.Usage))
	data = binary.LittleEndian.AppendUint32(data, h.Pitch)
	data = binary.LittleEndian.AppendUint64(data, h.Size)
	data = binary.LittleEndian.AppendUint32(data, h.Name)
	data = binary.LittleEndian.AppendUint32(data, uint32(h.PrimeFD))
	for _, word := range h.Aux {
		data = binary.LittleEndian.AppendUint32(data, word)
	}
	data = append(data, h.Origin[:]...)

	return data, nil
}

// UnmarshalBinary decodes a handle encoded by MarshalBinary. The decoded handle is not attached
// to any buffer object: it must be registered before it can be locked.
func (h *Handle) UnmarshalBinary(data []byte) error {
	if len(data) != HandleWireSize {
		return errors.Wrapf(ErrBadHandle, "handle is %d bytes, expected %d", len(data), HandleWireSize)
	}

	magic := binary.LittleEndian.Uint32(data[0:])
	if magic != handleMagic {
		return errors.Wrapf(ErrBadHandle, "bad handle magic 0x%08x", magic)
	}

	version := binary.LittleEndian.Uint16(data[4:])
	if version != handleVersion {
		return errors.Wrapf(ErrBadHandle, "unsupported handle version %d", version)
	}

	h.Width = binary.LittleEndian.Uint32(data[8:])
	h.Height = binary.LittleEndian.Uint32(data[12:])
	h.Format = hal.PixelFormat(binary.LittleEndian.Uint32(data[16:]))
	h.Usage = hal.Usage(binary.LittleEndian.Uint32(data[20:]))
	h.Pitch = binary.LittleEndian.Uint32(data[24:])
	h.Size = binary.LittleEndian.Uint64(data[28:])
	h.Name = binary.LittleEndian.Uint32(data[36:])
	h.PrimeFD = int32(binary.LittleEndian.Uint32(data[40:]))
	for i := range h.Aux {
		h.Aux[i] = binary.LittleEndian.Uint32(data[44+i*4:])
	}
	copy(h.Origin[:], data[60:76])
	h.bo.Store(nil)

	return nil
}
