// Package device describes the raw memory surface of a micro device and ships
// two implementations of it: a paged host memory model and an adapter over an
// emulator.
package device

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DevBaseOffset is an offset relative to the base address of a LowLevelDevice.
type DevBaseOffset uint64

// DevAddr is an absolute address in device memory space.
type DevAddr uint64

func (off DevBaseOffset) Addr(base DevAddr) DevAddr {
	return base + DevAddr(off)
}

func (off DevBaseOffset) Add(n uint64) DevBaseOffset {
	return off + DevBaseOffset(n)
}

func (off DevBaseOffset) String() string {
	return fmt.Sprintf("+%#x", uint64(off))
}

func (addr DevAddr) Offset(base DevAddr) (DevBaseOffset, error) {
	if addr < base {
		return 0, fmt.Errorf("%w: %#x < %#x", ErrBelowBase, uint64(addr), uint64(base))
	}
	return DevBaseOffset(addr - base), nil
}

func (addr DevAddr) String() string {
	return fmt.Sprintf("%#x", uint64(addr))
}

// LowLevelDevice gives offset addressed access to device memory.
type LowLevelDevice interface {
	io.Closer
	BaseAddr() DevAddr
	PointerSize() int
	ByteOrder() binary.ByteOrder
	Read(off DevBaseOffset, size uint64) ([]byte, error)
	Write(off DevBaseOffset, data []byte) error
}

// EncodePointer encodes addr as a pointer sized value for dev.
func EncodePointer(dev LowLevelDevice, addr DevAddr) ([]byte, error) {
	buf := make([]byte, dev.PointerSize())
	switch len(buf) {
	case 4:
		if uint64(addr) > 0xFFFFFFFF {
			return nil, fmt.Errorf("%w: %s does not fit in 32 bits", ErrPointerSize, addr)
		}
		dev.ByteOrder().PutUint32(buf, uint32(addr))
	case 8:
		dev.ByteOrder().PutUint64(buf, uint64(addr))
	default:
		return nil, fmt.Errorf("%w: %d", ErrPointerSize, len(buf))
	}
	return buf, nil
}

// DecodePointer is the inverse of EncodePointer.
func DecodePointer(dev LowLevelDevice, raw []byte) (DevAddr, error) {
	if len(raw) != dev.PointerSize() {
		return 0, fmt.Errorf("%w: got %d bytes", ErrPointerSize, len(raw))
	}
	switch len(raw) {
	case 4:
		return DevAddr(dev.ByteOrder().Uint32(raw)), nil
	case 8:
		return DevAddr(dev.ByteOrder().Uint64(raw)), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrPointerSize, len(raw))
}
