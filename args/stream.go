package args

import (
	"encoding/binary"

	"github.com/wnxd/micrort/device"
)

// Stream is a cursor over device memory used to pack arguments. Values
// that do not fit in a block are written out of line through a sub stream.
type Stream interface {
	BlockSize() int
	ByteOrder() binary.ByteOrder
	Offset() uint64
	Skip(int) error
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	ReadStream() (Stream, error)
	WriteStream(int) (Stream, error)
}

type Allocator = func(size uint64) (device.Pointer, error)

type pointerStream struct {
	ptr   device.Pointer
	alloc Allocator
	dev   device.LowLevelDevice
}

// PointerStream returns a Stream starting at off on dev. alloc provides the
// space for out of line data and may be nil for read only streams.
func PointerStream(dev device.LowLevelDevice, off device.DevBaseOffset, alloc Allocator) Stream {
	return &pointerStream{device.ToPointer(dev, off), alloc, dev}
}

func (ps *pointerStream) BlockSize() int {
	return ps.dev.PointerSize()
}

func (ps *pointerStream) ByteOrder() binary.ByteOrder {
	return ps.dev.ByteOrder()
}

func (ps *pointerStream) Offset() uint64 {
	return uint64(ps.ptr.Address())
}

func (ps *pointerStream) Skip(n int) error {
	ps.ptr = ps.ptr.Add(uint64(n))
	return nil
}

func (ps *pointerStream) Read(b []byte) (int, error) {
	n, err := ps.ptr.ReadAt(b, 0)
	if err == nil {
		ps.Skip(n)
	}
	return n, err
}

func (ps *pointerStream) Write(b []byte) (int, error) {
	n, err := ps.ptr.WriteAt(b, 0)
	if err == nil {
		ps.Skip(n)
	}
	return n, err
}

func (ps *pointerStream) ReadStream() (Stream, error) {
	addr, err := ps.ptr.ReadPointer()
	if err != nil {
		return nil, err
	}
	ps.Skip(ps.BlockSize())
	off, err := addr.Offset(ps.dev.BaseAddr())
	if err != nil {
		return nil, err
	}
	return PointerStream(ps.dev, off, ps.alloc), nil
}

func (ps *pointerStream) WriteStream(size int) (Stream, error) {
	if ps.alloc == nil {
		return nil, ErrReadOnly
	}
	ptr, err := ps.alloc(uint64(size))
	if err != nil {
		return nil, err
	}
	if err = ps.ptr.WritePointer(ptr.Address()); err != nil {
		return nil, err
	}
	ps.Skip(ps.BlockSize())
	return PointerStream(ps.dev, ptr.Offset(), ps.alloc), nil
}
