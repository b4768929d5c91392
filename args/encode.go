package args

import (
	"errors"
	"fmt"
	"math"

	"github.com/wnxd/micrort/device"
)

var (
	ErrReadOnly  = errors.New("stream is read only")
	ErrBlockSize = errors.New("block size unsupported")
	ErrCorrupted = errors.New("argument block corrupted")
)

// MaxPayload is the limit Decode applies to a packed list.
const MaxPayload = 1 << 20

// Encode packs list into stream.
//
// The layout is one block holding the argument count followed by a tag block
// and a value block per argument. The tag carries the kind in its low byte and
// the payload length above it. Bytes and strings are written out of line and
// the value block holds their address; strings keep a trailing NUL so device
// code may treat them as C strings. Floats use the block width, so they are
// narrowed to float32 on 32-bit devices, and integers are truncated likewise.
func Encode(stream Stream, list List) error {
	if err := checkBlockSize(stream); err != nil {
		return err
	}
	if err := writeBlock(stream, uint64(len(list))); err != nil {
		return err
	}
	for i, a := range list {
		if err := encodeArg(stream, a); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}

func encodeArg(stream Stream, a Arg) error {
	tag := uint64(a.kind) | uint64(len(a.data))<<8
	if err := writeBlock(stream, tag); err != nil {
		return err
	}
	switch a.kind {
	case KindNull:
		return writeBlock(stream, 0)
	case KindInt, KindUint:
		return writeBlock(stream, a.bits)
	case KindHandle:
		if stream.BlockSize() == 4 && a.bits > math.MaxUint32 {
			return fmt.Errorf("%w: handle %s does not fit in 32 bits", device.ErrPointerSize, a.Handle())
		}
		return writeBlock(stream, a.bits)
	case KindFloat:
		if stream.BlockSize() == 4 {
			return writeBlock(stream, uint64(math.Float32bits(float32(a.Float()))))
		}
		return writeBlock(stream, a.bits)
	case KindBytes, KindString:
		size := len(a.data)
		if a.kind == KindString {
			size++
		}
		sub, err := stream.WriteStream(max(size, 1))
		if err != nil {
			return err
		}
		data := a.data
		if a.kind == KindString {
			data = append(append([]byte(nil), a.data...), 0)
		}
		_, err = sub.Write(data)
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, a.kind)
}

// Decode reads back a list written by Encode.
func Decode(stream Stream) (List, error) {
	return DecodeLimit(stream, MaxPayload)
}

// DecodeLimit is Decode for a list packed into limit bytes, usually the size
// of the args region. Counts and payload lengths that cannot fit are
// reported as ErrCorrupted.
func DecodeLimit(stream Stream, limit uint64) (List, error) {
	if err := checkBlockSize(stream); err != nil {
		return nil, err
	}
	count, err := readBlock(stream)
	if err != nil {
		return nil, err
	}
	if count > limit/uint64(2*stream.BlockSize()) {
		return nil, fmt.Errorf("%w: %d arguments", ErrCorrupted, count)
	}
	var list List
	for i := uint64(0); i < count; i++ {
		a, err := decodeArg(stream, limit)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		list = append(list, a)
	}
	return list, nil
}

func decodeArg(stream Stream, limit uint64) (Arg, error) {
	tag, err := readBlock(stream)
	if err != nil {
		return Arg{}, err
	}
	kind, size := Kind(tag&0xFF), tag>>8
	if kind > KindString {
		return Arg{}, fmt.Errorf("%w: tag %#x", ErrCorrupted, tag)
	}
	if kind == KindBytes || kind == KindString {
		if size > limit {
			return Arg{}, fmt.Errorf("%w: %s of %d bytes", ErrCorrupted, kind, size)
		}
		sub, err := stream.ReadStream()
		if err != nil {
			return Arg{}, err
		}
		data := make([]byte, size)
		if _, err = sub.Read(data); err != nil {
			return Arg{}, err
		}
		return Arg{kind: kind, data: data}, nil
	}
	v, err := readBlock(stream)
	if err != nil {
		return Arg{}, err
	}
	narrow := stream.BlockSize() == 4
	switch kind {
	case KindInt:
		if narrow {
			return Int(int64(int32(uint32(v)))), nil
		}
		return Int(int64(v)), nil
	case KindFloat:
		if narrow {
			return Float(float64(math.Float32frombits(uint32(v)))), nil
		}
		return Arg{kind: KindFloat, bits: v}, nil
	case KindNull:
		return Null(), nil
	}
	return Arg{kind: kind, bits: v}, nil
}

func checkBlockSize(stream Stream) error {
	if bs := stream.BlockSize(); bs != 4 && bs != 8 {
		return fmt.Errorf("%w: %d", ErrBlockSize, bs)
	}
	return nil
}

func writeBlock(stream Stream, v uint64) error {
	buf := make([]byte, stream.BlockSize())
	if len(buf) == 4 {
		stream.ByteOrder().PutUint32(buf, uint32(v))
	} else {
		stream.ByteOrder().PutUint64(buf, v)
	}
	_, err := stream.Write(buf)
	return err
}

func readBlock(stream Stream) (uint64, error) {
	buf := make([]byte, stream.BlockSize())
	if _, err := stream.Read(buf); err != nil {
		return 0, err
	}
	if len(buf) == 4 {
		return uint64(stream.ByteOrder().Uint32(buf)), nil
	}
	return stream.ByteOrder().Uint64(buf), nil
}
