package device

import "slices"

// Pointer is a position in the memory of one device.
type Pointer struct {
	dev LowLevelDevice
	off DevBaseOffset
}

func ToPointer(dev LowLevelDevice, off DevBaseOffset) Pointer {
	return Pointer{dev, off}
}

func (p Pointer) Offset() DevBaseOffset {
	return p.off
}

func (p Pointer) Address() DevAddr {
	return p.off.Addr(p.dev.BaseAddr())
}

func (p Pointer) Add(n uint64) Pointer {
	return Pointer{p.dev, p.off.Add(n)}
}

func (p Pointer) MemRead(size uint64) ([]byte, error) {
	return p.dev.Read(p.off, size)
}

func (p Pointer) MemWrite(data []byte) error {
	return p.dev.Write(p.off, data)
}

func (p Pointer) MemReadString() (string, error) {
	var data []byte
	const chunk = 0x10
	for begin := p.off; ; begin = begin.Add(chunk) {
		buf, err := p.dev.Read(begin, chunk)
		if err != nil {
			return "", err
		}
		i := slices.Index(buf, 0)
		if i == -1 {
			data = append(data, buf...)
		} else {
			data = append(data, buf[:i]...)
			break
		}
	}
	return string(data), nil
}

// ReadPointer reads a device pointer stored at p.
func (p Pointer) ReadPointer() (DevAddr, error) {
	raw, err := p.dev.Read(p.off, uint64(p.dev.PointerSize()))
	if err != nil {
		return 0, err
	}
	return DecodePointer(p.dev, raw)
}

// WritePointer stores addr at p using the device pointer width and byte order.
func (p Pointer) WritePointer(addr DevAddr) error {
	raw, err := EncodePointer(p.dev, addr)
	if err != nil {
		return err
	}
	return p.dev.Write(p.off, raw)
}

func (p Pointer) ReadAt(b []byte, off int64) (int, error) {
	data, err := p.dev.Read(p.off.Add(uint64(off)), uint64(len(b)))
	if err != nil {
		return 0, err
	}
	return copy(b, data), nil
}

func (p Pointer) WriteAt(b []byte, off int64) (int, error) {
	if err := p.dev.Write(p.off.Add(uint64(off)), b); err != nil {
		return 0, err
	}
	return len(b), nil
}
