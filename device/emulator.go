package device

import (
	"encoding/binary"
	"fmt"

	"github.com/wnxd/micrort/emulator"
)

// EmulatorDevice exposes the memory of an emulator as a LowLevelDevice.
type EmulatorDevice struct {
	emu     emulator.Emulator
	base    DevAddr
	ptrSize int
}

// NewEmulatorDevice maps offset zero of the device to base inside emu.
func NewEmulatorDevice(emu emulator.Emulator, base DevAddr) (*EmulatorDevice, error) {
	size, err := emu.Arch().PointerSize()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, emu.Arch())
	}
	return &EmulatorDevice{emu: emu, base: base, ptrSize: size}, nil
}

func (d *EmulatorDevice) Close() error {
	return d.emu.Close()
}

func (d *EmulatorDevice) Emulator() emulator.Emulator {
	return d.emu
}

func (d *EmulatorDevice) BaseAddr() DevAddr {
	return d.base
}

func (d *EmulatorDevice) PointerSize() int {
	return d.ptrSize
}

func (d *EmulatorDevice) ByteOrder() binary.ByteOrder {
	return d.emu.ByteOrder().Binary()
}

func (d *EmulatorDevice) Read(off DevBaseOffset, size uint64) ([]byte, error) {
	return d.emu.MemRead(uint64(off.Addr(d.base)), size)
}

func (d *EmulatorDevice) Write(off DevBaseOffset, data []byte) error {
	return d.emu.MemWrite(uint64(off.Addr(d.base)), data)
}

// Map makes size bytes starting at off accessible inside the emulator,
// rounding the range out to whole pages.
func (d *EmulatorDevice) Map(off DevBaseOffset, size uint64, prot emulator.MemProt) (emulator.MemRegion, error) {
	page := d.emu.PageSize()
	addr := uint64(off.Addr(d.base))
	begin := addr &^ (page - 1)
	end := (addr + size + page - 1) &^ (page - 1)
	if err := d.emu.MemMap(begin, end-begin, prot); err != nil {
		return emulator.MemRegion{}, err
	}
	return emulator.MemRegion{Addr: begin, Size: end - begin, Prot: prot}, nil
}
