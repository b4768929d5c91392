package loader

import (
	"fmt"
	"maps"
	"slices"

	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/emulator"
)

// SymbolMap maps symbol names to offsets from the device base address. It is
// built once when a binary is placed on a device and must not be modified
// afterwards.
type SymbolMap map[string]device.DevBaseOffset

func (sm SymbolMap) Lookup(name string) (device.DevBaseOffset, error) {
	off, ok := sm[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return off, nil
}

func (sm SymbolMap) Names() []string {
	return slices.Sorted(maps.Keys(sm))
}

func (sm SymbolMap) Clone() SymbolMap {
	return maps.Clone(sm)
}

// PlacedRegion is a Region after it has been written to a device.
type PlacedRegion struct {
	Name   string
	Offset device.DevBaseOffset
	Size   uint64
	Prot   emulator.MemProt
}

// BinaryInfo describes a binary loaded on a device.
type BinaryInfo struct {
	Path    string
	Name    string
	Arch    emulator.Arch
	Entry   device.DevBaseOffset
	Regions []PlacedRegion
	Symbols SymbolMap
}

// Place computes where every region and symbol of img ends up when the lowest
// region is written at off. Images are placed as a whole, so the distance
// between any two link-time addresses is preserved.
func Place(path string, img Image, off device.DevBaseOffset) *BinaryInfo {
	begin, _ := Span(img.Regions())
	slide := func(addr uint64) device.DevBaseOffset {
		return off.Add(addr - begin)
	}
	info := &BinaryInfo{
		Path:    path,
		Name:    img.Name(),
		Arch:    img.Arch(),
		Symbols: make(SymbolMap, len(img.Symbols())),
	}
	if entry := img.EntryAddr(); entry >= begin {
		info.Entry = slide(entry)
	}
	for _, r := range img.Regions() {
		info.Regions = append(info.Regions, PlacedRegion{
			Name:   r.Name,
			Offset: slide(r.Addr),
			Size:   r.Size,
			Prot:   r.Prot,
		})
	}
	for _, sym := range img.Symbols() {
		if sym.Value < begin {
			continue
		}
		info.Symbols[sym.Name] = slide(sym.Value)
	}
	return info
}
