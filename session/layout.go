package session

import (
	"fmt"

	"github.com/wnxd/micrort/device"
)

type Range struct {
	Offset device.DevBaseOffset `yaml:"offset"`
	Size   uint64               `yaml:"size"`
}

func (r Range) End() device.DevBaseOffset {
	return r.Offset.Add(r.Size)
}

func (r Range) Overlaps(o Range) bool {
	return r.Offset < o.End() && o.Offset < r.End()
}

// Layout splits device memory between loaded binaries and argument packing.
type Layout struct {
	Binary Range `yaml:"binary_region"`
	Args   Range `yaml:"args_region"`
}

func DefaultLayout() Layout {
	return Layout{
		Binary: Range{Offset: 0x1000, Size: 0x7F000},
		Args:   Range{Offset: 0x80000, Size: 0x1000},
	}
}

func (l Layout) Validate() error {
	if l.Binary.Size == 0 || l.Args.Size == 0 {
		return fmt.Errorf("layout: empty region")
	}
	if l.Binary.Overlaps(l.Args) {
		return fmt.Errorf("layout: binary region [%s, %s) overlaps args region [%s, %s)",
			l.Binary.Offset, l.Binary.End(), l.Args.Offset, l.Args.End())
	}
	return nil
}
