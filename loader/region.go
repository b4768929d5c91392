package loader

import (
	"io"

	"github.com/wnxd/micrort/emulator"
)

// Region is one allocated section of an image. Length is the number of bytes
// backed by the file; the remaining Size-Length bytes are zero filled.
type Region struct {
	Name          string
	Addr, Size    uint64
	Length, Align uint64
	Prot          emulator.MemProt
	io.ReaderAt
}

// Span returns the link-time range covered by regions.
func Span(regions []Region) (begin, end uint64) {
	for i, r := range regions {
		if i == 0 || r.Addr < begin {
			begin = r.Addr
		}
		end = max(end, r.Addr+r.Size)
	}
	return
}

// MaxAlign returns the strictest alignment among regions, at least 1.
func MaxAlign(regions []Region) uint64 {
	align := uint64(1)
	for _, r := range regions {
		align = max(align, r.Align)
	}
	return align
}
