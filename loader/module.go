package loader

import (
	"encoding/binary"
	"io"

	"github.com/wnxd/micrort/emulator"
)

// Image is a parsed device binary that has not been placed on a device yet.
// Addresses returned by an Image are link-time addresses.
type Image interface {
	io.Closer
	Name() string
	Arch() emulator.Arch
	ByteOrder() binary.ByteOrder
	Regions() []Region
	EntryAddr() uint64
	Symbols() []Symbol
	FindSymbol(name string) (uint64, error)
}

type Symbol struct {
	Name  string
	Value uint64
	Size  uint64
}
