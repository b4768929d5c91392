// Package arena hands out space inside a fixed range of device memory.
package arena

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/loader"
)

var ErrOutOfSpace = errors.New("out of device space")

// Arena is a bump allocator over [begin, begin+size). Space is only returned
// as a whole through Reset.
type Arena struct {
	mu    sync.Mutex
	name  string
	begin device.DevBaseOffset
	size  uint64
	used  uint64
}

func New(name string, begin device.DevBaseOffset, size uint64) *Arena {
	return &Arena{name: name, begin: begin, size: size}
}

func (a *Arena) Alloc(size, align uint64) (device.DevBaseOffset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := uint64(a.begin) + a.used
	off := loader.Align(start, max(align, 1))
	end := off + size
	if end < off || end > uint64(a.begin)+a.size {
		return 0, fmt.Errorf("%w: %s needs %#x bytes, %#x left", ErrOutOfSpace, a.name, size, a.size-a.used)
	}
	a.used = end - uint64(a.begin)
	return device.DevBaseOffset(off), nil
}

func (a *Arena) Reset() {
	a.mu.Lock()
	a.used = 0
	a.mu.Unlock()
}

func (a *Arena) Used() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

func (a *Arena) Begin() device.DevBaseOffset {
	return a.begin
}

func (a *Arena) Size() uint64 {
	return a.size
}
