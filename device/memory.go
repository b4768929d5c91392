package device

import (
	"encoding/binary"
	"fmt"
	"sync"
)

const defaultUnitSize = 4096

// Memory is a LowLevelDevice kept in host memory.
//
// The storage is managed in units. Units that are never touched by Read or
// Write are never allocated, so a large sparse device costs little.
type Memory struct {
	mu       sync.RWMutex
	base     DevAddr
	capacity uint64
	unitSize uint64
	ptrSize  int
	order    binary.ByteOrder
	data     map[uint64][]byte
	closed   bool
}

type MemoryOption func(*Memory)

func WithPointerSize(size int) MemoryOption {
	return func(m *Memory) { m.ptrSize = size }
}

func WithByteOrder(order binary.ByteOrder) MemoryOption {
	return func(m *Memory) { m.order = order }
}

// WithUnitSize sets the storage unit size. Zero keeps the default.
func WithUnitSize(size uint64) MemoryOption {
	return func(m *Memory) {
		if size > 0 {
			m.unitSize = size
		}
	}
}

// NewMemory creates a device of capacity bytes mapped at base.
func NewMemory(base DevAddr, capacity uint64, opts ...MemoryOption) *Memory {
	m := &Memory{
		base:     base,
		capacity: capacity,
		unitSize: defaultUnitSize,
		ptrSize:  8,
		order:    binary.LittleEndian,
		data:     make(map[uint64][]byte),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	clear(m.data)
	m.mu.Unlock()
	return nil
}

func (m *Memory) BaseAddr() DevAddr {
	return m.base
}

func (m *Memory) PointerSize() int {
	return m.ptrSize
}

func (m *Memory) ByteOrder() binary.ByteOrder {
	return m.order
}

func (m *Memory) Capacity() uint64 {
	return m.capacity
}

func (m *Memory) Read(off DevBaseOffset, size uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(off, size); err != nil {
		return nil, err
	}
	res := make([]byte, size)
	curr := uint64(off)
	var done uint64
	for done < size {
		unit, inUnit := m.unit(curr)
		n := min(size-done, m.unitSize-inUnit)
		copy(res[done:done+n], unit[inUnit:inUnit+n])
		done += n
		curr += n
	}
	return res, nil
}

func (m *Memory) Write(off DevBaseOffset, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := uint64(len(data))
	if err := m.check(off, size); err != nil {
		return err
	}
	curr := uint64(off)
	var done uint64
	for done < size {
		unit, inUnit := m.unit(curr)
		n := min(size-done, m.unitSize-inUnit)
		copy(unit[inUnit:inUnit+n], data[done:done+n])
		done += n
		curr += n
	}
	return nil
}

func (m *Memory) check(off DevBaseOffset, size uint64) error {
	if m.closed {
		return ErrClosed
	}
	end := uint64(off) + size
	if end < uint64(off) || end > m.capacity {
		return fmt.Errorf("%w: %s+%#x exceeds %#x", ErrOutOfRange, off, size, m.capacity)
	}
	return nil
}

// unit returns the storage unit holding addr, allocating it on first touch.
func (m *Memory) unit(addr uint64) ([]byte, uint64) {
	inUnit := addr % m.unitSize
	baseAddr := addr - inUnit
	unit, ok := m.data[baseAddr]
	if !ok {
		unit = make([]byte, m.unitSize)
		m.data[baseAddr] = unit
	}
	return unit, inUnit
}
