package reg

import (
	"sync/atomic"
	"unsafe"
)

// Mapped is a register block living at a fixed physical address.
type Mapped struct {
	base unsafe.Pointer
}

var _ Block = (*Mapped)(nil)

// Map returns the register block located at addr.
//
// This is the only place where an address is reinterpreted as registers. The
// caller guarantees that addr is the base of an SPI v1.2 register block, that
// the block stays mapped for the program lifetime and that nothing else
// accesses it while the returned value is in use.
func Map(addr uintptr) *Mapped {
	return &Mapped{base: unsafe.Pointer(addr)}
}

func (m *Mapped) word(off Offset) *uint32 {
	return (*uint32)(unsafe.Add(m.base, off))
}

// Load performs a single 32-bit read and returns the implemented half word.
func (m *Mapped) Load(off Offset) uint16 {
	return uint16(atomic.LoadUint32(m.word(off)))
}

// Store performs a single 32-bit write.
func (m *Mapped) Store(off Offset, value uint16) {
	atomic.StoreUint32(m.word(off), uint32(value))
}
