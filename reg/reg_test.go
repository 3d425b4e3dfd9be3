package reg

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestMapped(t *testing.T) {
	mem := new([Size / 4]uint32)
	m := Map(uintptr(unsafe.Pointer(mem)))

	m.Store(I2SCFGR, I2SCFGR_I2SMOD|I2SCFGR_I2SCFG_MASTERTX)
	m.Store(I2SPR, 0x0102)
	assert.Equal(t, uint32(0x0A00), mem[7])
	assert.Equal(t, uint32(0x0102), mem[8])

	mem[2] = 0xFFFF0083
	assert.Equal(t, uint16(0x0083), m.Load(SR))
	runtime.KeepAlive(mem)
}

func TestModify(t *testing.T) {
	mem := new([Size / 4]uint32)
	m := Map(uintptr(unsafe.Pointer(mem)))

	m.Store(CR2, CR2_TXEIE|CR2_RXDMAEN)
	Modify(m, CR2, CR2_RXDMAEN, CR2_ERRIE)
	assert.Equal(t, CR2_TXEIE|CR2_ERRIE, m.Load(CR2))

	SetBit(m, CR2, CR2_TXDMAEN, true)
	assert.Equal(t, CR2_TXEIE|CR2_ERRIE|CR2_TXDMAEN, m.Load(CR2))
	SetBit(m, CR2, CR2_TXEIE, false)
	assert.Equal(t, CR2_ERRIE|CR2_TXDMAEN, m.Load(CR2))
	runtime.KeepAlive(mem)
}

func TestOffset_String(t *testing.T) {
	tests := []struct {
		off      Offset
		expected string
	}{
		{CR1, "CR1"}, {SR, "SR"}, {DR, "DR"}, {I2SCFGR, "I2SCFGR"}, {I2SPR, "I2SPR"}, {0x40, "UNKNOWN"},
	}
	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			assert.Equal(t, test.expected, test.off.String())
		})
	}
}
