package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2s/reg"
)

func enabled(mode uint16) *Peripheral {
	p := New()
	p.Store(reg.I2SCFGR, reg.I2SCFGR_I2SMOD|mode|reg.I2SCFGR_I2SE)
	p.ResetJournal()
	return p
}

func TestNew_ResetValues(t *testing.T) {
	p := New()
	assert.Equal(t, reg.SRReset, p.Peek(reg.SR))
	assert.Equal(t, reg.CRCPRReset, p.Peek(reg.CRCPR))
	assert.Equal(t, reg.I2SPRReset, p.Peek(reg.I2SPR))
	assert.Zero(t, p.Peek(reg.I2SCFGR))

	f, err := p.I2SClock()
	assert.NoError(t, err)
	assert.Equal(t, 48*physic.MegaHertz, f)
	assert.Equal(t, gpio.Low, p.WS().Read())
}

func TestLoad_StatusClearsFreAndUdr(t *testing.T) {
	p := enabled(reg.I2SCFGR_I2SCFG_SLAVETX)
	p.Poke(reg.SR, reg.SR_FRE|reg.SR_UDR|reg.SR_OVR|reg.SR_TXE)

	assert.Equal(t, reg.SR_FRE|reg.SR_UDR|reg.SR_OVR|reg.SR_TXE, p.Load(reg.SR))
	assert.Equal(t, reg.SR_OVR|reg.SR_TXE, p.Peek(reg.SR))
}

func TestOverrunSequence(t *testing.T) {
	p := enabled(reg.I2SCFGR_I2SCFG_MASTERRX)
	p.Receive(1)
	p.Receive(2)
	assert.Equal(t, reg.SR_OVR, p.Peek(reg.SR)&reg.SR_OVR)

	p.Load(reg.SR)
	assert.Equal(t, reg.SR_OVR, p.Peek(reg.SR)&reg.SR_OVR, "status read alone")
	assert.Equal(t, uint16(1), p.Load(reg.DR))
	assert.Equal(t, reg.SR_OVR, p.Peek(reg.SR)&reg.SR_OVR, "data read alone")
	p.Load(reg.SR)
	assert.Zero(t, p.Peek(reg.SR)&reg.SR_OVR)
}

func TestStore(t *testing.T) {
	p := enabled(reg.I2SCFGR_I2SCFG_MASTERTX)
	assert.NotZero(t, p.Peek(reg.SR)&reg.SR_TXE)

	p.Store(reg.SR, 0)
	assert.NotZero(t, p.Peek(reg.SR)&reg.SR_TXE, "SR is read only")

	p.Store(reg.DR, 0x1234)
	assert.Zero(t, p.Peek(reg.SR)&reg.SR_TXE)
	sample, ok := p.Shift()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1234), sample)
	assert.Equal(t, reg.SR_CHSIDE, p.Peek(reg.SR)&reg.SR_CHSIDE)

	reg.Modify(p, reg.I2SCFGR, reg.I2SCFGR_I2SE, 0)
	assert.Zero(t, p.Peek(reg.SR)&(reg.SR_TXE|reg.SR_BSY))

	assert.Equal(t, []Access{
		{Op: Store, Offset: reg.SR, Value: 0},
		{Op: Store, Offset: reg.DR, Value: 0x1234},
		{Op: Load, Offset: reg.I2SCFGR, Value: reg.I2SCFGR_I2SMOD | reg.I2SCFGR_I2SCFG_MASTERTX | reg.I2SCFGR_I2SE},
		{Op: Store, Offset: reg.I2SCFGR, Value: reg.I2SCFGR_I2SMOD | reg.I2SCFGR_I2SCFG_MASTERTX},
	}, p.Journal())
}

func TestStimulusIgnoredWhenDisabled(t *testing.T) {
	p := New()
	p.Receive(7)
	_, ok := p.Shift()
	assert.False(t, ok)
	p.FrameError()
	assert.Equal(t, reg.SRReset, p.Peek(reg.SR))
}

func TestInvalidOffsetPanics(t *testing.T) {
	p := New()
	assert.Panics(t, func() { p.Load(0x02) })
	assert.Panics(t, func() { p.Store(reg.Size, 0) })
}

func TestAccess_String(t *testing.T) {
	assert.Equal(t, "store I2SPR 0x0302", Access{Op: Store, Offset: reg.I2SPR, Value: 0x302}.String())
}
