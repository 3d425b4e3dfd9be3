package i2s

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Defaults(t *testing.T) {
	expected := Settings{
		Mode:          ModeSlaveTransmit,
		Standard:      Philips,
		ClockPolarity: IdleLow,
		DataFormat:    Data16Channel16,
		Frequency:     Frequency{Kind: FixedPrescaler, Prescaler: Prescaler{Odd: false, Div: 2}},
	}
	assert.Equal(t, expected, NewSlave().Settings())
	assert.Equal(t, expected, DefaultConfig().Settings())

	expected.Mode = ModeMasterTransmit
	assert.Equal(t, expected, NewMaster().Settings())
}

func TestConfig_Direction(t *testing.T) {
	assert.Equal(t, ModeSlaveReceive, NewSlave().Receive().Settings().Mode)
	assert.Equal(t, ModeSlaveTransmit, NewSlave().Receive().Transmit().Settings().Mode)
	assert.Equal(t, ModeMasterReceive, NewMaster().Receive().Settings().Mode)
	assert.Equal(t, ModeMasterTransmit, NewMaster().Receive().Transmit().Settings().Mode)
}

func TestConfig_ReferentialTransparency(t *testing.T) {
	base := NewMaster().DataFormat(Data24Channel32)
	before := base.Settings()

	pcm := base.Standard(PCMLongSync)
	_ = base.ClockPolarity(IdleHigh).MasterClock(true).RequestFrequency(48000)
	_ = base.Receive().Standard(LSB)
	_ = base.ToSlave()

	assert.Equal(t, before, base.Settings())
	assert.Equal(t, PCMLongSync, pcm.Settings().Standard)
	assert.Equal(t, Philips, base.Settings().Standard)

	// two independent chains give equal configurations
	a := NewMaster().Receive().Standard(MSB).DataFormat(Data32Channel32).RequireFrequency(48000)
	b := NewMaster().DataFormat(Data32Channel32).Standard(MSB).RequireFrequency(48000).Receive()
	assert.Equal(t, a, b)
}

func TestConfig_ToSlave(t *testing.T) {
	master := NewMaster().
		Receive().
		Standard(MSB).
		ClockPolarity(IdleHigh).
		DataFormat(Data16Channel32).
		MasterClock(true).
		RequestFrequency(44100)

	expected := Settings{
		Mode:          ModeSlaveReceive,
		Standard:      MSB,
		ClockPolarity: IdleHigh,
		DataFormat:    Data16Channel32,
		MasterClock:   false,
		Frequency:     Frequency{Kind: FixedPrescaler, Prescaler: DefaultPrescaler},
	}
	assert.Equal(t, expected, master.ToSlave().Settings())
	assert.Equal(t, master, master.ToMaster())
}

func TestConfig_ToMaster(t *testing.T) {
	slave := NewSlave().Standard(LSB).ClockPolarity(IdleHigh).DataFormat(Data32Channel32)
	s := slave.ToMaster().Settings()
	assert.Equal(t, ModeMasterTransmit, s.Mode)
	assert.Equal(t, LSB, s.Standard)
	assert.Equal(t, IdleHigh, s.ClockPolarity)
	assert.Equal(t, Data32Channel32, s.DataFormat)
	assert.Equal(t, slave, slave.ToSlave())
	assert.Equal(t, slave, slave.ToMaster().ToSlave())
}

func TestConfig_Frequency(t *testing.T) {
	c := NewMaster()
	assert.Equal(t, Frequency{Kind: FixedPrescaler, Prescaler: Prescaler{Odd: true, Div: 2}}, c.Prescaler(true, 2).Settings().Frequency)
	assert.Equal(t, Frequency{Kind: Requested, Hz: 48000}, c.RequestFrequency(48000).Settings().Frequency)
	assert.Equal(t, Frequency{Kind: Required, Hz: 96000}, c.RequestFrequency(48000).RequireFrequency(96000).Settings().Frequency)
	assert.True(t, c.MasterClock(true).Settings().MasterClock)
}

func TestConfig_MisusePanics(t *testing.T) {
	assert.PanicsWithValue(t, "i2s: prescaler div must be at least 2", func() {
		NewMaster().Prescaler(true, 1)
	})
	assert.Panics(t, func() { NewMaster().Prescaler(false, 0) })
	assert.Panics(t, func() { NewMaster().RequestFrequency(0) })
	assert.Panics(t, func() { NewMaster().Receive().RequireFrequency(0) })
	assert.NotPanics(t, func() { NewMaster().Prescaler(false, 2) })
}
