package i2s_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2s"
	"github.com/mklimuk/i2s/reg"
	"github.com/mklimuk/i2s/sim"
)

// MockBlock is a mock implementation of reg.Block using testify/mock
type MockBlock struct {
	mock.Mock
}

func (m *MockBlock) Load(off reg.Offset) uint16 {
	args := m.Called(off)
	return args.Get(0).(uint16)
}

func (m *MockBlock) Store(off reg.Offset, value uint16) {
	m.Called(off, value)
}

// MockPeripheral is a mock implementation of i2s.Peripheral using testify/mock
type MockPeripheral struct {
	mock.Mock
	ws gpiotest.Pin
}

func (m *MockPeripheral) Registers() reg.Block {
	args := m.Called()
	return args.Get(0).(reg.Block)
}

func (m *MockPeripheral) I2SClock() (physic.Frequency, error) {
	args := m.Called()
	return args.Get(0).(physic.Frequency), args.Error(1)
}

func (m *MockPeripheral) WS() i2s.LinePin {
	return &m.ws
}

func stores(journal []sim.Access) []sim.Access {
	var out []sim.Access
	for _, a := range journal {
		if a.Op == sim.Store {
			out = append(out, a)
		}
	}
	return out
}

func TestBuild_WriteOrder(t *testing.T) {
	block := &MockBlock{}
	p := &MockPeripheral{}
	p.On("Registers").Return(block)
	p.On("I2SClock").Return(48*physic.MegaHertz, nil)
	mock.InOrder(
		block.On("Store", reg.CR1, reg.CR1Reset).Once(),
		block.On("Store", reg.CR2, reg.CR2Reset).Once(),
		block.On("Store", reg.I2SCFGR, reg.I2SCFGR_I2SMOD|reg.I2SCFGR_I2SCFG_MASTERRX|reg.I2SCFGR_I2SSTD_MSB|reg.I2SCFGR_DATLEN_16|reg.I2SCFGR_CHLEN).Once(),
		block.On("Store", reg.I2SPR, uint16(8)|reg.I2SPR_ODD).Once(),
	)

	cfg := i2s.NewMaster().Receive().Standard(i2s.MSB).DataFormat(i2s.Data16Channel32).RequestFrequency(44100)
	_, err := i2s.NewMasterReceiver(p, cfg)
	require.NoError(t, err)
	block.AssertExpectations(t)
	p.AssertExpectations(t)
}

func TestBuild_RequireFailureTouchesNothing(t *testing.T) {
	block := &MockBlock{}
	p := &MockPeripheral{}
	p.On("Registers").Return(block)
	p.On("I2SClock").Return(48*physic.MegaHertz, nil)

	_, err := i2s.NewMasterTransmitter(p, i2s.NewMaster().MasterClock(true).RequireFrequency(48000))
	assert.ErrorIs(t, err, i2s.ErrUnreachableFrequency)
	block.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	block.AssertNotCalled(t, "Load", mock.Anything)
	p.AssertNotCalled(t, "Registers")
}

func TestBuild_InvalidPrescalerPanicsBeforeHardware(t *testing.T) {
	p := sim.New()
	assert.Panics(t, func() {
		_, _ = i2s.NewMasterTransmitter(p, i2s.NewMaster().Prescaler(false, 1))
	})
	assert.Empty(t, p.Journal())
}

func TestBuild_Registers(t *testing.T) {
	p := sim.New()
	cfg := i2s.NewMaster().
		Standard(i2s.PCMLongSync).
		ClockPolarity(i2s.IdleHigh).
		DataFormat(i2s.Data24Channel32).
		MasterClock(true).
		Prescaler(true, 12)
	_, err := i2s.NewMasterTransmitter(p, cfg)
	require.NoError(t, err)

	assert.Equal(t, []sim.Access{
		{Op: sim.Store, Offset: reg.CR1, Value: 0},
		{Op: sim.Store, Offset: reg.CR2, Value: 0},
		{Op: sim.Store, Offset: reg.I2SCFGR, Value: 0x0ABB},
		{Op: sim.Store, Offset: reg.I2SPR, Value: 0x030C},
	}, p.Journal())
}

func TestBuild_Modes(t *testing.T) {
	tests := []struct {
		name  string
		build func(p i2s.Peripheral) (i2s.Driver, error)
		mode  i2s.Mode
		cfg   uint16
	}{
		{"master tx", func(p i2s.Peripheral) (i2s.Driver, error) {
			return i2s.NewMasterTransmitter(p, i2s.NewMaster())
		}, i2s.ModeMasterTransmit, reg.I2SCFGR_I2SCFG_MASTERTX},
		{"master rx", func(p i2s.Peripheral) (i2s.Driver, error) {
			return i2s.NewMasterReceiver(p, i2s.NewMaster().Receive())
		}, i2s.ModeMasterReceive, reg.I2SCFGR_I2SCFG_MASTERRX},
		{"slave tx", func(p i2s.Peripheral) (i2s.Driver, error) {
			return i2s.NewSlaveTransmitter(p, i2s.NewSlave())
		}, i2s.ModeSlaveTransmit, reg.I2SCFGR_I2SCFG_SLAVETX},
		{"slave rx", func(p i2s.Peripheral) (i2s.Driver, error) {
			return i2s.NewSlaveReceiver(p, i2s.NewSlave().Receive())
		}, i2s.ModeSlaveReceive, reg.I2SCFGR_I2SCFG_SLAVERX},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := sim.New()
			d, err := test.build(p)
			require.NoError(t, err)
			assert.Equal(t, test.mode, d.Mode())
			assert.Equal(t, reg.I2SCFGR_I2SMOD|test.cfg, p.Peek(reg.I2SCFGR))
			assert.Equal(t, reg.I2SPRReset, p.Peek(reg.I2SPR))
			assert.Same(t, p, d.Peripheral())
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := i2s.NewSlaveReceiver(nil, i2s.NewSlave().Receive())
	assert.ErrorIs(t, err, i2s.ErrNilPeripheral)

	rcc := errors.New("clock tree not configured")
	p := sim.New(sim.WithClockError(rcc))
	_, err = i2s.NewMasterTransmitter(p, i2s.NewMaster().RequestFrequency(48000))
	assert.ErrorIs(t, err, rcc)
	assert.Empty(t, p.Journal())

	// a fixed prescaler does not need the clock
	_, err = i2s.NewMasterTransmitter(p, i2s.NewMaster().Prescaler(false, 4))
	assert.NoError(t, err)

	_, err = i2s.NewMasterTransmitter(sim.New(sim.WithClock(0)), i2s.NewMaster().RequestFrequency(48000))
	assert.ErrorIs(t, err, i2s.ErrUnknownClock)
}

func TestMaster_SampleRate(t *testing.T) {
	p := sim.New(sim.WithClock(48 * physic.MegaHertz))
	tx, err := i2s.NewMasterTransmitter(p, i2s.NewMaster().MasterClock(true).RequestFrequency(48000))
	require.NoError(t, err)
	assert.Equal(t, reg.I2SPR_MCKOE|2, p.Peek(reg.I2SPR))

	rate, err := tx.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, uint32(46875), rate)

	rx, err := i2s.Reconfigure(tx, func(p i2s.Peripheral) (*i2s.MasterReceiver, error) {
		return i2s.NewMasterReceiver(p, i2s.NewMaster().Receive().DataFormat(i2s.Data32Channel32).RequireFrequency(46875))
	})
	require.NoError(t, err)
	rate, err = rx.SampleRate()
	require.NoError(t, err)
	assert.Equal(t, uint32(46875), rate)
	assert.Equal(t, uint16(8), p.Peek(reg.I2SPR))
}

func TestTransmitter_DataFlow(t *testing.T) {
	p := sim.New()
	tx, err := i2s.NewMasterTransmitter(p, i2s.NewMaster())
	require.NoError(t, err)

	tx.Enable()
	st := tx.Status()
	assert.True(t, st.Txe())
	assert.True(t, st.Bsy())
	assert.Equal(t, i2s.Left, st.ChSide())

	tx.WriteDataRegister(0xBEEF)
	assert.False(t, tx.Status().Txe())

	sample, ok := p.Shift()
	assert.True(t, ok)
	assert.Equal(t, uint16(0xBEEF), sample)
	st = tx.Status()
	assert.True(t, st.Txe())
	assert.Equal(t, i2s.Right, st.ChSide())

	// a master has no underrun
	_, ok = p.Shift()
	assert.False(t, ok)
	assert.Zero(t, p.Peek(reg.SR)&reg.SR_UDR)

	tx.Disable()
	st = tx.Status()
	assert.False(t, st.Txe())
	assert.False(t, st.Bsy())
}

func TestSlaveTransmitter_Underrun(t *testing.T) {
	p := sim.New()
	tx, err := i2s.NewSlaveTransmitter(p, i2s.NewSlave())
	require.NoError(t, err)
	tx.Enable()

	_, ok := p.Shift()
	assert.False(t, ok)
	assert.True(t, tx.Status().Udr())
	assert.False(t, tx.Status().Udr(), "reading the status clears UDR")

	p.FrameError()
	st := tx.Status()
	assert.True(t, st.Fre())
	assert.True(t, st.Fre(), "snapshot accessors do not clear flags")
	assert.False(t, tx.Status().Fre())
}

func TestReceiver_Overrun(t *testing.T) {
	p := sim.New()
	rx, err := i2s.NewSlaveReceiver(p, i2s.NewSlave().Receive())
	require.NoError(t, err)
	rx.Enable()

	p.Receive(0x1111)
	assert.True(t, rx.Status().Rxne())
	p.Receive(0x2222)

	assert.True(t, rx.Status().Ovr())
	assert.True(t, rx.Status().Ovr(), "reading the status alone keeps OVR")

	assert.Equal(t, uint16(0x1111), rx.ReadDataRegister())
	st := rx.Status()
	assert.True(t, st.Ovr())
	assert.False(t, st.Rxne())
	assert.False(t, rx.Status().Ovr(), "data then status read clears OVR")

	p.Receive(0x3333)
	assert.Equal(t, uint16(0x3333), rx.ReadDataRegister())
}

func TestMasterReceiver_Overrun(t *testing.T) {
	p := sim.New()
	rx, err := i2s.NewMasterReceiver(p, i2s.NewMaster().Receive())
	require.NoError(t, err)
	rx.Enable()

	p.Receive(1)
	p.Receive(2)
	p.FrameError()
	st := rx.Status()
	assert.True(t, st.Ovr())
	assert.Zero(t, st.Raw()&reg.SR_FRE, "a master never raises FRE")
}

func TestDriver_InterruptsAndDMA(t *testing.T) {
	p := sim.New()
	tx, err := i2s.NewSlaveTransmitter(p, i2s.NewSlave())
	require.NoError(t, err)

	tx.SetTxInterrupt(true)
	tx.SetTxDMA(true)
	tx.SetErrorInterrupt(true)
	assert.Equal(t, reg.CR2_TXEIE|reg.CR2_TXDMAEN|reg.CR2_ERRIE, p.Peek(reg.CR2))
	tx.SetTxDMA(false)
	assert.Equal(t, reg.CR2_TXEIE|reg.CR2_ERRIE, p.Peek(reg.CR2))

	rx, err := i2s.Reconfigure(tx, func(p i2s.Peripheral) (*i2s.MasterReceiver, error) {
		return i2s.NewMasterReceiver(p, i2s.NewMaster().Receive())
	})
	require.NoError(t, err)
	assert.Equal(t, reg.CR2Reset, p.Peek(reg.CR2))
	rx.SetRxInterrupt(true)
	rx.SetRxDMA(true)
	rx.SetErrorInterrupt(true)
	assert.Equal(t, reg.CR2_RXNEIE|reg.CR2_RXDMAEN|reg.CR2_ERRIE, p.Peek(reg.CR2))
	rx.SetRxInterrupt(false)
	assert.Equal(t, reg.CR2_RXDMAEN|reg.CR2_ERRIE, p.Peek(reg.CR2))
}

func TestDriver_EnableDisable(t *testing.T) {
	p := sim.New()
	rx, err := i2s.NewSlaveReceiver(p, i2s.NewSlave().Receive())
	require.NoError(t, err)
	cfg := p.Peek(reg.I2SCFGR)

	rx.Enable()
	assert.Equal(t, cfg|reg.I2SCFGR_I2SE, p.Peek(reg.I2SCFGR))
	rx.Disable()
	assert.Equal(t, cfg, p.Peek(reg.I2SCFGR))
}

func TestDriver_WS(t *testing.T) {
	p := sim.New()
	rx, err := i2s.NewSlaveReceiver(p, i2s.NewSlave().Receive())
	require.NoError(t, err)

	assert.True(t, rx.WSIsLow())
	assert.False(t, rx.WSIsHigh())
	p.SetWS(gpio.High)
	assert.True(t, rx.WSIsHigh())
	assert.False(t, rx.WSIsLow())
}

func TestDriver_Release(t *testing.T) {
	p := sim.New()
	tx, err := i2s.NewMasterTransmitter(p, i2s.NewMaster().MasterClock(true).Prescaler(true, 40))
	require.NoError(t, err)
	tx.SetTxInterrupt(true)
	tx.Enable()

	released := tx.Release()
	assert.Same(t, p, released)
	assert.Equal(t, reg.CR1Reset, p.Peek(reg.CR1))
	assert.Equal(t, reg.CR2Reset, p.Peek(reg.CR2))
	assert.Equal(t, reg.I2SCFGRReset, p.Peek(reg.I2SCFGR))
	assert.Equal(t, reg.I2SPRReset, p.Peek(reg.I2SPR))
	assert.Panics(t, func() { tx.Enable() })
}

func TestReconfigure_Failure(t *testing.T) {
	p := sim.New()
	tx, err := i2s.NewMasterTransmitter(p, i2s.NewMaster())
	require.NoError(t, err)

	_, err = i2s.Reconfigure(tx, func(p i2s.Peripheral) (*i2s.MasterTransmitter, error) {
		return i2s.NewMasterTransmitter(p, i2s.NewMaster().MasterClock(true).RequireFrequency(48000))
	})
	assert.ErrorIs(t, err, i2s.ErrUnreachableFrequency)
	var re *i2s.ReconfigureError
	require.ErrorAs(t, err, &re)
	assert.Same(t, p, re.Peripheral)

	back, ok := i2s.PeripheralOf(err)
	require.True(t, ok)
	_, err = i2s.NewSlaveReceiver(back, i2s.NewSlave().Receive())
	assert.NoError(t, err)

	_, ok = i2s.PeripheralOf(errors.New("other"))
	assert.False(t, ok)
}

func TestCapabilities(t *testing.T) {
	p := sim.New()
	var d i2s.Driver
	d, err := i2s.NewMasterTransmitter(p, i2s.NewMaster())
	require.NoError(t, err)

	_, isTx := d.(i2s.Transmitter)
	_, isRx := d.(i2s.Receiver)
	_, hasErr := d.(i2s.ErrorInterrupter)
	_, isMaster := d.(i2s.SampleRater)
	assert.True(t, isTx)
	assert.False(t, isRx)
	assert.False(t, hasErr, "a master transmitter has no error condition")
	assert.True(t, isMaster)

	p = sim.New()
	d, err = i2s.NewSlaveReceiver(p, i2s.NewSlave().Receive())
	require.NoError(t, err)
	_, isRx = d.(i2s.Receiver)
	_, hasErr = d.(i2s.ErrorInterrupter)
	_, isMaster = d.(i2s.SampleRater)
	assert.True(t, isRx)
	assert.True(t, hasErr)
	assert.False(t, isMaster)
}
