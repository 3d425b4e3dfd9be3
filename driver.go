package i2s

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/i2s/reg"
)

// driver holds the peripheral and is shared by every driver type. The
// capability types below are conversions of the same value, so they all see
// Release.
type driver struct {
	p    Peripheral
	regs reg.Block
}

// Driver is implemented by the four driver types only.
type Driver interface {
	// Enable sets I2SE.
	Enable()
	// Disable clears I2SE. Stopping in the middle of a frame is up to the
	// caller.
	Disable()
	// Release resets the configuration registers and returns the peripheral.
	// The driver must not be used afterwards.
	Release() Peripheral
	WSIsHigh() bool
	WSIsLow() bool
	Peripheral() Peripheral
	Mode() Mode
	sealed()
}

// Transmitter is a driver sending samples.
type Transmitter interface {
	Driver
	WriteDataRegister(value uint16)
	SetTxInterrupt(enabled bool)
	SetTxDMA(enabled bool)
}

// Receiver is a driver receiving samples.
type Receiver interface {
	Driver
	ReadDataRegister() uint16
	SetRxInterrupt(enabled bool)
	SetRxDMA(enabled bool)
}

// ErrorInterrupter is a driver able to raise error interrupts. A master
// transmitter has no error condition and does not implement it.
type ErrorInterrupter interface {
	Driver
	SetErrorInterrupt(enabled bool)
}

// SampleRater is a driver generating the clocks.
type SampleRater interface {
	Driver
	SampleRate() (uint32, error)
}

var (
	_ Transmitter      = (*MasterTransmitter)(nil)
	_ SampleRater      = (*MasterTransmitter)(nil)
	_ Receiver         = (*MasterReceiver)(nil)
	_ ErrorInterrupter = (*MasterReceiver)(nil)
	_ SampleRater      = (*MasterReceiver)(nil)
	_ Transmitter      = (*SlaveTransmitter)(nil)
	_ ErrorInterrupter = (*SlaveTransmitter)(nil)
	_ Receiver         = (*SlaveReceiver)(nil)
	_ ErrorInterrupter = (*SlaveReceiver)(nil)
)

func (d *driver) sealed() {}

func (d *driver) Enable() {
	reg.Modify(d.regs, reg.I2SCFGR, 0, reg.I2SCFGR_I2SE)
}

func (d *driver) Disable() {
	reg.Modify(d.regs, reg.I2SCFGR, reg.I2SCFGR_I2SE, 0)
}

func (d *driver) Release() Peripheral {
	d.regs.Store(reg.CR1, reg.CR1Reset)
	d.regs.Store(reg.CR2, reg.CR2Reset)
	d.regs.Store(reg.I2SCFGR, reg.I2SCFGRReset)
	d.regs.Store(reg.I2SPR, reg.I2SPRReset)
	p := d.p
	d.p, d.regs = nil, nil
	slog.Debug("i2s driver released")
	return p
}

// WSIsHigh reports whether the word select line is high.
func (d *driver) WSIsHigh() bool {
	return bool(d.p.WS().Read())
}

// WSIsLow reports whether the word select line is low.
func (d *driver) WSIsLow() bool {
	return !bool(d.p.WS().Read())
}

// Peripheral returns the owned peripheral. It stays owned by the driver.
func (d *driver) Peripheral() Peripheral {
	return d.p
}

func (d *driver) readStatus() uint16 {
	return d.regs.Load(reg.SR)
}

type transmitter driver

// WriteDataRegister writes one sample word. Call it only when TXE is set.
func (t *transmitter) WriteDataRegister(value uint16) {
	t.regs.Store(reg.DR, value)
}

// SetTxInterrupt enables the interrupt raised when TXE is set.
func (t *transmitter) SetTxInterrupt(enabled bool) {
	reg.SetBit(t.regs, reg.CR2, reg.CR2_TXEIE, enabled)
}

// SetTxDMA enables the DMA request raised when TXE is set.
func (t *transmitter) SetTxDMA(enabled bool) {
	reg.SetBit(t.regs, reg.CR2, reg.CR2_TXDMAEN, enabled)
}

type receiver driver

// ReadDataRegister reads one sample word, which clears RXNE.
func (r *receiver) ReadDataRegister() uint16 {
	return r.regs.Load(reg.DR)
}

// SetRxInterrupt enables the interrupt raised when RXNE is set.
func (r *receiver) SetRxInterrupt(enabled bool) {
	reg.SetBit(r.regs, reg.CR2, reg.CR2_RXNEIE, enabled)
}

// SetRxDMA enables the DMA request raised when RXNE is set.
func (r *receiver) SetRxDMA(enabled bool) {
	reg.SetBit(r.regs, reg.CR2, reg.CR2_RXDMAEN, enabled)
}

type errorReporter driver

// SetErrorInterrupt enables the interrupt raised on frame error, overrun or
// underrun, depending on the mode.
func (e *errorReporter) SetErrorInterrupt(enabled bool) {
	reg.SetBit(e.regs, reg.CR2, reg.CR2_ERRIE, enabled)
}

type master driver

// SampleRate computes the sample rate produced by the current register
// content, which may differ from a requested frequency.
func (m *master) SampleRate() (uint32, error) {
	clock, err := clockHz(m.p)
	if err != nil {
		return 0, err
	}
	pr := m.regs.Load(reg.I2SPR)
	width := 16
	if m.regs.Load(reg.I2SCFGR)&reg.I2SCFGR_CHLEN != 0 {
		width = 32
	}
	p := Prescaler{
		Odd: pr&reg.I2SPR_ODD != 0,
		Div: uint8(pr & reg.I2SPR_I2SDIV_Msk),
	}
	return SampleRate(clock, p, pr&reg.I2SPR_MCKOE != 0, width), nil
}

// MasterTransmitter generates the clocks and sends samples.
type MasterTransmitter struct {
	*driver
	*transmitter
	*master
}

func (*MasterTransmitter) Mode() Mode { return ModeMasterTransmit }

// Status reads SR.
func (m *MasterTransmitter) Status() MasterTransmitStatus {
	return newMasterTransmitStatus(m.driver.readStatus())
}

// MasterReceiver generates the clocks and receives samples.
type MasterReceiver struct {
	*driver
	*receiver
	*errorReporter
	*master
}

func (*MasterReceiver) Mode() Mode { return ModeMasterReceive }

// Status reads SR. Reading SR after ReadDataRegister clears OVR.
func (m *MasterReceiver) Status() MasterReceiveStatus {
	return newMasterReceiveStatus(m.driver.readStatus())
}

// SlaveTransmitter sends samples on clocks generated elsewhere.
type SlaveTransmitter struct {
	*driver
	*transmitter
	*errorReporter
}

func (*SlaveTransmitter) Mode() Mode { return ModeSlaveTransmit }

// Status reads SR, which clears FRE and UDR.
func (s *SlaveTransmitter) Status() SlaveTransmitStatus {
	return newSlaveTransmitStatus(s.driver.readStatus())
}

// SlaveReceiver receives samples on clocks generated elsewhere.
type SlaveReceiver struct {
	*driver
	*receiver
	*errorReporter
}

func (*SlaveReceiver) Mode() Mode { return ModeSlaveReceive }

// Status reads SR, which clears FRE. Reading SR after ReadDataRegister
// clears OVR.
func (s *SlaveReceiver) Status() SlaveReceiveStatus {
	return newSlaveReceiveStatus(s.driver.readStatus())
}

// build resets the control registers and writes the configuration. The
// prescaler is resolved first so a failure leaves the peripheral untouched.
func build(p Peripheral, mode Mode, attr attributes) (*driver, error) {
	if p == nil {
		return nil, ErrNilPeripheral
	}
	prescaler := DefaultPrescaler
	if mode.IsMaster() {
		var err error
		prescaler, err = attr.frequency.resolve(p, attr.masterClock, attr.format)
		if err != nil {
			return nil, err
		}
	}
	d := &driver{p: p, regs: p.Registers()}
	// SPI disabled, interrupts and DMA requests off
	d.regs.Store(reg.CR1, reg.CR1Reset)
	d.regs.Store(reg.CR2, reg.CR2Reset)

	cfg := reg.I2SCFGR_I2SMOD | mode.bits() | attr.standard.bits() | attr.format.bits()
	if attr.polarity == IdleHigh {
		cfg |= reg.I2SCFGR_CKPOL
	}
	d.regs.Store(reg.I2SCFGR, cfg)

	pr := prescaler.bits()
	if attr.masterClock {
		pr |= reg.I2SPR_MCKOE
	}
	d.regs.Store(reg.I2SPR, pr)

	slog.Debug("i2s driver configured",
		"mode", mode,
		"standard", attr.standard,
		"format", attr.format,
		"polarity", attr.polarity,
		"mclk", attr.masterClock,
		"prescaler", prescaler)
	return d, nil
}

// NewMasterTransmitter configures p as a master transmitter.
func NewMasterTransmitter(p Peripheral, c MasterConfig[Transmit]) (*MasterTransmitter, error) {
	d, err := build(p, ModeMasterTransmit, c.attr)
	if err != nil {
		return nil, err
	}
	return &MasterTransmitter{d, (*transmitter)(d), (*master)(d)}, nil
}

// NewMasterReceiver configures p as a master receiver.
func NewMasterReceiver(p Peripheral, c MasterConfig[Receive]) (*MasterReceiver, error) {
	d, err := build(p, ModeMasterReceive, c.attr)
	if err != nil {
		return nil, err
	}
	return &MasterReceiver{d, (*receiver)(d), (*errorReporter)(d), (*master)(d)}, nil
}

// NewSlaveTransmitter configures p as a slave transmitter.
func NewSlaveTransmitter(p Peripheral, c SlaveConfig[Transmit]) (*SlaveTransmitter, error) {
	d, err := build(p, ModeSlaveTransmit, c.attr)
	if err != nil {
		return nil, err
	}
	return &SlaveTransmitter{d, (*transmitter)(d), (*errorReporter)(d)}, nil
}

// NewSlaveReceiver configures p as a slave receiver.
func NewSlaveReceiver(p Peripheral, c SlaveConfig[Receive]) (*SlaveReceiver, error) {
	d, err := build(p, ModeSlaveReceive, c.attr)
	if err != nil {
		return nil, err
	}
	return &SlaveReceiver{d, (*receiver)(d), (*errorReporter)(d)}, nil
}

// ReconfigureError is returned by Reconfigure when the new driver could not
// be built. The peripheral has been released and is handed back.
type ReconfigureError struct {
	Peripheral Peripheral
	Err        error
}

func (e *ReconfigureError) Error() string {
	return fmt.Sprintf("i2s: reconfigure: %v", e.Err)
}

func (e *ReconfigureError) Unwrap() error {
	return e.Err
}

// Reconfigure releases d and builds a new driver, possibly of another mode,
// on the same peripheral:
//
//	rx, err := i2s.Reconfigure(tx, func(p i2s.Peripheral) (*i2s.MasterReceiver, error) {
//		return i2s.NewMasterReceiver(p, i2s.NewMaster().Receive().RequestFrequency(48000))
//	})
func Reconfigure[D any](d Driver, build func(Peripheral) (D, error)) (D, error) {
	p := d.Release()
	next, err := build(p)
	if err != nil {
		var zero D
		return zero, &ReconfigureError{Peripheral: p, Err: err}
	}
	return next, nil
}

// PeripheralOf returns the peripheral carried by a Reconfigure failure.
func PeripheralOf(err error) (Peripheral, bool) {
	var re *ReconfigureError
	if errors.As(err, &re) {
		return re.Peripheral, true
	}
	return nil, false
}
