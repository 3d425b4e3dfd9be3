// Package sim is a software model of an SPI v1.2 peripheral in I2S mode. It
// reproduces the register side effects the driver relies on and lets tests or
// the command line play the other end of the bus.
package sim

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2s"
	"github.com/mklimuk/i2s/reg"
)

// Op is a register access kind.
type Op uint8

const (
	Load Op = iota
	Store
)

func (o Op) String() string {
	if o == Store {
		return "store"
	}
	return "load"
}

// Access is one entry of the access journal.
type Access struct {
	Op     Op
	Offset reg.Offset
	Value  uint16
}

func (a Access) String() string {
	return fmt.Sprintf("%s %s 0x%04x", a.Op, a.Offset, a.Value)
}

type Option func(*Peripheral)

// WithClock sets the I2S input clock.
func WithClock(f physic.Frequency) Option {
	return func(p *Peripheral) {
		p.clock = f
	}
}

// WithClockError makes I2SClock fail with err.
func WithClockError(err error) Option {
	return func(p *Peripheral) {
		p.clockErr = err
	}
}

// Peripheral is a simulated peripheral. It implements i2s.Peripheral and
// reg.Block and is safe for use by one driver and one stimulus goroutine.
type Peripheral struct {
	mu       sync.Mutex
	regs     [reg.Size / 4]uint16
	clock    physic.Frequency
	clockErr error
	ws       *gpiotest.Pin

	// buffers behind DR
	tx       uint16
	rx       uint16
	ovrArmed bool

	journal []Access
}

var _ i2s.Peripheral = (*Peripheral)(nil)
var _ reg.Block = (*Peripheral)(nil)

// New returns a peripheral with every register at its reset value and a 48MHz
// clock.
func New(opts ...Option) *Peripheral {
	p := &Peripheral{
		clock: 48 * physic.MegaHertz,
		ws:    &gpiotest.Pin{N: "WS", L: gpio.Low},
	}
	p.regs[idx(reg.SR)] = reg.SRReset
	p.regs[idx(reg.CRCPR)] = reg.CRCPRReset
	p.regs[idx(reg.I2SPR)] = reg.I2SPRReset
	for _, o := range opts {
		o(p)
	}
	return p
}

func idx(off reg.Offset) int {
	return int(off / 4)
}

func (p *Peripheral) Registers() reg.Block {
	return p
}

func (p *Peripheral) I2SClock() (physic.Frequency, error) {
	if p.clockErr != nil {
		return 0, p.clockErr
	}
	return p.clock, nil
}

func (p *Peripheral) WS() i2s.LinePin {
	return p.ws
}

// Load reads a register with the hardware read side effects.
func (p *Peripheral) Load(off reg.Offset) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if off >= reg.Size || off%4 != 0 {
		panic(fmt.Sprintf("sim: load from invalid offset %#x", uintptr(off)))
	}
	var v uint16
	switch off {
	case reg.SR:
		v = p.regs[idx(reg.SR)]
		mask := reg.SR_FRE | reg.SR_UDR
		if p.ovrArmed {
			mask |= reg.SR_OVR
			p.ovrArmed = false
		}
		p.regs[idx(reg.SR)] &^= mask
	case reg.DR:
		v = p.rx
		if p.regs[idx(reg.SR)]&reg.SR_OVR != 0 {
			p.ovrArmed = true
		}
		p.regs[idx(reg.SR)] &^= reg.SR_RXNE
	default:
		v = p.regs[idx(off)]
	}
	p.journal = append(p.journal, Access{Op: Load, Offset: off, Value: v})
	return v
}

// Store writes a register with the hardware write side effects. SR is read
// only.
func (p *Peripheral) Store(off reg.Offset, value uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if off >= reg.Size || off%4 != 0 {
		panic(fmt.Sprintf("sim: store to invalid offset %#x", uintptr(off)))
	}
	p.journal = append(p.journal, Access{Op: Store, Offset: off, Value: value})
	switch off {
	case reg.SR:
		return
	case reg.DR:
		p.tx = value
		p.regs[idx(reg.SR)] &^= reg.SR_TXE
		return
	case reg.I2SCFGR:
		p.setEnabled(p.regs[idx(off)]&reg.I2SCFGR_I2SE != 0, value&reg.I2SCFGR_I2SE != 0, value)
	}
	p.regs[idx(off)] = value
}

func (p *Peripheral) setEnabled(was, is bool, cfg uint16) {
	sr := &p.regs[idx(reg.SR)]
	switch {
	case was && !is:
		*sr &^= reg.SR_TXE | reg.SR_BSY
	case !was && is:
		*sr |= reg.SR_BSY
		if transmitting(cfg) {
			*sr |= reg.SR_TXE
		}
	}
}

func transmitting(cfg uint16) bool {
	mode := cfg & reg.I2SCFGR_I2SCFG_Msk
	return mode == reg.I2SCFGR_I2SCFG_SLAVETX || mode == reg.I2SCFGR_I2SCFG_MASTERTX
}

func slave(cfg uint16) bool {
	mode := cfg & reg.I2SCFGR_I2SCFG_Msk
	return mode == reg.I2SCFGR_I2SCFG_SLAVETX || mode == reg.I2SCFGR_I2SCFG_SLAVERX
}

func (p *Peripheral) enabled() bool {
	return p.regs[idx(reg.I2SCFGR)]&reg.I2SCFGR_I2SE != 0
}

func (p *Peripheral) toggleChannel() {
	p.regs[idx(reg.SR)] ^= reg.SR_CHSIDE
}

// Receive delivers a sample from the bus. If the previous sample was not read
// the new one is lost and OVR is set. Samples are ignored while the
// peripheral is disabled or transmitting.
func (p *Peripheral) Receive(sample uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg := p.regs[idx(reg.I2SCFGR)]
	if !p.enabled() || transmitting(cfg) {
		return
	}
	sr := &p.regs[idx(reg.SR)]
	if *sr&reg.SR_RXNE != 0 {
		*sr |= reg.SR_OVR
		return
	}
	p.rx = sample
	*sr |= reg.SR_RXNE
	p.toggleChannel()
}

// Shift moves the buffered sample to the bus and returns it. When the buffer
// is empty a slave transmitter raises UDR and ok is false.
func (p *Peripheral) Shift() (sample uint16, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg := p.regs[idx(reg.I2SCFGR)]
	if !p.enabled() || !transmitting(cfg) {
		return 0, false
	}
	sr := &p.regs[idx(reg.SR)]
	if *sr&reg.SR_TXE != 0 {
		if slave(cfg) {
			*sr |= reg.SR_UDR
		}
		return 0, false
	}
	*sr |= reg.SR_TXE
	p.toggleChannel()
	return p.tx, true
}

// FrameError raises FRE, which only an enabled slave can detect.
func (p *Peripheral) FrameError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled() && slave(p.regs[idx(reg.I2SCFGR)]) {
		p.regs[idx(reg.SR)] |= reg.SR_FRE
	}
}

// SetWS drives the word select line.
func (p *Peripheral) SetWS(l gpio.Level) {
	p.ws.Lock()
	defer p.ws.Unlock()
	p.ws.L = l
}

// Peek returns a register value without side effects or journal entry.
func (p *Peripheral) Peek(off reg.Offset) uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs[idx(off)]
}

// Poke sets a register value without side effects or journal entry.
func (p *Peripheral) Poke(off reg.Offset, value uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs[idx(off)] = value
}

// Journal returns a copy of the register accesses since the last reset.
func (p *Peripheral) Journal() []Access {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Access(nil), p.journal...)
}

// ResetJournal empties the access journal.
func (p *Peripheral) ResetJournal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.journal = p.journal[:0]
}
