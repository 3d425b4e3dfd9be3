package adapter

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"periph.io/x/conn/v3/gpio"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")
var ErrInvalidPin = errors.New("invalid MCP2221 pin")

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

type GPIODesignation byte

const (
	GPIOOperation GPIODesignation = 0b00000000
	// This is alternate function of GPIO0
	GPIO0LedUartRx GPIODesignation = 0b00000001
	// This is the dedicated function operation of GPIO0
	GPIO0SSPND GPIODesignation = 0b00000010
	// This is the dedicated function of GPIO1
	GPIO1ClockOutput GPIODesignation = 0b00000001
	// This is the alternate function 0 of GPIO1
	GPIO1ADC1 GPIODesignation = 0b00000010
	// This is the dedicated function of GPIO2
	GPIO2ClockOutput GPIODesignation = 0b00000001
	// This is the dedicated function of GPIO3
	GPIO3LEDI2C GPIODesignation = 0b00000001
)

const gpioModeMask = 0b00001000
const gpioOperationMask = 0b00000111

const (
	cmdReadGPIO      = 0x51
	cmdSetSRAM       = 0x60
	cmdGetSRAM       = 0x61
	sramAlterGPIO    = 0x80
	reportSize       = 64
	defaultRespDelay = 50 * time.Millisecond
)

// MCP2221GPIOValues is the answer to the GPIO read command.
type MCP2221GPIOValues struct {
	Mode  [4]GPIOMode `yaml:"mode"`
	Value [4]byte     `yaml:"value"`
}

// MCP2221GPIOParameters is the GP pin setup kept in the adapter SRAM.
type MCP2221GPIOParameters struct {
	Mode        [4]GPIOMode        `yaml:"mode"`
	Designation [4]GPIODesignation `yaml:"designation"`
}

type hidDevice interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

type opener func(id ...int) (hidDevice, error)

// MCP2221 is a USB to GPIO bridge used on the bench to probe the WS line.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	open         opener
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: defaultRespDelay,
		open:         openHID,
	}
}

func openHID(id ...int) (hidDevice, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 && len(id) == 0 {
		return nil, fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("MCP2221 device not found")
	}
	n := 0
	if len(id) > 0 {
		n = id[0]
	}
	if n < 0 || n >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", n)
	}
	dev, err := devs[n].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

// SetGPIOParameters writes the GP pin setup to the adapter SRAM. It does not
// survive a power cycle.
func (d *MCP2221) SetGPIOParameters(ctx context.Context, params MCP2221GPIOParameters, id ...int) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetSRAM
	d.request[7] = sramAlterGPIO
	for i := 0; i < 4; i++ {
		d.request[8+i] = byte(params.Designation[i]) | byte(params.Mode[i])
	}
	err := d.send(ctx, id...)
	if err != nil {
		return fmt.Errorf("set GP parameters command write failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return ErrCommandFailed
	}
	return nil
}

func (d *MCP2221) GetGPIOParameters(ctx context.Context, id ...int) (MCP2221GPIOParameters, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetSRAM
	err := d.send(ctx, id...)
	var res MCP2221GPIOParameters
	if err != nil {
		return res, fmt.Errorf("get GP parameters command write failed: %w", err)
	}
	if d.response[1] != 0x00 {
		return res, ErrCommandUnsupported
	}
	for i := 0; i < 4; i++ {
		b := d.response[22+i]
		res.Mode[i] = GPIOMode(b & gpioModeMask)
		res.Designation[i] = GPIODesignation(b & gpioOperationMask)
	}
	return res, nil
}

func (d *MCP2221) ReadGPIO(ctx context.Context, id ...int) (MCP2221GPIOValues, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdReadGPIO
	err := d.send(ctx, id...)
	var res MCP2221GPIOValues
	if err != nil {
		return res, fmt.Errorf("read GPIO values command write failed: %w", err)
	}
	// read could not be performed
	if d.response[1] != 0x00 {
		return res, ErrCommandFailed
	}
	for i := 0; i < 4; i++ {
		res.Value[i] = d.response[2+2*i]
		res.Mode[i] = GPIOModeNoOperation
		if dir := d.response[3+2*i]; dir != byte(GPIOModeNoOperation) {
			res.Mode[i] = GPIOMode(dir << 3)
		}
	}
	return res, nil
}

// ConfigureInput turns GP pin gp into a plain GPIO input.
func (d *MCP2221) ConfigureInput(ctx context.Context, gp int, id ...int) error {
	if gp < 0 || gp > 3 {
		return fmt.Errorf("%w: GP%d", ErrInvalidPin, gp)
	}
	params, err := d.GetGPIOParameters(ctx, id...)
	if err != nil {
		return err
	}
	params.Mode[gp] = GPIOModeIn
	params.Designation[gp] = GPIOOperation
	return d.SetGPIOParameters(ctx, params, id...)
}

func (d *MCP2221) send(ctx context.Context, id ...int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.open(id...)
	if err != nil {
		return err
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := slog.Default().Enabled(ctx, slog.LevelDebug)
	if verbose {
		slog.DebugContext(ctx, "sending message to adapter", "request", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.responseWait):
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.DebugContext(ctx, "read message from adapter", "response", hex.EncodeToString(d.response))
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("response to command %#x, expected %#x", d.response[0], d.request[0])
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}

// MCP2221Pin is one GP pin of the adapter seen as a line-state pin.
type MCP2221Pin struct {
	dev     *MCP2221
	gp      int
	id      []int
	timeout time.Duration

	mx  sync.Mutex
	err error
}

// Pin returns GP pin gp of the adapter. id selects the adapter when several
// are connected.
func (d *MCP2221) Pin(gp int, id ...int) (*MCP2221Pin, error) {
	if gp < 0 || gp > 3 {
		return nil, fmt.Errorf("%w: GP%d", ErrInvalidPin, gp)
	}
	return &MCP2221Pin{dev: d, gp: gp, id: id, timeout: time.Second}, nil
}

func (p *MCP2221Pin) String() string {
	return fmt.Sprintf("MCP2221/GP%d", p.gp)
}

// Read returns the pin level. Communication errors read as Low and are kept
// for Err.
func (p *MCP2221Pin) Read() gpio.Level {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	values, err := p.dev.ReadGPIO(ctx, p.id...)
	p.mx.Lock()
	p.err = err
	p.mx.Unlock()
	if err != nil {
		return gpio.Low
	}
	return gpio.Level(values.Value[p.gp] != 0)
}

// Err returns the error of the last Read.
func (p *MCP2221Pin) Err() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.err
}
