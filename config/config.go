// Package config reads I2S driver configurations from YAML and turns them
// into drivers.
//
//	role: master
//	direction: receive
//	standard: philips
//	clock_polarity: idle-low
//	data_format: 24/32
//	master_clock: true
//	frequency:
//	  request: 48000
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2s"
)

var ErrInvalid = errors.New("config: invalid driver configuration")

// Role tells whether the peripheral generates the clocks.
type Role string

const (
	Master Role = "master"
	Slave  Role = "slave"
)

// Direction tells whether the peripheral sends or receives samples.
type Direction string

const (
	Transmit Direction = "transmit"
	Receive  Direction = "receive"
)

// Frequency holds at most one way of setting the sample rate. An empty
// frequency keeps the reset prescaler.
type Frequency struct {
	Prescaler *i2s.Prescaler `yaml:"prescaler,omitempty"`
	Request   uint32         `yaml:"request,omitempty"`
	Require   uint32         `yaml:"require,omitempty"`
}

func (f Frequency) empty() bool {
	return f.Prescaler == nil && f.Request == 0 && f.Require == 0
}

// Driver is the YAML document describing a driver.
type Driver struct {
	Role          Role              `yaml:"role"`
	Direction     Direction         `yaml:"direction"`
	Standard      i2s.Standard      `yaml:"standard"`
	ClockPolarity i2s.ClockPolarity `yaml:"clock_polarity"`
	DataFormat    i2s.DataFormat    `yaml:"data_format"`
	MasterClock   bool              `yaml:"master_clock,omitempty"`
	Frequency     Frequency         `yaml:"frequency,omitempty"`
}

// Default is the configuration of i2s.DefaultConfig.
func Default() Driver {
	return FromSettings(i2s.DefaultConfig().Settings())
}

// FromSettings converts builder settings into a document.
func FromSettings(s i2s.Settings) Driver {
	d := Driver{
		Role:          Slave,
		Direction:     Receive,
		Standard:      s.Standard,
		ClockPolarity: s.ClockPolarity,
		DataFormat:    s.DataFormat,
		MasterClock:   s.MasterClock,
	}
	if s.Mode.IsMaster() {
		d.Role = Master
	}
	if s.Mode.IsTransmit() {
		d.Direction = Transmit
	}
	switch s.Frequency.Kind {
	case i2s.Requested:
		d.Frequency.Request = s.Frequency.Hz
	case i2s.Required:
		d.Frequency.Require = s.Frequency.Hz
	default:
		if s.Frequency.Prescaler != i2s.DefaultPrescaler {
			p := s.Frequency.Prescaler
			d.Frequency.Prescaler = &p
		}
	}
	return d
}

// Load decodes one document from r. Missing fields keep their default value
// and unknown fields are rejected.
func Load(r io.Reader) (Driver, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: empty document", ErrInvalid)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: could not decode: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFile reads the document at path.
func LoadFile(path string) (Driver, error) {
	f, err := os.Open(path)
	if err != nil {
		return Driver{}, fmt.Errorf("config: could not open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Save encodes the document to w.
func (d Driver) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("config: could not encode: %w", err)
	}
	return enc.Close()
}

// Validate checks the combinations the builder would reject or panic on.
func (d Driver) Validate() error {
	switch d.Role {
	case Master, Slave:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, d.Role)
	}
	switch d.Direction {
	case Transmit, Receive:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalid, d.Direction)
	}
	f := d.Frequency
	if d.Role == Slave {
		if d.MasterClock {
			return fmt.Errorf("%w: master_clock requires the master role", ErrInvalid)
		}
		if !f.empty() {
			return fmt.Errorf("%w: frequency requires the master role", ErrInvalid)
		}
		return nil
	}
	set := 0
	if f.Prescaler != nil {
		set++
		if !f.Prescaler.Valid() {
			return fmt.Errorf("%w: prescaler div must be at least 2, got %d", ErrInvalid, f.Prescaler.Div)
		}
	}
	if f.Request != 0 {
		set++
	}
	if f.Require != 0 {
		set++
	}
	if set > 1 {
		return fmt.Errorf("%w: prescaler, request and require are exclusive", ErrInvalid)
	}
	return nil
}

// Mode returns the driver mode the document describes.
func (d Driver) Mode() i2s.Mode {
	switch {
	case d.Role == Master && d.Direction == Transmit:
		return i2s.ModeMasterTransmit
	case d.Role == Master:
		return i2s.ModeMasterReceive
	case d.Direction == Transmit:
		return i2s.ModeSlaveTransmit
	default:
		return i2s.ModeSlaveReceive
	}
}

func slave[D i2s.Direction](c i2s.SlaveConfig[D], d Driver) i2s.SlaveConfig[D] {
	return c.Standard(d.Standard).ClockPolarity(d.ClockPolarity).DataFormat(d.DataFormat)
}

func master[D i2s.Direction](c i2s.MasterConfig[D], d Driver) i2s.MasterConfig[D] {
	c = c.Standard(d.Standard).
		ClockPolarity(d.ClockPolarity).
		DataFormat(d.DataFormat).
		MasterClock(d.MasterClock)
	f := d.Frequency
	switch {
	case f.Prescaler != nil:
		c = c.Prescaler(f.Prescaler.Odd, f.Prescaler.Div)
	case f.Request != 0:
		c = c.RequestFrequency(f.Request)
	case f.Require != 0:
		c = c.RequireFrequency(f.Require)
	}
	return c
}

// Open validates the document and builds the matching driver on p. The result
// is one of *i2s.MasterTransmitter, *i2s.MasterReceiver, *i2s.SlaveTransmitter
// or *i2s.SlaveReceiver.
func Open(p i2s.Peripheral, d Driver) (i2s.Driver, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var (
		drv i2s.Driver
		err error
	)
	switch d.Mode() {
	case i2s.ModeMasterTransmit:
		drv, err = i2s.NewMasterTransmitter(p, master(i2s.NewMaster(), d))
	case i2s.ModeMasterReceive:
		drv, err = i2s.NewMasterReceiver(p, master(i2s.NewMaster().Receive(), d))
	case i2s.ModeSlaveTransmit:
		drv, err = i2s.NewSlaveTransmitter(p, slave(i2s.NewSlave(), d))
	default:
		drv, err = i2s.NewSlaveReceiver(p, slave(i2s.NewSlave().Receive(), d))
	}
	// a failed constructor leaves a typed nil pointer in drv
	if err != nil {
		return nil, fmt.Errorf("config: could not open %s driver: %w", d.Mode(), err)
	}
	return drv, nil
}
