package i2s

// Direction is satisfied by the Transmit and Receive markers only.
type Direction interface {
	Transmit | Receive
	transmit() bool
}

// Transmit marks a configuration or driver sending data.
type Transmit struct{}

// Receive marks a configuration or driver receiving data.
type Receive struct{}

func (Transmit) transmit() bool { return true }
func (Receive) transmit() bool  { return false }

func isTransmit[D Direction]() bool {
	var d D
	return d.transmit()
}

// Settings is a plain copy of a configuration, for inspection and comparison.
type Settings struct {
	Mode          Mode
	Standard      Standard
	ClockPolarity ClockPolarity
	DataFormat    DataFormat
	MasterClock   bool
	Frequency     Frequency
}

// attributes are the fields shared by every configuration. Configurations
// hold them by value so each builder step copies them.
type attributes struct {
	standard    Standard
	polarity    ClockPolarity
	format      DataFormat
	masterClock bool
	frequency   Frequency
}

var defaultAttributes = attributes{
	standard:  Philips,
	polarity:  IdleLow,
	format:    Data16Channel16,
	frequency: Frequency{Kind: FixedPrescaler, Prescaler: DefaultPrescaler},
}

func (a attributes) settings(mode Mode) Settings {
	return Settings{
		Mode:          mode,
		Standard:      a.standard,
		ClockPolarity: a.polarity,
		DataFormat:    a.format,
		MasterClock:   a.masterClock,
		Frequency:     a.frequency,
	}
}

// SlaveConfig is the configuration of a driver receiving its clocks from
// another device. Every method returns a new value and leaves the receiver
// untouched.
type SlaveConfig[D Direction] struct {
	attr attributes
}

// MasterConfig is the configuration of a driver generating the clocks.
// Every method returns a new value and leaves the receiver untouched.
type MasterConfig[D Direction] struct {
	attr attributes
}

// NewSlave returns the default slave transmit configuration: Philips standard,
// clock idle low, 16 bit data on 16 bit channels.
func NewSlave() SlaveConfig[Transmit] {
	return SlaveConfig[Transmit]{attr: defaultAttributes}
}

// NewMaster returns the default master transmit configuration. The master
// clock output is disabled and the prescaler is at its reset value.
func NewMaster() MasterConfig[Transmit] {
	return MasterConfig[Transmit]{attr: defaultAttributes}
}

// DefaultConfig is NewSlave.
func DefaultConfig() SlaveConfig[Transmit] {
	return NewSlave()
}

func (c SlaveConfig[D]) Transmit() SlaveConfig[Transmit] {
	return SlaveConfig[Transmit](c)
}

func (c SlaveConfig[D]) Receive() SlaveConfig[Receive] {
	return SlaveConfig[Receive](c)
}

func (c SlaveConfig[D]) Standard(s Standard) SlaveConfig[D] {
	c.attr.standard = s
	return c
}

func (c SlaveConfig[D]) ClockPolarity(p ClockPolarity) SlaveConfig[D] {
	c.attr.polarity = p
	return c
}

func (c SlaveConfig[D]) DataFormat(f DataFormat) SlaveConfig[D] {
	c.attr.format = f
	return c
}

// ToSlave returns the configuration unchanged.
func (c SlaveConfig[D]) ToSlave() SlaveConfig[D] {
	return c
}

// ToMaster keeps every setting. The master clock stays disabled and the
// prescaler at its reset value until set on the returned configuration.
func (c SlaveConfig[D]) ToMaster() MasterConfig[D] {
	return MasterConfig[D](c)
}

// Settings returns a copy of the configuration.
func (c SlaveConfig[D]) Settings() Settings {
	return c.attr.settings(modeOf(false, isTransmit[D]()))
}

func (c MasterConfig[D]) Transmit() MasterConfig[Transmit] {
	return MasterConfig[Transmit](c)
}

func (c MasterConfig[D]) Receive() MasterConfig[Receive] {
	return MasterConfig[Receive](c)
}

func (c MasterConfig[D]) Standard(s Standard) MasterConfig[D] {
	c.attr.standard = s
	return c
}

func (c MasterConfig[D]) ClockPolarity(p ClockPolarity) MasterConfig[D] {
	c.attr.polarity = p
	return c
}

func (c MasterConfig[D]) DataFormat(f DataFormat) MasterConfig[D] {
	c.attr.format = f
	return c
}

// ToSlave drops the master clock and resets the frequency to the default
// prescaler, slaves get their clocks from outside.
func (c MasterConfig[D]) ToSlave() SlaveConfig[D] {
	c.attr.masterClock = false
	c.attr.frequency = Frequency{Kind: FixedPrescaler, Prescaler: DefaultPrescaler}
	return SlaveConfig[D](c)
}

// ToMaster returns the configuration unchanged.
func (c MasterConfig[D]) ToMaster() MasterConfig[D] {
	return c
}

// MasterClock enables the MCK output. The MCK frequency is always 256 times
// the sample rate, which changes the prescaler computation.
func (c MasterConfig[D]) MasterClock(enable bool) MasterConfig[D] {
	c.attr.masterClock = enable
	return c
}

// Prescaler sets the divider fields directly. It panics if div is lower
// than 2.
func (c MasterConfig[D]) Prescaler(odd bool, div uint8) MasterConfig[D] {
	p := Prescaler{Odd: odd, Div: div}
	if !p.Valid() {
		panic("i2s: prescaler div must be at least 2")
	}
	c.attr.frequency = Frequency{Kind: FixedPrescaler, Prescaler: p}
	return c
}

// RequestFrequency asks for the sample rate closest to freq. The achieved
// rate can be read back with SampleRate. It panics if freq is zero.
func (c MasterConfig[D]) RequestFrequency(freq uint32) MasterConfig[D] {
	if freq == 0 {
		panic("i2s: requested frequency must not be zero")
	}
	c.attr.frequency = Frequency{Kind: Requested, Hz: freq}
	return c
}

// RequireFrequency asks for exactly freq. Building the driver fails with
// ErrUnreachableFrequency when the prescaler cannot produce it. It panics if
// freq is zero.
func (c MasterConfig[D]) RequireFrequency(freq uint32) MasterConfig[D] {
	if freq == 0 {
		panic("i2s: required frequency must not be zero")
	}
	c.attr.frequency = Frequency{Kind: Required, Hz: freq}
	return c
}

// Settings returns a copy of the configuration.
func (c MasterConfig[D]) Settings() Settings {
	return c.attr.settings(modeOf(true, isTransmit[D]()))
}
