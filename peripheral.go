package i2s

import (
	"errors"
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2s/reg"
)

var ErrNilPeripheral = errors.New("i2s: nil peripheral")
var ErrUnknownClock = errors.New("i2s: i2s clock frequency unknown")
var ErrUnreachableFrequency = errors.New("i2s: cannot reach exactly the required frequency")

// LinePin is the line-state view of a pin. gpio.PinIn from periph satisfies it.
type LinePin interface {
	Read() gpio.Level
}

// Peripheral is an SPI peripheral able to run in I2S mode, typically the SPI
// block together with its pins and a clock handle.
//
// Implementations must own the peripheral exclusively: nothing else may
// access the register block returned by Registers while a driver holds the
// Peripheral.
type Peripheral interface {
	// Registers returns the register block of the peripheral, usually obtained
	// once with reg.Map.
	Registers() reg.Block
	// I2SClock returns the frequency of the I2S input clock.
	I2SClock() (physic.Frequency, error)
	// WS returns the word select line.
	WS() LinePin
}

// clockHz returns the i2s clock of p in whole hertz.
func clockHz(p Peripheral) (uint32, error) {
	f, err := p.I2SClock()
	if err != nil {
		return 0, fmt.Errorf("i2s: could not get i2s clock: %w", err)
	}
	if f < physic.Hertz || f/physic.Hertz > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownClock, f)
	}
	return uint32(f / physic.Hertz), nil
}
