package adapter

import (
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/gpio"
)

type digitalReader interface {
	DigitalRead(pin string) (int, error)
}

// GobotPin is a line-state pin read through a gobot digital pin adaptor.
type GobotPin struct {
	reader   digitalReader
	pin      string
	finalize func() error

	mx  sync.Mutex
	err error
}

// NewNanoPiPin connects a NanoPi NEO adaptor and reads header pin pin
// (for example "7"). Close finalizes the adaptor.
func NewNanoPiPin(pin string) (*GobotPin, error) {
	a := nanopi.NewNeoAdaptor()
	if err := a.Connect(); err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	return &GobotPin{reader: a, pin: pin, finalize: a.Finalize}, nil
}

func (g *GobotPin) String() string {
	return "gobot/" + g.pin
}

// Read returns the pin level. Read errors read as Low and are kept for Err.
func (g *GobotPin) Read() gpio.Level {
	v, err := g.reader.DigitalRead(g.pin)
	g.mx.Lock()
	g.err = err
	g.mx.Unlock()
	if err != nil {
		return gpio.Low
	}
	return gpio.Level(v != 0)
}

// Err returns the error of the last Read.
func (g *GobotPin) Err() error {
	g.mx.Lock()
	defer g.mx.Unlock()
	return g.err
}

func (g *GobotPin) Close() error {
	if g.finalize == nil {
		return nil
	}
	return g.finalize()
}
