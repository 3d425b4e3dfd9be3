package adapter

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var ErrPinNotFound = errors.New("pin not found")

// HostPin is a line-state pin on a GPIO of the machine running the program,
// as registered by the periph host drivers.
type HostPin struct {
	pin gpio.PinIn
}

// NewHostPin initializes the host drivers and opens the GPIO called name
// (for example "GPIO17") as a floating input.
func NewHostPin(name string) (*HostPin, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
	}
	return newHostPin(p)
}

func newHostPin(p gpio.PinIn) (*HostPin, error) {
	if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("could not configure %s as input: %w", p, err)
	}
	return &HostPin{pin: p}, nil
}

func (h *HostPin) Read() gpio.Level {
	return h.pin.Read()
}

func (h *HostPin) String() string {
	return h.pin.String()
}
