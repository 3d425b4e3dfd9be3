package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2s"
	"github.com/mklimuk/i2s/cmd/i2s/console"
	"github.com/mklimuk/i2s/config"
	"github.com/mklimuk/i2s/sim"
)

func simulateCmd() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "run a configuration on the simulated peripheral",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			clockFlag(),
			&cli.IntFlag{
				Name:  "samples",
				Usage: "number of samples to move",
				Value: 4,
			},
			&cli.BoolFlag{
				Name:  "frame-error",
				Usage: "inject a frame error (slave only)",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print every register access",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return console.Exit(1, "expected 1 argument, got %d", c.NArg())
			}
			cfg, err := config.LoadFile(c.Args().First())
			if err != nil {
				return console.Exit(1, "could not load configuration: %v", err)
			}
			p := sim.New(sim.WithClock(*c.Generic("clock").(*physic.Frequency)))
			drv, err := config.Open(p, cfg)
			if err != nil {
				return console.Exit(2, "could not build driver: %v", err)
			}
			ctx := console.SetTrace(c.Context, c.Bool("trace"))
			run := simulation{p: p, samples: c.Int("samples"), frameError: c.Bool("frame-error")}
			run.run(ctx, drv)
			return nil
		},
	}
}

type simulation struct {
	p          *sim.Peripheral
	samples    int
	frameError bool
}

func (s simulation) run(ctx context.Context, drv i2s.Driver) {
	console.PInfof(console.PictoWave, "running %s driver", console.Bold(drv.Mode()))
	if sr, ok := drv.(i2s.SampleRater); ok {
		if rate, err := sr.SampleRate(); err == nil {
			console.PInfof(console.PictoClock, "sample rate %d Hz", rate)
		}
	}
	drv.Enable()
	switch d := drv.(type) {
	case *i2s.MasterTransmitter:
		s.transmit(d, func() fmt.Stringer { return d.Status() })
	case *i2s.SlaveTransmitter:
		s.injectFrameError()
		s.transmit(d, func() fmt.Stringer { return d.Status() })
		// nothing written: the next shift underruns
		s.p.Shift()
		console.Printf("underrun:  %s\n", d.Status())
	case *i2s.MasterReceiver:
		s.receive(d, func() fmt.Stringer { return d.Status() })
	case *i2s.SlaveReceiver:
		s.injectFrameError()
		s.receive(d, func() fmt.Stringer { return d.Status() })
	}
	s.p.SetWS(gpio.High)
	console.Printf("WS high: %t\n", drv.WSIsHigh())
	drv.Disable()
	if console.IsTrace(ctx) {
		console.PInfof(console.PictoNotebook, "register accesses")
		for _, a := range s.p.Journal() {
			console.Printf("  %s\n", a)
		}
	}
	drv.Release()
}

func (s simulation) injectFrameError() {
	if s.frameError {
		s.p.FrameError()
	}
}

func (s simulation) transmit(d i2s.Transmitter, status func() fmt.Stringer) {
	for i := 0; i < s.samples; i++ {
		sample := uint16(0x1000 + i)
		console.Printf("before:    %s\n", status())
		d.WriteDataRegister(sample)
		shifted, ok := s.p.Shift()
		console.Printf("shift %t 0x%04x: %s\n", ok, shifted, status())
	}
}

func (s simulation) receive(d i2s.Receiver, status func() fmt.Stringer) {
	for i := 0; i < s.samples; i++ {
		s.p.Receive(uint16(0x2000 + i))
		console.Printf("received:  %s\n", status())
		console.Printf("read 0x%04x\n", d.ReadDataRegister())
	}
	// two samples without a read in between overrun
	s.p.Receive(0xAAAA)
	s.p.Receive(0xBBBB)
	console.Printf("overrun:   %s\n", status())
	console.Printf("read 0x%04x\n", d.ReadDataRegister())
	// the snapshot of the SR read clearing OVR still carries it
	console.Printf("after read: %s\n", status())
	console.Printf("cleared:   %s\n", status())
}
