package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/gpio"

	"github.com/mklimuk/i2s"
	"github.com/mklimuk/i2s/adapter"
	"github.com/mklimuk/i2s/cmd/i2s/console"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterHost    = "host"
	adapterNanoPi  = "nanopi"
)

// errPin is implemented by probes turning read errors into Low.
type errPin interface {
	Err() error
}

func wsCmd() *cli.Command {
	return &cli.Command{
		Name:  "ws",
		Usage: "sample the word select line through a bench adapter",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "probe: mcp2221, host or nanopi",
				Value: adapterMCP2221,
			},
			&cli.StringFlag{
				Name:  "pin",
				Usage: "pin of the probe: GP number for mcp2221, GPIO name for host, header pin for nanopi",
				Value: "0",
			},
			&cli.IntFlag{
				Name:  "samples",
				Usage: "number of reads",
				Value: 10,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "delay between reads",
				Value: 100 * time.Millisecond,
			},
		},
		Action: func(c *cli.Context) error {
			pin, closer, err := openProbe(c.Context, c.String("adapter"), c.String("pin"))
			if err != nil {
				return console.Exit(1, "could not open probe: %v", err)
			}
			if closer != nil {
				defer func() { _ = closer.Close() }()
			}
			return sampleWS(c.Context, pin, c.Int("samples"), c.Duration("interval"))
		},
	}
}

func openProbe(ctx context.Context, kind, pin string) (i2s.LinePin, io.Closer, error) {
	switch kind {
	case adapterMCP2221:
		gp, err := strconv.Atoi(pin)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid GP number %q", pin)
		}
		dev := adapter.NewMCP2221()
		if err := dev.ConfigureInput(ctx, gp); err != nil {
			return nil, nil, err
		}
		p, err := dev.Pin(gp)
		return p, nil, err
	case adapterHost:
		p, err := adapter.NewHostPin(pin)
		return p, nil, err
	case adapterNanoPi:
		p, err := adapter.NewNanoPiPin(pin)
		return p, p, err
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", kind)
	}
}

func sampleWS(ctx context.Context, pin i2s.LinePin, samples int, interval time.Duration) error {
	console.PInfof(console.PictoPin, "sampling WS on %v", pin)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; i < samples; i++ {
		level := pin.Read()
		if ep, ok := pin.(errPin); ok && ep.Err() != nil {
			console.Errorf("read %d failed: %v", i, ep.Err())
		} else {
			render := console.White
			if level == gpio.High {
				render = console.Cyan
			}
			console.Printf("%3d WS %s\n", i, render(level))
		}
		if i == samples-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
