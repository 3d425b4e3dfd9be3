package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2s"
	"github.com/mklimuk/i2s/cmd/i2s/console"
)

// common audio sample rates
var audioRates = []uint32{8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000, 192000}

func clockFlag() *cli.GenericFlag {
	clock := 48 * physic.MegaHertz
	return &cli.GenericFlag{
		Name:  "clock",
		Usage: "I2S input clock frequency",
		Value: &clock,
	}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "data format: 16/16, 16/32, 24/32 or 32/32",
		Value: i2s.Data16Channel16.String(),
	}
}

// clockArgs reads the clock and format flags shared by the frequency commands.
func clockArgs(c *cli.Context) (uint32, i2s.DataFormat, error) {
	var format i2s.DataFormat
	if err := format.UnmarshalText([]byte(c.String("format"))); err != nil {
		return 0, format, err
	}
	clock := c.Generic("clock").(*physic.Frequency)
	if *clock < physic.Hertz || *clock/physic.Hertz > math.MaxUint32 {
		return 0, format, fmt.Errorf("%w: %s", i2s.ErrUnknownClock, clock)
	}
	return uint32(*clock / physic.Hertz), format, nil
}

func prescalerCmd() *cli.Command {
	return &cli.Command{
		Name:  "prescaler",
		Usage: "compute the prescaler for a sample rate",
		Flags: []cli.Flag{
			clockFlag(),
			formatFlag(),
			&cli.UintFlag{
				Name:     "rate",
				Usage:    "sample rate in Hz",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "mclk",
				Usage: "master clock output enabled",
			},
			&cli.BoolFlag{
				Name:  "exact",
				Usage: "fail unless the rate is reached exactly",
			},
		},
		Action: func(c *cli.Context) error {
			clock, format, err := clockArgs(c)
			if err != nil {
				return console.Exit(1, "invalid arguments: %v", err)
			}
			rate := uint32(c.Uint("rate"))
			if rate == 0 {
				return console.Exit(1, "rate must not be zero")
			}
			mclk := c.Bool("mclk")
			var p i2s.Prescaler
			if c.Bool("exact") {
				p, err = i2s.RequirePrescaler(clock, rate, mclk, format)
				if err != nil {
					return console.Exit(2, "%v", err)
				}
			} else {
				p = i2s.RequestPrescaler(clock, rate, mclk, format)
			}
			achieved := i2s.SampleRate(clock, p, mclk, format.ChannelWidth())
			console.PInfof(console.PictoClock, "prescaler %s (division %d)", console.Bold(p), p.Division())
			console.PInfof(console.PictoWave, "sample rate %d Hz, error %s", achieved, rateError(rate, achieved))
			if achieved != rate {
				console.Warnf("%d Hz is not reachable exactly, use --exact to refuse approximations", rate)
			} else {
				console.PInfof(console.PictoCheck, "%s", console.Green("exact"))
			}
			return nil
		},
	}
}

func ratesCmd() *cli.Command {
	return &cli.Command{
		Name:  "rates",
		Usage: "list prescalers for common audio sample rates",
		Flags: []cli.Flag{
			clockFlag(),
			formatFlag(),
			&cli.BoolFlag{
				Name:  "mclk",
				Usage: "master clock output enabled",
			},
		},
		Action: func(c *cli.Context) error {
			clock, format, err := clockArgs(c)
			if err != nil {
				return console.Exit(1, "invalid arguments: %v", err)
			}
			mclk := c.Bool("mclk")
			w := tabwriter.NewWriter(console.Writer(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "RATE\tODD\tDIV\tACHIEVED\tERROR\tEXACT")
			for _, rate := range audioRates {
				p := i2s.RequestPrescaler(clock, rate, mclk, format)
				achieved := i2s.SampleRate(clock, p, mclk, format.ChannelWidth())
				_, exactErr := i2s.RequirePrescaler(clock, rate, mclk, format)
				_, _ = fmt.Fprintf(w, "%d\t%t\t%d\t%d\t%s\t%t\n", rate, p.Odd, p.Div, achieved, rateError(rate, achieved), exactErr == nil)
			}
			return w.Flush()
		},
	}
}

func rateError(want, got uint32) string {
	if want == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%+.3f%%", (float64(got)-float64(want))*100/float64(want))
}
