package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2s"
	"github.com/mklimuk/i2s/cmd/i2s/console"
	"github.com/mklimuk/i2s/config"
	"github.com/mklimuk/i2s/reg"
	"github.com/mklimuk/i2s/sim"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "driver configuration files",
		Subcommands: cli.Commands{
			configCheckCmd(),
			configInitCmd(),
		},
	}
}

// registerReport is what a configuration turns into once built.
type registerReport struct {
	Mode       i2s.Mode      `yaml:"mode"`
	Config     config.Driver `yaml:"config"`
	I2SCFGR    string        `yaml:"i2scfgr"`
	I2SPR      string        `yaml:"i2spr"`
	SampleRate uint32        `yaml:"sample_rate,omitempty"`
}

func newRegisterReport(cfg config.Driver, clock physic.Frequency) (registerReport, error) {
	p := sim.New(sim.WithClock(clock))
	drv, err := config.Open(p, cfg)
	if err != nil {
		return registerReport{}, err
	}
	report := registerReport{
		Mode:    drv.Mode(),
		Config:  cfg,
		I2SCFGR: fmt.Sprintf("0x%04x", p.Peek(reg.I2SCFGR)),
		I2SPR:   fmt.Sprintf("0x%04x", p.Peek(reg.I2SPR)),
	}
	if sr, ok := drv.(i2s.SampleRater); ok {
		report.SampleRate, err = sr.SampleRate()
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func configCheckCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "validate a configuration and print the resulting registers",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			clockFlag(),
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return console.Exit(1, "expected 1 argument, got %d", c.NArg())
			}
			cfg, err := config.LoadFile(c.Args().First())
			if err != nil {
				return console.Exit(1, "could not load configuration: %v", err)
			}
			report, err := newRegisterReport(cfg, *c.Generic("clock").(*physic.Frequency))
			if err != nil {
				return console.Exit(2, "could not build driver: %v", err)
			}
			enc := yaml.NewEncoder(console.Writer())
			enc.SetIndent(2)
			defer func() { _ = enc.Close() }()
			return enc.Encode(report)
		},
	}
}

func configInitCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "create a configuration interactively",
		ArgsUsage: "[file]",
		Action: func(c *cli.Context) error {
			cfg, err := wizard(console.NewPrompter())
			if err != nil {
				return console.Exit(1, "configuration aborted: %v", err)
			}
			if c.NArg() == 0 {
				return cfg.Save(console.Writer())
			}
			path := c.Args().First()
			if _, err := os.Stat(path); err == nil {
				ok, err := console.NewPrompter().YesOrNo(fmt.Sprintf("%s exists, overwrite?", path))
				if err != nil || !ok {
					return console.Exit(1, "not overwriting %s", path)
				}
			}
			f, err := os.Create(path)
			if err != nil {
				return console.Exit(1, "could not create file: %v", err)
			}
			defer func() { _ = f.Close() }()
			if err := cfg.Save(f); err != nil {
				return console.Exit(1, "could not save configuration: %v", err)
			}
			console.PInfof(console.PictoNotebook, "configuration written to %s", path)
			return nil
		},
	}
}

func names[T fmt.Stringer](values ...T) []string {
	res := make([]string, len(values))
	for i, v := range values {
		res[i] = v.String()
	}
	return res
}

// wizard asks for every field of a driver configuration, defaults first.
func wizard(p *console.Prompter) (config.Driver, error) {
	cfg := config.Default()
	role, err := p.Choose("role", string(config.Slave), string(config.Master))
	if err != nil {
		return cfg, err
	}
	cfg.Role = config.Role(role)
	direction, err := p.Choose("direction", string(config.Transmit), string(config.Receive))
	if err != nil {
		return cfg, err
	}
	cfg.Direction = config.Direction(direction)
	std, err := p.Choose("standard", names(i2s.Philips, i2s.MSB, i2s.LSB, i2s.PCMShortSync, i2s.PCMLongSync)...)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Standard.UnmarshalText([]byte(std)); err != nil {
		return cfg, err
	}
	pol, err := p.Choose("clock polarity", names(i2s.IdleLow, i2s.IdleHigh)...)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ClockPolarity.UnmarshalText([]byte(pol)); err != nil {
		return cfg, err
	}
	format, err := p.Choose("data format", names(i2s.Data16Channel16, i2s.Data16Channel32, i2s.Data24Channel32, i2s.Data32Channel32)...)
	if err != nil {
		return cfg, err
	}
	if err := cfg.DataFormat.UnmarshalText([]byte(format)); err != nil {
		return cfg, err
	}
	if cfg.Role == config.Master {
		if cfg.MasterClock, err = p.YesOrNo("master clock output"); err != nil {
			return cfg, err
		}
		if err := askFrequency(p, &cfg.Frequency); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

func askFrequency(p *console.Prompter, f *config.Frequency) error {
	kind, err := p.Choose("frequency", "request", "require", "prescaler", "none")
	if err != nil {
		return err
	}
	switch kind {
	case "request", "require":
		rate, err := p.Uint("sample rate (Hz)", 48000, 32)
		if err != nil {
			return err
		}
		if kind == "request" {
			f.Request = uint32(rate)
		} else {
			f.Require = uint32(rate)
		}
	case "prescaler":
		odd, err := p.YesOrNo("odd")
		if err != nil {
			return err
		}
		div, err := p.Uint("div", 2, 8)
		if err != nil {
			return err
		}
		f.Prescaler = &i2s.Prescaler{Odd: odd, Div: uint8(div)}
	}
	return nil
}
