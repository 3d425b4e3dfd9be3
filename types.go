package i2s

import (
	"fmt"

	"github.com/mklimuk/i2s/reg"
)

// Standard is the I2S frame format.
type Standard uint8

const (
	// Philips I2S
	Philips Standard = iota
	// MSB justified
	MSB
	// LSB justified
	LSB
	// PCMShortSync is PCM with short frame synchronisation.
	PCMShortSync
	// PCMLongSync is PCM with long frame synchronisation.
	PCMLongSync
)

var standardNames = []string{"philips", "msb", "lsb", "pcm-short", "pcm-long"}

func (s Standard) String() string {
	if int(s) < len(standardNames) {
		return standardNames[s]
	}
	return fmt.Sprintf("Standard(%d)", uint8(s))
}

func (s Standard) MarshalText() ([]byte, error) {
	if int(s) >= len(standardNames) {
		return nil, fmt.Errorf("i2s: invalid standard %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Standard) UnmarshalText(text []byte) error {
	for i, name := range standardNames {
		if name == string(text) {
			*s = Standard(i)
			return nil
		}
	}
	return fmt.Errorf("i2s: unknown standard %q", text)
}

func (s Standard) bits() uint16 {
	switch s {
	case MSB:
		return reg.I2SCFGR_I2SSTD_MSB
	case LSB:
		return reg.I2SCFGR_I2SSTD_LSB
	case PCMShortSync:
		return reg.I2SCFGR_I2SSTD_PCM
	case PCMLongSync:
		return reg.I2SCFGR_I2SSTD_PCM | reg.I2SCFGR_PCMSYNC
	default:
		return reg.I2SCFGR_I2SSTD_PHILIPS
	}
}

// ClockPolarity is the steady state level of the serial clock.
type ClockPolarity uint8

const (
	IdleLow ClockPolarity = iota
	IdleHigh
)

func (p ClockPolarity) String() string {
	switch p {
	case IdleLow:
		return "idle-low"
	case IdleHigh:
		return "idle-high"
	default:
		return fmt.Sprintf("ClockPolarity(%d)", uint8(p))
	}
}

func (p ClockPolarity) MarshalText() ([]byte, error) {
	if p > IdleHigh {
		return nil, fmt.Errorf("i2s: invalid clock polarity %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *ClockPolarity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle-low":
		*p = IdleLow
	case "idle-high":
		*p = IdleHigh
	default:
		return fmt.Errorf("i2s: unknown clock polarity %q", text)
	}
	return nil
}

// DataFormat is the data length to transfer together with the channel length.
type DataFormat uint8

const (
	// Data16Channel16 is 16 bit data on a 16 bit wide channel.
	Data16Channel16 DataFormat = iota
	// Data16Channel32 is 16 bit data on a 32 bit wide channel.
	Data16Channel32
	// Data24Channel32 is 24 bit data on a 32 bit wide channel.
	Data24Channel32
	// Data32Channel32 is 32 bit data on a 32 bit wide channel.
	Data32Channel32
)

var dataFormatNames = []string{"16/16", "16/32", "24/32", "32/32"}

func (f DataFormat) String() string {
	if int(f) < len(dataFormatNames) {
		return dataFormatNames[f]
	}
	return fmt.Sprintf("DataFormat(%d)", uint8(f))
}

func (f DataFormat) MarshalText() ([]byte, error) {
	if int(f) >= len(dataFormatNames) {
		return nil, fmt.Errorf("i2s: invalid data format %d", uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *DataFormat) UnmarshalText(text []byte) error {
	for i, name := range dataFormatNames {
		if name == string(text) {
			*f = DataFormat(i)
			return nil
		}
	}
	return fmt.Errorf("i2s: unknown data format %q", text)
}

// ChannelWidth returns the width in bits of one channel slot.
func (f DataFormat) ChannelWidth() int {
	if f == Data16Channel16 {
		return 16
	}
	return 32
}

func (f DataFormat) bits() uint16 {
	switch f {
	case Data16Channel32:
		return reg.I2SCFGR_DATLEN_16 | reg.I2SCFGR_CHLEN
	case Data24Channel32:
		return reg.I2SCFGR_DATLEN_24 | reg.I2SCFGR_CHLEN
	case Data32Channel32:
		return reg.I2SCFGR_DATLEN_32 | reg.I2SCFGR_CHLEN
	default:
		return reg.I2SCFGR_DATLEN_16
	}
}

// Channel is the audio channel associated with a sample.
type Channel uint8

const (
	Left Channel = iota
	Right
)

func (c Channel) String() string {
	if c == Right {
		return "right"
	}
	return "left"
}

// Mode is the role and direction pair a driver runs in. Driver types carry it
// statically; the value only exists for logging and configuration dispatch.
type Mode uint8

const (
	ModeSlaveTransmit Mode = iota
	ModeSlaveReceive
	ModeMasterTransmit
	ModeMasterReceive
)

var modeNames = []string{"slave-tx", "slave-rx", "master-tx", "master-rx"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func (m Mode) MarshalText() ([]byte, error) {
	if int(m) >= len(modeNames) {
		return nil, fmt.Errorf("i2s: invalid mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	for i, name := range modeNames {
		if name == string(text) {
			*m = Mode(i)
			return nil
		}
	}
	return fmt.Errorf("i2s: unknown mode %q", text)
}

// IsMaster reports whether the peripheral drives the clocks.
func (m Mode) IsMaster() bool {
	return m == ModeMasterTransmit || m == ModeMasterReceive
}

// IsTransmit reports whether the peripheral sends data.
func (m Mode) IsTransmit() bool {
	return m == ModeSlaveTransmit || m == ModeMasterTransmit
}

func modeOf(master, transmit bool) Mode {
	switch {
	case master && transmit:
		return ModeMasterTransmit
	case master:
		return ModeMasterReceive
	case transmit:
		return ModeSlaveTransmit
	default:
		return ModeSlaveReceive
	}
}

func (m Mode) bits() uint16 {
	switch m {
	case ModeSlaveReceive:
		return reg.I2SCFGR_I2SCFG_SLAVERX
	case ModeMasterTransmit:
		return reg.I2SCFGR_I2SCFG_MASTERTX
	case ModeMasterReceive:
		return reg.I2SCFGR_I2SCFG_MASTERRX
	default:
		return reg.I2SCFGR_I2SCFG_SLAVETX
	}
}
