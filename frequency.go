package i2s

import (
	"fmt"

	"github.com/mklimuk/i2s/reg"
)

// Sampling frequency calculation
//
//	Fs = i2s_clock / [256 * ((2 * div) + odd)]                   master clock enabled
//	Fs = i2s_clock / [(channel_length * 2) * ((2 * div) + odd)]  master clock disabled
//
// which is Fs = i2s_clock / (coef * division) with division = (div << 1) | odd,
// so division[8:1] is div[7:0] and division[0] is odd.

const (
	minDivision = 4
	maxDivision = 511
)

// Prescaler is the raw content of the I2SPR divider fields.
type Prescaler struct {
	Odd bool  `yaml:"odd"`
	Div uint8 `yaml:"div"`
}

// DefaultPrescaler is the I2SPR reset value.
var DefaultPrescaler = Prescaler{Odd: false, Div: 2}

// Division returns (2 * Div) + Odd.
func (p Prescaler) Division() uint32 {
	d := uint32(p.Div) << 1
	if p.Odd {
		d |= 1
	}
	return d
}

// Valid reports whether the prescaler may be written to hardware.
func (p Prescaler) Valid() bool {
	return p.Div >= 2
}

func (p Prescaler) String() string {
	return fmt.Sprintf("odd=%t div=%d", p.Odd, p.Div)
}

func (p Prescaler) bits() uint16 {
	b := uint16(p.Div) & reg.I2SPR_I2SDIV_Msk
	if p.Odd {
		b |= reg.I2SPR_ODD
	}
	return b
}

func prescalerFromDivision(division uint64) Prescaler {
	return Prescaler{Odd: division&1 == 1, Div: uint8(division >> 1)}
}

// Coefficient returns the factor between the sample rate and the bit clock
// source for one prescaler step.
func Coefficient(masterClock bool, format DataFormat) uint32 {
	if masterClock {
		return 256
	}
	if format == Data16Channel16 {
		return 32
	}
	return 64
}

// divRound is the integer division rounded to the nearest, ties rounded up.
func divRound(n, d uint64) uint64 {
	return (n + d>>1) / d
}

// RequestPrescaler returns the prescaler giving the sample rate closest to
// freq. Divisions outside the hardware range are clamped, so the result is
// always usable. The achieved rate is given by SampleRate.
func RequestPrescaler(clockHz, freq uint32, masterClock bool, format DataFormat) Prescaler {
	coef := uint64(Coefficient(masterClock, format))
	division := divRound(uint64(clockHz), coef*uint64(freq))
	switch {
	case division < minDivision:
		return Prescaler{Odd: false, Div: 2}
	case division > maxDivision:
		return Prescaler{Odd: true, Div: 255}
	default:
		return prescalerFromDivision(division)
	}
}

// RequirePrescaler returns the prescaler giving exactly freq, or an error
// wrapping ErrUnreachableFrequency when no prescaler does.
func RequirePrescaler(clockHz, freq uint32, masterClock bool, format DataFormat) (Prescaler, error) {
	coef := uint64(Coefficient(masterClock, format))
	step := coef * uint64(freq)
	division := uint64(clockHz) / step
	if uint64(clockHz)%step != 0 || division < minDivision || division > maxDivision {
		return Prescaler{}, fmt.Errorf("%w: %d Hz from a %d Hz clock (coef %d)", ErrUnreachableFrequency, freq, clockHz, coef)
	}
	return prescalerFromDivision(division), nil
}

// SampleRate returns the sample rate produced by a prescaler.
func SampleRate(clockHz uint32, p Prescaler, masterClock bool, channelWidth int) uint32 {
	coef := uint32(256)
	if !masterClock {
		coef = uint32(channelWidth) * 2
	}
	division := p.Division()
	if division == 0 {
		return 0
	}
	return clockHz / (coef * division)
}

// FrequencyKind tells how the sampling frequency of a configuration is given.
type FrequencyKind uint8

const (
	// FixedPrescaler writes the prescaler as is.
	FixedPrescaler FrequencyKind = iota
	// Requested picks the closest achievable rate.
	Requested
	// Required demands an exact rate, building fails otherwise.
	Required
)

func (k FrequencyKind) String() string {
	switch k {
	case Requested:
		return "request"
	case Required:
		return "require"
	default:
		return "prescaler"
	}
}

// Frequency specifies the sampling frequency of a configuration.
type Frequency struct {
	Kind      FrequencyKind
	Prescaler Prescaler // FixedPrescaler only
	Hz        uint32    // Requested and Required only
}

func (f Frequency) String() string {
	if f.Kind == FixedPrescaler {
		return fmt.Sprintf("prescaler(%s)", f.Prescaler)
	}
	return fmt.Sprintf("%s(%d Hz)", f.Kind, f.Hz)
}

// resolve turns the frequency into the prescaler to write. The clock is only
// queried when a rate has to be computed.
func (f Frequency) resolve(p Peripheral, masterClock bool, format DataFormat) (Prescaler, error) {
	if f.Kind == FixedPrescaler {
		return f.Prescaler, nil
	}
	clock, err := clockHz(p)
	if err != nil {
		return Prescaler{}, err
	}
	if f.Kind == Requested {
		return RequestPrescaler(clock, f.Hz, masterClock, format), nil
	}
	return RequirePrescaler(clock, f.Hz, masterClock, format)
}
