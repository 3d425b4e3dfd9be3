// Package reg describes the SPI version 1.2 register block (STM32F1, F2, F4, L0 and L1)
// as far as the I2S driver needs it, and provides the memory mapped access path.
//
// Every register is 32 bits wide on the bus but only the lower half word is
// implemented, hence the uint16 values.
package reg

// Offset is a register offset from the peripheral base address.
type Offset uintptr

// Register map
const (
	CR1     Offset = 0x00
	CR2     Offset = 0x04
	SR      Offset = 0x08
	DR      Offset = 0x0C
	CRCPR   Offset = 0x10
	RXCRCR  Offset = 0x14
	TXCRCR  Offset = 0x18
	I2SCFGR Offset = 0x1C
	I2SPR   Offset = 0x20
)

// Size is the length of the register block in bytes.
const Size = 0x24

func (o Offset) String() string {
	switch o {
	case CR1:
		return "CR1"
	case CR2:
		return "CR2"
	case SR:
		return "SR"
	case DR:
		return "DR"
	case CRCPR:
		return "CRCPR"
	case RXCRCR:
		return "RXCRCR"
	case TXCRCR:
		return "TXCRCR"
	case I2SCFGR:
		return "I2SCFGR"
	case I2SPR:
		return "I2SPR"
	default:
		return "UNKNOWN"
	}
}

// Reset values
const (
	CR1Reset     uint16 = 0x0000
	CR2Reset     uint16 = 0x0000
	SRReset      uint16 = 0x0002 // TXE
	CRCPRReset   uint16 = 0x0007
	I2SCFGRReset uint16 = 0x0000
	I2SPRReset   uint16 = 0x0002 // I2SDIV = 2
)

// CR2 bits
const (
	CR2_RXDMAEN uint16 = 1 << 0
	CR2_TXDMAEN uint16 = 1 << 1
	CR2_SSOE    uint16 = 1 << 2
	CR2_FRF     uint16 = 1 << 4
	CR2_ERRIE   uint16 = 1 << 5
	CR2_RXNEIE  uint16 = 1 << 6
	CR2_TXEIE   uint16 = 1 << 7
)

// SR bits
const (
	SR_RXNE   uint16 = 1 << 0
	SR_TXE    uint16 = 1 << 1
	SR_CHSIDE uint16 = 1 << 2
	SR_UDR    uint16 = 1 << 3
	SR_CRCERR uint16 = 1 << 4
	SR_MODF   uint16 = 1 << 5
	SR_OVR    uint16 = 1 << 6
	SR_BSY    uint16 = 1 << 7
	SR_FRE    uint16 = 1 << 8
)

// I2SCFGR fields
const (
	I2SCFGR_CHLEN uint16 = 1 << 0

	I2SCFGR_DATLEN_Pos        = 1
	I2SCFGR_DATLEN_Msk uint16 = 0b11 << I2SCFGR_DATLEN_Pos
	I2SCFGR_DATLEN_16  uint16 = 0b00 << I2SCFGR_DATLEN_Pos
	I2SCFGR_DATLEN_24  uint16 = 0b01 << I2SCFGR_DATLEN_Pos
	I2SCFGR_DATLEN_32  uint16 = 0b10 << I2SCFGR_DATLEN_Pos

	I2SCFGR_CKPOL uint16 = 1 << 3

	I2SCFGR_I2SSTD_Pos            = 4
	I2SCFGR_I2SSTD_Msk     uint16 = 0b11 << I2SCFGR_I2SSTD_Pos
	I2SCFGR_I2SSTD_PHILIPS uint16 = 0b00 << I2SCFGR_I2SSTD_Pos
	I2SCFGR_I2SSTD_MSB     uint16 = 0b01 << I2SCFGR_I2SSTD_Pos
	I2SCFGR_I2SSTD_LSB     uint16 = 0b10 << I2SCFGR_I2SSTD_Pos
	I2SCFGR_I2SSTD_PCM     uint16 = 0b11 << I2SCFGR_I2SSTD_Pos

	I2SCFGR_PCMSYNC uint16 = 1 << 7

	I2SCFGR_I2SCFG_Pos             = 8
	I2SCFGR_I2SCFG_Msk      uint16 = 0b11 << I2SCFGR_I2SCFG_Pos
	I2SCFGR_I2SCFG_SLAVETX  uint16 = 0b00 << I2SCFGR_I2SCFG_Pos
	I2SCFGR_I2SCFG_SLAVERX  uint16 = 0b01 << I2SCFGR_I2SCFG_Pos
	I2SCFGR_I2SCFG_MASTERTX uint16 = 0b10 << I2SCFGR_I2SCFG_Pos
	I2SCFGR_I2SCFG_MASTERRX uint16 = 0b11 << I2SCFGR_I2SCFG_Pos

	I2SCFGR_I2SE   uint16 = 1 << 10
	I2SCFGR_I2SMOD uint16 = 1 << 11
)

// I2SPR fields
const (
	I2SPR_I2SDIV_Msk uint16 = 0xFF
	I2SPR_ODD        uint16 = 1 << 8
	I2SPR_MCKOE      uint16 = 1 << 9
)

// Block gives access to the registers of one peripheral instance.
//
// Implementations must perform exactly one bus access per call: hardware
// registers have read side effects (reading SR clears some error flags,
// reading DR clears RXNE).
type Block interface {
	Load(off Offset) uint16
	Store(off Offset, value uint16)
}

// Modify performs a read-modify-write of a register: bits in clear are
// cleared, then bits in set are set.
func Modify(b Block, off Offset, clear, set uint16) {
	b.Store(off, b.Load(off)&^clear|set)
}

// SetBit sets or clears a single bit mask depending on enabled.
func SetBit(b Block, off Offset, mask uint16, enabled bool) {
	if enabled {
		Modify(b, off, 0, mask)
		return
	}
	Modify(b, off, mask, 0)
}
