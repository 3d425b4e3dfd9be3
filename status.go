package i2s

import (
	"fmt"
	"strings"

	"github.com/mklimuk/i2s/reg"
)

// Status snapshots are copies of SR taken when Status was called. Only the
// flags the hardware can raise in the driver mode are exposed. Reading a
// flag from a snapshot never touches the peripheral; flags cleared by reading
// SR were cleared when the snapshot was taken.

type commonBits uint16

// Bsy reports that the peripheral is busy communicating or that its TX
// buffer is not empty.
func (b commonBits) Bsy() bool {
	return uint16(b)&reg.SR_BSY != 0
}

// ChSide is the channel received or about to be transmitted. It is
// meaningless in PCM mode and after an underrun or overrun until the
// peripheral is re-synchronised.
func (b commonBits) ChSide() Channel {
	if uint16(b)&reg.SR_CHSIDE != 0 {
		return Right
	}
	return Left
}

// Raw returns the SR value of the snapshot.
func (b commonBits) Raw() uint16 {
	return uint16(b)
}

type slaveBits uint16

// Fre reports a frame error: WS changed at an unexpected moment. The flag
// was cleared by the status read that produced the snapshot.
func (b slaveBits) Fre() bool {
	return uint16(b)&reg.SR_FRE != 0
}

type receiveBits uint16

// Ovr reports an overrun. It is cleared by a DR read followed by a SR read,
// reading SR alone keeps it set.
func (b receiveBits) Ovr() bool {
	return uint16(b)&reg.SR_OVR != 0
}

// Rxne reports that the receive buffer holds a sample. Reading DR clears it.
func (b receiveBits) Rxne() bool {
	return uint16(b)&reg.SR_RXNE != 0
}

type transmitBits uint16

// Txe reports that the transmit buffer is empty. Writing DR or disabling the
// peripheral clears it.
func (b transmitBits) Txe() bool {
	return uint16(b)&reg.SR_TXE != 0
}

type underrunBits uint16

// Udr reports an underrun. It was cleared by the status read that produced
// the snapshot.
func (b underrunBits) Udr() bool {
	return uint16(b)&reg.SR_UDR != 0
}

type flag struct {
	name string
	set  bool
}

func formatFlags(sr uint16, flags ...flag) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SR=0x%04x", sr)
	for _, f := range flags {
		if f.set {
			sb.WriteByte(' ')
			sb.WriteString(f.name)
		}
	}
	return sb.String()
}

// MasterTransmitStatus is the status of a MasterTransmitter.
type MasterTransmitStatus struct {
	commonBits
	transmitBits
}

func newMasterTransmitStatus(sr uint16) MasterTransmitStatus {
	return MasterTransmitStatus{commonBits(sr), transmitBits(sr)}
}

func (s MasterTransmitStatus) String() string {
	return formatFlags(s.Raw(),
		flag{"BSY", s.Bsy()},
		flag{"TXE", s.Txe()},
	) + " " + s.ChSide().String()
}

// MasterReceiveStatus is the status of a MasterReceiver.
type MasterReceiveStatus struct {
	commonBits
	receiveBits
}

func newMasterReceiveStatus(sr uint16) MasterReceiveStatus {
	return MasterReceiveStatus{commonBits(sr), receiveBits(sr)}
}

func (s MasterReceiveStatus) String() string {
	return formatFlags(s.Raw(),
		flag{"BSY", s.Bsy()},
		flag{"OVR", s.Ovr()},
		flag{"RXNE", s.Rxne()},
	) + " " + s.ChSide().String()
}

// SlaveTransmitStatus is the status of a SlaveTransmitter.
type SlaveTransmitStatus struct {
	commonBits
	slaveBits
	transmitBits
	underrunBits
}

func newSlaveTransmitStatus(sr uint16) SlaveTransmitStatus {
	return SlaveTransmitStatus{commonBits(sr), slaveBits(sr), transmitBits(sr), underrunBits(sr)}
}

func (s SlaveTransmitStatus) String() string {
	return formatFlags(s.Raw(),
		flag{"BSY", s.Bsy()},
		flag{"FRE", s.Fre()},
		flag{"TXE", s.Txe()},
		flag{"UDR", s.Udr()},
	) + " " + s.ChSide().String()
}

// SlaveReceiveStatus is the status of a SlaveReceiver.
type SlaveReceiveStatus struct {
	commonBits
	slaveBits
	receiveBits
}

func newSlaveReceiveStatus(sr uint16) SlaveReceiveStatus {
	return SlaveReceiveStatus{commonBits(sr), slaveBits(sr), receiveBits(sr)}
}

func (s SlaveReceiveStatus) String() string {
	return formatFlags(s.Raw(),
		flag{"BSY", s.Bsy()},
		flag{"FRE", s.Fre()},
		flag{"OVR", s.Ovr()},
		flag{"RXNE", s.Rxne()},
	) + " " + s.ChSide().String()
}
