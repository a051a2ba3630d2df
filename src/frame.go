package mac

import (
	"fmt"
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	The subset of an 802.11 MAC frame which the channel
 *		access engine cares about.
 *
 * Description:	Bit level encoding is somebody else's problem.
 *		We only need to know the type, the addresses, the
 *		sequence control field, the Duration/ID field and
 *		how many octets go over the air so the airtime can
 *		be worked out.
 *
 *------------------------------------------------------------------*/

type FrameType int

const (
	FrameData FrameType = iota
	FrameQoSData
	FrameManagement
	FrameRTS
	FrameCTS
	FrameACK
)

// Octets on the air, MAC header and FCS included.
const (
	rtsLength        = 20
	ctsLength        = 14
	ackLength        = 14
	dataHeaderLen    = 24 + 4
	qosDataHeaderLen = 26 + 4
	mgmtHeaderLen    = 24 + 4
)

// MaxSequence is the modulus of the 12 bit sequence number.
const MaxSequence = 4096

// MaxDuration is the largest Duration field value which sets a NAV.
// Values from 32768 up are used for AID and are not a duration.
const MaxDuration = 32767 * time.Microsecond

func (t FrameType) String() string {
	switch t {
	case FrameData:
		return "DATA"
	case FrameQoSData:
		return "QOSDATA"
	case FrameManagement:
		return "MGMT"
	case FrameRTS:
		return "RTS"
	case FrameCTS:
		return "CTS"
	case FrameACK:
		return "ACK"
	}

	return fmt.Sprintf("FrameType(%d)", int(t))
}

// ParseFrameType accepts the names used in scenario files.
func ParseFrameType(s string) (FrameType, error) {
	switch s {
	case "data", "":
		return FrameData, nil
	case "qos", "qosdata":
		return FrameQoSData, nil
	case "management", "mgmt":
		return FrameManagement, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFrameType, s)
}

type Frame struct {
	Type        FrameType
	Receiver    Address
	Transmitter Address

	Duration time.Duration /* NAV for other stations. Microsecond resolution. */

	Sequence uint16 /* 0 .. 4095 */
	Fragment uint8
	Retry    bool

	TID int /* Traffic identifier.  Meaningful only for QoS data. */

	Payload []byte

	BitRate Rate /* Filled in when handed to the radio. */

	numbered bool /* Sequence has been assigned. */
}

// IsControl reports whether f is one of RTS, CTS or ACK.
func (f *Frame) IsControl() bool {
	return f.Type == FrameRTS || f.Type == FrameCTS || f.Type == FrameACK
}

func (f *Frame) IsMulticast() bool {
	return f.Receiver.IsMulticast()
}

// ByteLength is the number of octets transmitted, which is what the
// RTS threshold is compared against.
func (f *Frame) ByteLength() int {
	switch f.Type {
	case FrameRTS:
		return rtsLength
	case FrameCTS:
		return ctsLength
	case FrameACK:
		return ackLength
	case FrameQoSData:
		return qosDataHeaderLen + len(f.Payload)
	case FrameManagement:
		return mgmtHeaderLen + len(f.Payload)
	default:
		return dataHeaderLen + len(f.Payload)
	}
}

func (f *Frame) clone() *Frame {
	var c = *f
	return &c
}

func (f *Frame) String() string {
	var s = fmt.Sprintf("%s>%s %s dur=%s", f.Transmitter, f.Receiver, f.Type, f.Duration)

	if !f.IsControl() {
		s += fmt.Sprintf(" seq=%d len=%d", f.Sequence, f.ByteLength())
		if f.Retry {
			s += " retry"
		}
	}

	if f.BitRate > 0 {
		s += " " + f.BitRate.String()
	}

	return s
}
