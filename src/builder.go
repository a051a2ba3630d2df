package mac

import "time"

/*------------------------------------------------------------------
 *
 * Purpose:	Build the frames we send and fill in their Duration.
 *
 * Description:	The Duration field tells everyone else how long the
 *		medium will stay in use after this frame ends, so they
 *		can set their NAV.
 *
 *		RTS	SIFS + CTS + SIFS + DATA + SIFS + ACK
 *		CTS	what the RTS said, minus SIFS + CTS
 *		DATA	SIFS + ACK, plus SIFS + next DATA + SIFS + ACK
 *			if a TXOP burst carries on after this one
 *		ACK	what the DATA said, minus SIFS + ACK
 *		multicast	0, nobody answers.
 *
 *------------------------------------------------------------------*/

type frameBuilder struct {
	timing Timing
	self   Address
}

func (b frameBuilder) ackAirtime() time.Duration {
	return b.timing.Airtime(ackLength, b.timing.BasicRate)
}

func (b frameBuilder) ctsAirtime() time.Duration {
	return b.timing.Airtime(ctsLength, b.timing.BasicRate)
}

// data copies f, ready to go at the given rate.  next is the frame which
// will follow in the same TXOP, or nil.
func (b frameBuilder) data(f *Frame, rate Rate, next *Frame, nextRate Rate) *Frame {
	var d = f.clone()
	d.Transmitter = b.self

	if d.IsMulticast() {
		d.BitRate = b.timing.BasicRate
		d.Duration = 0

		return d
	}

	d.BitRate = rate

	var nav = b.timing.SIFS + b.ackAirtime()
	if next != nil {
		nav += 2*b.timing.SIFS + b.timing.Airtime(next.ByteLength(), nextRate) + b.ackAirtime()
	}

	d.Duration = roundUpMicros(nav)

	return d
}

// rts to protect data, which will be sent at the given rate.
func (b frameBuilder) rts(data *Frame, rate Rate) *Frame {
	var nav = 3*b.timing.SIFS + b.ctsAirtime() +
		b.timing.Airtime(data.ByteLength(), rate) + b.ackAirtime()

	return &Frame{
		Type:        FrameRTS,
		Receiver:    data.Receiver,
		Transmitter: b.self,
		Duration:    roundUpMicros(nav),
		BitRate:     b.timing.BasicRate,
	}
}

func (b frameBuilder) cts(rts *Frame) *Frame {
	return &Frame{
		Type:     FrameCTS,
		Receiver: rts.Transmitter,
		Duration: roundUpMicros(rts.Duration - b.timing.SIFS - b.ctsAirtime()),
		BitRate:  b.timing.BasicRate,
	}
}

func (b frameBuilder) ack(data *Frame) *Frame {
	return &Frame{
		Type:     FrameACK,
		Receiver: data.Transmitter,
		Duration: roundUpMicros(data.Duration - b.timing.SIFS - b.ackAirtime()),
		BitRate:  b.timing.BasicRate,
	}
}
