package mac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var dsss = Timing{
	Slot:      20 * time.Microsecond,
	SIFS:      10 * time.Microsecond,
	Preamble:  192 * time.Microsecond,
	BasicRate: Mbps,
}

func TestTiming(t *testing.T) {
	assert.Equal(t, 50*time.Microsecond, dsss.DIFS())
	assert.Equal(t, dsss.DIFS(), dsss.AIFS(2))
	assert.Equal(t, 150*time.Microsecond, dsss.AIFS(7))
	assert.Equal(t, 304*time.Microsecond, dsss.Airtime(ackLength, Mbps))
	assert.Equal(t, 364*time.Microsecond, dsss.EIFS())
	assert.Equal(t, 334*time.Microsecond, dsss.ResponseTimeout(ackLength))
}

func TestAirtimeRoundsUp(t *testing.T) {
	// 1 octet at 11 Mb/s is 727.27 ns.
	assert.Equal(t, 192*time.Microsecond+728*time.Nanosecond, dsss.Airtime(1, 11*Mbps))
	assert.Equal(t, 192*time.Microsecond+1455*time.Nanosecond, dsss.Airtime(1, RateFromMbps(5.5)))
}

func TestAirtimeZeroRatePanics(t *testing.T) {
	assert.Panics(t, func() { dsss.Airtime(10, 0) })
}

func TestRateString(t *testing.T) {
	assert.Equal(t, "5.5Mb/s", RateFromMbps(5.5).String())
	assert.Equal(t, "11Mb/s", (11 * Mbps).String())
}

func TestRoundUpMicros(t *testing.T) {
	assert.Equal(t, time.Duration(0), roundUpMicros(-time.Microsecond))
	assert.Equal(t, time.Microsecond, roundUpMicros(time.Nanosecond))
	assert.Equal(t, 5*time.Microsecond, roundUpMicros(5*time.Microsecond))
}

func TestFrameDurations(t *testing.T) {
	var b = frameBuilder{timing: dsss, self: selfAddr}

	var data = b.data(&Frame{Type: FrameData, Receiver: peerAddr, Payload: make([]byte, 100)}, 2*Mbps, nil, 0)
	assert.Equal(t, 314*time.Microsecond, data.Duration)
	assert.Equal(t, selfAddr, data.Transmitter)
	assert.Equal(t, 2*Mbps, data.BitRate)

	// 128 octets at 2 Mb/s is 512 us.
	var next = &Frame{Type: FrameData, Receiver: peerAddr, Payload: make([]byte, 100)}
	var burst = b.data(next, 2*Mbps, next, 2*Mbps)
	assert.Equal(t, (314+10+192+512+314)*time.Microsecond, burst.Duration)

	var rts = b.rts(next, 2*Mbps)
	assert.Equal(t, (30+304+192+512+304)*time.Microsecond, rts.Duration)
	assert.Equal(t, peerAddr, rts.Receiver)
	assert.Equal(t, Mbps, rts.BitRate)

	var cts = b.cts(rts)
	assert.Equal(t, (20+192+512+304)*time.Microsecond, cts.Duration)
	assert.Equal(t, selfAddr, cts.Receiver)

	var ack = b.ack(burst)
	assert.Equal(t, (10+192+512+314)*time.Microsecond, ack.Duration)

	var mc = b.data(&Frame{Type: FrameData, Receiver: Broadcast}, 11*Mbps, nil, 0)
	assert.Zero(t, mc.Duration)
	assert.Equal(t, Mbps, mc.BitRate)
}
