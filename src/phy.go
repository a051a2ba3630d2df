package mac

import (
	"fmt"
	"strconv"
	"time"
)

// Rate is a PHY bit rate in bits per second.
type Rate int64

const (
	Mbps Rate = 1000000
)

// RateFromMbps converts the figure people actually write, e.g. 5.5.
func RateFromMbps(m float64) Rate {
	return Rate(m * float64(Mbps))
}

func (r Rate) String() string {
	return strconv.FormatFloat(float64(r)/float64(Mbps), 'f', -1, 64) + "Mb/s"
}

/*------------------------------------------------------------------
 *
 * Name:	Timing
 *
 * Purpose:	Everything needed to turn octets into airtime and to
 *		work out the various inter-frame spaces.
 *
 * Description:	The defaults match 802.11b DSSS with the long preamble:
 *
 *			slot		20 us
 *			SIFS		10 us
 *			preamble+PLCP	192 us
 *			basic rate	1 Mb/s
 *
 *------------------------------------------------------------------*/

type Timing struct {
	Slot      time.Duration
	SIFS      time.Duration
	Preamble  time.Duration /* PLCP preamble + header, sent before every frame. */
	BasicRate Rate          /* Control frames and multicast go at this rate. */
}

func (t Timing) DIFS() time.Duration {
	return t.SIFS + 2*t.Slot
}

// AIFS for an arbitration inter-frame space number.  AIFS(2) == DIFS.
func (t Timing) AIFS(aifsn int) time.Duration {
	return t.SIFS + time.Duration(aifsn)*t.Slot
}

// EIFS is used instead of DIFS after a reception with errors so that
// the station we could not decode has time for its ACK.
func (t Timing) EIFS() time.Duration {
	return t.SIFS + t.DIFS() + t.Airtime(ackLength, t.BasicRate)
}

// Airtime of a frame with the given number of octets.
func (t Timing) Airtime(octets int, rate Rate) time.Duration {
	if rate <= 0 {
		panic(fmt.Sprintf("airtime with bit rate %d", rate))
	}

	var bits = int64(octets) * 8
	var ns = (bits*int64(time.Second) + int64(rate) - 1) / int64(rate)

	return t.Preamble + time.Duration(ns)
}

// ResponseTimeout is how long after the end of our transmission we keep
// waiting for the CTS or ACK to show up.
func (t Timing) ResponseTimeout(responseOctets int) time.Duration {
	return t.SIFS + t.Slot + t.Airtime(responseOctets, t.BasicRate)
}

// Duration fields have microsecond resolution.  Always round up.
func roundUpMicros(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}

	return ((d + time.Microsecond - 1) / time.Microsecond) * time.Microsecond
}
