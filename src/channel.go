package mac

import "time"

/*------------------------------------------------------------------
 *
 * Purpose:	Keep track of whether the medium is free.
 *
 * Description:	Two kinds of carrier sense go into this.
 *
 *		Physical - what the radio tells us: is it receiving,
 *		is it transmitting, is there energy on the channel.
 *
 *		Virtual - the network allocation vector.  Frames which
 *		are not for us carry a Duration field saying how much
 *		longer the channel will be in use after they end.  We
 *		stay quiet until that runs out.
 *
 *------------------------------------------------------------------*/

type ChannelState int

const (
	ChannelIdle ChannelState = iota
	ChannelReceiving
	ChannelTransmitting
)

func (s ChannelState) String() string {
	switch s {
	case ChannelIdle:
		return "idle"
	case ChannelReceiving:
		return "receiving"
	case ChannelTransmitting:
		return "transmitting"
	}

	return "?"
}

type channelMonitor struct {
	radio       ChannelState
	carrierBusy bool /* Energy detected, from MediumBusy/MediumFree. */

	nav *Timer /* Scheduled while a reservation is active. */
}

// mediumFree is true when neither physical nor virtual carrier sense
// says someone else has the channel.
func (m *channelMonitor) mediumFree() bool {
	return !m.navActive() && m.radio == ChannelIdle && !m.carrierBusy
}

// physicallyIdle ignores the NAV.
func (m *channelMonitor) physicallyIdle() bool {
	return m.radio == ChannelIdle && !m.carrierBusy
}

func (m *channelMonitor) navActive() bool {
	return m.nav.Scheduled()
}

/*------------------------------------------------------------------
 *
 * Name:	reserve
 *
 * Purpose:	Apply the Duration field of a frame which was not for us.
 *
 * Inputs:	s	- Clock.
 *		d	- Duration field.
 *		expire	- Called when the reservation runs out.
 *
 * Returns:	true if there was no reservation before, i.e. the
 *		medium may just have gone busy.
 *
 * Description:	The NAV only ever grows.  A shorter reservation than
 *		the one we already have is ignored.  Zero and values
 *		beyond MaxDuration are not durations at all.
 *
 *------------------------------------------------------------------*/

func (m *channelMonitor) reserve(s Scheduler, d time.Duration, expire func()) bool {
	if d <= 0 || d > MaxDuration {
		return false
	}

	var until = s.Now() + d

	if m.nav.Scheduled() {
		if m.nav.When() < until {
			s.Cancel(m.nav)
			m.nav = s.At(until, PriorityChannel, expire)
		}

		return false
	}

	m.nav = s.At(until, PriorityChannel, expire)

	return true
}

// navRemaining is zero when there is no reservation.
func (m *channelMonitor) navRemaining(now time.Duration) time.Duration {
	if !m.nav.Scheduled() {
		return 0
	}

	return m.nav.When() - now
}

func (m *channelMonitor) reset(s Scheduler) {
	s.Cancel(m.nav)
	m.nav = nil
	m.carrierBusy = false
	m.radio = ChannelIdle
}
