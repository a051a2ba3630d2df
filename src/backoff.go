package mac

import (
	"sort"
	"time"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Random backoff and internal collisions.
 *
 * Description:	Before a category may transmit after the medium has
 *		been busy it must count down a random number of slots.
 *		The count is drawn uniformly from 0 .. CW where
 *
 *			CW = min(CWmax, (CWmin+1) * 2^retry - 1)
 *
 *		Multicast frames are never retried and use a fixed
 *		window instead.
 *
 *		The countdown only runs while the medium is free.  When
 *		the medium goes busy we subtract the whole slots which
 *		went by.  A partly elapsed slot does not count; the
 *		remainder stays slot aligned.
 *
 *------------------------------------------------------------------*/

// contentionWindow for a category at a given retry count.
func contentionWindow(cwMin int, cwMax int, retry int) int {
	var cw = cwMin

	for i := 0; i < retry && cw < cwMax; i++ {
		cw = 2*cw + 1 /* (cwMin+1)*2^i - 1 */
	}

	if cw > cwMax {
		cw = cwMax
	}

	return cw
}

/*------------------------------------------------------------------
 *
 * Name:	generateBackoff
 *
 * Purpose:	Draw a new backoff period for the frame at the head of
 *		a category's queue.
 *
 * Returns:	A whole number of slots, as a time.Duration.
 *
 *------------------------------------------------------------------*/

func (e *Engine) generateBackoff(ac *accessCategory) time.Duration {
	var cw int

	var head = ac.queue.head()
	if head != nil && head.IsMulticast() {
		cw = e.cfg.CWMulticast
	} else {
		cw = contentionWindow(ac.params.CWMin, ac.params.CWMax, ac.retryCount)
	}

	var slots = e.rng.Intn(cw + 1)

	return time.Duration(slots) * e.timing.Slot
}

// frozenBackoff is what is left of a running countdown if the medium
// goes busy at now.
func frozenBackoff(period time.Duration, started time.Duration, now time.Duration, slot time.Duration) time.Duration {
	var elapsedSlots = (now - started) / slot
	var left = period - elapsedSlots*slot

	if left < 0 {
		left = 0
	}

	return left
}

// expiry is one category whose AIFS or backoff just ran out.
type expiry struct {
	ac    *accessCategory
	aifs  bool          /* false for backoff. */
	drawn time.Duration /* Fresh backoff, when AIFS ran out and one is owed but not yet drawn. */
}

/*------------------------------------------------------------------
 *
 * Name:	collectExpired
 *
 * Purpose:	Find every AIFS or backoff timer that expires right now.
 *
 * Description:	When one contention timer fires, any other category
 *		whose timer is due at exactly the same instant is
 *		dealt with in the same step.  Those timers are
 *		cancelled so they do not fire again on their own.
 *
 *		Any backoff which will be needed is drawn here, so the
 *		random number goes into the state machine as part of
 *		the event.
 *
 *		The result is in priority order, lowest first.
 *
 *------------------------------------------------------------------*/

func (e *Engine) collectExpired(fired *accessCategory, firedAIFS bool) []expiry {
	var now = e.sched.Now()
	var out = []expiry{{ac: fired, aifs: firedAIFS}}

	for _, ac := range e.categories {
		if ac.aifsTimer.Scheduled() && ac.aifsTimer.When() == now {
			e.sched.Cancel(ac.aifsTimer)
			out = append(out, expiry{ac: ac, aifs: true})
		}

		if ac.backoffTimer.Scheduled() && ac.backoffTimer.When() == now {
			e.sched.Cancel(ac.backoffTimer)
			out = append(out, expiry{ac: ac, aifs: false})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ac.id < out[j].ac.id
	})

	for i, x := range out {
		if x.aifs && x.ac.backoffPending && x.ac.backoffPeriod < 0 && !x.ac.queue.empty() {
			out[i].drawn = e.generateBackoff(x.ac)
		}
	}

	return out
}

/*------------------------------------------------------------------
 *
 * Name:	resolveContention
 *
 * Purpose:	Decide what happens when AIFS or backoff timers expire.
 *
 * Returns:	The categories which now want to transmit, lowest
 *		priority first, and the effects for the ones which
 *		start (or continue) counting down instead.
 *
 * Description:	AIFS over, backoff owed	- start the backoff countdown,
 *					  drawing a value if there is
 *					  none.  If it comes out as
 *					  zero there is nothing to
 *					  count down: transmit.
 *
 *		AIFS over, no backoff	- transmit.
 *
 *		Backoff over		- transmit.
 *
 *		Empty queue		- nothing.
 *
 *------------------------------------------------------------------*/

func resolveContention(expired []expiry) ([]*accessCategory, []effect) {
	var contenders []*accessCategory
	var effects []effect

	for _, x := range expired {
		var ac = x.ac

		if ac.queue.empty() {
			continue
		}

		if x.aifs && ac.backoffPending {
			var period = ac.backoffPeriod
			if period < 0 {
				period = x.drawn
				effects = append(effects, effect{kind: fxSetBackoff, ac: ac, period: period})
			}

			if period > 0 {
				effects = append(effects, effect{kind: fxStartBackoff, ac: ac})
				continue
			}
		}

		contenders = append(contenders, ac)
	}

	return contenders, effects
}

/*------------------------------------------------------------------
 *
 * Name:	internalCollision
 *
 * Purpose:	Pick a winner when more than one of our own categories
 *		wants the medium at the same instant.
 *
 * Description:	The highest priority one transmits.  Every other one
 *		behaves as if its frame had collided on the air:  it
 *		takes a retry (which may mean giving up) and draws a
 *		new, larger backoff.
 *
 *------------------------------------------------------------------*/

func internalCollision(contenders []*accessCategory) (*accessCategory, []*accessCategory) {
	var winner = contenders[0]

	for _, ac := range contenders[1:] {
		if ac.id > winner.id {
			winner = ac
		}
	}

	var losers []*accessCategory

	for _, ac := range contenders {
		if ac != winner {
			losers = append(losers, ac)
		}
	}

	return winner, losers
}

/* end backoff.go */
