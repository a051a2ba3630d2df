package mac

import "time"

/*------------------------------------------------------------------
 *
 * Purpose:	Frame exchange state machine.
 *
 * Description:	transition looks at the current state and an event
 *		and returns the next state plus a list of effects.
 *		It does not change anything itself.  The effects are
 *		carried out, in order, by Engine.apply.
 *
 *		After every event the machine is "settled":  the
 *		transitions which need no event (queue not empty while
 *		Idle, medium free while deferring, nothing left to do
 *		while contending) are taken until nothing changes.
 *
 *		States:
 *
 *		Idle		Nothing queued.
 *		Defer		Frames queued, medium busy.
 *		WaitAifs	Medium free, AIFS timers running.
 *		Backoff		At least one backoff countdown running.
 *		WaitCts		RTS sent.
 *		WaitAck		Unicast data sent.
 *		WaitMulticast	Multicast data sent, no ACK to wait for.
 *		WaitSifs	Something must be sent once SIFS is over.
 *		Receive		A frame is arriving.
 *
 *------------------------------------------------------------------*/

type State int

const (
	StateIdle State = iota
	StateDefer
	StateWaitAifs
	StateBackoff
	StateWaitCts
	StateWaitAck
	StateWaitMulticast
	StateWaitSifs
	StateReceive
)

var stateNames = [...]string{
	StateIdle:          "Idle",
	StateDefer:         "Defer",
	StateWaitAifs:      "WaitAifs",
	StateBackoff:       "Backoff",
	StateWaitCts:       "WaitCts",
	StateWaitAck:       "WaitAck",
	StateWaitMulticast: "WaitMulticast",
	StateWaitSifs:      "WaitSifs",
	StateReceive:       "Receive",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "?"
	}

	return stateNames[s]
}

type eventKind int

const (
	evSettle     eventKind = iota /* No event, see settle. */
	evDataReady                   /* A frame was queued. */
	evMediumBusy                  /* Free to busy. */
	evMediumFree                  /* Busy to free. */
	evRxStart
	evRxEnd
	evContention /* AIFS and/or backoff timers expired. */
	evSifs
	evTimeout /* CTS, ACK or multicast timer. */
)

type event struct {
	kind     eventKind
	ac       *accessCategory /* evDataReady */
	frame    *Frame          /* evRxEnd */
	bitError bool            /* evRxEnd */
	expired  []expiry        /* evContention */
}

type effectKind int

const (
	fxRequireBackoff effectKind = iota
	fxScheduleAifs
	fxFreeze
	fxSetBackoff
	fxStartBackoff
	fxInternalCollision
	fxTransmit
	fxCancelTimeout
	fxSucceed
	fxFail
	fxBurst
	fxScheduleSifs
	fxSendPending
	fxDeliver
	fxOverhear
	fxSetEIFS
	fxReset
)

type effect struct {
	kind    effectKind
	ac      *accessCategory
	mode    accessMode
	period  time.Duration
	frame   *Frame
	pending pendingAction
	flag    bool /* Rate feedback for fxSucceed/fxFail, new value for fxSetEIFS. */
}

// accessMode is how the head of a queue goes out once we have the medium.
type accessMode int

const (
	modeData accessMode = iota
	modeRTS
	modeMulticast
)

func (m accessMode) waitState() State {
	switch m {
	case modeRTS:
		return StateWaitCts
	case modeMulticast:
		return StateWaitMulticast
	default:
		return StateWaitAck
	}
}

// What to send when the SIFS timer goes off.
type replyKind int

const (
	replyNone replyKind = iota
	replyCTS
	replyACK
	replyData
)

type pendingAction struct {
	kind  replyKind
	frame *Frame          /* The frame being answered, for CTS and ACK. */
	ac    *accessCategory /* For protected data after CTS. */
}

func (e *Engine) transition(ev event) (State, []effect) {
	var pre []effect

	// A frame arriving while the medium is busy has to back off
	// before it can go, even if its category was otherwise idle.
	if ev.kind == evDataReady && ev.ac != nil && ev.ac.queue.len() == 1 &&
		!ev.ac.backoffPending && !e.channel.mediumFree() {
		pre = append(pre, effect{kind: fxRequireBackoff, ac: ev.ac})
	}

	var next, effects = e.stateTransition(ev)

	return next, append(pre, effects...)
}

func (e *Engine) stateTransition(ev event) (State, []effect) {
	switch e.state {
	case StateIdle:
		return e.idleTransition(ev)
	case StateDefer:
		return e.deferTransition(ev)
	case StateWaitAifs, StateBackoff:
		return e.contentionTransition(ev)
	case StateWaitCts:
		return e.waitCtsTransition(ev)
	case StateWaitAck:
		return e.waitAckTransition(ev)
	case StateWaitMulticast:
		if ev.kind == evTimeout {
			return StateDefer, []effect{{kind: fxSucceed, ac: e.attempt.ac}}
		}
	case StateWaitSifs:
		if ev.kind == evSifs {
			var next = StateIdle
			if e.sifsAction.kind == replyData {
				next = StateWaitAck
			}

			return next, []effect{{kind: fxSendPending}}
		}
	case StateReceive:
		if ev.kind == evRxEnd {
			return e.receiveTransition(ev)
		}
	}

	return e.state, nil
}

func (e *Engine) idleTransition(ev event) (State, []effect) {
	switch ev.kind {
	case evRxStart:
		return StateReceive, nil
	case evDataReady, evSettle:
		if e.anyQueued() {
			return StateDefer, nil
		}
	}

	return StateIdle, nil
}

func (e *Engine) deferTransition(ev event) (State, []effect) {
	switch ev.kind {
	case evRxStart:
		return StateReceive, nil
	case evDataReady, evSettle, evMediumFree:
		if !e.anyQueued() {
			return StateIdle, []effect{{kind: fxReset}}
		}

		if e.channel.mediumFree() {
			return StateWaitAifs, []effect{{kind: fxScheduleAifs}}
		}
	}

	return StateDefer, nil
}

func (e *Engine) contentionTransition(ev event) (State, []effect) {
	switch ev.kind {
	case evMediumBusy:
		return StateDefer, []effect{{kind: fxFreeze}}

	case evRxStart:
		return StateReceive, []effect{{kind: fxFreeze}}

	case evContention:
		return e.contentionExpired(ev.expired)

	case evDataReady, evSettle, evMediumFree:
		if !e.anyQueued() {
			return StateIdle, []effect{{kind: fxReset}}
		}

		if !e.channel.mediumFree() {
			return StateDefer, []effect{{kind: fxFreeze}}
		}

		var next = StateWaitAifs
		if e.anyBackoffRunning() {
			next = StateBackoff
		}

		return next, []effect{{kind: fxScheduleAifs}}
	}

	return e.state, nil
}

/*------------------------------------------------------------------
 *
 * Name:	contentionExpired
 *
 * Purpose:	AIFS or backoff ran out for one or more categories.
 *
 * Description:	See resolveContention and internalCollision.  If
 *		somebody transmits, every other category still counting
 *		is frozen because our own transmission makes the medium
 *		busy.
 *
 *------------------------------------------------------------------*/

func (e *Engine) contentionExpired(expired []expiry) (State, []effect) {
	var contenders, effects = resolveContention(expired)

	for _, x := range expired {
		if x.aifs {
			effects = append(effects, effect{kind: fxSetEIFS, flag: false})
			break
		}
	}

	if len(contenders) == 0 {
		var next = e.state

		for _, fx := range effects {
			if fx.kind == fxStartBackoff {
				next = StateBackoff
			}
		}

		if e.anyBackoffRunning() {
			next = StateBackoff
		}

		return next, effects
	}

	var winner, losers = internalCollision(contenders)

	for _, ac := range losers {
		effects = append(effects, effect{kind: fxInternalCollision, ac: ac})
	}

	var mode = e.accessModeFor(winner)

	effects = append(effects,
		effect{kind: fxFreeze},
		effect{kind: fxTransmit, ac: winner, mode: mode})

	return mode.waitState(), effects
}

func (e *Engine) waitCtsTransition(ev event) (State, []effect) {
	var ac = e.attempt.ac

	switch ev.kind {
	case evRxEnd:
		if ev.bitError {
			return StateDefer, []effect{
				{kind: fxCancelTimeout},
				{kind: fxSetEIFS, flag: true},
				{kind: fxFail, ac: ac},
			}
		}

		if ev.frame.Type == FrameCTS && ev.frame.Receiver == e.addr {
			return StateWaitSifs, []effect{
				{kind: fxCancelTimeout},
				{kind: fxScheduleSifs, pending: pendingAction{kind: replyData, ac: ac}},
			}
		}

	case evTimeout:
		return StateDefer, []effect{{kind: fxFail, ac: ac}}
	}

	return StateWaitCts, nil
}

func (e *Engine) waitAckTransition(ev event) (State, []effect) {
	var ac = e.attempt.ac

	// Gap before the next frame of a burst.  Nothing outstanding.
	if e.sifs.Scheduled() && ev.kind != evSifs {
		return StateWaitAck, nil
	}

	switch ev.kind {
	case evRxEnd:
		if ev.bitError {
			return StateDefer, []effect{
				{kind: fxCancelTimeout},
				{kind: fxSetEIFS, flag: true},
				{kind: fxFail, ac: ac, flag: true},
			}
		}

		if ev.frame.Type == FrameACK && ev.frame.Receiver == e.addr {
			var effects = []effect{
				{kind: fxCancelTimeout},
				{kind: fxSucceed, ac: ac, flag: true},
			}

			// Within the TXOP the next frame follows after SIFS, no
			// contention.  We stay in WaitAck over the gap.
			if e.txopFits(ac, e.sched.Now()+e.timing.SIFS, ac.queue.peek(1)) {
				return StateWaitAck, append(effects, effect{kind: fxBurst, ac: ac})
			}

			return StateDefer, effects
		}

		// The peer sent us a frame instead of the ACK.  Our exchange
		// failed, and the frame is taken in as if we had been idle.
		if ev.frame.Receiver == e.addr && !ev.frame.IsControl() {
			var next, rx = e.receiveTransition(ev)

			return next, append([]effect{
				{kind: fxCancelTimeout},
				{kind: fxFail, ac: ac, flag: true},
			}, rx...)
		}

	case evSifs:
		return StateWaitAck, []effect{{kind: fxSendPending}}

	case evTimeout:
		return StateDefer, []effect{{kind: fxFail, ac: ac, flag: true}}
	}

	return StateWaitAck, nil
}

/*------------------------------------------------------------------
 *
 * Name:	receiveTransition
 *
 * Purpose:	A frame has finished arriving.
 *
 * Description:	Garbled			- use EIFS next time, back to Idle.
 *		For us: RTS		- CTS after SIFS, unless our NAV
 *					  says someone else has the medium.
 *		For us: data/mgmt	- deliver, ACK after SIFS.
 *		Group addressed		- deliver unless it is our own.
 *		For someone else	- only of interest in promiscuous
 *					  mode.  The NAV was already
 *					  taken care of.
 *
 *------------------------------------------------------------------*/

func (e *Engine) receiveTransition(ev event) (State, []effect) {
	if ev.bitError {
		return StateIdle, []effect{{kind: fxSetEIFS, flag: true}}
	}

	var f = ev.frame
	var effects = []effect{{kind: fxSetEIFS, flag: false}}

	switch {
	case f.Receiver == e.addr:
		switch f.Type {
		case FrameRTS:
			if e.channel.navActive() {
				return StateIdle, effects
			}

			return StateWaitSifs, append(effects,
				effect{kind: fxScheduleSifs, pending: pendingAction{kind: replyCTS, frame: f}})

		case FrameData, FrameQoSData, FrameManagement:
			return StateWaitSifs, append(effects,
				effect{kind: fxDeliver, frame: f},
				effect{kind: fxScheduleSifs, pending: pendingAction{kind: replyACK, frame: f}})
		}

	case f.Receiver.IsMulticast():
		if f.Transmitter != e.addr && !f.IsControl() {
			effects = append(effects, effect{kind: fxDeliver, frame: f})
		}

	default:
		if e.cfg.Promiscuous {
			effects = append(effects, effect{kind: fxOverhear, frame: f})
		}
	}

	return StateIdle, effects
}

/* end fsm.go */
