package mac

import "time"

/*------------------------------------------------------------------
 *
 * Purpose:	Carry out the effects chosen by the state machine:
 *		timers, transmissions, retries and deliveries.
 *
 *------------------------------------------------------------------*/

func (e *Engine) apply(fx effect) {
	switch fx.kind {
	case fxRequireBackoff:
		fx.ac.backoffPending = true

	case fxScheduleAifs:
		e.scheduleAifs()

	case fxFreeze:
		e.freeze()

	case fxSetBackoff:
		fx.ac.backoffPeriod = fx.period

	case fxStartBackoff:
		e.startBackoff(fx.ac)

	case fxInternalCollision:
		fx.ac.counters.Collisions++
		e.logger.Debug("internal collision", "category", fx.ac.id, "t", e.sched.Now())
		e.retry(fx.ac, false)

	case fxTransmit:
		e.transmit(fx.ac, fx.mode)

	case fxCancelTimeout:
		e.sched.Cancel(e.timeout)

	case fxSucceed:
		e.succeed(fx.ac, fx.flag)

	case fxFail:
		e.retry(fx.ac, fx.flag)

	case fxBurst:
		e.attempt = &attempt{ac: fx.ac, burst: true, txopStart: e.attempt.txopStart}
		e.scheduleSifs(pendingAction{kind: replyData, ac: fx.ac})

	case fxScheduleSifs:
		e.scheduleSifs(fx.pending)

	case fxSendPending:
		e.sendPending()

	case fxDeliver:
		e.deliver(fx.frame)

	case fxOverhear:
		e.overhear(fx.frame)

	case fxSetEIFS:
		e.useEIFS = fx.flag

	case fxReset:
		for _, ac := range e.categories {
			e.cancelCategoryTimers(ac)
			ac.backoffPending = false
			ac.backoffPeriod = noBackoff
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	scheduleAifs
 *
 * Purpose:	Start the AIFS timer of every category which has
 *		something to send and isn't already counting.
 *
 * Description:	After a garbled reception AIFS is stretched by
 *		EIFS - DIFS.
 *
 *------------------------------------------------------------------*/

func (e *Engine) scheduleAifs() {
	var now = e.sched.Now()

	for _, ac := range e.categories {
		if ac.queue.empty() || ac.contending() {
			continue
		}

		var wait = e.timing.AIFS(ac.params.AIFS)
		if e.useEIFS {
			wait += e.timing.EIFS() - e.timing.DIFS()
		}

		var a = ac
		ac.aifsTimer = e.sched.At(now+wait, PriorityTimer, func() {
			e.onContentionTimer(a, true)
		})
	}
}

func (e *Engine) startBackoff(ac *accessCategory) {
	var a = ac
	ac.backoffTimer = e.sched.At(e.sched.Now()+ac.backoffPeriod, PriorityTimer, func() {
		e.onContentionTimer(a, false)
	})
}

func (e *Engine) onContentionTimer(ac *accessCategory, aifs bool) {
	e.handle(event{kind: evContention, expired: e.collectExpired(ac, aifs)})
}

/*------------------------------------------------------------------
 *
 * Name:	freeze
 *
 * Purpose:	The medium went busy.  Stop all contention.
 *
 * Description:	A category still in AIFS now owes a backoff.
 *		A category counting down keeps what is left, in
 *		whole slots.
 *
 *------------------------------------------------------------------*/

func (e *Engine) freeze() {
	var now = e.sched.Now()

	for _, ac := range e.categories {
		if ac.aifsTimer.Scheduled() {
			e.sched.Cancel(ac.aifsTimer)
			ac.backoffPending = true
		}

		if ac.backoffTimer.Scheduled() {
			ac.backoffPeriod = frozenBackoff(ac.backoffPeriod, ac.backoffTimer.Started(), now, e.timing.Slot)
			e.sched.Cancel(ac.backoffTimer)
		}
	}
}

func (e *Engine) cancelCategoryTimers(ac *accessCategory) {
	e.sched.Cancel(ac.aifsTimer)
	e.sched.Cancel(ac.backoffTimer)
}

/*------------------------------------------------------------------
 *
 * Name:	transmit
 *
 * Purpose:	We have the medium.  Send the head of ac's queue, or an
 *		RTS for it.
 *
 *------------------------------------------------------------------*/

func (e *Engine) transmit(ac *accessCategory, mode accessMode) {
	var now = e.sched.Now()
	var head = ac.queue.head()

	ac.backoffPending = false
	ac.backoffPeriod = noBackoff

	e.attempt = &attempt{
		ac:        ac,
		protected: mode == modeRTS,
		multicast: mode == modeMulticast,
		txopStart: now,
	}

	switch mode {
	case modeRTS:
		var rts = e.build.rts(head, e.rate.Rate())
		var airtime = e.send(rts)
		e.setTimeout(airtime + e.timing.ResponseTimeout(ctsLength))

	case modeMulticast:
		e.number(head)
		var f = e.build.data(head, 0, nil, 0)
		var airtime = e.send(f)
		e.setTimeout(airtime)

	default:
		e.sendData(ac)
	}
}

// sendData sends the head of ac's queue as unicast data and waits for the ACK.
func (e *Engine) sendData(ac *accessCategory) {
	var head = ac.queue.head()
	var rate = e.rate.Rate()

	e.number(head)

	var d = e.build.data(head, rate, nil, 0)
	var exchangeEnd = e.sched.Now() + e.timing.Airtime(d.ByteLength(), rate) + e.timing.SIFS + e.build.ackAirtime()

	// The next DATA would follow the ACK after another SIFS.
	var next = ac.queue.peek(1)
	if e.txopFits(ac, exchangeEnd+e.timing.SIFS, next) {
		d = e.build.data(head, rate, next, rate)
	}

	var airtime = e.send(d)
	e.setTimeout(airtime + e.timing.ResponseTimeout(ackLength))
}

func (e *Engine) setTimeout(d time.Duration) {
	e.sched.Cancel(e.timeout)
	e.timeout = e.sched.At(e.sched.Now()+d, PriorityTimer, func() {
		e.handle(event{kind: evTimeout})
	})
}

// send hands f to the radio and returns its airtime.
func (e *Engine) send(f *Frame) time.Duration {
	var airtime = e.timing.Airtime(f.ByteLength(), f.BitRate)

	e.channel.radio = ChannelTransmitting

	if e.tracer != nil {
		e.tracer.Transmitted(e.sched.Now(), f)
	}

	e.radio.Transmit(f, airtime)

	return airtime
}

func (e *Engine) scheduleSifs(p pendingAction) {
	e.sifsAction = p
	e.sifs = e.sched.At(e.sched.Now()+e.timing.SIFS, PriorityTimer, func() {
		e.handle(event{kind: evSifs})
	})
}

func (e *Engine) sendPending() {
	var p = e.sifsAction
	e.sifsAction = pendingAction{}

	switch p.kind {
	case replyCTS:
		e.send(e.build.cts(p.frame))
	case replyACK:
		e.send(e.build.ack(p.frame))
	case replyData:
		e.sendData(p.ac)
	case replyNone:
	}
}

/*------------------------------------------------------------------
 *
 * Name:	succeed
 *
 * Purpose:	The exchange for the head of ac's queue is over:  ACK
 *		received, or multicast sent.
 *
 * Description:	Fresh contention is needed before the next frame,
 *		even from the same queue.  Only a TXOP burst gets
 *		around that.
 *
 *------------------------------------------------------------------*/

func (e *Engine) succeed(ac *accessCategory, rateFeedback bool) {
	var f = ac.queue.pop()

	ac.counters.Sent++
	ac.retryCount = 0
	ac.backoffPeriod = noBackoff
	ac.backoffPending = !ac.queue.empty()

	if rateFeedback {
		e.rate.ReportSuccess()
	}

	if ac.queue.empty() {
		e.cancelCategoryTimers(ac)
	}

	e.logger.Debug("sent", "category", ac.id, "seq", f.Sequence, "to", f.Receiver, "t", e.sched.Now())
}

/*------------------------------------------------------------------
 *
 * Name:	retry
 *
 * Purpose:	The exchange for the head of ac's queue failed (no CTS,
 *		no ACK, garbled response, or lost an internal collision).
 *
 * Description:	On the last allowed attempt the frame is thrown away and
 *		the higher layer told about the broken link.  Otherwise
 *		it will go again after a backoff drawn from a contention
 *		window twice as big as last time.
 *
 *------------------------------------------------------------------*/

func (e *Engine) retry(ac *accessCategory, rateFeedback bool) {
	if rateFeedback {
		e.rate.ReportFailure()
	}

	if ac.retryCount >= e.cfg.RetryLimit-1 {
		var f = ac.queue.pop()

		ac.counters.GivenUp++
		ac.retryCount = 0
		ac.backoffPeriod = noBackoff
		ac.backoffPending = !ac.queue.empty()

		if ac.queue.empty() {
			e.cancelCategoryTimers(ac)
		}

		e.logger.Warn("giving up", "category", ac.id, "seq", f.Sequence, "to", f.Receiver, "t", e.sched.Now())

		if e.upper != nil {
			e.upper.LinkBreak(f)
		}

		return
	}

	ac.retryCount++
	ac.queue.head().Retry = true
	ac.counters.Retried++
	ac.backoffPending = true
	ac.backoffPeriod = e.generateBackoff(ac)
}

func (e *Engine) deliver(f *Frame) {
	if e.cfg.DuplicateDetection && e.dedupe.check(e.sched.Now(), f) {
		e.stats.Duplicates++
		e.logger.Debug("duplicate", "from", f.Transmitter, "seq", f.Sequence, "t", e.sched.Now())

		return
	}

	e.stats.Received++
	e.passUp(f)
}

// overhear is for promiscuous mode, frames between other stations.
func (e *Engine) overhear(f *Frame) {
	if e.cfg.DuplicateDetection && f.Type != FrameACK && f.Type != FrameCTS && f.Type != FrameRTS &&
		e.dedupe.check(e.sched.Now(), f) {
		e.stats.Duplicates++

		return
	}

	e.stats.Overheard++
	e.passUp(f)
}

func (e *Engine) passUp(f *Frame) {
	if e.tracer != nil {
		e.tracer.Delivered(e.sched.Now(), e.addr, f)
	}

	if e.upper != nil {
		e.upper.Deliver(f)
	}
}

/* end xmit.go */
