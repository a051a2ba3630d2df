package mac

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Channel access and frame exchange for one station.
 *
 * Description:	The engine sits between a higher layer, which hands
 *		it frames to send and takes the frames received, and a
 *		radio, which tells it what is happening on the channel
 *		and puts frames on the air.
 *
 *		It never blocks and never starts a goroutine.  Every
 *		input method runs to completion, possibly scheduling
 *		timers for later, and must be called from the same
 *		goroutine as the Scheduler's events.
 *
 * Usage:	(1) Create with New, giving it the configuration, the
 *		    clock, the radio and the higher layer.
 *
 *		(2) The higher layer calls Submit.
 *
 *		(3) The radio calls MediumBusy, MediumFree,
 *		    ReceptionStarted, ReceptionCompleted and
 *		    TransmissionCompleted.
 *
 *------------------------------------------------------------------*/

// Radio takes frames from the engine.  It reports back through the
// engine's ChannelListener methods.
type Radio interface {
	Transmit(f *Frame, airtime time.Duration)
}

// ChannelListener is the radio facing side of the engine.
type ChannelListener interface {
	MediumBusy()
	MediumFree()
	ReceptionStarted()
	ReceptionCompleted(f *Frame, bitError bool)
	TransmissionCompleted()
}

// UpperLayer receives frames and give-up notifications.
type UpperLayer interface {
	Deliver(f *Frame)
	LinkBreak(f *Frame)
}

// Stats are station wide counters on the receive side.
type Stats struct {
	Received   uint64
	Duplicates uint64
	Overheard  uint64
}

// attempt is the exchange in progress.
type attempt struct {
	ac        *accessCategory
	protected bool
	multicast bool
	burst     bool
	txopStart time.Duration
}

type Engine struct {
	cfg    Config
	addr   Address
	timing Timing
	build  frameBuilder

	sched  Scheduler
	radio  Radio
	upper  UpperLayer
	logger *log.Logger
	tracer *Tracer
	rng    *rand.Rand

	categories      []*accessCategory /* Lowest priority first. */
	defaultCategory Category

	channel channelMonitor
	state   State
	attempt *attempt

	sifs       *Timer
	sifsAction pendingAction
	timeout    *Timer

	useEIFS  bool
	sequence uint16

	dedupe *duplicateFilter
	rate   RateController
	stats  Stats
}

var _ ChannelListener = (*Engine)(nil)

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRand supplies the random source for backoff, so runs can be repeated.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

func WithTracer(t *Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

/*-------------------------------------------------------------------
 *
 * Name:        New
 *
 * Purpose:     Create the engine for one station.
 *
 * Inputs:	cfg	- Validated here, so it can come straight
 *			  from a file.
 *
 *		sched	- Clock and timers.
 *
 *		radio	- Where frames go.
 *
 *		upper	- Where received frames go.
 *
 * Returns:	Error wrapping ErrInvalidConfig if something doesn't
 *		make sense.
 *
 *--------------------------------------------------------------------*/

func New(cfg Config, sched Scheduler, radio Radio, upper UpperLayer, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var addr, _ = ParseAddress(cfg.Address)
	var defaultCategory, _ = ParseCategory(cfg.DefaultCategory)

	var rc, err = NewRateController(cfg.RateControl, cfg.rates())
	if err != nil {
		return nil, err
	}

	var e = &Engine{
		cfg:             cfg,
		addr:            addr,
		timing:          cfg.timing(),
		sched:           sched,
		radio:           radio,
		upper:           upper,
		logger:          log.New(io.Discard),
		rng:             rand.New(rand.NewSource(1)), //nolint:gosec
		defaultCategory: defaultCategory,
		dedupe:          newDuplicateFilter(cfg.DuplicateTimeout),
		rate:            rc,
	}

	e.build = frameBuilder{timing: e.timing, self: addr}

	for _, s := range cfg.categorySettings() {
		e.categories = append(e.categories, newAccessCategory(s.id, s.params))
	}

	for _, o := range opts {
		o(e)
	}

	e.logger = e.logger.With("station", addr.String())

	return e, nil
}

func (e *Engine) Address() Address {
	return e.addr
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Stats() Stats {
	return e.stats
}

// Rate is the bit rate the next unicast data frame would use.
func (e *Engine) Rate() Rate {
	return e.rate.Rate()
}

// Status reports every category, lowest priority first.
func (e *Engine) Status() []CategoryStatus {
	var out = make([]CategoryStatus, 0, len(e.categories))

	for _, ac := range e.categories {
		out = append(out, ac.status())
	}

	return out
}

// Counters for one category.  A DCF station only has best effort.
func (e *Engine) Counters(c Category) (Counters, bool) {
	for _, ac := range e.categories {
		if ac.id == c {
			return ac.counters, true
		}
	}

	return Counters{}, false
}

/*-------------------------------------------------------------------
 *
 * Name:        classify
 *
 * Purpose:     Pick the access category for an outgoing frame.
 *
 * Description:	Management	- voice, the highest.
 *		QoS data	- from the TID.
 *		Plain data	- the configured default.
 *
 *		With DCF there is only one queue so everything goes
 *		there, but a bad TID is still an error.
 *
 *--------------------------------------------------------------------*/

func (e *Engine) classify(f *Frame) (*accessCategory, error) {
	var c Category

	switch f.Type {
	case FrameManagement:
		c = Voice
	case FrameQoSData:
		var tc, err = CategoryForTID(f.TID)
		if err != nil {
			return nil, err
		}
		c = tc
	case FrameData:
		c = e.defaultCategory
	default:
		return nil, fmt.Errorf("%w: cannot submit %s", ErrUnknownFrameType, f.Type)
	}

	if len(e.categories) == 1 {
		return e.categories[0], nil
	}

	return e.categories[c], nil
}

/*-------------------------------------------------------------------
 *
 * Name:        Submit
 *
 * Purpose:     Queue a frame for transmission.
 *
 * Inputs:	f	- Type, Receiver, TID (for QoS data) and Payload
 *			  filled in.  The engine owns it from now on.
 *			  Transmitter is set here, Sequence when the
 *			  frame first goes on the air.
 *
 * Returns:	ErrQueueFull if it was dropped, ErrInvalidTID or
 *		ErrUnknownFrameType if it makes no sense.  In those
 *		cases nothing was queued.
 *
 *--------------------------------------------------------------------*/

func (e *Engine) Submit(f *Frame) error {
	var ac, err = e.classify(f)
	if err != nil {
		return err
	}

	if ac.queue.full() {
		ac.counters.Dropped++
		e.logger.Warn("transmit queue full, dropping frame", "category", ac.id, "to", f.Receiver)

		return fmt.Errorf("%w: %s", ErrQueueFull, ac.id)
	}

	f.Transmitter = e.addr
	f.Sequence = 0
	f.Retry = false
	f.numbered = false

	ac.queue.append(f, e.cfg.MulticastPriority)

	e.handle(event{kind: evDataReady, ac: ac})

	return nil
}

func (e *Engine) MediumBusy() {
	var wasFree = e.channel.mediumFree()
	e.channel.carrierBusy = true

	if wasFree {
		e.handle(event{kind: evMediumBusy})
	}
}

func (e *Engine) MediumFree() {
	e.channel.carrierBusy = false

	if e.channel.mediumFree() {
		e.handle(event{kind: evMediumFree})
	}
}

func (e *Engine) ReceptionStarted() {
	e.channel.radio = ChannelReceiving
	e.handle(event{kind: evRxStart})
}

/*-------------------------------------------------------------------
 *
 * Name:        ReceptionCompleted
 *
 * Purpose:     The radio has a whole frame for us.
 *
 * Inputs:	f		- The frame.  Unreliable if bitError.
 *
 *		bitError	- FCS failed or it collided with something.
 *
 * Description:	The NAV is updated before the state machine sees the
 *		frame.  If that starts a reservation while the radio is
 *		otherwise idle, the state machine also gets a "medium
 *		busy" without waiting for the physical carrier sense.
 *
 *--------------------------------------------------------------------*/

func (e *Engine) ReceptionCompleted(f *Frame, bitError bool) {
	if e.channel.radio == ChannelReceiving {
		e.channel.radio = ChannelIdle
	}

	var navStarted bool
	if !bitError && f.Receiver != e.addr {
		navStarted = e.channel.reserve(e.sched, f.Duration, e.navExpired)
	}

	e.handle(event{kind: evRxEnd, frame: f, bitError: bitError})

	if navStarted && e.channel.physicallyIdle() {
		e.handle(event{kind: evMediumBusy})
	}
}

func (e *Engine) TransmissionCompleted() {
	e.channel.radio = ChannelIdle

	if e.channel.mediumFree() {
		e.handle(event{kind: evMediumFree})
	}
}

func (e *Engine) navExpired() {
	e.logger.Debug("NAV expired", "t", e.sched.Now())

	if e.channel.mediumFree() {
		e.handle(event{kind: evMediumFree})
	}
}

// Stop cancels every timer and throws away everything queued.
func (e *Engine) Stop() {
	for _, ac := range e.categories {
		e.cancelCategoryTimers(ac)
		ac.queue.clear()
		ac.backoffPending = false
		ac.backoffPeriod = noBackoff
		ac.retryCount = 0
	}

	e.sched.Cancel(e.sifs)
	e.sched.Cancel(e.timeout)
	e.channel.reset(e.sched)
	e.sifsAction = pendingAction{}
	e.attempt = nil
	e.setState(StateIdle)
}

/*-------------------------------------------------------------------
 *
 * Name:        handle
 *
 * Purpose:     Run one event through the state machine, then
 *		settle.
 *
 *--------------------------------------------------------------------*/

func (e *Engine) handle(ev event) {
	var next, effects = e.transition(ev)

	for _, fx := range effects {
		e.apply(fx)
	}

	e.setState(next)
	e.settle()
}

func (e *Engine) settle() {
	// Idle -> Defer -> WaitAifs is the longest chain.
	for iter := 0; iter < 4; iter++ {
		var next, effects = e.transition(event{kind: evSettle})

		for _, fx := range effects {
			e.apply(fx)
		}

		if next == e.state {
			return
		}

		e.setState(next)
	}
}

func (e *Engine) setState(s State) {
	if s == e.state {
		return
	}

	e.logger.Debug("state", "from", e.state, "to", s, "t", e.sched.Now())
	e.state = s
}

func (e *Engine) anyQueued() bool {
	for _, ac := range e.categories {
		if !ac.queue.empty() {
			return true
		}
	}

	return false
}

func (e *Engine) anyBackoffRunning() bool {
	for _, ac := range e.categories {
		if ac.backoffTimer.Scheduled() {
			return true
		}
	}

	return false
}

func (e *Engine) accessModeFor(ac *accessCategory) accessMode {
	var head = ac.queue.head()

	switch {
	case head.IsMulticast():
		return modeMulticast
	case head.ByteLength() >= e.cfg.RTSThreshold:
		return modeRTS
	default:
		return modeData
	}
}

// number gives f the next sequence number unless an earlier attempt
// already did.  Retransmissions keep the number of the first try.
func (e *Engine) number(f *Frame) {
	if f.numbered {
		return
	}

	f.Sequence = e.sequence
	f.numbered = true
	e.sequence = (e.sequence + 1) % MaxSequence
}

// txopFits reports whether next could still be sent, starting at the
// given time, and acknowledged within the TXOP of the exchange in
// progress.
func (e *Engine) txopFits(ac *accessCategory, at time.Duration, next *Frame) bool {
	if next == nil || next.IsMulticast() || ac.params.TXOPLimit <= 0 || e.attempt == nil {
		return false
	}

	var end = at + e.timing.Airtime(next.ByteLength(), e.rate.Rate()) +
		e.timing.SIFS + e.build.ackAirtime()

	return end-e.attempt.txopStart <= ac.params.TXOPLimit
}

/* end engine.go */
