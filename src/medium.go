package mac

import (
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	A shared wireless channel connecting any number of
 *		stations, for simulation and testing.
 *
 * Description:	Every station is attached through a Port, which is
 *		its Radio.  A frame sent on one port reaches every other
 *		port after the propagation delay and occupies it for
 *		the frame's airtime.  Everyone hears everyone.
 *
 *		Each port reports, through the station's ChannelListener:
 *
 *		  MediumBusy / MediumFree when the number of frames
 *		  arriving goes from zero to one or back.
 *
 *		  ReceptionStarted / ReceptionCompleted for the frame
 *		  the receiver locks on to, which is the first one to
 *		  arrive while it is not transmitting.  It is marked as
 *		  a bit error if anything else overlaps it, or at
 *		  random with the configured frame error rate.  If the
 *		  port starts transmitting the reception is abandoned
 *		  without being reported.
 *
 *		A port can't hear anything while it is transmitting.
 *
 *		With zero propagation delay two stations whose backoff
 *		ends at the same instant would not collide:  the
 *		second one would already see the first transmission
 *		because channel events go before timers.  The default
 *		is therefore a small non-zero delay.
 *
 *------------------------------------------------------------------*/

const DefaultPropagationDelay = time.Microsecond

type MediumStats struct {
	Transmissions uint64
	Corrupted     uint64 /* Receptions with a bit error, counted per receiver. */
}

type Medium struct {
	sched       Scheduler
	propagation time.Duration
	errorRate   float64
	rng         *rand.Rand
	logger      *log.Logger

	ports []*Port
	stats MediumStats
}

type MediumOption func(*Medium)

func WithPropagationDelay(d time.Duration) MediumOption {
	return func(m *Medium) {
		m.propagation = d
	}
}

// WithFrameErrorRate corrupts each reception with probability p.
func WithFrameErrorRate(p float64, rng *rand.Rand) MediumOption {
	return func(m *Medium) {
		m.errorRate = p
		m.rng = rng
	}
}

func WithMediumLogger(l *log.Logger) MediumOption {
	return func(m *Medium) {
		m.logger = l
	}
}

func NewMedium(sched Scheduler, opts ...MediumOption) *Medium {
	var m = &Medium{
		sched:       sched,
		propagation: DefaultPropagationDelay,
		logger:      log.New(io.Discard),
	}

	for _, o := range opts {
		o(m)
	}

	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(1)) //nolint:gosec
	}

	return m
}

func (m *Medium) Stats() MediumStats {
	return m.stats
}

// Attach a new station.  Bind the port to the station once it exists.
func (m *Medium) Attach() *Port {
	var p = &Port{medium: m}
	m.ports = append(m.ports, p)

	return p
}

// arrival is one frame on its way into one port.
type arrival struct {
	frame     *Frame
	corrupted bool
}

type Port struct {
	medium   *Medium
	listener ChannelListener

	txEnd   time.Duration
	arrived int      /* Frames currently arriving. */
	locked  *arrival /* The one being decoded. */
}

var _ Radio = (*Port)(nil)

func (p *Port) Bind(l ChannelListener) {
	p.listener = l
}

func (p *Port) transmitting() bool {
	return p.medium.sched.Now() < p.txEnd
}

/*------------------------------------------------------------------
 *
 * Name:	Transmit
 *
 * Purpose:	Put a frame on the air.
 *
 * Inputs:	f	- The frame.  Each receiver gets its own copy.
 *
 *		airtime	- How long it occupies the medium.
 *
 *------------------------------------------------------------------*/

func (p *Port) Transmit(f *Frame, airtime time.Duration) {
	var m = p.medium
	var now = m.sched.Now()

	m.stats.Transmissions++

	// Whatever we were decoding is abandoned.
	p.locked = nil

	p.txEnd = now + airtime
	m.sched.At(p.txEnd, PriorityChannel, func() {
		if p.listener != nil {
			p.listener.TransmissionCompleted()
		}
	})

	for _, q := range m.ports {
		if q == p {
			continue
		}

		q := q // per-iteration copy; go directive is below 1.22

		var a = &arrival{frame: f.clone()}
		var start = now + m.propagation

		m.sched.At(start, PriorityChannel, func() {
			q.arrivalStarted(a)
		})
		m.sched.At(start+airtime, PriorityChannel, func() {
			q.arrivalEnded(a)
		})
	}
}

func (p *Port) arrivalStarted(a *arrival) {
	p.arrived++

	if p.locked != nil {
		p.locked.corrupted = true
	}

	if p.arrived == 1 && p.listener != nil {
		p.listener.MediumBusy()
	}

	if p.locked == nil && p.arrived == 1 && !p.transmitting() {
		p.locked = a

		if p.listener != nil {
			p.listener.ReceptionStarted()
		}
	}
}

func (p *Port) arrivalEnded(a *arrival) {
	var m = p.medium

	p.arrived--

	if p.locked == a {
		p.locked = nil

		if !a.corrupted && m.errorRate > 0 && m.rng.Float64() < m.errorRate {
			a.corrupted = true
		}

		if a.corrupted {
			m.stats.Corrupted++
			m.logger.Debug("reception corrupted", "frame", a.frame, "t", m.sched.Now())
		}

		if p.listener != nil {
			p.listener.ReceptionCompleted(a.frame, a.corrupted)
		}
	}

	if p.arrived == 0 && p.listener != nil {
		p.listener.MediumFree()
	}
}

/* end medium.go */
